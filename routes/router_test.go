package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chwoo19999-a11y/my-first-project/config"
	"github.com/chwoo19999-a11y/my-first-project/services"
	"github.com/chwoo19999-a11y/my-first-project/store"
	"github.com/chwoo19999-a11y/my-first-project/utils"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	t      *testing.T
	router *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Set(config.AppConfig{
		JWTSecret:          "test-secret",
		GinMode:            "test",
		GinPath:            filepath.Join(dir, "logs", "gin.log"),
		RateLimitPerMinute: 100000,
		DataDir:            dir,
		AdminUsernames:     []string{"admin"},
	})
	utils.SetRedis(nil)

	backend, err := store.NewFileBackend(dir)
	require.NoError(t, err)
	svc := services.New(store.New(backend), cfg)
	return &testServer{t: t, router: SetupRouter(svc)}
}

func (s *testServer) do(method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 && w.Header().Get("Content-Type") != "" {
		_ = json.Unmarshal(w.Body.Bytes(), &env)
	}
	return w, env
}

func (s *testServer) register(name string) (string, int) {
	s.t.Helper()
	w, env := s.do(http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"username": name, "email": name + "@example.com", "password": "secret123",
	})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	var data struct {
		Token string `json:"token"`
		User  struct {
			ID int `json:"id"`
		} `json:"user"`
	}
	require.NoError(s.t, json.Unmarshal(env.Data, &data))
	return data.Token, data.User.ID
}

func decode(t *testing.T, env envelope, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, v))
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)
	w, env := s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, env.Code)
	assert.NotEmpty(t, w.Header().Get(utils.RequestIDHeader))

	w, _ = s.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "community_store_commit_duration_seconds")
}

func TestRegisterLoginMe(t *testing.T) {
	s := newTestServer(t)
	token, id := s.register("alice")
	assert.Equal(t, 1, id)

	w, env := s.do(http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"username": "alice", "email": "other@example.com", "password": "secret123",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, 40900, env.Code)
	assert.Equal(t, "username already exists", env.Message)

	w, env = s.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"username": "alice", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 40106, env.Code)

	w, env = s.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"username": "alice", "password": "secret123"})
	require.Equal(t, http.StatusOK, w.Code)
	var login struct {
		Token string `json:"token"`
	}
	decode(t, env, &login)
	assert.NotEmpty(t, login.Token)

	w, env = s.do(http.MethodGet, "/api/v1/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var me struct {
		User struct {
			Username string `json:"username"`
			City     string `json:"city_in_korea"`
		} `json:"user"`
	}
	decode(t, env, &me)
	assert.Equal(t, "alice", me.User.Username)
	assert.Equal(t, "Seoul", me.User.City)
	assert.NotContains(t, string(env.Data), "password")

	w, _ = s.do(http.MethodGet, "/api/v1/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogoutRevokesToken(t *testing.T) {
	mr := miniredis.RunT(t)
	s := newTestServer(t)
	utils.SetRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { utils.SetRedis(nil) })

	token, _ := s.register("bob")
	w, _ := s.do(http.MethodPost, "/api/v1/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, env := s.do(http.MethodGet, "/api/v1/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 40104, env.Code)
	assert.Len(t, mr.Keys(), 1)
}

func TestFeedLikeFlow(t *testing.T) {
	s := newTestServer(t)
	author, _ := s.register("author")
	fan, _ := s.register("fan")

	w, env := s.do(http.MethodPost, "/api/v1/posts", author, gin.H{"content": "hello", "tags": "a,b"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var created struct {
		Post struct {
			ID int `json:"id"`
		} `json:"post"`
	}
	decode(t, env, &created)
	postPath := fmt.Sprintf("/api/v1/posts/%d", created.Post.ID)

	w, env = s.do(http.MethodPost, postPath+"/like", fan, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var like struct {
		Liked     bool `json:"liked"`
		LikeCount int  `json:"like_count"`
		Success   bool `json:"success"`
	}
	decode(t, env, &like)
	assert.True(t, like.Liked)
	assert.Equal(t, 1, like.LikeCount)

	w, env = s.do(http.MethodGet, "/api/v1/posts?sort=likes", fan, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var feed struct {
		Items []struct {
			ID        int    `json:"id"`
			Likes     int    `json:"likes"`
			Author    string `json:"author"`
			LikedByMe bool   `json:"liked_by_me"`
		} `json:"items"`
	}
	decode(t, env, &feed)
	require.Len(t, feed.Items, 1)
	assert.Equal(t, 1, feed.Items[0].Likes)
	assert.Equal(t, "author", feed.Items[0].Author)
	assert.True(t, feed.Items[0].LikedByMe)

	w, _ = s.do(http.MethodPost, postPath+"/like", fan, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w, env = s.do(http.MethodGet, postPath+"/like", fan, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"liked":false}`, string(env.Data))

	w, env = s.do(http.MethodPost, postPath+"/repost", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"reposts":1}`, string(env.Data))

	w, env = s.do(http.MethodPost, "/api/v1/posts/999/like", fan, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 40400, env.Code)

	w, env = s.do(http.MethodDelete, postPath, fan, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, 40300, env.Code)

	w, _ = s.do(http.MethodDelete, postPath, author, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = s.do(http.MethodGet, postPath, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCommentsRoutes(t *testing.T) {
	s := newTestServer(t)
	author, _ := s.register("author")
	w, _ := s.do(http.MethodPost, "/api/v1/posts", author, gin.H{"content": "hello"})
	require.Equal(t, http.StatusOK, w.Code)

	w, env := s.do(http.MethodPost, "/api/v1/posts/1/comments", author, gin.H{"content": "first!"})
	require.Equal(t, http.StatusOK, w.Code)
	var created struct {
		Comment struct {
			ID int `json:"id"`
		} `json:"comment"`
	}
	decode(t, env, &created)

	w, env = s.do(http.MethodGet, "/api/v1/posts/1/comments", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), "first!")

	w, _ = s.do(http.MethodDelete, fmt.Sprintf("/api/v1/comments/%d", created.Comment.ID), author, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTravelRoutes(t *testing.T) {
	s := newTestServer(t)
	owner, _ := s.register("owner")
	u1, _ := s.register("u1")
	u2, _ := s.register("u2")

	w, env := s.do(http.MethodPost, "/api/v1/travel", owner, gin.H{
		"title": "Jeju", "departure_city": "Seoul", "destination_city": "Jeju",
		"date_from": "2024-07-01", "date_to": "2024-07-03", "max_people": 1,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var created struct {
		Listing struct {
			ID     int    `json:"id"`
			Status string `json:"status"`
		} `json:"listing"`
	}
	decode(t, env, &created)
	assert.Equal(t, "open", created.Listing.Status)
	base := fmt.Sprintf("/api/v1/travel/%d", created.Listing.ID)

	w, env = s.do(http.MethodPost, base+"/join", u1, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"status":"full"`)

	w, env = s.do(http.MethodPost, base+"/join", u2, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 40000, env.Code)

	w, env = s.do(http.MethodGet, "/api/v1/travel?departure=seoul&status=full", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"total":1`)

	w, _ = s.do(http.MethodPost, base+"/close", u1, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w, env = s.do(http.MethodPost, base+"/close", owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"status":"closed"`)

	w, _ = s.do(http.MethodGet, "/api/v1/travel?status=bogus", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(http.MethodDelete, base, owner, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestStatsUsesCache(t *testing.T) {
	mr := miniredis.RunT(t)
	s := newTestServer(t)
	utils.SetRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { utils.SetRedis(nil) })

	// registering bumps the stats generation once
	token, _ := s.register("ann")
	w, env := s.do(http.MethodGet, "/api/v1/stats", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"users":1`)
	assert.True(t, mr.Exists("cache:stats:v1:summary"))

	w, _ = s.do(http.MethodPost, "/api/v1/posts", token, gin.H{"content": "x"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, mr.Exists("cache:stats:v1:summary"), "writes invalidate the stats cache")
	gen, err := mr.Get("cache:gen:stats")
	require.NoError(t, err)
	assert.Equal(t, "2", gen)

	w, env = s.do(http.MethodGet, "/api/v1/stats", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"posts":1`)
	assert.True(t, mr.Exists("cache:stats:v2:summary"))
}

func TestValidationAndRouting(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.register("ann")

	w, env := s.do(http.MethodPost, "/api/v1/posts", token, gin.H{"content": "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 40000, env.Code)

	w, _ = s.do(http.MethodPost, "/api/v1/posts", "", gin.H{"content": "x"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = s.do(http.MethodGet, "/api/v1/posts?sort=oldest", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(http.MethodGet, "/api/v1/posts/abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(http.MethodGet, "/api/v1/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestClientConfig(t *testing.T) {
	s := newTestServer(t)
	w, env := s.do(http.MethodGet, "/api/v1/config", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Registration struct {
			DefaultCountry string `json:"default_country"`
			DefaultCity    string `json:"default_city"`
		} `json:"registration"`
		Feed struct {
			Sorts []string `json:"sorts"`
		} `json:"feed"`
		Travel struct {
			Statuses []string `json:"statuses"`
		} `json:"travel"`
	}
	decode(t, env, &body)
	assert.Equal(t, "India", body.Registration.DefaultCountry)
	assert.Equal(t, "Seoul", body.Registration.DefaultCity)
	assert.Equal(t, []string{"latest", "likes"}, body.Feed.Sorts)
	assert.Equal(t, []string{"open", "full", "closed"}, body.Travel.Statuses)
}
