package utils

import (
	"context"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chwoo19999-a11y/my-first-project/config"
)

func useRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	SetRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { SetRedis(nil) })
	return mr
}

func TestPasswordDigest(t *testing.T) {
	// sha256("password123")
	const want = "ef92b778bafe771e89245b89ecbc08a44a4e166c06659911881f383d4473e94f"
	assert.Equal(t, want, HashPassword("password123"))
	assert.True(t, CheckPassword(want, "password123"))
	assert.True(t, CheckPasswordHash(" "+want+" ", HashPassword("password123")))
	assert.False(t, CheckPassword(want, "password124"))
	assert.False(t, CheckPasswordHash("", HashPassword("")))
}

func TestTokenRoundTrip(t *testing.T) {
	config.Set(config.AppConfig{JWTSecret: "utils-secret"})

	token, err := GenerateToken(12, "alice", time.Hour)
	require.NoError(t, err)
	claims, err := ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, 12, claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.NotEmpty(t, claims.ID)

	other, err := GenerateToken(12, "alice", time.Hour)
	require.NoError(t, err)
	assert.NotEqual(t, token, other, "each token gets its own id")

	_, err = ParseToken(token + "x")
	assert.Error(t, err)

	anonymous, err := GenerateToken(0, "ghost", time.Hour)
	require.NoError(t, err)
	_, err = ParseToken(anonymous)
	assert.Error(t, err)

	config.Set(config.AppConfig{JWTSecret: "rotated"})
	_, err = ParseToken(token)
	assert.Error(t, err)
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "hello", Sanitize("<script>alert(1)</script>hello"))
	assert.Equal(t, "bold & plain", Sanitize("  <b>bold</b> &amp; plain "))
	assert.Equal(t, "", Sanitize("<img src=x onerror=alert(1)>"))
	assert.Equal(t, "a < b", Sanitize("a < b"))
	assert.Equal(t, "Tom & Jerry", Sanitize("Tom &amp; Jerry"))
}

func TestSanitizeEntityEncodedMarkup(t *testing.T) {
	assert.Equal(t, "hi", Sanitize("&lt;script&gt;alert(1)&lt;/script&gt;hi"))
	assert.Equal(t, "x", Sanitize("&lt;img src=x onerror=alert(1)&gt;x"))
	assert.Equal(t, "hi", Sanitize("&amp;lt;script&amp;gt;alert(1)&amp;lt;/script&amp;gt;hi"))

	for _, in := range []string{
		"&lt;b&gt;bold&lt;/b&gt;",
		"&amp;amp;lt;a href=x&amp;amp;gt;deep",
		"&amp;amp;amp;amp;amp;lt;script&amp;amp;amp;amp;amp;gt;",
	} {
		out := Sanitize(in)
		assert.Equal(t, out, sanitizer.Sanitize(out), "no markup survives in %q", in)
	}
}

func TestBlacklistInMemory(t *testing.T) {
	config.Set(config.AppConfig{JWTSecret: "x"})
	SetRedis(nil)
	ctx := context.Background()

	BlacklistToken(ctx, "tok-mem", time.Now().Add(time.Hour))
	assert.True(t, IsTokenBlacklisted(ctx, "tok-mem"))
	assert.False(t, IsTokenBlacklisted(ctx, "tok-other"))

	BlacklistToken(ctx, "tok-expired", time.Now().Add(-time.Second))
	assert.False(t, IsTokenBlacklisted(ctx, "tok-expired"))
}

func TestBlacklistInRedis(t *testing.T) {
	config.Set(config.AppConfig{JWTSecret: "x"})
	mr := useRedis(t)
	ctx := context.Background()

	BlacklistToken(ctx, "tok-redis", time.Now().Add(time.Minute))
	assert.True(t, mr.Exists(blacklistPrefix+"tok-redis"))
	assert.True(t, IsTokenBlacklisted(ctx, "tok-redis"))

	mr.FastForward(2 * time.Minute)
	assert.False(t, IsTokenBlacklisted(ctx, "tok-redis"))
}

func TestCacheWithoutRedis(t *testing.T) {
	SetRedis(nil)
	ctx := context.Background()
	CacheSetJSON(ctx, CachePrefixPosts+"k", []int{1}, 0)
	var out []int
	assert.False(t, CacheGetJSON(ctx, CachePrefixPosts+"k", &out))
	InvalidateByPrefix(ctx, CachePrefixPosts)
}

func TestCacheRoundTripAndInvalidate(t *testing.T) {
	mr := useRedis(t)
	ctx := context.Background()

	CacheSetJSON(ctx, CachePrefixPosts+"a", map[string]int{"n": 1}, 0)
	CacheSetJSON(ctx, CachePrefixPosts+"b", map[string]int{"n": 2}, time.Second)
	CacheSetJSON(ctx, CachePrefixTravel+"a", map[string]int{"n": 3}, 0)

	var got map[string]int
	require.True(t, CacheGetJSON(ctx, CachePrefixPosts+"a", &got))
	assert.Equal(t, 1, got["n"])
	assert.Equal(t, defaultCacheTTL, mr.TTL(CachePrefixPosts+"a"))

	InvalidateByPrefix(ctx, CachePrefixPosts)
	assert.False(t, mr.Exists(CachePrefixPosts+"a"))
	assert.False(t, mr.Exists(CachePrefixPosts+"b"))
	assert.True(t, mr.Exists(CachePrefixTravel+"a"))

	require.NoError(t, mr.Set(CachePrefixStats+"bad", "{not json"))
	assert.False(t, CacheGetJSON(ctx, CachePrefixStats+"bad", &got))
}

func TestVersionedKeyOutlivesLateWrites(t *testing.T) {
	useRedis(t)
	ctx := context.Background()

	key := VersionedKey(ctx, CachePrefixPosts, "list")
	assert.Equal(t, CachePrefixPosts+"v0:list", key)

	// a reader resolved its key, then a writer invalidated before the reader stored its result
	InvalidateByPrefix(ctx, CachePrefixPosts)
	CacheSetJSON(ctx, key, []int{1}, 0)

	fresh := VersionedKey(ctx, CachePrefixPosts, "list")
	assert.Equal(t, CachePrefixPosts+"v1:list", fresh)
	var got []int
	assert.False(t, CacheGetJSON(ctx, fresh, &got), "stale list is not served after the write")

	assert.Equal(t, CachePrefixTravel+"v0:list", VersionedKey(ctx, CachePrefixTravel, "list"))
}

func TestVersionedKeyWithoutRedis(t *testing.T) {
	SetRedis(nil)
	assert.Equal(t, CachePrefixStats+"v0:summary", VersionedKey(context.Background(), CachePrefixStats, "summary"))
}

func TestRollingFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "access.log")
	l, err := NewRollingFileLogger(path, "info", 1, 1, 1, false)
	require.NoError(t, err)
	l.Info("request served")
	l.Debug("dropped below level")
	_ = l.Sync()

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "request served")
	assert.NotContains(t, string(b), "dropped below level")
}

func TestServerShutdownRunsHooks(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := NewServer(ln.Addr().String(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}), time.Second, time.Second)
	var order []string
	srv.OnShutdown(func(context.Context) error { order = append(order, "redis"); return nil })
	srv.OnShutdown(func(context.Context) error { order = append(order, "db"); return nil })

	served := make(chan error, 1)
	go func() { served <- srv.Serve(ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	require.NoError(t, srv.Shutdown(context.Background()))
	require.NoError(t, srv.Shutdown(context.Background()))
	select {
	case err := <-served:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after Shutdown")
	}
	assert.Equal(t, []string{"redis", "db"}, order)
}
