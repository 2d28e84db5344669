package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chwoo19999-a11y/my-first-project/config"
	"github.com/chwoo19999-a11y/my-first-project/models"
	"github.com/chwoo19999-a11y/my-first-project/store"
)

func TestCommentsLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.register(t, "author")
	fan := f.register(t, "fan")
	admin := f.register(t, "admin")

	post, err := f.Posts.Create(ctx, author, "hi", "")
	require.NoError(t, err)

	c1, err := f.Comments.Add(ctx, fan, post.ID, "first")
	require.NoError(t, err)
	c2, err := f.Comments.Add(ctx, author, post.ID, "<b>second</b>")
	require.NoError(t, err)
	assert.Equal(t, "second", c2.Content)

	list, err := f.Comments.List(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, c1.ID, list[0].ID)
	assert.Equal(t, "fan", list[0].Author)

	requireCode(t, models.CodeUnauthorized, f.Comments.Delete(ctx, author, c1.ID))
	require.NoError(t, f.Comments.Delete(ctx, fan, c1.ID))
	require.NoError(t, f.Comments.Delete(ctx, admin, c2.ID))
	requireCode(t, models.CodeNotFound, f.Comments.Delete(ctx, admin, c2.ID))

	_, err = f.Comments.Add(ctx, fan, 404, "x")
	requireCode(t, models.CodeNotFound, err)
	_, err = f.Comments.Add(ctx, fan, post.ID, "  ")
	requireCode(t, models.CodeValidation, err)
	_, err = f.Comments.List(ctx, 404)
	requireCode(t, models.CodeNotFound, err)
}

func TestStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.register(t, "a")
	b := f.register(t, "b")
	p, err := f.Posts.Create(ctx, a, "x", "")
	require.NoError(t, err)
	_, err = f.Posts.ToggleLike(ctx, p.ID, b.UserID)
	require.NoError(t, err)
	_, err = f.Comments.Add(ctx, b, p.ID, "y")
	require.NoError(t, err)
	l, err := f.Travel.Create(ctx, a, listing("t", "x", "y", 0))
	require.NoError(t, err)
	_, err = f.Travel.Create(ctx, a, listing("u", "x", "y", 0))
	require.NoError(t, err)
	_, err = f.Travel.Close(ctx, a, l.ID)
	require.NoError(t, err)

	st, err := f.Stats.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.Stats{Users: 2, Posts: 1, Comments: 1, Listings: 2, OpenListings: 1, Likes: 1}, st)
}

// flakyBackend fails writes while broken is set.
type flakyBackend struct {
	store.Backend
	broken bool
}

func (b *flakyBackend) WriteBatch(ctx context.Context, blobs map[string][]byte) error {
	if b.broken {
		return errors.New("disk unplugged")
	}
	return b.Backend.WriteBatch(ctx, blobs)
}

func TestStorageFailureKeepsStateConsistent(t *testing.T) {
	ctx := context.Background()
	fb, err := store.NewFileBackend(t.TempDir())
	require.NoError(t, err)
	backend := &flakyBackend{Backend: fb}
	svc := New(store.New(backend), config.AppConfig{DefaultCountry: "India", DefaultCity: "Seoul"})

	u, err := svc.Users.Register(ctx, RegisterInput{Username: "a", Email: "a@x.com", Password: "pw"})
	require.NoError(t, err)
	sess := svc.Users.SessionFor(u.ID, u.Username)
	p, err := svc.Posts.Create(ctx, sess, "x", "")
	require.NoError(t, err)
	_, err = svc.Posts.IsLiked(ctx, p.ID, u.ID)
	require.NoError(t, err)

	backend.broken = true
	_, err = svc.Posts.ToggleLike(ctx, p.ID, u.ID)
	requireCode(t, models.CodeStorage, err)
	err = svc.Posts.Delete(ctx, sess, p.ID)
	requireCode(t, models.CodeStorage, err)

	backend.broken = false
	view, err := svc.Posts.Get(ctx, p.ID, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, view.Likes)
	assert.False(t, view.LikedByMe)

	res, err := svc.Posts.ToggleLike(ctx, p.ID, u.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LikeResult{Liked: true, LikeCount: 1, Success: true}, res)
}
