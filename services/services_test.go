package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/chwoo19999-a11y/my-first-project/config"
	"github.com/chwoo19999-a11y/my-first-project/models"
	"github.com/chwoo19999-a11y/my-first-project/store"
)

// fakeClock advances one second per call so creation order is visible in timestamps.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

type fixture struct {
	*Services
	store *store.Store
	dir   string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	backend, err := store.NewFileBackend(dir)
	require.NoError(t, err)
	st := store.New(backend)

	cfg := config.AppConfig{DefaultCountry: "India", DefaultCity: "Seoul", AdminUsernames: []string{"admin"}}
	svc := New(st, cfg)
	clock := &fakeClock{t: time.Date(2024, 5, 1, 9, 0, 0, 0, time.Local)}
	svc.Users.now = clock.now
	svc.Posts.now = clock.now
	svc.Comments.now = clock.now
	svc.Travel.now = clock.now
	return &fixture{Services: svc, store: st, dir: dir}
}

// register creates a user and returns its session.
func (f *fixture) register(t *testing.T, name string) Session {
	t.Helper()
	u, err := f.Users.Register(context.Background(), RegisterInput{
		Username: name,
		Email:    name + "@example.com",
		Password: "secret-" + name,
	})
	require.NoError(t, err)
	return f.Users.SessionFor(u.ID, u.Username)
}

func requireCode(t *testing.T, code string, err error) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, code, models.ErrorCode(err), "error: %v", err)
}
