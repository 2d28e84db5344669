// Package services holds the ledgers and the user directory. Every operation takes the
// caller's Session explicitly; there is no process-wide notion of a current user.
package services

import (
	"time"

	"github.com/chwoo19999-a11y/my-first-project/config"
	"github.com/chwoo19999-a11y/my-first-project/models"
	"github.com/chwoo19999-a11y/my-first-project/store"
)

// Session identifies the caller of one request.
type Session struct {
	UserID   int
	Username string
	IsAdmin  bool
}

// Authenticated reports whether the session belongs to a logged-in user.
func (s Session) Authenticated() bool { return s.UserID > 0 }

// CanModify reports whether the caller may delete or close something owned by ownerID.
func (s Session) CanModify(ownerID int) bool {
	return s.Authenticated() && (s.UserID == ownerID || s.IsAdmin)
}

func requireSession(s Session) error {
	if !s.Authenticated() {
		return models.NewUnauthorizedError("login required")
	}
	return nil
}

// Services bundles every ledger over one store.
type Services struct {
	Users    *UserService
	Posts    *PostService
	Comments *CommentService
	Travel   *TravelService
	Stats    *StatsService
}

// New wires all services to st.
func New(st *store.Store, cfg config.AppConfig) *Services {
	clock := time.Now
	return &Services{
		Users:    &UserService{store: st, cfg: cfg, now: clock},
		Posts:    &PostService{store: st, now: clock},
		Comments: &CommentService{store: st, now: clock},
		Travel:   &TravelService{store: st, now: clock},
		Stats:    &StatsService{store: st},
	}
}
