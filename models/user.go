package models

import "time"

// TimeLayout is the persisted timestamp format: local clock, no timezone tag.
const TimeLayout = "2006-01-02 15:04:05"

// User represents a registered community member. The credential is a hex encoded SHA-256 digest
// and never leaves the server.
type User struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Email        string    `json:"email"`
	Country      string    `json:"country"`
	City         string    `json:"city_in_korea"`
	JoinedAt     time.Time `json:"joined_at"`
}

// UserView is the public projection of a User.
type UserView struct {
	ID       int       `json:"id"`
	Username string    `json:"username"`
	Country  string    `json:"country"`
	City     string    `json:"city_in_korea"`
	JoinedAt time.Time `json:"joined_at"`
}

// View strips private fields.
func (u User) View() UserView {
	return UserView{ID: u.ID, Username: u.Username, Country: u.Country, City: u.City, JoinedAt: u.JoinedAt}
}
