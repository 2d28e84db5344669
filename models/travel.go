package models

import "time"

// DateLayout is the persisted format of date_from and date_to.
const DateLayout = "2006-01-02"

// Listing statuses. Closed and full are terminal for joining.
const (
	StatusOpen   = "open"
	StatusClosed = "closed"
	StatusFull   = "full"
)

// TravelListing is a travel companion request on the bulletin board.
// MaxPeople of zero means the listing has no capacity limit.
type TravelListing struct {
	ID                 int       `json:"id"`
	UserID             int       `json:"user_id"`
	Title              string    `json:"title"`
	DepartureCity      string    `json:"departure_city"`
	DestinationCity    string    `json:"destination_city"`
	DateFrom           string    `json:"date_from"`
	DateTo             string    `json:"date_to"`
	BudgetRange        string    `json:"budget_range_krw"`
	PreferredTransport string    `json:"preferred_transport"`
	Contact            string    `json:"contact"`
	Notes              string    `json:"notes"`
	Status             string    `json:"status"`
	MaxPeople          int       `json:"max_people"`
	CurrentPeople      int       `json:"current_people"`
	Participants       []int     `json:"participants"`
	CreatedAt          time.Time `json:"created_at"`
}

// Joinable reports whether the listing accepts another participant.
func (t TravelListing) Joinable() bool {
	if t.Status != StatusOpen {
		return false
	}
	return t.MaxPeople <= 0 || t.CurrentPeople < t.MaxPeople
}

// HasParticipant reports whether userID already joined.
func (t TravelListing) HasParticipant(userID int) bool {
	for _, id := range t.Participants {
		if id == userID {
			return true
		}
	}
	return false
}
