package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/chwoo19999-a11y/my-first-project/models"
	"github.com/chwoo19999-a11y/my-first-project/store"
	"github.com/chwoo19999-a11y/my-first-project/utils"
)

// ListingInput is the travel companion form. MaxPeople of zero means unlimited.
type ListingInput struct {
	Title              string
	DepartureCity      string
	DestinationCity    string
	DateFrom           string
	DateTo             string
	BudgetRange        string
	PreferredTransport string
	Contact            string
	Notes              string
	MaxPeople          int
}

// TravelQuery filters the board. Empty fields match everything.
type TravelQuery struct {
	Departure   string
	Destination string
	Status      string
}

// TravelService is the travel listing ledger.
//
// Lifecycle: open -> closed by the owner, open -> full when the last seat is taken.
// Close is also accepted on a full listing; nothing leads back to open.
type TravelService struct {
	store *store.Store
	now   func() time.Time
}

// Create posts a new open listing for the session user.
func (s *TravelService) Create(ctx context.Context, sess Session, in ListingInput) (models.TravelListing, error) {
	if err := requireSession(sess); err != nil {
		return models.TravelListing{}, err
	}
	l := models.TravelListing{
		UserID:             sess.UserID,
		Title:              utils.Sanitize(in.Title),
		DepartureCity:      utils.Sanitize(in.DepartureCity),
		DestinationCity:    utils.Sanitize(in.DestinationCity),
		DateFrom:           strings.TrimSpace(in.DateFrom),
		DateTo:             strings.TrimSpace(in.DateTo),
		BudgetRange:        utils.Sanitize(in.BudgetRange),
		PreferredTransport: utils.Sanitize(in.PreferredTransport),
		Contact:            utils.Sanitize(in.Contact),
		Notes:              utils.Sanitize(in.Notes),
		Status:             models.StatusOpen,
		MaxPeople:          in.MaxPeople,
		CreatedAt:          s.now(),
	}
	if err := validateListing(l); err != nil {
		return models.TravelListing{}, err
	}

	err := s.store.Tx(ctx, func(tx *store.Tx) error {
		if err := requireUser(tx, sess.UserID); err != nil {
			return err
		}
		id, err := tx.NextID(store.TableTravelMates, "mate_id")
		if err != nil {
			return err
		}
		l.ID = id
		return tx.Append(store.TableTravelMates, listingRow(l))
	})
	if err != nil {
		return models.TravelListing{}, err
	}
	return l, nil
}

func validateListing(l models.TravelListing) error {
	if l.Title == "" || l.DepartureCity == "" || l.DestinationCity == "" {
		return models.NewValidationError("title, departure_city and destination_city are required")
	}
	if l.MaxPeople < 0 {
		return models.NewValidationError("max_people must not be negative")
	}
	var from, to time.Time
	var err error
	if l.DateFrom != "" {
		if from, err = time.Parse(models.DateLayout, l.DateFrom); err != nil {
			return models.NewValidationError("date_from must be YYYY-MM-DD")
		}
	}
	if l.DateTo != "" {
		if to, err = time.Parse(models.DateLayout, l.DateTo); err != nil {
			return models.NewValidationError("date_to must be YYYY-MM-DD")
		}
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return models.NewValidationError("date_to must not be before date_from")
	}
	return nil
}

// List returns listings matching the filters, newest first. City filters are
// case-insensitive substrings; status must match exactly.
func (s *TravelService) List(ctx context.Context, q TravelQuery) ([]models.TravelListing, error) {
	status := strings.ToLower(strings.TrimSpace(q.Status))
	switch status {
	case "", "all":
		status = ""
	case models.StatusOpen, models.StatusClosed, models.StatusFull:
	default:
		return nil, models.NewValidationError("status must be open, closed or full")
	}
	departure := strings.TrimSpace(q.Departure)
	destination := strings.TrimSpace(q.Destination)

	var out []models.TravelListing
	err := s.store.Read(ctx, func(tx *store.Tx) error {
		rows, err := tx.Load(store.TableTravelMates)
		if err != nil {
			return err
		}
		for _, r := range rows {
			l := listingFromRow(r)
			if departure != "" && !containsFold(l.DepartureCity, departure) {
				continue
			}
			if destination != "" && !containsFold(l.DestinationCity, destination) {
				continue
			}
			if status != "" && l.Status != status {
				continue
			}
			out = append(out, l)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// Get returns one listing.
func (s *TravelService) Get(ctx context.Context, mateID int) (models.TravelListing, error) {
	var l models.TravelListing
	err := s.store.Read(ctx, func(tx *store.Tx) error {
		var err error
		l, err = findListing(tx, mateID)
		return err
	})
	return l, err
}

// Close marks a listing closed. Only the owner or an admin may close it; closing twice is a no-op.
func (s *TravelService) Close(ctx context.Context, sess Session, mateID int) (models.TravelListing, error) {
	if err := requireSession(sess); err != nil {
		return models.TravelListing{}, err
	}
	var l models.TravelListing
	err := s.store.Tx(ctx, func(tx *store.Tx) error {
		var err error
		if l, err = findListing(tx, mateID); err != nil {
			return err
		}
		if !sess.CanModify(l.UserID) {
			return models.NewUnauthorizedError("only the owner can close this listing")
		}
		if l.Status == models.StatusClosed {
			return nil
		}
		l.Status = models.StatusClosed
		_, err = tx.Update(store.TableTravelMates, store.ByID("mate_id", mateID), "status", l.Status)
		return err
	})
	return l, err
}

// Join takes one seat on an open listing. Reaching capacity turns the listing full.
func (s *TravelService) Join(ctx context.Context, sess Session, mateID int) (models.TravelListing, error) {
	if err := requireSession(sess); err != nil {
		return models.TravelListing{}, err
	}
	var l models.TravelListing
	err := s.store.Tx(ctx, func(tx *store.Tx) error {
		var err error
		if l, err = findListing(tx, mateID); err != nil {
			return err
		}
		switch {
		case l.UserID == sess.UserID:
			return models.NewValidationError("cannot join your own listing")
		case l.HasParticipant(sess.UserID):
			return models.NewValidationError("already joined this listing")
		case !l.Joinable():
			return models.NewValidationError("listing is " + l.Status)
		}

		l.CurrentPeople++
		l.Participants = append(l.Participants, sess.UserID)
		if l.MaxPeople > 0 && l.CurrentPeople >= l.MaxPeople {
			l.Status = models.StatusFull
		}
		_, err = tx.UpdateFunc(store.TableTravelMates, store.ByID("mate_id", mateID), func(r store.Row) {
			updated := listingRow(l)
			for _, col := range []string{"current_people", "participants", "status"} {
				r[col] = updated[col]
			}
		})
		return err
	})
	if err != nil {
		return models.TravelListing{}, err
	}
	if l.Status == models.StatusFull {
		utils.Logger.Info("listing full", zap.Int("mate_id", mateID), zap.Int("max_people", l.MaxPeople))
	}
	return l, nil
}

// Delete removes a listing owned by the caller, or any listing for admins.
func (s *TravelService) Delete(ctx context.Context, sess Session, mateID int) error {
	if err := requireSession(sess); err != nil {
		return err
	}
	return s.store.Tx(ctx, func(tx *store.Tx) error {
		l, err := findListing(tx, mateID)
		if err != nil {
			return err
		}
		if !sess.CanModify(l.UserID) {
			return models.NewUnauthorizedError("only the owner can delete this listing")
		}
		_, err = tx.Delete(store.TableTravelMates, store.ByID("mate_id", mateID))
		return err
	})
}

func findListing(tx *store.Tx, mateID int) (models.TravelListing, error) {
	r, ok, err := tx.Find(store.TableTravelMates, store.ByID("mate_id", mateID))
	if err != nil {
		return models.TravelListing{}, err
	}
	if !ok {
		return models.TravelListing{}, models.NewNotFoundError("listing", mateID)
	}
	return listingFromRow(r), nil
}
