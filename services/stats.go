package services

import (
	"context"

	"github.com/chwoo19999-a11y/my-first-project/models"
	"github.com/chwoo19999-a11y/my-first-project/store"
)

// StatsService counts rows across tables.
type StatsService struct {
	store *store.Store
}

// Get returns the current totals.
func (s *StatsService) Get(ctx context.Context) (models.Stats, error) {
	var st models.Stats
	err := s.store.Read(ctx, func(tx *store.Tx) error {
		var err error
		if st.Users, err = tx.Count(store.TableUsers, nil); err != nil {
			return err
		}
		if st.Posts, err = tx.Count(store.TablePosts, nil); err != nil {
			return err
		}
		if st.Comments, err = tx.Count(store.TableComments, nil); err != nil {
			return err
		}
		if st.Listings, err = tx.Count(store.TableTravelMates, nil); err != nil {
			return err
		}
		open := func(r store.Row) bool { return listingFromRow(r).Status == models.StatusOpen }
		if st.OpenListings, err = tx.Count(store.TableTravelMates, open); err != nil {
			return err
		}
		likes, err := tx.Likes()
		if err != nil {
			return err
		}
		for _, n := range likes.Counts() {
			st.Likes += n
		}
		return nil
	})
	return st, err
}
