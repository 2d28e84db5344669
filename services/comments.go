package services

import (
	"context"
	"sort"
	"time"

	"github.com/chwoo19999-a11y/my-first-project/models"
	"github.com/chwoo19999-a11y/my-first-project/store"
	"github.com/chwoo19999-a11y/my-first-project/utils"
)

// CommentService stores replies to posts.
type CommentService struct {
	store *store.Store
	now   func() time.Time
}

// Add attaches a comment by the session user to postID.
func (s *CommentService) Add(ctx context.Context, sess Session, postID int, content string) (models.Comment, error) {
	if err := requireSession(sess); err != nil {
		return models.Comment{}, err
	}
	c := models.Comment{PostID: postID, UserID: sess.UserID, Content: utils.Sanitize(content), CreatedAt: s.now()}
	if c.Content == "" {
		return models.Comment{}, models.NewValidationError("content must not be blank")
	}

	err := s.store.Tx(ctx, func(tx *store.Tx) error {
		if _, ok, err := tx.Find(store.TablePosts, store.ByID("post_id", postID)); err != nil {
			return err
		} else if !ok {
			return models.NewNotFoundError("post", postID)
		}
		id, err := tx.NextID(store.TableComments, "comment_id")
		if err != nil {
			return err
		}
		c.ID = id
		return tx.Append(store.TableComments, commentRow(c))
	})
	if err != nil {
		return models.Comment{}, err
	}
	return c, nil
}

// List returns a post's comments, oldest first.
func (s *CommentService) List(ctx context.Context, postID int) ([]models.CommentView, error) {
	var views []models.CommentView
	err := s.store.Read(ctx, func(tx *store.Tx) error {
		if _, ok, err := tx.Find(store.TablePosts, store.ByID("post_id", postID)); err != nil {
			return err
		} else if !ok {
			return models.NewNotFoundError("post", postID)
		}
		rows, err := tx.Load(store.TableComments)
		if err != nil {
			return err
		}
		names, err := authorNames(tx)
		if err != nil {
			return err
		}
		for _, r := range rows {
			c := commentFromRow(r)
			if c.PostID == postID {
				views = append(views, models.CommentView{Comment: c, Author: names[c.UserID]})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(views, func(i, j int) bool {
		a, b := views[i], views[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return views, nil
}

// Delete removes a comment written by the caller, or any comment for admins.
func (s *CommentService) Delete(ctx context.Context, sess Session, commentID int) error {
	if err := requireSession(sess); err != nil {
		return err
	}
	return s.store.Tx(ctx, func(tx *store.Tx) error {
		r, ok, err := tx.Find(store.TableComments, store.ByID("comment_id", commentID))
		if err != nil {
			return err
		}
		if !ok {
			return models.NewNotFoundError("comment", commentID)
		}
		if !sess.CanModify(r.IntOr("user_id", 0)) {
			return models.NewUnauthorizedError("only the author can delete this comment")
		}
		_, err = tx.Delete(store.TableComments, store.ByID("comment_id", commentID))
		return err
	})
}
