package services

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/chwoo19999-a11y/my-first-project/models"
	"github.com/chwoo19999-a11y/my-first-project/store"
	"github.com/chwoo19999-a11y/my-first-project/utils"
)

// Feed sort keys.
const (
	SortLatest = "latest"
	SortLikes  = "likes"
)

// PostQuery filters the feed. ViewerID fills LikedByMe when non-zero.
type PostQuery struct {
	Query    string
	Sort     string
	AuthorID int
	ViewerID int
}

// PostService is the post ledger. The like counter on a post is always rewritten from the
// like index inside the same transaction that changed the index.
type PostService struct {
	store *store.Store
	now   func() time.Time
}

// Create stores a new post by the session user. Content is stripped of markup first.
func (s *PostService) Create(ctx context.Context, sess Session, content, tags string) (models.Post, error) {
	if err := requireSession(sess); err != nil {
		return models.Post{}, err
	}
	post := models.Post{
		UserID:    sess.UserID,
		Content:   utils.Sanitize(content),
		Tags:      normalizeTags(utils.Sanitize(tags)),
		CreatedAt: s.now(),
	}
	if post.Content == "" {
		return models.Post{}, models.NewValidationError("content must not be blank")
	}

	err := s.store.Tx(ctx, func(tx *store.Tx) error {
		if err := requireUser(tx, sess.UserID); err != nil {
			return err
		}
		id, err := tx.NextID(store.TablePosts, "post_id")
		if err != nil {
			return err
		}
		post.ID = id
		return tx.Append(store.TablePosts, postRow(post))
	})
	if err != nil {
		return models.Post{}, err
	}
	return post, nil
}

// List returns the feed filtered by a case-insensitive substring of content or tags.
func (s *PostService) List(ctx context.Context, q PostQuery) ([]models.PostView, error) {
	needle := strings.TrimSpace(q.Query)
	var views []models.PostView
	err := s.store.Read(ctx, func(tx *store.Tx) error {
		rows, err := tx.Load(store.TablePosts)
		if err != nil {
			return err
		}
		names, err := authorNames(tx)
		if err != nil {
			return err
		}
		likes, err := tx.Likes()
		if err != nil {
			return err
		}
		for _, r := range rows {
			p := postFromRow(r)
			if q.AuthorID > 0 && p.UserID != q.AuthorID {
				continue
			}
			if needle != "" && !containsFold(p.Content, needle) && !containsFold(p.Tags, needle) {
				continue
			}
			views = append(views, models.PostView{
				Post:      p,
				Author:    names[p.UserID],
				LikedByMe: q.ViewerID > 0 && likes.IsLiked(p.ID, q.ViewerID),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sortPosts(views, q.Sort)
	return views, nil
}

func sortPosts(views []models.PostView, key string) {
	sort.SliceStable(views, func(i, j int) bool {
		a, b := views[i].Post, views[j].Post
		if key == SortLikes && a.Likes != b.Likes {
			return a.Likes > b.Likes
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
}

// Get returns one post.
func (s *PostService) Get(ctx context.Context, postID, viewerID int) (models.PostView, error) {
	var view models.PostView
	err := s.store.Read(ctx, func(tx *store.Tx) error {
		r, ok, err := tx.Find(store.TablePosts, store.ByID("post_id", postID))
		if err != nil {
			return err
		}
		if !ok {
			return models.NewNotFoundError("post", postID)
		}
		names, err := authorNames(tx)
		if err != nil {
			return err
		}
		likes, err := tx.Likes()
		if err != nil {
			return err
		}
		p := postFromRow(r)
		view = models.PostView{Post: p, Author: names[p.UserID], LikedByMe: viewerID > 0 && likes.IsLiked(postID, viewerID)}
		return nil
	})
	return view, err
}

// Delete removes a post owned by the caller (or any post for admins), its likes and its comments.
func (s *PostService) Delete(ctx context.Context, sess Session, postID int) error {
	if err := requireSession(sess); err != nil {
		return err
	}
	var purged, comments int
	err := s.store.Tx(ctx, func(tx *store.Tx) error {
		r, ok, err := tx.Find(store.TablePosts, store.ByID("post_id", postID))
		if err != nil {
			return err
		}
		if !ok {
			return models.NewNotFoundError("post", postID)
		}
		if !sess.CanModify(r.IntOr("user_id", 0)) {
			return models.NewUnauthorizedError("only the author can delete this post")
		}
		if _, err := tx.Delete(store.TablePosts, store.ByID("post_id", postID)); err != nil {
			return err
		}
		likes, err := tx.Likes()
		if err != nil {
			return err
		}
		purged = likes.PurgePost(postID)
		comments, err = tx.Delete(store.TableComments, store.ByID("post_id", postID))
		return err
	})
	if err != nil {
		return err
	}
	utils.Logger.Info("post deleted",
		zap.Int("post_id", postID),
		zap.Int("by", sess.UserID),
		zap.Int("likes_purged", purged),
		zap.Int("comments_deleted", comments))
	return nil
}

// Repost increments the repost counter and returns its new value. Reposts are not deduplicated.
func (s *PostService) Repost(ctx context.Context, postID int) (int, error) {
	var reposts int
	err := s.store.Tx(ctx, func(tx *store.Tx) error {
		r, ok, err := tx.Find(store.TablePosts, store.ByID("post_id", postID))
		if err != nil {
			return err
		}
		if !ok {
			return models.NewNotFoundError("post", postID)
		}
		reposts = r.IntOr("reposts", 0) + 1
		_, err = tx.Update(store.TablePosts, store.ByID("post_id", postID), "reposts", strconv.Itoa(reposts))
		return err
	})
	return reposts, err
}

// ToggleLike flips userID's like on postID. A missing post yields Success=false and changes nothing.
func (s *PostService) ToggleLike(ctx context.Context, postID, userID int) (models.LikeResult, error) {
	if userID <= 0 {
		return models.LikeResult{}, models.NewUnauthorizedError("login required")
	}
	var res models.LikeResult
	err := s.store.Tx(ctx, func(tx *store.Tx) error {
		_, ok, err := tx.Find(store.TablePosts, store.ByID("post_id", postID))
		if err != nil || !ok {
			return err
		}
		likes, err := tx.Likes()
		if err != nil {
			return err
		}
		if likes.IsLiked(postID, userID) {
			likes.Remove(postID, userID)
		} else {
			likes.Add(postID, userID)
			res.Liked = true
		}
		res.LikeCount = likes.CountFor(postID)
		if _, err := tx.Update(store.TablePosts, store.ByID("post_id", postID), "likes", strconv.Itoa(res.LikeCount)); err != nil {
			return err
		}
		res.Success = true
		return nil
	})
	if err != nil {
		return models.LikeResult{}, err
	}
	if res.Success {
		direction := "unlike"
		if res.Liked {
			direction = "like"
		}
		utils.LikeToggles.WithLabelValues(direction).Inc()
	}
	return res, nil
}

// IsLiked reports whether userID currently likes postID.
func (s *PostService) IsLiked(ctx context.Context, postID, userID int) (bool, error) {
	var liked bool
	err := s.store.Read(ctx, func(tx *store.Tx) error {
		likes, err := tx.Likes()
		if err != nil {
			return err
		}
		liked = likes.IsLiked(postID, userID)
		return nil
	})
	return liked, err
}

// Reconcile repairs drift left by earlier crashes or hand edits: like entries and comments
// pointing at missing posts are dropped and every like counter is recomputed from the index.
// It returns the number of repairs.
func (s *PostService) Reconcile(ctx context.Context) (int, error) {
	repairs := 0
	err := s.store.Tx(ctx, func(tx *store.Tx) error {
		rows, err := tx.Load(store.TablePosts)
		if err != nil {
			return err
		}
		exists := make(map[int]bool, len(rows))
		for _, r := range rows {
			if id, ok := r.Int("post_id"); ok {
				exists[id] = true
			}
		}

		likes, err := tx.Likes()
		if err != nil {
			return err
		}
		repairs += likes.Retain(func(postID int) bool { return exists[postID] })

		counts := likes.Counts()
		stale := map[int]bool{}
		for _, r := range rows {
			id, ok := r.Int("post_id")
			if !ok {
				continue
			}
			if current, ok := r.Int("likes"); !ok || current != counts[id] {
				stale[id] = true
			}
		}
		if len(stale) > 0 {
			n, err := tx.UpdateFunc(store.TablePosts, func(r store.Row) bool {
				id, ok := r.Int("post_id")
				return ok && stale[id]
			}, func(r store.Row) {
				r["likes"] = strconv.Itoa(counts[r.IntOr("post_id", 0)])
			})
			if err != nil {
				return err
			}
			repairs += n
		}

		orphan := func(r store.Row) bool {
			id, ok := r.Int("post_id")
			return !ok || !exists[id]
		}
		if n, err := tx.Count(store.TableComments, orphan); err != nil {
			return err
		} else if n > 0 {
			removed, err := tx.Delete(store.TableComments, orphan)
			if err != nil {
				return err
			}
			repairs += removed
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if repairs > 0 {
		utils.Logger.Warn("store reconciled", zap.Int("repairs", repairs))
	}
	return repairs, nil
}
