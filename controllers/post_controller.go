package controllers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/chwoo19999-a11y/my-first-project/middleware"
	"github.com/chwoo19999-a11y/my-first-project/models"
	"github.com/chwoo19999-a11y/my-first-project/services"
	"github.com/chwoo19999-a11y/my-first-project/utils"
)

// PostController exposes the feed, likes, reposts and comments.
type PostController struct {
	posts    *services.PostService
	comments *services.CommentService
}

// NewPostController creates a new PostController instance.
func NewPostController(posts *services.PostService, comments *services.CommentService) *PostController {
	return &PostController{posts: posts, comments: comments}
}

// CreatePost allows authenticated users to create new posts.
func (p *PostController) CreatePost(ctx *gin.Context) {
	var req struct {
		Content string `json:"content" binding:"required"`
		Tags    string `json:"tags"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}

	post, err := p.posts.Create(ctx.Request.Context(), middleware.CurrentSession(ctx), req.Content, req.Tags)
	if err != nil {
		respondError(ctx, err)
		return
	}
	p.invalidate(ctx)
	utils.Success(ctx, gin.H{"post": post})
}

// ListPosts returns the feed. Anonymous, unfiltered feeds are served from the cache.
func (p *PostController) ListPosts(ctx *gin.Context) {
	sortKey := strings.TrimSpace(ctx.DefaultQuery("sort", services.SortLatest))
	if sortKey != services.SortLatest && sortKey != services.SortLikes {
		utils.Error(ctx, http.StatusBadRequest, 40021, "sort must be latest or likes")
		return
	}
	authorID := 0
	if raw := strings.TrimSpace(ctx.Query("author_id")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			utils.Error(ctx, http.StatusBadRequest, 40022, "invalid author_id")
			return
		}
		authorID = n
	}
	q := services.PostQuery{
		Query:    strings.TrimSpace(ctx.Query("q")),
		Sort:     sortKey,
		AuthorID: authorID,
		ViewerID: middleware.CurrentSession(ctx).UserID,
	}

	cacheKey := ""
	if q.Query == "" && q.ViewerID == 0 {
		cacheKey = utils.VersionedKey(ctx.Request.Context(), utils.CachePrefixPosts,
			fmt.Sprintf("list:sort=%s:author=%d", q.Sort, q.AuthorID))
		var cached []models.PostView
		if utils.CacheGetJSON(ctx.Request.Context(), cacheKey, &cached) {
			utils.Success(ctx, gin.H{"items": cached, "total": len(cached)})
			return
		}
	}

	views, err := p.posts.List(ctx.Request.Context(), q)
	if err != nil {
		respondError(ctx, err)
		return
	}
	if views == nil {
		views = []models.PostView{}
	}
	if cacheKey != "" {
		utils.CacheSetJSON(ctx.Request.Context(), cacheKey, views, 0)
	}
	utils.Success(ctx, gin.H{"items": views, "total": len(views)})
}

// GetPost returns one post.
func (p *PostController) GetPost(ctx *gin.Context) {
	id, ok := intParam(ctx, "id")
	if !ok {
		return
	}
	view, err := p.posts.Get(ctx.Request.Context(), id, middleware.CurrentSession(ctx).UserID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"post": view})
}

// DeletePost removes a post owned by the caller.
func (p *PostController) DeletePost(ctx *gin.Context) {
	id, ok := intParam(ctx, "id")
	if !ok {
		return
	}
	if err := p.posts.Delete(ctx.Request.Context(), middleware.CurrentSession(ctx), id); err != nil {
		respondError(ctx, err)
		return
	}
	p.invalidate(ctx)
	utils.Success(ctx, gin.H{"deleted": true})
}

// ToggleLike likes or unlikes a post for the caller.
func (p *PostController) ToggleLike(ctx *gin.Context) {
	id, ok := intParam(ctx, "id")
	if !ok {
		return
	}
	res, err := p.posts.ToggleLike(ctx.Request.Context(), id, middleware.CurrentSession(ctx).UserID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	if !res.Success {
		utils.Error(ctx, http.StatusNotFound, 40400, fmt.Sprintf("post with ID %d not found", id))
		return
	}
	p.invalidate(ctx)
	utils.Success(ctx, res)
}

// LikeStatus reports whether the caller likes a post.
func (p *PostController) LikeStatus(ctx *gin.Context) {
	id, ok := intParam(ctx, "id")
	if !ok {
		return
	}
	liked, err := p.posts.IsLiked(ctx.Request.Context(), id, middleware.CurrentSession(ctx).UserID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"liked": liked})
}

// Repost bumps the repost counter.
func (p *PostController) Repost(ctx *gin.Context) {
	id, ok := intParam(ctx, "id")
	if !ok {
		return
	}
	n, err := p.posts.Repost(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	p.invalidate(ctx)
	utils.Success(ctx, gin.H{"reposts": n})
}

// ListComments returns a post's comments.
func (p *PostController) ListComments(ctx *gin.Context) {
	id, ok := intParam(ctx, "id")
	if !ok {
		return
	}
	views, err := p.comments.List(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	if views == nil {
		views = []models.CommentView{}
	}
	utils.Success(ctx, gin.H{"items": views})
}

// CreateComment adds a comment to a post.
func (p *PostController) CreateComment(ctx *gin.Context) {
	id, ok := intParam(ctx, "id")
	if !ok {
		return
	}
	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40023, "invalid request payload")
		return
	}
	c, err := p.comments.Add(ctx.Request.Context(), middleware.CurrentSession(ctx), id, req.Content)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.InvalidateByPrefix(ctx.Request.Context(), utils.CachePrefixStats)
	utils.Success(ctx, gin.H{"comment": c})
}

// DeleteComment removes a comment.
func (p *PostController) DeleteComment(ctx *gin.Context) {
	id, ok := intParam(ctx, "commentId")
	if !ok {
		return
	}
	if err := p.comments.Delete(ctx.Request.Context(), middleware.CurrentSession(ctx), id); err != nil {
		respondError(ctx, err)
		return
	}
	utils.InvalidateByPrefix(ctx.Request.Context(), utils.CachePrefixStats)
	utils.Success(ctx, gin.H{"deleted": true})
}

func (p *PostController) invalidate(ctx *gin.Context) {
	utils.InvalidateByPrefix(ctx.Request.Context(), utils.CachePrefixPosts, utils.CachePrefixStats)
}
