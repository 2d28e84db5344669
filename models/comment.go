package models

import "time"

// Comment represents a reply to a post.
type Comment struct {
	ID        int       `json:"id"`
	PostID    int       `json:"post_id"`
	UserID    int       `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// CommentView carries the author name for display.
type CommentView struct {
	Comment
	Author string `json:"author"`
}
