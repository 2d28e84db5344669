package models

import "time"

// Post represents a feed entry created by a user. Likes is a cached count of the like index.
type Post struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	Content   string    `json:"content"`
	Tags      string    `json:"tags"`
	CreatedAt time.Time `json:"created_at"`
	Likes     int       `json:"likes"`
	Reposts   int       `json:"reposts"`
}

// PostView is a Post joined with its author and the viewer's like state.
type PostView struct {
	Post
	Author    string `json:"author"`
	LikedByMe bool   `json:"liked_by_me"`
}

// LikeResult reports the outcome of a like toggle.
type LikeResult struct {
	Liked     bool `json:"liked"`
	LikeCount int  `json:"like_count"`
	Success   bool `json:"success"`
}
