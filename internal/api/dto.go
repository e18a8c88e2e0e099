package api

import (
	"github.com/starford/inkwell/internal/models"
)

// CreateCommentRequest is the request body for commenting on a post.
type CreateCommentRequest struct {
	Content  string `json:"content" example:"Great post!" validate:"required"`
	ParentID string `json:"parent_id,omitempty" example:"5f0c6c1e-1a0b-4f53-9d2e-2b1c3f6a7e11"`
}

// UpdateCommentRequest is the request body for editing a comment.
type UpdateCommentRequest struct {
	Content string `json:"content" example:"Edited text" validate:"required"`
}

// PostDetail is a hydrated post together with the viewer's like state.
type PostDetail struct {
	models.PostCard
	LikedByViewer bool `json:"liked_by_viewer"`
}

// PostStats reports a post's engagement counters.
type PostStats struct {
	PostID        string `json:"post_id" validate:"required"`
	LikeCount     int64  `json:"like_count" example:"12" validate:"required"`
	ViewCount     int64  `json:"view_count" example:"340" validate:"required"`
	LikedByViewer bool   `json:"liked_by_viewer"`
}

// RelatedResponse wraps related post recommendations.
type RelatedResponse struct {
	Posts []models.PostCard `json:"posts" validate:"required"`
}

// FollowStatus answers whether one account follows another.
type FollowStatus struct {
	FollowerID  string `json:"follower_id" validate:"required"`
	FollowingID string `json:"following_id" validate:"required"`
	Following   bool   `json:"following"`
}
