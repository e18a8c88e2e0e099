// Package models defines the domain types for inkwell.
package models

import "time"

// Account is an identity reference owned by the external identity provider.
type Account struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Avatar      string `json:"avatar,omitempty"`
	Active      bool   `json:"active"`
}

// AccountSummary is the author/follower view of an account.
type AccountSummary struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Avatar      string `json:"avatar,omitempty"`
}

// Category groups posts. Read-only for the engagement core.
type Category struct {
	ID    string `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Slug  string `json:"slug" yaml:"slug"`
	Color string `json:"color" yaml:"color"`
}

// CategorySummary is the category view attached to hydrated posts.
type CategorySummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Color string `json:"color"`
}

// Post is a persisted blog post.
type Post struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Content     string     `json:"content"`
	Excerpt     string     `json:"excerpt"`
	Published   bool       `json:"published"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	AuthorID    string     `json:"author_id"`
	CategoryID  string     `json:"category_id,omitempty"`
	ViewCount   int64      `json:"view_count"`
	CreatedAt   time.Time  `json:"created_at"`
}

// PostCard is a post hydrated for feed and recommendation consumers.
type PostCard struct {
	Post
	Author       AccountSummary   `json:"author"`
	Category     *CategorySummary `json:"category,omitempty"`
	LikeCount    int64            `json:"like_count"`
	CommentCount int64            `json:"comment_count"`
}

// FollowEdge is a directed follower→followee relationship.
type FollowEdge struct {
	FollowerID  string    `json:"follower_id"`
	FollowingID string    `json:"following_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// Comment is a comment on a post. ParentID is empty for top-level comments.
type Comment struct {
	ID        string     `json:"id"`
	Content   string     `json:"content"`
	PostID    string     `json:"post_id"`
	AuthorID  string     `json:"author_id"`
	ParentID  string     `json:"parent_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// CommentView is a comment with its author summary attached.
type CommentView struct {
	Comment
	Author AccountSummary `json:"author"`
}

// ThreadEntry is a top-level comment with all of its direct replies.
type ThreadEntry struct {
	CommentView
	Replies []CommentView `json:"replies"`
}

// FollowEntry is an account in a followers/following listing.
type FollowEntry struct {
	AccountSummary
	FollowedAt time.Time `json:"followed_at"`
}
