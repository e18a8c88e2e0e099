// Package related recommends posts similar to a given post.
package related

import (
	"context"
	"errors"
	"log/slog"

	"github.com/starford/inkwell/internal/apperr"
	"github.com/starford/inkwell/internal/hydrate"
	"github.com/starford/inkwell/internal/models"
	"github.com/starford/inkwell/internal/store"
)

// Posts is the content store view the recommender needs.
type Posts interface {
	GetPost(ctx context.Context, id string) (*models.Post, error)
	ListPublishedPosts(ctx context.Context, f store.PostFilter, order store.PostOrder, offset, limit int) ([]store.PostRow, int64, error)
}

var _ Posts = (*store.DB)(nil)

// Recommender selects related posts: same-category posts first, then the
// most viewed published posts as backfill.
type Recommender struct {
	posts        Posts
	hydrator     *hydrate.Hydrator
	logger       *slog.Logger
	defaultLimit int
	maxLimit     int
}

// Option configures a Recommender.
type Option func(*Recommender)

// WithLogger sets the logger used for store failures.
func WithLogger(l *slog.Logger) Option {
	return func(r *Recommender) { r.logger = l }
}

// WithLimits sets the limit used when the caller passes none, and the cap.
func WithLimits(defaultLimit, maxLimit int) Option {
	return func(r *Recommender) {
		r.defaultLimit = defaultLimit
		r.maxLimit = maxLimit
	}
}

// NewRecommender creates a related-content recommender.
func NewRecommender(posts Posts, hydrator *hydrate.Hydrator, opts ...Option) *Recommender {
	r := &Recommender{
		posts:        posts,
		hydrator:     hydrator,
		logger:       slog.Default(),
		defaultLimit: 4,
		maxLimit:     20,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RelatedPosts returns up to limit published posts related to postID, never
// including postID itself and without duplicates. The source post itself may
// be a draft.
func (r *Recommender) RelatedPosts(ctx context.Context, postID string, limit int) ([]models.PostCard, error) {
	const op = "related.posts"
	if limit <= 0 {
		limit = r.defaultLimit
	}
	if r.maxLimit > 0 && limit > r.maxLimit {
		limit = r.maxLimit
	}

	src, err := r.posts.GetPost(ctx, postID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("post")
	}
	if err != nil {
		return nil, apperr.Unavailable(ctx, r.logger, op, err, slog.String("post_id", postID))
	}

	var picked []store.PostRow
	if src.CategoryID != "" {
		rows, _, err := r.posts.ListPublishedPosts(ctx, store.PostFilter{
			CategoryID: src.CategoryID,
			ExcludeIDs: []string{src.ID},
		}, store.OrderNewest, 0, limit)
		if err != nil {
			return nil, apperr.Unavailable(ctx, r.logger, op, err, slog.String("post_id", postID))
		}
		picked = rows
	}

	if remaining := limit - len(picked); remaining > 0 {
		exclude := make([]string, 0, len(picked)+1)
		exclude = append(exclude, src.ID)
		for _, p := range picked {
			exclude = append(exclude, p.ID)
		}
		rows, _, err := r.posts.ListPublishedPosts(ctx, store.PostFilter{ExcludeIDs: exclude},
			store.OrderMostViewed, 0, remaining)
		if err != nil {
			return nil, apperr.Unavailable(ctx, r.logger, op, err, slog.String("post_id", postID))
		}
		picked = append(picked, rows...)
	}

	return r.hydrator.Cards(ctx, picked)
}
