// Package engagement tracks likes and view counters of posts.
//
// Like counts are always derived from the like edges; nothing caches them.
package engagement

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/starford/inkwell/internal/apperr"
	"github.com/starford/inkwell/internal/models"
	"github.com/starford/inkwell/internal/store"
)

// Repository is the persistence engagement tracking needs.
type Repository interface {
	GetPost(ctx context.Context, id string) (*models.Post, error)
	ToggleLike(ctx context.Context, userID, postID string, at time.Time) (bool, error)
	LikeExists(ctx context.Context, userID, postID string) (bool, error)
	CountLikes(ctx context.Context, postID string) (int64, error)
	IncrementPostView(ctx context.Context, id string) error
	PostViewCount(ctx context.Context, id string) (int64, error)
}

var _ Repository = (*store.DB)(nil)

// LikeResult is the state left behind by ToggleLike.
type LikeResult struct {
	Liked     bool  `json:"liked"`
	LikeCount int64 `json:"like_count"`
}

// Service manages like edges and view counters.
type Service struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger used for store failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithClock overrides the time source for like timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates an engagement service.
func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{repo: repo, logger: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ToggleLike likes the post if accountID does not like it yet and unlikes it
// otherwise. A retried call toggles again.
func (s *Service) ToggleLike(ctx context.Context, accountID, postID string) (*LikeResult, error) {
	const op = "engagement.toggle_like"
	if err := s.requirePublished(ctx, op, postID); err != nil {
		return nil, err
	}
	liked, err := s.repo.ToggleLike(ctx, accountID, postID, s.now())
	if errors.Is(err, store.ErrNotFound) {
		// The post was checked above, so the unknown reference is the account.
		return nil, apperr.NotFound("account")
	}
	if err != nil {
		return nil, apperr.Unavailable(ctx, s.logger, op, err,
			slog.String("account_id", accountID), slog.String("post_id", postID))
	}
	count, err := s.repo.CountLikes(ctx, postID)
	if err != nil {
		return nil, apperr.Unavailable(ctx, s.logger, op, err, slog.String("post_id", postID))
	}
	return &LikeResult{Liked: liked, LikeCount: count}, nil
}

// IsLiked reports whether accountID currently likes postID.
func (s *Service) IsLiked(ctx context.Context, accountID, postID string) (bool, error) {
	ok, err := s.repo.LikeExists(ctx, accountID, postID)
	if err != nil {
		return false, apperr.Unavailable(ctx, s.logger, "engagement.is_liked", err)
	}
	return ok, nil
}

// LikeCount returns the number of accounts currently liking postID. Drafts
// are reported as missing.
func (s *Service) LikeCount(ctx context.Context, postID string) (int64, error) {
	const op = "engagement.like_count"
	if err := s.requirePublished(ctx, op, postID); err != nil {
		return 0, err
	}
	n, err := s.repo.CountLikes(ctx, postID)
	if err != nil {
		return 0, apperr.Unavailable(ctx, s.logger, op, err, slog.String("post_id", postID))
	}
	return n, nil
}

// IncrementView adds one view to a published post. Every call counts; viewers
// are not deduplicated.
func (s *Service) IncrementView(ctx context.Context, postID string) error {
	const op = "engagement.increment_view"
	if err := s.requirePublished(ctx, op, postID); err != nil {
		return err
	}
	err := s.repo.IncrementPostView(ctx, postID)
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound("post")
	}
	if err != nil {
		return apperr.Unavailable(ctx, s.logger, op, err, slog.String("post_id", postID))
	}
	return nil
}

// ViewCount returns the view counter of a published post.
func (s *Service) ViewCount(ctx context.Context, postID string) (int64, error) {
	const op = "engagement.view_count"
	if err := s.requirePublished(ctx, op, postID); err != nil {
		return 0, err
	}
	n, err := s.repo.PostViewCount(ctx, postID)
	if errors.Is(err, store.ErrNotFound) {
		return 0, apperr.NotFound("post")
	}
	if err != nil {
		return 0, apperr.Unavailable(ctx, s.logger, op, err, slog.String("post_id", postID))
	}
	return n, nil
}

func (s *Service) post(ctx context.Context, op, postID string) (*models.Post, error) {
	p, err := s.repo.GetPost(ctx, postID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("post")
	}
	if err != nil {
		return nil, apperr.Unavailable(ctx, s.logger, op, err, slog.String("post_id", postID))
	}
	return p, nil
}

func (s *Service) requirePublished(ctx context.Context, op, postID string) error {
	p, err := s.post(ctx, op, postID)
	if err != nil {
		return err
	}
	if !p.Published {
		return apperr.NotFound("post")
	}
	return nil
}
