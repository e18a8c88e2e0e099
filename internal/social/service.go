// Package social implements the follow graph between accounts.
package social

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/starford/inkwell/internal/apperr"
	"github.com/starford/inkwell/internal/models"
	"github.com/starford/inkwell/internal/store"
)

// Repository is the persistence the social graph needs.
type Repository interface {
	GetAccount(ctx context.Context, id string) (*models.Account, error)
	InsertFollow(ctx context.Context, followerID, followingID string, at time.Time) error
	DeleteFollow(ctx context.Context, followerID, followingID string) (bool, error)
	FollowExists(ctx context.Context, followerID, followingID string) (bool, error)
	FolloweeIDs(ctx context.Context, followerID string) ([]string, error)
	ListFollowers(ctx context.Context, accountID string, offset, limit int) ([]models.FollowEntry, int64, error)
	ListFollowing(ctx context.Context, accountID string, offset, limit int) ([]models.FollowEntry, int64, error)
}

var _ Repository = (*store.DB)(nil)

// Page is one page of a followers/following listing.
type Page struct {
	Accounts   []models.FollowEntry `json:"accounts"`
	Pagination models.Pagination    `json:"pagination"`
}

// Service manages follow edges.
type Service struct {
	repo            Repository
	logger          *slog.Logger
	now             func() time.Time
	defaultPageSize int
	maxPageSize     int
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger used for store failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithClock overrides the time source for edge timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithPageSizes sets the default and maximum listing page sizes.
func WithPageSizes(defaultSize, maxSize int) Option {
	return func(s *Service) {
		s.defaultPageSize = defaultSize
		s.maxPageSize = maxSize
	}
}

// NewService creates a social graph service.
func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:            repo,
		logger:          slog.Default(),
		now:             time.Now,
		defaultPageSize: 20,
		maxPageSize:     100,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Follow creates the edge followerID → followeeID.
func (s *Service) Follow(ctx context.Context, followerID, followeeID string) (*models.FollowEdge, error) {
	if followerID == followeeID {
		return nil, apperr.ErrSelfFollow
	}
	if err := s.requireActive(ctx, "social.follow", followeeID); err != nil {
		return nil, err
	}

	edge := models.FollowEdge{FollowerID: followerID, FollowingID: followeeID, CreatedAt: s.now().UTC()}
	err := s.repo.InsertFollow(ctx, followerID, followeeID, edge.CreatedAt)
	switch {
	case err == nil:
		return &edge, nil
	case errors.Is(err, store.ErrDuplicate):
		// Covers both a pre-existing edge and a concurrent insert that won.
		return nil, apperr.ErrAlreadyFollowing
	case errors.Is(err, store.ErrNotFound):
		return nil, apperr.NotFound("account")
	default:
		return nil, apperr.Unavailable(ctx, s.logger, "social.follow", err,
			slog.String("follower_id", followerID), slog.String("followee_id", followeeID))
	}
}

// Unfollow removes the edge followerID → followeeID.
func (s *Service) Unfollow(ctx context.Context, followerID, followeeID string) error {
	removed, err := s.repo.DeleteFollow(ctx, followerID, followeeID)
	if err != nil {
		return apperr.Unavailable(ctx, s.logger, "social.unfollow", err,
			slog.String("follower_id", followerID), slog.String("followee_id", followeeID))
	}
	if !removed {
		return apperr.ErrNotFollowing
	}
	return nil
}

// IsFollowing reports whether followerID follows followeeID.
func (s *Service) IsFollowing(ctx context.Context, followerID, followeeID string) (bool, error) {
	ok, err := s.repo.FollowExists(ctx, followerID, followeeID)
	if err != nil {
		return false, apperr.Unavailable(ctx, s.logger, "social.is_following", err)
	}
	return ok, nil
}

// FolloweeIDs returns every account id followerID follows.
func (s *Service) FolloweeIDs(ctx context.Context, followerID string) ([]string, error) {
	ids, err := s.repo.FolloweeIDs(ctx, followerID)
	if err != nil {
		return nil, apperr.Unavailable(ctx, s.logger, "social.followee_ids", err,
			slog.String("follower_id", followerID))
	}
	return ids, nil
}

// ListFollowers returns the accounts following accountID, most recent first.
func (s *Service) ListFollowers(ctx context.Context, accountID string, page, pageSize int) (*Page, error) {
	return s.list(ctx, "social.list_followers", s.repo.ListFollowers, accountID, page, pageSize)
}

// ListFollowing returns the accounts accountID follows, most recent first.
func (s *Service) ListFollowing(ctx context.Context, accountID string, page, pageSize int) (*Page, error) {
	return s.list(ctx, "social.list_following", s.repo.ListFollowing, accountID, page, pageSize)
}

type listFunc func(ctx context.Context, accountID string, offset, limit int) ([]models.FollowEntry, int64, error)

func (s *Service) list(ctx context.Context, op string, fn listFunc, accountID string, page, pageSize int) (*Page, error) {
	if _, err := s.repo.GetAccount(ctx, accountID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("account")
		}
		return nil, apperr.Unavailable(ctx, s.logger, op, err, slog.String("account_id", accountID))
	}
	pr := models.NormalizePage(page, pageSize, s.defaultPageSize, s.maxPageSize)
	entries, total, err := fn(ctx, accountID, pr.Offset(), pr.PageSize)
	if err != nil {
		return nil, apperr.Unavailable(ctx, s.logger, op, err, slog.String("account_id", accountID))
	}
	if entries == nil {
		entries = []models.FollowEntry{}
	}
	return &Page{Accounts: entries, Pagination: models.NewPagination(pr.Page, pr.PageSize, total)}, nil
}

func (s *Service) requireActive(ctx context.Context, op, accountID string) error {
	a, err := s.repo.GetAccount(ctx, accountID)
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound("account")
	}
	if err != nil {
		return apperr.Unavailable(ctx, s.logger, op, err, slog.String("account_id", accountID))
	}
	if !a.Active {
		return apperr.NotFound("account")
	}
	return nil
}
