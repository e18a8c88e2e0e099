// Package comments manages comment creation, editing and deletion, and
// assembles the two-level thread shown under a post.
package comments

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/starford/inkwell/internal/apperr"
	"github.com/starford/inkwell/internal/models"
	"github.com/starford/inkwell/internal/store"
)

// MaxContentLength is the longest comment accepted, in runes.
const MaxContentLength = 1000

// Repository is the persistence the comment manager needs.
type Repository interface {
	GetPost(ctx context.Context, id string) (*models.Post, error)
	GetAccountSummary(ctx context.Context, id string) (*models.AccountSummary, error)
	GetComment(ctx context.Context, id string) (*models.Comment, error)
	GetCommentView(ctx context.Context, id string) (*models.CommentView, error)
	InsertComment(ctx context.Context, c models.Comment) error
	UpdateOwnedComment(ctx context.Context, id, authorID, content string, at time.Time) (bool, error)
	DeleteOwnedComment(ctx context.Context, id, authorID string) (bool, error)
	ListTopLevelComments(ctx context.Context, postID string, offset, limit int) ([]models.CommentView, int64, error)
	ListReplies(ctx context.Context, parentIDs []string) (map[string][]models.CommentView, error)
}

var _ Repository = (*store.DB)(nil)

// CreateInput holds the fields of a new comment. ParentID is empty for a
// top-level comment.
type CreateInput struct {
	Content  string
	PostID   string
	AuthorID string
	ParentID string
}

// Thread is one page of top-level comments, each with all of its direct replies.
type Thread struct {
	TopLevel   []models.ThreadEntry `json:"top_level"`
	Pagination models.Pagination    `json:"pagination"`
}

// Service manages comments.
type Service struct {
	repo            Repository
	logger          *slog.Logger
	now             func() time.Time
	newID           func() string
	defaultPageSize int
	maxPageSize     int
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger used for store failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithClock overrides the time source for comment timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithPageSizes sets the default and maximum thread page sizes.
func WithPageSizes(defaultSize, maxSize int) Option {
	return func(s *Service) {
		s.defaultPageSize = defaultSize
		s.maxPageSize = maxSize
	}
}

// NewService creates a comment service.
func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:            repo,
		logger:          slog.Default(),
		now:             time.Now,
		newID:           uuid.NewString,
		defaultPageSize: 20,
		maxPageSize:     100,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateComment stores a comment on a published post and returns it with its
// author summary. A reply must target a comment of the same post.
func (s *Service) CreateComment(ctx context.Context, in CreateInput) (*models.CommentView, error) {
	const op = "comments.create"
	content, err := validateContent(in.Content)
	if err != nil {
		return nil, err
	}
	if err := s.requirePublished(ctx, op, in.PostID); err != nil {
		return nil, err
	}
	if in.ParentID != "" {
		parent, err := s.repo.GetComment(ctx, in.ParentID)
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("parent comment")
		}
		if err != nil {
			return nil, apperr.Unavailable(ctx, s.logger, op, err, slog.String("parent_id", in.ParentID))
		}
		if parent.PostID != in.PostID {
			return nil, apperr.ErrParentMismatch
		}
	}
	author, err := s.repo.GetAccountSummary(ctx, in.AuthorID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("account")
	}
	if err != nil {
		return nil, apperr.Unavailable(ctx, s.logger, op, err, slog.String("author_id", in.AuthorID))
	}

	c := models.Comment{
		ID:        s.newID(),
		Content:   content,
		PostID:    in.PostID,
		AuthorID:  in.AuthorID,
		ParentID:  in.ParentID,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.InsertComment(ctx, c); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("post")
		}
		return nil, apperr.Unavailable(ctx, s.logger, op, err,
			slog.String("post_id", in.PostID), slog.String("author_id", in.AuthorID))
	}
	return &models.CommentView{Comment: c, Author: *author}, nil
}

// UpdateComment replaces the content of a comment owned by authorID. A
// comment owned by someone else is reported exactly like a missing one.
func (s *Service) UpdateComment(ctx context.Context, commentID, authorID, newContent string) (*models.CommentView, error) {
	const op = "comments.update"
	content, err := validateContent(newContent)
	if err != nil {
		return nil, err
	}
	ok, err := s.repo.UpdateOwnedComment(ctx, commentID, authorID, content, s.now().UTC())
	if err != nil {
		return nil, apperr.Unavailable(ctx, s.logger, op, err, slog.String("comment_id", commentID))
	}
	if !ok {
		return nil, apperr.NotFound("comment")
	}
	v, err := s.repo.GetCommentView(ctx, commentID)
	if errors.Is(err, store.ErrNotFound) {
		// Deleted right after the update.
		return nil, apperr.NotFound("comment")
	}
	if err != nil {
		return nil, apperr.Unavailable(ctx, s.logger, op, err, slog.String("comment_id", commentID))
	}
	return v, nil
}

// DeleteComment removes a comment owned by authorID. Its replies stay stored
// and are no longer displayed.
func (s *Service) DeleteComment(ctx context.Context, commentID, authorID string) error {
	ok, err := s.repo.DeleteOwnedComment(ctx, commentID, authorID)
	if err != nil {
		return apperr.Unavailable(ctx, s.logger, "comments.delete", err, slog.String("comment_id", commentID))
	}
	if !ok {
		return apperr.NotFound("comment")
	}
	return nil
}

// ListThread returns one page of postID's top-level comments, newest first,
// each with every direct reply attached oldest first. Deeper replies are not
// materialized.
func (s *Service) ListThread(ctx context.Context, postID string, page, pageSize int) (*Thread, error) {
	const op = "comments.list_thread"
	if err := s.requirePublished(ctx, op, postID); err != nil {
		return nil, err
	}
	pr := models.NormalizePage(page, pageSize, s.defaultPageSize, s.maxPageSize)

	top, total, err := s.repo.ListTopLevelComments(ctx, postID, pr.Offset(), pr.PageSize)
	if err != nil {
		return nil, apperr.Unavailable(ctx, s.logger, op, err, slog.String("post_id", postID))
	}
	ids := make([]string, len(top))
	for i, c := range top {
		ids[i] = c.ID
	}
	replies, err := s.repo.ListReplies(ctx, ids)
	if err != nil {
		return nil, apperr.Unavailable(ctx, s.logger, op, err, slog.String("post_id", postID))
	}

	entries := make([]models.ThreadEntry, len(top))
	for i, c := range top {
		r := replies[c.ID]
		if r == nil {
			r = []models.CommentView{}
		}
		entries[i] = models.ThreadEntry{CommentView: c, Replies: r}
	}
	return &Thread{TopLevel: entries, Pagination: models.NewPagination(pr.Page, pr.PageSize, total)}, nil
}

func (s *Service) requirePublished(ctx context.Context, op, postID string) error {
	p, err := s.repo.GetPost(ctx, postID)
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound("post")
	}
	if err != nil {
		return apperr.Unavailable(ctx, s.logger, op, err, slog.String("post_id", postID))
	}
	if !p.Published {
		return apperr.NotFound("post")
	}
	return nil
}

// validateContent trims surrounding whitespace and enforces 1..MaxContentLength runes.
func validateContent(raw string) (string, error) {
	content := strings.TrimSpace(raw)
	err := validation.Errors{
		"content": validation.Validate(content,
			validation.Required,
			validation.RuneLength(1, MaxContentLength),
		),
	}.Filter()
	if err != nil {
		return "", apperr.Validation(err)
	}
	return content, nil
}
