// Package feed composes the post feed a viewer sees.
//
// Pages are computed independently: likes and views that change between two
// page requests can move a post across the page boundary under the popular
// sort. There is no snapshot shared across pages.
package feed

import (
	"context"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/inkwell/internal/apperr"
	"github.com/starford/inkwell/internal/hydrate"
	"github.com/starford/inkwell/internal/models"
	"github.com/starford/inkwell/internal/store"
)

// Mode selects the candidate set.
type Mode string

// Feed modes.
const (
	ModeAll       Mode = "all"
	ModeFollowing Mode = "following"
)

// Sort selects the ordering.
type Sort string

// Feed sorts.
const (
	SortNewest  Sort = "newest"
	SortPopular Sort = "popular"
)

// Request describes one feed page. ViewerID may be empty for anonymous viewers.
type Request struct {
	ViewerID string
	Mode     Mode
	Sort     Sort
	Page     int
	PageSize int
}

// Validate checks Mode and Sort, filling in their defaults.
func (r *Request) Validate() error {
	if r.Mode == "" {
		r.Mode = ModeAll
	}
	if r.Sort == "" {
		r.Sort = SortNewest
	}
	return validation.ValidateStruct(r,
		validation.Field(&r.Mode, validation.In(ModeAll, ModeFollowing)),
		validation.Field(&r.Sort, validation.In(SortNewest, SortPopular)),
	)
}

// Page is one page of hydrated posts.
type Page struct {
	Posts      []models.PostCard `json:"posts"`
	Pagination models.Pagination `json:"pagination"`
}

// Posts lists published posts from the content store.
type Posts interface {
	ListPublishedPosts(ctx context.Context, f store.PostFilter, order store.PostOrder, offset, limit int) ([]store.PostRow, int64, error)
}

// Following resolves the accounts a viewer follows.
type Following interface {
	FolloweeIDs(ctx context.Context, followerID string) ([]string, error)
}

var _ Posts = (*store.DB)(nil)

// Composer builds feed pages.
type Composer struct {
	posts           Posts
	following       Following
	hydrator        *hydrate.Hydrator
	logger          *slog.Logger
	defaultPageSize int
	maxPageSize     int
}

// Option configures a Composer.
type Option func(*Composer)

// WithLogger sets the logger used for store failures.
func WithLogger(l *slog.Logger) Option {
	return func(c *Composer) { c.logger = l }
}

// WithPageSizes sets the default and maximum page sizes.
func WithPageSizes(defaultSize, maxSize int) Option {
	return func(c *Composer) {
		c.defaultPageSize = defaultSize
		c.maxPageSize = maxSize
	}
}

// NewComposer creates a feed composer.
func NewComposer(posts Posts, following Following, hydrator *hydrate.Hydrator, opts ...Option) *Composer {
	c := &Composer{
		posts:           posts,
		following:       following,
		hydrator:        hydrator,
		logger:          slog.Default(),
		defaultPageSize: 10,
		maxPageSize:     50,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ComposeFeed returns one page of the viewer's feed.
//
// In following mode a viewer who follows nobody (or an anonymous viewer) gets
// an empty page without the content store being queried.
func (c *Composer) ComposeFeed(ctx context.Context, req Request) (*Page, error) {
	if err := req.Validate(); err != nil {
		return nil, apperr.Validation(err)
	}
	pr := models.NormalizePage(req.Page, req.PageSize, c.defaultPageSize, c.maxPageSize)

	var filter store.PostFilter
	if req.Mode == ModeFollowing {
		var followees []string
		if req.ViewerID != "" {
			ids, err := c.following.FolloweeIDs(ctx, req.ViewerID)
			if err != nil {
				return nil, err
			}
			followees = ids
		}
		if len(followees) == 0 {
			return &Page{Posts: []models.PostCard{}, Pagination: models.EmptyPagination(pr.Page)}, nil
		}
		filter.AuthorIDIn = followees
	}

	order := store.OrderNewest
	if req.Sort == SortPopular {
		order = store.OrderPopular
	}

	rows, total, err := c.posts.ListPublishedPosts(ctx, filter, order, pr.Offset(), pr.PageSize)
	if err != nil {
		return nil, apperr.Unavailable(ctx, c.logger, "feed.compose", err,
			slog.String("viewer_id", req.ViewerID), slog.String("mode", string(req.Mode)))
	}
	cards, err := c.hydrator.Cards(ctx, rows)
	if err != nil {
		return nil, err
	}
	return &Page{Posts: cards, Pagination: models.NewPagination(pr.Page, pr.PageSize, total)}, nil
}
