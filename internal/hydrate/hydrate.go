// Package hydrate turns post rows into the cards returned by the feed and
// recommendation read paths.
package hydrate

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/starford/inkwell/internal/apperr"
	"github.com/starford/inkwell/internal/models"
	"github.com/starford/inkwell/internal/store"
)

// maxLookups bounds concurrent author/category lookups per call.
const maxLookups = 8

// Source resolves the summaries attached to a card.
type Source interface {
	GetAccountSummary(ctx context.Context, id string) (*models.AccountSummary, error)
	GetCategory(ctx context.Context, id string) (*models.Category, error)
}

var _ Source = (*store.DB)(nil)

// Hydrator attaches author and category summaries to post rows. It only
// reads; view counters are never touched.
type Hydrator struct {
	src    Source
	logger *slog.Logger
}

// New creates a Hydrator. A nil logger falls back to slog.Default.
func New(src Source, logger *slog.Logger) *Hydrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hydrator{src: src, logger: logger}
}

// Cards hydrates rows in order. Distinct authors and categories are looked up
// once each, concurrently.
func (h *Hydrator) Cards(ctx context.Context, rows []store.PostRow) ([]models.PostCard, error) {
	cards := make([]models.PostCard, 0, len(rows))
	if len(rows) == 0 {
		return cards, nil
	}

	var (
		mu         sync.Mutex
		authors    = make(map[string]models.AccountSummary)
		categories = make(map[string]*models.CategorySummary)
	)
	authorIDs := make(map[string]struct{})
	categoryIDs := make(map[string]struct{})
	for _, r := range rows {
		authorIDs[r.AuthorID] = struct{}{}
		if r.CategoryID != "" {
			categoryIDs[r.CategoryID] = struct{}{}
		}
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(maxLookups)
	for id := range authorIDs {
		g.Go(func() error {
			a, err := h.src.GetAccountSummary(gCtx, id)
			if errors.Is(err, store.ErrNotFound) {
				a = &models.AccountSummary{ID: id}
				err = nil
			}
			if err != nil {
				return err
			}
			mu.Lock()
			authors[id] = *a
			mu.Unlock()
			return nil
		})
	}
	for id := range categoryIDs {
		g.Go(func() error {
			c, err := h.src.GetCategory(gCtx, id)
			if errors.Is(err, store.ErrNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			mu.Lock()
			categories[id] = &models.CategorySummary{ID: c.ID, Name: c.Name, Slug: c.Slug, Color: c.Color}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, apperr.Unavailable(ctx, h.logger, "hydrate.cards", err)
	}

	for _, r := range rows {
		cards = append(cards, models.PostCard{
			Post:         r.Post,
			Author:       authors[r.AuthorID],
			Category:     categories[r.CategoryID],
			LikeCount:    r.LikeCount,
			CommentCount: r.CommentCount,
		})
	}
	return cards, nil
}
