package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/inkwell/internal/apperr"
	"github.com/starford/inkwell/internal/comments"
	"github.com/starford/inkwell/internal/engagement"
	"github.com/starford/inkwell/internal/feed"
	"github.com/starford/inkwell/internal/hydrate"
	"github.com/starford/inkwell/internal/models"
	"github.com/starford/inkwell/internal/related"
	"github.com/starford/inkwell/internal/social"
	"github.com/starford/inkwell/internal/sse"
	"github.com/starford/inkwell/internal/store"
)

// Posts resolves posts for the detail endpoint.
type Posts interface {
	GetPost(ctx context.Context, id string) (*models.Post, error)
	GetPostBySlug(ctx context.Context, slug string) (*models.Post, error)
	CountComments(ctx context.Context, postID string) (int64, error)
}

var _ Posts = (*store.DB)(nil)

// Publisher receives activity events after successful writes.
type Publisher interface {
	PublishActivity(kind string, data any)
}

// Deps are the services the handlers delegate to.
type Deps struct {
	Posts      Posts
	Social     *social.Service
	Engagement *engagement.Service
	Comments   *comments.Service
	Feed       *feed.Composer
	Related    *related.Recommender
	Hydrator   *hydrate.Hydrator
	Events     Publisher
	Logger     *slog.Logger
}

// Handler holds API route handlers.
type Handler struct {
	Deps
}

// NewHandler creates a new Handler.
func NewHandler(d Deps) *Handler {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return &Handler{Deps: d}
}

func (h *Handler) publish(kind string, data any) {
	if h.Events != nil {
		h.Events.PublishActivity(kind, data)
	}
}

// GetFeed handles GET /api/feed.
//
//	@Summary		Compose a page of the feed
//	@Tags			feed
//	@Produce		json
//	@Param			mode		query		string	false	"Feed mode"	Enums(all, following)
//	@Param			sort		query		string	false	"Sort order"	Enums(newest, popular)
//	@Param			page		query		int		false	"Page number (1-based)"
//	@Param			page_size	query		int		false	"Page size"
//	@Success		200			{object}	feed.Page
//	@Failure		400			{object}	errResponse
//	@Router			/feed [get]
func (h *Handler) GetFeed(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := h.Feed.ComposeFeed(r.Context(), feed.Request{
		ViewerID: Viewer(r.Context()),
		Mode:     feed.Mode(q.Get("mode")),
		Sort:     feed.Sort(q.Get("sort")),
		Page:     queryInt(r, "page"),
		PageSize: queryInt(r, "page_size"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// GetPost handles GET /api/posts/{id}, where id may also be a slug. Every
// load counts as a view.
//
//	@Summary		Get a published post by id or slug
//	@Tags			posts
//	@Produce		json
//	@Param			id	path		string	true	"Post id or slug"
//	@Success		200			{object}	PostDetail
//	@Failure		404			{object}	errResponse
//	@Router			/posts/{id} [get]
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key := chi.URLParam(r, "id")

	p, err := h.Posts.GetPost(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		p, err = h.Posts.GetPostBySlug(ctx, key)
	}
	if errors.Is(err, store.ErrNotFound) || (err == nil && !p.Published) {
		writeError(w, r, apperr.NotFound("post"))
		return
	}
	if err != nil {
		writeError(w, r, apperr.Unavailable(ctx, h.Logger, "api.get_post", err, slog.String("key", key)))
		return
	}

	if err := h.Engagement.IncrementView(ctx, p.ID); err != nil {
		h.Logger.Warn("view increment failed", slog.String("post_id", p.ID), slog.String("error", err.Error()))
	} else {
		p.ViewCount++
	}

	likes, err := h.Engagement.LikeCount(ctx, p.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	commentCount, err := h.Posts.CountComments(ctx, p.ID)
	if err != nil {
		writeError(w, r, apperr.Unavailable(ctx, h.Logger, "api.get_post", err, slog.String("post_id", p.ID)))
		return
	}
	cards, err := h.Hydrator.Cards(ctx, []store.PostRow{{Post: *p, LikeCount: likes, CommentCount: commentCount}})
	if err != nil {
		writeError(w, r, err)
		return
	}

	detail := PostDetail{PostCard: cards[0]}
	if viewer := Viewer(ctx); viewer != "" {
		if detail.LikedByViewer, err = h.Engagement.IsLiked(ctx, viewer, p.ID); err != nil {
			writeError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, detail)
}

// GetRelated handles GET /api/posts/{id}/related.
//
//	@Summary		Posts related to a post
//	@Tags			posts
//	@Produce		json
//	@Param			id		path		string	true	"Post id"
//	@Param			limit	query		int		false	"Maximum number of posts"
//	@Success		200		{object}	RelatedResponse
//	@Failure		404		{object}	errResponse
//	@Router			/posts/{id}/related [get]
func (h *Handler) GetRelated(w http.ResponseWriter, r *http.Request) {
	cards, err := h.Related.RelatedPosts(r.Context(), chi.URLParam(r, "id"), queryInt(r, "limit"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, RelatedResponse{Posts: cards})
}

// GetStats handles GET /api/posts/{id}/stats.
//
//	@Summary		Engagement counters of a post
//	@Tags			posts
//	@Produce		json
//	@Param			id	path		string	true	"Post id"
//	@Success		200	{object}	PostStats
//	@Failure		404	{object}	errResponse
//	@Router			/posts/{id}/stats [get]
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	likes, err := h.Engagement.LikeCount(ctx, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	views, err := h.Engagement.ViewCount(ctx, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	stats := PostStats{PostID: id, LikeCount: likes, ViewCount: views}
	if viewer := Viewer(ctx); viewer != "" {
		if stats.LikedByViewer, err = h.Engagement.IsLiked(ctx, viewer, id); err != nil {
			writeError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, stats)
}

// RecordView handles POST /api/posts/{id}/views.
//
//	@Summary		Count one view of a post
//	@Tags			posts
//	@Param			id	path	string	true	"Post id"
//	@Success		204
//	@Failure		404	{object}	errResponse
//	@Router			/posts/{id}/views [post]
func (h *Handler) RecordView(w http.ResponseWriter, r *http.Request) {
	if err := h.Engagement.IncrementView(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ToggleLike handles POST /api/posts/{id}/like.
//
//	@Summary		Like or unlike a post
//	@Tags			engagement
//	@Produce		json
//	@Param			id	path		string	true	"Post id"
//	@Success		200	{object}	engagement.LikeResult
//	@Failure		401	{object}	errResponse
//	@Failure		404	{object}	errResponse
//	@Router			/posts/{id}/like [post]
func (h *Handler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	viewer := Viewer(r.Context())
	postID := chi.URLParam(r, "id")
	res, err := h.Engagement.ToggleLike(r.Context(), viewer, postID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.publish(sse.LikeToggled, map[string]any{
		"post_id":    postID,
		"user_id":    viewer,
		"liked":      res.Liked,
		"like_count": res.LikeCount,
	})
	writeJSON(w, http.StatusOK, res)
}
