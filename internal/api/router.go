package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(d Deps, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(d)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))
	r.Use(ViewerMiddleware)

	// Reads; the viewer is optional.
	r.Get("/feed", h.GetFeed)
	r.Get("/posts/{id}", h.GetPost)
	r.Get("/posts/{id}/related", h.GetRelated)
	r.Get("/posts/{id}/stats", h.GetStats)
	r.Get("/posts/{id}/comments", h.ListComments)
	r.Post("/posts/{id}/views", h.RecordView)
	r.Get("/accounts/{id}/followers", h.ListFollowers)
	r.Get("/accounts/{id}/following", h.ListFollowing)
	r.Get("/accounts/{id}/follows/{target}", h.IsFollowing)

	// Mutations act as the viewer.
	r.Group(func(r chi.Router) {
		r.Use(RequireViewer)
		r.Post("/posts/{id}/like", h.ToggleLike)
		r.Post("/posts/{id}/comments", h.CreateComment)
		r.Put("/comments/{id}", h.UpdateComment)
		r.Delete("/comments/{id}", h.DeleteComment)
		r.Post("/accounts/{id}/follow", h.Follow)
		r.Delete("/accounts/{id}/follow", h.Unfollow)
	})

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
