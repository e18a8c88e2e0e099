package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/inkwell/internal/sse"
)

// Follow handles POST /api/accounts/{id}/follow.
//
//	@Summary		Follow an account
//	@Tags			social
//	@Produce		json
//	@Param			id	path		string	true	"Account to follow"
//	@Success		201	{object}	models.FollowEdge
//	@Failure		401	{object}	errResponse
//	@Failure		404	{object}	errResponse
//	@Failure		409	{object}	errResponse
//	@Router			/accounts/{id}/follow [post]
func (h *Handler) Follow(w http.ResponseWriter, r *http.Request) {
	edge, err := h.Social.Follow(r.Context(), Viewer(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.publish(sse.FollowCreated, edge)
	writeJSON(w, http.StatusCreated, edge)
}

// Unfollow handles DELETE /api/accounts/{id}/follow.
//
//	@Summary		Stop following an account
//	@Tags			social
//	@Param			id	path	string	true	"Account to unfollow"
//	@Success		204
//	@Failure		401	{object}	errResponse
//	@Failure		409	{object}	errResponse
//	@Router			/accounts/{id}/follow [delete]
func (h *Handler) Unfollow(w http.ResponseWriter, r *http.Request) {
	viewer := Viewer(r.Context())
	target := chi.URLParam(r, "id")
	if err := h.Social.Unfollow(r.Context(), viewer, target); err != nil {
		writeError(w, r, err)
		return
	}
	h.publish(sse.FollowRemoved, map[string]string{"follower_id": viewer, "following_id": target})
	w.WriteHeader(http.StatusNoContent)
}

// IsFollowing handles GET /api/accounts/{id}/follows/{target}.
//
//	@Summary		Whether an account follows another
//	@Tags			social
//	@Produce		json
//	@Param			id		path		string	true	"Follower"
//	@Param			target	path		string	true	"Followee"
//	@Success		200		{object}	FollowStatus
//	@Router			/accounts/{id}/follows/{target} [get]
func (h *Handler) IsFollowing(w http.ResponseWriter, r *http.Request) {
	follower, target := chi.URLParam(r, "id"), chi.URLParam(r, "target")
	ok, err := h.Social.IsFollowing(r.Context(), follower, target)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, FollowStatus{FollowerID: follower, FollowingID: target, Following: ok})
}

// ListFollowers handles GET /api/accounts/{id}/followers.
//
//	@Summary		Accounts following an account, newest first
//	@Tags			social
//	@Produce		json
//	@Param			id			path		string	true	"Account id"
//	@Param			page		query		int		false	"Page number (1-based)"
//	@Param			page_size	query		int		false	"Page size"
//	@Success		200			{object}	social.Page
//	@Failure		404			{object}	errResponse
//	@Router			/accounts/{id}/followers [get]
func (h *Handler) ListFollowers(w http.ResponseWriter, r *http.Request) {
	page, err := h.Social.ListFollowers(r.Context(), chi.URLParam(r, "id"), queryInt(r, "page"), queryInt(r, "page_size"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// ListFollowing handles GET /api/accounts/{id}/following.
//
//	@Summary		Accounts an account follows, newest first
//	@Tags			social
//	@Produce		json
//	@Param			id			path		string	true	"Account id"
//	@Param			page		query		int		false	"Page number (1-based)"
//	@Param			page_size	query		int		false	"Page size"
//	@Success		200			{object}	social.Page
//	@Failure		404			{object}	errResponse
//	@Router			/accounts/{id}/following [get]
func (h *Handler) ListFollowing(w http.ResponseWriter, r *http.Request) {
	page, err := h.Social.ListFollowing(r.Context(), chi.URLParam(r, "id"), queryInt(r, "page"), queryInt(r, "page_size"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}
