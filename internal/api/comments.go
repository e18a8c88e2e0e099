package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/inkwell/internal/comments"
	"github.com/starford/inkwell/internal/sse"
)

// ListComments handles GET /api/posts/{id}/comments.
//
//	@Summary		Comment thread of a post
//	@Tags			comments
//	@Produce		json
//	@Param			id			path		string	true	"Post id"
//	@Param			page		query		int		false	"Page number (1-based)"
//	@Param			page_size	query		int		false	"Top-level comments per page"
//	@Success		200			{object}	comments.Thread
//	@Failure		404			{object}	errResponse
//	@Router			/posts/{id}/comments [get]
func (h *Handler) ListComments(w http.ResponseWriter, r *http.Request) {
	thread, err := h.Comments.ListThread(r.Context(), chi.URLParam(r, "id"), queryInt(r, "page"), queryInt(r, "page_size"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, thread)
}

// CreateComment handles POST /api/posts/{id}/comments.
//
//	@Summary		Comment on a post or reply to a comment
//	@Tags			comments
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string					true	"Post id"
//	@Param			body	body		CreateCommentRequest	true	"Comment"
//	@Success		201		{object}	models.CommentView
//	@Failure		400		{object}	errResponse
//	@Failure		401		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Router			/posts/{id}/comments [post]
func (h *Handler) CreateComment(w http.ResponseWriter, r *http.Request) {
	var req CreateCommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	c, err := h.Comments.CreateComment(r.Context(), comments.CreateInput{
		Content:  req.Content,
		PostID:   chi.URLParam(r, "id"),
		AuthorID: Viewer(r.Context()),
		ParentID: req.ParentID,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.publish(sse.CommentCreated, c)
	writeJSON(w, http.StatusCreated, c)
}

// UpdateComment handles PUT /api/comments/{id}.
//
//	@Summary		Edit an own comment
//	@Tags			comments
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string					true	"Comment id"
//	@Param			body	body		UpdateCommentRequest	true	"New content"
//	@Success		200		{object}	models.CommentView
//	@Failure		400		{object}	errResponse
//	@Failure		401		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Router			/comments/{id} [put]
func (h *Handler) UpdateComment(w http.ResponseWriter, r *http.Request) {
	var req UpdateCommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	c, err := h.Comments.UpdateComment(r.Context(), chi.URLParam(r, "id"), Viewer(r.Context()), req.Content)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.publish(sse.CommentUpdated, c)
	writeJSON(w, http.StatusOK, c)
}

// DeleteComment handles DELETE /api/comments/{id}.
//
//	@Summary		Delete an own comment
//	@Tags			comments
//	@Param			id	path	string	true	"Comment id"
//	@Success		204
//	@Failure		401	{object}	errResponse
//	@Failure		404	{object}	errResponse
//	@Router			/comments/{id} [delete]
func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Comments.DeleteComment(r.Context(), id, Viewer(r.Context())); err != nil {
		writeError(w, r, err)
		return
	}
	h.publish(sse.CommentDeleted, map[string]string{"id": id})
	w.WriteHeader(http.StatusNoContent)
}
