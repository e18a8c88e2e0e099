// Package api implements the inkwell REST API using chi.
package api

import (
	"context"
	"net/http"
	"strings"
)

// ViewerHeader carries the acting account id. Identity issuance is external;
// the header is trusted as given.
const ViewerHeader = "X-Account-ID"

type ctxKey int

const viewerKey ctxKey = iota

// AuthMiddleware returns middleware that validates a Bearer token.
// If enabled is false, all requests pass through (disabled mode).
// If enabled is true, requests must carry a valid "Authorization: Bearer <token>" header.
func AuthMiddleware(enabled bool, token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !enabled {
				next.ServeHTTP(w, r)
				return
			}
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") || strings.TrimPrefix(auth, "Bearer ") != token {
				writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ViewerMiddleware stores the X-Account-ID header, if any, in the request
// context.
func ViewerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := strings.TrimSpace(r.Header.Get(ViewerHeader)); id != "" {
			r = r.WithContext(context.WithValue(r.Context(), viewerKey, id))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireViewer rejects requests without a viewer with 401.
func RequireViewer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if Viewer(r.Context()) == "" {
			writeJSON(w, http.StatusUnauthorized, errorBody(ViewerHeader+" header is required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Viewer returns the acting account id, or "" for anonymous requests.
func Viewer(ctx context.Context) string {
	id, _ := ctx.Value(viewerKey).(string)
	return id
}
