// Package api implements the folio REST API using chi.
package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/starford/folio/internal/apperr"
)

// TokenHeader carries the admin token. "Authorization: Bearer <token>" is
// accepted as well.
const TokenHeader = "X-Admin-Token"

const unauthorizedMessage = "Unauthorized - Invalid or missing admin token"

// AdminAuth returns middleware that guards mutating requests (POST, PUT,
// DELETE) with a static token. Reads always pass. With an empty token every
// request passes and each mutating request is logged as unauthenticated.
func AdminAuth(token string, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !isMutation(r.Method) {
				next.ServeHTTP(w, r)
				return
			}
			if token == "" {
				logger.Warn("admin request without token configured",
					slog.String("method", r.Method), slog.String("path", r.URL.Path))
				next.ServeHTTP(w, r)
				return
			}
			if requestToken(r) != token {
				writeServiceError(w, logger, "admin auth", "", apperr.ErrUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func isMutation(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func requestToken(r *http.Request) string {
	if t := r.Header.Get(TokenHeader); t != "" {
		return t
	}
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}
