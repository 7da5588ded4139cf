package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/postservice"
)

// RouterConfig configures the API router.
type RouterConfig struct {
	// Token guards POST, PUT and DELETE. Empty means open mode.
	Token string
	// Mode is reported by /auth-status ("development" or "production").
	Mode string
	// Events, if non-nil, is mounted at GET /events.
	Events http.Handler
	Logger *slog.Logger
}

// NewRouter creates a chi router with all API routes mounted. It is meant
// to be mounted under /api.
func NewRouter(svc *postservice.Service, cfg RouterConfig) chi.Router {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	h := NewHandler(svc, cfg.Token, cfg.Mode, logger)

	r := chi.NewRouter()
	r.Use(AdminAuth(cfg.Token, logger))

	// Set explicitly so a parent router's fallback (the frontend) never
	// answers for /api paths.
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found", apperr.KindNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", apperr.KindValidation)
	})

	r.Get("/auth-status", h.AuthStatus)

	r.Get("/posts", h.ListPosts)
	r.Post("/posts", h.CreatePost)
	r.Get("/posts/{slug}", h.GetPost)
	r.Get("/posts/{slug}/html", h.RenderPost)
	r.Put("/posts/{slug}", h.UpdatePost)
	r.Delete("/posts/{slug}", h.DeletePost)

	if cfg.Events != nil {
		r.Get("/events", cfg.Events.ServeHTTP)
	}

	return r
}
