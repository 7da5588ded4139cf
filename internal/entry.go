// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/folio/internal/api"
	"github.com/starford/folio/internal/mcpserver"
	"github.com/starford/folio/internal/postservice"
	"github.com/starford/folio/internal/sse"
	"github.com/starford/folio/internal/storage"
	"github.com/starford/folio/internal/watcher"
	"github.com/starford/folio/internal/web"
)

var errConfigRequired = errors.New("config is required")

const shutdownTimeout = 10 * time.Second

// Run serves the HTTP API until ctx is cancelled or a shutdown signal arrives.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	// Initialize structured JSON logger.
	logger := newLogger(os.Stdout, cfg.App.LogLevel)
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("mode", cfg.App.Mode),
		slog.String("posts_dir", cfg.Posts.Dir),
		slog.String("web_dist_dir", cfg.Web.DistDir),
		slog.String("log_level", cfg.App.LogLevel.String()))

	if cfg.Auth.Open() {
		logger.Warn("No admin token configured: create, update and delete are open to anyone",
			slog.String("env", TokenEnv))
	}

	// The watcher needs the directory to exist.
	if err := os.MkdirAll(cfg.Posts.Dir, 0o755); err != nil {
		return fmt.Errorf("create posts dir: %w", err)
	}

	store, err := storage.NewFS(cfg.Posts.Dir)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	svc := postservice.NewService(store, postservice.WithLogger(logger))

	broker := sse.NewBroker(cfg.Events.Throttle)

	handler, err := newHTTPHandler(cfg, svc, broker, logger)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gCtx := errgroup.WithContext(ctx)

	// Report changes made on disk, by the API or by hand, to SSE clients.
	g.Go(func() error {
		w := watcher.New(store.Root(), logger)
		if err := w.Run(gCtx, broker.PublishPostEvent); err != nil {
			logger.Warn("watcher disabled", slog.String("error", err.Error()))
		}
		return nil
	})

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		// SSE streams never end on their own; closing the broker releases them.
		broker.Close()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		cancel()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP serves the post tools over MCP on stdin/stdout. Logs go to stderr
// because stdout carries the protocol.
func RunMCP(_ context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger := newLogger(os.Stderr, cfg.App.LogLevel)
	slog.SetDefault(logger)

	store, err := storage.NewFS(cfg.Posts.Dir)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	svc := postservice.NewService(store, postservice.WithLogger(logger))

	logger.Info("MCP server starting", slog.String("posts_dir", cfg.Posts.Dir))
	return mcpserver.New(svc, app.version).ServeStdio()
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// newHTTPHandler builds the root router: health checks, the API under /api
// and, in production with web.dist_dir set, the frontend build for every
// other path.
func newHTTPHandler(cfg *Config, svc *postservice.Service, events http.Handler, logger *slog.Logger) (http.Handler, error) {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints.
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		writeStatus(w, http.StatusOK, "ok")
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		if info, err := os.Stat(cfg.Posts.Dir); err != nil || !info.IsDir() {
			writeStatus(w, http.StatusServiceUnavailable, "posts directory unavailable")
			return
		}
		writeStatus(w, http.StatusOK, "ok")
	})

	r.Mount("/api", api.NewRouter(svc, api.RouterConfig{
		Token:  cfg.Auth.Token,
		Mode:   cfg.App.Mode,
		Events: events,
		Logger: logger,
	}))

	switch {
	case cfg.Web.DistDir == "":
	case !cfg.App.Production():
		logger.Info("Frontend not served in development mode", slog.String("dir", cfg.Web.DistDir))
	default:
		spa, err := web.NewSPADir(cfg.Web.DistDir)
		if err != nil {
			return nil, fmt.Errorf("init web: %w", err)
		}
		r.NotFound(spa.ServeHTTP)
		logger.Info("Serving frontend", slog.String("dir", cfg.Web.DistDir))
	}

	return r, nil
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = fmt.Fprintf(w, `{"status":%q}`, status)
}
