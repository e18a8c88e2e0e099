// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/inkwell/internal/api"
	"github.com/starford/inkwell/internal/comments"
	"github.com/starford/inkwell/internal/content"
	"github.com/starford/inkwell/internal/engagement"
	"github.com/starford/inkwell/internal/feed"
	"github.com/starford/inkwell/internal/hydrate"
	"github.com/starford/inkwell/internal/mcpserver"
	"github.com/starford/inkwell/internal/related"
	"github.com/starford/inkwell/internal/social"
	"github.com/starford/inkwell/internal/sse"
	"github.com/starford/inkwell/internal/store"
)

// core bundles the store, the importer and the services built on them.
type core struct {
	db         *store.DB
	importer   *content.Importer
	social     *social.Service
	engagement *engagement.Service
	comments   *comments.Service
	feed       *feed.Composer
	related    *related.Recommender
	hydrator   *hydrate.Hydrator
}

func (a *application) setup(opts []Option) (*Config, *slog.Logger, error) {
	for _, opt := range opts {
		opt(a)
	}
	if a.config == nil {
		return nil, nil, fmt.Errorf("config is required")
	}
	if a.logOutput == nil {
		a.logOutput = os.Stdout
	}
	if a.version == "" {
		a.version = "dev"
	}

	cfg := a.config
	logger := slog.New(slog.NewJSONHandler(a.logOutput, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("content_path", cfg.Content.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))
	return cfg, logger, nil
}

// newCore opens the database and wires the services. onEvent receives
// import events and may be nil. The caller closes c.db.
func newCore(cfg *Config, logger *slog.Logger, onEvent content.EventFunc) (*core, error) {
	if err := os.MkdirAll(cfg.Content.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create content dir: %w", err)
	}
	src, err := content.NewSource(cfg.Content.Path)
	if err != nil {
		return nil, fmt.Errorf("init content source: %w", err)
	}

	db, err := store.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	pageDefault, pageMax := cfg.Feed.DefaultPageSize, cfg.Feed.MaxPageSize
	socialSvc := social.NewService(db, social.WithLogger(logger), social.WithPageSizes(pageDefault, pageMax))
	hyd := hydrate.New(db, logger)
	return &core{
		db:         db,
		importer:   content.NewImporter(db, src, logger, onEvent),
		social:     socialSvc,
		engagement: engagement.NewService(db, engagement.WithLogger(logger)),
		comments:   comments.NewService(db, comments.WithLogger(logger), comments.WithPageSizes(pageDefault, pageMax)),
		feed:       feed.NewComposer(db, socialSvc, hyd, feed.WithLogger(logger), feed.WithPageSizes(pageDefault, pageMax)),
		related: related.NewRecommender(db, hyd, related.WithLogger(logger),
			related.WithLimits(cfg.Related.DefaultLimit, cfg.Related.MaxLimit)),
		hydrator: hyd,
	}, nil
}

func (c *core) sync(ctx context.Context, logger *slog.Logger) error {
	st, err := c.importer.Sync(ctx)
	if err != nil {
		return err
	}
	logger.Info("Content synced",
		slog.Int("imported", st.Imported),
		slog.Int("skipped", st.Skipped),
		slog.Int("removed", st.Removed),
		slog.Int("failed", st.Failed))
	return nil
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}
	cfg, logger, err := app.setup(opts)
	if err != nil {
		return err
	}

	broker := sse.NewBroker(cfg.Events.FeedThrottle)
	defer broker.Close()

	c, err := newCore(cfg, logger, func(kind, postID string) {
		broker.PublishActivity(kind, map[string]string{"post_id": postID})
	})
	if err != nil {
		return err
	}
	defer c.db.Close()

	if err := c.sync(ctx, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	apiRouter := api.NewRouter(api.Deps{
		Posts:      c.db,
		Social:     c.social,
		Engagement: c.engagement,
		Comments:   c.comments,
		Feed:       c.feed,
		Related:    c.related,
		Hydrator:   c.hydrator,
		Events:     broker,
		Logger:     logger,
	}, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := c.db.Ping(req.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	if cfg.Content.Watch {
		g.Go(func() error {
			if err := c.importer.Watch(gCtx); err != nil {
				logger.Error("content watcher failed", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

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

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group so the watcher stops with the server.
var errShutdown = errors.New("shutdown")

// RunMCP serves the read-only MCP tools over stdio after one content sync.
func RunMCP(ctx context.Context, opts ...Option) error {
	app := &application{}
	cfg, logger, err := app.setup(append([]Option{WithLogOutput(os.Stderr)}, opts...))
	if err != nil {
		return err
	}
	c, err := newCore(cfg, logger, nil)
	if err != nil {
		return err
	}
	defer c.db.Close()

	if err := c.sync(ctx, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	srv := mcpserver.New(mcpserver.Services{
		Feed:       c.feed,
		Related:    c.related,
		Comments:   c.comments,
		Engagement: c.engagement,
		Social:     c.social,
	}, app.version)
	logger.Info("MCP server starting on stdio")
	return srv.ServeStdio()
}

// RunSync performs one content import pass and exits.
func RunSync(ctx context.Context, opts ...Option) error {
	app := &application{}
	cfg, logger, err := app.setup(opts)
	if err != nil {
		return err
	}
	c, err := newCore(cfg, logger, nil)
	if err != nil {
		return err
	}
	defer c.db.Close()
	return c.sync(ctx, logger)
}
