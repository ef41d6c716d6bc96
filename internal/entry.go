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

	"github.com/okvist/stele/internal/api"
	"github.com/okvist/stele/internal/index"
	"github.com/okvist/stele/internal/mcpserver"
	"github.com/okvist/stele/internal/postservice"
	"github.com/okvist/stele/internal/sse"
	"github.com/okvist/stele/internal/storage"
	"github.com/okvist/stele/internal/store"
	"github.com/okvist/stele/internal/watcher"
)

// Run starts the publication server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("content_path", cfg.Content.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	svc, db, err := buildService(cfg, logger, broker)
	if err != nil {
		return err
	}
	defer db.Close()

	// Build API router and public content handler.
	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

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
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	// Everything else is resolver-driven public content delivery.
	r.Get("/*", api.NewContentHandler(svc))

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Watch the content directory and reload the snapshot on change.
	g.Go(func() error {
		return watcher.Watch(gCtx, cfg.Content.Path, watcher.DefaultDebounce, logger, func() error {
			_, err := svc.Reload(gCtx)
			return err
		})
	})

	// Start HTTP server.
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

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP starts the MCP server on stdio with the given options.
// Logs go to stderr so they don't corrupt the stdio transport.
func RunMCP(_ context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	svc, db, err := buildService(cfg, logger, nil)
	if err != nil {
		return err
	}
	defer db.Close()

	logger.Info("MCP server starting on stdio")
	return mcpserver.New(svc).ServeStdio()
}

// buildService wires storage, the initial snapshot, and the SQLite index
// into a post service. A nil broker disables change notifications.
func buildService(cfg *Config, logger *slog.Logger, broker *sse.Broker) (*postservice.Service, *index.DB, error) {
	if err := os.MkdirAll(cfg.Content.Path, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create content dir: %w", err)
	}

	files, err := storage.NewFS(cfg.Content.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("init storage: %w", err)
	}

	// The initial load is strict: a corrupt corpus refuses to start.
	snap, err := store.Load(files)
	if err != nil {
		return nil, nil, fmt.Errorf("load content: %w", err)
	}
	logger.Info("Content loaded", slog.Int("posts", snap.Len()))

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("init index: %w", err)
	}

	if err := index.Sync(db, snap, logger); err != nil {
		logger.Warn("initial index sync failed", slog.String("error", err.Error()))
	}

	return postservice.NewService(files, store.NewHolder(snap), db, broker, logger), db, nil
}
