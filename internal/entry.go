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
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/starford/photoplay/internal/api"
	"github.com/starford/photoplay/internal/index"
	"github.com/starford/photoplay/internal/mcpserver"
	"github.com/starford/photoplay/internal/payload"
	"github.com/starford/photoplay/internal/playservice"
	"github.com/starford/photoplay/internal/sse"
	"github.com/starford/photoplay/internal/storage"
)

const sseHeartbeat = 30 * time.Second

// components is the service graph shared by the HTTP and MCP front ends.
type components struct {
	store  storage.Provider
	db     *index.DB
	broker *sse.Broker
	svc    *playservice.Service
}

func (c *components) Close() {
	c.broker.Close()
	_ = c.db.Close()
}

func newApplication(opts []Option) (*application, *slog.Logger, error) {
	app := &application{logOutput: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, nil, fmt.Errorf("config is required")
	}

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(app.logOutput, &slog.HandlerOptions{
		Level: app.config.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return app, logger, nil
}

// newStorage builds the configured backend. An unconfigured backend fails
// every upload with storage.ErrStorageUnavailable.
func newStorage(cfg *StorageConfig, logger *slog.Logger) (storage.Provider, error) {
	switch cfg.Backend {
	case StorageBackendFS:
		if err := os.MkdirAll(cfg.FS.Path, 0o755); err != nil {
			return nil, fmt.Errorf("create bucket dir: %w", err)
		}
		return storage.NewFS(cfg.FS.Path, cfg.Bucket, cfg.Endpoint())
	case StorageBackendHTTP:
		return storage.NewHTTP(cfg.Endpoint(), cfg.HTTP.Token, cfg.HTTP.Timeout), nil
	default:
		logger.Warn("no storage backend configured, voice uploads will fail")
		return storage.Unconfigured{}, nil
	}
}

func setup(cfg *Config, logger *slog.Logger) (*components, error) {
	store, err := newStorage(&cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	asm, err := payload.NewAssembler(cfg.Payload.BaseURL, payload.WithOrigin(cfg.Payload.Origin))
	if err != nil {
		return nil, fmt.Errorf("init assembler: %w", err)
	}
	res := payload.NewResolver(cfg.Payload.ResolverKinds()...)

	// Initialize SQLite index.
	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}

	broker := sse.NewBroker(sseHeartbeat)
	svc := playservice.NewService(asm, res, store, db,
		playservice.WithNotifier(broker),
		playservice.WithLogger(logger))

	return &components{store: store, db: db, broker: broker, svc: svc}, nil
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, logger, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("base_url", cfg.Payload.BaseURL),
		slog.String("storage_backend", cfg.Storage.Backend),
		slog.String("storage_endpoint", cfg.Storage.Endpoint()),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	c, err := setup(cfg, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(api.Metrics)
	r.Use(api.CORS(cfg.CORS.AllowedOrigins))

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := c.db.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Metrics endpoint (for Prometheus scraping).
	r.Handle("/metrics", promhttp.Handler())

	// Mount API routes under /api; the SSE stream lives at /api/events.
	r.Mount("/api", api.NewRouter(c.svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, c.broker))

	// Public scan endpoint.
	r.Mount("/play", api.NewPlayRouter(c.svc))

	// Object endpoint for the local bucket.
	if cfg.Storage.Backend == StorageBackendFS {
		objects := api.NewObjectHandler(c.store, cfg.Storage.Bucket, cfg.Auth.AuthEnabled(), cfg.Auth.Token)
		r.Mount("/v0/b/{bucket}/o", objects.Routes())
	}

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

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
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		// End event streams first so Shutdown does not wait on them.
		c.broker.Close()

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

// RunMCP serves the MCP tools on stdin/stdout. Logs must not go to stdout
// here; callers pass WithLogOutput(os.Stderr).
func RunMCP(_ context.Context, opts ...Option) error {
	app, logger, err := newApplication(opts)
	if err != nil {
		return err
	}

	c, err := setup(app.config, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	logger.Info("MCP server starting on stdio",
		slog.String("base_url", app.config.Payload.BaseURL),
		slog.String("storage_backend", app.config.Storage.Backend))
	if err := mcpserver.New(c.svc).ServeStdio(); err != nil {
		return fmt.Errorf("mcp server error: %w", err)
	}
	return nil
}
