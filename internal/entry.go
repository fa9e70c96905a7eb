// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"encoding/json"
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

	"github.com/starford/linkograph/internal/analysis"
	"github.com/starford/linkograph/internal/api"
	"github.com/starford/linkograph/internal/mcpserver"
	"github.com/starford/linkograph/internal/sse"
	"github.com/starford/linkograph/internal/storage"
	"github.com/starford/linkograph/internal/store"
)

// runtime holds the components shared by the serve and mcp modes.
type runtime struct {
	cfg    *Config
	logger *slog.Logger
	db     *store.DB
	files  *storage.FS
	svc    *analysis.Service
}

func (rt *runtime) close() {
	if err := rt.db.Close(); err != nil {
		rt.logger.Warn("close database", slog.String("error", err.Error()))
	}
}

func newApplication(opts []Option) (*application, error) {
	app := &application{logOutput: os.Stdout, version: "dev"}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

// bootstrap opens storage and the database, runs the initial protocol sync
// and builds the analysis service.
func bootstrap(ctx context.Context, app *application, notify analysis.Notifier) (*runtime, error) {
	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(app.logOutput, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("protocols_path", cfg.Protocols.Path),
		slog.Bool("protocols_watch", cfg.Protocols.Watch),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.Int("cache_size", cfg.Cache.Size),
		slog.Int("max_moves", cfg.Engine.MaxMoves),
		slog.String("log_level", cfg.App.LogLevel.String()))

	rt := &runtime{cfg: cfg, logger: logger}

	// Protocol directory is optional; without it import and sync are off.
	var files storage.Provider
	if cfg.Protocols.Path != "" {
		if err := os.MkdirAll(cfg.Protocols.Path, 0o755); err != nil {
			return nil, fmt.Errorf("create protocols dir: %w", err)
		}
		fs, err := storage.NewFS(cfg.Protocols.Path)
		if err != nil {
			return nil, fmt.Errorf("init storage: %w", err)
		}
		rt.files = fs
		files = fs
	}

	db, err := store.Open(cfg.SQLite.Path, cfg.Cache.Size)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	rt.db = db

	if files != nil {
		if err := store.Sync(ctx, db, files, logger); err != nil {
			logger.Warn("initial sync failed", slog.String("error", err.Error()))
		}
	}

	rt.svc = analysis.NewService(db, files, notify, cfg.Scoring.Coefficients, analysis.WithMaxMoves(cfg.Engine.MaxMoves))
	return rt, nil
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	rt, err := bootstrap(ctx, app, broker)
	if err != nil {
		return err
	}
	defer rt.close()

	cfg, logger := rt.cfg, rt.logger

	if !cfg.Auth.AuthEnabled() {
		logger.Warn("authentication disabled", slog.String("auth_mode", cfg.Auth.Mode))
	}

	apiRouter := api.NewRouter(rt.svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	// Build chi router.
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
		if err := rt.db.Ping(req.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api, SSE included.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start protocol watcher with SSE callback.
	if rt.files != nil && cfg.Protocols.Watch {
		g.Go(func() error {
			if err := store.Watch(gCtx, rt.db, rt.files, rt.files.Root(), logger, broker.PublishLinkographEvent); err != nil {
				logger.Error("watcher failed", slog.String("error", err.Error()))
			}
			return nil
		})
	}

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

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		// Returning an error cancels gCtx, which stops the watcher.
		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

var errShutdown = errors.New("shutdown")

// RunMCP serves the MCP tools over stdin/stdout. Logs must not go to
// stdout in this mode, so callers pass WithLogOutput(os.Stderr).
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}

	rt, err := bootstrap(ctx, app, nil)
	if err != nil {
		return err
	}
	defer rt.close()

	rt.logger.Info("MCP server starting (stdio)", slog.String("version", app.version))
	return mcpserver.New(rt.svc, app.version).ServeStdio()
}

// Analyze parses the protocol file at path and writes its analysis report
// as indented JSON to out. Nothing is stored.
func Analyze(path string, cfg *Config, out io.Writer) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read protocol: %w", err)
	}
	svc := analysis.NewService(nil, nil, nil, cfg.Scoring.Coefficients, analysis.WithMaxMoves(cfg.Engine.MaxMoves))
	rep, err := svc.AnalyzeProtocol(data)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}
