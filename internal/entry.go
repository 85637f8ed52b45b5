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

	"github.com/starford/notesift/internal/api"
	"github.com/starford/notesift/internal/mcpserver"
	"github.com/starford/notesift/internal/noteservice"
	"github.com/starford/notesift/internal/search"
	"github.com/starford/notesift/internal/sse"
	"github.com/starford/notesift/internal/storage"
	"github.com/starford/notesift/internal/watch"
)

// Application holds the resolved configuration shared by every command.
type Application struct {
	config *Config
	root   string
	loc    *time.Location
	stdout io.Writer
	stderr io.Writer
	stdin  *os.File
}

// New validates the configuration and resolves the vault root and timezone.
func New(opts ...Option) (*Application, error) {
	app := &Application{
		stdout: os.Stdout,
		stderr: os.Stderr,
		stdin:  os.Stdin,
	}
	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if err := app.config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	loc, err := app.config.App.Location()
	if err != nil {
		return nil, err
	}
	app.loc = loc

	root := app.root
	if root == "" {
		root = app.config.Vault.Path
	}
	if app.root, err = ExpandHome(root); err != nil {
		return nil, err
	}
	return app, nil
}

// Root returns the resolved vault root.
func (a *Application) Root() string { return a.root }

// logger builds the JSON logger. Output goes to app.log_file when set,
// otherwise to fallback. The returned func closes the log file.
func (a *Application) logger(fallback io.Writer) (*slog.Logger, func(), error) {
	w, closer := fallback, func() {}
	if a.config.App.LogFile != "" {
		f, err := os.OpenFile(a.config.App.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w, closer = f, func() { f.Close() }
	}
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: a.config.App.LogLevel,
	}))
	return logger, closer, nil
}

func (a *Application) engine(root string, logger *slog.Logger) *search.Engine {
	return search.NewEngine(root,
		search.WithLocation(a.loc),
		search.WithCache(a.config.Search.Cache),
		search.WithLogger(logger),
	)
}

// service opens the vault-rooted read service used by the HTTP and MCP
// surfaces.
func (a *Application) service(logger *slog.Logger) (*noteservice.Service, *storage.FS, *search.Engine, error) {
	store, err := storage.NewFS(a.root)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init storage: %w", err)
	}
	engine := a.engine(store.Root(), logger)
	return noteservice.NewService(store, engine), store, engine, nil
}

// Serve runs the read-only HTTP API until ctx is cancelled or a shutdown
// signal arrives.
func (a *Application) Serve(ctx context.Context) error {
	cfg := a.config

	logger, closeLog, err := a.logger(a.stderr)
	if err != nil {
		return err
	}
	defer closeLog()
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.HTTP.Address()),
		slog.String("vault_path", a.root),
		slog.String("timezone", a.loc.String()),
		slog.String("log_level", cfg.App.LogLevel.String()))

	svc, store, engine, err := a.service(logger)
	if err != nil {
		return err
	}

	// SSE broker.
	broker := sse.NewBroker(2*time.Second, sse.WithKeepAlive(30*time.Second))
	defer broker.Close()

	metrics := api.NewMetrics()
	apiRouter := api.NewRouter(svc, metrics, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

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
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := os.Stat(store.Root()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"vault unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", metrics.Handler())

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	// File watcher keeps the memo cache fresh and feeds the SSE stream.
	g.Go(func() error {
		err := watch.Watch(gCtx, store.Root(), logger, func(ev watch.Event) {
			if ev.Kind == watch.KindTree {
				engine.Reset()
			} else {
				svc.Invalidate(ev.Path)
			}
			broker.PublishChange(ev.Kind, store.Rel(ev.Path))
		})
		if err != nil {
			logger.Warn("watcher unavailable, live updates disabled", slog.String("error", err.Error()))
		}
		return nil
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.HTTP.Address()))
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

		return context.Canceled
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// ServeMCP runs the MCP server over stdin/stdout. Logs never touch stdout.
func (a *Application) ServeMCP(ctx context.Context) error {
	logger, closeLog, err := a.logger(a.stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	svc, _, _, err := a.service(logger)
	if err != nil {
		return err
	}
	logger.Info("mcp: serving", slog.String("vault_path", a.root))
	return mcpserver.New(svc, logger).Serve(ctx, a.stdin, a.stdout)
}
