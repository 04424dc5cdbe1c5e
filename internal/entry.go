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
	"github.com/gofrs/flock"
	"golang.org/x/sync/errgroup"

	"github.com/starford/launchpad/internal/api"
	"github.com/starford/launchpad/internal/audit"
	"github.com/starford/launchpad/internal/catalog"
	"github.com/starford/launchpad/internal/launcher"
	"github.com/starford/launchpad/internal/mcpserver"
	"github.com/starford/launchpad/internal/sse"
	"github.com/starford/launchpad/internal/uploads"
	"github.com/starford/launchpad/internal/watcher"
	"github.com/starford/launchpad/internal/web"
)

func newApplication(opts []Option) (*application, error) {
	app := &application{logOut: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

// setup builds the logger and the launcher service shared by both entry
// points. The returned closer releases the audit database.
func (a *application) setup(extra ...launcher.Option) (*launcher.Service, *slog.Logger, func(), error) {
	cfg := a.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(a.logOut, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("catalog_path", cfg.Storage.CatalogPath),
		slog.String("uploads_dir", cfg.Storage.UploadsDir),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("auth_mode", cfg.Auth.Mode),
		slog.String("log_level", cfg.App.LogLevel.String()))

	if cfg.Auth.AuthEnabled() && cfg.Auth.Password == DefaultAdminPassword {
		logger.Warn("admin password is the built-in default; set auth.password")
	}

	store, err := catalog.NewStore(cfg.Storage.CatalogPath, logger)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init catalog: %w", err)
	}
	sink, err := uploads.NewSink(cfg.Storage.UploadsDir, cfg.Storage.UploadsURL)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init uploads: %w", err)
	}

	db, err := audit.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init audit log: %w", err)
	}

	opts := append([]launcher.Option{
		launcher.WithAudit(db),
		launcher.WithLogger(logger),
	}, extra...)
	svc := launcher.NewService(store, sink, opts...)

	// Seed the catalog so the first page load and the watcher see a file.
	if err := store.EnsureInitialized(context.Background()); err != nil {
		logger.Warn("seed catalog failed", slog.String("error", err.Error()))
	}

	return svc, logger, func() { _ = db.Close() }, nil
}

// newRouter builds the root router: health checks, the API, the public
// catalog file, uploaded icons and the HTML pages.
func newRouter(cfg *Config, svc *launcher.Service, broker *sse.Broker) (http.Handler, error) {
	auth := api.BasicAuthMiddleware(cfg.Auth.AuthEnabled(), cfg.Auth.Password)
	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Password, broker)
	pages, err := web.New(svc)
	if err != nil {
		return nil, fmt.Errorf("init pages: %w", err)
	}
	h := api.NewHandler(svc)

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
		if _, err := os.Stat(cfg.Storage.CatalogPath); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"catalog unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	// Public catalog file and uploaded icons. The sink owns the normalised
	// prefix so stored paths and the route always agree.
	r.Get("/config/apps.json", h.GetConfig)
	r.Get(svc.Sink().Prefix()+"/{filename}", h.ServeUpload)

	// HTML pages.
	pages.Register(r, auth)

	return r, nil
}

// newHTTPServer closes the broker when shutdown starts, so open event
// streams end and Shutdown does not wait on them.
func newHTTPServer(addr string, handler http.Handler, broker *sse.Broker) *http.Server {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv.RegisterOnShutdown(broker.Close)
	return srv
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	// One server per audit database.
	lock := flock.New(cfg.SQLite.Path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire instance lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another launchpad server is using %s", cfg.SQLite.Path)
	}
	defer func() { _ = lock.Unlock() }()

	// SSE broker.
	broker := sse.NewBroker(cfg.Events.Throttle)
	defer broker.Close()

	svc, logger, closeDB, err := app.setup(launcher.WithNotifier(broker))
	if err != nil {
		return err
	}
	defer closeDB()

	r, err := newRouter(cfg, svc, broker)
	if err != nil {
		return err
	}
	httpServer := newHTTPServer(cfg.App.HTTP.Address(), r, broker)

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	ctx, stop := context.WithCancel(ctx)
	defer stop()
	g, gCtx := errgroup.WithContext(ctx)

	// Start catalog watcher so hand edits reach open launcher pages.
	if cfg.Events.Watch {
		g.Go(func() error {
			err := watcher.Watch(gCtx, cfg.Storage.CatalogPath, watcher.DefaultDebounce, logger, svc.FileChanged)
			if err != nil {
				logger.Warn("catalog watcher disabled", slog.String("error", err.Error()))
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
		stop()

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP serves the MCP tools on stdin/stdout against the same catalog,
// uploads directory and audit log as the HTTP server.
func RunMCP(_ context.Context, opts ...Option) error {
	app, err := newApplication(append([]Option{WithLogOutput(os.Stderr)}, opts...))
	if err != nil {
		return err
	}
	svc, logger, closeDB, err := app.setup()
	if err != nil {
		return err
	}
	defer closeDB()

	logger.Info("MCP server starting on stdio")
	return mcpserver.New(svc).ServeStdio()
}
