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

	"github.com/starford/parasync/internal/api"
	"github.com/starford/parasync/internal/index"
	"github.com/starford/parasync/internal/mcpserver"
	"github.com/starford/parasync/internal/models"
	"github.com/starford/parasync/internal/noteservice"
	"github.com/starford/parasync/internal/reconcile"
	"github.com/starford/parasync/internal/sse"
	"github.com/starford/parasync/internal/storage"
	"github.com/starford/parasync/internal/vaultsync"
	"github.com/starford/parasync/internal/watch"
)

// components is everything one mode needs, built from the configuration.
type components struct {
	cfg    *Config
	logger *slog.Logger
	db     *index.DB
	broker *sse.Broker
	svc    *noteservice.Service
}

func newApplication(opts []Option) (*application, error) {
	app := &application{version: "dev", logOutput: os.Stderr}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

func (a *application) newLogger() *slog.Logger {
	level := a.config.App.LogLevel
	if a.verbose {
		level = slog.LevelDebug
	}
	ho := &slog.HandlerOptions{Level: level}
	if a.config.App.LogFormat == LogFormatJSON {
		return slog.New(slog.NewJSONHandler(a.logOutput, ho))
	}
	return slog.New(slog.NewTextHandler(a.logOutput, ho))
}

// build opens the vault and, when configured, the ledger. withEvents wires
// the SSE broker into the sync hooks.
func (a *application) build(withEvents bool) (*components, error) {
	cfg := a.config
	logger := a.newLogger()
	slog.SetDefault(logger)

	store, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return nil, err
	}

	c := &components{cfg: cfg, logger: logger}
	var syncOpts []vaultsync.SyncerOption

	// ledger stays a nil interface when disabled.
	var ledger index.Ledger
	if cfg.Ledger.Enabled() {
		db, err := index.Open(cfg.Ledger.Path)
		if err != nil {
			return nil, fmt.Errorf("init ledger: %w", err)
		}
		c.db = db
		ledger = db
		syncOpts = append(syncOpts, vaultsync.WithLedger(db))
	}

	if withEvents {
		c.broker = sse.NewBroker(2 * time.Second)
		syncOpts = append(syncOpts,
			vaultsync.WithOutcomeFunc(c.broker.PublishOutcome),
			vaultsync.WithReportFunc(c.broker.PublishReport))
	}

	engine := reconcile.New(reconcile.WithCreatedTemplate(cfg.Frontmatter.CreatedTemplate))
	syncer := vaultsync.New(store, engine, logger, syncOpts...)
	c.svc = noteservice.NewService(store, engine, syncer, ledger, vaultsync.Options{
		ExcludeFolders: cfg.Vault.ExcludeFolders,
		ExcludeFiles:   cfg.Vault.ExcludeFiles,
	})

	logger.Debug("Configuration loaded",
		slog.String("vault_path", store.Root()),
		slog.String("ledger_path", cfg.Ledger.Path),
		slog.Any("exclude_folders", cfg.Vault.ExcludeFolders),
		slog.Any("exclude_files", cfg.Vault.ExcludeFiles),
		slog.String("log_level", cfg.App.LogLevel.String()))

	return c, nil
}

func (c *components) close() {
	if c.broker != nil {
		c.broker.Close()
	}
	if c.db != nil {
		if err := c.db.Close(); err != nil {
			c.logger.Warn("ledger close failed", slog.String("error", err.Error()))
		}
	}
}

// watchVault re-syncs the vault after each burst of note changes until ctx
// is done. A sync's own writes trigger one more pass, which changes nothing.
func (c *components) watchVault(ctx context.Context) error {
	opts := watch.Options{
		Debounce:       c.cfg.Watch.Debounce,
		ExcludeFolders: c.cfg.Vault.ExcludeFolders,
	}
	return watch.Watch(ctx, c.svc.Root(), opts, c.logger, func(ctx context.Context) {
		if _, err := c.svc.Sync(ctx, false); err != nil && ctx.Err() == nil {
			c.logger.Warn("sync failed", slog.String("error", err.Error()))
		}
	})
}

// RunSync processes the vault once and returns the run report.
func RunSync(ctx context.Context, opts ...Option) (*models.Report, error) {
	app, err := newApplication(opts)
	if err != nil {
		return nil, err
	}
	c, err := app.build(false)
	if err != nil {
		return nil, err
	}
	defer c.close()

	return c.svc.Sync(ctx, app.dryRun)
}

// RunWatch syncs the vault once, then again on every change until ctx is
// cancelled or a shutdown signal arrives.
func RunWatch(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	c, err := app.build(false)
	if err != nil {
		return err
	}
	defer c.close()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if _, err := c.svc.Sync(ctx, false); err != nil {
		c.logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}
	c.logger.Info("Watching vault", slog.String("vault_path", c.svc.Root()))

	if err := c.watchVault(ctx); err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	c.logger.Info("Watcher stopped")
	return nil
}

// RunServe starts the HTTP API and the watcher.
func RunServe(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	c, err := app.build(true)
	if err != nil {
		return err
	}
	defer c.close()

	cfg := c.cfg
	logger := c.logger

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("vault_path", c.svc.Root()),
		slog.String("ledger_path", cfg.Ledger.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	if _, err := c.svc.Sync(ctx, false); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	apiRouter := api.NewRouter(c.svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, c.broker)

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

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := c.watchVault(gCtx); err != nil {
			return fmt.Errorf("watch: %w", err)
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

// RunMCP serves the MCP tools over stdio.
func RunMCP(_ context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	c, err := app.build(false)
	if err != nil {
		return err
	}
	defer c.close()

	c.logger.Info("Starting MCP server", slog.String("vault_path", c.svc.Root()))
	return mcpserver.New(c.svc, app.version).ServeStdio()
}
