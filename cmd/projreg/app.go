package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/rpggio/projreg/internal/config"
	"github.com/rpggio/projreg/internal/domain/event"
	"github.com/rpggio/projreg/internal/domain/project"
	"github.com/rpggio/projreg/internal/mcp"
	"github.com/rpggio/projreg/internal/memstore"
	"github.com/rpggio/projreg/internal/metrics"
	"github.com/rpggio/projreg/internal/postgres"
	"github.com/rpggio/projreg/internal/sqlite"
	"github.com/rpggio/projreg/internal/sqlstore"
	"github.com/rpggio/projreg/internal/tracing"
	"github.com/rpggio/projreg/internal/transport"
)

// app is the wired registry for one process.
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	projects *project.Service
	events   *event.Service
	handler  *mcp.Handler
	apiKeys  *sqlstore.APIKeyRepository
	metrics  *metrics.Recorder
	tracing  *tracing.Provider
	closeDB  func() error
}

type storage struct {
	projects project.Repository
	events   event.Repository
	apiKeys  *sqlstore.APIKeyRepository
	close    func() error
}

func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app, error) {
	st, err := openStorage(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}

	tp, err := tracing.NewProvider(ctx, cfg.Tracing)
	if err != nil {
		_ = st.close()
		return nil, fmt.Errorf("tracing: %w", err)
	}

	opts := []project.Option{project.WithTracer(tp.Tracer())}
	var recorder *metrics.Recorder
	if cfg.Metrics.Enabled {
		recorder = metrics.New()
		opts = append(opts, project.WithMetrics(recorder), project.WithObserver(recorder))
	}

	projectSvc := project.NewService(st.projects, project.StaticAdministrator(cfg.Admin.Principal), logger, opts...)
	eventSvc := event.NewService(st.events, logger)

	return &app{
		cfg:      cfg,
		logger:   logger,
		projects: projectSvc,
		events:   eventSvc,
		handler:  mcp.NewHandler(projectSvc, eventSvc),
		apiKeys:  st.apiKeys,
		metrics:  recorder,
		tracing:  tp,
		closeDB:  st.close,
	}, nil
}

// resolver returns the API key resolver, or nil for stores without keys.
func (a *app) resolver() transport.PrincipalResolver {
	if a.apiKeys == nil {
		return nil
	}
	return a.apiKeys
}

func (a *app) Close(ctx context.Context) error {
	return errors.Join(a.tracing.Shutdown(ctx), a.closeDB())
}

func openStorage(ctx context.Context, cfg config.DBConfig) (storage, error) {
	switch cfg.Driver {
	case "memory":
		store := memstore.New()
		return storage{projects: store, events: store.Events(), close: func() error { return nil }}, nil
	case "postgres":
		db, err := postgres.Open(ctx, cfg.DSN)
		if err != nil {
			return storage{}, err
		}
		return sqlStorage(db.Store(), db.Close), nil
	default:
		if err := ensureDBDir(cfg.Path); err != nil {
			return storage{}, fmt.Errorf("prepare database path: %w", err)
		}
		db, err := sqlite.Open(cfg.Path)
		if err != nil {
			return storage{}, err
		}
		return sqlStorage(db.Store(), db.Close), nil
	}
}

func sqlStorage(store *sqlstore.Store, closeFn func() error) storage {
	return storage{
		projects: store.Projects(),
		events:   store.Events(),
		apiKeys:  store.APIKeys(),
		close:    closeFn,
	}
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func newLogger(level string, w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: parseLogLevel(level),
	}))
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// withApp runs fn against a registry opened from the command's config.
// Local commands log to stderr so stdout carries only results.
func (o *rootOptions) withApp(ctx context.Context, fn func(*app) error) error {
	cfg, err := o.loadConfig()
	if err != nil {
		return err
	}
	a, err := newApp(ctx, cfg, newLogger(cfg.Log.Level, os.Stderr))
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(context.Background()); err != nil {
			a.logger.Warn("close failed", "error", err)
		}
	}()
	return fn(a)
}
