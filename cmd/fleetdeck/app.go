package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/HerbHall/fleetdeck/internal/config"
	"github.com/HerbHall/fleetdeck/internal/event"
	"github.com/HerbHall/fleetdeck/internal/server"
	"github.com/HerbHall/fleetdeck/internal/services"
	"github.com/HerbHall/fleetdeck/internal/store"
	"github.com/HerbHall/fleetdeck/internal/theme"
	"github.com/HerbHall/fleetdeck/internal/version"
	"github.com/HerbHall/fleetdeck/internal/views"
)

// app is the composition root shared by serve and the CLI subcommands.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	settings services.SettingsRepository
	catalogs views.CatalogRepository
	bus      *event.Bus
	css      *theme.CSSSink
	themes   *theme.Store
	views    *views.Registry

	closers []func() error
}

// loadConfig reads and validates the configuration at path (or the default
// search locations when path is empty).
func loadConfig(path string) (*config.Config, string, error) {
	v, err := server.LoadConfig(path)
	if err != nil {
		return nil, "", fmt.Errorf("load configuration: %w", err)
	}
	cfg, err := config.Load(v)
	if err != nil {
		return nil, "", err
	}
	return cfg, v.ConfigFileUsed(), nil
}

// newApp opens the configured storage backend and initializes the theme
// store and view registry on top of it.
func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	if err := a.openStorage(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}

	a.bus = event.NewBus(logger.Named("event"))

	catalog := theme.NewCatalog()
	if cfg.Themes.File != "" {
		n, err := catalog.LoadFile(cfg.Themes.File, logger.Named("theme"))
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("load themes file: %w", err)
		}
		logger.Info("custom themes loaded",
			zap.String("component", "theme"),
			zap.String("file", cfg.Themes.File),
			zap.Int("count", n),
		)
	}

	kv := services.NewKeyValue(a.settings)
	a.css = theme.NewCSSSink()
	a.themes = theme.NewStore(kv, a.css, catalog, a.bus, logger.Named("theme"))
	a.views = views.NewRegistry(a.catalogs, kv, a.bus, logger.Named("views"))
	return a, nil
}

// initialize loads persisted selections. Subscribers that must observe the
// initial events need to be attached before calling it.
func (a *app) initialize(ctx context.Context) error {
	if err := a.themes.Initialize(ctx); err != nil {
		return fmt.Errorf("initialize theme store: %w", err)
	}
	if err := a.views.Initialize(ctx); err != nil {
		return fmt.Errorf("initialize view registry: %w", err)
	}
	return nil
}

func (a *app) openStorage(ctx context.Context) error {
	switch a.cfg.Storage.Driver {
	case config.DriverSQLite:
		path := a.cfg.Database.Path
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return fmt.Errorf("create database directory: %w", err)
			}
		}
		db, err := store.New(path)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		if err := db.CheckVersion(ctx, version.Version); err != nil {
			return fmt.Errorf("check database version: %w", err)
		}
		repo, err := services.NewSQLiteSettingsRepository(ctx, db)
		if err != nil {
			return fmt.Errorf("initialize settings repository: %w", err)
		}
		catalogs, err := views.NewSQLiteCatalogRepository(ctx, db)
		if err != nil {
			return fmt.Errorf("initialize view catalog repository: %w", err)
		}
		a.settings, a.catalogs = repo, catalogs
		a.logger.Info("database initialized",
			zap.String("component", "database"),
			zap.String("path", path),
		)

	case config.DriverRedis:
		repo, err := services.NewRedisSettingsRepository(ctx, services.RedisOptions{
			Addr:     a.cfg.Storage.Redis.Addr,
			Password: a.cfg.Storage.Redis.Password,
			DB:       a.cfg.Storage.Redis.DB,
		})
		if err != nil {
			return fmt.Errorf("connect settings store: %w", err)
		}
		a.closers = append(a.closers, repo.Close)
		a.settings, a.catalogs = repo, views.NewSettingsCatalogRepository(repo)
		a.logger.Info("redis settings store connected",
			zap.String("component", "storage"),
			zap.String("addr", a.cfg.Storage.Redis.Addr),
		)

	case config.DriverMemory:
		repo := services.NewMemorySettingsRepository()
		a.settings, a.catalogs = repo, views.NewSettingsCatalogRepository(repo)
		a.logger.Warn("using in-memory settings store, selections will not survive a restart",
			zap.String("component", "storage"),
		)

	default:
		return fmt.Errorf("unknown storage driver %q", a.cfg.Storage.Driver)
	}
	return nil
}

// Close releases storage handles in reverse order of acquisition.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// cliLogger is the quiet logger used by the non-serve subcommands.
func cliLogger() (*zap.Logger, error) {
	return config.NewLogger(config.LoggingConfig{Level: "warn", Format: "console"})
}

// openCLI loads configuration and returns an initialized app for one-shot
// commands.
func openCLI(ctx context.Context, flags *rootFlags) (*app, error) {
	cfg, _, err := loadConfig(flags.configPath)
	if err != nil {
		return nil, err
	}
	logger, err := cliLogger()
	if err != nil {
		return nil, err
	}
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := a.initialize(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}
