package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/HerbHall/fleetdeck/internal/config"
	"github.com/HerbHall/fleetdeck/internal/dashboard"
	"github.com/HerbHall/fleetdeck/internal/event"
	"github.com/HerbHall/fleetdeck/internal/metrics"
	"github.com/HerbHall/fleetdeck/internal/server"
	"github.com/HerbHall/fleetdeck/internal/settings"
	"github.com/HerbHall/fleetdeck/internal/version"
	"github.com/HerbHall/fleetdeck/internal/ws"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), flags)
		},
	}
}

func runServe(ctx context.Context, flags *rootFlags) error {
	// Configuration comes first so log level/format can be configured.
	cfg, source, err := loadConfig(flags.configPath)
	if err != nil {
		return err
	}
	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("FleetDeck server starting", zap.String("version", version.Short()))
	if source != "" {
		logger.Info("configuration loaded",
			zap.String("component", "config"),
			zap.String("source", source),
		)
	} else {
		logger.Warn("no configuration file found, using defaults",
			zap.String("component", "config"),
		)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	// Subscribers attach before initialization so they observe the initial
	// theme and view selection.
	defer a.bus.SubscribeAll(event.DebugLogger(logger.Named("events")))()
	collector, err := metrics.NewCollector(prometheus.DefaultRegisterer, a.bus, func() int {
		return len(a.views.ListUserViews())
	})
	if err != nil {
		return err
	}
	defer collector.Close()

	wsHandler := ws.NewHandler(a.bus, logger.Named("ws"), cfg.Server.DevMode)
	defer wsHandler.Close()

	if err := a.initialize(ctx); err != nil {
		return err
	}
	logger.Info("settings initialized",
		zap.String("component", "settings"),
		zap.String("theme", string(a.themes.CurrentThemeID())),
		zap.String("view", a.views.CurrentViewID()),
	)

	settingsHandler := settings.NewHandler(a.themes, a.views, a.css, logger.Named("settings"))

	readyCheck := server.ReadinessChecker(a.settings.Ping)
	srv := server.New(cfg.Server.Addr(), logger, readyCheck, dashboard.Handler(),
		server.Options{DevMode: cfg.Server.DevMode, ReadOnly: cfg.Server.ReadOnly},
		settingsHandler, wsHandler,
	)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	logger.Info("FleetDeck server ready",
		zap.String("addr", cfg.Server.Addr()),
		zap.String("storage", cfg.Storage.Driver),
		zap.Bool("read_only", cfg.Server.ReadOnly),
	)
	fmt.Fprintf(os.Stderr, "\n  FleetDeck %s is ready!\n  Open http://localhost:%d in your browser.\n\n", version.Short(), cfg.Server.Port)

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		logger.Info("received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}

	logger.Info("FleetDeck server stopped")
	return nil
}
