// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package daemon assembles and runs prerolld.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/preroll/internal/api"
	"github.com/ManuGH/preroll/internal/config"
	"github.com/ManuGH/preroll/internal/domain/preroll/controller"
	"github.com/ManuGH/preroll/internal/domain/preroll/engagement"
	"github.com/ManuGH/preroll/internal/domain/preroll/selector"
	"github.com/ManuGH/preroll/internal/health"
	"github.com/ManuGH/preroll/internal/log"
	"github.com/ManuGH/preroll/internal/platform/httpx"
	"github.com/ManuGH/preroll/internal/resilience"
	"github.com/ManuGH/preroll/internal/telemetry"
	"github.com/rs/zerolog"
)

const pruneInterval = time.Minute

// App owns the runtime: control surface, surface janitor, engagement
// dispatch and tracing.
type App struct {
	cfg       config.AppConfig
	logger    zerolog.Logger
	server    *api.Server
	surfaces  *api.Registry
	tracker   *engagement.Tracker
	telemetry *telemetry.Provider
}

// Build wires every component from cfg.
func Build(ctx context.Context, cfg config.AppConfig) (*App, error) {
	logger := log.WithComponent("daemon")

	provider, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "prerolld",
		ServiceVersion: cfg.Version,
		Environment:    cfg.Telemetry.Environment,
		ExporterType:   cfg.Telemetry.Exporter,
		Endpoint:       cfg.Telemetry.Endpoint,
		SamplingRate:   cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}

	breaker := resilience.NewCircuitBreaker("ad_source", cfg.AdSource.BreakerThreshold, cfg.AdSource.BreakerReset)
	sel := selector.New(selector.Config{
		BaseURL:  cfg.AdSource.BaseURL,
		Platform: cfg.AdSource.Platform,
		Client:   httpx.NewClient(cfg.AdSource.Timeout),
		Breaker:  breaker,
	})
	tracker := engagement.NewTracker(engagement.Config{
		BaseURL:       cfg.Analytics.BaseURL,
		Client:        httpx.NewClient(cfg.Analytics.Timeout),
		QueueSize:     cfg.Analytics.QueueSize,
		RatePerSecond: cfg.Analytics.RatePerSecond,
		Burst:         cfg.Analytics.Burst,
	})

	hm := health.NewManager(cfg.Version)
	hm.RegisterChecker(health.NewBreakerChecker("ad_source", breaker))
	hm.RegisterChecker(health.NewCapacityChecker("analytics_queue", health.StatusDegraded, tracker.Backlog))

	surfaces := api.NewRegistry(controller.Config{
		Selector:     sel,
		Tracker:      tracker,
		TickInterval: cfg.Playback.TickInterval,
	}, cfg.API.MaxSurfaces)

	tracingService := ""
	if cfg.Telemetry.Enabled {
		tracingService = "prerolld.api"
	}
	server := api.New(api.Config{
		ListenAddr:      cfg.API.ListenAddr,
		ReadTimeout:     cfg.API.ReadTimeout,
		WriteTimeout:    cfg.API.WriteTimeout,
		ShutdownTimeout: cfg.API.ShutdownTimeout,
		RateLimitRPM:    cfg.API.RateLimitRPM,
		TracingService:  tracingService,
		Health:          hm,
	}, surfaces)

	return &App{
		cfg:       cfg,
		logger:    logger,
		server:    server,
		surfaces:  surfaces,
		tracker:   tracker,
		telemetry: provider,
	}, nil
}

// Run serves until ctx is cancelled or the server fails, then tears down
// active sessions, drains analytics and flushes traces.
func (a *App) Run(ctx context.Context) error {
	if a.server == nil {
		return ErrMissingServer
	}
	if a.tracker == nil {
		return ErrMissingTracker
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.server.Run(gctx) })
	g.Go(func() error {
		a.pruneLoop(gctx)
		return nil
	})
	runErr := g.Wait()

	return errors.Join(runErr, a.shutdown())
}

func (a *App) pruneLoop(ctx context.Context) {
	t := time.NewTicker(pruneInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			a.surfaces.Prune(a.cfg.API.SurfaceIdleTTL)
		}
	}
}

func (a *App) shutdown() error {
	if n := a.surfaces.TeardownAll(); n > 0 {
		a.logger.Info().Str(log.FieldEvent, "daemon.sessions_abandoned").Int("count", n).Msg("tore down active ad sessions")
	}

	drainCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Analytics.DrainTimeout)
	defer cancel()
	if err := a.tracker.Close(drainCtx); err != nil {
		a.logger.Warn().Err(err).Str(log.FieldEvent, "engagement.drain_incomplete").Msg("analytics queue not fully drained")
	}
	if err := a.telemetry.Shutdown(context.Background()); err != nil {
		return fmt.Errorf("telemetry shutdown: %w", err)
	}
	return nil
}
