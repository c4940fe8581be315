// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package api is the control surface: an HTTP API that lets a remote UI drive
// the pre-roll controller of each content-viewing surface.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ManuGH/preroll/internal/api/middleware"
	"github.com/ManuGH/preroll/internal/health"
	"github.com/ManuGH/preroll/internal/log"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Config configures the HTTP server.
type Config struct {
	ListenAddr      string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	RateLimitRPM    int
	TracingService  string

	// Health serves the probes; New registers the surface capacity check.
	Health *health.Manager
}

// Server serves the control surface API.
type Server struct {
	cfg      Config
	surfaces *Registry
	health   *health.Manager
	logger   zerolog.Logger
	router   chi.Router
}

// New wires the router.
func New(cfg Config, surfaces *Registry) *Server {
	hm := cfg.Health
	if hm == nil {
		hm = health.NewManager("")
	}
	hm.RegisterChecker(health.NewCapacityChecker("surfaces", health.StatusUnhealthy, surfaces.Usage))
	s := &Server{
		cfg:      cfg,
		surfaces: surfaces,
		health:   hm,
		logger:   log.WithComponent("api"),
	}
	s.router = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := middleware.NewRouter(middleware.StackConfig{
		EnableMetrics:  true,
		TracingService: s.cfg.TracingService,
		EnableLogging:  true,
		RateLimitRPM:   s.cfg.RateLimitRPM,
	})

	r.Get("/healthz", s.health.ServeHealth)
	r.Get("/readyz", s.health.ServeReady)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1/surfaces/{surface}", func(r chi.Router) {
		r.Get("/", s.handleGetSurface)
		r.Post("/session", s.handleStartSession)
		r.Delete("/session", s.handleTeardown)
		r.Post("/skip", s.handleSkip)
		r.Post("/cta", s.handleCTA)
		r.Post("/pause", s.handlePause)
		r.Post("/resume", s.handleResume)
		r.Post("/media-failed", s.handleMediaFailed)
		r.Post("/position", s.handlePosition)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeProblem(w, r, http.StatusNotFound, "system/not_found", "Not Found", "NOT_FOUND", "no such route")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeProblem(w, r, http.StatusMethodNotAllowed, "system/method_not_allowed", "Method Not Allowed", "METHOD_NOT_ALLOWED", "")
	})
	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s.router,
		ReadTimeout:       s.cfg.ReadTimeout,
		ReadHeaderTimeout: s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.cfg.ListenAddr).Msg("control surface listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.ShutdownTimeout)
	defer cancel()
	s.logger.Info().Msg("control surface shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
