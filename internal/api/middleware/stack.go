// SPDX-License-Identifier: MIT

// Package middleware holds the HTTP ingress stack of the control surface.
package middleware

import (
	"time"

	"github.com/ManuGH/preroll/internal/log"
	"github.com/go-chi/chi/v5"
)

// StackConfig selects the cross-cutting concerns applied to every route.
type StackConfig struct {
	EnableMetrics  bool
	TracingService string // empty disables tracing
	EnableLogging  bool

	// RateLimitRPM is the per-client budget per minute; zero disables limiting.
	RateLimitRPM int
}

// NewRouter constructs a chi router with the stack applied.
func NewRouter(cfg StackConfig) *chi.Mux {
	r := chi.NewRouter()
	ApplyStack(r, cfg)
	return r
}

// ApplyStack applies the stack to r, outermost first.
func ApplyStack(r chi.Router, cfg StackConfig) {
	r.Use(Recoverer)
	r.Use(RequestID)
	if cfg.EnableMetrics {
		r.Use(Metrics())
	}
	if cfg.TracingService != "" {
		r.Use(Tracing(cfg.TracingService))
	}
	if cfg.EnableLogging {
		r.Use(log.Middleware())
	}
	if cfg.RateLimitRPM > 0 {
		r.Use(RateLimit(RateLimitConfig{RequestLimit: cfg.RateLimitRPM, WindowSize: time.Minute}))
	}
}
