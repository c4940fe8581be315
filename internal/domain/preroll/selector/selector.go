// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package selector resolves the creative for a pre-roll slot. It degrades to
// the static fallback creative instead of failing.
package selector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ManuGH/preroll/internal/domain/preroll/model"
	"github.com/ManuGH/preroll/internal/log"
	"github.com/ManuGH/preroll/internal/metrics"
	"github.com/ManuGH/preroll/internal/platform/httpx"
	"github.com/ManuGH/preroll/internal/resilience"
	"github.com/ManuGH/preroll/internal/telemetry"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/codes"
)

const maxResponseBytes = 1 << 20

var (
	ErrNoCreative  = errors.New("ad source returned no creative")
	ErrBadStatus   = errors.New("ad source returned non-2xx status")
	ErrMalformed   = errors.New("malformed ad source response")
	ErrUnavailable = errors.New("ad source unavailable")
)

// Config configures an HTTP-backed selector.
type Config struct {
	BaseURL  string
	Platform string
	Client   *http.Client
	Breaker  *resilience.CircuitBreaker
	Logger   *zerolog.Logger
}

// HTTPSelector fetches creatives from GET {base}/ads/{platform}?category=.
type HTTPSelector struct {
	baseURL  string
	platform string
	client   *http.Client
	breaker  *resilience.CircuitBreaker
	logger   zerolog.Logger
}

// New builds a selector. Missing client/breaker get package defaults.
func New(cfg Config) *HTTPSelector {
	client := cfg.Client
	if client == nil {
		client = httpx.NewClient(0)
	}
	breaker := cfg.Breaker
	if breaker == nil {
		breaker = resilience.NewCircuitBreaker("ad_source", 3, 30*time.Second)
	}
	logger := log.WithComponent("selector")
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}
	platform := strings.TrimSpace(cfg.Platform)
	if platform == "" {
		platform = "web"
	}
	return &HTTPSelector{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		platform: platform,
		client:   client,
		breaker:  breaker,
		logger:   logger,
	}
}

// SelectCreative returns the creative for category. It makes at most one
// network attempt and never fails: every error yields the fallback creative.
func (s *HTTPSelector) SelectCreative(ctx context.Context, category string) model.AdCreative {
	category = strings.TrimSpace(category)
	if category == "" {
		category = model.DefaultCategory
	}

	ctx, span := telemetry.Tracer("preroll/selector").Start(ctx, "ads.select")
	defer span.End()

	var creative model.AdCreative
	err := s.breaker.Execute(func() error {
		c, err := s.resolve(ctx, category)
		if err != nil && ctx.Err() != nil {
			// The caller gave up; that says nothing about the ad source.
			return resilience.Neutral(err)
		}
		if err != nil {
			return err
		}
		creative = c
		return nil
	})

	if err != nil {
		reason := fallbackReason(err)
		creative = model.FallbackCreative()
		logger := log.WithContext(ctx, s.logger)
		logger.Warn().
			Err(err).
			Str(log.FieldEvent, "ads.selection_degraded").
			Str(log.FieldCategory, category).
			Str(log.FieldReason, reason).
			Msg("ad selection failed, using fallback creative")
		metrics.IncAdSelection(metrics.SelectionFallback, reason)
		span.SetAttributes(telemetry.SelectionAttributes(s.platform, category, creative.ID, true)...)
		span.SetStatus(codes.Error, reason)
		return creative
	}

	logger := log.WithContext(ctx, s.logger)
	logger.Debug().
		Str(log.FieldEvent, "ads.selected").
		Str(log.FieldCategory, category).
		Str(log.FieldAdID, creative.ID).
		Msg("ad creative resolved")
	metrics.IncAdSelection(metrics.SelectionResolved, "none")
	span.SetAttributes(telemetry.SelectionAttributes(s.platform, category, creative.ID, false)...)
	return creative
}

func (s *HTTPSelector) resolve(ctx context.Context, category string) (model.AdCreative, error) {
	endpoint := fmt.Sprintf("%s/ads/%s?%s", s.baseURL, url.PathEscape(s.platform), url.Values{"category": {category}}.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return model.AdCreative{}, fmt.Errorf("%w: build request: %v", ErrUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return model.AdCreative{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return model.AdCreative{}, fmt.Errorf("%w: %d", ErrBadStatus, resp.StatusCode)
	}

	var body adResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&body); err != nil {
		return model.AdCreative{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if body.Ad == nil {
		return model.AdCreative{}, ErrNoCreative
	}

	creative := body.Ad.toModel()
	if err := creative.Validate(); err != nil {
		return model.AdCreative{}, err
	}
	return creative, nil
}

func fallbackReason(err error) string {
	switch {
	case errors.Is(err, resilience.ErrCircuitOpen):
		return "circuit_open"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case errors.Is(err, ErrNoCreative):
		return "absent"
	case errors.Is(err, model.ErrInvalidCreative):
		return "invalid"
	case errors.Is(err, ErrMalformed):
		return "decode"
	case errors.Is(err, ErrBadStatus):
		return "status"
	default:
		return "transport"
	}
}
