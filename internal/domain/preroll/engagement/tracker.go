// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package engagement records ad view, click and completion analytics.
// Every call is fire-and-forget: failures are logged and counted, never
// retried and never returned to playback.
package engagement

import (
	"bytes"
	"context"
	"encoding/json"
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
	"github.com/ManuGH/preroll/internal/telemetry"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"
)

// Config configures a Tracker.
type Config struct {
	BaseURL   string
	Client    *http.Client
	QueueSize int

	// RatePerSecond caps outbound analytics calls; zero disables the cap.
	RatePerSecond float64
	Burst         int

	Logger *zerolog.Logger
	Now    func() time.Time
}

// Tracker posts engagement events to the analytics endpoints.
// It performs no deduplication; the controller owns idempotency.
type Tracker struct {
	baseURL    string
	client     *http.Client
	dispatcher *Dispatcher
	logger     zerolog.Logger
	now        func() time.Time
}

// NewTracker starts a tracker and its dispatch worker. Call Close to stop it.
func NewTracker(cfg Config) *Tracker {
	client := cfg.Client
	if client == nil {
		client = httpx.NewClient(0)
	}
	logger := log.WithComponent("engagement")
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	var limiter *rate.Limiter
	if cfg.RatePerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
	}
	return &Tracker{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  client,
		dispatcher: NewDispatcher(DispatcherConfig{
			QueueSize: cfg.QueueSize,
			Limiter:   limiter,
			Logger:    logger,
		}),
		logger: logger,
		now:    now,
	}
}

// RecordView records that the ad was shown.
func (t *Tracker) RecordView(target model.Target) {
	t.record(target, model.EngagementEvent{Kind: model.EventView})
}

// RecordClick records a click on the ad (e.g. the CTA).
func (t *Tracker) RecordClick(target model.Target, clickType string) {
	t.record(target, model.EngagementEvent{Kind: model.EventClick, ClickType: clickType})
}

// RecordCompletion records the session's terminal event.
func (t *Tracker) RecordCompletion(target model.Target, watchTime float64, wasSkipped bool) {
	t.record(target, model.EngagementEvent{Kind: model.EventComplete, WatchTime: watchTime, WasSkipped: wasSkipped})
}

// Close drains queued events until ctx is done.
func (t *Tracker) Close(ctx context.Context) error {
	return t.dispatcher.Close(ctx)
}

// Backlog reports events waiting for dispatch and the queue capacity.
func (t *Tracker) Backlog() (pending, capacity int) {
	return t.dispatcher.Backlog()
}

func (t *Tracker) record(target model.Target, ev model.EngagementEvent) {
	ev.SessionID = target.SessionID
	ev.AdID = target.AdID
	ev.At = t.now()
	kind := string(ev.Kind)

	if target.Fallback {
		metrics.IncEngagement(kind, metrics.EngagementSuppressed)
		t.logger.Debug().
			Str(log.FieldEvent, "engagement.suppressed").
			Str(log.FieldSessionID, ev.SessionID).
			Str("kind", kind).
			Msg("fallback creative, analytics suppressed")
		return
	}

	if !t.dispatcher.Submit(kind, func(ctx context.Context) error { return t.send(ctx, ev) }) {
		metrics.IncEngagement(kind, metrics.EngagementDropped)
		t.logger.Warn().
			Str(log.FieldEvent, "engagement.dropped").
			Str(log.FieldSessionID, ev.SessionID).
			Str(log.FieldAdID, ev.AdID).
			Str("kind", kind).
			Msg("engagement queue unavailable, event dropped")
	}
}

type viewBody struct {
	SessionID string `json:"sessionId"`
}

type clickBody struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId"`
}

type completeBody struct {
	WatchTime  float64 `json:"watchTime"`
	WasSkipped bool    `json:"wasSkipped"`
	SessionID  string  `json:"sessionId"`
}

func requestBody(ev model.EngagementEvent) any {
	switch ev.Kind {
	case model.EventClick:
		return clickBody{Type: ev.ClickType, SessionID: ev.SessionID}
	case model.EventComplete:
		return completeBody{WatchTime: ev.WatchTime, WasSkipped: ev.WasSkipped, SessionID: ev.SessionID}
	default:
		return viewBody{SessionID: ev.SessionID}
	}
}

func (t *Tracker) send(ctx context.Context, ev model.EngagementEvent) (err error) {
	kind := string(ev.Kind)
	ctx, span := telemetry.Tracer("preroll/engagement").Start(ctx, "ads.engagement."+kind)
	span.SetAttributes(telemetry.EngagementAttributes(kind, ev.AdID, ev.SessionID)...)
	defer func() {
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			metrics.IncEngagement(kind, metrics.EngagementFailed)
			t.logger.Warn().
				Err(err).
				Str(log.FieldEvent, "engagement.failed").
				Str(log.FieldSessionID, ev.SessionID).
				Str(log.FieldAdID, ev.AdID).
				Str("kind", kind).
				Msg("engagement call failed")
		} else {
			metrics.IncEngagement(kind, metrics.EngagementSent)
		}
		span.End()
	}()

	payload, err := json.Marshal(requestBody(ev))
	if err != nil {
		return fmt.Errorf("encode %s: %w", kind, err)
	}
	endpoint := fmt.Sprintf("%s/ads/%s/%s", t.baseURL, url.PathEscape(ev.AdID), kind)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build %s request: %w", kind, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Session-ID", ev.SessionID)

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", kind, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("post %s: unexpected status %d", kind, resp.StatusCode)
	}
	return nil
}
