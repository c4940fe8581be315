// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package controller orchestrates one pre-roll viewing attempt at a time:
// creative selection, timed skip and CTA gating, engagement analytics and
// the single handoff to primary content.
//
// Every operation and every clock tick is serialized behind one mutex.
// Callbacks run after the mutex is released, so they may call back into the
// controller.
package controller

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ManuGH/preroll/internal/domain/preroll/clock"
	"github.com/ManuGH/preroll/internal/domain/preroll/lifecycle"
	"github.com/ManuGH/preroll/internal/domain/preroll/model"
	"github.com/ManuGH/preroll/internal/log"
	"github.com/ManuGH/preroll/internal/metrics"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	// ErrSessionActive is returned by StartSession while another session is
	// between loading and handoff.
	ErrSessionActive = errors.New("ad session already active")
	// ErrSessionAborted is returned by StartSession when the session was torn
	// down before its creative resolved.
	ErrSessionAborted = errors.New("ad session torn down while loading")
)

// Selector resolves the creative for a session. It never fails.
type Selector interface {
	SelectCreative(ctx context.Context, category string) model.AdCreative
}

// Tracker receives engagement events. Calls must not block.
type Tracker interface {
	RecordView(target model.Target)
	RecordClick(target model.Target, clickType string)
	RecordCompletion(target model.Target, watchTime float64, wasSkipped bool)
}

// Resolution describes how a session ended.
type Resolution struct {
	SessionID string
	AdID      string
	Outcome   model.Outcome
	Reason    model.EndReason
	WatchTime time.Duration
	Fallback  bool
	// HandedOff is false for teardown, which never reaches primary content.
	HandedOff bool
}

// Config wires a Controller.
type Config struct {
	Selector Selector
	Tracker  Tracker

	TickInterval time.Duration
	NewTicker    clock.TickerFactory
	Now          func() time.Time
	NewID        func() string

	// OnAdSessionResolved is invoked once per viewing attempt that reaches
	// handoff. Primary content starts from zero.
	OnAdSessionResolved func(Resolution)
	// OnOpenCTA opens the CTA target of the playing creative.
	OnOpenCTA func(url string)
	// OnViewChange observes every state, elapsed or visibility change.
	OnViewChange func(View)

	Logger *zerolog.Logger
}

// Controller is the playback state machine of one content-viewing surface.
type Controller struct {
	cfg    Config
	logger zerolog.Logger

	mu         sync.Mutex
	sess       *model.Session
	clk        *clock.Clock
	cancelLoad context.CancelFunc
	last       *Resolution
}

// New returns an idle controller.
func New(cfg Config) *Controller {
	if cfg.Selector == nil {
		panic("controller: selector is required")
	}
	if cfg.Tracker == nil {
		panic("controller: tracker is required")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.NewID == nil {
		cfg.NewID = func() string { return uuid.NewString() }
	}
	logger := log.WithComponent("controller")
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}
	return &Controller{cfg: cfg, logger: logger}
}

type effects []func()

func (fx effects) run() {
	for _, f := range fx {
		f()
	}
}

// StartSession selects a creative and starts ad playback. It blocks while the
// selector resolves and returns the new session id.
func (c *Controller) StartSession(ctx context.Context, category string) (string, error) {
	c.mu.Lock()
	if c.sess != nil {
		c.mu.Unlock()
		metrics.IncIgnoredAction("start")
		return "", ErrSessionActive
	}
	now := c.cfg.Now()
	sess := model.NewSession(c.cfg.NewID(), category, now)
	if _, err := lifecycle.Dispatch(sess, lifecycle.EvStartRequested, now); err != nil {
		c.mu.Unlock()
		return "", err
	}
	loadCtx, cancel := context.WithCancel(ctx)
	c.sess = sess
	c.cancelLoad = cancel
	metrics.SessionStarted()
	fx := c.viewChangedLocked(nil)
	c.mu.Unlock()
	fx.run()

	creative := c.cfg.Selector.SelectCreative(loadCtx, sess.Category)
	cancel()

	c.mu.Lock()
	if c.sess != sess {
		c.mu.Unlock()
		return "", ErrSessionAborted
	}
	c.cancelLoad = nil
	if err := ctx.Err(); err != nil {
		fx = c.discardLoadingLocked()
		c.mu.Unlock()
		fx.run()
		return "", err
	}

	sess.Creative = creative
	if _, err := lifecycle.Dispatch(sess, lifecycle.EvCreativeResolved, c.cfg.Now()); err != nil {
		c.mu.Unlock()
		return "", err
	}
	// The fallback creative gets no view; its terminal event is still emitted.
	if sess.MarkViewRecorded() && !creative.IsFallback {
		c.cfg.Tracker.RecordView(sess.Target())
	}

	var clk *clock.Clock
	clk = clock.New(clock.Config{
		Duration:          creative.Duration,
		SkipEligibleAfter: creative.SkipEligibleAfter,
		CTAVisibleAfter:   creative.CTAVisibleAfter,
		Interval:          c.cfg.TickInterval,
		NewTicker:         c.cfg.NewTicker,
		Now:               c.cfg.Now,
	}, func(t clock.Tick) { c.onTick(clk, t) })
	c.clk = clk

	c.logger.Info().
		Str(log.FieldEvent, "preroll.session_started").
		Str(log.FieldSessionID, sess.ID).
		Str(log.FieldCategory, sess.Category).
		Str(log.FieldAdID, creative.ID).
		Bool(log.FieldFallback, creative.IsFallback).
		Msg("ad playback started")

	fx = c.applyTickLocked(clk.Start())
	c.mu.Unlock()
	fx.run()
	return sess.ID, nil
}

// Skip ends the ad as skipped. It is a silent no-op unless skip is enabled.
func (c *Controller) Skip() bool {
	return c.end("skip", lifecycle.EvSkipRequested)
}

// MediaFailed ends the ad as if its duration was reached and hands off.
func (c *Controller) MediaFailed() bool {
	return c.end("media_failed", lifecycle.EvMediaFailed)
}

func (c *Controller) end(action string, ev lifecycle.EventKind) bool {
	c.mu.Lock()
	state := model.StateIdle
	if c.sess != nil {
		state = c.sess.State
	}
	if c.clk == nil {
		c.mu.Unlock()
		c.ignored(action, state)
		return false
	}
	fx, ok := c.endLocked(ev)
	c.mu.Unlock()
	if !ok {
		c.ignored(action, state)
		return false
	}
	fx.run()
	return true
}

// ClickCTAShopNow records a CTA click and opens the creative's target. The ad
// keeps playing. It is a no-op while the CTA is hidden.
func (c *Controller) ClickCTAShopNow() bool {
	c.mu.Lock()
	s := c.sess
	if s == nil || !s.State.IsPlaying() || !s.CTAVisible {
		state := model.StateIdle
		if s != nil {
			state = s.State
		}
		c.mu.Unlock()
		c.ignored("cta", state)
		return false
	}
	c.cfg.Tracker.RecordClick(s.Target(), model.ClickShopNow)
	target := s.Creative.CTAURL
	var fx effects
	if cb := c.cfg.OnOpenCTA; cb != nil && target != "" {
		fx = append(fx, func() { cb(target) })
	}
	c.mu.Unlock()

	c.logger.Info().
		Str(log.FieldEvent, "preroll.cta_clicked").
		Str(log.FieldSessionID, s.ID).
		Str(log.FieldURL, target).
		Msg("cta opened")
	fx.run()
	return true
}

// Pause suspends ad playback. Repeated calls are no-ops.
func (c *Controller) Pause() bool {
	return c.togglePause("pause", (*clock.Clock).Pause)
}

// Resume continues ad playback without a time jump.
func (c *Controller) Resume() bool {
	return c.togglePause("resume", (*clock.Clock).Resume)
}

func (c *Controller) togglePause(action string, op func(*clock.Clock) bool) bool {
	c.mu.Lock()
	if c.sess == nil || c.clk == nil || !c.sess.State.IsPlaying() || !op(c.clk) {
		c.mu.Unlock()
		metrics.IncIgnoredAction(action)
		return false
	}
	c.sess.PausedFor = c.clk.PausedFor()
	fx := c.viewChangedLocked(nil)
	c.mu.Unlock()
	fx.run()
	return true
}

// ReportMediaPosition moves ad time forward to the media element's clock.
func (c *Controller) ReportMediaPosition(position time.Duration) bool {
	c.mu.Lock()
	clk := c.clk
	c.mu.Unlock()
	if clk == nil {
		return false
	}
	_, ok := clk.Sync(position)
	return ok
}

// Teardown abandons the current session. Mid-ad it emits one terminal event
// with the partial watch time, flagged skipped, and does not hand off. While
// loading it cancels selection and emits nothing.
func (c *Controller) Teardown() bool {
	c.mu.Lock()
	s := c.sess
	if s == nil {
		c.mu.Unlock()
		return false
	}
	var (
		fx effects
		ok bool
	)
	if s.State == model.StateAdLoading {
		if c.cancelLoad != nil {
			c.cancelLoad()
			c.cancelLoad = nil
		}
		fx, ok = c.discardLoadingLocked(), true
	} else {
		fx, ok = c.endLocked(lifecycle.EvTeardown)
	}
	c.mu.Unlock()
	fx.run()
	return ok
}

func (c *Controller) onTick(clk *clock.Clock, t clock.Tick) {
	c.mu.Lock()
	if c.clk != clk || c.sess == nil {
		c.mu.Unlock()
		return
	}
	fx := c.applyTickLocked(t)
	c.mu.Unlock()
	fx.run()
}

func (c *Controller) applyTickLocked(t clock.Tick) effects {
	s := c.sess
	if t.Elapsed > s.Elapsed {
		s.Elapsed = t.Elapsed
	}
	for _, th := range t.Crossed {
		switch th {
		case clock.CTABecameVisible:
			if s.State.IsPlaying() {
				s.CTAVisible = true
			}
		case clock.SkipBecameEligible:
			if _, err := lifecycle.Dispatch(s, lifecycle.EvSkipEligible, c.cfg.Now()); err == nil {
				c.logger.Debug().
					Str(log.FieldSessionID, s.ID).
					Dur(log.FieldElapsed, s.Elapsed).
					Msg("skip enabled")
			}
		case clock.DurationReached:
			fx, _ := c.endLocked(lifecycle.EvDurationReached)
			return fx
		}
	}
	return c.viewChangedLocked(nil)
}

// endLocked takes the session through its terminal edge, records the
// completion exactly once and releases it. Teardown skips the handoff.
func (c *Controller) endLocked(ev lifecycle.EventKind) (effects, bool) {
	s := c.sess
	if e := c.clk.Elapsed(); e > s.Elapsed {
		s.Elapsed = e
	}
	now := c.cfg.Now()
	from := s.State
	if _, err := lifecycle.Dispatch(s, ev, now); err != nil {
		c.logger.Debug().Err(err).Str(log.FieldSessionID, s.ID).Msg("transition ignored")
		return nil, false
	}

	c.cfg.Tracker.RecordCompletion(s.Target(), s.WatchTime.Seconds(), s.Outcome == model.OutcomeSkipped)
	s.PausedFor = c.clk.PausedFor()
	c.clk.Cancel()
	metrics.ObserveSessionTerminal(string(s.Outcome), string(s.EndReason), s.WatchTime.Seconds())

	res := Resolution{
		SessionID: s.ID,
		AdID:      s.Creative.ID,
		Outcome:   s.Outcome,
		Reason:    s.EndReason,
		WatchTime: s.WatchTime,
		Fallback:  s.Creative.IsFallback,
	}
	fx := c.viewChangedLocked(nil)

	if ev != lifecycle.EvTeardown {
		if _, err := lifecycle.Dispatch(s, lifecycle.EvHandoff, now); err == nil {
			res.HandedOff = true
			metrics.IncHandoff()
			if cb := c.cfg.OnAdSessionResolved; cb != nil {
				fx = append(fx, func() { cb(res) })
			}
		}
	}
	_, _ = lifecycle.Dispatch(s, lifecycle.EvRelease, now)

	c.logger.Info().
		Str(log.FieldEvent, "preroll.session_ended").
		Str(log.FieldSessionID, s.ID).
		Str(log.FieldAdID, s.Creative.ID).
		Str(log.FieldOldState, string(from)).
		Str(log.FieldReason, string(s.EndReason)).
		Bool(log.FieldWasSkipped, s.Outcome == model.OutcomeSkipped).
		Float64(log.FieldWatchTime, s.WatchTime.Seconds()).
		Bool("handoff", res.HandedOff).
		Msg("ad session resolved")

	c.last = &res
	c.sess = nil
	c.clk = nil
	metrics.SessionReleased()
	return c.viewChangedLocked(fx), true
}

func (c *Controller) discardLoadingLocked() effects {
	s := c.sess
	_, _ = lifecycle.Dispatch(s, lifecycle.EvTeardown, c.cfg.Now())
	c.logger.Info().
		Str(log.FieldEvent, "preroll.session_discarded").
		Str(log.FieldSessionID, s.ID).
		Msg("ad session discarded before creative resolved")
	c.sess = nil
	metrics.SessionReleased()
	return c.viewChangedLocked(nil)
}

func (c *Controller) viewChangedLocked(fx effects) effects {
	if cb := c.cfg.OnViewChange; cb != nil {
		v := c.viewLocked()
		fx = append(fx, func() { cb(v) })
	}
	return fx
}

func (c *Controller) ignored(action string, state model.State) {
	metrics.IncIgnoredAction(action)
	c.logger.Debug().
		Str("action", action).
		Str(log.FieldOldState, string(state)).
		Msg("action ignored in current state")
}
