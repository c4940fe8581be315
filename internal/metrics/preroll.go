// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	labelUnknown = "unknown"

	SelectionResolved = "resolved"
	SelectionFallback = "fallback"

	EngagementView     = "view"
	EngagementClick    = "click"
	EngagementComplete = "complete"

	EngagementSent       = "sent"
	EngagementFailed     = "failed"
	EngagementSuppressed = "suppressed"
	EngagementDropped    = "dropped"

	OutcomeCompleted = "completed"
	OutcomeSkipped   = "skipped"
)

var selectionReasons = map[string]struct{}{
	"none":         {},
	"transport":    {},
	"status":       {},
	"decode":       {},
	"absent":       {},
	"invalid":      {},
	"circuit_open": {},
	"canceled":     {},
}

var terminalReasons = map[string]struct{}{
	"skip":        {},
	"duration":    {},
	"media_error": {},
	"teardown":    {},
}

var (
	adSelectionTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "preroll_ad_selection_total",
		Help: "Ad creative selections by outcome (resolved/fallback) and fallback reason",
	}, []string{"outcome", "reason"})

	engagementEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "preroll_engagement_events_total",
		Help: "Engagement analytics events by kind and dispatch outcome",
	}, []string{"kind", "outcome"})

	sessionTerminalTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "preroll_session_terminal_total",
		Help: "Ad sessions reaching a terminal outcome by outcome and reason",
	}, []string{"outcome", "reason"})

	adWatchSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "preroll_ad_watch_seconds",
		Help:    "Ad watch time at terminal transition",
		Buckets: []float64{1, 2, 3, 5, 8, 10, 15, 20, 30, 45, 60},
	}, []string{"outcome"})

	sessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "preroll_sessions_active",
		Help: "Ad sessions currently between loading and handoff",
	})

	handoffTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "preroll_handoff_total",
		Help: "Handoffs to the primary content player",
	})

	ignoredActionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "preroll_ignored_actions_total",
		Help: "UI actions ignored because they were invalid in the current state",
	}, []string{"action"})
)

// IncAdSelection counts one creative selection.
func IncAdSelection(outcome, reason string) {
	if outcome != SelectionResolved && outcome != SelectionFallback {
		outcome = labelUnknown
	}
	adSelectionTotal.WithLabelValues(outcome, normalize(reason, selectionReasons)).Inc()
}

// IncEngagement counts one engagement event dispatch outcome.
func IncEngagement(kind, outcome string) {
	switch kind {
	case EngagementView, EngagementClick, EngagementComplete:
	default:
		kind = labelUnknown
	}
	switch outcome {
	case EngagementSent, EngagementFailed, EngagementSuppressed, EngagementDropped:
	default:
		outcome = labelUnknown
	}
	engagementEventsTotal.WithLabelValues(kind, outcome).Inc()
}

// ObserveSessionTerminal records the terminal outcome and watch time of a session.
func ObserveSessionTerminal(outcome, reason string, watchSeconds float64) {
	if outcome != OutcomeCompleted && outcome != OutcomeSkipped {
		outcome = labelUnknown
	}
	sessionTerminalTotal.WithLabelValues(outcome, normalize(reason, terminalReasons)).Inc()
	adWatchSeconds.WithLabelValues(outcome).Observe(watchSeconds)
}

// SessionStarted marks a session as active.
func SessionStarted() { sessionsActive.Inc() }

// SessionReleased marks a session as discarded.
func SessionReleased() { sessionsActive.Dec() }

// IncHandoff counts one handoff to primary content.
func IncHandoff() { handoffTotal.Inc() }

// IncIgnoredAction counts a UI action that was a no-op in the current state.
func IncIgnoredAction(action string) {
	ignoredActionsTotal.WithLabelValues(strings.ToLower(strings.TrimSpace(action))).Inc()
}

func normalize(v string, allowed map[string]struct{}) string {
	v = strings.ToLower(strings.TrimSpace(v))
	if _, ok := allowed[v]; ok {
		return v
	}
	return labelUnknown
}
