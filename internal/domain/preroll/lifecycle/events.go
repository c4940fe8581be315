// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package lifecycle is the single source of truth for ad session transitions.
package lifecycle

// EventKind is a domain event in the ad session lifecycle.
type EventKind int

const (
	EvUnknown EventKind = iota
	EvStartRequested
	EvCreativeResolved
	EvSkipEligible
	EvSkipRequested
	EvDurationReached
	EvMediaFailed
	EvTeardown
	EvHandoff
	EvRelease
)

var eventNames = map[EventKind]string{
	EvUnknown:          "unknown",
	EvStartRequested:   "start_requested",
	EvCreativeResolved: "creative_resolved",
	EvSkipEligible:     "skip_eligible",
	EvSkipRequested:    "skip_requested",
	EvDurationReached:  "duration_reached",
	EvMediaFailed:      "media_failed",
	EvTeardown:         "teardown",
	EvHandoff:          "handoff",
	EvRelease:          "release",
}

func (e EventKind) String() string {
	if name, ok := eventNames[e]; ok {
		return name
	}
	return "unknown"
}
