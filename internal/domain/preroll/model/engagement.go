// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package model

import "time"

// EventKind names an engagement analytics event.
type EventKind string

const (
	EventView     EventKind = "view"
	EventClick    EventKind = "click"
	EventComplete EventKind = "complete"
)

// ClickShopNow is the click type sent for the CTA button.
const ClickShopNow = "shop_now"

// Target identifies what an engagement event is attributed to.
type Target struct {
	SessionID string
	AdID      string
	Fallback  bool
}

// EngagementEvent is one analytics record tagged with its session.
type EngagementEvent struct {
	Kind       EventKind
	SessionID  string
	AdID       string
	ClickType  string
	WatchTime  float64
	WasSkipped bool
	At         time.Time
}
