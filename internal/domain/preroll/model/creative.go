// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package model holds the pre-roll ad domain types: creatives, playback
// sessions, engagement events and the session state vocabulary.
package model

import (
	"errors"
	"fmt"
	"time"
)

// DefaultCategory is used when the viewer's content has no category.
const DefaultCategory = "general"

// AdCreative is one advertisement unit. It is immutable once bound to a session.
type AdCreative struct {
	ID                string
	Title             string
	Description       string
	MediaURL          string
	Duration          time.Duration
	SkipEligibleAfter time.Duration
	CTAVisibleAfter   time.Duration
	CTALabel          string
	CTAURL            string
	Advertiser        string
	IsFallback        bool
}

var ErrInvalidCreative = errors.New("invalid creative")

// Validate reports whether the creative can be played.
func (c AdCreative) Validate() error {
	switch {
	case c.ID == "":
		return fmt.Errorf("%w: missing id", ErrInvalidCreative)
	case c.MediaURL == "":
		return fmt.Errorf("%w: missing media url", ErrInvalidCreative)
	case c.Duration <= 0:
		return fmt.Errorf("%w: non-positive duration %s", ErrInvalidCreative, c.Duration)
	case c.SkipEligibleAfter < 0 || c.CTAVisibleAfter < 0:
		return fmt.Errorf("%w: negative threshold", ErrInvalidCreative)
	}
	return nil
}

const (
	fallbackCreativeID = "fallback-shop-now"
	fallbackMediaURL   = "https://cdn.preroll.local/fallback/shop-now.mp4"
	fallbackCTAURL     = "https://shop.preroll.local/"
)

// FallbackCreative returns the static creative substituted whenever selection fails.
func FallbackCreative() AdCreative {
	return AdCreative{
		ID:                fallbackCreativeID,
		Title:             "Discover something new",
		Description:       "Fresh picks, curated for you.",
		MediaURL:          fallbackMediaURL,
		Duration:          30 * time.Second,
		SkipEligibleAfter: 5 * time.Second,
		CTAVisibleAfter:   2 * time.Second,
		CTALabel:          "Shop Now",
		CTAURL:            fallbackCTAURL,
		Advertiser:        "Sponsored",
		IsFallback:        true,
	}
}
