// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"time"

	"github.com/ManuGH/preroll/internal/domain/preroll/controller"
)

type creativeJSON struct {
	ID                string  `json:"id"`
	Title             string  `json:"title"`
	Description       string  `json:"description,omitempty"`
	MediaURL          string  `json:"mediaUrl"`
	Duration          float64 `json:"duration"`
	SkipEligibleAfter float64 `json:"skipEligibleAfter"`
	CTAVisibleAfter   float64 `json:"ctaVisibleAfter"`
	CTALabel          string  `json:"ctaText"`
	CTAURL            string  `json:"ctaUrl"`
	Advertiser        string  `json:"advertiser"`
	IsFallback        bool    `json:"isFallback"`
}

type resolutionJSON struct {
	SessionID string  `json:"sessionId"`
	AdID      string  `json:"adId"`
	Outcome   string  `json:"outcome"`
	Reason    string  `json:"reason"`
	WatchTime float64 `json:"watchTime"`
	Fallback  bool    `json:"fallback"`
	HandedOff bool    `json:"handedOff"`
}

type viewJSON struct {
	SessionID   string          `json:"sessionId,omitempty"`
	State       string          `json:"state"`
	Category    string          `json:"category,omitempty"`
	Creative    *creativeJSON   `json:"creative,omitempty"`
	SkipEnabled bool            `json:"skipEnabled"`
	CTAVisible  bool            `json:"ctaVisible"`
	Paused      bool            `json:"paused"`
	Elapsed     float64         `json:"elapsed"`
	Remaining   float64         `json:"remaining"`
	PausedFor   float64         `json:"pausedFor"`
	Last        *resolutionJSON `json:"lastResolution,omitempty"`
}

func seconds(d time.Duration) float64 { return d.Seconds() }

func toViewJSON(v controller.View) viewJSON {
	out := viewJSON{
		SessionID:   v.SessionID,
		State:       string(v.State),
		Category:    v.Category,
		SkipEnabled: v.SkipEnabled,
		CTAVisible:  v.CTAVisible,
		Paused:      v.Paused,
		Elapsed:     seconds(v.Elapsed),
		Remaining:   seconds(v.Remaining),
		PausedFor:   seconds(v.PausedFor),
	}
	if c := v.Creative; c != nil {
		out.Creative = &creativeJSON{
			ID:                c.ID,
			Title:             c.Title,
			Description:       c.Description,
			MediaURL:          c.MediaURL,
			Duration:          seconds(c.Duration),
			SkipEligibleAfter: seconds(c.SkipEligibleAfter),
			CTAVisibleAfter:   seconds(c.CTAVisibleAfter),
			CTALabel:          c.CTALabel,
			CTAURL:            c.CTAURL,
			Advertiser:        c.Advertiser,
			IsFallback:        c.IsFallback,
		}
	}
	if l := v.Last; l != nil {
		out.Last = &resolutionJSON{
			SessionID: l.SessionID,
			AdID:      l.AdID,
			Outcome:   string(l.Outcome),
			Reason:    string(l.Reason),
			WatchTime: seconds(l.WatchTime),
			Fallback:  l.Fallback,
			HandedOff: l.HandedOff,
		}
	}
	return out
}
