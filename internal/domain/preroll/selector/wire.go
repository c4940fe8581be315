// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package selector

import (
	"math"
	"time"

	"github.com/ManuGH/preroll/internal/domain/preroll/model"
)

type adResponse struct {
	Ad *adWire `json:"ad"`
}

// adWire is the ad source's creative payload. Times are in seconds.
type adWire struct {
	ID                string  `json:"id"`
	Title             string  `json:"title"`
	Description       string  `json:"description"`
	MediaURL          string  `json:"mediaUrl"`
	VideoURL          string  `json:"videoUrl"`
	Duration          float64 `json:"duration"`
	SkipEligibleAfter float64 `json:"skipEligibleAfter"`
	CTAVisibleAfter   float64 `json:"ctaVisibleAfter"`
	CTAText           string  `json:"ctaText"`
	CTAURL            string  `json:"ctaUrl"`
	Advertiser        string  `json:"advertiser"`
}

func (w *adWire) toModel() model.AdCreative {
	media := w.MediaURL
	if media == "" {
		media = w.VideoURL
	}
	return model.AdCreative{
		ID:                w.ID,
		Title:             w.Title,
		Description:       w.Description,
		MediaURL:          media,
		Duration:          seconds(w.Duration),
		SkipEligibleAfter: seconds(w.SkipEligibleAfter),
		CTAVisibleAfter:   seconds(w.CTAVisibleAfter),
		CTALabel:          w.CTAText,
		CTAURL:            w.CTAURL,
		Advertiser:        w.Advertiser,
		IsFallback:        false,
	}
}

// maxMillis is the largest millisecond count a Duration holds.
const maxMillis = math.MaxInt64 / int64(time.Millisecond)

// seconds converts wire seconds to a Duration rounded to the millisecond,
// saturating instead of overflowing.
func seconds(v float64) time.Duration {
	ms := math.Round(v * 1000)
	switch {
	case ms >= float64(maxMillis):
		return time.Duration(maxMillis) * time.Millisecond
	case ms <= -float64(maxMillis):
		return -time.Duration(maxMillis) * time.Millisecond
	}
	return time.Duration(ms) * time.Millisecond
}
