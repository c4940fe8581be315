// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package controller

import (
	"time"

	"github.com/ManuGH/preroll/internal/domain/preroll/model"
)

// View is the UI-observable snapshot of a controller.
type View struct {
	SessionID   string
	State       model.State
	Category    string
	Creative    *model.AdCreative
	SkipEnabled bool
	CTAVisible  bool
	Paused      bool
	Elapsed     time.Duration
	Remaining   time.Duration
	PausedFor   time.Duration

	// Last is the resolution of the most recent session, if any.
	Last *Resolution
}

// View returns the current snapshot.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

func (c *Controller) viewLocked() View {
	v := View{State: model.StateIdle}
	if c.last != nil {
		last := *c.last
		v.Last = &last
	}
	s := c.sess
	if s == nil {
		return v
	}
	v.SessionID = s.ID
	v.State = s.State
	v.Category = s.Category
	if s.State == model.StateAdLoading {
		return v
	}
	creative := s.Creative
	v.Creative = &creative
	v.SkipEnabled = s.SkipEnabled()
	v.CTAVisible = s.CTAVisible && s.State.IsPlaying()
	v.Elapsed = s.Elapsed
	v.PausedFor = s.PausedFor
	if c.clk != nil {
		v.Paused = c.clk.Paused()
	}
	if rem := creative.Duration - s.Elapsed; rem > 0 {
		v.Remaining = rem
	}
	return v
}
