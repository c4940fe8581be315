// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package model

import (
	"time"
)

// Session is one ad-then-content viewing attempt.
// It is owned by a single controller and never shared.
type Session struct {
	ID        string
	Category  string
	Creative  AdCreative
	State     State
	CreatedAt time.Time
	UpdatedAt time.Time

	Elapsed    time.Duration
	PausedFor  time.Duration
	CTAVisible bool

	Outcome   Outcome
	EndReason EndReason
	WatchTime time.Duration

	viewRecorded     bool
	terminalRecorded bool
}

// NewSession returns a session in StateIdle.
func NewSession(id, category string, now time.Time) *Session {
	if category == "" {
		category = DefaultCategory
	}
	return &Session{
		ID:        id,
		Category:  category,
		State:     StateIdle,
		CreatedAt: now,
		UpdatedAt: now,
		Outcome:   OutcomeNone,
	}
}

// SkipEnabled reports whether the skip control is active.
func (s *Session) SkipEnabled() bool {
	return s.State == StateAdSkippable
}

// Target returns the engagement target for this session.
func (s *Session) Target() Target {
	return Target{SessionID: s.ID, AdID: s.Creative.ID, Fallback: s.Creative.IsFallback}
}

// MarkViewRecorded flips the single-use view flag. It returns false if the
// view was already recorded.
func (s *Session) MarkViewRecorded() bool {
	if s.viewRecorded {
		return false
	}
	s.viewRecorded = true
	return true
}

// Terminate records the terminal outcome exactly once. It returns false when
// the session already has one, in which case nothing changes.
func (s *Session) Terminate(outcome Outcome, reason EndReason, watchTime time.Duration) bool {
	if s.terminalRecorded {
		return false
	}
	s.terminalRecorded = true
	s.Outcome = outcome
	s.EndReason = reason
	s.WatchTime = watchTime
	s.CTAVisible = false
	return true
}

// Terminated reports whether a terminal outcome has been recorded.
func (s *Session) Terminated() bool {
	return s.terminalRecorded
}
