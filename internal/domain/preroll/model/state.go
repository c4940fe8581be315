// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package model

// State is the ad playback state of a session.
type State string

const (
	StateIdle        State = "IDLE"
	StateAdLoading   State = "AD_LOADING"
	StateAdLocked    State = "AD_LOCKED"
	StateAdSkippable State = "AD_SKIPPABLE"
	StateAdEnded     State = "AD_ENDED"
	StateHandoff     State = "HANDOFF"
	StateDiscarded   State = "DISCARDED"
)

// Rank orders states along the forward-only lifecycle.
func (s State) Rank() int {
	switch s {
	case StateIdle:
		return 0
	case StateAdLoading:
		return 1
	case StateAdLocked:
		return 2
	case StateAdSkippable:
		return 3
	case StateAdEnded:
		return 4
	case StateHandoff:
		return 5
	case StateDiscarded:
		return 6
	default:
		return -1
	}
}

// IsPlaying reports whether the ad is on screen.
func (s State) IsPlaying() bool {
	return s == StateAdLocked || s == StateAdSkippable
}

// IsTerminal reports whether no further transition is possible.
func (s State) IsTerminal() bool {
	return s == StateDiscarded
}

// Outcome is the terminal result recorded on a session.
type Outcome string

const (
	OutcomeNone      Outcome = "none"
	OutcomeCompleted Outcome = "completed"
	OutcomeSkipped   Outcome = "skipped"
)

// EndReason explains what ended the ad.
type EndReason string

const (
	EndNone       EndReason = ""
	EndSkip       EndReason = "skip"
	EndDuration   EndReason = "duration"
	EndMediaError EndReason = "media_error"
	EndTeardown   EndReason = "teardown"
)
