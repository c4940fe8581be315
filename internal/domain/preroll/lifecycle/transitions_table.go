// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package lifecycle

import "github.com/ManuGH/preroll/internal/domain/preroll/model"

// Transition is a single allowed edge in the lifecycle state machine.
// Edges into AD_ENDED (and the loading teardown) carry the terminal outcome.
type Transition struct {
	From    model.State
	To      model.State
	Event   EventKind
	Outcome model.Outcome
	Reason  model.EndReason
}

var transitionsTable = []Transition{
	// Load path
	{From: model.StateIdle, To: model.StateAdLoading, Event: EvStartRequested},
	{From: model.StateAdLoading, To: model.StateAdLocked, Event: EvCreativeResolved},

	// Skip gate
	{From: model.StateAdLocked, To: model.StateAdSkippable, Event: EvSkipEligible},

	// Ad end
	{From: model.StateAdSkippable, To: model.StateAdEnded, Event: EvSkipRequested, Outcome: model.OutcomeSkipped, Reason: model.EndSkip},
	{From: model.StateAdLocked, To: model.StateAdEnded, Event: EvDurationReached, Outcome: model.OutcomeCompleted, Reason: model.EndDuration},
	{From: model.StateAdSkippable, To: model.StateAdEnded, Event: EvDurationReached, Outcome: model.OutcomeCompleted, Reason: model.EndDuration},
	{From: model.StateAdLocked, To: model.StateAdEnded, Event: EvMediaFailed, Outcome: model.OutcomeCompleted, Reason: model.EndMediaError},
	{From: model.StateAdSkippable, To: model.StateAdEnded, Event: EvMediaFailed, Outcome: model.OutcomeCompleted, Reason: model.EndMediaError},

	// Premature teardown counts as an implicit skip once an ad is on screen.
	{From: model.StateAdLocked, To: model.StateAdEnded, Event: EvTeardown, Outcome: model.OutcomeSkipped, Reason: model.EndTeardown},
	{From: model.StateAdSkippable, To: model.StateAdEnded, Event: EvTeardown, Outcome: model.OutcomeSkipped, Reason: model.EndTeardown},
	{From: model.StateAdLoading, To: model.StateDiscarded, Event: EvTeardown, Reason: model.EndTeardown},

	// Handoff and release
	{From: model.StateAdEnded, To: model.StateHandoff, Event: EvHandoff},
	{From: model.StateAdEnded, To: model.StateDiscarded, Event: EvRelease},
	{From: model.StateHandoff, To: model.StateDiscarded, Event: EvRelease},
}

// TransitionFor returns the allowed transition for a given state+event.
func TransitionFor(from model.State, ev EventKind) (Transition, bool) {
	for _, tr := range transitionsTable {
		if tr.From == from && tr.Event == ev {
			return tr, true
		}
	}
	return Transition{}, false
}
