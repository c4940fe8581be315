// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package lifecycle

import (
	"errors"
	"fmt"
	"time"

	"github.com/ManuGH/preroll/internal/domain/preroll/model"
)

// ErrIllegalTransition is returned for an event that is not valid in the
// current state. Callers driven by UI input treat it as a no-op.
var ErrIllegalTransition = errors.New("illegal transition")

// Dispatch applies ev to the session. Terminal edges record the outcome with
// the session's current elapsed time as watch time.
func Dispatch(s *model.Session, ev EventKind, now time.Time) (Transition, error) {
	if s.State.IsTerminal() {
		return Transition{}, illegal(s.State, ev)
	}
	tr, ok := TransitionFor(s.State, ev)
	if !ok {
		return Transition{}, illegal(s.State, ev)
	}

	s.State = tr.To
	s.UpdatedAt = now
	if tr.Outcome != "" {
		s.Terminate(tr.Outcome, tr.Reason, s.Elapsed)
	} else if tr.Reason != model.EndNone && s.EndReason == model.EndNone {
		s.EndReason = tr.Reason
	}
	return tr, nil
}

func illegal(from model.State, ev EventKind) error {
	return fmt.Errorf("%w: state=%s event=%s", ErrIllegalTransition, from, ev)
}
