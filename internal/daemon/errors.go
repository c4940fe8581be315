// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package daemon

import "errors"

var (
	// ErrMissingServer is returned when an App runs without an API server.
	ErrMissingServer = errors.New("API server is required")

	// ErrMissingTracker is returned when an App runs without an engagement tracker.
	ErrMissingTracker = errors.New("engagement tracker is required")
)
