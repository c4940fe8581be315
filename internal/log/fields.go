// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldSessionID     = "session_id"
	FieldSurfaceID     = "surface_id"
	FieldCorrelationID = "correlation_id"
	FieldRequestID     = "request_id"
	FieldAdID          = "ad_id"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"

	// Playback fields
	FieldCategory   = "category"
	FieldFallback   = "fallback"
	FieldElapsed    = "elapsed_s"
	FieldWatchTime  = "watch_time_s"
	FieldWasSkipped = "was_skipped"
	FieldReason     = "reason"

	// State fields
	FieldOldState = "old_state"
	FieldNewState = "new_state"

	// Network fields
	FieldURL    = "url"
	FieldStatus = "status"
)
