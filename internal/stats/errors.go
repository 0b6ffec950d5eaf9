package stats

import "codeberg.org/mutker/framescore/internal/errors"

const (
	// Configuration Errors
	ErrInvalidConfig     = errors.ErrInvalidConfig
	ErrNoCounterSource   = errors.ErrorCode("stats_no_counter_source")
	ErrInvalidWindowSize = errors.ErrorCode("stats_invalid_window_size")

	// Comparison Errors
	ErrNoBaseline = errors.ErrorCode("stats_no_baseline")

	// Display Errors
	ErrSurfaceMissing = errors.ErrorCode("stats_surface_missing")
	ErrSurfaceUpdate  = errors.ErrorCode("stats_surface_update_failed")
)
