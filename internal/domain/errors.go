package domain

import "errors"

// Configuration errors. Callers should treat these as fatal: no partial output
// is written once one of them is returned.
var (
	ErrInvalidBounds     = errors.New("invalid bounding box")
	ErrInvalidResolution = errors.New("resolution must be positive")
	ErrInvalidFactor     = errors.New("downsample factor must be >= 1")
	ErrInvalidDays       = errors.New("number of days must be >= 1")
	ErrAxisMismatch      = errors.New("axis mismatch")
	ErrUnknownVariable   = errors.New("unknown variable")
)
