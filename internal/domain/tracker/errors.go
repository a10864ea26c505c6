package tracker

import "errors"

// Sentinel kinds for progress-store errors.
var (
	ErrNotFound          = errors.New("artist not found")
	ErrUnnormalizedEvent = errors.New("unnormalized event")
)
