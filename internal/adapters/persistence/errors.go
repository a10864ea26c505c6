package persistence

import "errors"

// Sentinel kinds for persistence errors.
var (
	ErrNoSnapshot     = errors.New("no snapshot stored")
	ErrUnknownBackend = errors.New("unknown persistence backend")
	ErrClosed         = errors.New("gateway closed")
)
