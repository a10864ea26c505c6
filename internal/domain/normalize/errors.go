package normalize

import "errors"

// Sentinel kinds for normalization errors.
var (
	ErrInvalidEvent = errors.New("invalid play event")
)
