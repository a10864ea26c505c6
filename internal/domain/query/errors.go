package query

import "errors"

// Sentinel kinds for query errors.
var (
	ErrUnknownMetric = errors.New("unknown leaderboard metric")
	ErrInvalidPage   = errors.New("invalid page parameters")
)
