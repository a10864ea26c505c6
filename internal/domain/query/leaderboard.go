package query

import (
	"context"
	"fmt"
	"sort"
)

// Leaderboard metrics.
const (
	MetricTotalPlays     = "totalPlays"
	MetricPlayRate       = "playRate"
	MetricAcceleration   = "acceleration"
	MetricFastestToFifty = "fastestToFifty"
	MetricAlbumCount     = "albumCount"
)

// Page is one stable window of a sorted leaderboard.
type Page struct {
	Artists []ArtistEntry `json:"artists"`
	Total   int           `json:"total"`
	Offset  int           `json:"offset"`
	Limit   int           `json:"limit"`
}

// Leaderboard sorts the full artist set by metric and returns the window
// [offset, offset+limit). The deterministic name tie-break makes repeated
// pagination over an unchanged store reproduce one consistent sequence with
// no duplicated or skipped rows.
func (e *Engine) Leaderboard(ctx context.Context, metric string, limit, offset int) (*Page, error) {
	var less lessFunc
	switch metric {
	case MetricTotalPlays:
		less = byTotalPlaysDesc
	case MetricPlayRate:
		less = byPlayRateDesc
	case MetricAcceleration:
		less = byAccelerationDesc
	case MetricFastestToFifty:
		// Ascending; artists that never reached 50 sort last.
		less = byFastestToFiftyAsc
	case MetricAlbumCount:
		less = byAlbumCountDesc
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMetric, metric)
	}
	if limit < 1 {
		return nil, fmt.Errorf("%w: limit must be positive", ErrInvalidPage)
	}
	if offset < 0 {
		return nil, fmt.Errorf("%w: offset must not be negative", ErrInvalidPage)
	}

	tracked := e.store.All(ctx)
	entries := make([]ArtistEntry, 0, len(tracked))
	for _, t := range tracked {
		entries = append(entries, entryFor(t.Key, t.Progress))
	}
	sort.Slice(entries, func(i, j int) bool { return less(entries[i], entries[j]) })

	total := len(entries)
	start := offset
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	window := make([]ArtistEntry, end-start)
	copy(window, entries[start:end])
	for i := range window {
		window[i].Rank = start + i + 1
	}

	return &Page{Artists: window, Total: total, Offset: offset, Limit: limit}, nil
}
