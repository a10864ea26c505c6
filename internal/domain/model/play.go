// Package model contains domain models passed between layers.
package model

// millisPerDay is the divisor for converting epoch-millisecond spans to days.
const millisPerDay = 86_400_000

// ArtistThresholds are the cumulative play counts that mint an artist
// milestone, visited strictly in order.
var ArtistThresholds = []int64{10, 25, 50, 100, 250, 500, 1000}

// AlbumThresholds are the cumulative play counts that mint an album milestone.
var AlbumThresholds = []int64{10, 25, 50, 100}

// PlayEvent is one recorded listen delivered by the controller integration.
// Artist and Timestamp are mandatory; everything else is best-effort metadata.
type PlayEvent struct {
	Artist    string `json:"artist"`
	Album     string `json:"album,omitempty"`
	Title     string `json:"title,omitempty"`
	Timestamp int64  `json:"timestamp"` // epoch milliseconds
	Duration  int64  `json:"duration,omitempty"`
}

// DaysSince returns the whole days elapsed from first to ts, floored at 1 so
// rate divisions stay defined for same-day crossings.
func DaysSince(first, ts int64) int64 {
	d := (ts - first) / millisPerDay
	if d < 1 {
		return 1
	}
	return d
}
