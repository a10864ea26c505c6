// Package query serves read-only views over the progress store: artist
// comparisons, album breakdowns, growth trajectories, paginated
// leaderboards, and the fixed award catalog. Nothing in this package
// mutates state.
package query

import (
	"context"
	"sort"
	"time"

	"github.com/jeffweisbein/roon-wrapped-sub000/internal/domain/model"
	"github.com/jeffweisbein/roon-wrapped-sub000/internal/domain/normalize"
	"github.com/jeffweisbein/roon-wrapped-sub000/internal/domain/tracker"
)

// Engine answers read queries against the current store snapshot.
type Engine struct {
	store tracker.Store
	now   func() time.Time
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithNow overrides the wall clock (pinned time in tests).
func WithNow(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// New creates a query engine over store.
func New(store tracker.Store, opts ...Option) *Engine {
	e := &Engine{store: store, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ArtistEntry is the read shape shared by comparisons and leaderboards.
type ArtistEntry struct {
	Rank           int     `json:"rank,omitempty"`
	Artist         string  `json:"artist"`
	TotalPlays     int64   `json:"total_plays"`
	PlayRate       float64 `json:"play_rate"`
	Acceleration   float64 `json:"acceleration"`
	DaysToFifty    *int64  `json:"days_to_fifty,omitempty"`
	AlbumCount     int     `json:"album_count"`
	MilestoneCount int     `json:"milestone_count"`
	FirstListen    int64   `json:"first_listen"`
}

func entryFor(key string, p *model.ArtistProgress) ArtistEntry {
	return ArtistEntry{
		Artist:         p.Name,
		TotalPlays:     p.TotalPlays,
		PlayRate:       p.Metrics.PlayRate,
		Acceleration:   p.Metrics.AccelerationRate,
		DaysToFifty:    p.Metrics.DaysToFiftyPlays,
		AlbumCount:     len(p.Albums),
		MilestoneCount: len(p.Milestones),
		FirstListen:    p.FirstListenDate,
	}
}

// Comparison carries the four parallel rankings over the requested artists.
type Comparison struct {
	ByTotalPlays     []ArtistEntry `json:"by_total_plays"`
	ByPlayRate       []ArtistEntry `json:"by_play_rate"`
	ByFastestToFifty []ArtistEntry `json:"by_fastest_to_fifty"`
	ByAcceleration   []ArtistEntry `json:"by_acceleration"`
}

// Compare ranks the named artists four ways. Unknown names are silently
// omitted from every ranking; they are not an error.
func (e *Engine) Compare(ctx context.Context, names []string) *Comparison {
	entries := make([]ArtistEntry, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		key := normalize.Key(name)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		if p, ok := e.store.Get(ctx, key); ok {
			entries = append(entries, entryFor(key, p))
		}
	}

	cmp := &Comparison{
		ByTotalPlays: sortedBy(entries, byTotalPlaysDesc),
		ByPlayRate:   sortedBy(entries, byPlayRateDesc),
	}

	// Artists that never reached 50 are excluded from this ranking only.
	reached := filter(entries, func(a ArtistEntry) bool { return a.DaysToFifty != nil })
	cmp.ByFastestToFifty = sortedBy(reached, byFastestToFiftyAsc)

	// Artists with no milestone history have no acceleration estimate yet
	// and are excluded from this ranking only.
	estimable := filter(entries, func(a ArtistEntry) bool { return a.MilestoneCount > 0 })
	cmp.ByAcceleration = sortedBy(estimable, byAccelerationDesc)

	return cmp
}

// AlbumEntry is the per-album read shape.
type AlbumEntry struct {
	Title      string  `json:"title"`
	TotalPlays int64   `json:"total_plays"`
	PlayRate   float64 `json:"play_rate"`
	DaysToTen  *int64  `json:"days_to_ten,omitempty"`
}

// AlbumComparison breaks one artist down by album.
type AlbumComparison struct {
	Artist          string       `json:"artist"`
	Albums          []AlbumEntry `json:"albums"`
	FastestToTen    *AlbumEntry  `json:"fastest_to_ten"`
	HighestPlayRate *AlbumEntry  `json:"highest_play_rate"`
}

// AlbumsFor returns the per-album breakdown for one artist, or nil for an
// unknown artist. An artist with no album metadata yields an empty list and
// nil highlights.
func (e *Engine) AlbumsFor(ctx context.Context, name string) *AlbumComparison {
	p, ok := e.store.Get(ctx, normalize.Key(name))
	if !ok {
		return nil
	}

	out := &AlbumComparison{Artist: p.Name, Albums: []AlbumEntry{}}
	for _, a := range p.Albums {
		out.Albums = append(out.Albums, AlbumEntry{
			Title:      a.Title,
			TotalPlays: a.TotalPlays,
			PlayRate:   a.Metrics.PlayRate,
			DaysToTen:  a.Metrics.DaysToTenPlays,
		})
	}
	sort.Slice(out.Albums, func(i, j int) bool {
		if out.Albums[i].TotalPlays != out.Albums[j].TotalPlays {
			return out.Albums[i].TotalPlays > out.Albums[j].TotalPlays
		}
		return out.Albums[i].Title < out.Albums[j].Title
	})

	for i := range out.Albums {
		a := out.Albums[i]
		if a.DaysToTen != nil &&
			(out.FastestToTen == nil || *a.DaysToTen < *out.FastestToTen.DaysToTen) {
			out.FastestToTen = &out.Albums[i]
		}
		if out.HighestPlayRate == nil || a.PlayRate > out.HighestPlayRate.PlayRate {
			out.HighestPlayRate = &out.Albums[i]
		}
	}
	return out
}

// TrajectoryPoint is one point on an artist's cumulative growth curve.
type TrajectoryPoint struct {
	Days  int64 `json:"days"`
	Plays int64 `json:"plays"`
}

// Trajectory returns an artist's growth curve: a synthetic origin, one point
// per milestone in threshold order, and a live "current" point when the
// artist sits between round numbers. Nil for an unknown artist.
func (e *Engine) Trajectory(ctx context.Context, name string) []TrajectoryPoint {
	p, ok := e.store.Get(ctx, normalize.Key(name))
	if !ok {
		return nil
	}

	points := make([]TrajectoryPoint, 0, len(p.Milestones)+2)
	points = append(points, TrajectoryPoint{Days: 0, Plays: 0})

	var lastMilestone int64
	for _, m := range p.Milestones {
		points = append(points, TrajectoryPoint{Days: m.DaysSinceFirstListen, Plays: m.Milestone})
		lastMilestone = m.Milestone
	}

	if p.TotalPlays > lastMilestone {
		nowMS := e.now().UnixMilli()
		points = append(points, TrajectoryPoint{
			Days:  model.DaysSince(p.FirstListenDate, nowMS),
			Plays: p.TotalPlays,
		})
	}
	return points
}

// Sorting helpers. Every comparator falls back to artist name ascending so
// repeated reads over an unchanged store are byte-stable.

type lessFunc func(a, b ArtistEntry) bool

func byTotalPlaysDesc(a, b ArtistEntry) bool {
	if a.TotalPlays != b.TotalPlays {
		return a.TotalPlays > b.TotalPlays
	}
	return a.Artist < b.Artist
}

func byPlayRateDesc(a, b ArtistEntry) bool {
	if a.PlayRate != b.PlayRate {
		return a.PlayRate > b.PlayRate
	}
	return a.Artist < b.Artist
}

func byAccelerationDesc(a, b ArtistEntry) bool {
	if a.Acceleration != b.Acceleration {
		return a.Acceleration > b.Acceleration
	}
	return a.Artist < b.Artist
}

func byFastestToFiftyAsc(a, b ArtistEntry) bool {
	av, bv := a.DaysToFifty, b.DaysToFifty
	switch {
	case av != nil && bv != nil && *av != *bv:
		return *av < *bv
	case av != nil && bv == nil:
		return true
	case av == nil && bv != nil:
		return false
	}
	return a.Artist < b.Artist
}

func byAlbumCountDesc(a, b ArtistEntry) bool {
	if a.AlbumCount != b.AlbumCount {
		return a.AlbumCount > b.AlbumCount
	}
	return a.Artist < b.Artist
}

func sortedBy(entries []ArtistEntry, less lessFunc) []ArtistEntry {
	out := make([]ArtistEntry, len(entries))
	copy(out, entries)
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func filter(entries []ArtistEntry, keep func(ArtistEntry) bool) []ArtistEntry {
	out := make([]ArtistEntry, 0, len(entries))
	for _, a := range entries {
		if keep(a) {
			out = append(out, a)
		}
	}
	return out
}
