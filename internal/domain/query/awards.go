package query

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// Award is one named achievement computed over the full artist set.
type Award struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Winner  string   `json:"winner,omitempty"`
	Winners []string `json:"winners,omitempty"`
	Value   float64  `json:"value"`
	Detail  string   `json:"detail"`
}

// Qualification thresholds for the award catalog.
const (
	awardMostPlaysMin       = 100
	awardConsistentPlaysMin = 25
	awardConsistentDaysMin  = 30
	awardCollectionMin      = 3
	awardBreadthArtistsMin  = 10
	awardBreadthPlaysMin    = 10
	awardRisingWindowDays   = 90
)

// Awards scans all artist progress records and returns every award with a
// qualifying artist. An award nobody qualifies for is omitted entirely.
func (e *Engine) Awards(ctx context.Context) []Award {
	tracked := e.store.All(ctx)
	entries := make([]ArtistEntry, 0, len(tracked))
	for _, t := range tracked {
		entries = append(entries, entryFor(t.Key, t.Progress))
	}

	out := make([]Award, 0, 8)

	if a, ok := e.fastestToFifty(entries); ok {
		out = append(out, a)
	}
	if a, ok := mostPlays(entries); ok {
		out = append(out, a)
	}
	if a, ok := mostConsistent(entries, e.now()); ok {
		out = append(out, a)
	}
	if a, ok := widestCollection(entries); ok {
		out = append(out, a)
	}
	if a, ok := e.slowestBurn(ctx); ok {
		out = append(out, a)
	}
	if a, ok := e.thousandClub(ctx); ok {
		out = append(out, a)
	}
	if a, ok := breadthOfDiscovery(entries); ok {
		out = append(out, a)
	}
	if a, ok := fastestRising(entries, e.now()); ok {
		out = append(out, a)
	}
	return out
}

func (e *Engine) fastestToFifty(entries []ArtistEntry) (Award, bool) {
	reached := filter(entries, func(a ArtistEntry) bool { return a.DaysToFifty != nil })
	if len(reached) == 0 {
		return Award{}, false
	}
	ranked := sortedBy(reached, byFastestToFiftyAsc)
	best := ranked[0]
	return Award{
		ID:     "fastest-to-fifty",
		Title:  "Fastest to 50 Plays",
		Winner: best.Artist,
		Value:  float64(*best.DaysToFifty),
		Detail: fmt.Sprintf("reached 50 plays in %d days", *best.DaysToFifty),
	}, true
}

func mostPlays(entries []ArtistEntry) (Award, bool) {
	qualified := filter(entries, func(a ArtistEntry) bool { return a.TotalPlays >= awardMostPlaysMin })
	if len(qualified) == 0 {
		return Award{}, false
	}
	ranked := sortedBy(qualified, byTotalPlaysDesc)
	best := ranked[0]
	return Award{
		ID:     "most-plays",
		Title:  "Most Total Plays",
		Winner: best.Artist,
		Value:  float64(best.TotalPlays),
		Detail: fmt.Sprintf("%d plays and counting", best.TotalPlays),
	}, true
}

func mostConsistent(entries []ArtistEntry, now time.Time) (Award, bool) {
	nowMS := now.UnixMilli()
	qualified := filter(entries, func(a ArtistEntry) bool {
		ageDays := (nowMS - a.FirstListen) / 86_400_000
		return a.TotalPlays >= awardConsistentPlaysMin && ageDays >= awardConsistentDaysMin
	})
	if len(qualified) == 0 {
		return Award{}, false
	}
	ranked := sortedBy(qualified, byPlayRateDesc)
	best := ranked[0]
	return Award{
		ID:     "most-consistent",
		Title:  "Most Consistent New Artist",
		Winner: best.Artist,
		Value:  best.PlayRate,
		Detail: fmt.Sprintf("%.2f plays per day over a month or more", best.PlayRate),
	}, true
}

func widestCollection(entries []ArtistEntry) (Award, bool) {
	qualified := filter(entries, func(a ArtistEntry) bool { return a.AlbumCount >= awardCollectionMin })
	if len(qualified) == 0 {
		return Award{}, false
	}
	ranked := sortedBy(qualified, byAlbumCountDesc)
	best := ranked[0]
	return Award{
		ID:     "widest-collection",
		Title:  "Widest Album Collection",
		Winner: best.Artist,
		Value:  float64(best.AlbumCount),
		Detail: fmt.Sprintf("%d distinct albums", best.AlbumCount),
	}, true
}

func (e *Engine) slowestBurn(ctx context.Context) (Award, bool) {
	type burn struct {
		artist string
		days   int64
	}
	var slowest *burn
	for _, t := range e.store.All(ctx) {
		d := t.Progress.Metrics.DaysToHundredPlays
		if d == nil {
			continue
		}
		if slowest == nil || *d > slowest.days ||
			(*d == slowest.days && t.Progress.Name < slowest.artist) {
			slowest = &burn{artist: t.Progress.Name, days: *d}
		}
	}
	if slowest == nil {
		return Award{}, false
	}
	return Award{
		ID:     "slowest-burn",
		Title:  "Slowest Burn to 100",
		Winner: slowest.artist,
		Value:  float64(slowest.days),
		Detail: fmt.Sprintf("took %d days to reach 100 plays", slowest.days),
	}, true
}

func (e *Engine) thousandClub(ctx context.Context) (Award, bool) {
	var members []string
	for _, t := range e.store.All(ctx) {
		for _, m := range t.Progress.Milestones {
			if m.Milestone == 1000 {
				members = append(members, t.Progress.Name)
				break
			}
		}
	}
	if len(members) == 0 {
		return Award{}, false
	}
	sort.Strings(members)
	return Award{
		ID:      "thousand-club",
		Title:   "Crossed 1000 Plays",
		Winners: members,
		Value:   float64(len(members)),
		Detail:  fmt.Sprintf("%d artist(s) past a thousand plays", len(members)),
	}, true
}

func breadthOfDiscovery(entries []ArtistEntry) (Award, bool) {
	var count int
	for _, a := range entries {
		if a.TotalPlays >= awardBreadthPlaysMin {
			count++
		}
	}
	if count < awardBreadthArtistsMin {
		return Award{}, false
	}
	return Award{
		ID:     "breadth-of-discovery",
		Title:  "Breadth of Discovery",
		Value:  float64(count),
		Detail: fmt.Sprintf("%d artists with 10+ plays", count),
	}, true
}

func fastestRising(entries []ArtistEntry, now time.Time) (Award, bool) {
	cutoff := now.UnixMilli() - awardRisingWindowDays*86_400_000
	recent := filter(entries, func(a ArtistEntry) bool {
		return a.FirstListen >= cutoff && a.MilestoneCount > 0 && a.Acceleration > 0
	})
	if len(recent) == 0 {
		return Award{}, false
	}
	ranked := sortedBy(recent, byAccelerationDesc)
	best := ranked[0]
	return Award{
		ID:     "fastest-rising",
		Title:  "Fastest-Rising Recent Artist",
		Winner: best.Artist,
		Value:  best.Acceleration,
		Detail: fmt.Sprintf("%.4f plays/day² since first listen", best.Acceleration),
	}, true
}
