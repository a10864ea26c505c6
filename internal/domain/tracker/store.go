// Package tracker owns the per-artist and per-album cumulative listening
// state: the progress store, the milestone detector, and the metrics
// estimator. The store is the sole owner of all progress records; readers
// treat returned values as advisory snapshots.
package tracker

import (
	"context"

	"github.com/jeffweisbein/roon-wrapped-sub000/internal/domain/model"
)

// Tracked pairs a store key with its progress record.
type Tracked struct {
	Key      string
	Progress *model.ArtistProgress
}

// Store provides write and read access to the progress state.
type Store interface {
	// RecordPlay ingests one normalized play event: lazily creates progress
	// records, increments counters, detects threshold crossings, and
	// recomputes derived metrics. It returns the milestones minted by this
	// play (artist-level and album-level), usually none or one.
	RecordPlay(ctx context.Context, e model.PlayEvent) ([]model.MilestoneRecord, error)

	// Get returns the progress for an artist key, or false if unknown.
	Get(ctx context.Context, artistKey string) (*model.ArtistProgress, bool)

	// All returns every tracked (key, progress) pair. Restartable: each call
	// produces a fresh slice.
	All(ctx context.Context) []Tracked

	// Milestones returns the global append-only milestone list in creation
	// order.
	Milestones(ctx context.Context) []model.MilestoneRecord

	// Count returns the number of tracked artists.
	Count(ctx context.Context) int

	// Reset clears all state. Used only at the start of a batch rebuild.
	Reset(ctx context.Context)

	// Restore replaces the store contents with a persisted snapshot.
	Restore(ctx context.Context, progress map[string]*model.ArtistProgress, milestones []model.MilestoneRecord)

	// Export returns the progress map and milestone list for persistence.
	Export(ctx context.Context) (map[string]*model.ArtistProgress, []model.MilestoneRecord)
}
