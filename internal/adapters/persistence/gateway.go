// Package persistence loads and saves the derived milestone state: the
// progress collection (keyed by normalized artist name) and the flat
// milestone list, stored as directly-serializable documents. Streaming mode
// debounces writes through the coalescing scheduler; batch mode writes once.
package persistence

import (
	"context"

	"github.com/jeffweisbein/roon-wrapped-sub000/internal/domain/model"
)

// Snapshot is the durable shape of the tracker state.
type Snapshot struct {
	Progress   map[string]*model.ArtistProgress `json:"progress"`
	Milestones []model.MilestoneRecord          `json:"milestones"`
	SavedAt    int64                            `json:"saved_at"` // epoch milliseconds
}

// Gateway is the durable storage contract.
type Gateway interface {
	// Save writes the snapshot, replacing any previous one.
	Save(ctx context.Context, snap *Snapshot) error

	// Load reads the latest snapshot. Returns ErrNoSnapshot when storage is
	// empty; callers treat that as "no data yet", not a failure.
	Load(ctx context.Context) (*Snapshot, error)

	Close() error
}
