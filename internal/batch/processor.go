// Package batch replays a full historical event collection through the same
// per-event pipeline as streaming ingestion. A run is a rebuild, not a
// merge: the store is reset first, events are sorted chronologically, and
// persistence happens exactly once at the end.
package batch

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/time/rate"

	"github.com/jeffweisbein/roon-wrapped-sub000/internal/adapters/persistence"
	"github.com/jeffweisbein/roon-wrapped-sub000/internal/domain/model"
	"github.com/jeffweisbein/roon-wrapped-sub000/internal/domain/normalize"
	"github.com/jeffweisbein/roon-wrapped-sub000/internal/domain/tracker"
	"github.com/jeffweisbein/roon-wrapped-sub000/pkg/logger"
	"github.com/jeffweisbein/roon-wrapped-sub000/pkg/metrics"
)

const defaultProgressEvery = 1000

// Summary reports what a batch run did.
type Summary struct {
	TracksProcessed       int     `json:"tracks_processed"`
	EventsSkipped         int     `json:"events_skipped"`
	UniqueArtists         int     `json:"unique_artists"`
	MilestonesRecorded    int     `json:"milestones_recorded"`
	ProcessingTimeSeconds float64 `json:"processing_time_seconds"`
}

// Processor rebuilds the progress store from a historical corpus.
type Processor struct {
	store         tracker.Store
	norm          *normalize.Normalizer
	gateway       persistence.Gateway
	log           logger.Logger
	progressEvery int
	clock         func() time.Time
}

// Option applies a configuration option to the Processor.
type Option func(*Processor)

// WithProgressEvery sets how many events pass between progress log lines.
func WithProgressEvery(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.progressEvery = n
		}
	}
}

// WithClock overrides the wall clock used for timing (tests).
func WithClock(clock func() time.Time) Option {
	return func(p *Processor) {
		if clock != nil {
			p.clock = clock
		}
	}
}

// New creates a batch processor. The gateway may be nil, in which case the
// run skips the final flush (used by read-only tooling).
func New(store tracker.Store, norm *normalize.Normalizer, gateway persistence.Gateway, opts ...Option) *Processor {
	p := &Processor{
		store:         store,
		norm:          norm,
		gateway:       gateway,
		log:           logger.Named("batch"),
		progressEvery: defaultProgressEvery,
		clock:         time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process replays events oldest-first through the per-event pipeline.
// Malformed events are skipped and counted. A persistence failure at the end
// is fatal to the run; rerun from scratch.
func (p *Processor) Process(ctx context.Context, events []model.PlayEvent) (Summary, error) {
	start := p.clock()

	// Chronological order is load-bearing: day counts and acceleration are
	// only meaningful when plays arrive oldest first, whatever order the
	// source store returned them in.
	sorted := make([]model.PlayEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp < sorted[j].Timestamp
	})

	if err := ctx.Err(); err != nil {
		return Summary{}, fmt.Errorf("batch aborted before replay: %w", err)
	}

	p.store.Reset(ctx)
	p.log.Info(ctx, "starting batch rebuild", logger.Int("events", len(sorted)))

	var summary Summary
	logLimiter := rate.NewLimiter(rate.Every(time.Second), 1)
	for i, raw := range sorted {
		ev, err := p.norm.Event(raw)
		if err != nil {
			summary.EventsSkipped++
			metrics.RecordEventSkipped()
			continue
		}
		minted, err := p.store.RecordPlay(ctx, ev)
		if err != nil {
			summary.EventsSkipped++
			metrics.RecordEventSkipped()
			continue
		}
		summary.TracksProcessed++
		summary.MilestonesRecorded += len(minted)

		if (i+1)%p.progressEvery == 0 && logLimiter.Allow() {
			elapsed := p.clock().Sub(start).Seconds()
			perSecond := float64(i+1) / elapsed
			p.log.Info(ctx, "batch progress",
				logger.Int("processed", i+1),
				logger.Int("total", len(sorted)),
				logger.Float64("events_per_second", perSecond),
			)
		}
	}

	summary.UniqueArtists = p.store.Count(ctx)
	summary.ProcessingTimeSeconds = p.clock().Sub(start).Seconds()

	if p.gateway != nil {
		progress, milestones := p.store.Export(ctx)
		snap := &persistence.Snapshot{
			Progress:   progress,
			Milestones: milestones,
			SavedAt:    p.clock().UnixMilli(),
		}
		if err := p.gateway.Save(ctx, snap); err != nil {
			metrics.RecordPersistFailure()
			return summary, fmt.Errorf("batch persistence failed: %w", err)
		}
	}

	metrics.RecordBatchRun(summary.ProcessingTimeSeconds)
	p.log.Info(ctx, "batch rebuild complete",
		logger.Int("tracks_processed", summary.TracksProcessed),
		logger.Int("events_skipped", summary.EventsSkipped),
		logger.Int("unique_artists", summary.UniqueArtists),
		logger.Int("milestones_recorded", summary.MilestonesRecorded),
		logger.Float64("seconds", summary.ProcessingTimeSeconds),
	)
	return summary, nil
}
