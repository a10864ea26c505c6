// Package worker runs the single ingest loop: dequeue, normalize, record,
// schedule persistence. One worker owns all store writes, so progress
// updates never race and milestone detection stays exactly-once.
package worker

import (
	"context"
	"fmt"

	"github.com/jeffweisbein/roon-wrapped-sub000/internal/domain/model"
	"github.com/jeffweisbein/roon-wrapped-sub000/pkg/logger"
	"github.com/jeffweisbein/roon-wrapped-sub000/pkg/metrics"
)

// Event is what the worker reads off the queue.
type Event = model.PlayEvent

// Queue defines how the worker receives events.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Event
}

// Normalizer validates and canonicalizes raw events.
type Normalizer interface {
	Event(raw model.PlayEvent) (model.PlayEvent, error)
}

// Recorder applies an accepted play to the progress store.
type Recorder interface {
	RecordPlay(ctx context.Context, e model.PlayEvent) ([]model.MilestoneRecord, error)
	Count(ctx context.Context) int
}

// Persister is notified after every accepted play so durable writes can be
// coalesced behind a quiet period.
type Persister interface {
	Request()
}

// Worker consumes the queue until stopped.
type Worker interface {
	// Run starts the ingest loop until ctx is canceled or the queue closes.
	Run(ctx context.Context)

	// Shutdown stops the worker and waits for the loop to exit.
	Shutdown(ctx context.Context) error
}

// IngestWorker implements Worker against the in-memory store.
type IngestWorker struct {
	queue     Queue
	norm      Normalizer
	store     Recorder
	persister Persister
	name      string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewIngestWorker creates a worker with configuration options.
func NewIngestWorker(queue Queue, norm Normalizer, store Recorder, persister Persister, opts ...Option) *IngestWorker {
	w := &IngestWorker{
		queue:     queue,
		norm:      norm,
		store:     store,
		persister: persister,
		name:      "ingest",
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Named(w.name)
	}
	return w
}

// Run starts the ingest loop.
func (w *IngestWorker) Run(ctx context.Context) {
	defer close(w.done)

	events := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			w.process(ctx, e)
		}
	}
}

// Shutdown stops the worker.
func (w *IngestWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("worker shutdown: %w", ctx.Err())
	}
}

func (w *IngestWorker) process(ctx context.Context, raw Event) {
	e, err := w.norm.Event(raw)
	if err != nil {
		metrics.RecordEventSkipped()
		w.logger.Debug(ctx, "skipping malformed event",
			logger.String("artist", raw.Artist),
			logger.Error(err),
		)
		return
	}

	minted, err := w.store.RecordPlay(ctx, e)
	if err != nil {
		metrics.RecordEventSkipped()
		w.logger.Error(ctx, "recording play failed",
			logger.String("artist", e.Artist),
			logger.Error(err),
		)
		return
	}

	metrics.RecordPlayProcessed()
	metrics.UpdateTrackedArtists(w.store.Count(ctx))
	for _, m := range minted {
		w.logger.Info(ctx, "milestone reached",
			logger.String("artist", m.Artist),
			logger.String("album", m.Album),
			logger.Int64("milestone", m.Milestone),
			logger.Int64("days_since_first_listen", m.DaysSinceFirstListen),
		)
	}

	if w.persister != nil {
		w.persister.Request()
	}
}
