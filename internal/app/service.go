// Package service wires the streaming pipeline: queue, ingest worker,
// progress store, query engine, and debounced persistence. It implements
// the dependency bundle required by the HTTP API.
package service

import (
	"context"
	"errors"
	"sync"
	"time"

	eventqueue "github.com/jeffweisbein/roon-wrapped-sub000/internal/adapters/mq/queue"
	ingest "github.com/jeffweisbein/roon-wrapped-sub000/internal/adapters/mq/worker"
	"github.com/jeffweisbein/roon-wrapped-sub000/internal/adapters/persistence"
	"github.com/jeffweisbein/roon-wrapped-sub000/internal/domain/model"
	"github.com/jeffweisbein/roon-wrapped-sub000/internal/domain/normalize"
	"github.com/jeffweisbein/roon-wrapped-sub000/internal/domain/query"
	"github.com/jeffweisbein/roon-wrapped-sub000/internal/domain/tracker"
	"github.com/jeffweisbein/roon-wrapped-sub000/pkg/logger"
	"github.com/jeffweisbein/roon-wrapped-sub000/pkg/metrics"
)

const shutdownFlushTimeout = 10 * time.Second

// Service implements the API dependencies for the milestone system.
type Service struct {
	mu sync.RWMutex

	// Core components
	store      tracker.Store
	norm       *normalize.Normalizer
	queue      eventqueue.Queue
	worker     *ingest.IngestWorker
	engine     *query.Engine
	gateway    persistence.Gateway
	scheduler  *persistence.WriteScheduler
	workerStop context.CancelFunc

	// Configuration
	queueSize   int
	quietPeriod time.Duration
	aliases     map[string]string
	clock       persistence.Clock

	// State
	started   bool
	startedAt time.Time

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithQueueSize sets the event queue capacity.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithQuietPeriod sets the persistence debounce window.
func WithQuietPeriod(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.quietPeriod = d
		}
	}
}

// WithGateway sets the durable storage backend. Required before Start.
func WithGateway(g persistence.Gateway) Option {
	return func(s *Service) {
		s.gateway = g
	}
}

// WithAliases adds artist alias folding rules on top of the built-ins.
func WithAliases(aliases map[string]string) Option {
	return func(s *Service) {
		s.aliases = aliases
	}
}

// WithSchedulerClock substitutes the persistence clock (tests).
func WithSchedulerClock(c persistence.Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		queueSize:   10_000,
		quietPeriod: 5 * time.Second,
		clock:       persistence.RealClock(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds the pipeline, restores persisted state, and launches the
// ingest worker.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Named("service")
	}
	if s.gateway == nil {
		return errors.New("service requires a persistence gateway")
	}

	s.logger.Info(ctx, "starting milestone service")

	s.store = tracker.NewMemStore()
	s.norm = normalize.New(normalize.WithAliases(s.aliases))
	s.queue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	s.engine = query.New(s.store)

	// Crash recovery: restore the last snapshot, if any.
	snap, err := s.gateway.Load(ctx)
	switch {
	case errors.Is(err, persistence.ErrNoSnapshot):
		s.logger.Info(ctx, "no persisted state; starting empty")
	case err != nil:
		return err
	default:
		s.store.Restore(ctx, snap.Progress, snap.Milestones)
		metrics.UpdateTrackedArtists(s.store.Count(ctx))
		s.logger.Info(ctx, "restored persisted state",
			logger.Int("artists", s.store.Count(ctx)),
			logger.Int64("saved_at", snap.SavedAt),
		)
	}

	s.scheduler = persistence.NewWriteScheduler(s.gateway, s.snapshot,
		persistence.WithQuietPeriod(s.quietPeriod),
		persistence.WithSchedulerClock(s.clock),
	)

	workerCtx, cancel := context.WithCancel(context.Background())
	s.workerStop = cancel
	s.worker = ingest.NewIngestWorker(s.queue, s.norm, s.store, s.scheduler)
	go s.worker.Run(workerCtx)

	s.started = true
	s.startedAt = time.Now()
	s.logger.Info(ctx, "milestone service started",
		logger.Int("queue_size", s.queueSize),
		logger.Duration("quiet_period", s.quietPeriod),
	)
	return nil
}

// Stop drains the pipeline and flushes outstanding state.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping milestone service")

	// Close intake first so the worker drains what is already buffered.
	if err := s.queue.Close(); err != nil {
		s.logger.Error(ctx, "closing queue", logger.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownFlushTimeout)
	defer cancel()
	if err := s.worker.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn(ctx, "worker did not drain cleanly", logger.Error(err))
	}
	s.workerStop()

	var flushErr error
	if err := s.scheduler.Close(shutdownCtx); err != nil {
		s.logger.Error(ctx, "final flush failed", logger.Error(err))
		flushErr = err
	}
	if err := s.gateway.Close(); err != nil {
		s.logger.Error(ctx, "closing gateway", logger.Error(err))
	}

	s.started = false
	s.logger.Info(ctx, "milestone service stopped")
	return flushErr
}

func (s *Service) snapshot() *persistence.Snapshot {
	progress, milestones := s.store.Export(context.Background())
	return &persistence.Snapshot{
		Progress:   progress,
		Milestones: milestones,
		SavedAt:    time.Now().UnixMilli(),
	}
}

// Enqueue submits a play event for asynchronous processing. Returns false
// on backpressure.
func (s *Service) Enqueue(ctx context.Context, e model.PlayEvent) bool {
	return s.queue.Enqueue(ctx, e)
}

// Compare ranks the named artists four ways.
func (s *Service) Compare(ctx context.Context, names []string) *query.Comparison {
	return s.engine.Compare(ctx, names)
}

// AlbumsFor returns one artist's per-album breakdown.
func (s *Service) AlbumsFor(ctx context.Context, name string) *query.AlbumComparison {
	return s.engine.AlbumsFor(ctx, name)
}

// Trajectory returns one artist's cumulative play curve.
func (s *Service) Trajectory(ctx context.Context, name string) []query.TrajectoryPoint {
	return s.engine.Trajectory(ctx, name)
}

// Leaderboard returns one stable page of the ranked artist set.
func (s *Service) Leaderboard(ctx context.Context, metric string, limit, offset int) (*query.Page, error) {
	return s.engine.Leaderboard(ctx, metric, limit, offset)
}

// Awards returns the current award catalog.
func (s *Service) Awards(ctx context.Context) []query.Award {
	return s.engine.Awards(ctx)
}

// Flush forces a synchronous persistence write. Used by tests and tooling.
func (s *Service) Flush(ctx context.Context) error {
	return s.scheduler.Flush(ctx)
}

// GetStats returns service counters for GET /stats.
func (s *Service) GetStats() map[string]any {
	ctx := context.Background()
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started": s.started,
	}
	if !s.started {
		return stats
	}
	stats["uptime_seconds"] = time.Since(s.startedAt).Seconds()
	stats["tracked_artists"] = s.store.Count(ctx)
	stats["milestones_recorded"] = len(s.store.Milestones(ctx))
	stats["queue_depth"] = s.queue.Len(ctx)
	stats["queue_capacity"] = s.queueSize
	return stats
}
