package persistence

import (
	"context"
	"sync"
	"time"

	"github.com/avast/retry-go"

	"github.com/jeffweisbein/roon-wrapped-sub000/pkg/logger"
	"github.com/jeffweisbein/roon-wrapped-sub000/pkg/metrics"
)

// Scheduler defaults.
const (
	defaultQuietPeriod  = 5 * time.Second
	defaultSaveAttempts = 3
	defaultRetryDelay   = 250 * time.Millisecond
)

// SnapshotFunc produces the current state to persist, called at flush time
// so coalesced requests always write the freshest snapshot.
type SnapshotFunc func() *Snapshot

// WriteScheduler coalesces streaming write requests: each request arms (or
// re-arms) a quiet-period timer, and one durable write happens when the
// timer fires. A failed flush keeps the state dirty and retries on the next
// window; in-memory state is never rolled back.
type WriteScheduler struct {
	mu       sync.Mutex
	gateway  Gateway
	snapshot SnapshotFunc
	quiet    time.Duration
	clock    Clock
	attempts uint
	log      logger.Logger

	timer  Timer
	armed  bool
	dirty  bool
	closed bool
}

// SchedulerOption applies a configuration option to the WriteScheduler.
type SchedulerOption func(*WriteScheduler)

// WithQuietPeriod sets the debounce window.
func WithQuietPeriod(d time.Duration) SchedulerOption {
	return func(s *WriteScheduler) {
		if d > 0 {
			s.quiet = d
		}
	}
}

// WithSchedulerClock substitutes the clock (virtual time in tests).
func WithSchedulerClock(clock Clock) SchedulerOption {
	return func(s *WriteScheduler) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithSaveAttempts bounds the per-flush retry count.
func WithSaveAttempts(attempts uint) SchedulerOption {
	return func(s *WriteScheduler) {
		if attempts > 0 {
			s.attempts = attempts
		}
	}
}

// NewWriteScheduler creates a scheduler flushing through gateway.
func NewWriteScheduler(gateway Gateway, snapshot SnapshotFunc, opts ...SchedulerOption) *WriteScheduler {
	s := &WriteScheduler{
		gateway:  gateway,
		snapshot: snapshot,
		quiet:    defaultQuietPeriod,
		clock:    RealClock(),
		attempts: defaultSaveAttempts,
		log:      logger.Named("persist"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Request notes that state changed and (re)arms the quiet-period timer.
func (s *WriteScheduler) Request() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.dirty = true
	if s.armed {
		// Absorbed into the pending window; push the deadline out.
		if s.timer != nil {
			s.timer.Stop()
		}
		metrics.RecordPersistCoalesced()
	}
	s.timer = s.clock.AfterFunc(s.quiet, s.fire)
	s.armed = true
}

// fire runs on the timer goroutine when a quiet period elapses.
func (s *WriteScheduler) fire() {
	s.mu.Lock()
	if s.closed || !s.dirty {
		s.armed = false
		s.mu.Unlock()
		return
	}
	s.armed = false
	s.mu.Unlock()

	if err := s.save(context.Background()); err != nil {
		// State stays dirty; try again after another quiet period.
		s.log.Error(context.Background(), "debounced flush failed; will retry", logger.Error(err))
		s.mu.Lock()
		if !s.closed {
			s.timer = s.clock.AfterFunc(s.quiet, s.fire)
			s.armed = true
		}
		s.mu.Unlock()
		return
	}

	s.mu.Lock()
	s.dirty = false
	s.mu.Unlock()
}

func (s *WriteScheduler) save(ctx context.Context) error {
	start := s.clock.Now()
	metrics.RecordPersistAttempt()
	err := retry.Do(
		func() error {
			return s.gateway.Save(ctx, s.snapshot())
		},
		retry.Attempts(s.attempts),
		retry.Delay(defaultRetryDelay),
		retry.LastErrorOnly(true),
	)
	metrics.RecordPersistDuration(s.clock.Now().Sub(start).Seconds())
	if err != nil {
		metrics.RecordPersistFailure()
		return err
	}
	return nil
}

// Flush performs a synchronous write if state is dirty. Used on shutdown.
func (s *WriteScheduler) Flush(ctx context.Context) error {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
	}
	s.armed = false
	dirty := s.dirty
	s.mu.Unlock()

	if !dirty {
		return nil
	}
	if err := s.save(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	s.dirty = false
	s.mu.Unlock()
	return nil
}

// Close flushes outstanding state and stops the scheduler.
func (s *WriteScheduler) Close(ctx context.Context) error {
	err := s.Flush(ctx)
	s.mu.Lock()
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
	}
	s.mu.Unlock()
	return err
}
