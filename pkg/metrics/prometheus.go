// Package metrics provides Prometheus metrics for the milestone tracking service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns all Prometheus instruments for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	registry         prometheus.Registerer

	// Ingestion
	playsProcessed  prometheus.Counter
	eventsSkipped   prometheus.Counter
	eventsDuplicate prometheus.Counter

	// Milestones
	milestonesRecorded *prometheus.CounterVec // level: artist|album

	// Progress store
	trackedArtists prometheus.Gauge

	// Queue
	queueDepth    prometheus.Gauge
	queueCapacity prometheus.Gauge
	queueRejects  prometheus.Counter

	// Persistence
	persistAttempts  prometheus.Counter
	persistFailures  prometheus.Counter
	persistCoalesced prometheus.Counter
	persistDuration  prometheus.Histogram

	// Batch
	batchRuns     prometheus.Counter
	batchDuration prometheus.Histogram

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid the default Go collectors.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // singleton registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "milestones",
		subsystem:        "tracker",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initialize()
	return m
}

func (m *Manager) initialize() {
	factory := promauto.With(m.registry)

	m.playsProcessed = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "plays_processed_total",
		Help:      "Accepted play events recorded into the progress store.",
	})
	m.eventsSkipped = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_skipped_total",
		Help:      "Malformed play events skipped during normalization.",
	})
	m.eventsDuplicate = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_duplicate_total",
		Help:      "Play events suppressed as duplicates at the ingest boundary.",
	})
	m.milestonesRecorded = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "milestones_recorded_total",
		Help:      "Milestone records created, by level.",
	}, []string{"level"})
	m.trackedArtists = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "tracked_artists",
		Help:      "Artists currently tracked in the progress store.",
	})
	m.queueDepth = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_depth",
		Help:      "Play events waiting in the ingest queue.",
	})
	m.queueCapacity = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_capacity",
		Help:      "Configured capacity of the ingest queue.",
	})
	m.queueRejects = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_rejects_total",
		Help:      "Play events rejected because the ingest queue was full or closed.",
	})
	m.persistAttempts = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "persist_attempts_total",
		Help:      "Snapshot writes attempted by the persistence gateway.",
	})
	m.persistFailures = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "persist_failures_total",
		Help:      "Snapshot writes that failed after retries.",
	})
	m.persistCoalesced = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "persist_coalesced_total",
		Help:      "Write requests absorbed into an already-pending debounce window.",
	})
	m.persistDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "persist_duration_seconds",
		Help:      "Duration of snapshot writes.",
		Buckets:   m.histogramBuckets,
	})
	m.batchRuns = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "batch_runs_total",
		Help:      "Completed batch reprocessing runs.",
	})
	m.batchDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "batch_duration_seconds",
		Help:      "Duration of batch reprocessing runs.",
		Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
	})
	m.httpRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "HTTP requests by endpoint, method, and status.",
	}, []string{"endpoint", "method", "status"})
	m.httpRequestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by endpoint and method.",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method"})
}

// Package-level helpers operating on the global manager.

func RecordPlayProcessed() {
	if globalManager.enabled {
		globalManager.playsProcessed.Inc()
	}
}

func RecordEventSkipped() {
	if globalManager.enabled {
		globalManager.eventsSkipped.Inc()
	}
}

func RecordEventDuplicate() {
	if globalManager.enabled {
		globalManager.eventsDuplicate.Inc()
	}
}

func RecordMilestone(level string) {
	if globalManager.enabled {
		globalManager.milestonesRecorded.WithLabelValues(level).Inc()
	}
}

func UpdateTrackedArtists(count int) {
	if globalManager.enabled {
		globalManager.trackedArtists.Set(float64(count))
	}
}

func UpdateQueueDepth(depth int) {
	if globalManager.enabled {
		globalManager.queueDepth.Set(float64(depth))
	}
}

func UpdateQueueCapacity(capacity int) {
	if globalManager.enabled {
		globalManager.queueCapacity.Set(float64(capacity))
	}
}

func RecordQueueReject() {
	if globalManager.enabled {
		globalManager.queueRejects.Inc()
	}
}

func RecordPersistAttempt() {
	if globalManager.enabled {
		globalManager.persistAttempts.Inc()
	}
}

func RecordPersistFailure() {
	if globalManager.enabled {
		globalManager.persistFailures.Inc()
	}
}

func RecordPersistCoalesced() {
	if globalManager.enabled {
		globalManager.persistCoalesced.Inc()
	}
}

func RecordPersistDuration(seconds float64) {
	if globalManager.enabled {
		globalManager.persistDuration.Observe(seconds)
	}
}

func RecordBatchRun(durationSeconds float64) {
	if globalManager.enabled {
		globalManager.batchRuns.Inc()
		globalManager.batchDuration.Observe(durationSeconds)
	}
}

func RecordHTTPRequest(endpoint, method, status string) {
	if globalManager.enabled {
		globalManager.httpRequests.WithLabelValues(endpoint, method, status).Inc()
	}
}

func RecordHTTPRequestDuration(endpoint, method string, seconds float64) {
	if globalManager.enabled {
		globalManager.httpRequestDuration.WithLabelValues(endpoint, method).Observe(seconds)
	}
}

// GetRegistry returns the custom registry used for exposition.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
