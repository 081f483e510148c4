// Package metrics provides Prometheus metrics for the highstakes service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns all Prometheus collectors for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Bet flow
	betsPlaced   prometheus.Counter
	betsAccepted prometheus.Counter
	betsRejected prometheus.Counter
	betsDropped  prometheus.Counter

	// Shard health
	shardTaskPanics prometheus.Counter
	shardQueueDepth *prometheus.GaugeVec
	offersTracked   prometheus.Gauge

	// Query flow
	queriesTotal prometheus.Counter
	queryLatency prometheus.Histogram

	// Sessions
	sessionsCreated prometheus.Counter
	sessionsExpired prometheus.Counter
	sessionsActive  prometheus.Gauge

	// HTTP surface
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Process
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid the default Go collectors.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "highstakes",
		subsystem:        "betting",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.betsPlaced = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "bets_placed_total",
		Help:      "Total number of bets submitted to the store",
	})

	m.betsAccepted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "bets_accepted_total",
		Help:      "Total number of bets that improved a stored stake",
	})

	m.betsRejected = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "bets_rejected_total",
		Help:      "Total number of bets rejected for not beating a stored stake",
	})

	m.betsDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "bets_dropped_total",
		Help:      "Total number of bets dropped before processing (overflow or shutdown)",
	})

	m.shardTaskPanics = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "shard_task_panics_total",
		Help:      "Total number of shard tasks that failed and were dropped",
	})

	m.shardQueueDepth = auto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "shard_queue_depth",
			Help:      "Current number of pending tasks per shard",
		},
		[]string{"shard"},
	)

	m.offersTracked = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "offers_tracked",
		Help:      "Number of offers with a ranking board",
	})

	m.queriesTotal = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queries_total",
		Help:      "Total number of top-N queries",
	})

	m.queryLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "query_latency_milliseconds",
		Help:      "Histogram of top-N query latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.sessionsCreated = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sessions_created_total",
		Help:      "Total number of sessions issued",
	})

	m.sessionsExpired = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sessions_expired_total",
		Help:      "Total number of sessions removed by cleanup",
	})

	m.sessionsActive = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sessions_active",
		Help:      "Current number of tracked sessions",
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint, method and status",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_bytes",
		Help:      "Current allocated heap bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutines",
		Help:      "Current number of goroutines",
	})
}

// Package-level helpers against the global manager.

// RecordBetPlaced increments the submitted-bet counter.
func RecordBetPlaced() {
	globalManager.betsPlaced.Inc()
}

// RecordBetAccepted increments the accepted-bet counter.
func RecordBetAccepted() {
	globalManager.betsAccepted.Inc()
}

// RecordBetRejected increments the rejected-bet counter.
func RecordBetRejected() {
	globalManager.betsRejected.Inc()
}

// RecordBetDropped increments the dropped-bet counter.
func RecordBetDropped() {
	globalManager.betsDropped.Inc()
}

// RecordShardTaskPanic increments the failed-task counter.
func RecordShardTaskPanic() {
	globalManager.shardTaskPanics.Inc()
}

// UpdateShardQueueDepth sets the pending-task gauge for one shard.
func UpdateShardQueueDepth(shard string, depth int) {
	globalManager.shardQueueDepth.WithLabelValues(shard).Set(float64(depth))
}

// UpdateOffersTracked sets the offers gauge.
func UpdateOffersTracked(count int) {
	globalManager.offersTracked.Set(float64(count))
}

// RecordQuery increments the query counter.
func RecordQuery() {
	globalManager.queriesTotal.Inc()
}

// RecordQueryLatency observes one query duration in milliseconds.
func RecordQueryLatency(latencyMs float64) {
	globalManager.queryLatency.Observe(latencyMs)
}

// RecordSessionCreated increments the issued-session counter.
func RecordSessionCreated() {
	globalManager.sessionsCreated.Inc()
}

// RecordSessionExpired increments the expired-session counter.
func RecordSessionExpired() {
	globalManager.sessionsExpired.Inc()
}

// UpdateActiveSessions sets the tracked-session gauge.
func UpdateActiveSessions(count int) {
	globalManager.sessionsActive.Set(float64(count))
}

// RecordHTTPRequest increments the request counter for one endpoint.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration observes one request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// UpdateSystemMemoryUsage sets the heap gauge.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine gauge.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry exposes the custom registry for the /healthz handler.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
