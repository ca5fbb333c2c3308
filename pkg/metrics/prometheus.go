// Package metrics provides Prometheus metrics for the xPts ranking service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Snapshot lifecycle
	snapshotsLoaded   prometheus.Counter
	snapshotsRejected *prometheus.CounterVec
	snapshotGameweek  prometheus.Gauge
	snapshotLastUnix  prometheus.Gauge

	// Engine
	playersScored       *prometheus.GaugeVec
	engineBuildDuration prometheus.Histogram

	// Queries
	queryLatency *prometheus.HistogramVec
	queryErrors  *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors by component
	errorRateByComponent *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "xpts",
		subsystem:        "engine",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      map[string]string{},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counter(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) gauge(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels, Buckets: buckets}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.snapshotsLoaded = auto.NewCounter(m.counter("snapshots_loaded_total", "Total number of snapshots accepted"))
	m.snapshotsRejected = auto.NewCounterVec(m.counter("snapshots_rejected_total", "Total number of snapshots rejected by reason"),
		[]string{"reason"})
	m.snapshotGameweek = auto.NewGauge(m.gauge("snapshot_gameweek", "Gameweek of the active snapshot"))
	m.snapshotLastUnix = auto.NewGauge(m.gauge("snapshot_last_unix", "Unix timestamp of the last accepted snapshot"))

	m.playersScored = auto.NewGaugeVec(m.gauge("players_scored", "Number of scored players in the active pool by position"),
		[]string{"position"})
	m.engineBuildDuration = auto.NewHistogram(m.histogram("engine_build_duration_milliseconds",
		"Time to score and rank a snapshot in milliseconds", m.histogramBuckets))

	m.queryLatency = auto.NewHistogramVec(m.histogram("query_latency_milliseconds",
		"Engine query latency in milliseconds by operation", m.histogramBuckets), []string{"operation"})
	m.queryErrors = auto.NewCounterVec(m.counter("query_errors_total", "Engine query errors by operation and kind"),
		[]string{"operation", "error_type"})

	m.httpRequests = auto.NewCounterVec(m.counter("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogram("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds", m.histogramBuckets), []string{"endpoint", "method", "status_code"})

	m.errorRateByComponent = auto.NewCounterVec(m.counter("errors_by_component_total", "Total number of errors by component"),
		[]string{"component", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(m.gauge("system_memory_usage_bytes", "System memory usage in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gauge("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogram("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}))
}

// RecordSnapshotLoaded marks a snapshot as active.
func RecordSnapshotLoaded(gameweek int, unix int64) {
	globalManager.snapshotsLoaded.Inc()
	globalManager.snapshotGameweek.Set(float64(gameweek))
	globalManager.snapshotLastUnix.Set(float64(unix))
}

// RecordSnapshotRejected counts a rejected snapshot.
func RecordSnapshotRejected(reason string) {
	globalManager.snapshotsRejected.WithLabelValues(reason).Inc()
}

// UpdatePlayersScored sets the pool size for a position.
func UpdatePlayersScored(position string, count int) {
	globalManager.playersScored.WithLabelValues(position).Set(float64(count))
}

// RecordEngineBuildDuration records how long scoring a snapshot took.
func RecordEngineBuildDuration(durationMs float64) {
	globalManager.engineBuildDuration.Observe(durationMs)
}

// RecordQueryLatency records an engine query latency.
func RecordQueryLatency(operation string, latencyMs float64) {
	globalManager.queryLatency.WithLabelValues(operation).Observe(latencyMs)
}

// RecordQueryError counts a failed engine query.
func RecordQueryError(operation, errorType string) {
	globalManager.queryErrors.WithLabelValues(operation, errorType).Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
