// Package metrics provides Prometheus metrics for the scout service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the scout service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Scoring
	rowsScored  *prometheus.CounterVec
	rowsSkipped *prometheus.CounterVec
	scoreWorkers prometheus.Gauge

	// Leaderboard
	leaderboardBuilds  prometheus.Counter
	leaderboardEmpty   prometheus.Counter
	leaderboardLatency prometheus.Histogram
	leaderboardRows    prometheus.Gauge
	leaderboardErrors  prometheus.Counter

	// Charts
	chartBuilds prometheus.Counter
	chartErrors prometheus.Counter

	// Data source
	sourceLoads       *prometheus.CounterVec
	sourceLoadLatency *prometheus.HistogramVec
	sourceErrors      *prometheus.CounterVec
	sourceRows        prometheus.Gauge
	sourceReloads     prometheus.Counter

	// Row cache
	cacheHits          prometheus.Counter
	cacheMisses        prometheus.Counter
	cacheInvalidations prometheus.Counter

	// Catalog
	catalogMetrics  prometheus.Gauge
	catalogProfiles prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByEndpoint *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "scout",
		subsystem:        "leaderboard",
		histogramBuckets: []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: m.histogramBuckets,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: m.histogramBuckets,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.rowsScored = m.counterVec("rows_scored_total", "Rows scored, by score source", "source")
	m.rowsSkipped = m.counterVec("rows_skipped_total", "Rows excluded from a leaderboard, by reason", "reason")
	m.scoreWorkers = m.gauge("score_workers", "Size of the scoring worker pool")

	m.leaderboardBuilds = m.counter("builds_total", "Leaderboards built")
	m.leaderboardEmpty = m.counter("empty_total", "Leaderboards with no matching players")
	m.leaderboardLatency = m.histogram("build_latency_milliseconds", "Leaderboard build latency in milliseconds")
	m.leaderboardRows = m.gauge("last_rows", "Rows returned by the most recent leaderboard")
	m.leaderboardErrors = m.counter("errors_total", "Leaderboard builds that failed")

	m.chartBuilds = m.counter("chart_builds_total", "Chart payloads built")
	m.chartErrors = m.counter("chart_errors_total", "Chart payloads that failed to build")

	m.sourceLoads = m.counterVec("source_loads_total", "Reads from the data source", "source")
	m.sourceLoadLatency = m.histogramVec("source_load_latency_milliseconds", "Data source read latency in milliseconds", "source")
	m.sourceErrors = m.counterVec("source_errors_total", "Failed data source reads", "source")
	m.sourceRows = m.gauge("source_rows", "Rows available in the data source")
	m.sourceReloads = m.counter("source_reloads_total", "Data source reloads triggered by file changes")

	m.cacheHits = m.counter("cache_hits_total", "Row cache hits")
	m.cacheMisses = m.counter("cache_misses_total", "Row cache misses")
	m.cacheInvalidations = m.counter("cache_invalidations_total", "Row cache invalidations")

	m.catalogMetrics = m.gauge("catalog_metrics", "Registered metric definitions")
	m.catalogProfiles = m.gauge("catalog_profiles", "Registered position profiles")

	m.httpRequests = m.counterVec("http_requests_total", "Total number of HTTP requests", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds",
		"endpoint", "method", "status_code")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total", "Errors by HTTP endpoint", "endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name:    "system_gc_pause_time_milliseconds",
		Help:    "GC pause time in milliseconds",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	})
}

// RecordRowScored counts a scored row by score source.
func RecordRowScored(source string) {
	globalManager.rowsScored.WithLabelValues(source).Inc()
}

// RecordRowSkipped counts a row excluded from a leaderboard.
func RecordRowSkipped(reason string) {
	globalManager.rowsSkipped.WithLabelValues(reason).Inc()
}

// UpdateScoreWorkers sets the scoring pool size.
func UpdateScoreWorkers(count int) {
	globalManager.scoreWorkers.Set(float64(count))
}

// RecordLeaderboardBuild records a completed leaderboard build.
func RecordLeaderboardBuild(latencyMs float64, rows int) {
	globalManager.leaderboardBuilds.Inc()
	globalManager.leaderboardLatency.Observe(latencyMs)
	globalManager.leaderboardRows.Set(float64(rows))
	if rows == 0 {
		globalManager.leaderboardEmpty.Inc()
	}
}

// RecordLeaderboardError increments the leaderboard errors counter.
func RecordLeaderboardError() {
	globalManager.leaderboardErrors.Inc()
}

// RecordChartBuild increments the chart builds counter.
func RecordChartBuild() {
	globalManager.chartBuilds.Inc()
}

// RecordChartError increments the chart errors counter.
func RecordChartError() {
	globalManager.chartErrors.Inc()
}

// RecordSourceLoad records a data source read.
func RecordSourceLoad(source string, latencyMs float64) {
	globalManager.sourceLoads.WithLabelValues(source).Inc()
	globalManager.sourceLoadLatency.WithLabelValues(source).Observe(latencyMs)
}

// RecordSourceError counts a failed data source read.
func RecordSourceError(source string) {
	globalManager.sourceErrors.WithLabelValues(source).Inc()
}

// UpdateSourceRows sets the number of rows available in the source.
func UpdateSourceRows(count int) {
	globalManager.sourceRows.Set(float64(count))
}

// RecordSourceReload counts a file-triggered reload.
func RecordSourceReload() {
	globalManager.sourceReloads.Inc()
}

// RecordCacheHit increments the cache hit counter.
func RecordCacheHit() {
	globalManager.cacheHits.Inc()
}

// RecordCacheMiss increments the cache miss counter.
func RecordCacheMiss() {
	globalManager.cacheMisses.Inc()
}

// RecordCacheInvalidation increments the cache invalidation counter.
func RecordCacheInvalidation() {
	globalManager.cacheInvalidations.Inc()
}

// UpdateCatalogSize sets the catalog gauges.
func UpdateCatalogSize(metricCount, profileCount int) {
	globalManager.catalogMetrics.Set(float64(metricCount))
	globalManager.catalogProfiles.Set(float64(profileCount))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByEndpoint records an error for a specific endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
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

// GetRegistry returns the custom registry used for metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
