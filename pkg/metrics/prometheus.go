// Package metrics provides Prometheus metrics for the salesboard service.
package metrics

import (
	"context"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the salesboard service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Cache Metrics - Snapshot lifecycle
	refreshTotal          *prometheus.CounterVec
	refreshDuration       prometheus.Histogram
	refreshLastSuccess    prometheus.Gauge
	cutoffChecks          *prometheus.CounterVec
	coldFallbacks         *prometheus.CounterVec
	cacheReads            *prometheus.CounterVec
	snapshotRows          *prometheus.GaugeVec
	snapshotPublishTotal  prometheus.Counter
	snapshotLastPublished prometheus.Gauge

	// Warehouse Metrics - Collaborator health
	warehouseQueryDuration *prometheus.HistogramVec
	warehouseQueryErrors   *prometheus.CounterVec
	breakerState           *prometheus.GaugeVec

	// Identity Metrics - Token and context resolution
	identityResolveDuration prometheus.Histogram
	identityCacheLookups    *prometheus.CounterVec
	zoneCacheLookups        *prometheus.CounterVec

	// Scheduler Metrics
	schedulerTicks prometheus.Counter

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Enhanced Error Metrics - Detailed error tracking
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
	errorLatency         *prometheus.HistogramVec

	// System Performance Metrics
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
		namespace:        "salesboard",
		subsystem:        "analytics",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		metricPrefix:     "",
		registry:         prometheus.DefaultRegisterer,
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	if !m.enabled {
		m.registry = prometheus.NewRegistry()
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) name(n string) string { return m.metricPrefix + n }

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
		Buckets:     buckets,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	// Cache Metrics - Snapshot lifecycle
	m.refreshTotal = auto.NewCounterVec(
		m.counterOpts("refresh_total", "Total number of snapshot refresh attempts by result"),
		[]string{"result"},
	)
	m.refreshDuration = auto.NewHistogram(m.histogramOpts(
		"refresh_duration_milliseconds",
		"Duration of a full snapshot refresh in milliseconds",
		[]float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000},
	))
	m.refreshLastSuccess = auto.NewGauge(m.gaugeOpts(
		"refresh_last_success_unix",
		"Unix timestamp of the last successful snapshot refresh",
	))
	m.cutoffChecks = auto.NewCounterVec(
		m.counterOpts("cutoff_checks_total", "Background cutoff marker checks by outcome"),
		[]string{"outcome"},
	)
	m.coldFallbacks = auto.NewCounterVec(
		m.counterOpts("cold_fallbacks_total", "Reads served directly from the warehouse because the snapshot was empty"),
		[]string{"operation"},
	)
	m.cacheReads = auto.NewCounterVec(
		m.counterOpts("cache_reads_total", "Cache read operations by operation and path"),
		[]string{"operation", "path"},
	)
	m.snapshotRows = auto.NewGaugeVec(
		m.gaugeOpts("snapshot_rows", "Rows held by the live snapshot per dataset"),
		[]string{"dataset"},
	)
	m.snapshotPublishTotal = auto.NewCounter(m.counterOpts(
		"snapshot_publish_total",
		"Total number of snapshot sets published",
	))
	m.snapshotLastPublished = auto.NewGauge(m.gaugeOpts(
		"snapshot_last_published_unix",
		"Unix timestamp of the last snapshot set publish",
	))

	// Warehouse Metrics
	m.warehouseQueryDuration = auto.NewHistogramVec(
		m.histogramOpts("warehouse_query_duration_milliseconds", "Warehouse query latency in milliseconds",
			[]float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000}),
		[]string{"driver", "query"},
	)
	m.warehouseQueryErrors = auto.NewCounterVec(
		m.counterOpts("warehouse_query_errors_total", "Failed warehouse queries"),
		[]string{"driver", "query"},
	)
	m.breakerState = auto.NewGaugeVec(
		m.gaugeOpts("breaker_state", "Circuit breaker state (0 closed, 1 half-open, 2 open)"),
		[]string{"name"},
	)

	// Identity Metrics
	m.identityResolveDuration = auto.NewHistogram(m.histogramOpts(
		"identity_resolve_duration_milliseconds",
		"Identity resolution latency in milliseconds",
		m.histogramBuckets,
	))
	m.identityCacheLookups = auto.NewCounterVec(
		m.counterOpts("identity_cache_lookups_total", "User context cache lookups by backend and result"),
		[]string{"backend", "result"},
	)
	m.zoneCacheLookups = auto.NewCounterVec(
		m.counterOpts("zone_cache_lookups_total", "Competition zone cache lookups by result"),
		[]string{"result"},
	)

	m.schedulerTicks = auto.NewCounter(m.counterOpts(
		"scheduler_ticks_total",
		"Scheduled freshness checks triggered",
	))

	// HTTP Performance Metrics - User experience indicators
	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds (user experience)", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"},
	)

	// Enhanced Error Metrics - Detailed error tracking
	m.errorRateByComponent = auto.NewCounterVec(
		m.counterOpts("errors_by_component_total", "Total number of errors by component"),
		[]string{"component", "error_type"},
	)
	m.errorRateByType = auto.NewCounterVec(
		m.counterOpts("errors_by_type_total", "Total number of errors by type and severity"),
		[]string{"error_type", "severity"},
	)
	m.errorRateByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "Total number of errors by endpoint"),
		[]string{"endpoint", "method", "error_type"},
	)
	m.errorLatency = auto.NewHistogramVec(
		m.histogramOpts("error_latency_milliseconds", "Latency of operations that resulted in errors", m.histogramBuckets),
		[]string{"component", "error_type"},
	)

	// System Performance Metrics
	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "Current memory usage in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts(
		"system_gc_pause_time_milliseconds",
		"GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	))
}

// Cache Metrics Functions.

// RecordRefresh records one refresh attempt with its result ("success" or "failure").
func RecordRefresh(result string, durationMs float64) {
	globalManager.refreshTotal.WithLabelValues(result).Inc()
	globalManager.refreshDuration.Observe(durationMs)
}

// UpdateRefreshLastSuccess sets the unix time of the last successful refresh.
func UpdateRefreshLastSuccess(unix float64) {
	globalManager.refreshLastSuccess.Set(unix)
}

// RecordCutoffCheck records a background cutoff check outcome
// ("changed", "unchanged" or "error").
func RecordCutoffCheck(outcome string) {
	globalManager.cutoffChecks.WithLabelValues(outcome).Inc()
}

// RecordColdFallback records a read served by the warehouse directly.
func RecordColdFallback(operation string) {
	globalManager.coldFallbacks.WithLabelValues(operation).Inc()
}

// RecordCacheRead records a cache read on the "warm" or "cold" path.
func RecordCacheRead(operation, path string) {
	globalManager.cacheReads.WithLabelValues(operation, path).Inc()
}

// UpdateSnapshotRows sets the row count of a dataset in the live snapshot.
func UpdateSnapshotRows(dataset string, rows int) {
	globalManager.snapshotRows.WithLabelValues(dataset).Set(float64(rows))
}

// RecordSnapshotPublish records a snapshot set publish.
func RecordSnapshotPublish() {
	globalManager.snapshotPublishTotal.Inc()
	globalManager.snapshotLastPublished.Set(float64(time.Now().Unix()))
}

// Warehouse Metrics Functions.

// RecordWarehouseQuery records a warehouse query latency and failure.
func RecordWarehouseQuery(driver, query string, durationMs float64, err error) {
	globalManager.warehouseQueryDuration.WithLabelValues(driver, query).Observe(durationMs)
	if err != nil {
		globalManager.warehouseQueryErrors.WithLabelValues(driver, query).Inc()
	}
}

// UpdateBreakerState sets the numeric state of a named circuit breaker.
func UpdateBreakerState(name string, state int) {
	globalManager.breakerState.WithLabelValues(name).Set(float64(state))
}

// Identity Metrics Functions.

// RecordIdentityResolve records identity resolution latency.
func RecordIdentityResolve(durationMs float64) {
	globalManager.identityResolveDuration.Observe(durationMs)
}

// RecordIdentityCacheLookup records a user context cache lookup ("hit", "miss" or "error").
func RecordIdentityCacheLookup(backend, result string) {
	globalManager.identityCacheLookups.WithLabelValues(backend, result).Inc()
}

// RecordZoneCacheLookup records a competition zone cache lookup.
func RecordZoneCacheLookup(result string) {
	globalManager.zoneCacheLookups.WithLabelValues(result).Inc()
}

// RecordSchedulerTick records a scheduled freshness trigger.
func RecordSchedulerTick() {
	globalManager.schedulerTicks.Inc()
}

// HTTP Metrics Functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Enhanced Error Metrics Functions.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of an operation that resulted in an error.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// System Performance Metrics Functions.

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

// StartSystemCollector samples runtime memory, goroutine and GC pause
// metrics every refresh interval until ctx is done.
func StartSystemCollector(ctx context.Context) {
	ticker := time.NewTicker(globalManager.refreshInterval)
	go func() {
		defer ticker.Stop()
		var lastNumGC uint32
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				var ms runtime.MemStats
				runtime.ReadMemStats(&ms)
				UpdateSystemMemoryUsage(ms.Alloc)
				UpdateSystemGoroutineCount(runtime.NumGoroutine())
				first := lastNumGC
				if window := uint32(len(ms.PauseNs)); ms.NumGC > window && first < ms.NumGC-window {
					first = ms.NumGC - window
				}
				for n := first; n < ms.NumGC; n++ {
					pause := ms.PauseNs[n%uint32(len(ms.PauseNs))]
					RecordSystemGCPauseTime(float64(pause) / float64(time.Millisecond))
				}
				lastNumGC = ms.NumGC
			}
		}
	}()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
