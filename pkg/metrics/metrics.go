// Package metrics provides Prometheus metrics for the standings service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// latencyBuckets are in milliseconds.
var latencyBuckets = []float64{0.1, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000}

// Manager owns every metric of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Ingestion
	eventsAccepted       prometheus.Counter
	eventsDuplicate      prometheus.Counter
	eventsRejected       *prometheus.CounterVec
	attributionsRecorded *prometheus.CounterVec

	// Queue and workers
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueueErrors *prometheus.CounterVec
	workerCount        prometheus.Gauge
	workerErrors       prometheus.Counter

	// Rankings
	rankingRebuildDuration *prometheus.HistogramVec
	rankingRebuildErrors   *prometheus.CounterVec
	rankingSize            *prometheus.GaugeVec
	rankingLastRefreshUnix prometheus.Gauge

	// Store
	storeLatency  *prometheus.HistogramVec
	storeSubjects prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors and system
	errorsByComponent    *prometheus.CounterVec
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// customRegistry keeps Go runtime collectors out of /healthz.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager registered on the configured registry.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "standings",
		subsystem:        "ranking",
		histogramBuckets: latencyBuckets,
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
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: m.histogramBuckets,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.eventsAccepted = m.counter("events_accepted_total", "Events accepted into the queue")
	m.eventsDuplicate = m.counter("events_duplicate_total", "Events dropped as duplicates")
	m.eventsRejected = m.counterVec("events_rejected_total", "Events rejected before queueing", "reason")
	m.attributionsRecorded = m.counterVec("attributions_recorded_total", "Events written to the store", "kind")

	m.queueSize = m.gauge("queue_size", "Current number of queued events")
	m.queueCapacity = m.gauge("queue_capacity", "Configured queue capacity")
	m.queueEnqueueErrors = m.counterVec("queue_enqueue_errors_total", "Failed enqueue attempts", "reason")
	m.workerCount = m.gauge("worker_count", "Number of running workers")
	m.workerErrors = m.counter("worker_errors_total", "Events a worker failed to record")

	m.rankingRebuildDuration = m.histogramVec("rebuild_duration_milliseconds", "Ranking rebuild duration in milliseconds", "kind", "range")
	m.rankingRebuildErrors = m.counterVec("rebuild_errors_total", "Ranking rebuilds that failed to load records", "kind", "range")
	m.rankingSize = promauto.With(m.registry).NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: "size", Help: "Ranked subjects per ranking",
	}, []string{"kind", "range"})
	m.rankingLastRefreshUnix = m.gauge("last_refresh_unix", "Unix time of the last completed refresh")

	m.storeLatency = m.histogramVec("store_latency_milliseconds", "Store operation latency in milliseconds", "op")
	m.storeSubjects = m.gauge("store_subjects", "Distinct subjects known to the store")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint, method and status", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds", "endpoint", "method", "status_code")

	m.errorsByComponent = m.counterVec("errors_total", "Errors by component and type", "component", "error_type")
	m.systemMemoryUsage = m.gauge("system_memory_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = m.gauge("system_goroutines", "Number of goroutines")
}

// RecordEventAccepted counts an event accepted into the queue.
func RecordEventAccepted() { globalManager.eventsAccepted.Inc() }

// RecordEventDuplicate counts an event dropped by deduplication.
func RecordEventDuplicate() { globalManager.eventsDuplicate.Inc() }

// RecordEventRejected counts an event rejected before queueing.
func RecordEventRejected(reason string) { globalManager.eventsRejected.WithLabelValues(reason).Inc() }

// RecordAttribution counts an event written to the store.
func RecordAttribution(kind string) { globalManager.attributionsRecorded.WithLabelValues(kind).Inc() }

func UpdateQueueSize(size int)         { globalManager.queueSize.Set(float64(size)) }
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }
func RecordQueueEnqueueError(reason string) {
	globalManager.queueEnqueueErrors.WithLabelValues(reason).Inc()
}
func UpdateWorkerCount(count int) { globalManager.workerCount.Set(float64(count)) }
func RecordWorkerError()          { globalManager.workerErrors.Inc() }

// RecordRankingRebuild observes one successful rebuild and the resulting size.
func RecordRankingRebuild(kind, rng string, durationMs float64, size int) {
	globalManager.rankingRebuildDuration.WithLabelValues(kind, rng).Observe(durationMs)
	globalManager.rankingSize.WithLabelValues(kind, rng).Set(float64(size))
}

// RecordRankingRebuildError counts a rebuild whose records could not be loaded.
func RecordRankingRebuildError(kind, rng string) {
	globalManager.rankingRebuildErrors.WithLabelValues(kind, rng).Inc()
}

func UpdateLastRefreshUnix(unix float64) { globalManager.rankingLastRefreshUnix.Set(unix) }

func RecordStoreLatency(op string, latencyMs float64) {
	globalManager.storeLatency.WithLabelValues(op).Observe(latencyMs)
}
func UpdateStoreSubjects(count int) { globalManager.storeSubjects.Set(float64(count)) }

func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

func UpdateSystemMemoryUsage(bytes uint64) { globalManager.systemMemoryUsage.Set(float64(bytes)) }
func UpdateSystemGoroutineCount(count int) { globalManager.systemGoroutineCount.Set(float64(count)) }

// GetRegistry returns the registry served on /healthz.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
