// Package metrics provides Prometheus metrics for the score sync service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Cycle metrics
	cycles         *prometheus.CounterVec
	cycleDuration  prometheus.Histogram
	lastCycleUnix  prometheus.Gauge
	newHighscores  prometheus.Counter
	newAverages    prometheus.Counter
	registrySize   prometheus.Gauge
	triggers       *prometheus.CounterVec
	recordsIngest  *prometheus.CounterVec
	recordsSkipped *prometheus.CounterVec

	// Collaborator metrics
	cellWrites        *prometheus.CounterVec
	sheetsRequests    *prometheus.CounterVec
	sheetsLatency     *prometheus.HistogramVec
	storeQueryLatency prometheus.Histogram

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error metrics
	errorsByKind      *prometheus.CounterVec
	errorsByComponent *prometheus.CounterVec
}

var globalManager *Manager //nolint:gochecknoglobals // singleton used by package-level recorders

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // shared registry served on /healthz

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "aimsync",
		subsystem:        "sync",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.cycles = m.counterVec("cycles_total", "Reconciliation cycles by outcome", "outcome")
	m.cycleDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "cycle_duration_milliseconds",
		Help:        "Duration of reconciliation cycles in milliseconds",
		Buckets:     []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
		ConstLabels: m.constLabels,
	})
	m.lastCycleUnix = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "last_cycle_unix_seconds",
		Help:        "Completion time of the last successful cycle",
		ConstLabels: m.constLabels,
	})
	m.newHighscores = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "new_highscores_total",
		Help:        "Exercises whose best score improved",
		ConstLabels: m.constLabels,
	})
	m.newAverages = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "new_averages_total",
		Help:        "Exercises whose rolling average changed",
		ConstLabels: m.constLabels,
	})
	m.registrySize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "registry_scenarios",
		Help:        "Exercises tracked in the registry",
		ConstLabels: m.constLabels,
	})
	m.triggers = m.counterVec("triggers_total", "Sync requests by result (accepted, coalesced, closed, cancelled)", "result")
	m.recordsIngest = m.counterVec("records_ingested_total", "Records produced by an ingestor", "source")
	m.recordsSkipped = m.counterVec("records_skipped_total", "Source entries skipped while ingesting", "source")

	m.cellWrites = m.counterVec("cell_writes_total", "Spreadsheet cell writes by result", "result")
	m.sheetsRequests = m.counterVec("sheets_requests_total", "Spreadsheet API requests by operation and result", "op", "result")
	m.sheetsLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "sheets_request_duration_milliseconds",
		Help:        "Spreadsheet API latency in milliseconds",
		Buckets:     []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		ConstLabels: m.constLabels,
	}, []string{"op"})
	m.storeQueryLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "store_query_latency_milliseconds",
		Help:        "Task store query latency in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	})

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "HTTP request duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByKind = m.counterVec("errors_total", "Cycle errors by kind", "kind")
	m.errorsByComponent = m.counterVec("errors_by_component_total", "Errors by component and type", "component", "error_type")
}

// RecordCycle records a finished cycle. outcome is "updated", "up_to_date"
// or "failed".
func RecordCycle(outcome string, d time.Duration) {
	globalManager.cycles.WithLabelValues(outcome).Inc()
	globalManager.cycleDuration.Observe(float64(d.Milliseconds()))
	if outcome != "failed" {
		globalManager.lastCycleUnix.Set(float64(time.Now().Unix()))
	}
}

// RecordNewHighscores adds n improved bests.
func RecordNewHighscores(n int) {
	globalManager.newHighscores.Add(float64(n))
}

// RecordNewAverages adds n changed averages.
func RecordNewAverages(n int) {
	globalManager.newAverages.Add(float64(n))
}

// UpdateRegistrySize sets the number of tracked exercises.
func UpdateRegistrySize(n int) {
	globalManager.registrySize.Set(float64(n))
}

// RecordTrigger counts a sync request.
func RecordTrigger(result string) {
	globalManager.triggers.WithLabelValues(result).Inc()
}

// RecordRecordsIngested adds n records produced by source.
func RecordRecordsIngested(source string, n int) {
	globalManager.recordsIngest.WithLabelValues(source).Add(float64(n))
}

// RecordRecordsSkipped adds n entries skipped by source.
func RecordRecordsSkipped(source string, n int) {
	globalManager.recordsSkipped.WithLabelValues(source).Add(float64(n))
}

// RecordCellWrite counts one cell write.
func RecordCellWrite(ok bool) {
	globalManager.cellWrites.WithLabelValues(result(ok)).Inc()
}

// RecordSheetsRequest records one spreadsheet API call.
func RecordSheetsRequest(op string, d time.Duration, err error) {
	globalManager.sheetsRequests.WithLabelValues(op, result(err == nil)).Inc()
	globalManager.sheetsLatency.WithLabelValues(op).Observe(float64(d.Milliseconds()))
}

// RecordStoreQueryLatency records task store query latency.
func RecordStoreQueryLatency(latencyMs float64) {
	globalManager.storeQueryLatency.Observe(latencyMs)
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordError counts a cycle error by kind label.
func RecordError(kind string) {
	globalManager.errorsByKind.WithLabelValues(kind).Inc()
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

func result(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}
