// Package metrics provides Prometheus metrics for the huddle matching service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for matching runs.
const (
	OutcomeDone     = "done"
	OutcomeFailed   = "failed"
	OutcomeRejected = "rejected"
)

// Manager manages all Prometheus metrics for the huddle service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Core Business Metrics - What matters for a matching run
	matchingRuns        *prometheus.CounterVec
	matchingDuration    prometheus.Histogram
	optimizerIterations prometheus.Histogram
	optimizerSwaps      prometheus.Histogram
	teamTotals          *prometheus.HistogramVec
	teamSpread          prometheus.Histogram
	profileFallbacks    prometheus.Counter
	participantsPerRun  prometheus.Histogram
	requestsDuplicate   prometheus.Counter

	// Operational Health Metrics
	queueSize   prometheus.Gauge
	workerCount prometheus.Gauge
	runsStored  prometheus.Gauge
	runsEvicted prometheus.Counter

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Queue Metrics - Job queue performance
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueueRate   prometheus.Counter
	queueDequeueRate   prometheus.Counter
	queueEnqueueErrors prometheus.Counter
	queueWaitLatency   prometheus.Histogram

	// Worker Metrics - Processing performance
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrorRate         prometheus.Counter

	// Error Metrics - Detailed error tracking
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

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

// Configure rebuilds the global metrics on a fresh registry using opts.
// It must run before anything records a metric or serves GetRegistry,
// which in practice means once at process startup.
func Configure(opts ...Option) {
	registry := prometheus.NewRegistry()
	globalManager = NewManager(append(opts, WithPrometheusRegistry(registry))...)
	customRegistry = registry
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "huddle",
		subsystem:        "matching",
		histogramBuckets: prometheus.DefBuckets,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.customLabels,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	// Core Business Metrics
	m.matchingRuns = auto.NewCounterVec(
		m.counterOpts("runs_total", "Total number of matching runs by resolved profile and outcome"),
		[]string{"profile", "outcome"},
	)
	m.matchingDuration = auto.NewHistogram(m.histogramOpts(
		"run_duration_milliseconds", "Histogram of engine run time in milliseconds",
		prometheus.ExponentialBuckets(1, 2, 14),
	))
	m.optimizerIterations = auto.NewHistogram(m.histogramOpts(
		"optimizer_iterations", "Improvement scans performed per run",
		[]float64{1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	))
	m.optimizerSwaps = auto.NewHistogram(m.histogramOpts(
		"optimizer_swaps", "Member exchanges applied per run",
		[]float64{0, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	))
	m.teamTotals = auto.NewHistogramVec(
		m.histogramOpts("team_total", "Weighted total of each produced team", prometheus.LinearBuckets(0, 10, 11)),
		[]string{"profile"},
	)
	m.teamSpread = auto.NewHistogram(m.histogramOpts(
		"team_total_stddev", "Population standard deviation of team totals per run",
		[]float64{0, 0.5, 1, 2, 3, 5, 8, 13, 21},
	))
	m.profileFallbacks = auto.NewCounter(m.counterOpts(
		"profile_fallbacks_total", "Runs whose requested profile was unknown and fell back to the default",
	))
	m.participantsPerRun = auto.NewHistogram(m.histogramOpts(
		"participants_per_run", "Roster size per run",
		prometheus.ExponentialBuckets(2, 2, 10),
	))
	m.requestsDuplicate = auto.NewCounter(m.counterOpts(
		"requests_duplicate_total", "Submissions answered from an earlier request id",
	))

	// Operational Health Metrics
	m.queueSize = auto.NewGauge(m.gaugeOpts("queue_size", "Current number of queued matching jobs"))
	m.workerCount = auto.NewGauge(m.gaugeOpts("worker_count", "Configured number of workers"))
	m.runsStored = auto.NewGauge(m.gaugeOpts("runs_stored", "Runs currently held in the run store"))
	m.runsEvicted = auto.NewCounter(m.counterOpts("runs_evicted_total", "Finished runs evicted from the run store"))

	// HTTP Performance Metrics
	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"},
	)

	// Queue Metrics
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("queue_capacity", "Maximum capacity of the job queue"))
	m.queueUtilization = auto.NewGauge(m.gaugeOpts("queue_utilization_ratio", "Current queue utilization ratio (0-1)"))
	m.queueEnqueueRate = auto.NewCounter(m.counterOpts("queue_enqueue_total", "Total number of jobs enqueued"))
	m.queueDequeueRate = auto.NewCounter(m.counterOpts("queue_dequeue_total", "Total number of jobs dequeued"))
	m.queueEnqueueErrors = auto.NewCounter(m.counterOpts("queue_enqueue_errors_total", "Total number of rejected enqueues"))
	m.queueWaitLatency = auto.NewHistogram(m.histogramOpts(
		"queue_wait_milliseconds", "Time a job spent queued before a worker picked it up", m.histogramBuckets,
	))

	// Worker Metrics
	m.workerActiveCount = auto.NewGauge(m.gaugeOpts("worker_active_count", "Number of workers currently running a job"))
	m.workerProcessingLatency = auto.NewHistogram(m.histogramOpts(
		"worker_processing_latency_milliseconds", "Worker job processing latency in milliseconds",
		prometheus.ExponentialBuckets(1, 2, 14),
	))
	m.workerErrorRate = auto.NewCounter(m.counterOpts("worker_errors_total", "Total number of failed jobs"))

	// Error Metrics
	m.errorRateByComponent = auto.NewCounterVec(
		m.counterOpts("errors_by_component_total", "Total errors by component"),
		[]string{"component", "error_type"},
	)
	m.errorRateByType = auto.NewCounterVec(
		m.counterOpts("errors_by_type_total", "Total errors by type and severity"),
		[]string{"error_type", "severity"},
	)
	m.errorRateByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "Total errors by HTTP endpoint"),
		[]string{"endpoint", "method", "error_type"},
	)

	// System Performance Metrics
	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "System memory usage in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts(
		"system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	))
}

// RecordMatchingRun counts a finished run under its resolved profile.
func RecordMatchingRun(profile, outcome string) {
	globalManager.matchingRuns.WithLabelValues(profile, outcome).Inc()
}

// RecordMatchingDuration records engine run time in milliseconds.
func RecordMatchingDuration(durationMs float64) {
	globalManager.matchingDuration.Observe(durationMs)
}

// RecordOptimizer records iterations and swaps of one optimizer pass.
func RecordOptimizer(iterations, swaps int) {
	globalManager.optimizerIterations.Observe(float64(iterations))
	globalManager.optimizerSwaps.Observe(float64(swaps))
}

// RecordTeamTotal records one team's weighted total.
func RecordTeamTotal(profile string, total float64) {
	globalManager.teamTotals.WithLabelValues(profile).Observe(total)
}

// RecordTeamSpread records the standard deviation of a run's team totals.
func RecordTeamSpread(stddev float64) {
	globalManager.teamSpread.Observe(stddev)
}

// RecordProfileFallback increments the unknown-profile counter.
func RecordProfileFallback() {
	globalManager.profileFallbacks.Inc()
}

// RecordParticipants records the roster size of a run.
func RecordParticipants(n int) {
	globalManager.participantsPerRun.Observe(float64(n))
}

// RecordRequestDuplicate increments the duplicate request counter.
func RecordRequestDuplicate() {
	globalManager.requestsDuplicate.Inc()
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateWorkerCount sets the current worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// UpdateRunsStored sets the number of runs held in the store.
func UpdateRunsStored(count int) {
	globalManager.runsStored.Set(float64(count))
}

// RecordRunEvicted increments the evicted runs counter.
func RecordRunEvicted() {
	globalManager.runsEvicted.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Queue Metrics Functions.

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueueRate.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeueRate.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// RecordQueueWait records how long a job waited in the queue.
func RecordQueueWait(latencyMs float64) {
	globalManager.queueWaitLatency.Observe(latencyMs)
}

// Worker Metrics Functions.

// UpdateWorkerActiveCount sets the number of active workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrorRate.Inc()
}

// Error Metrics Functions.

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

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
