// Package metrics provides Prometheus metrics for the pulse analytics engine.
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
	registry         prometheus.Registerer

	// Job pipeline metrics
	jobsSubmitted   *prometheus.CounterVec
	jobsCompleted   *prometheus.CounterVec
	jobsFailed      *prometheus.CounterVec
	jobsRetried     *prometheus.CounterVec
	jobsDuplicate   prometheus.Counter
	jobDuration     *prometheus.HistogramVec
	jobTimeouts     prometheus.Counter
	validationFails prometheus.Counter

	// Queue metrics
	queueSize        prometheus.Gauge
	queueCapacity    prometheus.Gauge
	queueUtilization prometheus.Gauge
	queueEnqueues    prometheus.Counter
	queueDequeues    prometheus.Counter
	queueRejects     prometheus.Counter

	// Worker metrics
	workerCount       prometheus.Gauge
	workerActive      prometheus.Gauge
	workerProcessing  prometheus.Histogram
	workerErrors      prometheus.Counter

	// Domain metrics
	anomaliesFlagged   prometheus.Counter
	fatigueScores      prometheus.Histogram
	fatigueRecords     prometheus.Gauge
	fatigueRecommended *prometheus.CounterVec
	recordsSwept       prometheus.Counter

	// Store metrics
	storeUpserts      prometheus.Counter
	storeInserts      prometheus.Counter
	storeErrors       prometheus.Counter
	storeQueryLatency prometheus.Histogram

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
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
		namespace:        "pulse",
		subsystem:        "engine",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // exhaustive metric registration
	auto := promauto.With(m.registry)

	m.jobsSubmitted = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "jobs_submitted_total",
		Help:      "Total number of jobs accepted for processing, by type",
	}, []string{"type"})

	m.jobsCompleted = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "jobs_completed_total",
		Help:      "Total number of jobs completed successfully, by type",
	}, []string{"type"})

	m.jobsFailed = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "jobs_failed_total",
		Help:      "Total number of terminally failed jobs, by type",
	}, []string{"type"})

	m.jobsRetried = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "jobs_retried_total",
		Help:      "Total number of job retry attempts, by type",
	}, []string{"type"})

	m.jobsDuplicate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "jobs_duplicate_total",
		Help:      "Total number of duplicate job submissions rejected",
	})

	m.jobDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "job_duration_milliseconds",
		Help:      "Histogram of job processing duration in milliseconds, by type",
		Buckets:   m.histogramBuckets,
	}, []string{"type"})

	m.jobTimeouts = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "job_timeouts_total",
		Help:      "Total number of jobs that exceeded their wall-clock budget",
	})

	m.validationFails = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "job_validation_failures_total",
		Help:      "Total number of jobs rejected by payload validation",
	})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_size",
		Help:      "Current size of the job queue",
	})

	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_capacity",
		Help:      "Configured capacity of the job queue",
	})

	m.queueUtilization = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_utilization",
		Help:      "Queue size as a fraction of capacity",
	})

	m.queueEnqueues = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_enqueues_total",
		Help:      "Total number of jobs enqueued",
	})

	m.queueDequeues = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_dequeues_total",
		Help:      "Total number of jobs dequeued",
	})

	m.queueRejects = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_rejects_total",
		Help:      "Total number of enqueue attempts rejected (full or closed)",
	})

	m.workerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_count",
		Help:      "Configured number of workers",
	})

	m.workerActive = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_active",
		Help:      "Number of running workers",
	})

	m.workerProcessing = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_processing_milliseconds",
		Help:      "Histogram of end-to-end worker processing time in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.workerErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_errors_total",
		Help:      "Total number of worker-level processing errors",
	})

	m.anomaliesFlagged = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "anomalies_flagged_total",
		Help:      "Total number of anomaly findings emitted",
	})

	m.fatigueScores = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "fatigue_score",
		Help:      "Histogram of computed fatigue scores",
		Buckets:   []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
	})

	m.fatigueRecords = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "fatigue_records",
		Help:      "Current number of fatigue records in the store",
	})

	m.fatigueRecommended = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "fatigue_recommendations_total",
		Help:      "Total number of fatigue recommendations issued, by action",
	}, []string{"recommendation"})

	m.recordsSwept = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "fatigue_records_swept_total",
		Help:      "Total number of fatigue records removed by the retention sweep",
	})

	m.storeUpserts = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_upserts_total",
		Help:      "Total number of in-place fatigue record updates",
	})

	m.storeInserts = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_inserts_total",
		Help:      "Total number of new fatigue records created",
	})

	m.storeErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_errors_total",
		Help:      "Total number of store operation errors",
	})

	m.storeQueryLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_query_latency_milliseconds",
		Help:      "Histogram of store query latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests by endpoint, method and status",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_bytes",
		Help:      "Current allocated heap memory in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutines",
		Help:      "Current number of goroutines",
	})
}

// Package-level helpers operating on the global manager.

func RecordJobSubmitted(jobType string) { globalManager.jobsSubmitted.WithLabelValues(jobType).Inc() }
func RecordJobCompleted(jobType string) { globalManager.jobsCompleted.WithLabelValues(jobType).Inc() }
func RecordJobFailed(jobType string)    { globalManager.jobsFailed.WithLabelValues(jobType).Inc() }
func RecordJobRetried(jobType string)   { globalManager.jobsRetried.WithLabelValues(jobType).Inc() }
func RecordJobDuplicate()               { globalManager.jobsDuplicate.Inc() }
func RecordJobTimeout()                 { globalManager.jobTimeouts.Inc() }
func RecordValidationFailure()          { globalManager.validationFails.Inc() }

func RecordJobDuration(jobType string, ms float64) {
	globalManager.jobDuration.WithLabelValues(jobType).Observe(ms)
}

func UpdateQueueSize(size int)         { globalManager.queueSize.Set(float64(size)) }
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }
func UpdateQueueUtilization(u float64) { globalManager.queueUtilization.Set(u) }
func RecordQueueEnqueue()              { globalManager.queueEnqueues.Inc() }
func RecordQueueDequeue()              { globalManager.queueDequeues.Inc() }
func RecordQueueReject()               { globalManager.queueRejects.Inc() }

func UpdateWorkerCount(count int)  { globalManager.workerCount.Set(float64(count)) }
func UpdateWorkerActive(count int) { globalManager.workerActive.Set(float64(count)) }
func RecordWorkerError()           { globalManager.workerErrors.Inc() }

func RecordWorkerProcessingLatency(ms float64) {
	globalManager.workerProcessing.Observe(ms)
}

func RecordAnomaliesFlagged(n int) {
	if n > 0 {
		globalManager.anomaliesFlagged.Add(float64(n))
	}
}

func RecordFatigueScore(score float64) { globalManager.fatigueScores.Observe(score) }
func UpdateFatigueRecords(count int)   { globalManager.fatigueRecords.Set(float64(count)) }
func RecordRecordsSwept(n int)         { globalManager.recordsSwept.Add(float64(n)) }

func RecordFatigueRecommendation(recommendation string) {
	globalManager.fatigueRecommended.WithLabelValues(recommendation).Inc()
}

func RecordStoreUpsert()                 { globalManager.storeUpserts.Inc() }
func RecordStoreInsert()                 { globalManager.storeInserts.Inc() }
func RecordStoreError()                  { globalManager.storeErrors.Inc() }
func RecordStoreQueryLatency(ms float64) { globalManager.storeQueryLatency.Observe(ms) }

func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

func RecordHTTPRequestDuration(endpoint, method, statusCode string, ms float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(ms)
}

func UpdateSystemMemoryUsage(bytes uint64) { globalManager.systemMemoryUsage.Set(float64(bytes)) }
func UpdateSystemGoroutineCount(count int) { globalManager.systemGoroutineCount.Set(float64(count)) }

// GetRegistry returns the custom Prometheus registry used by the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
