package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TasksSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "labtasker_tasks_submitted_total",
			Help: "Total number of tasks submitted",
		},
		[]string{"queue", "priority"},
	)

	TasksCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "labtasker_tasks_completed_total",
			Help: "Total number of tasks reaching a terminal status",
		},
		[]string{"queue", "status"},
	)

	TaskDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "labtasker_task_duration_seconds",
			Help:    "Time a task spent RUNNING before its final report",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
		},
		[]string{"queue"},
	)

	TaskRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "labtasker_task_retries_total",
			Help: "Total number of task retry transitions (RUNNING -> PENDING)",
		},
		[]string{"queue"},
	)

	QueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "labtasker_queue_depth",
			Help: "Current number of PENDING tasks per queue/priority",
		},
		[]string{"queue", "priority"},
	)

	QueueLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "labtasker_queue_latency_seconds",
			Help:    "Time a task spent PENDING before dispatch",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
		},
		[]string{"queue", "priority"},
	)

	ActiveWorkers = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "labtasker_active_workers",
			Help: "Current number of ACTIVE workers per queue",
		},
		[]string{"queue"},
	)

	WorkerCrashes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "labtasker_worker_crashes_total",
			Help: "Total number of ACTIVE -> CRASHED transitions",
		},
		[]string{"queue"},
	)

	SweepTimeouts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "labtasker_sweep_timeouts_total",
			Help: "Total number of tasks forced out of RUNNING by the sweeper",
		},
		[]string{"queue"},
	)

	SweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "labtasker_sweep_duration_seconds",
			Help:    "Wall-clock time of a single sweeper pass",
			Buckets: prometheus.DefBuckets,
		},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "labtasker_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "labtasker_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "labtasker_store_operation_duration_seconds",
			Help:    "Storage engine operation duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12),
		},
		[]string{"operation"},
	)

	StoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "labtasker_store_errors_total",
			Help: "Total number of storage engine errors",
		},
		[]string{"operation"},
	)

	SSEConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "labtasker_sse_connections",
			Help: "Current number of connected SSE subscribers",
		},
	)

	SSEEventsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "labtasker_sse_events_sent_total",
			Help: "Total number of SSE event frames sent",
		},
		[]string{"queue"},
	)
)

func RecordTaskSubmission(queue, priority string) {
	TasksSubmitted.WithLabelValues(queue, priority).Inc()
}

func RecordTaskCompletion(queue, status string, durationSeconds float64) {
	TasksCompleted.WithLabelValues(queue, status).Inc()
	TaskDuration.WithLabelValues(queue).Observe(durationSeconds)
}

func RecordTaskRetry(queue string) {
	TaskRetries.WithLabelValues(queue).Inc()
}

func UpdateQueueDepth(queue, priority string, depth float64) {
	QueueDepth.WithLabelValues(queue, priority).Set(depth)
}

func RecordQueueLatency(queue, priority string, latencySeconds float64) {
	QueueLatency.WithLabelValues(queue, priority).Observe(latencySeconds)
}

func SetActiveWorkers(queue string, count float64) {
	ActiveWorkers.WithLabelValues(queue).Set(count)
}

func RecordWorkerCrash(queue string) {
	WorkerCrashes.WithLabelValues(queue).Inc()
}

func RecordSweepTimeout(queue string) {
	SweepTimeouts.WithLabelValues(queue).Inc()
}

func RecordSweepDuration(durationSeconds float64) {
	SweepDuration.Observe(durationSeconds)
}

func RecordHTTPRequest(method, path, status string, durationSeconds float64) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(durationSeconds)
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
}

func RecordStoreOperation(operation string, durationSeconds float64) {
	StoreOperationDuration.WithLabelValues(operation).Observe(durationSeconds)
}

func RecordStoreError(operation string) {
	StoreErrors.WithLabelValues(operation).Inc()
}

func SetSSEConnections(count float64) {
	SSEConnections.Set(count)
}

func RecordSSEEventSent(queue string) {
	SSEEventsSent.WithLabelValues(queue).Inc()
}
