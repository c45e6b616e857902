// Package observability provides Prometheus metrics and the monitoring HTTP
// server.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "audio_transcription"

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Job metrics
	JobsQueued    prometheus.Counter
	JobsRejected  prometheus.Counter
	JobsCompleted prometheus.Counter
	JobsTimedOut  prometheus.Counter
	JobsFailed    *prometheus.CounterVec
	QueueWait     prometheus.Histogram
	JobDuration   prometheus.Histogram
	WorkersBusy   prometheus.Gauge

	// Upload metrics
	UploadBytes     prometheus.Counter
	UploadsRejected *prometheus.CounterVec

	// Batch metrics
	BatchSize prometheus.Histogram

	// Event publish metrics
	EventPublishTotal  *prometheus.CounterVec
	EventPublishErrors *prometheus.CounterVec
}

// DefaultMetrics is the global metrics instance. promauto registers against
// the default registry, so NewMetrics must not be called a second time.
var DefaultMetrics = NewMetrics()

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		JobsQueued: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_queued_total",
			Help:      "Total number of jobs admitted to the wait queue",
		}),
		JobsRejected: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_rejected_total",
			Help:      "Total number of jobs rejected because the queue was full",
		}),
		JobsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_completed_total",
			Help:      "Total number of jobs that produced a transcript",
		}),
		JobsTimedOut: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_timed_out_total",
			Help:      "Total number of jobs whose deadline elapsed",
		}),
		JobsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_failed_total",
			Help:      "Total number of failed jobs",
		}, []string{"kind"}),
		QueueWait: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_queue_wait_seconds",
			Help:      "Time jobs spent waiting for a worker",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60},
		}),
		JobDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_run_seconds",
			Help:      "Engine invocation duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		}),
		WorkersBusy: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "workers_busy",
			Help:      "Number of workers currently invoking the engine",
		}),
		UploadBytes: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upload_bytes_total",
			Help:      "Total audio bytes accepted by ingest",
		}),
		UploadsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_rejected_total",
			Help:      "Total uploads rejected before scheduling",
		}, []string{"kind"}),
		BatchSize: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size_files",
			Help:      "Number of files per batch request",
			Buckets:   []float64{1, 2, 5, 10, 20, 50},
		}),
		EventPublishTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_publish_total",
			Help:      "Total number of transcript events published",
		}, []string{"topic", "event_type"}),
		EventPublishErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_publish_errors_total",
			Help:      "Total number of transcript event publish errors",
		}, []string{"topic", "event_type"}),
	}
}

// RecordJobQueued records a job entering the wait queue.
func (m *Metrics) RecordJobQueued() {
	m.JobsQueued.Inc()
}

// RecordJobRejected records an admission rejection.
func (m *Metrics) RecordJobRejected() {
	m.JobsRejected.Inc()
}

// RecordJobDequeued records a job leaving the queue after waitSeconds.
func (m *Metrics) RecordJobDequeued(waitSeconds float64) {
	m.QueueWait.Observe(waitSeconds)
}

// RecordJobCompleted records a successful engine invocation.
func (m *Metrics) RecordJobCompleted(runSeconds float64) {
	m.JobsCompleted.Inc()
	m.JobDuration.Observe(runSeconds)
}

// RecordJobFailed records a failed job by error kind.
func (m *Metrics) RecordJobFailed(kind string) {
	m.JobsFailed.WithLabelValues(kind).Inc()
}

// RecordJobTimedOut records a job whose deadline elapsed.
func (m *Metrics) RecordJobTimedOut() {
	m.JobsTimedOut.Inc()
}

// RecordWorkerBusy marks a worker as running an invocation.
func (m *Metrics) RecordWorkerBusy() {
	m.WorkersBusy.Inc()
}

// RecordWorkerIdle marks a worker as free again.
func (m *Metrics) RecordWorkerIdle() {
	m.WorkersBusy.Dec()
}

// RecordUploadAccepted records accepted upload bytes.
func (m *Metrics) RecordUploadAccepted(bytes int64) {
	m.UploadBytes.Add(float64(bytes))
}

// RecordUploadRejected records an upload rejected before scheduling.
func (m *Metrics) RecordUploadRejected(kind string) {
	m.UploadsRejected.WithLabelValues(kind).Inc()
}

// RecordBatch records the size of a batch request.
func (m *Metrics) RecordBatch(files int) {
	m.BatchSize.Observe(float64(files))
}

// RecordEventPublish records a transcript event publish attempt.
func (m *Metrics) RecordEventPublish(topic, eventType string, err error) {
	m.EventPublishTotal.WithLabelValues(topic, eventType).Inc()
	if err != nil {
		m.EventPublishErrors.WithLabelValues(topic, eventType).Inc()
	}
}
