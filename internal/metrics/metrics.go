// Package metrics exposes Prometheus metrics for pipeline runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FilesProcessed counts finished file tasks by pipeline and outcome
	// (success, skipped, no_data, failed).
	FilesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "brokerflow",
		Name:      "files_processed_total",
		Help:      "Input files handled by a pipeline, by outcome.",
	}, []string{"pipeline", "status"})

	FileDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "brokerflow",
		Name:      "file_duration_seconds",
		Help:      "Wall time spent on one input file.",
		Buckets:   []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
	}, []string{"pipeline"})

	RecordsParsed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "brokerflow",
		Name:      "records_parsed_total",
		Help:      "Transaction records kept after filtering.",
	}, []string{"pipeline"})

	ArtifactsWritten = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "brokerflow",
		Name:      "artifacts_written_total",
		Help:      "CSV artifacts uploaded to the object store.",
	}, []string{"pipeline"})

	BatchesCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "brokerflow",
		Name:      "batches_completed_total",
		Help:      "Scheduler batches that settled.",
	}, []string{"pipeline"})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "brokerflow",
		Name:      "http_requests_total",
		Help:      "Ops API requests by route and status code.",
	}, []string{"route", "code"})
)

// ObserveFile records the outcome and duration of one file task.
func ObserveFile(pipeline, status string, elapsed time.Duration) {
	FilesProcessed.WithLabelValues(pipeline, status).Inc()
	FileDuration.WithLabelValues(pipeline).Observe(elapsed.Seconds())
}

func AddRecords(pipeline string, n int) {
	RecordsParsed.WithLabelValues(pipeline).Add(float64(n))
}

func AddArtifacts(pipeline string, n int) {
	ArtifactsWritten.WithLabelValues(pipeline).Add(float64(n))
}

func BatchDone(pipeline string) {
	BatchesCompleted.WithLabelValues(pipeline).Inc()
}
