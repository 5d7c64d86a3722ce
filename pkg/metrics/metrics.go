package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Ingestion metrics
	RecordsLoaded    *prometheus.CounterVec
	RecordsSkipped   *prometheus.CounterVec
	BatchFlushes     *prometheus.CounterVec
	IngestDuration   *prometheus.HistogramVec
	ResolverFailures *prometheus.CounterVec

	// Eligibility metrics
	Evaluations        *prometheus.CounterVec
	EvaluationDuration prometheus.Histogram
	CohortReports      prometheus.Counter
}

// New creates and registers all application metrics
func New(namespace string) *Metrics {
	return &Metrics{
		RecordsLoaded: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_loaded_total",
			Help:      "Total number of records loaded into the normalized store",
		}, []string{"resource_type"}),
		RecordsSkipped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_skipped_total",
			Help:      "Total number of records skipped during ingestion",
		}, []string{"resource_type", "reason"}),
		BatchFlushes: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_flushes_total",
			Help:      "Total number of bulk write batches flushed to storage",
		}, []string{"resource_type"}),
		IngestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ingest_duration_seconds",
			Help:      "Time spent loading each resource type",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"resource_type"}),
		ResolverFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reference_resolution_failures_total",
			Help:      "Total number of reference resolution failures",
		}, []string{"resource_type", "kind"}),
		Evaluations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "eligibility_evaluations_total",
			Help:      "Total number of eligibility evaluations by resulting status",
		}, []string{"status"}),
		EvaluationDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "eligibility_evaluation_duration_seconds",
			Help:      "Time spent evaluating a single patient",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1},
		}),
		CohortReports: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cohort_reports_total",
			Help:      "Total number of cohort reports generated",
		}),
	}
}
