package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initInferenceMetrics() {
	r.InferenceQueriesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "bowtie_inference_queries_total",
			Help: "Total number of inference queries",
		},
		[]string{"backend", "status"},
	)

	r.InferenceQueryDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bowtie_inference_query_duration_seconds",
			Help:    "Inference query duration in seconds",
			Buckets: []float64{0.00001, 0.0001, 0.001, 0.01, 0.1, 1.0},
		},
		[]string{"backend"},
	)

	r.AnalysisDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bowtie_analysis_duration_seconds",
			Help:    "Risk analysis duration in seconds",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 1.0, 10.0},
		},
		[]string{"analysis"}, // propagate, critical_path
	)

	r.AnalysisRootFailures = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "bowtie_analysis_root_failures_total",
			Help: "Total number of roots excluded from critical-path ranking after a failed query",
		},
	)
}
