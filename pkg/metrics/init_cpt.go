package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initCPTMetrics() {
	r.CPTFitsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "bowtie_cpt_fits_total",
			Help: "Total number of networks fitted, by effective mode",
		},
		[]string{"mode"}, // templated, learned
	)

	r.CPTFallbacksTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "bowtie_cpt_fallbacks_total",
			Help: "Total number of learned fits that fell back to templates",
		},
	)

	r.CPTFitDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bowtie_cpt_fit_duration_seconds",
			Help:    "CPT synthesis duration in seconds",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 1.0, 10.0},
		},
		[]string{"mode"},
	)

	r.ClampedRatings = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "bowtie_discretize_clamped_total",
			Help: "Total number of out-of-range ratings clamped during discretization",
		},
	)
}
