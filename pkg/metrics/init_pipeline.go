package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initPipelineMetrics() {
	r.RecordsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "bowtie_records_total",
			Help: "Total number of normalized risk records consumed",
		},
	)

	r.GraphNodes = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "bowtie_graph_nodes",
			Help: "Number of nodes in the most recently built graph",
		},
	)

	r.GraphEdges = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "bowtie_graph_edges",
			Help: "Number of edges in the most recently validated graph",
		},
	)

	r.SkippedEdgesTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "bowtie_dag_skipped_edges_total",
			Help: "Total number of edges dropped to keep the graph acyclic",
		},
	)

	r.PipelineRunsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "bowtie_pipeline_runs_total",
			Help: "Total number of analysis runs",
		},
		[]string{"status"}, // success, error
	)

	r.PipelineRunDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bowtie_pipeline_run_duration_seconds",
			Help:    "Duration of analysis runs in seconds",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1.0, 5.0, 30.0},
		},
	)
}
