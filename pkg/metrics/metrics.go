package metrics

import (
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordGraph records the size of a built graph and the edges dropped by
// cycle pruning.
func (r *Registry) RecordGraph(records, nodes, edges, skipped int) {
	if r == nil {
		return
	}
	r.RecordsTotal.Add(float64(records))
	r.GraphNodes.Set(float64(nodes))
	r.GraphEdges.Set(float64(edges))
	r.SkippedEdgesTotal.Add(float64(skipped))
}

// RecordRun records a complete pipeline run
func (r *Registry) RecordRun(err error, duration time.Duration) {
	if r == nil {
		return
	}
	r.PipelineRunsTotal.WithLabelValues(status(err)).Inc()
	r.PipelineRunDuration.Observe(duration.Seconds())
}

// RecordFit records a CPT synthesis. mode is the effective mode after any
// fallback.
func (r *Registry) RecordFit(mode string, fellBack bool, clamped int, duration time.Duration) {
	if r == nil {
		return
	}
	r.CPTFitsTotal.WithLabelValues(mode).Inc()
	r.CPTFitDuration.WithLabelValues(mode).Observe(duration.Seconds())
	if fellBack {
		r.CPTFallbacksTotal.Inc()
	}
	r.ClampedRatings.Add(float64(clamped))
}

// RecordQuery records an inference query
func (r *Registry) RecordQuery(backend string, err error, duration time.Duration) {
	if r == nil {
		return
	}
	r.InferenceQueriesTotal.WithLabelValues(backend, status(err)).Inc()
	r.InferenceQueryDuration.WithLabelValues(backend).Observe(duration.Seconds())
}

// RecordAnalysis records one propagation or critical-path analysis.
func (r *Registry) RecordAnalysis(analysis string, failedRoots int, duration time.Duration) {
	if r == nil {
		return
	}
	r.AnalysisDuration.WithLabelValues(analysis).Observe(duration.Seconds())
	r.AnalysisRootFailures.Add(float64(failedRoots))
}

// UpdateSystemMetrics samples runtime statistics
func (r *Registry) UpdateSystemMetrics() {
	if r == nil {
		return
	}
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	r.GoRoutines.Set(float64(runtime.NumGoroutine()))
	r.MemoryAllocBytes.Set(float64(m.Alloc))
}

// WriteToTextfile writes the registry in the text exposition format, for
// batch runs without a scrape endpoint.
func (r *Registry) WriteToTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.GetPrometheusRegistry())
}
