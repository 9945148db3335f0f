// Package metrics exposes prometheus instrumentation for analysis runs.
// A nil *Registry is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics for one process or one test.
type Registry struct {
	// Pipeline Metrics
	RecordsTotal        prometheus.Counter
	GraphNodes          prometheus.Gauge
	GraphEdges          prometheus.Gauge
	SkippedEdgesTotal   prometheus.Counter
	PipelineRunsTotal   *prometheus.CounterVec
	PipelineRunDuration prometheus.Histogram

	// CPT Metrics
	CPTFitsTotal      *prometheus.CounterVec
	CPTFallbacksTotal prometheus.Counter
	CPTFitDuration    *prometheus.HistogramVec
	ClampedRatings    prometheus.Counter

	// Inference Metrics
	InferenceQueriesTotal  *prometheus.CounterVec
	InferenceQueryDuration *prometheus.HistogramVec
	AnalysisDuration       *prometheus.HistogramVec
	AnalysisRootFailures   prometheus.Counter

	// System Metrics
	GoRoutines       prometheus.Gauge
	MemoryAllocBytes prometheus.Gauge

	registry *prometheus.Registry
}

// NewRegistry creates a new metrics registry with all metrics initialized
// on a private prometheus registry.
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
	}

	r.initPipelineMetrics()
	r.initCPTMetrics()
	r.initInferenceMetrics()
	r.initSystemMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}
