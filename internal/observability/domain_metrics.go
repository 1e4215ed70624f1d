package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	pipelineRequestsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "askdb_pipeline_requests_total",
			Help: "Total number of translation pipeline runs.",
		},
	)
	pipelineOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askdb_pipeline_outcomes_total",
			Help: "Terminal pipeline outcomes by result label (ok or error kind).",
		},
		[]string{"outcome"},
	)
	pipelineStageDurationMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "askdb_pipeline_stage_duration_ms",
			Help:    "Per-stage pipeline latency in milliseconds.",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
		},
		[]string{"stage"},
	)
	modelCallDurationMs = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "askdb_model_call_duration_ms",
			Help:    "Language model call latency in milliseconds.",
			Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000},
		},
	)
	modelCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askdb_model_calls_total",
			Help: "Total number of language model calls by outcome.",
		},
		[]string{"outcome"},
	)
	rejectedStatementsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "askdb_rejected_statements_total",
			Help: "Total number of generated statements rejected by the safety validator.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		pipelineRequestsTotal,
		pipelineOutcomesTotal,
		pipelineStageDurationMs,
		modelCallDurationMs,
		modelCallsTotal,
		rejectedStatementsTotal,
	)
}

func ObservePipelineRun() {
	pipelineRequestsTotal.Inc()
}

func ObservePipelineOutcome(outcome string) {
	pipelineOutcomesTotal.WithLabelValues(outcome).Inc()
}

func ObserveStageDuration(stage string, elapsed time.Duration) {
	pipelineStageDurationMs.WithLabelValues(stage).Observe(float64(elapsed.Milliseconds()))
}

func ObserveModelCall(outcome string, elapsed time.Duration) {
	modelCallsTotal.WithLabelValues(outcome).Inc()
	modelCallDurationMs.Observe(float64(elapsed.Milliseconds()))
}

func IncrementRejectedStatements() {
	rejectedStatementsTotal.Inc()
}
