package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Invocation metrics
	InvocationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentmux_invocations_total",
			Help: "Total number of orchestration invocations by outcome",
		},
		[]string{"outcome"},
	)

	InvocationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "agentmux_invocation_duration_seconds",
			Help:    "End-to-end orchestration duration in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agentmux_stage_duration_seconds",
			Help:    "Duration of each pipeline stage in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	// Decomposition metrics
	DecompositionFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "agentmux_decomposition_fallbacks_total",
			Help: "Decompositions that could not be parsed and fell back to the whole question",
		},
	)

	SubQuestionsPerInvocation = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "agentmux_sub_questions",
			Help:    "Number of sub-questions produced per decomposition",
			Buckets: []float64{1, 2, 3, 4, 5, 8, 13},
		},
	)

	// Dispatch metrics
	DispatchResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentmux_dispatch_results_total",
			Help: "Dispatch outcomes per responder",
		},
		[]string{"responder", "outcome"},
	)

	// Completion client metrics
	CompletionRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentmux_completion_requests_total",
			Help: "Completion backend requests by routing kind and status",
		},
		[]string{"kind", "status"},
	)

	CompletionLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agentmux_completion_latency_seconds",
			Help:    "Completion backend round-trip latency in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"kind"},
	)

	// HTTP entry point metrics
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentmux_http_requests_total",
			Help: "HTTP requests served by route and status code",
		},
		[]string{"route", "code"},
	)
)

// Outcome labels shared by the counters above.
const (
	OutcomeSuccess    = "success"
	OutcomeInputError = "input_error"
	OutcomeFailed     = "failed"
	OutcomeNotFound   = "not_found"
)
