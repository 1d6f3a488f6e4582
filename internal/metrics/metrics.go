package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcomes recorded for workflow transitions.
const (
	OutcomeOK      = "ok"
	OutcomeDenied  = "denied"
	OutcomeInvalid = "invalid"
)

var (
	workflowTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskflow_workflow_transitions_total",
			Help: "Workflow transitions attempted, by transition and outcome",
		},
		[]string{"transition", "outcome"},
	)

	milestoneAutoCompletionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "taskflow_milestone_autocompletions_total",
			Help: "Tasks completed because their last milestone was completed",
		},
	)

	hierarchyCyclesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "taskflow_hierarchy_cycles_total",
			Help: "Times the manager hierarchy was loaded with a cycle in it",
		},
	)

	apiRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskflow_api_requests_total",
			Help: "HTTP requests served, by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	apiRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "taskflow_api_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

func init() {
	prometheus.MustRegister(workflowTransitionsTotal)
	prometheus.MustRegister(milestoneAutoCompletionsTotal)
	prometheus.MustRegister(hierarchyCyclesTotal)
	prometheus.MustRegister(apiRequestsTotal)
	prometheus.MustRegister(apiRequestDuration)
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

func RecordTransition(transition, outcome string) {
	workflowTransitionsTotal.WithLabelValues(transition, outcome).Inc()
}

func RecordAutoCompletion() {
	milestoneAutoCompletionsTotal.Inc()
}

func RecordHierarchyCycle() {
	hierarchyCyclesTotal.Inc()
}

func RecordAPIRequest(method, route, status string, seconds float64) {
	apiRequestsTotal.WithLabelValues(method, route, status).Inc()
	apiRequestDuration.WithLabelValues(method, route).Observe(seconds)
}
