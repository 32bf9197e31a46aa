// Package metrics exposes Prometheus collectors for planning runs
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/arnavshah/trip-planner-go/pkg/planner"
)

// Metrics holds the service collectors on a private registry
type Metrics struct {
	registry *prometheus.Registry

	PlanRuns          *prometheus.CounterVec
	PlanDuration      prometheus.Histogram
	Assignments       *prometheus.CounterVec
	RequiredUnplaced  prometheus.Counter
	HardViolations    *prometheus.CounterVec
	HTTPRequests      *prometheus.CounterVec
	HTTPRequestTiming *prometheus.HistogramVec
}

// New registers every collector under namespace
func New(namespace string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		PlanRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plan_runs_total",
			Help:      "Planning runs by outcome.",
		}, []string{"outcome"}),
		PlanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "plan_duration_seconds",
			Help:      "Wall time of the normalize, solve and audit pipeline.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		Assignments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assignments_total",
			Help:      "Output assignments by source.",
		}, []string{"source"}),
		RequiredUnplaced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "required_unplaced_total",
			Help:      "Required visits the solver could not place.",
		}),
		HardViolations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hard_violations_total",
			Help:      "Validator findings by violation type.",
		}, []string{"type"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		HTTPRequestTiming: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	m.registry.MustRegister(
		m.PlanRuns,
		m.PlanDuration,
		m.Assignments,
		m.RequiredUnplaced,
		m.HardViolations,
		m.HTTPRequests,
		m.HTTPRequestTiming,
	)
	return m
}

// Registry returns the private registry, mostly for tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObservePlan records a finished run. A nil outcome counts as a failure.
func (m *Metrics) ObservePlan(o *planner.Outcome, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.PlanDuration.Observe(elapsed.Seconds())
	if o == nil {
		m.PlanRuns.WithLabelValues("error").Inc()
		return
	}
	outcome := "clean"
	if o.HasFindings() {
		outcome = "findings"
	}
	m.PlanRuns.WithLabelValues(outcome).Inc()
	for _, a := range o.Result.Assignments {
		m.Assignments.WithLabelValues(string(a.Source)).Inc()
	}
	m.RequiredUnplaced.Add(float64(len(o.Result.Unassigned)))
	for kind, n := range o.Report.Audit.Counts() {
		m.HardViolations.WithLabelValues(kind).Add(float64(n))
	}
}

// ObserveRequest records one HTTP request
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestTiming.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
