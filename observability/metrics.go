// Package observability provides Prometheus metrics for the API.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Simulation outcome labels.
const (
	OutcomeOK            = "ok"
	OutcomeInvalid       = "invalid_input"
	OutcomeNonAmortizing = "non_amortizing"
	OutcomeHorizon       = "horizon_exceeded"
	OutcomeError         = "error"
)

// Metrics holds all Prometheus metrics for the application. Each instance
// owns its registry so tests can build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RateLimited     prometheus.Counter

	// Simulator
	SimulationsTotal *prometheus.CounterVec
	SimulationMonths prometheus.Histogram
	CacheLookups     *prometheus.CounterVec

	// AI
	AdviceRequests *prometheus.CounterVec
}

// NewMetrics creates a Metrics instance with every collector registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "fintrack"
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by route and status code",
		}, []string{"route", "method", "code"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		RateLimited: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter",
		}),

		SimulationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "runs_total",
			Help:      "Debt simulations by outcome",
		}, []string{"outcome"}),
		SimulationMonths: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "payoff_months",
			Help:      "Months to payoff of successful simulations",
			Buckets:   []float64{6, 12, 24, 36, 60, 120, 240, 600, 1200},
		}),
		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "cache_lookups_total",
			Help:      "Simulation cache lookups by result (hit, miss, error)",
		}, []string{"result"}),

		AdviceRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ai",
			Name:      "advice_requests_total",
			Help:      "Debt advice requests by source (model, fallback)",
		}, []string{"source"}),
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the /metrics HTTP handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
