// Package metrics exposes Prometheus instrumentation for salesq.
//
// Everything registers on a private registry so tests and embedded uses
// never collide with the global default registry.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sony/gobreaker/v2"

	"github.com/spektr-org/salesq/chat"
	"github.com/spektr-org/salesq/engine"
)

// Metrics holds every salesq collector.
type Metrics struct {
	registry *prometheus.Registry

	Turns              *prometheus.CounterVec
	ExtractionDuration prometheus.Histogram
	EngineDuration     *prometheus.HistogramVec
	BreakerState       prometheus.Gauge
	APIRequests        *prometheus.CounterVec
	APIDuration        *prometheus.HistogramVec
}

// New registers the collectors on a fresh registry, along with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Turns: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "salesq_turns_total",
				Help: "Questions answered or rejected, by outcome",
			},
			[]string{"outcome"},
		),
		ExtractionDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "salesq_extraction_duration_seconds",
				Help:    "Time spent turning a question into a query spec",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
			},
		),
		EngineDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "salesq_engine_duration_seconds",
				Help:    "Time spent executing a query spec",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
			},
			[]string{"metric"},
		),
		BreakerState: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "salesq_reasoning_breaker_state",
				Help: "Reasoning circuit breaker state (0=closed, 1=half-open, 2=open)",
			},
		),
		APIRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "salesq_http_requests_total",
				Help: "HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
		APIDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "salesq_http_request_duration_seconds",
				Help:    "HTTP request latency by route",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// TrackSessions exports the live session count read from count.
func (m *Metrics) TrackSessions(count func() int) {
	promauto.With(m.registry).NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "salesq_active_sessions",
			Help: "Chat sessions currently held in memory",
		},
		func() float64 { return float64(count()) },
	)
}

// ObserveExtraction implements chat.Observer.
func (m *Metrics) ObserveExtraction(d time.Duration) {
	m.ExtractionDuration.Observe(d.Seconds())
}

// ObserveEngine implements chat.Observer.
func (m *Metrics) ObserveEngine(metric engine.Metric, d time.Duration) {
	m.EngineDuration.WithLabelValues(string(metric)).Observe(d.Seconds())
}

// ObserveTurn implements chat.Observer.
func (m *Metrics) ObserveTurn(outcome chat.Outcome) {
	m.Turns.WithLabelValues(string(outcome)).Inc()
}

// RecordBreakerState matches translator.WithBreakerObserver.
func (m *Metrics) RecordBreakerState(_, to gobreaker.State) {
	m.BreakerState.Set(float64(to))
}

// RecordAPIRequest records one HTTP request.
func (m *Metrics) RecordAPIRequest(method, route string, status int, d time.Duration) {
	m.APIRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.APIDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

var _ chat.Observer = (*Metrics)(nil)
