// Package metrics exposes Prometheus counters for the assignment engine and
// the visit workflow, plus HTTP request instrumentation.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so tests can build as many as they like.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	distributions  *prometheus.CounterVec
	entitiesPlaced *prometheus.CounterVec
	visitEvents    *prometheus.CounterVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		distributions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "congregationhub",
			Name:      "distributions_total",
			Help:      "Completed distribution runs by roster kind and strategy.",
		}, []string{"kind", "strategy"}),
		entitiesPlaced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "congregationhub",
			Name:      "entities_placed_total",
			Help:      "Entities whose group reference was written, by roster kind and operation.",
		}, []string{"kind", "operation"}),
		visitEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "congregationhub",
			Name:      "visit_events_total",
			Help:      "Visit schedule and report mutations by event.",
		}, []string{"event"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "congregationhub",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "congregationhub",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	m.registry.MustRegister(
		m.distributions,
		m.entitiesPlaced,
		m.visitEvents,
		m.httpRequests,
		m.httpDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Distribution records one completed distribution run.
func (m *Metrics) Distribution(kind, strategy string, placed int) {
	if m == nil {
		return
	}
	m.distributions.WithLabelValues(kind, strategy).Inc()
	m.entitiesPlaced.WithLabelValues(kind, "distribute").Add(float64(placed))
}

// Placed records entities written by a point mutation (assign, remove, swap).
func (m *Metrics) Placed(kind, operation string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.entitiesPlaced.WithLabelValues(kind, operation).Add(float64(n))
}

// VisitEvent counts one visit workflow mutation.
func (m *Metrics) VisitEvent(event string) {
	if m == nil {
		return
	}
	m.visitEvents.WithLabelValues(event).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request count and latency. The route label is the chi
// route pattern so ids in paths do not explode cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		m.httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(wrapped.statusCode)).Inc()
		m.httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}
