// Package metrics exposes prometheus collectors for the control surface.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jmylchreest/radiotoggle/pkg/capability"
)

const namespace = "radiotoggle"

// Metrics holds every collector on its own registry so tests and multiple
// daemons in one process do not collide.
type Metrics struct {
	registry *prometheus.Registry

	Transitions     *prometheus.CounterVec
	TransitionPolls *prometheus.HistogramVec
	InFlight        *prometheus.GaugeVec
	Renders         *prometheus.CounterVec
	Dispatches      *prometheus.CounterVec
	HTTPRequests    *prometheus.CounterVec
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "Finished reconciliation attempts by capability and outcome.",
		}, []string{"capability", "outcome"}),
		TransitionPolls: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transition_polls",
			Help:      "State polls spent per reconciliation attempt.",
			Buckets:   []float64{1, 2, 3, 5, 8, 12, 15},
		}, []string{"capability"}),
		InFlight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "transitions_in_flight",
			Help:      "Live reconciliation attempts by capability.",
		}, []string{"capability"}),
		Renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "renders_total",
			Help:      "Surface renders by trigger.",
		}, []string{"trigger"}),
		Dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatches_total",
			Help:      "Dispatched user actions by action and result.",
		}, []string{"action", "result"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP API requests by method, route and status.",
		}, []string{"method", "route", "status"}),
	}

	m.registry.MustRegister(
		m.Transitions,
		m.TransitionPolls,
		m.InFlight,
		m.Renders,
		m.Dispatches,
		m.HTTPRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// TransitionStarted marks an attempt as live. Safe on a nil receiver.
func (m *Metrics) TransitionStarted(kind capability.Kind) {
	if m == nil {
		return
	}
	m.InFlight.WithLabelValues(string(kind)).Inc()
}

// TransitionFinished records a finished attempt. Safe on a nil receiver.
func (m *Metrics) TransitionFinished(r capability.Result) {
	if m == nil {
		return
	}
	kind := string(r.Kind)
	m.InFlight.WithLabelValues(kind).Dec()
	m.Transitions.WithLabelValues(kind, string(r.Outcome)).Inc()
	m.TransitionPolls.WithLabelValues(kind).Observe(float64(r.Polls))
}

// Rendered counts a render. Safe on a nil receiver.
func (m *Metrics) Rendered(trigger string) {
	if m == nil {
		return
	}
	m.Renders.WithLabelValues(trigger).Inc()
}

// Dispatched counts a dispatched action. Safe on a nil receiver.
func (m *Metrics) Dispatched(action, result string) {
	if m == nil {
		return
	}
	m.Dispatches.WithLabelValues(action, result).Inc()
}

// Middleware counts HTTP requests by chi route pattern via routeFn.
func (m *Metrics) Middleware(routeFn func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			if m == nil {
				return
			}
			route := r.URL.Path
			if routeFn != nil {
				if p := routeFn(r); p != "" {
					route = p
				}
			}
			m.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach the underlying writer, which
// the WebSocket upgrade needs for hijacking.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
