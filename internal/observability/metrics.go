// Package observability collects Prometheus metrics for the application.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics aggregates the application's Prometheus collectors.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	reconcileDuration prometheus.Histogram
	reconcileGroups   prometheus.Gauge
	reconcileEntries  prometheus.Gauge
	reconcileDrift    prometheus.Counter
}

// NewMetrics initialises the registry and base collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "milltrade_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "milltrade_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	reconcileDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "milltrade_reconcile_duration_seconds",
		Help:    "Duration of a full ledger reconciliation pass.",
		Buckets: prometheus.DefBuckets,
	})
	reconcileGroups := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "milltrade_reconcile_groups",
		Help: "Partner groups produced by the last reconciliation pass.",
	})
	reconcileEntries := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "milltrade_reconcile_entries",
		Help: "Purchase entries consumed by the last reconciliation pass.",
	})
	reconcileDrift := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "milltrade_reconcile_drift_total",
		Help: "Times the mill overview disagreed with the per-group outstanding sum beyond tolerance.",
	})
	registry.MustRegister(requests, duration, reconcileDuration, reconcileGroups, reconcileEntries, reconcileDrift)
	return &Metrics{
		registry:          registry,
		handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:     requests,
		requestDuration:   duration,
		reconcileDuration: reconcileDuration,
		reconcileGroups:   reconcileGroups,
		reconcileEntries:  reconcileEntries,
		reconcileDrift:    reconcileDrift,
	}
}

// Handler returns the http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records request metrics for every HTTP request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// ObserveReconcile records the outcome of one reconciliation pass.
func (m *Metrics) ObserveReconcile(elapsed time.Duration, groups, entries int) {
	if m == nil {
		return
	}
	m.reconcileDuration.Observe(elapsed.Seconds())
	m.reconcileGroups.Set(float64(groups))
	m.reconcileEntries.Set(float64(entries))
}

// RecordDrift counts a failed mill-wide cross-check.
func (m *Metrics) RecordDrift() {
	if m == nil {
		return
	}
	m.reconcileDrift.Inc()
}

// Registerer exposes the registry for custom metric registration.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
