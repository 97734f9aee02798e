package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus metrics for the API.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	inFlight        prometheus.Gauge
	requestDuration *prometheus.HistogramVec
	importedRows    *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "diag_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	inFlight := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "diag_http_requests_in_flight",
		Help: "HTTP requests currently being served.",
	})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "diag_http_request_duration_seconds",
		Help:    "HTTP request duration by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	imported := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "diag_import_rows_total",
		Help: "Rows processed by bulk imports by resource and outcome.",
	}, []string{"resource", "outcome"})
	registry.MustRegister(requests, inFlight, duration, imported,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		inFlight:        inFlight,
		requestDuration: duration,
		importedRows:    imported,
	}
}

// Handler serves /metrics.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware tracks request metrics
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.inFlight.Inc()
		defer m.inFlight.Dec()
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(wrapped.statusCode)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// ObserveImport records the outcome of one import.
func (m *Metrics) ObserveImport(resource string, imported, duplicates, invalid int) {
	if m == nil {
		return
	}
	m.importedRows.WithLabelValues(resource, "imported").Add(float64(imported))
	m.importedRows.WithLabelValues(resource, "duplicate").Add(float64(duplicates))
	m.importedRows.WithLabelValues(resource, "invalid").Add(float64(invalid))
}

func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if pattern := rc.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
