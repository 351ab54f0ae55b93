// Package observability holds the Prometheus instrumentation.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is the instrument set shared by the pipeline and the HTTP
// server. One instance per process.
type Metrics struct {
	registry *prometheus.Registry

	AnalysesTotal    *prometheus.CounterVec
	AnalysisDuration *prometheus.HistogramVec
	FallbacksTotal   *prometheus.CounterVec
	EmbeddingsTotal  *prometheus.CounterVec
	AIRetriesTotal   prometheus.Counter

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		AnalysesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "laterr_analyses_total",
			Help: "Completed analyses by mode and outcome.",
		}, []string{"mode", "outcome"}),
		AnalysisDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "laterr_analysis_duration_seconds",
			Help:    "End-to-end analysis duration by mode.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		}, []string{"mode"}),
		FallbacksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "laterr_fallbacks_total",
			Help: "Degraded paths taken, by kind.",
		}, []string{"kind"}),
		EmbeddingsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "laterr_embeddings_total",
			Help: "Embedding generations by outcome.",
		}, []string{"outcome"}),
		AIRetriesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "laterr_ai_retries_total",
			Help: "Retried AI provider calls.",
		}),
		httpRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "laterr_http_requests_total",
			Help: "HTTP requests by method, path and status.",
		}, []string{"method", "path", "status"}),
		httpRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "laterr_http_request_duration_seconds",
			Help:    "HTTP request duration by method and path.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}
}

// Handler serves the metrics endpoint for this instance's registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Middleware records request counts and latencies.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		m.httpRequestsTotal.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(rec.status)).Inc()
		m.httpRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
	})
}
