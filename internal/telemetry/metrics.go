// Package telemetry exposes Prometheus collectors and OpenTelemetry spans for
// the keyword pipeline.
package telemetry

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/seoforge/keyword-engine/internal/keyword"
)

var (
	pipelineItemsTotal         *prometheus.CounterVec
	pipelineBatchesTotal       *prometheus.CounterVec
	pipelineStageDurationSecs  *prometheus.HistogramVec
	pipelineBatchSize          *prometheus.HistogramVec
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		pipelineItemsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "keyword_pipeline_items_total",
				Help: "Total keyword items processed, labeled by stage and outcome.",
			},
			[]string{"stage", "outcome"},
		)

		pipelineBatchesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "keyword_pipeline_batches_total",
				Help: "Total batches processed, labeled by stage.",
			},
			[]string{"stage"},
		)

		pipelineStageDurationSecs = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "keyword_pipeline_stage_duration_seconds",
				Help:    "Histogram of per-batch stage latencies, labeled by stage.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"stage"},
		)

		pipelineBatchSize = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "keyword_pipeline_batch_size",
				Help:    "Histogram of input batch sizes, labeled by stage.",
				Buckets: []float64{1, 10, 50, 100, 500, 1000, 5000, 10000},
			},
			[]string{"stage"},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveItem increments the per-item outcome counter for a stage.
func ObserveItem(stage string, outcome keyword.Outcome) {
	Init()
	pipelineItemsTotal.WithLabelValues(stage, string(outcome)).Inc()
}

// ObserveBatch records batch-level metrics for a completed stage run.
func ObserveBatch(stage string, inputSize int, duration time.Duration) {
	Init()
	pipelineBatchesTotal.WithLabelValues(stage).Inc()
	pipelineBatchSize.WithLabelValues(stage).Observe(float64(inputSize))
	pipelineStageDurationSecs.WithLabelValues(stage).Observe(duration.Seconds())
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Middleware is a chi middleware that records HTTP request metrics for the
// metrics/health listener.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(ww, r)

		routePattern := chi.RouteContext(r.Context()).RoutePattern()
		if routePattern == "" {
			routePattern = "unknown"
		}
		ObserveHTTPRequest(r.Method, routePattern, ww.statusCode, time.Since(start))
	})
}

// statusRecorder wraps http.ResponseWriter to capture the status code.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.statusCode = code
	rec.ResponseWriter.WriteHeader(code)
}
