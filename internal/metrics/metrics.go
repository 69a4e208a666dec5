// Package metrics exposes Prometheus instrumentation for the daemon: HTTP
// request counters, background job outcomes and per-frame render timings.
// Collectors are registered on a private registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "dccpipe"

// Metrics holds the daemon's collectors.
type Metrics struct {
	registry      *prometheus.Registry
	requestsTotal *prometheus.CounterVec
	errorsTotal   prometheus.Counter
	jobsStarted   *prometheus.CounterVec
	jobsFinished  *prometheus.CounterVec
	jobDuration   *prometheus.HistogramVec
	framesTotal   *prometheus.CounterVec
	frameDuration *prometheus.HistogramVec
	jobRunning    prometheus.Gauge
	projects      prometheus.Gauge
}

// New creates and registers the daemon collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests received, by method",
		}, []string{"method"}),
		errorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_errors_total",
			Help:      "Total number of HTTP responses with error status (4xx or 5xx)",
		}),
		jobsStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_started_total",
			Help:      "Background jobs started, by kind",
		}, []string{"kind"}),
		jobsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_finished_total",
			Help:      "Background jobs finished, by kind and final status",
		}, []string{"kind", "status"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Wall time of background jobs",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}, []string{"kind"}),
		framesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_rendered_total",
			Help:      "Frames rendered, by renderer and result",
		}, []string{"renderer", "result"}),
		frameDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "frame_render_seconds",
			Help:      "Wall time of single frame renders",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12),
		}, []string{"renderer"}),
		jobRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "job_running",
			Help:      "1 while a background job is running",
		}),
		projects: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "projects",
			Help:      "Number of projects under the configured root",
		}),
	}
	registry.MustRegister(
		m.requestsTotal,
		m.errorsTotal,
		m.jobsStarted,
		m.jobsFinished,
		m.jobDuration,
		m.framesTotal,
		m.frameDuration,
		m.jobRunning,
		m.projects,
	)
	return m
}

// Registry exposes the private registry (used by tests).
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// IncRequests counts one HTTP request.
func (m *Metrics) IncRequests(method string) {
	m.requestsTotal.WithLabelValues(method).Inc()
}

// IncErrors counts one error response.
func (m *Metrics) IncErrors() {
	m.errorsTotal.Inc()
}

// JobStarted records the start of a background job.
func (m *Metrics) JobStarted(kind string) {
	m.jobsStarted.WithLabelValues(kind).Inc()
	m.jobRunning.Set(1)
}

// JobFinished records the outcome of a background job.
func (m *Metrics) JobFinished(kind, status string, elapsed time.Duration) {
	m.jobsFinished.WithLabelValues(kind, status).Inc()
	m.jobDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
	m.jobRunning.Set(0)
}

// ObserveFrame records one frame render attempt.
func (m *Metrics) ObserveFrame(renderer string, elapsed time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.framesTotal.WithLabelValues(renderer, result).Inc()
	if err == nil {
		m.frameDuration.WithLabelValues(renderer).Observe(elapsed.Seconds())
	}
}

// SetProjects sets the project count gauge.
func (m *Metrics) SetProjects(n int) {
	m.projects.Set(float64(n))
}

// Handler returns an http.Handler that serves Prometheus metrics.
// updateGauges is called before each scrape to refresh gauge values.
func (m *Metrics) Handler(updateGauges func()) http.Handler {
	inner := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if updateGauges != nil {
			updateGauges()
		}
		inner.ServeHTTP(w, r)
	})
}
