package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/riskibarqy/score-predictor/internal/usecase"
)

const metricsNamespace = "score_predictor"

// Metrics implements usecase.Recorder and httpapi.RequestObserver on a
// private registry.
type Metrics struct {
	registry          *prometheus.Registry
	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	propagationWrites *prometheus.CounterVec
	syncItems         *prometheus.CounterVec
	syncRuns          *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		propagationWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "propagation_writes_total",
			Help:      "Prediction point writes by outcome.",
		}, []string{"outcome"}),
		syncItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "sync_items_total",
			Help:      "Feed items handled by sync kind and outcome.",
		}, []string{"kind", "outcome"}),
		syncRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "sync_runs_total",
			Help:      "Completed sync runs by kind.",
		}, []string{"kind"}),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.propagationWrites,
		m.syncItems,
		m.syncRuns,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) PropagationWrites(updated, failed int) {
	m.propagationWrites.WithLabelValues("updated").Add(float64(updated))
	m.propagationWrites.WithLabelValues("failed").Add(float64(failed))
}

func (m *Metrics) SyncRun(kind string, report usecase.SyncReport) {
	m.syncRuns.WithLabelValues(kind).Inc()
	m.syncItems.WithLabelValues(kind, "fetched").Add(float64(report.Fetched))
	m.syncItems.WithLabelValues(kind, "created").Add(float64(report.Created))
	m.syncItems.WithLabelValues(kind, "skipped").Add(float64(report.Skipped))
	m.syncItems.WithLabelValues(kind, "failed").Add(float64(report.Failed))
}
