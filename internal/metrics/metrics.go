package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes application metrics that are safe to scrape via Prometheus.
type Metrics struct {
	registry            *prometheus.Registry
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	datasetLoads        *prometheus.CounterVec
	datasetLoadDuration prometheus.Histogram
	renderDuration      prometheus.Histogram
}

// New creates a fresh Metrics registry with HTTP, dataset and render metrics registered.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	httpRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "habitat",
		Name:      "http_requests_total",
		Help:      "Count of HTTP requests processed by habitat-api",
	}, []string{"method", "path", "status"})

	httpRequestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "habitat",
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests served by habitat-api",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	datasetLoads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "habitat",
		Name:      "dataset_loads_total",
		Help:      "Dataset file loads by outcome",
	}, []string{"outcome"})

	datasetLoadDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "habitat",
		Name:      "dataset_load_duration_seconds",
		Help:      "Time spent opening and decoding the dataset file",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	})

	renderDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "habitat",
		Name:      "render_duration_seconds",
		Help:      "Time spent rendering heatmap images",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	})

	registry.MustRegister(
		httpRequests,
		httpRequestDuration,
		datasetLoads,
		datasetLoadDuration,
		renderDuration,
	)

	return &Metrics{
		registry:            registry,
		httpRequests:        httpRequests,
		httpRequestDuration: httpRequestDuration,
		datasetLoads:        datasetLoads,
		datasetLoadDuration: datasetLoadDuration,
		renderDuration:      renderDuration,
	}
}

// ObserveHTTPRequest records a single HTTP request/response cycle.
func (m *Metrics) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labels := prometheus.Labels{
		"method": method,
		"path":   path,
		"status": strconv.Itoa(status),
	}
	m.httpRequests.With(labels).Inc()
	m.httpRequestDuration.With(labels).Observe(duration.Seconds())
}

// ObserveDatasetLoad counts a dataset load and, for successful loads, its duration.
func (m *Metrics) ObserveDatasetLoad(outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.datasetLoads.WithLabelValues(outcome).Inc()
	if outcome == "ok" {
		m.datasetLoadDuration.Observe(duration.Seconds())
	}
}

// ObserveRender observes a heatmap render duration.
func (m *Metrics) ObserveRender(duration time.Duration) {
	if m == nil {
		return
	}
	m.renderDuration.Observe(duration.Seconds())
}

// Handler exposes the Prometheus registry over HTTP.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("metrics unavailable"))
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
