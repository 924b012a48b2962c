// Package metrics exposes Prometheus instrumentation for the sizing service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Upstream call outcomes.
const (
	OutcomeOK          = "ok"
	OutcomeNotFound    = "not_found"
	OutcomeCircuitOpen = "circuit_open"
	OutcomeError       = "error"
)

// Collector provides application metrics collection
type Collector struct {
	registry *prometheus.Registry

	// API Metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	ErrorsTotal         *prometheus.CounterVec

	// Upstream Metrics
	UpstreamCallsTotal   *prometheus.CounterVec
	UpstreamCallDuration *prometheus.HistogramVec

	// Sizing Metrics
	ConfigsGenerated prometheus.Histogram
	MaxPanels        prometheus.Histogram
}

// NewCollector creates a collector backed by its own registry.
func NewCollector(namespace string) *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,

		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests by route, method, and status",
			},
			[]string{"route", "method", "status"},
		),

		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
			},
			[]string{"route"},
		),

		ErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Total number of failed requests by error kind",
			},
			[]string{"kind"},
		),

		UpstreamCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "upstream_calls_total",
				Help:      "Total number of Google API calls by upstream and outcome",
			},
			[]string{"upstream", "outcome"},
		),

		UpstreamCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "upstream_call_duration_seconds",
				Help:      "Google API call duration in seconds",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
			},
			[]string{"upstream"},
		),

		ConfigsGenerated: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "panel_configs_generated",
				Help:      "Number of panel configurations produced per recalculation",
				Buckets:   []float64{0, 1, 2, 3, 4},
			},
		),

		MaxPanels: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "max_panels",
				Help:      "Maximum panel count per recalculation",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
			},
		),
	}
}

// Registry returns the collector's registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// RecordHTTPRequest records one served request.
func (c *Collector) RecordHTTPRequest(route, method, status string, d time.Duration) {
	c.HTTPRequestsTotal.WithLabelValues(route, method, status).Inc()
	c.HTTPRequestDuration.WithLabelValues(route).Observe(d.Seconds())
}

// RecordError counts a failed request by kind.
func (c *Collector) RecordError(kind string) {
	c.ErrorsTotal.WithLabelValues(kind).Inc()
}

// ObserveUpstream records one Google API call.
func (c *Collector) ObserveUpstream(upstream, outcome string, d time.Duration) {
	c.UpstreamCallsTotal.WithLabelValues(upstream, outcome).Inc()
	c.UpstreamCallDuration.WithLabelValues(upstream).Observe(d.Seconds())
}

// ObserveSizing records the outcome of a recalculation.
func (c *Collector) ObserveSizing(maxPanels, configs int) {
	c.MaxPanels.Observe(float64(maxPanels))
	c.ConfigsGenerated.Observe(float64(configs))
}
