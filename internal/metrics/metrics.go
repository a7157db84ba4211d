// Package metrics exposes Prometheus metrics for the job lifecycle API.
//
// Metrics:
//
//	fieldops_lifecycle_requests_total{operation,outcome}   lifecycle operations by outcome code
//	fieldops_lifecycle_request_duration_seconds{operation} lifecycle operation latency
//	fieldops_side_effects_total{effect,result}             best-effort side effects and notification steps
//	fieldops_http_requests_total{method,status}            HTTP requests served
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "fieldops"

// Collector owns its registry so several instances can coexist in tests.
type Collector struct {
	registry *prometheus.Registry

	requests     *prometheus.CounterVec
	latency      *prometheus.HistogramVec
	sideEffects  *prometheus.CounterVec
	httpRequests *prometheus.CounterVec
}

// NewCollector creates a Collector with Go runtime and process metrics registered.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lifecycle_requests_total",
			Help:      "Total number of lifecycle operations by outcome",
		}, []string{"operation", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "lifecycle_request_duration_seconds",
			Help:      "Lifecycle operation latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		sideEffects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "side_effects_total",
			Help:      "Total number of best-effort side effects by result",
		}, []string{"effect", "result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by method and status",
		}, []string{"method", "status"}),
	}

	c.registry.MustRegister(
		c.requests,
		c.latency,
		c.sideEffects,
		c.httpRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// RecordRequest counts a lifecycle operation and observes its latency.
// outcome is "success" or an error code such as CONFLICT.
func (c *Collector) RecordRequest(operation, outcome string, duration time.Duration) {
	c.requests.WithLabelValues(operation, outcome).Inc()
	c.latency.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordSideEffect counts one side effect attempt.
func (c *Collector) RecordSideEffect(effect string, ok bool) {
	result := "failure"
	if ok {
		result = "success"
	}
	c.sideEffects.WithLabelValues(effect, result).Inc()
}

// RecordHTTP counts one served HTTP request.
func (c *Collector) RecordHTTP(method string, status int) {
	c.httpRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
}

// Registry returns the registry backing the collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
