// Package metrics defines the prometheus collectors every collector
// process registers. Serving the registry over HTTP is the scrape
// endpoint's job and stays out of this package; callers mount the
// Handler wherever they already run one.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry bundles the metric series named in spec §6: upstream API
// request volume/latency per credential, queue throughput/latency per
// queue, worker error counts per role, and store operation latency.
type Registry struct {
	registry *prometheus.Registry

	APIRequests      *prometheus.CounterVec
	APIRequestLatency *prometheus.HistogramVec

	QueueMessages      *prometheus.CounterVec
	QueueHandlerLatency *prometheus.HistogramVec

	WorkerErrors *prometheus.CounterVec

	StoreOperationLatency *prometheus.HistogramVec
}

// New constructs and registers every collector under namespace.
func New(namespace string) *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,
		APIRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Upstream API requests, labeled by credential and response status.",
		}, []string{"credential", "status"}),
		APIRequestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      "Upstream API request latency, labeled by credential and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"credential", "status"}),
		QueueMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queue_messages_processed_total",
			Help:      "Broker messages processed, labeled by queue and outcome.",
		}, []string{"queue", "outcome"}),
		QueueHandlerLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "queue_handler_duration_seconds",
			Help:      "Time spent in a queue message handler, labeled by queue.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"queue"}),
		WorkerErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "worker_errors_total",
			Help:      "Unrecoverable worker errors, labeled by role.",
		}, []string{"role"}),
		StoreOperationLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_operation_duration_seconds",
			Help:      "Store gateway operation latency, labeled by operation.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}

	reg.MustRegister(
		r.APIRequests,
		r.APIRequestLatency,
		r.QueueMessages,
		r.QueueHandlerLatency,
		r.WorkerErrors,
		r.StoreOperationLatency,
	)

	return r
}

// Handler returns an http.Handler exposing the registry in the
// Prometheus exposition format. Mounting it on a listener is the
// caller's responsibility.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
