// Package metrics exposes Prometheus collectors for the service.
//
// Metrics is also an events.Publisher, so domain events are counted by
// registering it alongside the other publishers.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mrlokans/studyshelf/internal/events"
)

const namespace = "studyshelf"

type Metrics struct {
	registry   *prometheus.Registry
	events     *prometheus.CounterVec
	rejections *prometheus.CounterVec
	requests   *prometheus.HistogramVec
	tasks      *prometheus.CounterVec
}

// New creates a Metrics with its own registry, including Go runtime and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "domain_events_total",
			Help:      "Domain events emitted after successful writes.",
		}, []string{"type"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "engine_rejections_total",
			Help:      "Engine operations rejected, by error kind.",
		}, []string{"kind"}),
		requests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		tasks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_total",
			Help:      "Background tasks processed, by queue and result.",
		}, []string{"queue", "result"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.events,
		m.rejections,
		m.requests,
		m.tasks,
	)
	return m
}

// Publish counts a domain event.
func (m *Metrics) Publish(_ context.Context, event events.Event) {
	m.events.WithLabelValues(string(event.Type)).Inc()
}

func (m *Metrics) ObserveRejection(kind string) {
	m.rejections.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

// ObserveTask records a processed task; err nil counts as success.
func (m *Metrics) ObserveTask(queue string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.tasks.WithLabelValues(queue, result).Inc()
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
