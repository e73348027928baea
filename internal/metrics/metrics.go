// Package metrics holds the Prometheus collectors shared by the three
// services.  Every recording method is safe to call on a nil *Collector so
// components can run without metrics in tests.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "storefront"

// Result labels.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Collector is a prometheus.Collector for HTTP traffic and audit-event flow.
type Collector struct {
	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	eventsPublished   *prometheus.CounterVec
	eventsConsumed    *prometheus.CounterVec
	notificationsSent *prometheus.CounterVec
}

// NewCollector returns a Collector whose series carry the given service
// name as a constant label.
func NewCollector(service string) *Collector {
	labels := prometheus.Labels{"service": service}
	return &Collector{
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   metricsNamespace,
				Name:        "http_requests_total",
				Help:        "The number of HTTP requests served.",
				ConstLabels: labels,
			}, []string{"method", "route", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace:   metricsNamespace,
				Name:        "http_request_duration_seconds",
				Help:        "The time taken to serve an HTTP request.",
				Buckets:     prometheus.DefBuckets,
				ConstLabels: labels,
			}, []string{"method", "route"},
		),
		eventsPublished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   metricsNamespace,
				Name:        "audit_events_published_total",
				Help:        "The number of audit events handed to the broker.",
				ConstLabels: labels,
			}, []string{"result"},
		),
		eventsConsumed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   metricsNamespace,
				Name:        "audit_events_consumed_total",
				Help:        "The number of audit events taken off the queue.",
				ConstLabels: labels,
			}, []string{"result"},
		),
		notificationsSent: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   metricsNamespace,
				Name:        "notifications_sent_total",
				Help:        "The number of notification emails handed to the mail provider.",
				ConstLabels: labels,
			}, []string{"result"},
		),
	}
}

// Describe is part of the prometheus.Collector interface.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.httpRequests.Describe(ch)
	c.httpDuration.Describe(ch)
	c.eventsPublished.Describe(ch)
	c.eventsConsumed.Describe(ch)
	c.notificationsSent.Describe(ch)
}

// Collect is part of the prometheus.Collector interface.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.httpRequests.Collect(ch)
	c.httpDuration.Collect(ch)
	c.eventsPublished.Collect(ch)
	c.eventsConsumed.Collect(ch)
	c.notificationsSent.Collect(ch)
}

// ObserveRequest records one served HTTP request.
func (c *Collector) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// EventPublished records the outcome of one publish.
func (c *Collector) EventPublished(err error) {
	if c == nil {
		return
	}
	c.eventsPublished.WithLabelValues(result(err)).Inc()
}

// EventConsumed records the outcome of handling one delivery.
func (c *Collector) EventConsumed(err error) {
	if c == nil {
		return
	}
	c.eventsConsumed.WithLabelValues(result(err)).Inc()
}

// NotificationSent records the outcome of one email send.
func (c *Collector) NotificationSent(err error) {
	if c == nil {
		return
	}
	c.notificationsSent.WithLabelValues(result(err)).Inc()
}

func result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultOK
}

// NewRegistry returns a registry holding c together with the Go runtime and
// process collectors.
func NewRegistry(c *Collector) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		c,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler serves reg in the Prometheus text format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}
