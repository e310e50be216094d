// Package metrics defines the Prometheus collectors for the phonebook
// service. Collectors are registered on the default registry via promauto
// and exposed by the /metrics endpoint in cmd/server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "phonebook_http_requests_total",
		Help: "Total HTTP requests by method, path and status code.",
	}, []string{"method", "path", "status"})

	RequestDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "phonebook_http_request_duration_seconds",
		Help:    "HTTP request latency by method and path.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	PersonsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "phonebook_persons_created_total",
		Help: "Total persons created through the addPerson mutation.",
	})

	SubscribersActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "phonebook_subscribers_active",
		Help: "Currently connected personAdded subscribers.",
	})

	EventsPublishedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "phonebook_events_published_total",
		Help: "Total personAdded events published.",
	})

	EventsDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "phonebook_events_dropped_total",
		Help: "personAdded events dropped because a subscriber buffer was full.",
	})
)
