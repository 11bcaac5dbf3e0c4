package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "cloche"

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Current number of HTTP requests being processed",
		},
	)
)

// Business metrics
var (
	ProductsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "products_created_total",
			Help:      "Total number of products added to catalogs",
		},
	)

	LeadsCaptured = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "leads_captured_total",
			Help:      "Total number of customer leads captured",
		},
	)

	ConversationsStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conversations_started_total",
			Help:      "Total number of conversations started",
		},
	)

	MessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_sent_total",
			Help:      "Total number of messages sent",
		},
		[]string{"sender"}, // "customer" or "boutique"
	)

	QuotaDenials = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quota_denials_total",
			Help:      "Total number of writes denied by plan limits",
		},
		[]string{"resource"}, // "product", "lead", or "boutique_message"
	)
)
