package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce                sync.Once
	apiRequestsTotal            *prometheus.CounterVec
	apiLatencySeconds           *prometheus.HistogramVec
	apiErrorsTotal              *prometheus.CounterVec
	submissionTransitionsTotal  *prometheus.CounterVec
	notificationsPublishedTotal *prometheus.CounterVec
	notificationStreamClients   prometheus.Gauge
	rateLimitRejectionsTotal    *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used across the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "skola_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "skola_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "skola_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		submissionTransitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "skola_submission_transitions_total",
			Help: "Total number of submission lifecycle transitions applied.",
		}, []string{"transition"})

		notificationsPublishedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "skola_notifications_published_total",
			Help: "Total number of notifications published to users.",
		}, []string{"type"})

		notificationStreamClients = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "skola_notification_stream_clients",
			Help: "Number of currently connected notification stream clients.",
		})

		rateLimitRejectionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "skola_rate_limit_rejections_total",
			Help: "Total number of requests rejected by the rate limiter.",
		}, []string{"group"})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			submissionTransitionsTotal,
			notificationsPublishedTotal,
			notificationStreamClients,
			rateLimitRejectionsTotal,
		)
	})
}

// APIRequests exposes the counter for served requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// SubmissionTransitions exposes the counter for submission lifecycle moves.
func SubmissionTransitions() *prometheus.CounterVec {
	RegisterMetrics()
	return submissionTransitionsTotal
}

// NotificationsPublished exposes the counter for published notifications.
func NotificationsPublished() *prometheus.CounterVec {
	RegisterMetrics()
	return notificationsPublishedTotal
}

// StreamClients exposes the gauge of live notification stream subscribers.
func StreamClients() prometheus.Gauge {
	RegisterMetrics()
	return notificationStreamClients
}

// RateLimitRejections exposes the counter for throttled requests.
func RateLimitRejections() *prometheus.CounterVec {
	RegisterMetrics()
	return rateLimitRejectionsTotal
}
