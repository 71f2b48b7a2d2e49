// Package metrics defines the Prometheus collectors for the social layer
// and the /metrics handler that exposes them.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Result label values.
const (
	ResultOK    = "ok"
	ResultError = "error"
	ResultNoop  = "noop"
)

var (
	// MutationsTotal counts social mutations by operation and result.
	MutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookclub_social_mutations_total",
		Help: "Social mutations by operation and result",
	}, []string{"operation", "result"})

	// NotificationsDelivered counts notifications written to an inbox.
	NotificationsDelivered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookclub_notifications_delivered_total",
		Help: "Notifications written to a recipient inbox by type",
	}, []string{"type"})

	// NotificationsSuppressed counts fan-out events that produced nothing,
	// mostly self-notifications.
	NotificationsSuppressed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookclub_notifications_suppressed_total",
		Help: "Fan-out events that produced no notification, by trigger",
	}, []string{"trigger"})

	// FanoutFailures counts swallowed fan-out errors by stage.
	FanoutFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookclub_notification_fanout_failures_total",
		Help: "Notification fan-out failures by stage (context, insert, push)",
	}, []string{"stage"})

	// RatingCleanups counts post-delete rating cleanups by result.
	RatingCleanups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookclub_rating_cleanup_total",
		Help: "Interaction rating cleanups after review deletion, by result",
	}, []string{"result"})

	// CommentDeletes counts comment deletions by outcome (removed, tombstoned).
	CommentDeletes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookclub_comment_deletes_total",
		Help: "Comment deletions by outcome",
	}, []string{"outcome"})

	// SearchIndexFailures counts best-effort index updates that failed.
	SearchIndexFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookclub_search_index_failures_total",
		Help: "Review search index updates that failed, by operation",
	}, []string{"operation"})

	// SSEClients is the number of connected notification streams.
	SSEClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bookclub_sse_clients",
		Help: "Connected notification stream clients",
	})

	// RateLimited counts rejected requests.
	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookclub_rate_limited_total",
		Help: "Requests rejected by the per-user rate limiter",
	})

	// RequestDuration tracks HTTP latency by route pattern.
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bookclub_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~2s
	}, []string{"method", "route", "status"})
)

// ObserveMutation records one mutation outcome.
func ObserveMutation(operation string, err error) {
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	MutationsTotal.WithLabelValues(operation, result).Inc()
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
