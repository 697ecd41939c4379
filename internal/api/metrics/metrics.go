// Package metrics defines and registers all custom Prometheus metrics for
// pmdesk. It is the single source of truth for metric names, labels, and
// help strings. Metrics register with the default registry on import and
// are served by the status server's /metrics route.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "pmdesk"

// ── API client metrics ────────────────────────────────────────────────────────

// RequestsTotal counts API requests by outcome.
// Labels:
//   - method: HTTP method
//   - status: response status code, or "error" for transport failures
var RequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "requests_total",
		Help:      "Total number of API requests, by method and status.",
	},
	[]string{"method", "status"},
)

// RequestDuration measures API round trips, retries included separately.
var RequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "request_duration_seconds",
		Help:      "Duration of a single API round trip.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method"},
)

// TokenRefreshTotal counts access-token refresh attempts.
// Label:
//   - result: "success" or "failure"
var TokenRefreshTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_refresh_total",
		Help:      "Total number of access-token refresh attempts, by result.",
	},
	[]string{"result"},
)

// ── Notification metrics ──────────────────────────────────────────────────────

// NotificationsReceivedTotal counts pushed notifications.
// Label:
//   - result: "delivered" or "malformed"
var NotificationsReceivedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_received_total",
		Help:      "Total number of pushed notifications, by result.",
	},
	[]string{"result"},
)

// ChannelConnected is 1 while the notification channel is subscribed.
var ChannelConnected = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "notification_channel_connected",
		Help:      "Whether the notification channel is currently subscribed.",
	},
)

// ── Bulk invite metrics ───────────────────────────────────────────────────────

// InvitesTotal counts bulk team invites.
// Label:
//   - result: "success" or "failure"
var InvitesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "invites_total",
		Help:      "Total number of team invites sent, by result.",
	},
	[]string{"result"},
)

// InviteQueueDepth tracks pending invites per dispatcher worker.
var InviteQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "invite_queue_depth",
		Help:      "Current number of invites pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)
