// Package metrics defines and registers all custom Prometheus metrics for the
// identity service. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation via promauto.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "identity"

// ── Session metrics ───────────────────────────────────────────────────────────

// LoginsTotal counts login attempts.
// Label:
//   - result: "success", "invalid_credentials", "locked" or "error"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// SessionOpsTotal counts session state transitions other than login.
// Labels:
//   - op: "logout", "refresh", "become_user", "restore_admin"
//   - result: "success", "anonymous", or the error name
var SessionOpsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_operations_total",
		Help:      "Total number of session operations, by operation and result.",
	},
	[]string{"op", "result"},
)

// ── Password reset metrics ────────────────────────────────────────────────────

// PasswordResetsTotal counts password-reset steps.
// Labels:
//   - stage: "request", "validate", "confirm"
//   - result: "success" or the error name
var PasswordResetsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "password_resets_total",
		Help:      "Total number of password reset steps, by stage and result.",
	},
	[]string{"stage", "result"},
)

// ── Mail metrics ──────────────────────────────────────────────────────────────

// MailQueueDepth tracks the number of mails waiting in each dispatcher worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var MailQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "mail_queue_depth",
		Help:      "Current number of mails pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// MailsDeliveredTotal counts mail delivery outcomes.
// Label:
//   - result: "success" or "error"
var MailsDeliveredTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "mails_delivered_total",
		Help:      "Total number of mails handed to the sender, by result.",
	},
	[]string{"result"},
)

// MailObserver feeds MailQueueDepth and MailsDeliveredTotal from the mail
// dispatcher.
type MailObserver struct{}

func (MailObserver) Queued(worker int) {
	MailQueueDepth.WithLabelValues(strconv.Itoa(worker)).Inc()
}

func (MailObserver) Dequeued(worker int) {
	MailQueueDepth.WithLabelValues(strconv.Itoa(worker)).Dec()
}

func (MailObserver) Delivered(_ int, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	MailsDeliveredTotal.WithLabelValues(result).Inc()
}

// ── HTTP metrics ──────────────────────────────────────────────────────────────

// RateLimitedTotal counts requests rejected by the per-IP limiter.
// Label:
//   - route: the matched route path
var RateLimitedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_total",
		Help:      "Total number of requests rejected by the rate limiter.",
	},
	[]string{"route"},
)

// HTTPRequestDuration observes request latency.
// Labels:
//   - method: HTTP method
//   - route: the matched route path
//   - status: response status code
var HTTPRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency in seconds.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "route", "status"},
)
