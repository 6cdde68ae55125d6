package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sharefin_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sharefin_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	TransactionRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sharefin_transaction_requests_total",
			Help: "Total number of pending transaction requests created",
		},
		[]string{"type"},
	)

	ApprovalsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sharefin_approvals_total",
			Help: "Total number of transaction approval attempts by outcome",
		},
		[]string{"type", "result"},
	)

	ApprovalConflictsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sharefin_approval_conflicts_total",
			Help: "Total number of approval retries caused by concurrent profile writes",
		},
	)

	NotificationsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sharefin_notifications_published_total",
			Help: "Total number of realtime notification publications",
		},
		[]string{"status"},
	)
)

// Approval outcomes
const (
	ResultApproved     = "approved"
	ResultForbidden    = "forbidden"
	ResultNotPending   = "not_pending"
	ResultInsufficient = "insufficient_funds"
	ResultConflict     = "conflict"
	ResultError        = "error"
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordTransactionRequest(txType string) {
	TransactionRequestsTotal.WithLabelValues(txType).Inc()
}

func RecordApproval(txType, result string) {
	ApprovalsTotal.WithLabelValues(txType, result).Inc()
}

func RecordApprovalConflict() {
	ApprovalConflictsTotal.Inc()
}

func RecordNotificationPublished(status string) {
	NotificationsPublishedTotal.WithLabelValues(status).Inc()
}
