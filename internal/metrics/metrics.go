package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "phoneauth"

var (
	// CodesRequested counts one-time code requests by status.
	CodesRequested = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "codes_requested_total",
		Help:      "The total number of one-time code requests",
	}, []string{"status"})

	// CodeVerifications counts verify attempts by result.
	CodeVerifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "code_verifications_total",
		Help:      "The total number of one-time code verifications",
	}, []string{"result"})

	// TokenRefreshes counts refresh attempts by result.
	TokenRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_refreshes_total",
		Help:      "The total number of refresh token exchanges",
	}, []string{"result"})

	// PurgedRows counts rows removed by the janitor per table.
	PurgedRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "janitor_purged_rows_total",
		Help:      "The total number of expired rows purged",
	}, []string{"table"})

	// RequestDuration observes HTTP handling time.
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "The HTTP request duration in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

// Result labels shared by the counters above.
const (
	ResultSuccess = "success"
	ResultInvalid = "invalid"
	ResultExpired = "expired"
	ResultError   = "error"
)
