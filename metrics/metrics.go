// Package metrics provides Prometheus metrics for levelgate operations.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "levelgate_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "levelgate_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Authentication metrics
	AuthOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "levelgate_auth_outcomes_total",
			Help: "Total number of credential resolutions",
		},
		[]string{"method", "result"}, // method: "query", "header", "session"; result: "granted", "anonymous" or failure kind
	)

	AccessChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "levelgate_access_checks_total",
			Help: "Total number of level comparisons performed for protected routes",
		},
		[]string{"required", "decision"}, // decision: "permit", "deny"
	)

	// Audit metrics
	AuditWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "levelgate_audit_writes_total",
			Help: "Total number of audit record writes",
		},
		[]string{"result"}, // "success", "failure"
	)

	// Store metrics
	StoreQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "levelgate_store_queries_total",
			Help: "Total number of store queries",
		},
		[]string{"backend", "operation"},
	)

	StoreQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "levelgate_store_query_duration_seconds",
			Help:    "Store query duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend", "operation"},
	)

	// Session metrics
	SessionLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "levelgate_session_lookups_total",
			Help: "Total number of session principal lookups",
		},
		[]string{"result"}, // "found", "missing", "error"
	)

	// Error metrics
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "levelgate_errors_total",
			Help: "Total number of errors by component",
		},
		[]string{"component", "error_type"},
	)
)
