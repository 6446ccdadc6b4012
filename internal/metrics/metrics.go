// Package metrics defines Prometheus metrics for the backlog tracker.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "backlog_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backlog_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	ErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backlog_errors_total",
			Help: "Total errors by type",
		},
		[]string{"type"},
	)

	AuditRecordsWritten = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backlog_audit_records_written_total",
			Help: "Field audit rows written, by entity",
		},
		[]string{"entity"},
	)

	PluginHookFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backlog_plugin_hook_failures_total",
			Help: "Plugin hook invocations that returned an error or panicked",
		},
		[]string{"entity", "plugin", "hook"},
	)

	PluginMetaSaveFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backlog_plugin_meta_save_failures_total",
			Help: "Follow-up plugin_meta saves that failed after an entity was written",
		},
		[]string{"entity"},
	)

	NotifierRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backlog_notifier_requests_total",
			Help: "Outbound chat notifier calls by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	WSConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "backlog_websocket_connections",
			Help: "Active WebSocket connections",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestDuration, RequestsTotal, ErrorsTotal,
		AuditRecordsWritten, PluginHookFailures, PluginMetaSaveFailures,
		NotifierRequests, WSConnections,
	)
}
