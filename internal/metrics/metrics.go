// Package metrics names every telemetry series the service emits and
// records them through the global telemetry system. All functions are
// no-ops until observability.InitMetrics has run.
package metrics

import (
	"time"

	"github.com/miminai/mimin/internal/observability"
)

// Series names. The exporter prefixes them with the telemetry namespace.
const (
	HTTPRequestsTotal     = "http_requests_total"
	HTTPRequestDuration   = "http_request_duration_ms"
	HTTPRequestSizeBytes  = "http_request_size_bytes"
	HTTPResponseSizeBytes = "http_response_size_bytes"
	HTTPErrorsTotal       = "http_errors_total"

	PipelineRequestsTotal     = "pipeline_requests_total"
	PipelineDuration          = "pipeline_duration_ms"
	PipelineStageTotal        = "pipeline_stage_total"
	CollaboratorFailuresTotal = "collaborator_failures_total"
	CollaboratorCallDuration  = "collaborator_call_duration_ms"
	SynthModeTotal            = "synth_mode_total"

	ErrorsTotal      = "errors_total"
	PanicsTotal      = "panics_total"
	ErrorsByEndpoint = "errors_by_endpoint"

	HealthCheckTotal    = "app_health_check_total"
	HealthCheckDuration = "app_health_check_duration_ms"
	ServerStartTime     = "app_server_start_time_seconds"
	ServerUptime        = "app_server_uptime_seconds"
)

type labels = map[string]string

func count(name string, l labels) {
	if sys := observability.TelemetrySystem; sys != nil {
		_ = sys.Counter(name, 1, l)
	}
}

func observe(name string, d time.Duration, l labels) {
	if sys := observability.TelemetrySystem; sys != nil {
		_ = sys.Histogram(name, d, l)
	}
}

func set(name string, value float64, l labels) {
	if sys := observability.TelemetrySystem; sys != nil {
		_ = sys.Gauge(name, value, l)
	}
}

func outcome(ok bool, good, bad string) string {
	if ok {
		return good
	}
	return bad
}
