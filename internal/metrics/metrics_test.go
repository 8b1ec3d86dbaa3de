package metrics

import (
	"net/http"
	"testing"
	"time"

	"github.com/fulmenhq/gofulmen/telemetry"
	telemetrytesting "github.com/fulmenhq/gofulmen/telemetry/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miminai/mimin/internal/observability"
)

func withCollector(t *testing.T) *telemetrytesting.FakeCollector {
	t.Helper()
	collector := telemetrytesting.NewFakeCollector()
	sys, err := telemetry.NewSystem(&telemetry.Config{Enabled: true, Emitter: collector})
	require.NoError(t, err)

	original := observability.TelemetrySystem
	observability.TelemetrySystem = sys
	t.Cleanup(func() { observability.TelemetrySystem = original })
	return collector
}

func TestRecordersAreNoOpsWithoutTelemetry(t *testing.T) {
	original := observability.TelemetrySystem
	observability.TelemetrySystem = nil
	t.Cleanup(func() { observability.TelemetrySystem = original })

	assert.NotPanics(t, func() {
		RecordPipelineRequest(true, time.Millisecond)
		RecordStage("received")
		RecordHTTPRequest(HTTPRequest{Method: http.MethodGet, Endpoint: "/api/ask", Status: 500})
		RecordHealthCheck("model", false, time.Millisecond)
		SetServerUptime(3)
	})
}

func TestRecordHTTPRequest(t *testing.T) {
	collector := withCollector(t)

	RecordHTTPRequest(HTTPRequest{Method: http.MethodPost, Endpoint: "/api/ask", Status: 200, Duration: time.Millisecond})
	assert.Greater(t, collector.CountMetricsByName(HTTPRequestsTotal), 0)
	assert.Greater(t, collector.CountMetricsByName(HTTPRequestDuration), 0)
	assert.Equal(t, 0, collector.CountMetricsByName(HTTPErrorsTotal))

	RecordHTTPRequest(HTTPRequest{Method: http.MethodGet, Endpoint: "/api/fetch", Status: 404})
	assert.Greater(t, collector.CountMetricsByName(HTTPErrorsTotal), 0)
}

func TestPipelineRecorders(t *testing.T) {
	collector := withCollector(t)

	RecordPipelineRequest(false, 2*time.Millisecond)
	RecordStage("searching")
	RecordCollaboratorFailure("search", "news")
	RecordCollaboratorCall("model", "generate", time.Second)
	RecordSynthMode("fallback")

	for _, name := range []string{
		PipelineRequestsTotal, PipelineDuration, PipelineStageTotal,
		CollaboratorFailuresTotal, CollaboratorCallDuration, SynthModeTotal,
	} {
		assert.Greater(t, collector.CountMetricsByName(name), 0, name)
	}
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "healthy", outcome(true, "healthy", "unhealthy"))
	status := 503
	assert.Equal(t, "server_error", outcome(status < 500, "client_error", "server_error"))
}
