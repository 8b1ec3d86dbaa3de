package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fulmenhq/gofulmen/telemetry/exporters"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miminai/mimin/internal/observability"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func withProxyTransport(t *testing.T, rt roundTripFunc) {
	t.Helper()
	original := metricsProxyClient
	metricsProxyClient = &http.Client{Transport: rt}
	t.Cleanup(func() { metricsProxyClient = original })
}

func withExporter(t *testing.T) {
	t.Helper()
	original := observability.PrometheusExporter
	observability.PrometheusExporter = exporters.NewPrometheusExporter("test", ":9090")
	t.Cleanup(func() { observability.PrometheusExporter = original })
}

func decodeErrorCode(t *testing.T, body io.Reader) string {
	t.Helper()
	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(body).Decode(&resp))
	return resp.Error.Code
}

func TestMetricsHandlerRelaysExporterOutput(t *testing.T) {
	withExporter(t)
	var requested string
	withProxyTransport(t, func(req *http.Request) (*http.Response, error) {
		requested = req.URL.String()
		resp := &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader("# TYPE pipeline_requests_total counter\npipeline_requests_total 3\n")),
			Header:     make(http.Header),
		}
		resp.Header.Set("Content-Type", "text/plain; version=0.0.4")
		resp.Header.Set("Connection", "close")
		return resp, nil
	})

	rec := httptest.NewRecorder()
	MetricsHandler(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, observability.MetricsURL(), requested)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
	assert.Empty(t, rec.Header().Get("Connection"))
	assert.Contains(t, rec.Body.String(), "pipeline_requests_total 3")
}

func TestMetricsHandlerWithoutExporter(t *testing.T) {
	original := observability.PrometheusExporter
	observability.PrometheusExporter = nil
	t.Cleanup(func() { observability.PrometheusExporter = original })

	rec := httptest.NewRecorder()
	MetricsHandler(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "SERVICE_UNAVAILABLE", decodeErrorCode(t, rec.Body))
}

func TestMetricsHandlerExporterUnreachable(t *testing.T) {
	withExporter(t)
	withProxyTransport(t, func(*http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})

	rec := httptest.NewRecorder()
	MetricsHandler(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, "EXTERNAL_SERVICE_ERROR", decodeErrorCode(t, rec.Body))
	assert.GreaterOrEqual(t, rec.Code, 500)
}
