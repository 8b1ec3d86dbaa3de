package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fulmenhq/gofulmen/telemetry"
	telemetrytesting "github.com/fulmenhq/gofulmen/telemetry/testing"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miminai/mimin/internal/metrics"
	"github.com/miminai/mimin/internal/observability"
)

func fakeTelemetry(t *testing.T) *telemetrytesting.FakeCollector {
	t.Helper()
	collector := telemetrytesting.NewFakeCollector()
	sys, err := telemetry.NewSystem(&telemetry.Config{Enabled: true, Emitter: collector})
	require.NoError(t, err)

	original := observability.TelemetrySystem
	observability.TelemetrySystem = sys
	t.Cleanup(func() { observability.TelemetrySystem = original })
	return collector
}

func respond(status int, body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	})
}

func TestRequestMetrics_EmitsSeries(t *testing.T) {
	cases := []struct {
		name   string
		status int
		errors bool
	}{
		{"answered", http.StatusOK, false},
		{"empty question", http.StatusBadRequest, true},
		{"pipeline failure", http.StatusInternalServerError, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			collector := fakeTelemetry(t)

			req := httptest.NewRequest(http.MethodPost, "/api/ask", strings.NewReader(`{"question":"hitung 1 + 1"}`))
			req.Header.Set("Content-Length", "27")
			rec := httptest.NewRecorder()
			RequestMetrics(respond(tc.status, `{"success":true}`)).ServeHTTP(rec, req)

			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, `{"success":true}`, rec.Body.String())
			assert.Greater(t, collector.CountMetricsByName(metrics.HTTPRequestsTotal), 0)
			assert.Greater(t, collector.CountMetricsByName(metrics.HTTPRequestDuration), 0)
			assert.Greater(t, collector.CountMetricsByName(metrics.HTTPRequestSizeBytes), 0)
			assert.Greater(t, collector.CountMetricsByName(metrics.HTTPResponseSizeBytes), 0)
			if tc.errors {
				assert.Greater(t, collector.CountMetricsByName(metrics.HTTPErrorsTotal), 0)
			} else {
				assert.Zero(t, collector.CountMetricsByName(metrics.HTTPErrorsTotal))
			}
		})
	}
}

func TestRequestMetrics_WithTelemetryDisabled(t *testing.T) {
	original := observability.TelemetrySystem
	observability.TelemetrySystem = nil
	t.Cleanup(func() { observability.TelemetrySystem = original })

	rec := httptest.NewRecorder()
	RequestMetrics(respond(http.StatusOK, "ok")).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/test", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouteLabel_StandardPaths(t *testing.T) {
	tests := map[string]string{
		"/health":         "/health/*",
		"/health/live":    "/health/*",
		"/health/ready":   "/health/*",
		"/health/startup": "/health/*",
		"/api/health":     "/health/*",
		"/version":        "/version",
		"/metrics":        "/metrics",
		"/api/ask":        "/api/ask",
		"/api/fetch":      "/api/fetch",
		"/api/users/123":  "/unknown",
		"/":               "/",
	}
	for path, want := range tests {
		t.Run(path, func(t *testing.T) {
			assert.Equal(t, want, RouteLabel(httptest.NewRequest(http.MethodGet, path, nil)))
		})
	}
}

func TestRouteLabel_PrefersChiPattern(t *testing.T) {
	var label string
	r := chi.NewRouter()
	r.Get("/api/items/{id}", func(w http.ResponseWriter, req *http.Request) {
		label = RouteLabel(req)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/items/42", nil))
	assert.Equal(t, "/api/items/{id}", label)
}

func TestRequestMetrics_WithRequestID(t *testing.T) {
	collector := fakeTelemetry(t)

	req := httptest.NewRequest(http.MethodGet, "/api/test", nil)
	req.Header.Set(RequestIDHeader, "test-request-id")
	rec := httptest.NewRecorder()
	RequestID(RequestMetrics(respond(http.StatusOK, ""))).ServeHTTP(rec, req)

	assert.Equal(t, "test-request-id", rec.Header().Get(RequestIDHeader))
	assert.Greater(t, collector.CountMetricsByName(metrics.HTTPRequestsTotal), 0)
}

func TestRequestID_ReplacesMalformedHeader(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/ask", nil)
	req.Header.Set(RequestIDHeader, "bad id\nwith newline")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.NotEqual(t, "bad id\nwith newline", seen)
	assert.Len(t, seen, 36)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))

	assert.True(t, validRequestID("req-123"))
	assert.False(t, validRequestID(strings.Repeat("a", maxRequestIDLen+1)))
	assert.Equal(t, "", GetRequestID(context.Background()))
	assert.Equal(t, "abc", GetRequestID(WithRequestID(context.Background(), "abc")))
}
