package integration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miminai/mimin/internal/core"
	"github.com/miminai/mimin/internal/core/engine"
	"github.com/miminai/mimin/internal/core/mathsolve"
	"github.com/miminai/mimin/internal/core/search"
	"github.com/miminai/mimin/internal/core/synth"
	"github.com/miminai/mimin/internal/observability"
	"github.com/miminai/mimin/internal/server"
	"github.com/miminai/mimin/internal/server/handlers"
)

// cleanupMetrics tears down global telemetry state so each test starts clean.
func cleanupMetrics(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		_ = observability.ShutdownMetrics()
	})
}

// isPermissionError normalizes OS-specific permission errors (macOS/Linux/BSD)
// so we can gracefully skip when loopback sockets are blocked.
func isPermissionError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, os.ErrPermission) || errors.Is(err, syscall.EACCES) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, fragment := range []string{"permission denied", "operation not permitted", "not permitted"} {
		if strings.Contains(msg, fragment) {
			return true
		}
	}

	return false
}

// initMetricsOrSkip attempts to start the metrics exporter; if the environment
// forbids network binds we skip instead of failing the entire suite.
func initMetricsOrSkip(t *testing.T) {
	t.Helper()

	if err := observability.InitMetrics("test", 0, "test"); err != nil {
		if isPermissionError(err) {
			t.Skipf("skipping metrics tests due to sandbox permissions: %v", err)
		}
		require.NoError(t, err)
	}

	cleanupMetrics(t)
}

// fixedBackend answers every query with the same two hits.
type fixedBackend struct{}

func (fixedBackend) Name() string { return "fixed" }

func (fixedBackend) Text(_ context.Context, query string, _ int) ([]search.RawResult, error) {
	return []search.RawResult{
		{Title: "Golang overview", URL: "https://go.dev/", Body: "Golang is a programming language for " + query},
		{Title: "Unrelated", URL: "https://example.com/", Body: "Nothing to see here"},
	}, nil
}

func (fixedBackend) News(context.Context, string, int) ([]search.RawResult, error) {
	return []search.RawResult{{Title: "Golang release", URL: "https://go.dev/blog", Body: "A new golang release"}}, nil
}

// newPipeline wires the real solver, aggregator and fallback synthesizer.
func newPipeline() (*engine.Pipeline, core.Capabilities) {
	caps := core.Capabilities{SearchAvailable: true, SearchBackend: "fixed"}
	return &engine.Pipeline{
		Math:         mathsolve.New(),
		Search:       search.NewAggregator(fixedBackend{}, search.Options{}),
		Synth:        synth.New(nil, synth.Options{}),
		Capabilities: caps,
		Features:     core.Features{Search: true, MathSolver: true, WebScraping: true},
	}, caps
}

// newTestServer binds to IPv4 loopback explicitly (avoiding IPv6-only defaults)
// and skips when the sandbox refuses to open sockets.
func newTestServer(t *testing.T) (*httptest.Server, *http.Client) {
	t.Helper()

	pipeline, caps := newPipeline()
	hm := handlers.NewHealthManager("test")
	hm.RegisterChecker("pipeline", handlers.CheckFunc(func(context.Context) error { return nil }))
	hm.RegisterChecker("model", handlers.CheckFunc(func(context.Context) error { return handlers.ErrDegraded }))

	srv := server.New(server.Options{
		Host:   "127.0.0.1",
		Health: hm,
		API: &handlers.API{
			Pipeline:     pipeline,
			Capabilities: caps,
			Features:     pipeline.Features,
		},
	})

	listener, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		if isPermissionError(err) {
			t.Skipf("skipping server setup: %v", err)
		}
		require.NoError(t, err)
	}

	ts := &httptest.Server{
		Listener: listener,
		Config:   &http.Server{Handler: srv.Handler()},
	}
	ts.Start()
	t.Cleanup(ts.Close)
	return ts, ts.Client()
}

func ask(t *testing.T, client *http.Client, baseURL, question string) core.AnswerResult {
	t.Helper()
	resp, err := client.Get(baseURL + "/api/ask?question=" + url.QueryEscape(question))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result core.AnswerResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	return result
}

func TestAskEndToEnd(t *testing.T) {
	observability.InitCLILogger("test", false)
	observability.InitServerLogger("test", "info", false)

	ts, client := newTestServer(t)

	t.Run("math question", func(t *testing.T) {
		result := ask(t, client, ts.URL, "hitung 12 * 3")
		assert.True(t, result.Success)
		assert.True(t, result.MathSolved)
		assert.Contains(t, result.Answer, "36")
		assert.Equal(t, string(synth.ModeFallback), result.SynthesisMode)
	})

	t.Run("search question", func(t *testing.T) {
		result := ask(t, client, ts.URL, "apa itu golang")
		assert.True(t, result.Success)
		assert.False(t, result.MathSolved)
		require.NotEmpty(t, result.SearchResults)
		assert.Equal(t, len(result.SearchResults), result.SourcesCount)
		assert.Equal(t, "Golang overview", result.SearchResults[0].Title)
	})

	t.Run("blank question", func(t *testing.T) {
		resp, err := client.Get(ts.URL + "/api/ask?question=%20%20")
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("degraded health", func(t *testing.T) {
		resp, err := client.Get(ts.URL + "/health")
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body handlers.HealthResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "degraded", body.Status)
		assert.Equal(t, "degraded", body.Checks["model"])
	})
}

func TestMetricsEndpoint_Integration(t *testing.T) {
	observability.InitCLILogger("test", false)
	observability.InitServerLogger("test", "info", false)

	initMetricsOrSkip(t)

	ts, client := newTestServer(t)

	const numRequests = 40
	const numWorkers = 8

	requestChan := make(chan int, numRequests)
	for i := 0; i < numRequests; i++ {
		requestChan <- i
	}
	close(requestChan)

	start := time.Now()

	var wg sync.WaitGroup
	wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go func() {
			defer wg.Done()
			for reqNum := range requestChan {
				var path string
				switch reqNum % 4 {
				case 0:
					path = "/api/ask?question=" + url.QueryEscape(fmt.Sprintf("hitung %d + 1", reqNum))
				case 1:
					path = "/api/ask?question=golang"
				case 2:
					path = "/api/ask?question="
				default:
					path = "/health"
				}

				resp, err := client.Get(ts.URL + path)
				if err == nil {
					_ = resp.Body.Close()
				}
			}
		}()
	}
	wg.Wait()

	elapsed := time.Since(start)

	resp, err := client.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	body, readErr := io.ReadAll(resp.Body)
	require.NoError(t, resp.Body.Close())
	require.NoError(t, readErr)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	contentType := resp.Header.Get("Content-Type")
	assert.True(t, strings.HasPrefix(contentType, "text/plain; version=0.0.4"),
		"Expected Prometheus content type, got: %s", contentType)

	metricsContent := string(body)
	assert.Contains(t, metricsContent, "http_requests_total", "Should have HTTP request metrics")
	assert.Contains(t, metricsContent, "pipeline_requests_total", "Should have pipeline metrics")
	assert.Contains(t, metricsContent, "pipeline_stage_total", "Should have stage metrics")
	assert.Contains(t, metricsContent, "synth_mode_total", "Should have synthesis mode metrics")
	assert.True(t, elapsed < 10*time.Second, "Load test should complete in reasonable time")
	t.Logf("Load test completed: %d requests in %v (%.2f req/s)", numRequests, elapsed, float64(numRequests)/elapsed.Seconds())
}

func TestMetricsEndpoint_WithTelemetryDisabled(t *testing.T) {
	observability.InitCLILogger("test", false)
	observability.InitServerLogger("test", "info", false)

	originalExporter := observability.PrometheusExporter
	originalTelemetry := observability.TelemetrySystem
	observability.PrometheusExporter = nil
	observability.TelemetrySystem = nil
	t.Cleanup(func() {
		observability.PrometheusExporter = originalExporter
		observability.TelemetrySystem = originalTelemetry
	})

	ts, client := newTestServer(t)

	result := ask(t, client, ts.URL, "hitung 2 + 2")
	assert.True(t, result.Success)

	resp, err := client.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
