package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/miminai/mimin/internal/metrics"
	"github.com/miminai/mimin/internal/observability"
)

// knownRoutes label requests that reach no chi route context.
var knownRoutes = map[string]string{
	"/":          "/",
	"/version":   "/version",
	"/metrics":   "/metrics",
	"/api/ask":   "/api/ask",
	"/api/fetch": "/api/fetch",
	"/api/test":  "/api/test",
}

// statusRecorder captures the status code and body size of a response.
type statusRecorder struct {
	http.ResponseWriter
	status  int
	written int64
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *statusRecorder) Write(b []byte) (int, error) {
	n, err := rec.ResponseWriter.Write(b)
	rec.written += int64(n)
	return n, err
}

// RouteLabel returns a low-cardinality endpoint label: the chi route
// pattern when routing matched, otherwise a fixed bucket.
func RouteLabel(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}

	path := r.URL.Path
	if path == "/health" || strings.HasPrefix(path, "/health/") || path == "/api/health" {
		return "/health/*"
	}
	if label, ok := knownRoutes[path]; ok {
		return label
	}
	return "/unknown"
}

// operational reports endpoints polled by orchestrators and scrapers. Their
// access lines are logged at debug level.
func operational(endpoint string) bool {
	return strings.HasPrefix(endpoint, "/health") || endpoint == "/metrics"
}

// RequestMetrics records HTTP metrics and writes one access log line per
// request.
func RequestMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		var requestBytes int64
		if cl := r.Header.Get("Content-Length"); cl != "" {
			if n, err := strconv.ParseInt(cl, 10, 64); err == nil {
				requestBytes = n
			}
		}

		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		endpoint := RouteLabel(r)
		metrics.RecordHTTPRequest(metrics.HTTPRequest{
			Method:        r.Method,
			Endpoint:      endpoint,
			Status:        rec.status,
			Duration:      duration,
			RequestBytes:  requestBytes,
			ResponseBytes: rec.written,
		})

		logger := observability.ServerLogger
		if logger == nil {
			return
		}
		log := logger.Info
		if operational(endpoint) && rec.status < 400 {
			log = logger.Debug
		}
		log("HTTP request completed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("endpoint", endpoint),
			zap.Int("status", rec.status),
			zap.Duration("duration", duration),
			zap.Int64("response_size", rec.written),
			zap.String("requestID", GetRequestID(r.Context())),
		)
	})
}
