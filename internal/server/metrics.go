package server

import (
	"io"
	"net/http"
	"time"

	"github.com/fulmenhq/gofulmen/errors"
	"go.uber.org/zap"

	"github.com/miminai/mimin/internal/observability"
)

var metricsProxyClient = &http.Client{Timeout: 5 * time.Second}

// hopHeaders are not copied from the exporter response.
var hopHeaders = map[string]bool{
	"Connection":          true,
	"Keep-Alive":          true,
	"Proxy-Authenticate":  true,
	"Proxy-Authorization": true,
	"Te":                  true,
	"Trailer":             true,
	"Transfer-Encoding":   true,
	"Upgrade":             true,
}

// MetricsHandler serves GET /metrics by relaying the Prometheus exporter's
// own listener, so one port is enough for scraping. Without an exporter
// (metrics disabled) it answers 503.
func MetricsHandler(w http.ResponseWriter, r *http.Request) {
	if observability.PrometheusExporter == nil {
		HandleError(w, r, errors.NewErrorEnvelope("SERVICE_UNAVAILABLE", "Metrics are disabled"))
		return
	}

	target := observability.MetricsURL()
	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, target, nil)
	if err != nil {
		HandleError(w, r, scrapeError("INTERNAL_ERROR", "Unable to build metrics request", target, err))
		return
	}
	if accept := r.Header.Get("Accept"); accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := metricsProxyClient.Do(req)
	if err != nil {
		HandleError(w, r, scrapeError("EXTERNAL_SERVICE_ERROR", "Metrics exporter unavailable", target, err))
		return
	}
	defer resp.Body.Close()

	for key, values := range resp.Header {
		if hopHeaders[http.CanonicalHeaderKey(key)] {
			continue
		}
		for _, v := range values {
			w.Header().Add(key, v)
		}
	}
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	}

	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		if logger := observability.Component(); logger != nil {
			logger.Warn("Relaying metrics failed", zap.Error(err))
		}
	}
}

func scrapeError(code, message, target string, err error) *errors.ErrorEnvelope {
	env, _ := errors.NewErrorEnvelope(code, message).WithContext(map[string]interface{}{
		"metrics_url": target,
		"cause":       err.Error(),
	})
	return env
}
