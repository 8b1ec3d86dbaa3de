package metrics

import (
	"strconv"
	"time"
)

// HTTPRequest describes one served request. Endpoint must be a route
// pattern, never a raw path.
type HTTPRequest struct {
	Method        string
	Endpoint      string
	Status        int
	Duration      time.Duration
	RequestBytes  int64
	ResponseBytes int64
}

// RecordHTTPRequest emits the request counter, latency and sizes, plus an
// error counter for 4xx and 5xx responses.
func RecordHTTPRequest(req HTTPRequest) {
	status := strconv.Itoa(req.Status)
	l := labels{"method": req.Method, "endpoint": req.Endpoint, "status": status}
	count(HTTPRequestsTotal, l)
	observe(HTTPRequestDuration, req.Duration, l)

	sized := labels{"method": req.Method, "endpoint": req.Endpoint}
	set(HTTPRequestSizeBytes, float64(req.RequestBytes), sized)
	set(HTTPResponseSizeBytes, float64(req.ResponseBytes), sized)

	if req.Status >= 400 {
		count(HTTPErrorsTotal, labels{
			"method":     req.Method,
			"endpoint":   req.Endpoint,
			"status":     status,
			"error_type": outcome(req.Status < 500, "client_error", "server_error"),
		})
	}
}

// RecordError records an error response by code and status.
func RecordError(errorCode string, httpStatus int) {
	count(ErrorsTotal, labels{"error_code": errorCode, "http_status": strconv.Itoa(httpStatus)})
}

// RecordErrorByEndpoint records an error response by request path.
func RecordErrorByEndpoint(endpoint string, errorCode string) {
	count(ErrorsByEndpoint, labels{"endpoint": endpoint, "error_code": errorCode})
}

// RecordPanic records a recovered handler panic.
func RecordPanic() {
	count(PanicsTotal, nil)
}
