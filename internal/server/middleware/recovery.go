package middleware

import (
	"encoding/json"
	"net/http"
	"runtime/debug"

	"github.com/fulmenhq/gofulmen/errors"
	"go.uber.org/zap"

	"github.com/miminai/mimin/internal/metrics"
	"github.com/miminai/mimin/internal/observability"
)

// ErrorResponse is the error body written by middleware. It matches the
// envelope written by internal/errors, which this package cannot import.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
}

// Recovery turns a handler panic into a 500 envelope. The panic value and
// stack are logged; the client only sees the request ID.
// http.ErrAbortHandler is re-raised so net/http can abort the connection.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			requestID := GetRequestID(r.Context())
			if logger := observability.Component(); logger != nil {
				logger.Error("Handler panic",
					zap.Any("panic", rec),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.String("request_id", requestID),
					zap.ByteString("stack_trace", debug.Stack()))
			}
			metrics.RecordPanic()

			env := errors.NewErrorEnvelope("INTERNAL_ERROR", "Internal server error").WithCorrelationID(requestID)
			env, _ = env.WithSeverity(errors.SeverityCritical)
			writeEnvelope(w, env, http.StatusInternalServerError)
		}()

		next.ServeHTTP(w, r)
	})
}

func writeEnvelope(w http.ResponseWriter, env *errors.ErrorEnvelope, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: ErrorDetail{
		Code:      env.Code,
		Message:   env.Message,
		Details:   env.Context,
		RequestID: env.CorrelationID,
	}})
}
