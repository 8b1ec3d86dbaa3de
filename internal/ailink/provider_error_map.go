package ailink

import (
	"context"
	"errors"
	"strings"

	"github.com/miminai/mimin/internal/ailink/driver"
)

// Error captures an ailink failure in a form suitable for logs and
// diagnostics output.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (e *Error) Error() string {
	if e == nil {
		return "ailink error"
	}
	if e.Details != "" {
		return e.Message + ": " + e.Details
	}
	return e.Message
}

// MapError classifies err into a stable ailink error code.
func MapError(err error) *Error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Code: "AILINK_PROVIDER_TIMEOUT", Message: "provider request timed out"}
	}
	if errors.Is(err, ErrNoCredential) {
		return &Error{Code: "AILINK_NO_CREDENTIAL", Message: "no usable api key", Details: err.Error()}
	}
	if errors.Is(err, ErrEmptyResponse) {
		return &Error{Code: "AILINK_EMPTY_RESPONSE", Message: "provider returned no text"}
	}

	var perr *driver.ProviderError
	if errors.As(err, &perr) && perr != nil {
		status := perr.StatusCode
		details := strings.TrimSpace(perr.Message)
		switch {
		case status == 401 || status == 403:
			return &Error{Code: "AILINK_PROVIDER_AUTH", Message: "provider authentication failed", Details: details}
		case status == 404:
			return &Error{Code: "AILINK_MODEL_NOT_FOUND", Message: "model not available", Details: details}
		case status == 429:
			return &Error{Code: "AILINK_PROVIDER_RATE_LIMIT", Message: "provider rate limited", Details: details}
		case status >= 500 && status <= 599:
			return &Error{Code: "AILINK_PROVIDER_UNAVAILABLE", Message: "provider unavailable", Details: details}
		case status >= 400 && status <= 499:
			return &Error{Code: "AILINK_PROVIDER_BAD_REQUEST", Message: "provider rejected request", Details: details}
		default:
			return &Error{Code: "AILINK_PROVIDER_ERROR", Message: "provider request failed", Details: details}
		}
	}

	return &Error{Code: "AILINK_PROVIDER_ERROR", Message: "provider request failed", Details: err.Error()}
}
