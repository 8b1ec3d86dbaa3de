package ailink

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/miminai/mimin/internal/ailink/driver"
)

func TestMapErrorStatusCodes(t *testing.T) {
	cases := []struct {
		name       string
		statusCode int
		wantCode   string
	}{
		{"auth", 401, "AILINK_PROVIDER_AUTH"},
		{"forbidden", 403, "AILINK_PROVIDER_AUTH"},
		{"missing model", 404, "AILINK_MODEL_NOT_FOUND"},
		{"rate", 429, "AILINK_PROVIDER_RATE_LIMIT"},
		{"bad", 400, "AILINK_PROVIDER_BAD_REQUEST"},
		{"unavail", 503, "AILINK_PROVIDER_UNAVAILABLE"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := fmt.Errorf("probe: %w", &driver.ProviderError{Provider: "gemini", StatusCode: tc.statusCode, Message: "boom"})
			mapped := MapError(err)
			require.NotNil(t, mapped)
			require.Equal(t, tc.wantCode, mapped.Code)
			require.Equal(t, "boom", mapped.Details)
		})
	}
}

func TestMapErrorSentinels(t *testing.T) {
	require.Nil(t, MapError(nil))
	require.Equal(t, "AILINK_PROVIDER_TIMEOUT", MapError(context.DeadlineExceeded).Code)
	require.Equal(t, "AILINK_NO_CREDENTIAL", MapError(fmt.Errorf("provider %q: %w", "x", ErrNoCredential)).Code)
	require.Equal(t, "AILINK_EMPTY_RESPONSE", MapError(ErrEmptyResponse).Code)
	require.Equal(t, "AILINK_PROVIDER_ERROR", MapError(errors.New("dial tcp: refused")).Code)
}
