package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miminai/mimin/internal/ailink/content"
	"github.com/miminai/mimin/internal/ailink/driver"
)

func TestClientRequiresAPIKey(t *testing.T) {
	client := NewClient("", "")
	_, err := client.Complete(context.Background(), &driver.Request{Model: "gemini-2.0-flash"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "api key")
}

func TestClientGenerateContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/models/gemini-test:generateContent"), r.URL.Path)
		assert.Equal(t, "gemini-key-123456", r.Header.Get("x-goog-api-key"))

		var payload map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		genCfg, _ := payload["generationConfig"].(map[string]any)
		assert.Equal(t, float64(100), genCfg["maxOutputTokens"])
		_, hasSystem := payload["systemInstruction"]
		assert.True(t, hasSystem)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"Halo!"}]},"finishReason":"STOP"}],"usageMetadata":{"promptTokenCount":2,"candidatesTokenCount":3,"totalTokenCount":5}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "gemini-key-123456")
	client.HTTPClient = server.Client()

	maxTokens := 100
	resp, err := client.Complete(context.Background(), &driver.Request{
		Model: "gemini-test",
		Messages: []content.Message{
			content.TextMessage(content.RoleSystem, "answer in Indonesian"),
			content.TextMessage(content.RoleUser, "Hello"),
		},
		MaxTokens: &maxTokens,
	})
	require.NoError(t, err)
	assert.Equal(t, "Halo!", resp.Text())
	assert.Equal(t, "STOP", resp.FinishReason)
	require.NotNil(t, resp.Usage)
	assert.Equal(t, 5, resp.Usage.TotalTokens)
}

func TestClientMapsAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"code":404,"message":"model not found","status":"NOT_FOUND"}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "gemini-key-123456")
	client.HTTPClient = server.Client()

	_, err := client.Complete(context.Background(), &driver.Request{
		Model:    "missing",
		Messages: []content.Message{content.TextMessage(content.RoleUser, "Hello")},
	})
	require.Error(t, err)

	var perr *driver.ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, http.StatusNotFound, perr.StatusCode)
}
