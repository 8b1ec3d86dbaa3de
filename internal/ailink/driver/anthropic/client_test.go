package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miminai/mimin/internal/ailink/content"
	"github.com/miminai/mimin/internal/ailink/driver"
)

func TestClientRequiresAPIKey(t *testing.T) {
	client := NewClient("", " ")
	_, err := client.Complete(context.Background(), &driver.Request{Model: "claude-test"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "api key")
}

func TestClientSendsMessages(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, "sk-ant-test-123456", r.Header.Get("x-api-key"))

		var payload map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "claude-test", payload["model"])
		assert.Equal(t, "be precise", payload["system"])
		assert.Equal(t, float64(defaultMaxTokens), payload["max_tokens"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg_1","type":"message","role":"assistant","model":"claude-test","content":[{"type":"text","text":"Halo"}],"stop_reason":"end_turn","usage":{"input_tokens":4,"output_tokens":2}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk-ant-test-123456")
	client.HTTPClient = server.Client()

	resp, err := client.Complete(context.Background(), &driver.Request{
		Model: "claude-test",
		Messages: []content.Message{
			content.TextMessage(content.RoleSystem, "be precise"),
			content.TextMessage(content.RoleUser, "Hello"),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Halo", resp.Text())
	assert.Equal(t, "end_turn", resp.FinishReason)
	assert.Equal(t, 6, resp.Usage.TotalTokens)
}

func TestClientWrapsFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk-ant-test-123456")
	client.HTTPClient = server.Client()

	_, err := client.Complete(context.Background(), &driver.Request{
		Model:    "claude-test",
		Messages: []content.Message{content.TextMessage(content.RoleUser, "Hello")},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anthropic request failed")
}
