package anthropic

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	goanthropic "github.com/liushuangls/go-anthropic/v2"

	"github.com/miminai/mimin/internal/ailink/content"
	"github.com/miminai/mimin/internal/ailink/driver"
)

const (
	defaultBaseURL   = "https://api.anthropic.com/v1"
	defaultMaxTokens = 1024
)

// Client implements the driver for the Anthropic Messages API.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// NewClient returns a client with defaults applied.
func NewClient(baseURL, apiKey string) *Client {
	url := strings.TrimSpace(baseURL)
	if url == "" {
		url = defaultBaseURL
	}
	return &Client{
		BaseURL: url,
		APIKey:  strings.TrimSpace(apiKey),
	}
}

// Name returns the driver identifier.
func (c *Client) Name() string {
	return "anthropic"
}

// Complete sends a messages request. Anthropic requires max_tokens, so a
// default is applied when the request leaves it unset.
func (c *Client) Complete(ctx context.Context, req *driver.Request) (*driver.Response, error) {
	if c == nil {
		return nil, fmt.Errorf("anthropic client not configured")
	}
	if strings.TrimSpace(c.APIKey) == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if req == nil || strings.TrimSpace(req.Model) == "" {
		return nil, fmt.Errorf("model is required")
	}

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	opts := []goanthropic.ClientOption{goanthropic.WithBaseURL(strings.TrimRight(c.BaseURL, "/"))}
	if c.HTTPClient != nil {
		opts = append(opts, goanthropic.WithHTTPClient(c.HTTPClient))
	}
	client := goanthropic.NewClient(c.APIKey, opts...)

	system, messages := driver.SplitSystem(req.Messages)
	msgReq := goanthropic.MessagesRequest{
		Model:       goanthropic.Model(req.Model),
		System:      system,
		MaxTokens:   defaultMaxTokens,
		Temperature: driver.Float32(req.Temperature),
		TopP:        driver.Float32(req.TopP),
	}
	if req.MaxTokens != nil && *req.MaxTokens > 0 {
		msgReq.MaxTokens = *req.MaxTokens
	}
	for _, msg := range messages {
		text := content.JoinText(msg.Content)
		if msg.Role == content.RoleAssistant {
			msgReq.Messages = append(msgReq.Messages, goanthropic.NewAssistantTextMessage(text))
			continue
		}
		msgReq.Messages = append(msgReq.Messages, goanthropic.NewUserTextMessage(text))
	}

	resp, err := client.CreateMessages(ctx, msgReq)
	if err != nil {
		return nil, toProviderError(err)
	}

	out := &driver.Response{
		FinishReason: string(resp.StopReason),
		Usage: &driver.Usage{
			PromptTokens:     resp.Usage.InputTokens,
			CompletionTokens: resp.Usage.OutputTokens,
			TotalTokens:      resp.Usage.InputTokens + resp.Usage.OutputTokens,
		},
	}
	if text := resp.GetFirstContentText(); text != "" {
		out.Content = []content.ContentBlock{{Type: content.ContentTypeText, Text: text}}
	}
	return out, nil
}

// toProviderError keeps the HTTP status of failed requests so callers can
// tell auth, quota and outage failures apart.
func toProviderError(err error) error {
	var reqErr *goanthropic.RequestError
	if errors.As(err, &reqErr) {
		return &driver.ProviderError{Provider: "anthropic", StatusCode: reqErr.StatusCode, Message: reqErr.Error()}
	}
	return fmt.Errorf("anthropic request failed: %w", err)
}
