package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/miminai/mimin/internal/ailink/content"
	"github.com/miminai/mimin/internal/ailink/driver"
)

const defaultBaseURL = "https://api.openai.com/v1"

// Client implements the driver for OpenAI and OpenAI-compatible chat
// completion endpoints.
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
	return "openai"
}

// Complete sends a chat completion request.
func (c *Client) Complete(ctx context.Context, req *driver.Request) (*driver.Response, error) {
	if c == nil {
		return nil, fmt.Errorf("openai client not configured")
	}
	if strings.TrimSpace(c.APIKey) == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if req == nil || strings.TrimSpace(req.Model) == "" {
		return nil, fmt.Errorf("model is required")
	}

	ctx, cancel := withTimeout(ctx, c.Timeout)
	if cancel != nil {
		defer cancel()
	}

	config := goopenai.DefaultConfig(c.APIKey)
	config.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.HTTPClient != nil {
		config.HTTPClient = c.HTTPClient
	}
	client := goopenai.NewClientWithConfig(config)

	resp, err := client.CreateChatCompletion(ctx, buildChatRequest(req))
	if err != nil {
		return nil, toProviderError(err)
	}
	return toDriverResponse(resp), nil
}

func buildChatRequest(req *driver.Request) goopenai.ChatCompletionRequest {
	messages := make([]goopenai.ChatCompletionMessage, 0, len(req.Messages))
	for _, msg := range req.Messages {
		role := goopenai.ChatMessageRoleUser
		switch msg.Role {
		case content.RoleSystem:
			role = goopenai.ChatMessageRoleSystem
		case content.RoleAssistant:
			role = goopenai.ChatMessageRoleAssistant
		}
		messages = append(messages, goopenai.ChatCompletionMessage{
			Role:    role,
			Content: content.JoinText(msg.Content),
		})
	}

	chatReq := goopenai.ChatCompletionRequest{
		Model:    req.Model,
		Messages: messages,
	}
	if req.Temperature != nil {
		chatReq.Temperature = float32(*req.Temperature)
	}
	if req.TopP != nil {
		chatReq.TopP = float32(*req.TopP)
	}
	if req.MaxTokens != nil {
		chatReq.MaxTokens = *req.MaxTokens
	}
	return chatReq
}

func toDriverResponse(resp goopenai.ChatCompletionResponse) *driver.Response {
	out := &driver.Response{
		Usage: &driver.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}
	if len(resp.Choices) == 0 {
		return out
	}
	choice := resp.Choices[0]
	out.FinishReason = string(choice.FinishReason)
	if choice.Message.Content != "" {
		out.Content = []content.ContentBlock{{Type: content.ContentTypeText, Text: choice.Message.Content}}
	}
	return out
}

func toProviderError(err error) error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return &driver.ProviderError{Provider: "openai", StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message}
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		return &driver.ProviderError{Provider: "openai", StatusCode: reqErr.HTTPStatusCode, Message: reqErr.Error()}
	}
	return fmt.Errorf("openai request failed: %w", err)
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return ctx, nil
	}
	return context.WithTimeout(ctx, timeout)
}
