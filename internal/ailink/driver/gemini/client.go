package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/miminai/mimin/internal/ailink/content"
	"github.com/miminai/mimin/internal/ailink/driver"
)

// Client implements the driver for the Gemini API.
type Client struct {
	// BaseURL overrides the API endpoint. Empty uses the SDK default.
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// NewClient returns a client for the Gemini API.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: strings.TrimSpace(baseURL),
		APIKey:  strings.TrimSpace(apiKey),
	}
}

// Name returns the driver identifier.
func (c *Client) Name() string {
	return "gemini"
}

// Complete sends a generateContent request.
func (c *Client) Complete(ctx context.Context, req *driver.Request) (*driver.Response, error) {
	if c == nil {
		return nil, fmt.Errorf("gemini client not configured")
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

	clientCfg := &genai.ClientConfig{
		APIKey:     c.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: c.HTTPClient,
	}
	if c.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: c.BaseURL}
	}
	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	system, messages := driver.SplitSystem(req.Messages)
	contents := make([]*genai.Content, 0, len(messages))
	for _, msg := range messages {
		role := genai.RoleUser
		if msg.Role == content.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(content.JoinText(msg.Content), genai.Role(role)))
	}

	genCfg := &genai.GenerateContentConfig{
		Temperature: driver.Float32(req.Temperature),
		TopP:        driver.Float32(req.TopP),
	}
	if req.MaxTokens != nil {
		genCfg.MaxOutputTokens = int32(*req.MaxTokens)
	}
	if system != "" {
		genCfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	resp, err := client.Models.GenerateContent(ctx, req.Model, contents, genCfg)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return nil, &driver.ProviderError{Provider: "gemini", StatusCode: apiErr.Code, Message: apiErr.Message}
		}
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}

	out := &driver.Response{}
	if text := resp.Text(); text != "" {
		out.Content = []content.ContentBlock{{Type: content.ContentTypeText, Text: text}}
	}
	if len(resp.Candidates) > 0 && resp.Candidates[0] != nil {
		out.FinishReason = string(resp.Candidates[0].FinishReason)
	}
	if u := resp.UsageMetadata; u != nil {
		out.Usage = &driver.Usage{
			PromptTokens:     int(u.PromptTokenCount),
			CompletionTokens: int(u.CandidatesTokenCount),
			TotalTokens:      int(u.TotalTokenCount),
		}
	}
	return out, nil
}
