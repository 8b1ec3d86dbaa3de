package driver

import (
	"context"
	"strings"

	"github.com/miminai/mimin/internal/ailink/content"
)

// Driver defines the interface for generative model providers.
type Driver interface {
	// Complete sends a completion request and returns the response.
	Complete(ctx context.Context, req *Request) (*Response, error)
	// Name returns the driver identifier (e.g., "gemini").
	Name() string
}

// Usage contains token usage statistics.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Request is a provider-agnostic completion request.
type Request struct {
	Model       string
	Messages    []content.Message
	Temperature *float64
	TopP        *float64
	MaxTokens   *int
	PromptSlug  string
}

// Response is a provider-agnostic completion response.
type Response struct {
	Content      []content.ContentBlock
	FinishReason string
	Usage        *Usage
}

// Text joins the text blocks of the response.
func (r *Response) Text() string {
	if r == nil {
		return ""
	}
	return content.JoinText(r.Content)
}

// SplitSystem separates system messages from the conversation. System text
// is joined with blank lines.
func SplitSystem(messages []content.Message) (string, []content.Message) {
	var system []string
	rest := make([]content.Message, 0, len(messages))
	for _, msg := range messages {
		if msg.Role == content.RoleSystem {
			if text := strings.TrimSpace(content.JoinText(msg.Content)); text != "" {
				system = append(system, text)
			}
			continue
		}
		rest = append(rest, msg)
	}
	return strings.Join(system, "\n\n"), rest
}

// Float32 converts an optional float64 parameter for SDKs that take float32.
func Float32(v *float64) *float32 {
	if v == nil {
		return nil
	}
	f := float32(*v)
	return &f
}
