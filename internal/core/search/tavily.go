package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const tavilyBaseURL = "https://api.tavily.com"

// ErrMissingAPIKey is returned when a keyed backend is configured without a key.
var ErrMissingAPIKey = errors.New("search backend requires an API key")

// Tavily queries the Tavily search API.
type Tavily struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewTavily builds the Tavily backend.
func NewTavily(cfg BackendConfig) (Backend, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("tavily: %w", ErrMissingAPIKey)
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = tavilyBaseURL
	}
	return &Tavily{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  cfg.client(),
	}, nil
}

func (t *Tavily) Name() string { return BackendTavily }

func (t *Tavily) Text(ctx context.Context, query string, limit int) ([]RawResult, error) {
	return t.search(ctx, query, "general", limit)
}

func (t *Tavily) News(ctx context.Context, query string, limit int) ([]RawResult, error) {
	return t.search(ctx, query, "news", limit)
}

func (t *Tavily) search(ctx context.Context, query, topic string, limit int) ([]RawResult, error) {
	body, err := json.Marshal(map[string]any{
		"api_key":        t.apiKey,
		"query":          query,
		"topic":          topic,
		"search_depth":   "basic",
		"include_answer": false,
		"include_images": false,
		"max_results":    limit,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+t.apiKey)

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tavily: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("tavily: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tavily: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var payload struct {
		Results []struct {
			Title   string `json:"title"`
			URL     string `json:"url"`
			Content string `json:"content"`
		} `json:"results"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("tavily: failed to parse response: %w", err)
	}

	results := make([]RawResult, 0, len(payload.Results))
	for _, r := range payload.Results {
		results = append(results, RawResult{Title: r.Title, URL: r.URL, Body: r.Content})
	}
	return results, nil
}
