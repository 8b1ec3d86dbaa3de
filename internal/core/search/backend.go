// Package search queries a web-search backend for web and news results and
// merges them into one relevance-ranked list.
package search

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"
)

// RawResult is a backend hit before normalization. Any field may be empty.
type RawResult struct {
	Title string
	URL   string
	Body  string
}

// Backend is a search provider answering general and news queries.
type Backend interface {
	Name() string
	Text(ctx context.Context, query string, limit int) ([]RawResult, error)
	News(ctx context.Context, query string, limit int) ([]RawResult, error)
}

// BackendConfig describes how to build a backend.
type BackendConfig struct {
	Type       string
	APIKey     string
	BaseURL    string
	Region     string
	UserAgent  string
	Timeout    time.Duration
	HTTPClient *http.Client
}

func (c BackendConfig) client() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

// Factory builds a Backend from its configuration.
type Factory func(cfg BackendConfig) (Backend, error)

// Registry maps backend types to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns a registry with the built-in backends.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]Factory)}
	r.Register(BackendDuckDuckGo, NewDuckDuckGo)
	r.Register(BackendTavily, NewTavily)
	return r
}

// Register adds or replaces the factory for a backend type.
func (r *Registry) Register(backendType string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[backendType] = factory
}

// Create builds the backend named by cfg.Type.
func (r *Registry) Create(cfg BackendConfig) (Backend, error) {
	r.mu.RLock()
	factory, ok := r.factories[cfg.Type]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown search backend: %s", cfg.Type)
	}
	return factory(cfg)
}

// Types lists the registered backend types in sorted order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.factories))
	for t := range r.factories {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
