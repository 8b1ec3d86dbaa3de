package prompt

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrNotFound is returned by Get for an unknown slug.
var ErrNotFound = errors.New("prompt not found")

// Registry provides access to prompt definitions.
type Registry interface {
	Get(slug string) (*Prompt, error)
	List() []*Prompt
}

// InMemoryRegistry stores prompts by slug.
type InMemoryRegistry struct {
	bySlug map[string]*Prompt
}

// NewRegistry builds a registry from prompts. Two prompts sharing a slug
// are an error; use Overlay to replace one deliberately.
func NewRegistry(prompts []*Prompt) (*InMemoryRegistry, error) {
	reg := &InMemoryRegistry{bySlug: make(map[string]*Prompt, len(prompts))}
	for _, p := range prompts {
		slug, err := slugOf(p)
		if err != nil {
			return nil, err
		}
		if slug == "" {
			continue
		}
		if existing, ok := reg.bySlug[slug]; ok {
			return nil, fmt.Errorf("duplicate prompt slug %s (%s and %s)", slug, existing.Source, p.Source)
		}
		reg.bySlug[slug] = p
	}
	return reg, nil
}

// Overlay returns a copy of r in which each of prompts replaces the entry
// with the same slug, or is added when the slug is new.
func (r *InMemoryRegistry) Overlay(prompts []*Prompt) (*InMemoryRegistry, error) {
	out := &InMemoryRegistry{bySlug: make(map[string]*Prompt)}
	if r != nil {
		for slug, p := range r.bySlug {
			out.bySlug[slug] = p
		}
	}
	for _, p := range prompts {
		slug, err := slugOf(p)
		if err != nil {
			return nil, err
		}
		if slug != "" {
			out.bySlug[slug] = p
		}
	}
	return out, nil
}

// Get returns the prompt for the slug.
func (r *InMemoryRegistry) Get(slug string) (*Prompt, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, fmt.Errorf("prompt slug is required")
	}
	if r == nil {
		return nil, fmt.Errorf("%w: %s (registry not configured)", ErrNotFound, slug)
	}
	p, ok := r.bySlug[slug]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, slug)
	}
	return p, nil
}

// List returns a new slice of the prompts ordered by slug.
func (r *InMemoryRegistry) List() []*Prompt {
	if r == nil {
		return nil
	}
	out := make([]*Prompt, 0, len(r.bySlug))
	for _, p := range r.bySlug {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Config.Slug < out[j].Config.Slug })
	return out
}

// slugOf returns "" for a nil prompt.
func slugOf(p *Prompt) (string, error) {
	if p == nil {
		return "", nil
	}
	slug := strings.TrimSpace(p.Config.Slug)
	if slug == "" {
		return "", fmt.Errorf("prompt %s missing slug", p.Source)
	}
	return slug, nil
}
