package ailink

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/miminai/mimin/internal/ailink/driver"
	"github.com/miminai/mimin/internal/ailink/driver/anthropic"
	"github.com/miminai/mimin/internal/ailink/driver/gemini"
	"github.com/miminai/mimin/internal/ailink/driver/openai"
)

// MinAPIKeyLength is the shortest key treated as configured. Shorter values
// are placeholders left in config files.
const MinAPIKeyLength = 11

// ErrNoCredential is returned when a provider has no usable API key.
var ErrNoCredential = errors.New("no usable api key configured")

type Registry struct {
	cfg Config

	mu      sync.Mutex
	drivers map[string]driver.Driver
	rr      map[string]int

	// newDriver is swapped in tests.
	newDriver func(providerType string, providerCfg ProviderInstanceConfig, cred CredentialConfig) (driver.Driver, error)
}

type ResolvedProvider struct {
	ProviderID string
	Provider   ProviderInstanceConfig
	Credential CredentialConfig
	Driver     driver.Driver
	Model      string
}

func NewRegistry(cfg Config) *Registry {
	return &Registry{cfg: cfg}
}

// Resolve picks a credential and driver for providerID ("" selects the
// default provider) and the model to call.
func (r *Registry) Resolve(providerID, modelOverride string) (*ResolvedProvider, error) {
	providerID, providerCfg, err := r.resolveProvider(providerID)
	if err != nil {
		return nil, err
	}

	cred, credKey, err := selectCredential(providerCfg, func(groupKey string, n int) int {
		return r.rrIndex(providerID+":"+groupKey, n)
	})
	if err != nil {
		return nil, fmt.Errorf("provider %q: %w", providerID, err)
	}
	if !usableKey(cred.APIKey) {
		return nil, fmt.Errorf("provider %q: %w", providerID, ErrNoCredential)
	}

	drv, err := r.driverFor(providerID, providerCfg, cred, credKey)
	if err != nil {
		return nil, err
	}

	model, err := resolveModel(providerCfg, modelOverride)
	if err != nil {
		return nil, fmt.Errorf("provider %q: %w", providerID, err)
	}

	return &ResolvedProvider{
		ProviderID: providerID,
		Provider:   providerCfg,
		Credential: cred,
		Driver:     drv,
		Model:      model,
	}, nil
}

// ProviderOrder returns enabled provider ids: the default provider first,
// then the configured fallbacks, then any remaining providers by id.
func (r *Registry) ProviderOrder() []string {
	if r == nil {
		return nil
	}
	seen := map[string]bool{}
	var order []string
	add := func(id string) {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			return
		}
		if cfg, ok := r.cfg.Providers[id]; !ok || !cfg.Enabled {
			return
		}
		seen[id] = true
		order = append(order, id)
	}

	add(r.cfg.DefaultProvider)
	for _, id := range r.cfg.Fallbacks {
		add(id)
	}
	rest := make([]string, 0, len(r.cfg.Providers))
	for id := range r.cfg.Providers {
		rest = append(rest, id)
	}
	sort.Strings(rest)
	for _, id := range rest {
		add(id)
	}
	return order
}

func (r *Registry) resolveProvider(providerID string) (string, ProviderInstanceConfig, error) {
	if r == nil {
		return "", ProviderInstanceConfig{}, fmt.Errorf("ailink registry not configured")
	}

	if id := strings.TrimSpace(providerID); id != "" {
		providerCfg, ok := r.cfg.Providers[id]
		if !ok {
			return "", ProviderInstanceConfig{}, fmt.Errorf("unknown provider %q", id)
		}
		if !providerCfg.Enabled {
			return "", ProviderInstanceConfig{}, fmt.Errorf("provider %q is disabled", id)
		}
		return id, providerCfg, nil
	}

	if id := strings.TrimSpace(r.cfg.DefaultProvider); id != "" {
		providerCfg, ok := r.cfg.Providers[id]
		if !ok {
			return "", ProviderInstanceConfig{}, fmt.Errorf("default provider %q not configured", id)
		}
		if !providerCfg.Enabled {
			return "", ProviderInstanceConfig{}, fmt.Errorf("default provider %q is disabled", id)
		}
		return id, providerCfg, nil
	}

	var onlyID string
	var onlyCfg ProviderInstanceConfig
	for id, providerCfg := range r.cfg.Providers {
		if !providerCfg.Enabled {
			continue
		}
		if onlyID != "" {
			return "", ProviderInstanceConfig{}, fmt.Errorf("no default provider configured")
		}
		onlyID = id
		onlyCfg = providerCfg
	}
	if onlyID == "" {
		return "", ProviderInstanceConfig{}, fmt.Errorf("no enabled providers configured")
	}
	return onlyID, onlyCfg, nil
}

func usableKey(key string) bool {
	return len(strings.TrimSpace(key)) >= MinAPIKeyLength
}

func selectCredential(cfg ProviderInstanceConfig, rrNext func(groupKey string, n int) int) (CredentialConfig, string, error) {
	if len(cfg.Credentials) == 0 {
		return CredentialConfig{}, "", ErrNoCredential
	}

	enabled := make([]CredentialConfig, 0, len(cfg.Credentials))
	for _, cred := range cfg.Credentials {
		if !cred.Enabled && strings.TrimSpace(cred.Label) != "" {
			continue
		}
		if !usableKey(cred.APIKey) {
			continue
		}
		enabled = append(enabled, cred)
	}
	if len(enabled) == 0 {
		// Credentials exist but are not usable; return first so caller can report missing key.
		cred := cfg.Credentials[0]
		key := strings.TrimSpace(cred.Label)
		if key == "" {
			key = "0"
		}
		return cred, key, nil
	}

	if label := strings.TrimSpace(cfg.DefaultCredential); label != "" {
		for _, cred := range enabled {
			if strings.EqualFold(strings.TrimSpace(cred.Label), label) {
				return cred, strings.TrimSpace(cred.Label), nil
			}
		}
	}

	policy := strings.ToLower(strings.TrimSpace(cfg.SelectionPolicy))
	if policy == "" {
		policy = "priority"
	}

	// Compute highest priority set.
	highest := enabled[0].Priority
	for _, cred := range enabled[1:] {
		if cred.Priority > highest {
			highest = cred.Priority
		}
	}
	group := make([]CredentialConfig, 0, len(enabled))
	for _, cred := range enabled {
		if cred.Priority == highest {
			group = append(group, cred)
		}
	}

	idx := 0
	if policy == "round_robin" && rrNext != nil {
		idx = rrNext(fmt.Sprintf("%d", highest), len(group))
	}
	cred := group[idx]
	key := strings.TrimSpace(cred.Label)
	if key == "" {
		key = fmt.Sprintf("p%d:%d", highest, idx)
	}
	return cred, key, nil
}

func (r *Registry) driverFor(providerID string, providerCfg ProviderInstanceConfig, cred CredentialConfig, credKey string) (driver.Driver, error) {
	if strings.TrimSpace(providerID) == "" {
		return nil, fmt.Errorf("provider id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.drivers == nil {
		r.drivers = map[string]driver.Driver{}
	}
	driverKey := providerID
	if strings.TrimSpace(credKey) != "" {
		driverKey += ":" + credKey
	}
	if drv, ok := r.drivers[driverKey]; ok {
		return drv, nil
	}

	providerType := strings.ToLower(strings.TrimSpace(providerCfg.AIProvider))
	build := r.newDriver
	if build == nil {
		build = r.buildDriver
	}
	drv, err := build(providerType, providerCfg, cred)
	if err != nil {
		return nil, fmt.Errorf("%w for provider %q", err, providerID)
	}
	r.drivers[driverKey] = drv
	return drv, nil
}

func (r *Registry) buildDriver(providerType string, providerCfg ProviderInstanceConfig, cred CredentialConfig) (driver.Driver, error) {
	switch providerType {
	case "gemini", "google":
		client := gemini.NewClient(providerCfg.BaseURL, cred.APIKey)
		client.Timeout = r.cfg.DefaultTimeout
		return client, nil
	case "openai":
		client := openai.NewClient(providerCfg.BaseURL, cred.APIKey)
		client.Timeout = r.cfg.DefaultTimeout
		return client, nil
	case "anthropic":
		client := anthropic.NewClient(providerCfg.BaseURL, cred.APIKey)
		client.Timeout = r.cfg.DefaultTimeout
		return client, nil
	default:
		if providerType == "" {
			providerType = "(unset)"
		}
		return nil, fmt.Errorf("unsupported ai_provider %q", providerType)
	}
}

func resolveModel(providerCfg ProviderInstanceConfig, override string) (string, error) {
	if model := strings.TrimSpace(override); model != "" {
		return model, nil
	}
	if model := strings.TrimSpace(providerCfg.Models.Default); model != "" {
		return model, nil
	}
	for _, model := range providerCfg.Models.Candidates {
		if model = strings.TrimSpace(model); model != "" {
			return model, nil
		}
	}
	return "", fmt.Errorf("model not configured")
}

// candidateModels lists the models to probe for a provider: the override,
// then the candidates, then the default, without duplicates.
// Candidates lists the models probed for providerID in order, the model
// override first.
func (r *Registry) Candidates(providerID string) []string {
	if r == nil {
		return nil
	}
	return candidateModels(r.cfg.Providers[providerID], r.cfg.ModelOverride)
}

func candidateModels(providerCfg ProviderInstanceConfig, override string) []string {
	seen := map[string]bool{}
	var out []string
	add := func(m string) {
		m = strings.TrimSpace(m)
		if m == "" || seen[m] {
			return
		}
		seen[m] = true
		out = append(out, m)
	}
	add(override)
	for _, m := range providerCfg.Models.Candidates {
		add(m)
	}
	add(providerCfg.Models.Default)
	return out
}

func (r *Registry) rrIndex(key string, n int) int {
	if n <= 1 {
		return 0
	}
	if r == nil {
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.rr == nil {
		r.rr = map[string]int{}
	}
	idx := r.rr[key] % n
	r.rr[key] = r.rr[key] + 1
	return idx
}
