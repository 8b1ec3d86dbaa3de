// Package config provides centralized configuration management for Mimin.
// Values come from defaults, an optional YAML file and the environment, and
// are decoded once into a typed Config.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	gfconfig "github.com/fulmenhq/gofulmen/config"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/miminai/mimin/internal/ailink"
)

var (
	// appConfig holds the current application configuration
	appConfig *Config
	configMu  sync.RWMutex
)

// envAliases maps configuration keys to the unprefixed variable names the
// service has always honoured.
var envAliases = map[string][]string{
	"server.port":                         {"PORT"},
	"server.cors_origins":                 {"CORS_ORIGINS"},
	"features.search":                     {"ENABLE_SEARCH"},
	"features.math_solver":                {"ENABLE_MATH_SOLVER"},
	"features.web_scraping":               {"ENABLE_WEB_SCRAPING"},
	"pipeline.max_results":                {"SEARCH_MAX_RESULTS"},
	"ailink.model_override":               {"AI_MODEL"},
	"ailink.generation.temperature":       {"AI_TEMPERATURE"},
	"ailink.generation.max_output_tokens": {"AI_MAX_TOKENS"},
	"search.backends.tavily.api_key":      {"TAVILY_API_KEY"},
}

// providerKeyEnv names the conventional API key variable per provider id.
var providerKeyEnv = map[string]string{
	"gemini":    "GEMINI_API_KEY",
	"openai":    "OPENAI_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
}

// Load decodes the settings held by v into a Config. envPrefix (e.g.
// "MIMIN") scopes the prefixed environment variables. Load is safe to call
// more than once.
func Load(v *viper.Viper, envPrefix string) (*Config, error) {
	if v == nil {
		v = viper.GetViper()
	}
	prefix := strings.TrimSuffix(strings.ToUpper(strings.TrimSpace(envPrefix)), "_")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	if prefix != "" {
		v.SetEnvPrefix(prefix)
	}
	v.AutomaticEnv()

	for key, aliases := range envAliases {
		names := []string{key}
		if prefix != "" {
			names = append(names, prefix+"_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")))
		}
		names = append(names, aliases...)
		if err := v.BindEnv(names...); err != nil {
			return nil, fmt.Errorf("bind env for %s: %w", key, err)
		}
	}

	if prefix != "" {
		overrides := map[string]any{}
		applyAILinkDynamicEnvOverrides(prefix+"_", overrides)
		if len(overrides) > 0 {
			if err := v.MergeConfigMap(overrides); err != nil {
				return nil, fmt.Errorf("failed to merge environment overrides: %w", err)
			}
		}
	}

	cfg := &Config{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
			mapstructure.StringToFloat64HookFunc(),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	if err := decoder.Decode(v.AllSettings()); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyProviderKeyEnv(cfg, os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	setConfig(cfg)
	return cfg, nil
}

// Validate rejects values the services cannot start with.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	if c.Pipeline.MaxResults < 0 || c.Pipeline.DigestResults < 0 {
		return fmt.Errorf("pipeline result limits must not be negative")
	}
	if c.Topics.MinWordLength < 0 || c.Topics.MaxTopics < 0 {
		return fmt.Errorf("topics limits must not be negative")
	}
	if t := c.AILink.Generation.Temperature; t < 0 || t > 2 {
		return fmt.Errorf("invalid ailink.generation.temperature %v", t)
	}
	if p := c.AILink.Generation.TopP; p < 0 || p > 1 {
		return fmt.Errorf("invalid ailink.generation.top_p %v", p)
	}
	return nil
}

// GetConfig returns the current application configuration (thread-safe)
func GetConfig() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return appConfig
}

// setConfig updates the current configuration (thread-safe)
func setConfig(cfg *Config) {
	configMu.Lock()
	defer configMu.Unlock()
	appConfig = cfg
}

// applyProviderKeyEnv adds a credential from the conventional key variable
// (GEMINI_API_KEY and friends) to providers that have none configured.
func applyProviderKeyEnv(cfg *Config, lookup func(string) (string, bool)) {
	for id, envName := range providerKeyEnv {
		key, ok := lookup(envName)
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			continue
		}
		provider, exists := cfg.AILink.Providers[id]
		if !exists {
			continue
		}
		hasKey := false
		for _, cred := range provider.Credentials {
			if strings.TrimSpace(cred.APIKey) != "" {
				hasKey = true
				break
			}
		}
		if hasKey {
			continue
		}
		provider.Credentials = append(provider.Credentials, ailinkCredential(envName, key))
		cfg.AILink.Providers[id] = provider
	}
}

// DefaultConfigPath returns the XDG-compliant path to the user config file.
func DefaultConfigPath(configName string) string {
	configDir := gfconfig.GetAppConfigDir(configName)
	if strings.TrimSpace(configDir) == "" {
		return ""
	}
	return filepath.Join(configDir, "config.yaml")
}

func applyAILinkDynamicEnvOverrides(prefix string, envOverrides map[string]any) {
	providerPrefix := prefix + "AILINK_PROVIDERS_"

	for _, item := range os.Environ() {
		key, value, ok := strings.Cut(item, "=")
		if !ok {
			continue
		}
		if strings.TrimSpace(value) == "" {
			continue
		}
		if strings.HasPrefix(key, providerPrefix) {
			applyAILinkProviderOverride(envOverrides, key[len(providerPrefix):], value)
		}
	}
}

func applyAILinkProviderOverride(envOverrides map[string]any, raw string, value string) {
	parts := strings.Split(strings.TrimSpace(raw), "_")
	if len(parts) < 2 {
		return
	}

	section := -1
	for i, part := range parts {
		switch part {
		case "ENABLED", "AI", "BASE", "MODELS", "CREDENTIALS", "SELECTION", "DEFAULT":
			section = i
		}
		if section != -1 {
			break
		}
	}
	if section <= 0 {
		return
	}

	providerID := strings.ToLower(strings.Join(parts[:section], "-"))
	if providerID == "" {
		return
	}

	ailink := ensureMap(envOverrides, "ailink")
	providers := ensureMap(ailink, "providers")
	provider := ensureMap(providers, providerID)

	rest := parts[section:]
	switch {
	case len(rest) == 1 && rest[0] == "ENABLED":
		provider["enabled"] = strings.EqualFold(strings.TrimSpace(value), "true")
	case len(rest) == 2 && rest[0] == "AI" && rest[1] == "PROVIDER":
		provider["ai_provider"] = strings.ToLower(strings.TrimSpace(value))
	case len(rest) == 2 && rest[0] == "DEFAULT" && rest[1] == "CREDENTIAL":
		provider["default_credential"] = strings.TrimSpace(value)
	case len(rest) == 2 && rest[0] == "SELECTION" && rest[1] == "POLICY":
		provider["selection_policy"] = strings.ToLower(strings.TrimSpace(value))
	case len(rest) == 2 && rest[0] == "BASE" && rest[1] == "URL":
		provider["base_url"] = strings.TrimSpace(value)
	case len(rest) == 2 && rest[0] == "MODELS":
		models := ensureMap(provider, "models")
		switch rest[1] {
		case "DEFAULT":
			models["default"] = strings.TrimSpace(value)
		case "CANDIDATES":
			models["candidates"] = splitList(value)
		}
	case len(rest) >= 3 && rest[0] == "CREDENTIALS":
		idx, err := strconv.Atoi(rest[1])
		if err != nil || idx < 0 {
			return
		}
		field := strings.ToLower(strings.Join(rest[2:], "_"))
		if field == "" {
			return
		}

		creds := ensureSlice(provider, "credentials", idx+1)
		cred := ensureSliceMap(creds, idx)
		if field == "priority" {
			if parsed, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
				cred[field] = parsed
			} else {
				cred[field] = strings.TrimSpace(value)
			}
			return
		}
		if field == "enabled" {
			cred[field] = strings.EqualFold(strings.TrimSpace(value), "true")
			return
		}
		cred[field] = strings.TrimSpace(value)
	}
}

func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func ensureMap(parent map[string]any, key string) map[string]any {
	if parent == nil {
		return map[string]any{}
	}
	if existing, ok := parent[key]; ok {
		if typed, ok := existing.(map[string]any); ok {
			return typed
		}
	}
	next := map[string]any{}
	parent[key] = next
	return next
}

func ensureSlice(parent map[string]any, key string, length int) []any {
	var existing []any
	if raw, ok := parent[key]; ok {
		existing, _ = raw.([]any)
	}
	for len(existing) < length {
		existing = append(existing, map[string]any{})
	}
	parent[key] = existing
	return existing
}

func ensureSliceMap(slice []any, idx int) map[string]any {
	if idx < 0 || idx >= len(slice) {
		return map[string]any{}
	}
	if typed, ok := slice[idx].(map[string]any); ok {
		return typed
	}
	m := map[string]any{}
	slice[idx] = m
	return m
}

func ailinkCredential(label, key string) ailink.CredentialConfig {
	return ailink.CredentialConfig{
		Enabled: true,
		Label:   strings.ToLower(label),
		APIKey:  key,
	}
}
