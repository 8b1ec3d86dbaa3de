package ailink

import "time"

// Config defines provider configuration for AILink.
//
// This is intentionally self-contained so it can later be extracted as a
// standalone library configuration subtree.
type Config struct {
	DefaultProvider string        `mapstructure:"default_provider"`
	DefaultTimeout  time.Duration `mapstructure:"default_timeout"`

	// ProbeTimeout bounds each startup "Hello" probe.
	ProbeTimeout time.Duration `mapstructure:"probe_timeout"`

	// ModelOverride, when set, is probed before any configured candidate.
	ModelOverride string `mapstructure:"model_override"`

	// PromptsDir allows applications to override the built-in prompt set.
	PromptsDir string `mapstructure:"prompts_dir"`

	Generation GenerationConfig `mapstructure:"generation"`

	// Providers is a set of provider instances keyed by a user-defined id (slug).
	// Each instance declares its underlying provider type via AIProvider.
	Providers map[string]ProviderInstanceConfig `mapstructure:"providers"`

	// Fallbacks lists provider ids probed, in order, after the default provider.
	Fallbacks []string `mapstructure:"fallbacks"`
}

// GenerationConfig holds the sampling parameters for answer generation.
type GenerationConfig struct {
	Temperature     float64 `mapstructure:"temperature"`
	MaxOutputTokens int     `mapstructure:"max_output_tokens"`
	TopP            float64 `mapstructure:"top_p"`
}

// ProviderInstanceConfig defines a configured provider instance (e.g. "gemini").
type ProviderInstanceConfig struct {
	Enabled bool `mapstructure:"enabled"`

	// AIProvider is the provider type/driver identifier ("gemini", "openai", "anthropic").
	AIProvider string `mapstructure:"ai_provider"`

	// SelectionPolicy controls which credential is chosen.
	// Supported values: "priority" (default), "round_robin".
	SelectionPolicy string `mapstructure:"selection_policy"`

	// DefaultCredential, if set, forces selecting the matching credential label.
	// If missing/invalid, selection falls back to SelectionPolicy.
	DefaultCredential string `mapstructure:"default_credential"`

	BaseURL string       `mapstructure:"base_url"`
	Models  ModelsConfig `mapstructure:"models"`

	Credentials []CredentialConfig `mapstructure:"credentials"`
}

// ModelsConfig names the default model and the ordered probe candidates.
type ModelsConfig struct {
	Default    string   `mapstructure:"default"`
	Candidates []string `mapstructure:"candidates"`
}

// CredentialConfig is a single credential for a provider instance.
//
// Multiple credentials enable key rotation and per-key rate limit handling.
type CredentialConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Label    string `mapstructure:"label"`
	APIKey   string `mapstructure:"api_key"`
	Priority int    `mapstructure:"priority"`
}
