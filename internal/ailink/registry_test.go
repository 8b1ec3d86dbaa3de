package ailink

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/miminai/mimin/internal/ailink/driver/anthropic"
	"github.com/miminai/mimin/internal/ailink/driver/gemini"
	"github.com/miminai/mimin/internal/ailink/driver/openai"
)

const testKey = "test-key-0123456789"

func TestResolveModelUsesOverrideFirst(t *testing.T) {
	providerCfg := ProviderInstanceConfig{Models: ModelsConfig{Default: "m-default"}}

	model, err := resolveModel(providerCfg, "override-model")
	require.NoError(t, err)
	require.Equal(t, "override-model", model)
}

func TestResolveModelFallsBackToCandidates(t *testing.T) {
	model, err := resolveModel(ProviderInstanceConfig{Models: ModelsConfig{Default: "m-default"}}, "")
	require.NoError(t, err)
	require.Equal(t, "m-default", model)

	model, err = resolveModel(ProviderInstanceConfig{Models: ModelsConfig{Candidates: []string{" ", "m-first"}}}, "")
	require.NoError(t, err)
	require.Equal(t, "m-first", model)

	_, err = resolveModel(ProviderInstanceConfig{}, "")
	require.Error(t, err)
}

func TestCandidateModelsOrderAndDedup(t *testing.T) {
	cfg := ProviderInstanceConfig{Models: ModelsConfig{
		Default:    "b",
		Candidates: []string{"a", "b", "c"},
	}}
	require.Equal(t, []string{"x", "a", "b", "c"}, candidateModels(cfg, "x"))
	require.Equal(t, []string{"a", "b", "c"}, candidateModels(cfg, "a"))

	reg := NewRegistry(Config{
		ModelOverride: "x",
		Providers:     map[string]ProviderInstanceConfig{"gemini": cfg},
	})
	require.Equal(t, []string{"x", "a", "b", "c"}, reg.Candidates("gemini"))
	require.Equal(t, []string{"x"}, reg.Candidates("missing"))
}

func TestResolveBuildsDriverPerProviderType(t *testing.T) {
	cfg := Config{
		DefaultProvider: "gemini",
		Providers: map[string]ProviderInstanceConfig{
			"gemini":    {Enabled: true, AIProvider: "gemini", Models: ModelsConfig{Default: "gemini-2.0-flash"}, Credentials: []CredentialConfig{{APIKey: testKey}}},
			"openai":    {Enabled: true, AIProvider: "openai", Models: ModelsConfig{Default: "gpt-4o-mini"}, Credentials: []CredentialConfig{{APIKey: testKey}}},
			"anthropic": {Enabled: true, AIProvider: "anthropic", Models: ModelsConfig{Default: "claude-3-5-haiku-latest"}, Credentials: []CredentialConfig{{APIKey: testKey}}},
			"bogus":     {Enabled: true, AIProvider: "bogus", Models: ModelsConfig{Default: "m"}, Credentials: []CredentialConfig{{APIKey: testKey}}},
		},
	}
	reg := NewRegistry(cfg)

	resolved, err := reg.Resolve("", "")
	require.NoError(t, err)
	require.Equal(t, "gemini", resolved.ProviderID)
	require.IsType(t, &gemini.Client{}, resolved.Driver)
	require.Equal(t, "gemini-2.0-flash", resolved.Model)

	resolved, err = reg.Resolve("openai", "")
	require.NoError(t, err)
	require.IsType(t, &openai.Client{}, resolved.Driver)

	resolved, err = reg.Resolve("anthropic", "")
	require.NoError(t, err)
	require.IsType(t, &anthropic.Client{}, resolved.Driver)

	_, err = reg.Resolve("bogus", "")
	require.ErrorContains(t, err, "unsupported ai_provider")

	_, err = reg.Resolve("missing", "")
	require.ErrorContains(t, err, "unknown provider")
}

func TestResolveRejectsShortKeys(t *testing.T) {
	reg := NewRegistry(Config{Providers: map[string]ProviderInstanceConfig{
		"gemini": {Enabled: true, AIProvider: "gemini", Models: ModelsConfig{Default: "m"}, Credentials: []CredentialConfig{{APIKey: "0123456789"}}},
	}})
	_, err := reg.Resolve("", "")
	require.ErrorIs(t, err, ErrNoCredential)
}

func TestSelectCredentialPolicies(t *testing.T) {
	cfg := ProviderInstanceConfig{
		SelectionPolicy: "round_robin",
		Credentials: []CredentialConfig{
			{Enabled: true, Label: "low", APIKey: testKey + "-low", Priority: 1},
			{Enabled: true, Label: "a", APIKey: testKey + "-a", Priority: 5},
			{Enabled: true, Label: "b", APIKey: testKey + "-b", Priority: 5},
			{Enabled: false, Label: "off", APIKey: testKey + "-off", Priority: 9},
		},
	}
	reg := NewRegistry(Config{})
	next := func(group string, n int) int { return reg.rrIndex("p:"+group, n) }

	first, _, err := selectCredential(cfg, next)
	require.NoError(t, err)
	second, _, err := selectCredential(cfg, next)
	require.NoError(t, err)
	third, _, err := selectCredential(cfg, next)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "a"}, []string{first.Label, second.Label, third.Label})

	cfg.DefaultCredential = "low"
	forced, _, err := selectCredential(cfg, next)
	require.NoError(t, err)
	require.Equal(t, "low", forced.Label)

	_, _, err = selectCredential(ProviderInstanceConfig{}, nil)
	require.ErrorIs(t, err, ErrNoCredential)
}

func TestProviderOrder(t *testing.T) {
	reg := NewRegistry(Config{
		DefaultProvider: "gemini",
		Fallbacks:       []string{"openai", "disabled", "unknown"},
		Providers: map[string]ProviderInstanceConfig{
			"anthropic": {Enabled: true},
			"disabled":  {Enabled: false},
			"gemini":    {Enabled: true},
			"openai":    {Enabled: true},
		},
	})
	require.Equal(t, []string{"gemini", "openai", "anthropic"}, reg.ProviderOrder())
}
