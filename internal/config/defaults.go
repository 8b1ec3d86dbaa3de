package config

import (
	"github.com/spf13/viper"

	"github.com/miminai/mimin/internal/core/engine"
	"github.com/miminai/mimin/internal/core/fetch"
	"github.com/miminai/mimin/internal/core/search"
	"github.com/miminai/mimin/internal/core/synth"
)

// DefaultGeminiModels is the ordered probe list for the Gemini provider.
var DefaultGeminiModels = []string{
	"gemini-2.0-flash",
	"gemini-2.0-flash-001",
	"gemini-flash-latest",
	"gemini-2.0-flash-lite",
	"gemini-2.0-flash-lite-001",
	"gemini-flash-lite-latest",
	"gemini-pro-latest",
}

// SetDefaults registers the default value of every configuration key.
func SetDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "90s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.admin_token", "")

	// Feature switches
	v.SetDefault("features.search", true)
	v.SetDefault("features.math_solver", true)
	v.SetDefault("features.web_scraping", true)

	// Pipeline
	v.SetDefault("pipeline.max_results", 8)
	v.SetDefault("pipeline.digest_results", 4)
	v.SetDefault("pipeline.math_keywords", engine.DefaultMathKeywords)

	// Fallback topics
	v.SetDefault("topics.min_word_length", 5)
	v.SetDefault("topics.stop_words", synth.DefaultTopicStopWords)
	v.SetDefault("topics.max_topics", 5)

	// Search
	v.SetDefault("search.backend", search.BackendDuckDuckGo)
	v.SetDefault("search.timeout", "10s")
	v.SetDefault("search.web_results", 8)
	v.SetDefault("search.news_results", 3)
	v.SetDefault("search.web_snippet_chars", 250)
	v.SetDefault("search.news_snippet_chars", 200)
	v.SetDefault("search.relevance_stop_words", []string{})
	v.SetDefault("search.relevance_stemming", false)
	v.SetDefault("search.region", "wt-wt")
	v.SetDefault("search.backends.duckduckgo.base_url", "")
	v.SetDefault("search.backends.tavily.api_key", "")
	v.SetDefault("search.backends.tavily.base_url", "")

	// Page fetcher
	v.SetDefault("fetch.timeout", "10s")
	v.SetDefault("fetch.user_agent", fetch.DefaultUserAgent)
	v.SetDefault("fetch.max_content_chars", 1000)
	v.SetDefault("fetch.max_body_bytes", 2<<20)
	v.SetDefault("fetch.insecure_skip_verify", false)
	v.SetDefault("fetch.block_private_networks", true)

	// Generative model link
	v.SetDefault("ailink.default_provider", "gemini")
	v.SetDefault("ailink.default_timeout", "15s")
	v.SetDefault("ailink.probe_timeout", "15s")
	v.SetDefault("ailink.model_override", "")
	v.SetDefault("ailink.prompts_dir", "")
	v.SetDefault("ailink.generation.temperature", 0.3)
	v.SetDefault("ailink.generation.max_output_tokens", 1500)
	v.SetDefault("ailink.generation.top_p", 0.8)
	v.SetDefault("ailink.fallbacks", []string{"openai", "anthropic"})
	v.SetDefault("ailink.providers", map[string]any{
		"gemini": map[string]any{
			"enabled":     true,
			"ai_provider": "gemini",
			"models": map[string]any{
				"default":    DefaultGeminiModels[0],
				"candidates": DefaultGeminiModels,
			},
		},
		"openai": map[string]any{
			"enabled":     true,
			"ai_provider": "openai",
			"models":      map[string]any{"default": "gpt-4o-mini"},
		},
		"anthropic": map[string]any{
			"enabled":     true,
			"ai_provider": "anthropic",
			"models":      map[string]any{"default": "claude-3-5-haiku-latest"},
		},
	})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.profile", "structured")

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)

	// Health check defaults
	v.SetDefault("health.enabled", true)

	// Debug defaults
	v.SetDefault("debug.enabled", false)
	v.SetDefault("debug.pprof_enabled", false)
}
