package config

import (
	"time"

	"github.com/miminai/mimin/internal/ailink"
)

// Config represents the complete application configuration. It is read once
// at startup from three layers:
// Layer 1: Defaults (SetDefaults)
// Layer 2: User config file ($XDG_CONFIG_HOME/mimin/config.yaml or --config)
// Layer 3: Environment variables and flags
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Features FeatureConfig  `mapstructure:"features"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Topics   TopicsConfig   `mapstructure:"topics"`
	Search   SearchConfig   `mapstructure:"search"`
	Fetch    FetchConfig    `mapstructure:"fetch"`
	AILink   ailink.Config  `mapstructure:"ailink"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Health   HealthConfig   `mapstructure:"health"`
	Debug    DebugConfig    `mapstructure:"debug"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// CORSOrigins lists browser origins allowed to call /api. "*" allows all.
	CORSOrigins []string `mapstructure:"cors_origins"`

	// AdminToken enables the bearer-token protected /admin/signal endpoint.
	AdminToken string `mapstructure:"admin_token"`
}

// FeatureConfig switches optional collaborators on or off.
type FeatureConfig struct {
	Search      bool `mapstructure:"search"`
	MathSolver  bool `mapstructure:"math_solver"`
	WebScraping bool `mapstructure:"web_scraping"`
}

// PipelineConfig tunes question processing.
type PipelineConfig struct {
	MaxResults    int      `mapstructure:"max_results"`
	DigestResults int      `mapstructure:"digest_results"`
	MathKeywords  []string `mapstructure:"math_keywords"`
}

// TopicsConfig drives the related-topics line of template answers.
type TopicsConfig struct {
	MinWordLength int      `mapstructure:"min_word_length"`
	StopWords     []string `mapstructure:"stop_words"`
	MaxTopics     int      `mapstructure:"max_topics"`
}

// SearchConfig selects and tunes the search backend.
type SearchConfig struct {
	Backend            string                         `mapstructure:"backend"`
	Timeout            time.Duration                  `mapstructure:"timeout"`
	WebResults         int                            `mapstructure:"web_results"`
	NewsResults        int                            `mapstructure:"news_results"`
	WebSnippetChars    int                            `mapstructure:"web_snippet_chars"`
	NewsSnippetChars   int                            `mapstructure:"news_snippet_chars"`
	RelevanceStopWords []string                       `mapstructure:"relevance_stop_words"`
	RelevanceStemming  bool                           `mapstructure:"relevance_stemming"`
	Region             string                         `mapstructure:"region"`
	Backends           map[string]SearchBackendConfig `mapstructure:"backends"`
}

// SearchBackendConfig holds per-backend connection settings.
type SearchBackendConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

// FetchConfig tunes the page fetcher.
type FetchConfig struct {
	Timeout         time.Duration `mapstructure:"timeout"`
	UserAgent       string        `mapstructure:"user_agent"`
	MaxContentChars int           `mapstructure:"max_content_chars"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`

	// InsecureSkipVerify disables TLS certificate checks for page fetches.
	InsecureSkipVerify   bool `mapstructure:"insecure_skip_verify"`
	BlockPrivateNetworks bool `mapstructure:"block_private_networks"`
}

// LoggingConfig contains logging configuration
// Supports progressive logging profiles per Fulmen Forge Workhorse Standard:
// - SIMPLE: Console output only, minimal configuration (CLI tools)
// - STRUCTURED: Structured sinks, correlation IDs (API services)
// - ENTERPRISE: Multiple sinks, middleware, throttling, policy enforcement (production)
type LoggingConfig struct {
	// Level controls the minimum log level
	// Valid values: trace, debug, info, warn, error
	Level string `mapstructure:"level"`

	// Profile selects the logging complexity level
	// Valid values: SIMPLE, STRUCTURED, ENTERPRISE
	Profile string `mapstructure:"profile"`
}

// MetricsConfig contains Prometheus metrics configuration
type MetricsConfig struct {
	// Enabled controls whether metrics are exposed
	Enabled bool `mapstructure:"enabled"`

	// Port is the dedicated metrics endpoint port (Prometheus format)
	// Metrics are also available at the main HTTP port in JSON format
	Port int `mapstructure:"port"`
}

// HealthConfig contains health check configuration
type HealthConfig struct {
	// Enabled controls whether health endpoints are exposed
	Enabled bool `mapstructure:"enabled"`
}

// DebugConfig contains debug and profiling configuration
type DebugConfig struct {
	// Enabled controls whether debug mode is active
	Enabled bool `mapstructure:"enabled"`

	// PprofEnabled controls whether pprof endpoints are exposed
	// WARNING: Only enable in development/staging environments
	PprofEnabled bool `mapstructure:"pprof_enabled"`
}
