package cmd

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/miminai/mimin/internal/config"
	"github.com/miminai/mimin/internal/observability"
)

var envInfoCmd = &cobra.Command{
	Use:   "envinfo",
	Short: "Display environment information",
	Long:  "Display comprehensive environment, configuration, and version information.",
	Run: func(cmd *cobra.Command, args []string) {
		logger := observability.CLILogger
		identity := GetAppIdentity()

		logger.Info("=== " + identity.BinaryName + " Environment Information ===")
		logger.Info("")

		// Application Info
		logger.Info("Application:")
		logger.Info("  Name:       " + identity.BinaryName)
		logger.Info("  Version:    " + versionInfo.Version)
		logger.Info("  Commit:     " + versionInfo.Commit)
		logger.Info("  Built:      " + versionInfo.BuildDate)
		logger.Info("  Env Prefix: " + identity.EnvPrefix)
		logger.Info("")

		// Runtime Info
		logger.Info("Runtime:")
		logger.Info("  Go Version: "+runtime.Version(), zap.String("go_version", runtime.Version()))
		logger.Info("  GOOS:       "+runtime.GOOS, zap.String("goos", runtime.GOOS))
		logger.Info("  GOARCH:     "+runtime.GOARCH, zap.String("goarch", runtime.GOARCH))
		logger.Info(fmt.Sprintf("  NumCPU:     %d", runtime.NumCPU()), zap.Int("num_cpu", runtime.NumCPU()))
		for _, line := range moduleVersions() {
			logger.Info("  " + line)
		}
		logger.Info("")

		cfg, err := loadConfig()
		if err != nil {
			logger.Warn("Config load failed", zap.Error(err))
			return
		}

		configFile := viper.ConfigFileUsed()
		if configFile == "" {
			configFile = config.DefaultConfigPath(identity.ConfigName) + " (not found)"
		}

		// Configuration
		logger.Info("Configuration:")
		logger.Info("  Server Host:    "+cfg.Server.Host, zap.String("host", cfg.Server.Host))
		logger.Info(fmt.Sprintf("  Server Port:    %d", cfg.Server.Port), zap.Int("port", cfg.Server.Port))
		logger.Info("  CORS Origins:   " + strings.Join(cfg.Server.CORSOrigins, ", "))
		logger.Info("  Log Level:      "+cfg.Logging.Level, zap.String("log_level", cfg.Logging.Level))
		logger.Info("  Log Profile:    "+cfg.Logging.Profile, zap.String("log_profile", cfg.Logging.Profile))
		logger.Info(fmt.Sprintf("  Metrics Port:   %d", cfg.Metrics.Port), zap.Int("metrics_port", cfg.Metrics.Port))
		logger.Info("  Config File:    "+configFile, zap.String("config_file", configFile))
		logger.Info("")

		// Features
		logger.Info("Features:")
		logger.Info(fmt.Sprintf("  Search:         %t", cfg.Features.Search), zap.Bool("search", cfg.Features.Search))
		logger.Info(fmt.Sprintf("  Math Solver:    %t", cfg.Features.MathSolver), zap.Bool("math_solver", cfg.Features.MathSolver))
		logger.Info(fmt.Sprintf("  Web Scraping:   %t", cfg.Features.WebScraping), zap.Bool("web_scraping", cfg.Features.WebScraping))
		logger.Info("")

		// Search
		logger.Info("Search:")
		logger.Info("  Backend:        " + cfg.Search.Backend)
		logger.Info("  Region:         " + cfg.Search.Region)
		logger.Info("  Timeout:        " + cfg.Search.Timeout.String())
		logger.Info(fmt.Sprintf("  Results:        %d web, %d news", cfg.Search.WebResults, cfg.Search.NewsResults))
		logger.Info(fmt.Sprintf("  Stemming:       %t", cfg.Search.RelevanceStemming))
		logger.Info("")

		// Fetch
		logger.Info("Fetch:")
		logger.Info("  Timeout:        " + cfg.Fetch.Timeout.String())
		logger.Info(fmt.Sprintf("  Max Chars:      %d", cfg.Fetch.MaxContentChars))
		logger.Info(fmt.Sprintf("  Block Private:  %t", cfg.Fetch.BlockPrivateNetworks))
		if cfg.Fetch.InsecureSkipVerify {
			logger.Warn("  TLS Verify:     disabled")
		} else {
			logger.Info("  TLS Verify:     enabled")
		}
		logger.Info("")

		// AILink Provider Configuration
		logger.Info("AILink:")
		logger.Info("  Default Provider: " + cfg.AILink.DefaultProvider)
		logger.Info("  Fallbacks:        " + strings.Join(cfg.AILink.Fallbacks, ", "))
		logger.Info("  Default Timeout:  " + cfg.AILink.DefaultTimeout.String())
		logger.Info("  Probe Timeout:    " + cfg.AILink.ProbeTimeout.String())
		if cfg.AILink.ModelOverride != "" {
			logger.Info("  Model Override:   " + cfg.AILink.ModelOverride)
		}
		providerID := strings.TrimSpace(cfg.AILink.DefaultProvider)
		if providerID == "" {
			providerID = "(unset)"
		}
		providerCfg, ok := cfg.AILink.Providers[providerID]
		if !ok {
			logger.Info(fmt.Sprintf("  %s: (not configured)", providerID))
		} else {
			logger.Info(fmt.Sprintf("  %s.enabled: %t", providerID, providerCfg.Enabled))
			logger.Info(fmt.Sprintf("  %s.ai_provider: %s", providerID, providerCfg.AIProvider))
			logger.Info(fmt.Sprintf("  %s.base_url: %s", providerID, providerCfg.BaseURL))
			logger.Info(fmt.Sprintf("  %s.model: %s", providerID, providerCfg.Models.Default))
			if len(providerCfg.Credentials) > 0 && strings.TrimSpace(providerCfg.Credentials[0].APIKey) != "" {
				logger.Info(fmt.Sprintf("  %s.credentials[0].api_key: (set)", providerID))
			} else {
				logger.Info(fmt.Sprintf("  %s.credentials[0].api_key: (not set)", providerID))
			}
		}
		logger.Info("")

		logger.Info("=== End Environment Information ===")
	},
}

func init() {
	rootCmd.AddCommand(envInfoCmd)
}
