package cmd

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/miminai/mimin/internal/ailink"
	"github.com/miminai/mimin/internal/config"
	"github.com/miminai/mimin/internal/observability"
)

var doctorOffline bool

// doctorProbeQuery is sent to the search backend during diagnostics.
const doctorProbeQuery = "golang"

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run diagnostic checks",
	Long:  "Run diagnostic checks on the configuration, the search backend and the generative model.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		logger := observability.CLILogger
		identity := GetAppIdentity()
		logger.Info("=== " + identity.BinaryName + " doctor ===")
		logger.Info("")
		logger.Info("Running diagnostic checks...")
		logger.Info("")

		allChecks := true
		totalChecks := 6

		// Check 1: Go version
		goVersion := runtime.Version()
		if goVersion >= "go1.23" {
			logger.Info(fmt.Sprintf("[1/%d] Checking Go version... ✅ %s", totalChecks, goVersion), zap.String("go_version", goVersion))
		} else {
			logger.Warn(fmt.Sprintf("[1/%d] Checking Go version... ⚠️  %s (recommended: go1.23+)", totalChecks, goVersion), zap.String("go_version", goVersion))
			allChecks = false
		}

		// Check 2: Config directory
		configPath := config.DefaultConfigPath(identity.ConfigName)
		if configPath == "" {
			logger.Warn(fmt.Sprintf("[2/%d] Checking config directory... ⚠️  cannot resolve config directory", totalChecks))
			allChecks = false
		} else {
			configDir := filepath.Dir(configPath)
			logger.Info(fmt.Sprintf("[2/%d] Checking config directory... ✅ %s (%s)", totalChecks, configDir, existenceStatus(fileExists(configPath))),
				zap.String("config_dir", configDir))
		}

		// Check 3: Configuration
		cfg, cfgErr := loadConfig()
		if cfgErr != nil {
			logger.Error(fmt.Sprintf("[3/%d] Checking configuration... ❌ invalid", totalChecks), zap.Error(cfgErr))
			logger.Info("")
			logger.Warn("⚠️  Fix the configuration before running the remaining checks.")
			return
		}
		logger.Info(fmt.Sprintf("[3/%d] Checking configuration... ✅ valid", totalChecks),
			zap.String("file", viper.ConfigFileUsed()))

		// Check 4: Listen address
		addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
		if err := checkPortAvailable(addr); err != nil {
			logger.Warn(fmt.Sprintf("[4/%d] Checking listen address... ⚠️  %s in use", totalChecks, addr), zap.Error(err))
			logger.Info("       Stop the other process or set server.port (PORT) to a free port.")
			allChecks = false
		} else {
			logger.Info(fmt.Sprintf("[4/%d] Checking listen address... ✅ %s free", totalChecks, addr))
		}

		if doctorOffline {
			logger.Info(fmt.Sprintf("[5/%d] Checking search backend... skipped (--offline)", totalChecks))
			logger.Info(fmt.Sprintf("[6/%d] Checking generative model... skipped (--offline)", totalChecks))
		} else {
			// Check 5: Search backend
			aggregator, searchErr := buildSearch(cfg, logger, nil)
			switch {
			case !cfg.Features.Search:
				logger.Info(fmt.Sprintf("[5/%d] Checking search backend... disabled (features.search=false)", totalChecks))
			case searchErr != nil:
				logger.Warn(fmt.Sprintf("[5/%d] Checking search backend... ⚠️  %s unavailable", totalChecks, cfg.Search.Backend), zap.Error(searchErr))
				allChecks = false
			default:
				results := aggregator.Search(ctx, doctorProbeQuery, cfg.Pipeline.MaxResults)
				if len(results) == 0 {
					logger.Warn(fmt.Sprintf("[5/%d] Checking search backend... ⚠️  %s returned no results", totalChecks, aggregator.Backend()))
					allChecks = false
				} else {
					logger.Info(fmt.Sprintf("[5/%d] Checking search backend... ✅ %s (%d results)", totalChecks, aggregator.Backend(), len(results)))
				}
			}

			// Check 6: Generative model
			model, modelErr := ailink.NewService(cfg.AILink, nil).Probe(ctx)
			if modelErr != nil {
				logger.Warn(fmt.Sprintf("[6/%d] Checking generative model... ⚠️  unavailable (answers use the fallback composer)", totalChecks), zap.Error(modelErr))
				logger.Info("       Set GEMINI_API_KEY, OPENAI_API_KEY or ANTHROPIC_API_KEY, or run 'doctor init --api-key prompt'.")
				allChecks = false
			} else {
				logger.Info(fmt.Sprintf("[6/%d] Checking generative model... ✅ %s/%s", totalChecks, model.ProviderID, model.Name))
			}
		}

		logger.Info("")
		if allChecks {
			logger.Info(fmt.Sprintf("✅ All checks passed! Your %s installation is healthy.", identity.BinaryName))
		} else {
			logger.Warn("⚠️  Some checks failed. Review the output above for details.")
		}
		logger.Info("")
		logger.Info("=== End Diagnostics ===")
	},
}

var (
	doctorInitForce   bool
	doctorInitAPIKey  string
	doctorInitBackend string
)

var doctorInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a default config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := config.DefaultConfigPath(GetAppIdentity().ConfigName)
		if configPath == "" {
			return fmt.Errorf("config path not resolved")
		}

		if _, err := os.Stat(configPath); err == nil && !doctorInitForce {
			return fmt.Errorf("config file already exists: %s (use --force to overwrite)", configPath)
		}

		apiKey := strings.TrimSpace(doctorInitAPIKey)
		if strings.EqualFold(apiKey, "prompt") {
			key, err := promptForValue(os.Stdin, os.Stdout, "Enter Gemini API key (leave blank to skip): ")
			if err != nil {
				return err
			}
			apiKey = key
		}

		if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}

		mode := os.FileMode(0644)
		if apiKey != "" {
			mode = 0600
		}

		if err := os.WriteFile(configPath, []byte(buildInitConfig(apiKey, doctorInitBackend)), mode); err != nil {
			return fmt.Errorf("write config file: %w", err)
		}

		observability.CLILogger.Info("Config initialized", zap.String("path", configPath))
		return nil
	},
}

var doctorConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Show configuration status and paths",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := observability.CLILogger
		identity := GetAppIdentity()
		configPath := config.DefaultConfigPath(identity.ConfigName)

		logger.Info("Configuration:")
		logger.Info(fmt.Sprintf("  Config file:   %s (%s)", configPath, existenceStatus(fileExists(configPath))))
		if used := viper.ConfigFileUsed(); used != "" && used != configPath {
			logger.Info(fmt.Sprintf("  Loaded from:   %s", used))
		}

		cfg, err := loadConfig()
		if err != nil {
			logger.Warn("Config load failed", zap.Error(err))
			return nil
		}

		logger.Info("")
		logger.Info("Environment:")
		for _, name := range []string{"GEMINI_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "TAVILY_API_KEY", "AI_MODEL"} {
			logger.Info(fmt.Sprintf("  %-18s %s", name+":", envStatus(name)))
		}

		logger.Info("")
		logger.Info("Effective Settings:")
		settings := []struct {
			key   string
			value any
		}{
			{"server", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)},
			{"features.search", cfg.Features.Search},
			{"features.math_solver", cfg.Features.MathSolver},
			{"features.web_scraping", cfg.Features.WebScraping},
			{"search.backend", cfg.Search.Backend},
			{"ailink.default_provider", cfg.AILink.DefaultProvider},
			{"ailink.fallbacks", strings.Join(cfg.AILink.Fallbacks, ", ")},
		}
		for _, setting := range settings {
			logger.Info(fmt.Sprintf("  %-24s %v", setting.key+":", setting.value))
		}
		if cfg.Fetch.InsecureSkipVerify {
			logger.Warn("  fetch.insecure_skip_verify: true (TLS verification disabled)")
		}
		return nil
	},
}

var doctorResetConfig bool

var doctorResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Remove the user config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !doctorResetConfig {
			return fmt.Errorf("specify --config")
		}

		configPath := config.DefaultConfigPath(GetAppIdentity().ConfigName)
		if configPath == "" {
			observability.CLILogger.Warn("Config path not resolved; skipping config reset")
			return nil
		}
		if err := os.Remove(configPath); err == nil {
			observability.CLILogger.Info("Config removed", zap.String("path", configPath))
		} else if os.IsNotExist(err) {
			observability.CLILogger.Info("Config already removed", zap.String("path", configPath))
		} else {
			return fmt.Errorf("remove config file: %w", err)
		}
		return nil
	},
}

var doctorValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := loadConfig(); err != nil {
			return err
		}

		observability.CLILogger.Info("Config is valid", zap.String("path", viper.ConfigFileUsed()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
	doctorCmd.AddCommand(doctorInitCmd)
	doctorCmd.AddCommand(doctorConfigCmd)
	doctorCmd.AddCommand(doctorResetCmd)
	doctorCmd.AddCommand(doctorValidateCmd)

	doctorCmd.Flags().BoolVar(&doctorOffline, "offline", false, "skip the search and model probes")

	doctorInitCmd.Flags().BoolVar(&doctorInitForce, "force", false, "overwrite existing config file")
	doctorInitCmd.Flags().StringVar(&doctorInitAPIKey, "api-key", "", "set the Gemini API key or use 'prompt' to enter")
	doctorInitCmd.Flags().StringVar(&doctorInitBackend, "search-backend", "duckduckgo", "search backend to configure (duckduckgo, tavily)")

	doctorResetCmd.Flags().BoolVar(&doctorResetConfig, "config", false, "remove user config file")
}

// checkPortAvailable reports an error when addr cannot be bound.
func checkPortAvailable(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return ln.Close()
}

func buildInitConfig(apiKey, backend string) string {
	backend = strings.ToLower(strings.TrimSpace(backend))
	if backend == "" {
		backend = "duckduckgo"
	}

	lines := []string{
		"# mimin config - created by 'mimin doctor init'",
		"server:",
		"  host: 0.0.0.0",
		"  port: 5000",
		"features:",
		"  search: true",
		"  math_solver: true",
		"  web_scraping: true",
		"search:",
		"  backend: " + backend,
	}
	if backend == "tavily" {
		lines = append(lines,
			"  backends:",
			"    tavily:",
			"      # api_key: \"\"  # Set via TAVILY_API_KEY or uncomment",
		)
	}

	lines = append(lines,
		"ailink:",
		"  default_provider: gemini",
		"  providers:",
		"    gemini:",
		"      enabled: true",
		"      ai_provider: gemini",
		"      credentials:",
		"        - label: default",
		"          enabled: true",
		"          priority: 0",
	)
	if strings.TrimSpace(apiKey) != "" {
		lines = append(lines, fmt.Sprintf("          api_key: %q", apiKey))
	} else {
		lines = append(lines, "          # api_key: \"\"  # Set via GEMINI_API_KEY or uncomment")
	}

	return strings.Join(lines, "\n") + "\n"
}

func promptForValue(in io.Reader, out io.Writer, prompt string) (string, error) {
	if _, err := fmt.Fprint(out, prompt); err != nil {
		return "", err
	}
	reader := bufio.NewReader(in)
	value, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimSpace(value), nil
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

func existenceStatus(exists bool) string {
	if exists {
		return "exists"
	}
	return "missing"
}

func envStatus(name string) string {
	if strings.TrimSpace(os.Getenv(name)) != "" {
		return "(set)"
	}
	return "(not set)"
}
