package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/miminai/mimin/internal/ailink"
	"github.com/miminai/mimin/internal/observability"
)

var (
	doctorAILinkModel string
	doctorAILinkProbe bool
)

var doctorAILinkCmd = &cobra.Command{
	Use:   "ailink [provider-id]",
	Short: "Inspect AILink provider resolution",
	Long: `Show the provider probe order and resolve one provider instance to its
credential and model. Without an argument the default provider is resolved.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logger := observability.CLILogger

		providers := ailink.NewRegistry(cfg.AILink)
		order := providers.ProviderOrder()
		logger.Info("Probe Order")
		if len(order) == 0 {
			logger.Warn("  (no enabled providers)")
		}
		for i, id := range order {
			models := strings.Join(providers.Candidates(id), ", ")
			logger.Info(fmt.Sprintf("  %d. %s (%s) models: %s", i+1, id, cfg.AILink.Providers[id].AIProvider, valueOrDefault(models, "(none)")))
		}
		logger.Info("")

		providerID := ""
		if len(args) > 0 {
			providerID = strings.TrimSpace(args[0])
		}

		resolved, err := providers.Resolve(providerID, doctorAILinkModel)
		if err != nil {
			return fmt.Errorf("resolve provider: %w", err)
		}

		providerCfg := resolved.Provider
		logger.Info("AILink Resolution")
		logger.Info(fmt.Sprintf("  Provider ID:  %s", resolved.ProviderID))
		logger.Info(fmt.Sprintf("  ai_provider:  %s", providerCfg.AIProvider))
		logger.Info(fmt.Sprintf("  base_url:     %s", valueOrDefault(providerCfg.BaseURL, "(driver default)")))
		logger.Info(fmt.Sprintf("  model:        %s", resolved.Model))

		modelSource := "provider.models.default"
		if strings.TrimSpace(doctorAILinkModel) != "" {
			modelSource = "cli_override"
		}
		logger.Info(fmt.Sprintf("  model_source: %s", modelSource))
		logger.Info("")

		policy := strings.TrimSpace(providerCfg.SelectionPolicy)
		if policy == "" {
			policy = "priority"
		}
		logger.Info("Credential Selection")
		logger.Info(fmt.Sprintf("  selection_policy:   %s", policy))
		if strings.TrimSpace(providerCfg.DefaultCredential) != "" {
			logger.Info(fmt.Sprintf("  default_credential: %s", providerCfg.DefaultCredential))
		}
		logger.Info(fmt.Sprintf("  selected.label:     %s", resolved.Credential.Label))
		logger.Info(fmt.Sprintf("  selected.priority:  %d", resolved.Credential.Priority))
		if strings.TrimSpace(resolved.Credential.APIKey) != "" {
			logger.Info("  selected.api_key:   (set)")
		} else {
			logger.Info("  selected.api_key:   (not set)")
			logger.Warn("Selected credential has no API key", zap.String("provider", resolved.ProviderID))
		}

		if !doctorAILinkProbe {
			return nil
		}
		logger.Info("")
		logger.Info("Model Probe")
		model, err := ailink.NewService(cfg.AILink, logger).Probe(cmd.Context())
		if err != nil {
			mapped := ailink.MapError(err)
			logger.Warn(fmt.Sprintf("  no model answered: %s", mapped.Error()), zap.String("code", mapped.Code))
			return fmt.Errorf("model probe failed: %w", err)
		}
		logger.Info(fmt.Sprintf("  selected: %s/%s", model.ProviderID, model.Name))
		return nil
	},
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func init() {
	doctorCmd.AddCommand(doctorAILinkCmd)

	doctorAILinkCmd.Flags().StringVar(&doctorAILinkModel, "model", "", "Model override (defaults to provider config)")
	doctorAILinkCmd.Flags().BoolVar(&doctorAILinkProbe, "probe", false, "Send a short \"Hello\" to each candidate and report the model that answers")
}
