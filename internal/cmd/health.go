package cmd

import (
	"fmt"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/miminai/mimin/internal/ailink"
	"github.com/miminai/mimin/internal/ailink/prompt"
	"github.com/miminai/mimin/internal/core/mathsolve"
	errwrap "github.com/miminai/mimin/internal/errors"
	"github.com/miminai/mimin/internal/observability"
)

// selfTestQuestion must always be answered by the local solver.
const selfTestQuestion = "hitung 2 + 3 * 4"

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Run self-health check",
	Long: `Run a self-health check to verify the application can start successfully.

Only local collaborators are checked. Use "doctor" to reach the search
backend and the generative model.`,
	Run: func(cmd *cobra.Command, args []string) {
		logger := observability.CLILogger
		logger.Info("Running health check...")

		// Check 1: Version info available
		if versionInfo.Version == "" {
			logger.Error("❌ FAIL: Version information missing")
			ExitWithCode(logger, foundry.ExitConfigInvalid, "Version information missing", errwrap.NewConfigInvalidError("Version information missing"))
			return
		}
		logger.Debug("Version check passed", zap.String("version", versionInfo.Version))
		logger.Info("✅ Version information available")

		// Check 2: Configuration loads
		cfg, err := loadConfig()
		if err != nil {
			logger.Error("❌ FAIL: Configuration invalid")
			ExitWithCode(logger, foundry.ExitConfigInvalid, "Configuration invalid", errwrap.WrapConfigInvalid(cmd.Context(), err, "configuration invalid"))
			return
		}
		logger.Info("✅ Configuration loaded")

		// Check 3: Answer prompt available
		prompts, err := ailink.LoadPrompts(cfg.AILink)
		if err == nil {
			_, err = prompts.Get(prompt.AnswerSlug)
		}
		if err != nil {
			logger.Error("❌ FAIL: Answer prompt unavailable")
			ExitWithCode(logger, foundry.ExitConfigInvalid, "Answer prompt unavailable", errwrap.WrapConfigInvalid(cmd.Context(), err, "answer prompt unavailable"))
			return
		}
		logger.Info("✅ Answer prompt loaded", zap.String("prompts_dir", cfg.AILink.PromptsDir))

		// Check 4: Math solver answers locally
		if err := mathSelfTest(); err != nil {
			logger.Error("❌ FAIL: Math solver self-test")
			ExitWithCode(logger, foundry.ExitFailure, "Math solver self-test failed", errwrap.NewInternalError(err.Error()))
			return
		}
		logger.Info("✅ Math solver self-test passed")

		logger.Info("")
		logger.Info("✅ All health checks passed")
	},
}

func mathSelfTest() error {
	answer, ok := mathsolve.New().Solve(selfTestQuestion)
	if !ok {
		return fmt.Errorf("no answer for %q", selfTestQuestion)
	}
	if answer.Kind != mathsolve.KindArithmetic {
		return fmt.Errorf("unexpected branch %q for %q", answer.Kind, selfTestQuestion)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
