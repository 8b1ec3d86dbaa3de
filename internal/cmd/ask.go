package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/miminai/mimin/internal/ailink"
	apperrors "github.com/miminai/mimin/internal/errors"
	"github.com/miminai/mimin/internal/observability"
	"github.com/miminai/mimin/internal/output"
)

var errModelDisabled = errors.New("generative model disabled by --no-model")

// disabledProber skips the startup probe.
type disabledProber struct{}

func (disabledProber) Probe(context.Context) (*ailink.Model, error) {
	return nil, errModelDisabled
}

var askCmd = &cobra.Command{
	Use:   "ask <question...>",
	Short: "Answer a question from the command line",
	Long: `Answer a question with the same pipeline the HTTP API uses.

The math solver runs when the question contains a math keyword, web and
news results are gathered from the configured search backend, and the
answer is written by the generative model or, when it is unavailable,
composed from the search results.`,
	Example: `  mimin ask "hitung 25 * 4 + 100 / 2"
  mimin ask --no-model -o markdown "berita terbaru teknologi"
  mimin ask -o json "solve x^2 - 5x + 6 = 0"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	startedAt := time.Now()

	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" {
		return apperrors.NewEmptyQuestionError()
	}

	formatValue, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	format, err := output.ParseFormat(formatValue)
	if err != nil {
		return err
	}
	noModel, err := cmd.Flags().GetBool("no-model")
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return apperrors.WrapConfigInvalid(ctx, err, "configuration invalid")
	}

	opts := bootstrapOptions{}
	if noModel {
		opts.prober = disabledProber{}
	}
	svc := buildServicesWith(ctx, cfg, observability.CLILogger, opts)

	result := svc.Pipeline.Process(ctx, question)
	rendered, err := output.NewFormatter(format).FormatAnswer(&result)
	if err != nil {
		return err
	}
	if rendered != "" {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(rendered, "\n"))
	}

	observability.CLILogger.Debug("Question answered",
		zap.Bool("success", result.Success),
		zap.Int("sources", result.SourcesCount),
		zap.String("synthesis_mode", result.SynthesisMode),
		zap.Duration("elapsed", time.Since(startedAt)))

	if !result.Success {
		ExitWithCode(observability.CLILogger, foundry.ExitFailure, "Question processing failed", errors.New(result.Error))
	}
	return nil
}

func init() {
	rootCmd.AddCommand(askCmd)

	askCmd.Flags().StringP("output", "o", "table", "output format: table, json, markdown")
	askCmd.Flags().Bool("no-model", false, "skip the generative model and compose answers from search results")
}
