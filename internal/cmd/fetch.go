package cmd

import (
	"fmt"
	"strings"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"

	"github.com/miminai/mimin/internal/core/fetch"
	apperrors "github.com/miminai/mimin/internal/errors"
	"github.com/miminai/mimin/internal/observability"
	"github.com/miminai/mimin/internal/output"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <url>",
	Short: "Extract the title and text of a web page",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		formatValue, err := cmd.Flags().GetString("output")
		if err != nil {
			return err
		}
		format, err := output.ParseFormat(formatValue)
		if err != nil {
			return err
		}

		cfg, err := loadConfig()
		if err != nil {
			return apperrors.WrapConfigInvalid(ctx, err, "configuration invalid")
		}
		if !cfg.Features.WebScraping {
			return apperrors.NewFeatureDisabledError("web_scraping")
		}
		fetcher := fetch.New(fetchOptions(cfg, observability.CLILogger))

		page := fetcher.Fetch(ctx, strings.TrimSpace(args[0]))
		rendered, err := output.NewFormatter(format).FormatPage(&page)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(rendered, "\n"))

		if fetch.IsErrorPage(page) {
			ExitWithCode(observability.CLILogger, foundry.ExitExternalServiceUnavailable, "Page fetch failed", apperrors.New(apperrors.CodeExternalService, page.Content))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().StringP("output", "o", "table", "output format: table, json, markdown")
}
