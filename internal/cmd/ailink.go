package cmd

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/miminai/mimin/internal/ailink"
	"github.com/miminai/mimin/internal/ailink/prompt"
)

var ailinkCmd = &cobra.Command{
	Use:   "ailink",
	Short: "Inspect answer prompts",
}

var ailinkListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available prompts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := loadPromptRegistry()
		if err != nil {
			return err
		}

		prompts := registry.List()
		if len(prompts) == 0 {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No prompts found.")
			return nil
		}

		t := table.NewWriter()
		t.SetOutputMirror(cmd.OutOrStdout())
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"Slug", "Version", "Source", "Description"})
		for _, p := range prompts {
			t.AppendRow(table.Row{p.Config.Slug, p.Config.Version, p.Source, p.Config.Description})
		}
		t.Render()
		return nil
	},
}

var ailinkShowCmd = &cobra.Command{
	Use:   "show [slug]",
	Short: "Print a prompt template and its variables",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		slug := prompt.AnswerSlug
		if len(args) == 1 {
			slug = args[0]
		}

		registry, err := loadPromptRegistry()
		if err != nil {
			return err
		}
		p, err := registry.Get(slug)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		_, _ = fmt.Fprintf(out, "# %s (%s)\n", p.Config.Slug, p.Source)
		if vars := p.Config.Input.RequiredVariables; len(vars) > 0 {
			_, _ = fmt.Fprintf(out, "required: %s\n", strings.Join(vars, ", "))
		}
		if vars := p.Config.Input.OptionalVariables; len(vars) > 0 {
			_, _ = fmt.Fprintf(out, "optional: %s\n", strings.Join(vars, ", "))
		}
		_, _ = fmt.Fprintf(out, "\n%s\n", strings.TrimSpace(p.Config.SystemTemplate))
		return nil
	},
}

func loadPromptRegistry() (prompt.Registry, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return ailink.LoadPrompts(cfg.AILink)
}

func init() {
	rootCmd.AddCommand(ailinkCmd)
	ailinkCmd.AddCommand(ailinkListCmd, ailinkShowCmd)
}
