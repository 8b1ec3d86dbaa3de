package cmd

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sort"

	"github.com/spf13/cobra"
)

var extended bool

// versionModules are the dependencies listed by --extended.
var versionModules = map[string]string{
	"github.com/fulmenhq/gofulmen":           "Gofulmen",
	"google.golang.org/genai":                "GenAI",
	"github.com/sashabaranov/go-openai":      "OpenAI",
	"github.com/liushuangls/go-anthropic/v2": "Anthropic",
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  "Print version information. Use --extended for full details including Go and SDK versions.",
	RunE: func(cmd *cobra.Command, args []string) error {
		identity := GetAppIdentity()
		out := cmd.OutOrStdout()

		_, _ = fmt.Fprintf(out, "%s %s\n", identity.BinaryName, versionInfo.Version)
		if !extended {
			return nil
		}

		_, _ = fmt.Fprintf(out, "Commit: %s\n", versionInfo.Commit)
		_, _ = fmt.Fprintf(out, "Built: %s\n", versionInfo.BuildDate)
		_, _ = fmt.Fprintf(out, "Go: %s\n", runtime.Version())
		_, _ = fmt.Fprintf(out, "\n")

		for _, line := range moduleVersions() {
			_, _ = fmt.Fprintln(out, line)
		}
		return nil
	},
}

func moduleVersions() []string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return nil
	}
	var lines []string
	for _, dep := range info.Deps {
		if label, ok := versionModules[dep.Path]; ok {
			lines = append(lines, fmt.Sprintf("%s: %s", label, dep.Version))
		}
	}
	sort.Strings(lines)
	return lines
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolVarP(&extended, "extended", "e", false, "show extended version information")
}
