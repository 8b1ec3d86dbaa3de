// Command mimin answers questions with math solving, web search and a
// generative model, from the command line or over HTTP.
package main

import (
	"github.com/fulmenhq/gofulmen/foundry"

	"github.com/miminai/mimin/internal/cmd"
)

// Set with -ldflags "-X main.version=... -X main.commit=... -X main.buildDate=...".
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	cmd.SetVersionInfo(version, commit, buildDate)
	if err := cmd.Execute(); err != nil {
		// Commands log their own failures; this only sets the exit code.
		cmd.ExitWithCodeStderr(foundry.ExitFailure, "mimin failed", err)
	}
}
