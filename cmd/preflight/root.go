package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/preflight-ai/cli/internal/report"
	"github.com/preflight-ai/cli/internal/slogutil"
	"github.com/preflight-ai/cli/internal/version"
)

var (
	verbosity int
	quiet     bool
	noColor   bool
)

var rootCmd = &cobra.Command{
	Use:   "preflight",
	Short: "Preflight - pre-commit code review assistant",
	Long: `Preflight reviews your changes before they become a commit.

It sends the staged diff plus a bounded bundle of related files to a
remote analyzer, falls back to fast local heuristics when the analyzer
is unreachable, and can mechanically fix the simple findings.`,
	Version: version.Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor {
			report.DisableColor()
		}
	},
}

func init() {
	rootCmd.SetVersionTemplate("preflight version {{.Version}}\n")

	pf := rootCmd.PersistentFlags()
	pf.CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (-v info, -vv debug)")
	pf.BoolVarP(&quiet, "quiet", "q", false, "Suppress log output")
	pf.BoolVar(&noColor, "no-color", false, "Disable colored output")
}

// rootLogger builds the stderr logger from the persistent verbosity
// flags. Stdout stays reserved for command output.
func rootLogger() *slog.Logger {
	return slogutil.NewLogger(os.Stderr, slogutil.LevelFromVerbosity(verbosity, quiet))
}
