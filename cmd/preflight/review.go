package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/preflight-ai/cli/internal/config"
	"github.com/preflight-ai/cli/internal/history"
	"github.com/preflight-ai/cli/internal/report"
)

var (
	reviewAll       bool
	reviewLocalOnly bool
	reviewNoContext bool
	reviewReport    string
	reviewFormat    string
	reviewAPIKey    string
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Review pending changes before they are committed",
	Long: `Review analyzes your staged changes and reports problems before
they land in a commit.

The staged diff is sent to the configured analyzer together with a
small bundle of related files discovered through import statements.
When the analyzer is unreachable or finds nothing, a local heuristic
scanner checks the diff instead, so review always produces an answer.

Exit codes: 0 when the gate passes, 1 on operational errors, 2 when
issues at or above the configured gate severity are found.

Examples:
  preflight review                     # review staged changes
  preflight review --all               # review the whole working tree
  preflight review --local-only        # skip the remote analyzer
  preflight review --report out.json.gz --format json`,
	Run: runReview,
}

func init() {
	reviewCmd.Flags().BoolVar(&reviewAll, "all", false, "review all tracked files instead of staged changes")
	reviewCmd.Flags().BoolVar(&reviewLocalOnly, "local-only", false, "use only local heuristics, never call the analyzer")
	reviewCmd.Flags().BoolVar(&reviewNoContext, "no-context", false, "skip import-based context expansion")
	reviewCmd.Flags().StringVar(&reviewReport, "report", "", "write a report to this file (.gz compresses)")
	reviewCmd.Flags().StringVar(&reviewFormat, "format", "human", "output format: human or json")
	reviewCmd.Flags().StringVar(&reviewAPIKey, "api-key", "", "analyzer API key (overrides env and credentials)")
	rootCmd.AddCommand(reviewCmd)
}

func runReview(cmd *cobra.Command, args []string) {
	if reviewFormat != "human" && reviewFormat != "json" {
		fmt.Fprintf(os.Stderr, "Invalid format %q: must be human or json\n", reviewFormat)
		os.Exit(1)
	}

	ctx := cmd.Context()
	start := time.Now()
	env := mustEnv(ctx)

	result, err := runPipeline(ctx, env, pipelineOptions{
		All:       reviewAll,
		LocalOnly: reviewLocalOnly,
		NoContext: reviewNoContext,
		APIKey:    reviewAPIKey,
	})
	if err != nil {
		fail(err)
	}

	rep := report.New(result.Mode, result.Stats, result.Issues)
	rep.RunID = uuid.New().String()
	rep.Analyzer = result.Analyzer
	rep.FallbackReason = result.FallbackReason
	rep.FallbackCode = result.FallbackCode

	switch reviewFormat {
	case "json":
		data, err := json.MarshalIndent(rep, "", "  ")
		if err != nil {
			fail(err)
		}
		fmt.Println(string(data))
	default:
		rep.RenderHuman(os.Stdout)
	}

	if reviewReport != "" {
		if err := rep.Write(reviewReport); err != nil {
			fail(err)
		}
		env.logger.Info("Report written", "path", reviewReport)
	}

	failed := gateFailed(result.Issues, env.cfg.Review.Gate.FailOn)
	recordRun(env, rep, result, failed, time.Since(start))

	if failed {
		os.Exit(2)
	}
}

// recordRun appends the review to local history. History is best
// effort; failures degrade to a warning so the review still counts.
// Runs with nothing to review are not recorded.
func recordRun(env *appEnv, rep *report.Report, result *pipelineResult, failed bool, elapsed time.Duration) {
	if !env.cfg.History.Enabled || result.DiffText == "" {
		return
	}
	store, err := history.OpenStore(filepath.Join(env.root, config.ConfigDirName), env.logger)
	if err != nil {
		env.logger.Warn("History unavailable", "error", err)
		return
	}
	defer store.Close()

	run := &history.Run{
		ID:            rep.RunID,
		Mode:          result.Mode,
		Analyzer:      result.Analyzer,
		FilesChanged:  result.Stats.Files,
		ContextFiles:  len(result.ContextFiles),
		IssueCount:    rep.Summary.TotalIssues,
		CriticalCount: rep.Summary.Critical,
		WarningCount:  rep.Summary.Warning,
		InfoCount:     rep.Summary.Info,
		DurationMS:    elapsed.Milliseconds(),
		GateFailed:    failed,
	}
	if err := store.RecordRun(run); err != nil {
		env.logger.Warn("Failed to record run", "error", err)
	}
}
