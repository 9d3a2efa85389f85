package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/preflight-ai/cli/internal/config"
	"github.com/preflight-ai/cli/internal/history"
)

var (
	historyLimit     int
	historyPruneDays int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show past review runs",
	Long: `History lists the review runs recorded in this repository, newest
first.

Examples:
  preflight history
  preflight history --limit 5
  preflight history prune --days 30`,
	Run: runHistoryList,
}

var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete runs older than the retention window",
	Run:   runHistoryPrune,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum runs to show")
	historyPruneCmd.Flags().IntVar(&historyPruneDays, "days", 0, "delete runs older than this many days (default: history.retentionDays)")
	historyCmd.AddCommand(historyPruneCmd)
	rootCmd.AddCommand(historyCmd)
}

func openHistory(cmd *cobra.Command) (*appEnv, *history.Store) {
	env := mustEnv(cmd.Context())
	store, err := history.OpenStore(filepath.Join(env.root, config.ConfigDirName), env.logger)
	if err != nil {
		fail(err)
	}
	return env, store
}

func runHistoryList(cmd *cobra.Command, args []string) {
	_, store := openHistory(cmd)
	defer store.Close()

	runs, err := store.ListRuns(historyLimit)
	if err != nil {
		fail(err)
	}
	if len(runs) == 0 {
		fmt.Println("No review runs recorded yet.")
		return
	}

	fmt.Printf("%-17s %-8s %6s %7s %5s %9s  %s\n",
		"STARTED", "MODE", "FILES", "ISSUES", "GATE", "DURATION", "ANALYZER")
	for _, run := range runs {
		gate := "pass"
		if run.GateFailed {
			gate = "fail"
		}
		analyzer := run.Analyzer
		if analyzer == "" {
			analyzer = "local"
		}
		duration := (time.Duration(run.DurationMS) * time.Millisecond).Round(100 * time.Millisecond)
		fmt.Printf("%-17s %-8s %6d %7d %5s %9s  %s\n",
			run.StartedAt.Local().Format("2006-01-02 15:04"),
			run.Mode, run.FilesChanged, run.IssueCount, gate, duration, analyzer)
	}
}

func runHistoryPrune(cmd *cobra.Command, args []string) {
	env, store := openHistory(cmd)
	defer store.Close()

	days := historyPruneDays
	if days <= 0 {
		days = env.cfg.History.RetentionDays
	}
	removed, err := store.Prune(time.Duration(days) * 24 * time.Hour)
	if err != nil {
		fail(err)
	}
	fmt.Printf("Removed %d runs older than %d days.\n", removed, days)
}
