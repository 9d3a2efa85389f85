package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/preflight-ai/cli/internal/diff"
	"github.com/preflight-ai/cli/internal/paths"
	"github.com/preflight-ai/cli/internal/report"
	"github.com/preflight-ai/cli/internal/review"
)

var (
	fixDryRun     bool
	fixNoBackup   bool
	fixPatch      string
	fixApply      bool
	fixFromReport string
)

var fixCmd = &cobra.Command{
	Use:   "fix",
	Short: "Apply mechanical fixes for auto-fixable issues",
	Long: `Fix repairs the narrow set of issues that have a safe mechanical
rewrite, such as var declarations, leftover console.log calls, loose
equality, and trailing whitespace.

Issues come from the same detection pipeline as review, or from a
previously written report via --from-report. Files are rewritten in
place with a .bak backup unless backups are disabled.

Examples:
  preflight fix                        # detect and fix staged changes
  preflight fix --dry-run              # preview the patch, write nothing
  preflight fix --patch fixes.patch    # write a patch instead of mutating
  preflight fix --patch fixes.patch --apply
  preflight fix --from-report out.json.gz`,
	Run: runFix,
}

func init() {
	fixCmd.Flags().BoolVar(&fixDryRun, "dry-run", false, "print the planned patch without writing anything")
	fixCmd.Flags().BoolVar(&fixNoBackup, "no-backup", false, "skip .bak backups when rewriting files")
	fixCmd.Flags().StringVar(&fixPatch, "patch", "", "write fixes as a unified patch to this file")
	fixCmd.Flags().BoolVar(&fixApply, "apply", false, "apply the written patch with git apply (requires --patch)")
	fixCmd.Flags().StringVar(&fixFromReport, "from-report", "", "take issues from a report file instead of running detection")
	rootCmd.AddCommand(fixCmd)
}

func runFix(cmd *cobra.Command, args []string) {
	if fixApply && fixPatch == "" {
		fmt.Fprintln(os.Stderr, "--apply requires --patch")
		os.Exit(1)
	}
	if fixApply && fixDryRun {
		fmt.Fprintln(os.Stderr, "--apply and --dry-run cannot be combined")
		os.Exit(1)
	}

	ctx := cmd.Context()
	env := mustEnv(ctx)

	issues, err := fixIssues(cmd, env)
	if err != nil {
		fail(err)
	}
	if len(issues) == 0 {
		fmt.Println("No issues to fix.")
		return
	}

	// The fixer reads and writes through issue paths, which the diff
	// reports relative to the repository root. Resolve them so fix
	// works from any directory inside the repo.
	for i := range issues {
		if issues[i].File != "" && !filepath.IsAbs(issues[i].File) {
			issues[i].File = filepath.Join(env.root, issues[i].File)
		}
	}

	fixer := review.NewFixer(env.logger)
	fixable := 0
	for _, issue := range issues {
		if fixer.IsAutoFixable(issue) {
			fixable++
		}
	}
	if fixable == 0 {
		fmt.Printf("No auto-fixable issues among %d found.\n", len(issues))
		return
	}

	switch {
	case fixDryRun:
		previewFixes(env, fixer, issues)
	case fixPatch != "":
		writeFixPatch(cmd, env, fixer, issues)
	default:
		applyFixes(env, fixer, issues)
	}
}

// fixIssues loads issues from a report or runs staged detection.
func fixIssues(cmd *cobra.Command, env *appEnv) ([]review.Issue, error) {
	if fixFromReport != "" {
		rep, err := report.Load(fixFromReport)
		if err != nil {
			return nil, err
		}
		return rep.Issues, nil
	}
	result, err := runPipeline(cmd.Context(), env, pipelineOptions{})
	if err != nil {
		return nil, err
	}
	return result.Issues, nil
}

func previewFixes(env *appEnv, fixer *review.Fixer, issues []review.Issue) {
	changes, results := fixer.PlanFixes(issues)
	patch, err := buildRelativePatch(env.root, changes)
	if err != nil {
		fail(err)
	}
	if len(patch) == 0 {
		fmt.Println("Nothing to fix.")
		return
	}
	os.Stdout.Write(patch)
	fmt.Printf("\nWould fix %d issues in %d files. Run without --dry-run to apply.\n",
		countFixes(results), len(results))
}

func writeFixPatch(cmd *cobra.Command, env *appEnv, fixer *review.Fixer, issues []review.Issue) {
	changes, results := fixer.PlanFixes(issues)
	patch, err := buildRelativePatch(env.root, changes)
	if err != nil {
		fail(err)
	}
	if len(patch) == 0 {
		fmt.Println("Nothing to fix.")
		return
	}
	if err := os.WriteFile(fixPatch, patch, 0644); err != nil {
		fail(err)
	}
	fmt.Printf("Patch with %d fixes for %d files written to %s\n",
		countFixes(results), len(results), fixPatch)

	if !fixApply {
		return
	}
	ctx := cmd.Context()
	if err := env.git.Apply(ctx, patch, true); err != nil {
		fail(err)
	}
	if err := env.git.Apply(ctx, patch, false); err != nil {
		fail(err)
	}
	fmt.Println("Patch applied.")
}

func applyFixes(env *appEnv, fixer *review.Fixer, issues []review.Issue) {
	backup := env.cfg.Review.Fix.Backup && !fixNoBackup
	results := fixer.ApplyFixes(issues, review.FixOptions{Backup: backup})
	if len(results) == 0 {
		fmt.Println("Nothing to fix.")
		return
	}
	for _, res := range results {
		fmt.Printf("  %s: %d fixes\n", paths.RelToWorkdir(env.root, res.File), res.FixesApplied)
	}
	fmt.Printf("Applied %d fixes in %d files.\n", countFixes(results), len(results))
	if backup {
		fmt.Printf("Originals saved with the %s suffix.\n", review.BackupSuffix)
	}
}

// buildRelativePatch renders changes as a patch with repo-relative
// paths, which is what git apply expects from the repository root.
func buildRelativePatch(root string, changes []review.FileChange) ([]byte, error) {
	for i := range changes {
		changes[i].Path = paths.RelToWorkdir(root, changes[i].Path)
	}
	return diff.BuildPatch(changes)
}

func countFixes(results []review.AutoFixResult) int {
	total := 0
	for _, res := range results {
		total += res.FixesApplied
	}
	return total
}
