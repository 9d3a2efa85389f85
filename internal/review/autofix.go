package review

import (
	"log/slog"
	"os"
	"regexp"
	"strings"

	"github.com/preflight-ai/cli/internal/slogutil"
)

// BackupSuffix is appended to a file's path for the pre-fix copy.
const BackupSuffix = ".bak"

// FixOptions controls how ApplyFixes touches the tree.
type FixOptions struct {
	DryRun bool // plan only; no backup, no write
	Backup bool // write a .bak sibling before overwriting
}

// FileChange is one planned whole-file rewrite.
type FileChange struct {
	Path   string
	Before string
	After  string
}

// fixCategory pairs a detector over an issue's problem text with the
// whole-file transform that repairs it. The detector is the safety
// gate: it is consulted once to admit an issue (IsAutoFixable) and
// again to pick the transform, so the analyzer's free text never
// selects a rewrite directly. A nil apply means the category is safe
// to admit but can only be repaired through an exact snippet/fixedCode
// pair; missing semicolons are the case in point, since inserting one
// by regex across multi-line statements corrupts code.
type fixCategory struct {
	name     string
	detector *regexp.Regexp
	apply    func(content string) string
}

var fixCategories = []fixCategory{
	{"var_modernization", regexp.MustCompile(`(?i)\bvar\b`), varToConst},
	{"console_removal", regexp.MustCompile(`(?i)\bconsole\b`), stripConsoleCalls},
	{"trailing_whitespace", regexp.MustCompile(`(?i)trailing\s+(?:white)?space`), trimTrailingWhitespace},
	{"const_let_preference", regexp.MustCompile(`(?i)\b(?:const|let)\b`), varToConst},
	{"strict_equality", regexp.MustCompile(`(?i)===|!==|strict\s+equal|loose\s+equal`), strictEquality},
	{"missing_semicolon", regexp.MustCompile(`(?i)semicolon`), nil},
}

var (
	varDeclRe = regexp.MustCompile(`\bvar\s+([A-Za-z_$][\w$]*)`)

	// Whole single-line console.log/debug/info statements only; lines
	// where anything else follows the call are left alone.
	consoleCallRe = regexp.MustCompile(`(?m)^[ \t]*console\.(?:log|debug|info)\s*\((?:[^()]|\([^()]*\))*\)[ \t]*;?[ \t]*\r?$\n?`)

	trailingWSRe = regexp.MustCompile(`(?m)[ \t]+(\r?)$`)

	// The leading class excludes = ! < > so ===, !==, <=, >= never
	// re-match; the trailing class excludes = so the rewrite cannot
	// cascade. Idempotent by construction.
	looseEqRe  = regexp.MustCompile(`([^=!<>])==([^=])`)
	looseNeqRe = regexp.MustCompile(`([^=!<>])!=([^=])`)
)

func varToConst(content string) string {
	return varDeclRe.ReplaceAllString(content, "const $1")
}

func stripConsoleCalls(content string) string {
	return consoleCallRe.ReplaceAllString(content, "")
}

func trimTrailingWhitespace(content string) string {
	return trailingWSRe.ReplaceAllString(content, "$1")
}

func strictEquality(content string) string {
	content = looseEqRe.ReplaceAllString(content, "$1===$2")
	return looseNeqRe.ReplaceAllString(content, "$1!==$2")
}

// Fixer applies mechanical repairs for the narrow set of issue
// categories the allow-list recognizes.
type Fixer struct {
	logger *slog.Logger
}

// NewFixer creates a fixer. A nil logger discards output.
func NewFixer(logger *slog.Logger) *Fixer {
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	return &Fixer{logger: logger}
}

// IsAutoFixable reports whether an issue's problem text falls into one
// of the safe fix categories. Case-insensitive; anything unrecognized
// is left for a human.
func (f *Fixer) IsAutoFixable(issue Issue) bool {
	return matchCategory(issue.Problem) != nil
}

func matchCategory(problem string) *fixCategory {
	for i := range fixCategories {
		if fixCategories[i].detector.MatchString(problem) {
			return &fixCategories[i]
		}
	}
	return nil
}

// PlanFixes computes the rewrites ApplyFixes would make, without
// touching the filesystem beyond reads. Issues are grouped by file in
// first-seen order; within a file they apply in input order. An exact
// Snippet/FixedCode pair takes precedence over the category transform.
// Only issues that actually change the content are counted. The two
// return slices are aligned: changes[i] is the rewrite behind
// results[i].
func (f *Fixer) PlanFixes(issues []Issue) ([]FileChange, []AutoFixResult) {
	order, byFile := groupIssuesByFile(issues)

	var changes []FileChange
	var results []AutoFixResult
	for _, file := range order {
		var fixable []Issue
		for _, issue := range byFile[file] {
			if f.IsAutoFixable(issue) {
				fixable = append(fixable, issue)
			}
		}
		if len(fixable) == 0 {
			continue
		}

		data, err := os.ReadFile(file)
		if err != nil {
			f.logger.Warn("Skipping file, cannot read", "file", file, "error", err)
			continue
		}
		before := string(data)

		content := before
		applied := 0
		var appliedIssues []Issue
		for _, issue := range fixable {
			next := applyOne(content, issue)
			if next == content {
				continue
			}
			content = next
			applied++
			appliedIssues = append(appliedIssues, issue)
		}
		if applied == 0 {
			continue
		}

		changes = append(changes, FileChange{Path: file, Before: before, After: content})
		results = append(results, AutoFixResult{File: file, FixesApplied: applied, Issues: appliedIssues})
	}
	return changes, results
}

// applyOne produces the content after repairing a single issue, or the
// input unchanged when nothing applies.
func applyOne(content string, issue Issue) string {
	if issue.Snippet != "" && issue.FixedCode != "" {
		return strings.Replace(content, issue.Snippet, issue.FixedCode, 1)
	}
	cat := matchCategory(issue.Problem)
	if cat == nil || cat.apply == nil {
		return content
	}
	return cat.apply(content)
}

// ApplyFixes plans and writes fixes file by file. Under DryRun nothing
// is written and the planned results are returned as-is. With Backup
// set, the pre-fix content goes to a .bak sibling first; if either
// write fails the file is skipped with a warning and the remaining
// files proceed independently.
func (f *Fixer) ApplyFixes(issues []Issue, opts FixOptions) []AutoFixResult {
	changes, planned := f.PlanFixes(issues)
	if opts.DryRun {
		return planned
	}

	results := make([]AutoFixResult, 0, len(planned))
	for i, change := range changes {
		if opts.Backup {
			if err := os.WriteFile(change.Path+BackupSuffix, []byte(change.Before), 0644); err != nil {
				f.logger.Warn("Backup failed, file left untouched", "file", change.Path, "error", err)
				continue
			}
		}
		if err := os.WriteFile(change.Path, []byte(change.After), 0644); err != nil {
			f.logger.Warn("Fix write failed", "file", change.Path, "error", err)
			continue
		}
		f.logger.Info("Applied fixes", "file", change.Path, "count", planned[i].FixesApplied)
		results = append(results, planned[i])
	}
	return results
}

func groupIssuesByFile(issues []Issue) ([]string, map[string][]Issue) {
	var order []string
	byFile := make(map[string][]Issue)
	for _, issue := range issues {
		if issue.File == "" {
			continue
		}
		if _, ok := byFile[issue.File]; !ok {
			order = append(order, issue.File)
		}
		byFile[issue.File] = append(byFile[issue.File], issue)
	}
	return order, byFile
}
