package report

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/preflight-ai/cli/internal/errors"
	"github.com/preflight-ai/cli/internal/review"
)

var (
	criticalColor = color.New(color.FgRed, color.Bold)
	warningColor  = color.New(color.FgYellow)
	infoColor     = color.New(color.FgCyan)
	fileColor     = color.New(color.Bold)
	passColor     = color.New(color.FgGreen, color.Bold)
)

// DisableColor turns off ANSI colors for all subsequent rendering.
func DisableColor() {
	color.NoColor = true
}

func severityTag(s review.Severity) string {
	switch s {
	case review.SeverityCritical:
		return criticalColor.Sprintf("[%s]", s)
	case review.SeverityInfo:
		return infoColor.Sprintf("[%s]", s)
	default:
		return warningColor.Sprintf("[%s]", review.SeverityWarning)
	}
}

// RenderHuman writes the report in a terminal-friendly format. Issues
// are grouped by file, files ordered by their most severe issue.
func (r *Report) RenderHuman(w io.Writer) {
	if r.FallbackReason != "" {
		fmt.Fprintf(w, "%s %s\n", warningColor.Sprint("note:"), r.FallbackReason)
		for _, fix := range errors.DefaultFixes(r.FallbackCode) {
			fmt.Fprintf(w, "  try: %s\n", fix.Command)
		}
		fmt.Fprintln(w)
	}

	if len(r.Issues) == 0 {
		fmt.Fprintf(w, "%s\n", passColor.Sprint("No issues found."))
		fmt.Fprintf(w, "%s\n", statsLine(r))
		return
	}

	order, byFile := groupByFile(r.Issues)
	for _, file := range order {
		fmt.Fprintf(w, "%s\n", fileColor.Sprint(displayFile(file)))
		for _, issue := range byFile[file] {
			location := ""
			if issue.Line > 0 {
				location = fmt.Sprintf("line %d: ", issue.Line)
			}
			fmt.Fprintf(w, "  %s %s%s\n", severityTag(issue.Severity), location, issue.Problem)
			if issue.Fix != "" {
				fmt.Fprintf(w, "      fix: %s\n", issue.Fix)
			}
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "%s\n", summaryLine(r.Summary))
	fmt.Fprintf(w, "%s\n", statsLine(r))
}

// groupByFile collects issues per file, keeping files in the order of
// their first (most severe) issue and issues in their sorted order.
func groupByFile(issues []review.Issue) ([]string, map[string][]review.Issue) {
	var order []string
	byFile := make(map[string][]review.Issue)
	for _, issue := range issues {
		if _, seen := byFile[issue.File]; !seen {
			order = append(order, issue.File)
		}
		byFile[issue.File] = append(byFile[issue.File], issue)
	}
	return order, byFile
}

func displayFile(file string) string {
	if file == "" {
		return "(general)"
	}
	return file
}

func summaryLine(s Summary) string {
	return fmt.Sprintf("%d issues: %d critical, %d warning, %d info (%d files)",
		s.TotalIssues, s.Critical, s.Warning, s.Info, s.FilesWithIssues)
}

func statsLine(r *Report) string {
	line := fmt.Sprintf("%d files changed, +%d -%d", r.Stats.Files, r.Stats.Added, r.Stats.Removed)
	if r.Analyzer != "" {
		line += ", analyzer " + r.Analyzer
	}
	return line
}
