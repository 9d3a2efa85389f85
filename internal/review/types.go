// Package review implements the core of the pre-commit review pipeline:
// bounded import-graph context expansion, heuristic scanning of unified
// diffs, and mechanical auto-fixing of the issues the scanners raise.
package review

import "sort"

// Severity indicates how strongly an issue should gate a commit.
type Severity string

const (
	SeverityCritical Severity = "critical" // must-fix before commit
	SeverityWarning  Severity = "warning"  // should fix, does not gate by default
	SeverityInfo     Severity = "info"     // advisory only
)

// Weight returns a numeric weight for sorting.
func (s Severity) Weight() int {
	switch s {
	case SeverityCritical:
		return 3
	case SeverityWarning:
		return 2
	case SeverityInfo:
		return 1
	default:
		return 0
	}
}

// NormalizeSeverity maps free-form severity strings onto the known set.
// Anything unrecognized, including the empty string, becomes warning.
func NormalizeSeverity(s string) Severity {
	switch Severity(s) {
	case SeverityCritical, SeverityWarning, SeverityInfo:
		return Severity(s)
	default:
		return SeverityWarning
	}
}

// ContextFile is one file sent alongside a diff to the analyzer.
// Content is truncated at read time; Path is unique within a bundle.
type ContextFile struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// Issue is a single finding, produced either by the remote analyzer or
// by the heuristic scanner. Snippet and FixedCode, when both present,
// carry an exact before/after pair supplied by the analyzer and take
// precedence over pattern-based fixing.
type Issue struct {
	File      string   `json:"file"`
	Problem   string   `json:"problem"`
	Fix       string   `json:"fix,omitempty"`
	Severity  Severity `json:"severity,omitempty"`
	Line      int      `json:"line,omitempty"`
	Snippet   string   `json:"snippet,omitempty"`
	FixedCode string   `json:"fixedCode,omitempty"`
}

// AutoFixResult summarizes the fixes applied to one file.
type AutoFixResult struct {
	File         string  `json:"file"`
	FixesApplied int     `json:"fixesApplied"`
	Issues       []Issue `json:"issues"`
}

// SortIssues orders issues for presentation: severity weight descending,
// then file, then line. The sort is stable so equal issues keep their
// scan order.
func SortIssues(issues []Issue) {
	sort.SliceStable(issues, func(i, j int) bool {
		a, b := issues[i], issues[j]
		if aw, bw := a.Severity.Weight(), b.Severity.Weight(); aw != bw {
			return aw > bw
		}
		if a.File != b.File {
			return a.File < b.File
		}
		return a.Line < b.Line
	})
}
