package review

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/preflight-ai/cli/internal/slogutil"
)

// hunkHeaderRe captures the new-side start line of a hunk header, e.g.
// "@@ -1,3 +10,3 @@" or "@@ -5 +7 @@".
var hunkHeaderRe = regexp.MustCompile(`^@@ -\d+(?:,\d+)? \+(\d+)(?:,\d+)? @@`)

// DiffScanner runs a rule bank over the added lines of a unified diff.
// It is the fallback path: the pipeline only invokes it when the remote
// analyzer fails or returns nothing usable.
type DiffScanner struct {
	rules  []Rule
	logger *slog.Logger
}

// NewDiffScanner creates a scanner. A nil rule slice selects BuiltinRules.
func NewDiffScanner(rules []Rule, logger *slog.Logger) *DiffScanner {
	if rules == nil {
		rules = BuiltinRules
	}
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	return &DiffScanner{rules: rules, logger: logger}
}

// Scan walks the diff line by line, tracking the current file and the
// line number on the new side, and evaluates every rule against each
// added line. Each rule fires at most once per line. Output order
// follows the diff and the rule bank, so repeated scans of the same
// text are identical.
//
// Line accounting: the "+++ b/<path>" header resets the counter, a hunk
// header primes it to start-1, and every line that exists on the new
// side (added or context) advances it before evaluation. Removed lines
// and "\ No newline" markers belong to the old side and do not move it.
func (s *DiffScanner) Scan(diffText string) []Issue {
	var issues []Issue
	currentFile := ""
	lineNo := 0

	for _, line := range strings.Split(diffText, "\n") {
		switch {
		case strings.HasPrefix(line, "+++ "):
			currentFile = strings.TrimPrefix(strings.TrimPrefix(line, "+++ "), "b/")
			lineNo = 0

		case strings.HasPrefix(line, "@@"):
			if m := hunkHeaderRe.FindStringSubmatch(line); m != nil {
				start, err := strconv.Atoi(m[1])
				if err == nil {
					lineNo = start - 1
				}
			}

		case strings.HasPrefix(line, "+"):
			lineNo++
			added := line[1:]
			for _, rule := range s.rules {
				if !rule.Matches(added) {
					continue
				}
				issues = append(issues, Issue{
					File:     currentFile,
					Problem:  rule.Problem,
					Fix:      rule.Fix,
					Severity: rule.Severity,
					Line:     lineNo,
					Snippet:  added,
				})
			}

		case strings.HasPrefix(line, "-"), strings.HasPrefix(line, `\`):
			// old side only

		default:
			lineNo++
		}
	}

	s.logger.Debug("Heuristic scan complete", "rules", len(s.rules), "issues", len(issues))
	return issues
}
