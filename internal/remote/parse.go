package remote

import (
	"encoding/json"
	"strings"

	"github.com/preflight-ai/cli/internal/review"
)

// ExtractIssues pulls a JSON issue array out of analyzer output. Models
// wrap answers in prose and code fences often enough that extraction is
// best effort: strip a wrapping fence, try a direct parse, then scan
// for balanced bracketed runs and take the first that yields issues.
// Nothing extractable means zero issues, which is the caller's signal
// to fall back to local heuristics.
func ExtractIssues(content string) []review.Issue {
	trimmed := stripFences(strings.TrimSpace(content))
	if issues, ok := tryParseIssues(trimmed); ok {
		return issues
	}
	for _, candidate := range balancedArrays(trimmed) {
		if issues, ok := tryParseIssues(candidate); ok {
			return issues
		}
	}
	return nil
}

// tryParseIssues parses text as an issue array. Elements that are not
// objects or carry no problem text are dropped; severities are
// normalized. A parse that yields no usable issues reports not-ok, so
// a decoy array earlier in the text never shadows the real one.
func tryParseIssues(text string) ([]review.Issue, bool) {
	if !strings.HasPrefix(text, "[") {
		return nil, false
	}
	var elements []json.RawMessage
	if err := json.Unmarshal([]byte(text), &elements); err != nil {
		return nil, false
	}
	issues := make([]review.Issue, 0, len(elements))
	for _, element := range elements {
		var issue review.Issue
		if err := json.Unmarshal(element, &issue); err != nil {
			continue
		}
		if strings.TrimSpace(issue.Problem) == "" {
			continue
		}
		issue.Severity = review.NormalizeSeverity(string(issue.Severity))
		issues = append(issues, issue)
	}
	return issues, len(issues) > 0
}

// stripFences removes a wrapping markdown code fence, with or without a
// language tag.
func stripFences(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	body := text[3:]
	if idx := strings.IndexByte(body, '\n'); idx >= 0 {
		body = body[idx+1:]
	}
	body = strings.TrimSpace(body)
	body = strings.TrimSuffix(body, "```")
	return strings.TrimSpace(body)
}

// balancedArrays returns every top-level balanced [...] run in text, in
// order. String and escape state is tracked inside a run so brackets
// within JSON strings do not count toward nesting.
func balancedArrays(text string) []string {
	var candidates []string
	depth := 0
	start := -1
	inString := false
	escaped := false
	for i := 0; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '[':
			if depth == 0 {
				start = i
			}
			depth++
		case ']':
			if depth > 0 {
				depth--
				if depth == 0 && start >= 0 {
					candidates = append(candidates, text[start:i+1])
					start = -1
				}
			}
		}
	}
	return candidates
}
