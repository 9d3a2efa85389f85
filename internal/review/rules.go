package review

import "regexp"

// Rule is one heuristic check run against every added diff line. Match
// must hit for the rule to fire; Unless, when set, suppresses the match
// (RE2 has no lookahead, so "without X on the line" guards live here).
type Rule struct {
	Name     string
	Match    *regexp.Regexp
	Unless   *regexp.Regexp
	Severity Severity
	Problem  string
	Fix      string
}

// Matches reports whether the rule fires on a single source line.
func (r Rule) Matches(line string) bool {
	if !r.Match.MatchString(line) {
		return false
	}
	if r.Unless != nil && r.Unless.MatchString(line) {
		return false
	}
	return true
}

// BuiltinRules is the fixed heuristic bank. These are deliberately
// shallow, line-local pattern checks; they stand in for the remote
// analyzer, they do not try to equal it.
var BuiltinRules = []Rule{
	// ============ Critical ============
	{
		Name:     "json_parse_unvalidated",
		Match:    regexp.MustCompile(`JSON\.parse\s*\((?:[^()]|\([^()]*\))*\)\s*[.\[]`),
		Severity: SeverityCritical,
		Problem:  "Unsafe JSON.parse result accessed without validation",
		Fix:      "Wrap the parse in try/catch and null-check the result before accessing properties",
	},
	{
		Name:     "then_without_catch",
		Match:    regexp.MustCompile(`\.then\s*\(`),
		Unless:   regexp.MustCompile(`\.catch\s*\(`),
		Severity: SeverityCritical,
		Problem:  "Promise chain has .then without a .catch handler",
		Fix:      "Append .catch to the chain or await inside try/catch",
	},
	{
		Name:     "eval_call",
		Match:    regexp.MustCompile(`\beval\s*\(`),
		Severity: SeverityCritical,
		Problem:  "eval() executes arbitrary code",
		Fix:      "Replace eval with JSON.parse, a lookup table, or explicit logic",
	},
	{
		Name:     "hardcoded_secret",
		Match:    regexp.MustCompile(`(?i)(password|secret|key|token)\s*[:=]\s*['"][^'"]+['"]`),
		Severity: SeverityCritical,
		Problem:  "Hardcoded secret: credential-like name assigned a string literal",
		Fix:      "Read the value from an environment variable or secret store",
	},
	{
		Name:     "unsanitized_innerhtml",
		Match:    regexp.MustCompile(`innerHTML\s*=`),
		Unless:   regexp.MustCompile(`DOMPurify|sanitize`),
		Severity: SeverityCritical,
		Problem:  "innerHTML assignment without sanitization",
		Fix:      "Sanitize the value with DOMPurify.sanitize or assign textContent instead",
	},
	{
		Name:     "img_empty_src",
		Match:    regexp.MustCompile(`<img\s[^>]*src\s*=\s*["']\s*["']`),
		Severity: SeverityCritical,
		Problem:  "Image tag with an empty src attribute",
		Fix:      "Point src at a real asset or remove the tag",
	},
	{
		Name:     "anchor_empty_href",
		Match:    regexp.MustCompile(`<a\s[^>]*href\s*=\s*["']\s*["']`),
		Severity: SeverityCritical,
		Problem:  "Anchor tag with an empty href attribute",
		Fix:      "Set a navigation target, or use a button for non-navigation actions",
	},

	// ============ Warning ============
	{
		Name:     "add_event_listener",
		Match:    regexp.MustCompile(`addEventListener\s*\(`),
		Severity: SeverityWarning,
		Problem:  "addEventListener without visible cleanup can leak listeners",
		Fix:      "Keep a reference to the handler and call removeEventListener on teardown",
	},
	{
		Name:     "set_interval",
		Match:    regexp.MustCompile(`setInterval\s*\(`),
		Severity: SeverityWarning,
		Problem:  "setInterval without visible cleanup can leak timers",
		Fix:      "Keep the interval id and call clearInterval on teardown",
	},
	{
		Name:     "img_missing_alt",
		Match:    regexp.MustCompile(`<img\b[^>]*>`),
		Unless:   regexp.MustCompile(`\balt\s*=`),
		Severity: SeverityWarning,
		Problem:  "Image tag missing an alt attribute",
		Fix:      `Add an alt description (alt="" for purely decorative images)`,
	},
}

// GetRuleByName returns the builtin rule with the given name, or nil.
func GetRuleByName(name string) *Rule {
	for i := range BuiltinRules {
		if BuiltinRules[i].Name == name {
			return &BuiltinRules[i]
		}
	}
	return nil
}
