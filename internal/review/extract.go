package review

import "regexp"

// importPattern matches one import/include idiom. Group selects the
// submatch holding the referenced path; entries with group 0 are
// marker-only (the idiom is recognized but carries no literal path to
// resolve) and never contribute tokens.
type importPattern struct {
	name  string
	re    *regexp.Regexp
	group int
}

// importPatterns is the ordered idiom bank. Breadth over precision: a
// false positive only costs a failed resolution later, a false negative
// only shrinks the context.
var importPatterns = []importPattern{
	// ============ JavaScript / TypeScript ============
	{
		name:  "es_import",
		re:    regexp.MustCompile(`import\s+(?:[\w${},*\s]+\s+from\s+)?['"](\.[^'"]+)['"]`),
		group: 1,
	},
	{
		name:  "es_reexport",
		re:    regexp.MustCompile(`export\s+[\w${},*\s]+\s+from\s+['"](\.[^'"]+)['"]`),
		group: 1,
	},
	{
		name:  "commonjs_require",
		re:    regexp.MustCompile(`require\s*\(\s*['"](\.[^'"]+)['"]\s*\)`),
		group: 1,
	},

	// ============ Python ============
	{
		name:  "python_from_import",
		re:    regexp.MustCompile(`(?m)^\s*from\s+(\.[\w.]*)\s+import\b`),
		group: 1,
	},
	{
		name:  "python_dotted_import",
		re:    regexp.MustCompile(`(?m)^\s*import\s+(\.[\w.]+)`),
		group: 1,
	},

	// ============ C / C++ ============
	{
		name:  "c_include",
		re:    regexp.MustCompile(`#include\s*"([^"]+)"`),
		group: 1,
	},

	// ============ PHP ============
	{
		name:  "php_require",
		re:    regexp.MustCompile(`(?:require|include)(?:_once)?\s*\(?\s*['"]([^'"]+\.php)['"]`),
		group: 1,
	},

	// ============ Ruby ============
	{
		name:  "ruby_require_relative",
		re:    regexp.MustCompile(`require_relative\s+['"]([^'"]+)['"]`),
		group: 1,
	},

	// ============ Rust (markers only) ============
	// mod and use-crate declarations reference sibling modules by name,
	// not by a path literal the resolver could look up.
	{
		name:  "rust_mod",
		re:    regexp.MustCompile(`(?m)^\s*(?:pub\s+)?mod\s+\w+\s*;`),
		group: 0,
	},
	{
		name:  "rust_use_crate",
		re:    regexp.MustCompile(`(?m)^\s*use\s+crate::`),
		group: 0,
	},
}

// ExtractImportTokens collects the relative import tokens a source file
// references, in first-seen order with duplicates collapsed. Pure text
// matching over the idiom bank, no filesystem access.
func ExtractImportTokens(src string) []string {
	var tokens []string
	seen := make(map[string]struct{})
	for _, p := range importPatterns {
		if p.group == 0 {
			continue
		}
		for _, m := range p.re.FindAllStringSubmatch(src, -1) {
			tok := m[p.group]
			if tok == "" {
				continue
			}
			if _, dup := seen[tok]; dup {
				continue
			}
			seen[tok] = struct{}{}
			tokens = append(tokens, tok)
		}
	}
	return tokens
}
