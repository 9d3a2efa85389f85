// Package paths provides path normalization helpers shared by the review
// pipeline, profile matching, and report rendering.
package paths

import (
	"path/filepath"
	"strings"
)

// NormalizePath cleans a path and converts backslashes to forward slashes.
// Relative paths stay relative.
func NormalizePath(path string) string {
	if path == "" {
		return path
	}
	return filepath.ToSlash(filepath.Clean(path))
}

// RelToWorkdir expresses path relative to workdir when possible.
// Falls back to the cleaned input when no relative form exists
// (different volumes, empty workdir).
func RelToWorkdir(workdir, path string) string {
	if workdir == "" {
		return NormalizePath(path)
	}
	abs := path
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(workdir, abs)
	}
	rel, err := filepath.Rel(workdir, abs)
	if err != nil {
		return NormalizePath(path)
	}
	return filepath.ToSlash(rel)
}

// IsWithinRoot reports whether path does not escape root after cleaning.
func IsWithinRoot(root, path string) bool {
	abs := path
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(root, abs)
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	return rel != ".." && !strings.HasPrefix(rel, "../")
}

// MatchesGlob matches a slash-separated path against a glob pattern.
// Beyond filepath.Match semantics it accepts "dir/" as a prefix pattern
// and matches bare patterns like "*.min.js" against the base name, which
// is how ignore lists are usually written.
func MatchesGlob(pattern, path string) bool {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return false
	}
	path = NormalizePath(path)

	if strings.HasSuffix(pattern, "/") {
		return strings.HasPrefix(path, pattern) || path == strings.TrimSuffix(pattern, "/")
	}
	if ok, err := filepath.Match(pattern, path); err == nil && ok {
		return true
	}
	if !strings.Contains(pattern, "/") {
		if ok, err := filepath.Match(pattern, filepath.Base(path)); err == nil && ok {
			return true
		}
	}
	return false
}
