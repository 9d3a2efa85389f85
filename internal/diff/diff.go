// Package diff layers structured helpers over unified diff text: the
// changed-path list and add/remove stats the review pipeline reports,
// the reviewability filter that keeps generated and vendored files out
// of analysis, and patch construction for the fix pipeline.
package diff

import (
	"fmt"
	"strings"

	godiff "github.com/sourcegraph/go-diff/diff"
)

// Stats summarizes a unified diff.
type Stats struct {
	Files   int `json:"files"`
	Added   int `json:"added"`
	Removed int `json:"removed"`
}

// ChangedPaths returns the new-side path of every file touched by the
// diff, in diff order. Deleted files are skipped; there is nothing left
// of them to review.
func ChangedPaths(diffText string) ([]string, error) {
	fileDiffs, err := parse(diffText)
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(fileDiffs))
	for _, fd := range fileDiffs {
		path := cleanPath(fd.NewName)
		if path == "" {
			continue
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// DiffStats counts the files touched by the diff and its added and
// removed lines. Hunk headers and the "\ No newline" marker do not
// count as changes.
func DiffStats(diffText string) (Stats, error) {
	fileDiffs, err := parse(diffText)
	if err != nil {
		return Stats{}, err
	}
	stats := Stats{Files: len(fileDiffs)}
	for _, fd := range fileDiffs {
		for _, hunk := range fd.Hunks {
			for _, line := range strings.Split(string(hunk.Body), "\n") {
				switch {
				case strings.HasPrefix(line, "+"):
					stats.Added++
				case strings.HasPrefix(line, "-"):
					stats.Removed++
				}
			}
		}
	}
	return stats, nil
}

func parse(diffText string) ([]*godiff.FileDiff, error) {
	if strings.TrimSpace(diffText) == "" {
		return nil, nil
	}
	fileDiffs, err := godiff.ParseMultiFileDiff([]byte(diffText))
	if err != nil {
		return nil, fmt.Errorf("parsing diff: %w", err)
	}
	return fileDiffs, nil
}

// cleanPath strips the a/ and b/ prefixes git puts on diff paths and
// maps /dev/null (the missing side of a creation or deletion) to "".
func cleanPath(path string) string {
	if path == "" || path == "/dev/null" {
		return ""
	}
	if strings.HasPrefix(path, "a/") || strings.HasPrefix(path, "b/") {
		return path[2:]
	}
	return path
}

// Path prefixes that mark dependency trees, build output, and other
// files nobody hand-edits.
var skipPrefixes = []string{
	"vendor/",
	"node_modules/",
	".git/",
	"dist/",
	"build/",
	"out/",
	"target/",
	"testdata/",
}

// Suffixes of generated, minified, and binary files. Reviewing these
// wastes analyzer budget and produces noise.
var skipSuffixes = []string{
	".min.js",
	".min.css",
	".map",
	".sum",
	".lock",
	"-lock.json",
	".pb.go",
	"_generated.go",
	".snap",
	".svg",
	".png",
	".jpg",
	".jpeg",
	".gif",
	".ico",
	".pdf",
	".zip",
	".gz",
	".tar",
	".woff",
	".woff2",
	".ttf",
	".eot",
	".exe",
	".dll",
	".so",
	".dylib",
	".jar",
	".wasm",
}

// Exact file names that are lockfiles or otherwise machine-owned.
var skipNames = []string{
	"package-lock.json",
	"yarn.lock",
	"pnpm-lock.yaml",
	"Cargo.lock",
	"poetry.lock",
	"Gemfile.lock",
	"composer.lock",
	"go.sum",
}

// IsReviewablePath reports whether a changed file is worth sending to
// review. Vendored trees, lockfiles, minified bundles, and binary
// formats are excluded.
func IsReviewablePath(path string) bool {
	if path == "" {
		return false
	}
	normalized := strings.ReplaceAll(path, "\\", "/")
	for _, prefix := range skipPrefixes {
		if strings.HasPrefix(normalized, prefix) || strings.Contains(normalized, "/"+prefix) {
			return false
		}
	}
	base := normalized
	if idx := strings.LastIndex(normalized, "/"); idx >= 0 {
		base = normalized[idx+1:]
	}
	for _, name := range skipNames {
		if base == name {
			return false
		}
	}
	for _, suffix := range skipSuffixes {
		if strings.HasSuffix(normalized, suffix) {
			return false
		}
	}
	return true
}

// FilterReviewable keeps only the paths IsReviewablePath accepts,
// preserving order.
func FilterReviewable(paths []string) []string {
	var kept []string
	for _, path := range paths {
		if IsReviewablePath(path) {
			kept = append(kept, path)
		}
	}
	return kept
}

// Truncate caps diffText at maxChars bytes, cutting at the last line
// boundary before the limit so the remainder still parses as a diff
// prefix. A limit of zero or less means no cap.
func Truncate(diffText string, maxChars int) string {
	if maxChars <= 0 || len(diffText) <= maxChars {
		return diffText
	}
	cut := strings.LastIndexByte(diffText[:maxChars], '\n')
	if cut <= 0 {
		return diffText[:maxChars]
	}
	return diffText[:cut+1]
}
