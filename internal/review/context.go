package review

import (
	"log/slog"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/preflight-ai/cli/internal/paths"
	"github.com/preflight-ai/cli/internal/slogutil"
)

// Default bounds for context expansion, applied when ContextOptions
// leaves a field zero.
const (
	DefaultBaseLimit    = 10
	DefaultMaxFiles     = 20
	DefaultMaxFileChars = 20000
)

// FileOutcome classifies a capped file read.
type FileOutcome int

const (
	FileFound FileOutcome = iota
	FileMissing
	FileUnreadable
)

func (o FileOutcome) String() string {
	switch o {
	case FileFound:
		return "found"
	case FileMissing:
		return "missing"
	case FileUnreadable:
		return "unreadable"
	default:
		return "unknown"
	}
}

// ContextOptions bounds context expansion. Zero values pick up defaults
// at construction, so callers only set what they override.
type ContextOptions struct {
	BaseLimit    int    // seed size
	MaxFiles     int    // total bundle budget, seed included
	MaxFileChars int    // per-file content cap
	Workdir      string // base for relative paths; defaults to the process working directory
}

// Resolver builds the context bundle that accompanies a diff: the seed
// files plus whatever is reachable through their relative imports, up
// to a fixed file budget.
type Resolver struct {
	opts   ContextOptions
	logger *slog.Logger
}

// NewResolver applies defaults and clamps BaseLimit to MaxFiles so a
// seed can never start over budget.
func NewResolver(opts ContextOptions, logger *slog.Logger) *Resolver {
	if opts.BaseLimit <= 0 {
		opts.BaseLimit = DefaultBaseLimit
	}
	if opts.MaxFiles <= 0 {
		opts.MaxFiles = DefaultMaxFiles
	}
	if opts.BaseLimit > opts.MaxFiles {
		opts.BaseLimit = opts.MaxFiles
	}
	if opts.MaxFileChars <= 0 {
		opts.MaxFileChars = DefaultMaxFileChars
	}
	if opts.Workdir == "" {
		if wd, err := os.Getwd(); err == nil {
			opts.Workdir = wd
		} else {
			opts.Workdir = "."
		}
	}
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	return &Resolver{opts: opts, logger: logger}
}

// PickSeed reads the first BaseLimit paths into context files. The
// caller has already filtered and ordered the list; entries that are
// missing or unreadable are skipped, context being best effort.
func (r *Resolver) PickSeed(filePaths []string) []ContextFile {
	limit := r.opts.BaseLimit
	if len(filePaths) < limit {
		limit = len(filePaths)
	}
	seed := make([]ContextFile, 0, limit)
	for _, p := range filePaths[:limit] {
		content, outcome := r.readFileCapped(p)
		if outcome != FileFound {
			r.logger.Debug("Skipping seed file", "path", p, "outcome", outcome.String())
			continue
		}
		seed = append(seed, ContextFile{Path: paths.NormalizePath(p), Content: content})
	}
	return seed
}

// ExpandByImports grows the seed breadth first along relative imports
// until the budget is reached or nothing new resolves. Seed entries
// count against the budget; a seed already at or over budget is
// returned unchanged. Resolution misses and unreadable files are
// skipped, never fatal.
func (r *Resolver) ExpandByImports(seed []ContextFile) []ContextFile {
	out := make([]ContextFile, len(seed), r.opts.MaxFiles)
	copy(out, seed)

	seen := make(map[string]struct{}, len(seed))
	for _, f := range seed {
		seen[f.Path] = struct{}{}
	}

	queue := make([]ContextFile, len(seed))
	copy(queue, seed)

	for len(queue) > 0 && len(out) < r.opts.MaxFiles {
		current := queue[0]
		queue = queue[1:]

		for _, token := range ExtractImportTokens(current.Content) {
			resolved, ok := r.resolveImport(current.Path, token)
			if !ok {
				continue
			}
			if _, dup := seen[resolved]; dup {
				continue
			}
			content, outcome := r.readFileCapped(resolved)
			if outcome != FileFound {
				r.logger.Debug("Skipping imported file",
					"path", resolved, "outcome", outcome.String())
				continue
			}
			cf := ContextFile{Path: resolved, Content: content}
			out = append(out, cf)
			queue = append(queue, cf)
			seen[resolved] = struct{}{}
			if len(out) >= r.opts.MaxFiles {
				break
			}
		}
	}

	r.logger.Debug("Context expansion complete",
		"seed", len(seed), "total", len(out), "budget", r.opts.MaxFiles)
	return out
}

// readFileCapped reads a workdir-relative path, truncating the content
// to the per-file cap on a rune boundary. The outcome distinguishes
// absent files from unreadable ones so callers can log accordingly.
func (r *Resolver) readFileCapped(path string) (string, FileOutcome) {
	full := path
	if !filepath.IsAbs(full) {
		full = filepath.Join(r.opts.Workdir, filepath.FromSlash(path))
	}
	data, err := os.ReadFile(full)
	if err != nil {
		if os.IsNotExist(err) {
			return "", FileMissing
		}
		return "", FileUnreadable
	}
	content := string(data)
	if len(content) > r.opts.MaxFileChars {
		cut := r.opts.MaxFileChars
		for cut > 0 && !utf8.RuneStart(content[cut]) {
			cut--
		}
		content = content[:cut]
	}
	return content, FileFound
}
