package review

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/preflight-ai/cli/internal/paths"
)

// resolveExtensions lists the suffixes tried against an import token.
// The empty suffix comes first so tokens that already name a file, like
// "./util.ts" or "../config.h", win before any extension guessing.
var resolveExtensions = []string{
	"",
	".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs",
	".py", ".rb", ".php",
	".c", ".h", ".cpp", ".hpp",
	".go", ".rs",
	".vue", ".svelte",
}

// indexFiles lists package-entry names tried when the token names a
// directory.
var indexFiles = []string{
	"index.ts", "index.tsx", "index.js", "index.jsx",
	"__init__.py",
	"mod.rs",
}

// resolveImport maps an import token found in fromFile to an existing
// file on disk. Candidates are tried relative to the importing file's
// directory: the token with each known extension, then the token as a
// directory holding a package entry file. The first regular file that
// exists wins and is returned relative to the resolver workdir. There
// is no module-system lookup of any kind; a miss just keeps the file
// out of the bundle.
func (r *Resolver) resolveImport(fromFile, token string) (string, bool) {
	fromDir := filepath.Dir(filepath.Join(r.opts.Workdir, filepath.FromSlash(fromFile)))
	base := filepath.Join(fromDir, filepath.FromSlash(normalizeToken(token)))

	candidates := make([]string, 0, len(resolveExtensions)+len(indexFiles))
	for _, ext := range resolveExtensions {
		candidates = append(candidates, base+ext)
	}
	for _, idx := range indexFiles {
		candidates = append(candidates, filepath.Join(base, idx))
	}

	for _, cand := range candidates {
		info, err := os.Stat(cand)
		if err != nil || info.IsDir() {
			continue
		}
		return paths.RelToWorkdir(r.opts.Workdir, cand), true
	}
	return "", false
}

// normalizeToken rewrites Python-style dotted tokens into path form:
// "." stays the current package, ".utils" becomes "./utils", "..shared"
// becomes "../shared", and interior dots separate packages. Tokens that
// already contain a slash, or that do not start with a dot, pass
// through untouched.
func normalizeToken(token string) string {
	if !strings.HasPrefix(token, ".") ||
		strings.HasPrefix(token, "./") || strings.HasPrefix(token, "../") {
		return token
	}
	dots := 0
	for dots < len(token) && token[dots] == '.' {
		dots++
	}
	rest := strings.ReplaceAll(token[dots:], ".", "/")
	if dots == 1 {
		if rest == "" {
			return "."
		}
		return "./" + rest
	}
	prefix := strings.Repeat("../", dots-1)
	if rest == "" {
		return strings.TrimSuffix(prefix, "/")
	}
	return prefix + rest
}
