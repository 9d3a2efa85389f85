// Package git shells out to the git binary for the handful of plumbing
// calls the review pipeline needs: staged paths and diffs, tracked-file
// listings, and patch application.
package git

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/preflight-ai/cli/internal/errors"
)

// DefaultTimeout bounds a single git invocation.
const DefaultTimeout = 30 * time.Second

// Git runs git commands in a fixed directory.
type Git struct {
	Dir     string
	Timeout time.Duration
}

// New creates a Git rooted at dir.
func New(dir string) *Git {
	return &Git{Dir: dir, Timeout: DefaultTimeout}
}

// run executes git and returns trimmed combined output. Failures carry
// the output, which is where git explains itself.
func (g *Git) run(ctx context.Context, args ...string) (string, error) {
	ctx, cancel := g.bound(ctx)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.Dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("git %s: %w\n%s", strings.Join(args, " "), err, out)
	}
	return strings.TrimSpace(string(out)), nil
}

// output executes git and returns stdout verbatim. Data-bearing
// commands use this so stderr noise (CRLF warnings and the like) never
// lands in diff or path output.
func (g *Git) output(ctx context.Context, args ...string) (string, error) {
	ctx, cancel := g.bound(ctx)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.Dir
	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return "", fmt.Errorf("git %s: %w\n%s", strings.Join(args, " "), err, exitErr.Stderr)
		}
		return "", fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
	}
	return string(out), nil
}

func (g *Git) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := g.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

// IsRepo reports whether Dir is inside a git work tree.
func (g *Git) IsRepo(ctx context.Context) bool {
	out, err := g.run(ctx, "rev-parse", "--is-inside-work-tree")
	return err == nil && out == "true"
}

// Root returns the top-level directory of the work tree.
func (g *Git) Root(ctx context.Context) (string, error) {
	return g.run(ctx, "rev-parse", "--show-toplevel")
}

// GitDir returns the absolute path of the repository's .git directory.
func (g *Git) GitDir(ctx context.Context) (string, error) {
	out, err := g.run(ctx, "rev-parse", "--git-dir")
	if err != nil {
		return "", err
	}
	if !filepath.IsAbs(out) {
		out = filepath.Join(g.Dir, out)
	}
	return out, nil
}

// StagedPaths returns the paths staged for commit, restricted to added,
// copied, and modified files. Deletions have nothing to review.
func (g *Git) StagedPaths(ctx context.Context) ([]string, error) {
	out, err := g.output(ctx, "diff", "--cached", "--name-only", "--diff-filter=ACM")
	if err != nil {
		return nil, err
	}
	return nonEmptyLines(out), nil
}

// StagedDiff returns the unified diff of the index against HEAD. With
// paths given, the diff is restricted to them; the pathspec separator
// keeps path arguments from being read as flags.
func (g *Git) StagedDiff(ctx context.Context, paths ...string) (string, error) {
	args := []string{"diff", "--cached", "--no-ext-diff", "--unified=3"}
	if len(paths) > 0 {
		args = append(args, "--")
		args = append(args, paths...)
	}
	return g.output(ctx, args...)
}

// WorkingDiff returns the diff of the working tree and index against
// HEAD. A repository with no commits has no HEAD to diff against and
// yields an empty diff.
func (g *Git) WorkingDiff(ctx context.Context) (string, error) {
	if _, err := g.run(ctx, "rev-parse", "--verify", "HEAD"); err != nil {
		return "", nil
	}
	return g.output(ctx, "diff", "HEAD", "--no-ext-diff", "--unified=3")
}

// LsFiles returns all tracked paths.
func (g *Git) LsFiles(ctx context.Context) ([]string, error) {
	out, err := g.output(ctx, "ls-files")
	if err != nil {
		return nil, err
	}
	return nonEmptyLines(out), nil
}

// Apply feeds a unified patch to git apply. With check set, the patch
// is only verified against the work tree, not applied.
func (g *Git) Apply(ctx context.Context, patch []byte, check bool) error {
	args := []string{"apply"}
	if check {
		args = append(args, "--check")
	}
	args = append(args, "-")

	ctx, cancel := g.bound(ctx)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.Dir
	cmd.Stdin = bytes.NewReader(patch)
	out, err := cmd.CombinedOutput()
	if err != nil {
		message := "patch application failed"
		if check {
			message = "patch verification failed"
		}
		cause := fmt.Errorf("git %s: %w\n%s", strings.Join(args, " "), err, out)
		return errors.Wrap(cause, errors.PatchRejected, message)
	}
	return nil
}

func nonEmptyLines(out string) []string {
	var lines []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
