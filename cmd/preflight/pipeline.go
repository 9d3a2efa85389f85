package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/preflight-ai/cli/internal/config"
	"github.com/preflight-ai/cli/internal/diff"
	"github.com/preflight-ai/cli/internal/errors"
	"github.com/preflight-ai/cli/internal/git"
	"github.com/preflight-ai/cli/internal/remote"
	"github.com/preflight-ai/cli/internal/review"
	"github.com/preflight-ai/cli/internal/slogutil"
)

// appEnv bundles what every command needs: the git collaborator rooted
// at the repository, the merged configuration, and the logger.
type appEnv struct {
	git     *git.Git
	root    string
	cfg     *config.Config
	profile *config.Profile
	logger  *slog.Logger
}

// mustEnv resolves the repository and loads configuration, exiting
// with remediation hints when either fails.
func mustEnv(ctx context.Context) *appEnv {
	logger := rootLogger()

	g := git.New("")
	if !g.IsRepo(ctx) {
		fail(errors.New(errors.GitUnavailable, "not a git repository"))
	}
	root, err := g.Root(ctx)
	if err != nil {
		fail(errors.Wrap(err, errors.GitUnavailable, "resolving repository root"))
	}
	g = git.New(root)

	cfg, err := config.LoadConfig(root)
	if err != nil {
		fail(errors.Wrap(err, errors.ConfigInvalid, "loading configuration"))
	}
	if err := cfg.Validate(); err != nil {
		fail(errors.Wrap(err, errors.ConfigInvalid, "invalid configuration"))
	}

	profile, err := config.LoadProfile(root)
	if err != nil {
		fail(errors.Wrap(err, errors.ConfigInvalid, "loading profile"))
	}
	profile.ApplyTo(cfg)

	// Flags win over the configured log level.
	if verbosity == 0 && !quiet {
		logger = slogutil.NewLogger(os.Stderr, slogutil.LevelFromString(cfg.Logging.Level))
	}

	return &appEnv{git: g, root: root, cfg: cfg, profile: profile, logger: logger}
}

// fail prints an error with any suggested remediation and exits.
func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	var re *errors.ReviewError
	if stderrors.As(err, &re) {
		for _, fix := range re.SuggestedFixes {
			fmt.Fprintf(os.Stderr, "  try: %s\n", fix.Command)
		}
	}
	os.Exit(1)
}

// pipelineOptions selects the detection scope and analyzer behavior.
type pipelineOptions struct {
	All       bool   // working-tree snapshot instead of staged changes
	LocalOnly bool   // skip the remote analyzer entirely
	NoContext bool   // skip context expansion
	APIKey    string // --api-key flag value
}

// pipelineResult carries everything detection produced.
type pipelineResult struct {
	Mode           string
	DiffText       string
	Paths          []string
	ContextFiles   []review.ContextFile
	Issues         []review.Issue
	Analyzer       string
	FallbackReason string
	FallbackCode   errors.ErrorCode
	Stats          diff.Stats
}

// runPipeline executes detection: collect the diff, expand context,
// ask the remote analyzer, and fall back to the heuristic scanner when
// the analyzer fails or finds nothing. Only configuration problems are
// returned as errors; analyzer failures are recorded on the result.
func runPipeline(ctx context.Context, env *appEnv, opts pipelineOptions) (*pipelineResult, error) {
	result := &pipelineResult{Mode: "staged"}
	if opts.All {
		result.Mode = "working"
	}

	var (
		paths []string
		err   error
	)
	if opts.All {
		paths, err = env.git.LsFiles(ctx)
	} else {
		paths, err = env.git.StagedPaths(ctx)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.GitUnavailable, "listing changed files")
	}
	paths = env.profile.FilterIgnored(diff.FilterReviewable(paths))
	result.Paths = paths

	if len(paths) > 0 {
		if opts.All {
			result.DiffText, err = env.git.WorkingDiff(ctx)
		} else {
			result.DiffText, err = env.git.StagedDiff(ctx, paths...)
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.GitUnavailable, "reading diff")
		}
	}
	if result.DiffText == "" {
		return result, nil
	}

	if stats, err := diff.DiffStats(result.DiffText); err == nil {
		result.Stats = stats
	} else {
		env.logger.Debug("Diff stats unavailable", "error", err)
	}

	if !opts.NoContext {
		resolver := review.NewResolver(review.ContextOptions{
			BaseLimit:    env.cfg.Review.Context.BaseLimit,
			MaxFiles:     env.cfg.Review.Context.ImportExpansionLimit,
			MaxFileChars: env.cfg.Review.Context.MaxFileChars,
			Workdir:      env.root,
		}, env.logger)
		result.ContextFiles = resolver.ExpandByImports(resolver.PickSeed(paths))
	}

	rules, err := loadRules(env)
	if err != nil {
		return nil, err
	}
	scanner := review.NewDiffScanner(rules, env.logger)

	if opts.LocalOnly {
		result.Issues = scanner.Scan(result.DiffText)
	} else {
		result.Issues = analyzeRemote(ctx, env, opts, scanner, result)
	}

	result.Issues = dropIgnored(env.profile, result.Issues)
	review.SortIssues(result.Issues)
	return result, nil
}

// analyzeRemote calls the analyzer and falls back to the heuristic
// scanner on failure or an empty answer. The truncation cap applies
// only to the network payload; the local scanner sees the full diff.
func analyzeRemote(ctx context.Context, env *appEnv, opts pipelineOptions, scanner *review.DiffScanner, result *pipelineResult) []review.Issue {
	client := remote.NewClient(remote.Options{
		BaseURL: env.cfg.Review.Analyzer.BaseURL,
		Model:   env.cfg.Review.Analyzer.Model,
		APIKey:  config.ResolveAPIKey(opts.APIKey, env.cfg),
		Timeout: time.Duration(env.cfg.Review.Analyzer.TimeoutSeconds) * time.Second,
	}, env.logger)

	payload := diff.Truncate(result.DiffText, env.cfg.Review.Analyzer.MaxDiffChars)
	issues, err := client.Review(ctx, payload, result.ContextFiles)
	if err != nil {
		if !errors.IsRecoverable(err) {
			fail(err)
		}
		env.logger.Warn("Analyzer failed, falling back to local heuristics", "error", err)
		result.FallbackReason = "analyzer failed, local heuristics used instead"
		result.FallbackCode = errors.CodeOf(err)
		return scanner.Scan(result.DiffText)
	}

	result.Analyzer = client.Model()
	if len(issues) == 0 {
		env.logger.Debug("Analyzer returned no issues, running local heuristics")
		return scanner.Scan(result.DiffText)
	}
	return issues
}

// loadRules merges the optional rule bank into the builtin rules and
// applies the profile's disable list.
func loadRules(env *appEnv) ([]review.Rule, error) {
	var custom []review.Rule
	if env.cfg.Review.RulesFile != "" {
		path := env.cfg.Review.RulesFile
		if !filepath.IsAbs(path) {
			path = filepath.Join(env.root, path)
		}
		var err error
		custom, err = review.LoadRulesFile(path)
		if err != nil {
			return nil, errors.Wrap(err, errors.ConfigInvalid, "loading rules file")
		}
	}
	return review.MergeRules(custom, env.profile.Rules.Disable), nil
}

// dropIgnored removes issues for files the profile excludes or that
// are not reviewable. The staged diff is already path restricted; this
// covers the working-tree diff and issues the analyzer raises against
// context files.
func dropIgnored(profile *config.Profile, issues []review.Issue) []review.Issue {
	kept := issues[:0]
	for _, issue := range issues {
		if issue.File != "" {
			if profile.Ignored(issue.File) || !diff.IsReviewablePath(issue.File) {
				continue
			}
		}
		kept = append(kept, issue)
	}
	return kept
}

// gateFailed reports whether any issue meets the configured gate
// threshold. "off" disables gating. Severities are normalized the same
// way the report summary normalizes them, so the gate and the summary
// always agree on what counts.
func gateFailed(issues []review.Issue, failOn string) bool {
	if failOn == "" || failOn == "off" {
		return false
	}
	threshold := review.NormalizeSeverity(failOn).Weight()
	for _, issue := range issues {
		if review.NormalizeSeverity(string(issue.Severity)).Weight() >= threshold {
			return true
		}
	}
	return false
}
