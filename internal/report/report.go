// Package report assembles the results of a review run into a
// serializable report and renders it for terminals and files.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/preflight-ai/cli/internal/diff"
	"github.com/preflight-ai/cli/internal/errors"
	"github.com/preflight-ai/cli/internal/review"
)

// Report is the serializable result of one review run.
type Report struct {
	RunID          string           `json:"runId,omitempty"`
	GeneratedAt    time.Time        `json:"generatedAt"`
	Mode           string           `json:"mode"`
	Analyzer       string           `json:"analyzer,omitempty"`
	FallbackReason string           `json:"fallbackReason,omitempty"`
	FallbackCode   errors.ErrorCode `json:"fallbackCode,omitempty"`
	Stats          diff.Stats       `json:"stats"`
	Summary        Summary          `json:"summary"`
	Issues         []review.Issue   `json:"issues"`
}

// Summary aggregates issue counts for quick display.
type Summary struct {
	TotalIssues     int `json:"totalIssues"`
	Critical        int `json:"critical"`
	Warning         int `json:"warning"`
	Info            int `json:"info"`
	FilesWithIssues int `json:"filesWithIssues"`
}

// New assembles a report. Issues are sorted for presentation and the
// summary is computed from them.
func New(mode string, stats diff.Stats, issues []review.Issue) *Report {
	review.SortIssues(issues)
	return &Report{
		GeneratedAt: time.Now().UTC(),
		Mode:        mode,
		Stats:       stats,
		Summary:     BuildSummary(issues),
		Issues:      issues,
	}
}

// BuildSummary counts issues by severity and by affected file. Issues
// with an unrecognized severity count as warnings, matching how they
// are normalized elsewhere.
func BuildSummary(issues []review.Issue) Summary {
	s := Summary{TotalIssues: len(issues)}
	files := make(map[string]struct{})
	for _, issue := range issues {
		switch issue.Severity {
		case review.SeverityCritical:
			s.Critical++
		case review.SeverityInfo:
			s.Info++
		default:
			s.Warning++
		}
		if issue.File != "" {
			files[issue.File] = struct{}{}
		}
	}
	s.FilesWithIssues = len(files)
	return s
}

// Write saves the report as indented JSON. Paths ending in .gz are
// gzip-compressed.
func (r *Report) Write(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	data = append(data, '\n')

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating report directory: %w", err)
		}
	}

	if strings.HasSuffix(path, ".gz") {
		return writeGzip(path, data)
	}
	return os.WriteFile(path, data, 0644)
}

func writeGzip(path string, data []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	zw := gzip.NewWriter(f)
	if _, err := zw.Write(data); err != nil {
		_ = zw.Close()
		_ = f.Close()
		return fmt.Errorf("compressing report: %w", err)
	}
	if err := zw.Close(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Load reads a report written by Write, transparently decompressing
// .gz files.
func Load(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if strings.HasSuffix(path, ".gz") {
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decompressing report: %w", err)
		}
		data, err = io.ReadAll(zr)
		if err != nil {
			return nil, fmt.Errorf("decompressing report: %w", err)
		}
		if err := zr.Close(); err != nil {
			return nil, err
		}
	}

	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parsing report: %w", err)
	}
	return &r, nil
}
