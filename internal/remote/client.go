// Package remote calls the configured OpenAI-compatible analyzer and
// turns its free-text answer into structured issues. Failures are
// classified so the pipeline can report why it fell back to local
// heuristics.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/preflight-ai/cli/internal/errors"
	"github.com/preflight-ai/cli/internal/review"
	"github.com/preflight-ai/cli/internal/slogutil"
)

const (
	// DefaultBaseURL is the endpoint used when no baseUrl is configured.
	DefaultBaseURL = "https://api.openai.com/v1"
	// DefaultModel is the analyzer model used when none is configured.
	DefaultModel = "gpt-4o-mini"
	// DefaultTimeout bounds one review request end to end.
	DefaultTimeout = 60 * time.Second

	maxResponseBytes = 4 << 20
)

const systemPrompt = `You are a strict pre-commit code reviewer. Examine the diff and its related files for bugs, security problems, and accessibility issues introduced by the added lines.

Respond with a bare JSON array and nothing else. Each element:
{"file": "path from the diff", "problem": "what is wrong", "fix": "how to fix it", "severity": "critical"|"warning"|"info", "line": <line number in the new file>, "snippet": "<exact offending text>", "fixedCode": "<exact replacement text>"}

Include "snippet" and "fixedCode" only when you can give an exact, mechanical replacement. Respond with [] when the diff is clean.`

// Options configures the analyzer client.
type Options struct {
	BaseURL string
	Model   string
	APIKey  string
	Timeout time.Duration
}

// Client talks to one analyzer endpoint.
type Client struct {
	opts       Options
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a Client, applying defaults for unset options.
func NewClient(opts Options, logger *slog.Logger) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	return &Client{opts: opts, httpClient: &http.Client{}, logger: logger}
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	return c.opts.Model
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Review sends the diff and its context bundle for analysis. Zero
// issues with a nil error is a valid outcome; the caller decides
// whether that triggers the heuristic fallback.
func (c *Client) Review(ctx context.Context, diffText string, contextFiles []review.ContextFile) ([]review.Issue, error) {
	if strings.TrimSpace(c.opts.APIKey) == "" {
		return nil, errors.New(errors.Unauthorized, "no API key configured")
	}

	body, err := json.Marshal(chatRequest{
		Model: c.opts.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildPrompt(diffText, contextFiles)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.opts.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept-Encoding", "gzip")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.AnalyzerUnavailable, "analyzer unreachable")
	}
	defer resp.Body.Close()

	payload, err := readBody(resp)
	if err != nil {
		return nil, errors.Wrap(err, errors.AnalyzerUnavailable, "failed to read analyzer response")
	}
	if err := classifyStatus(resp.StatusCode, payload); err != nil {
		return nil, err
	}

	var parsed chatResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return nil, errors.Wrap(err, errors.AnalyzerUnavailable, "analyzer response is not valid JSON")
	}
	if parsed.Error != nil {
		return nil, errors.New(errors.ServerError, parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		c.logger.Debug("analyzer returned no choices")
		return nil, nil
	}

	issues := ExtractIssues(parsed.Choices[0].Message.Content)
	c.logger.Debug("analyzer response parsed", "issues", len(issues))
	return issues, nil
}

// buildPrompt lays out the diff and context bundle the way the system
// prompt describes them.
func buildPrompt(diffText string, contextFiles []review.ContextFile) string {
	var b strings.Builder
	b.WriteString("Review the following staged diff.\n\n## Diff\n```diff\n")
	b.WriteString(diffText)
	if !strings.HasSuffix(diffText, "\n") {
		b.WriteByte('\n')
	}
	b.WriteString("```\n")
	if len(contextFiles) > 0 {
		b.WriteString("\n## Related files\n")
		for _, file := range contextFiles {
			b.WriteString("\n### ")
			b.WriteString(file.Path)
			b.WriteString("\n```\n")
			b.WriteString(file.Content)
			if !strings.HasSuffix(file.Content, "\n") {
				b.WriteByte('\n')
			}
			b.WriteString("```\n")
		}
	}
	return b.String()
}

// readBody decompresses gzip responses. Setting Accept-Encoding by hand
// disables the transport's automatic decoding, so it happens here.
func readBody(resp *http.Response) ([]byte, error) {
	reader := io.Reader(resp.Body)
	if strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to open gzip reader: %w", err)
		}
		defer gz.Close()
		reader = gz
	}
	return io.ReadAll(io.LimitReader(reader, maxResponseBytes))
}

// classifyStatus maps HTTP failure statuses onto the error taxonomy.
func classifyStatus(status int, body []byte) error {
	if status >= 200 && status < 300 {
		return nil
	}
	detail := apiErrorDetail(body)
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return errors.New(errors.Unauthorized, detail)
	case status == http.StatusTooManyRequests:
		return errors.New(errors.RateLimited, detail)
	case status >= 500:
		return errors.New(errors.ServerError, detail)
	default:
		return errors.New(errors.AnalyzerUnavailable, fmt.Sprintf("analyzer returned %d: %s", status, detail))
	}
}

// apiErrorDetail pulls the server's message out of an error body when
// one is present, falling back to the raw text.
func apiErrorDetail(body []byte) string {
	var parsed struct {
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error != nil && parsed.Error.Message != "" {
		return parsed.Error.Message
	}
	detail := strings.TrimSpace(string(body))
	if len(detail) > 300 {
		detail = detail[:300]
	}
	if detail == "" {
		detail = "analyzer request failed"
	}
	return detail
}
