package remote

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"

	"github.com/preflight-ai/cli/internal/errors"
	"github.com/preflight-ai/cli/internal/review"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(Options{BaseURL: server.URL, APIKey: "test-key"}, nil)
}

// chatBody wraps analyzer content in a chat-completions response.
func chatBody(t *testing.T, content string) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"role": "assistant", "content": content}},
		},
	})
	if err != nil {
		t.Fatalf("marshal response: %v", err)
	}
	return body
}

func TestReview_Success(t *testing.T) {
	var gotRequest chatRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/chat/completions" {
			t.Errorf("expected /chat/completions, got %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("expected bearer auth, got %q", auth)
		}
		if enc := r.Header.Get("Accept-Encoding"); enc != "gzip" {
			t.Errorf("expected gzip accept-encoding, got %q", enc)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &gotRequest); err != nil {
			t.Errorf("request body not valid JSON: %v", err)
		}
		w.Write(chatBody(t, "```json\n"+
			`[{"file": "src/a.ts", "problem": "eval call", "severity": "critical", "line": 3}]`+
			"\n```"))
	})

	issues, err := client.Review(context.Background(), "+eval(input);", []review.ContextFile{
		{Path: "src/util.ts", Content: "export const util = 1;\n"},
	})
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if len(issues) != 1 {
		t.Fatalf("expected 1 issue, got %d", len(issues))
	}
	if issues[0].File != "src/a.ts" || issues[0].Severity != review.SeverityCritical || issues[0].Line != 3 {
		t.Errorf("unexpected issue: %+v", issues[0])
	}

	if gotRequest.Model != DefaultModel {
		t.Errorf("expected default model, got %q", gotRequest.Model)
	}
	if len(gotRequest.Messages) != 2 || gotRequest.Messages[0].Role != "system" || gotRequest.Messages[1].Role != "user" {
		t.Fatalf("expected system+user messages, got %+v", gotRequest.Messages)
	}
	prompt := gotRequest.Messages[1].Content
	if !strings.Contains(prompt, "+eval(input);") {
		t.Error("prompt missing diff text")
	}
	if !strings.Contains(prompt, "### src/util.ts") || !strings.Contains(prompt, "export const util = 1;") {
		t.Error("prompt missing context file")
	}
}

func TestReview_StatusMapping(t *testing.T) {
	testCases := []struct {
		status int
		want   errors.ErrorCode
	}{
		{http.StatusUnauthorized, errors.Unauthorized},
		{http.StatusForbidden, errors.Unauthorized},
		{http.StatusTooManyRequests, errors.RateLimited},
		{http.StatusInternalServerError, errors.ServerError},
		{http.StatusServiceUnavailable, errors.ServerError},
		{http.StatusTeapot, errors.AnalyzerUnavailable},
	}

	for _, tc := range testCases {
		t.Run(strconv.Itoa(tc.status), func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(`{"error": {"message": "nope"}}`))
			})
			_, err := client.Review(context.Background(), "+x", nil)
			if err == nil {
				t.Fatalf("expected error for status %d", tc.status)
			}
			if got := errors.CodeOf(err); got != tc.want {
				t.Errorf("status %d mapped to %q, want %q", tc.status, got, tc.want)
			}
		})
	}
}

func TestReview_GzipResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		gz.Write(chatBody(t, `[{"file": "a.ts", "problem": "var used"}]`))
		gz.Close()
	})

	issues, err := client.Review(context.Background(), "+var x = 1;", nil)
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if len(issues) != 1 || issues[0].Problem != "var used" {
		t.Errorf("expected decoded issue, got %+v", issues)
	}
}

func TestReview_NoAPIKey(t *testing.T) {
	client := NewClient(Options{BaseURL: "http://127.0.0.1:1"}, nil)

	_, err := client.Review(context.Background(), "+x", nil)
	if err == nil {
		t.Fatal("expected error without API key")
	}
	if got := errors.CodeOf(err); got != errors.Unauthorized {
		t.Errorf("expected UNAUTHORIZED, got %q", got)
	}
}

func TestReview_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewClient(Options{BaseURL: url, APIKey: "test-key"}, nil)
	_, err := client.Review(context.Background(), "+x", nil)
	if err == nil {
		t.Fatal("expected error for closed server")
	}
	if got := errors.CodeOf(err); got != errors.AnalyzerUnavailable {
		t.Errorf("expected ANALYZER_UNAVAILABLE, got %q", got)
	}
}

func TestReview_EmptyChoices(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": []}`))
	})

	issues, err := client.Review(context.Background(), "+x", nil)
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if len(issues) != 0 {
		t.Errorf("expected no issues, got %+v", issues)
	}
}

func TestReview_ProseContent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(chatBody(t, "The diff looks clean to me."))
	})

	issues, err := client.Review(context.Background(), "+x", nil)
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if len(issues) != 0 {
		t.Errorf("expected no issues from prose, got %+v", issues)
	}
}

func TestReview_InBodyError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error": {"message": "model overloaded"}}`))
	})

	_, err := client.Review(context.Background(), "+x", nil)
	if err == nil {
		t.Fatal("expected error for in-body API error")
	}
	if got := errors.CodeOf(err); got != errors.ServerError {
		t.Errorf("expected SERVER_ERROR, got %q", got)
	}
}
