// Package errors defines coded errors for preflight's failure modes,
// with suggested remediation actions the CLI can print.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// Unauthorized indicates the analyzer rejected the API key
	Unauthorized ErrorCode = "UNAUTHORIZED"
	// RateLimited indicates the analyzer throttled the request
	RateLimited ErrorCode = "RATE_LIMITED"
	// ServerError indicates the analyzer failed server-side
	ServerError ErrorCode = "SERVER_ERROR"
	// AnalyzerUnavailable indicates the analyzer could not be reached at all
	AnalyzerUnavailable ErrorCode = "ANALYZER_UNAVAILABLE"
	// ConfigInvalid indicates the configuration failed validation
	ConfigInvalid ErrorCode = "CONFIG_INVALID"
	// GitUnavailable indicates git is missing or the directory is not a repository
	GitUnavailable ErrorCode = "GIT_UNAVAILABLE"
	// PatchRejected indicates git apply refused a generated patch
	PatchRejected ErrorCode = "PATCH_REJECTED"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// FixAction represents a suggested fix for an error
type FixAction struct {
	Command     string `json:"command,omitempty"`
	Description string `json:"description,omitempty"`
	Safe        bool   `json:"safe,omitempty"`
}

// ReviewError represents a preflight error with code, message, and suggestions
type ReviewError struct {
	Code           ErrorCode      `json:"code"`
	Message        string         `json:"message"`
	Details        map[string]any `json:"details,omitempty"`
	SuggestedFixes []FixAction    `json:"suggestedFixes,omitempty"`
	cause          error
}

// New creates a new ReviewError with the default fixes for the code.
func New(code ErrorCode, message string) *ReviewError {
	return &ReviewError{
		Code:           code,
		Message:        message,
		SuggestedFixes: DefaultFixes(code),
	}
}

// Wrap creates a ReviewError wrapping an underlying cause.
func Wrap(cause error, code ErrorCode, message string) *ReviewError {
	e := New(code, message)
	e.cause = cause
	return e
}

// Error implements the error interface
func (e *ReviewError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *ReviewError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *ReviewError) WithDetails(details map[string]any) *ReviewError {
	e.Details = details
	return e
}

// CodeOf extracts the error code from err, or InternalError when err
// carries no code. A nil err has no code and yields "".
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var re *ReviewError
	if stderrors.As(err, &re) {
		return re.Code
	}
	return InternalError
}

// IsRecoverable reports whether the pipeline should fall back to the
// heuristic scanner instead of aborting. Everything the remote analyzer
// can throw is recoverable; local misconfiguration is not.
func IsRecoverable(err error) bool {
	switch CodeOf(err) {
	case Unauthorized, RateLimited, ServerError, AnalyzerUnavailable, InternalError:
		return true
	default:
		return false
	}
}

// ErrorActions maps error codes to suggested fix actions
var ErrorActions = map[ErrorCode][]FixAction{
	Unauthorized: {
		{
			Command:     "preflight config set-key <api-key>",
			Safe:        true,
			Description: "Store a valid API key for the remote analyzer",
		},
		{
			Command:     "preflight review --local-only",
			Safe:        true,
			Description: "Review with local heuristics only",
		},
	},
	RateLimited: {
		{
			Command:     "preflight review --local-only",
			Safe:        true,
			Description: "Skip the remote analyzer until the limit resets",
		},
	},
	AnalyzerUnavailable: {
		{
			Command:     "preflight config show",
			Safe:        true,
			Description: "Check the configured analyzer base URL",
		},
	},
	GitUnavailable: {
		{
			Command:     "git rev-parse --is-inside-work-tree",
			Safe:        true,
			Description: "Verify the current directory is a git repository",
		},
	},
	PatchRejected: {
		{
			Command:     "git apply --check <patch>",
			Safe:        true,
			Description: "Inspect why the generated patch does not apply",
		},
	},
}

// DefaultFixes returns suggested fixes for an error code
func DefaultFixes(code ErrorCode) []FixAction {
	if fixes, ok := ErrorActions[code]; ok {
		return fixes
	}
	return nil
}
