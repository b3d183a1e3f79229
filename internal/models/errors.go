package models

import (
	"fmt"

	"go.temporal.io/sdk/temporal"
)

// ErrorType categorizes errors for appropriate handling
//
// Maps to: codex-rs/core/src/function_tool.rs error categorization
type ErrorType int

const (
	ErrorTypeTransient        ErrorType = iota // Network, timeout → Temporal retries
	ErrorTypeContextOverflow                   // Context window exceeded → ContinueAsNew
	ErrorTypeAPILimit                          // Rate limit → surface to user
	ErrorTypeToolFailure                       // Individual tool failed → continue workflow
	ErrorTypeFatal                             // Unrecoverable → stop workflow
)

// String returns the string representation of ErrorType
func (e ErrorType) String() string {
	switch e {
	case ErrorTypeTransient:
		return "Transient"
	case ErrorTypeContextOverflow:
		return "ContextOverflow"
	case ErrorTypeAPILimit:
		return "APILimit"
	case ErrorTypeToolFailure:
		return "ToolFailure"
	case ErrorTypeFatal:
		return "Fatal"
	default:
		return "Unknown"
	}
}

// ActivityError represents an error from a Temporal activity with categorization
//
// Maps to: codex-rs/core/src/function_tool.rs error handling
type ActivityError struct {
	Type      ErrorType              `json:"type"`
	Retryable bool                   `json:"retryable"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *ActivityError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// NewTransientError creates a retryable transient error
func NewTransientError(message string) *ActivityError {
	return &ActivityError{
		Type:      ErrorTypeTransient,
		Retryable: true,
		Message:   message,
	}
}

// NewContextOverflowError creates a context overflow error
func NewContextOverflowError(message string) *ActivityError {
	return &ActivityError{
		Type:      ErrorTypeContextOverflow,
		Retryable: false,
		Message:   message,
	}
}

// NewAPILimitError creates an API rate limit error
func NewAPILimitError(message string) *ActivityError {
	return &ActivityError{
		Type:      ErrorTypeAPILimit,
		Retryable: true,
		Message:   message,
	}
}

// NewToolFailureError creates a tool failure error
func NewToolFailureError(message string) *ActivityError {
	return &ActivityError{
		Type:      ErrorTypeToolFailure,
		Retryable: false,
		Message:   message,
	}
}

// NewFatalError creates a fatal error
func NewFatalError(message string) *ActivityError {
	return &ActivityError{
		Type:      ErrorTypeFatal,
		Retryable: false,
		Message:   message,
	}
}

// LLM error type strings, matched against temporal.ApplicationError.Type()
// after WrapActivityError round-trips through the Temporal activity boundary.
const (
	LLMErrTypeTransient       = "Transient"
	LLMErrTypeContextOverflow = "ContextOverflow"
	LLMErrTypeAPILimit        = "APILimit"
	LLMErrTypeFatal           = "Fatal"
)

// WrapActivityError converts an ActivityError raised inside an activity body
// into a temporal.ApplicationError, preserving Type (for workflow-side
// switch/case classification) and Retryable (so Temporal's retry policy
// knows whether to attempt the activity again).
func WrapActivityError(e *ActivityError) error {
	if e.Retryable {
		return temporal.NewApplicationError(e.Message, e.Type.String(), e.Details)
	}
	return temporal.NewApplicationErrorWithOptions(e.Message, e.Type.String(), temporal.ApplicationErrorOptions{
		NonRetryable: true,
		Details:      []interface{}{e.Details},
	})
}

// Tool error type strings, matched against temporal.ApplicationError.Type().
const (
	ToolErrTypeNotFound   = "ToolNotFound"
	ToolErrTypeTimeout    = "ToolTimeout"
	ToolErrTypeValidation = "ToolValidation"
)

// NewToolNotFoundError builds a non-retryable error for an unregistered tool
// name — retrying the same call_id against the same registry can never
// succeed.
func NewToolNotFoundError(toolName string) error {
	return temporal.NewApplicationErrorWithOptions(
		fmt.Sprintf("tool not found: %s", toolName),
		ToolErrTypeNotFound,
		temporal.ApplicationErrorOptions{NonRetryable: true},
	)
}

// NewToolTimeoutError builds a non-retryable error for a tool handler that
// exceeded its StartToCloseTimeout.
func NewToolTimeoutError(toolName string, cause error) error {
	return temporal.NewApplicationErrorWithOptions(
		fmt.Sprintf("tool %s timed out: %v", toolName, cause),
		ToolErrTypeTimeout,
		temporal.ApplicationErrorOptions{NonRetryable: true, Cause: cause},
	)
}

// NewToolValidationError builds a non-retryable error for a tool handler
// that rejected its arguments — the same arguments will fail identically on
// retry.
func NewToolValidationError(toolName string, cause error) error {
	return temporal.NewApplicationErrorWithOptions(
		fmt.Sprintf("tool %s rejected arguments: %v", toolName, cause),
		ToolErrTypeValidation,
		temporal.ApplicationErrorOptions{NonRetryable: true, Cause: cause},
	)
}
