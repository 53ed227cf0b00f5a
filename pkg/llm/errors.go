package llm

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType classifies chat backend failures.
type ErrorType string

const (
	ErrorTypeAuth     ErrorType = "auth"
	ErrorTypeEndpoint ErrorType = "endpoint"
	ErrorTypeModel    ErrorType = "model"
	ErrorTypeParse    ErrorType = "parse"
	ErrorTypeUnknown  ErrorType = "unknown"
)

// Error is a classified chat backend failure carrying retryability.
type Error struct {
	Type      ErrorType
	Message   string
	Retryable bool
	Cause     error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// IsRetryable reports whether the failure is transient.
func (e *Error) IsRetryable() bool { return e.Retryable }

// NewError creates a classified error.
func NewError(t ErrorType, message string, retryable bool, cause error) *Error {
	return &Error{Type: t, Message: message, Retryable: retryable, Cause: cause}
}

// classify wraps a raw transport error, pattern-matching HTTP status hints
// the SDKs embed in their error strings.
func classify(err error) *Error {
	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "401") || strings.Contains(msg, "authentication"):
		return NewError(ErrorTypeAuth, "authentication failed", false, err)
	case strings.Contains(msg, "404") || strings.Contains(msg, "model"):
		return NewError(ErrorTypeModel, "model not available", false, err)
	case strings.Contains(msg, "429") || strings.Contains(msg, "rate limit"):
		return NewError(ErrorTypeUnknown, "rate limited", true, err)
	case strings.Contains(msg, "500") || strings.Contains(msg, "502") ||
		strings.Contains(msg, "503") || strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "connection"):
		return NewError(ErrorTypeEndpoint, "endpoint error", true, err)
	default:
		return NewError(ErrorTypeUnknown, "chat request failed", false, err)
	}
}
