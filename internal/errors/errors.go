// Package errors defines stable error codes for depwiki failure modes.
// Per-file parse failures carry a code but are recovered by the
// orchestrator (a failed file contributes an empty result and a counter);
// the other codes cover conditions that surface to callers.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes.
type ErrorCode string

const (
	// RootUnreadable indicates the repository root cannot be read at all
	RootUnreadable ErrorCode = "ROOT_UNREADABLE"
	// UnsupportedLanguage indicates no analyzer exists for a language
	UnsupportedLanguage ErrorCode = "UNSUPPORTED_LANGUAGE"
	// ParseFailed indicates a grammar parser could not process a file
	ParseFailed ErrorCode = "PARSE_FAILED"
	// FileLimitExceeded indicates the configured max-files cap was hit
	FileLimitExceeded ErrorCode = "FILE_LIMIT_EXCEEDED"
	// GraphPersistFailed indicates the dependency graph could not be written
	GraphPersistFailed ErrorCode = "GRAPH_PERSIST_FAILED"
	// StoreFailed indicates the run store could not be opened or written
	StoreFailed ErrorCode = "STORE_FAILED"
	// InternalError indicates an unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// Error is a depwiki error with a stable code and optional detail fields.
type Error struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped cause, if any.
func (e *Error) Unwrap() error {
	return e.cause
}

// New creates an error with the given code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates an error with the given code wrapping a cause.
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

// WithDetail attaches a detail field and returns the error for chaining.
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// CodeOf extracts the ErrorCode from err, or InternalError when err is not
// a depwiki error.
func CodeOf(err error) ErrorCode {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return InternalError
}
