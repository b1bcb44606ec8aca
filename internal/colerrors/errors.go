// Package colerrors defines the error kinds raised by the columnar storage core.
// Every failure is one of three codes; callers match them with errors.Is against
// the exported sentinels.
package colerrors

import (
	"errors"
	"fmt"
)

// Code identifies the kind of failure
type Code string

const (
	// CodeNotFound is raised when an id or value is absent from a dictionary
	CodeNotFound Code = "NOT_FOUND"
	// CodeStructural is raised when a trie, page set or shard violates its invariants
	CodeStructural Code = "STRUCTURAL_INVARIANT_VIOLATION"
	// CodeRangeOverlap is raised when a table shard intersects an existing shard
	CodeRangeOverlap Code = "RANGE_OVERLAP"
)

var (
	ErrNotFound     = &Error{Code: CodeNotFound, Message: "not found"}
	ErrStructural   = &Error{Code: CodeStructural, Message: "structural invariant violation"}
	ErrRangeOverlap = &Error{Code: CodeRangeOverlap, Message: "row range overlap"}
)

// Error is a coded error with optional structured details
type Error struct {
	Code    Code                   `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target carries the same code
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// WithDetail attaches a key/value detail and returns the error
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NotFound creates a NOT_FOUND error
func NotFound(format string, args ...interface{}) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// Structural creates a STRUCTURAL_INVARIANT_VIOLATION error
func Structural(format string, args ...interface{}) *Error {
	return &Error{Code: CodeStructural, Message: fmt.Sprintf(format, args...)}
}

// RangeOverlap creates a RANGE_OVERLAP error
func RangeOverlap(format string, args ...interface{}) *Error {
	return &Error{Code: CodeRangeOverlap, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps cause into a coded error. Returns nil for a nil cause.
func Wrap(cause error, code Code, message string) *Error {
	if cause == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Cause: cause}
}

// CodeOf returns the code of err, or "" when err is not a coded error
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
