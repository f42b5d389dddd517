package model

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies model errors so callers can decide whether a
// failure is worth surfacing differently (an auth failure will not fix
// itself, a network error might).
type ErrorCategory string

// Model error categories.
const (
	ErrorAuth           ErrorCategory = "auth"
	ErrorRateLimit      ErrorCategory = "rate_limit"
	ErrorNetwork        ErrorCategory = "network"
	ErrorInvalidRequest ErrorCategory = "invalid_request"
	ErrorParse          ErrorCategory = "parse"
)

// Error is a categorized model failure.
type Error struct {
	Category ErrorCategory
	Message  string
	Err      error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s", e.Category, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Category, e.Message)
}

// Unwrap returns the wrapped cause.
func (e *Error) Unwrap() error { return e.Err }

// NewError creates a categorized model error wrapping an optional cause.
func NewError(category ErrorCategory, message string, err error) *Error {
	return &Error{Category: category, Message: message, Err: err}
}

// CategoryOf extracts the category of an error, or "" if it is not a model
// error.
func CategoryOf(err error) ErrorCategory {
	var me *Error
	if errors.As(err, &me) {
		return me.Category
	}
	return ""
}
