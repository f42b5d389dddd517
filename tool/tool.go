// Package tool defines the tool abstraction agents use to act on the world:
// the Tool interface, structured results with a three-state status, a
// concurrent-safe registry and a schema-validated function adapter.
package tool

import (
	"context"
	"fmt"
	"time"
)

// Status reports how a tool execution went. SuccessNoData means the tool
// worked but produced nothing new, a hint to the model that retrying the
// same call is pointless.
type Status string

// Tool result statuses.
const (
	StatusSuccess       Status = "success"
	StatusSuccessNoData Status = "success_no_data"
	StatusError         Status = "error"
)

// Result is the structured outcome of a tool execution.
type Result struct {
	Output   any           `json:"output"`
	Status   Status        `json:"status"`
	Message  string        `json:"message,omitempty"`
	Duration time.Duration `json:"duration_ms"`
}

// NewResult creates a successful result.
func NewResult(output any, duration time.Duration) *Result {
	return &Result{Output: output, Status: StatusSuccess, Duration: duration}
}

// NewNoDataResult creates a success-without-data result carrying an
// explanatory message.
func NewNoDataResult(message string, duration time.Duration) *Result {
	return &Result{Status: StatusSuccessNoData, Message: message, Duration: duration}
}

// NewErrorResult creates a failed result.
func NewErrorResult(message string, duration time.Duration) *Result {
	return &Result{Status: StatusError, Message: message, Duration: duration}
}

// Text renders the result as text for insertion into a chat history.
func (r *Result) Text() string {
	switch r.Status {
	case StatusSuccess:
		return fmt.Sprintf("%v", r.Output)
	case StatusSuccessNoData:
		if r.Message != "" {
			return r.Message
		}
		return "no new data"
	default:
		return fmt.Sprintf("error: %s", r.Message)
	}
}

// Tool is the interface all agent tools implement. Parameters returns a JSON
// schema describing the argument object.
type Tool interface {
	Name() string
	Description() string
	Parameters() map[string]any
	Execute(ctx context.Context, args map[string]any) (*Result, error)
}

// Error codes for ToolError.
const (
	CodeValidationError = "VALIDATION_ERROR"
	CodeExecutionError  = "EXECUTION_ERROR"
)

// ToolError is a structured tool failure.
type ToolError struct {
	Tool    string `json:"tool"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e *ToolError) Error() string {
	return fmt.Sprintf("tool %s failed [%s]: %s", e.Tool, e.Code, e.Message)
}

// NewToolError creates a structured tool error.
func NewToolError(toolName, message, code string) *ToolError {
	return &ToolError{Tool: toolName, Message: message, Code: code}
}
