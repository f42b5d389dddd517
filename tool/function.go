package tool

import (
	"context"
	"time"

	"github.com/hupe1980/agentflow/internal/util"
)

// Handler is the function signature wrapped by FunctionTool.
type Handler func(ctx context.Context, args map[string]any) (any, error)

// FunctionTool adapts a plain function into a Tool. Arguments are validated
// against the JSON schema before the handler runs; validation failures are
// returned as ToolError with CodeValidationError.
type FunctionTool struct {
	name        string
	description string
	parameters  map[string]any
	handler     Handler
}

// NewFunctionTool creates a tool from a handler and an explicit JSON schema.
func NewFunctionTool(name, description string, parameters map[string]any, handler Handler) *FunctionTool {
	if parameters == nil {
		parameters = map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		}
	}
	return &FunctionTool{
		name:        name,
		description: description,
		parameters:  parameters,
		handler:     handler,
	}
}

// NewFunctionToolFromStruct creates a tool whose schema is derived from a
// parameter struct via reflection (json and description tags).
func NewFunctionToolFromStruct(name, description string, paramStruct any, handler Handler) *FunctionTool {
	return NewFunctionTool(name, description, util.CreateSchema(paramStruct), handler)
}

// Name implements Tool.
func (t *FunctionTool) Name() string { return t.name }

// Description implements Tool.
func (t *FunctionTool) Description() string { return t.description }

// Parameters implements Tool.
func (t *FunctionTool) Parameters() map[string]any { return t.parameters }

// Execute validates args against the schema and invokes the handler. Handler
// errors become error results rather than Go errors so the model can react
// to them.
func (t *FunctionTool) Execute(ctx context.Context, args map[string]any) (*Result, error) {
	start := time.Now()

	if err := util.ValidateParameters(args, t.parameters); err != nil {
		return nil, NewToolError(t.name, err.Error(), CodeValidationError)
	}

	output, err := t.handler(ctx, args)
	duration := time.Since(start)
	if err != nil {
		return NewErrorResult(err.Error(), duration), nil
	}
	if output == nil {
		return NewNoDataResult("tool completed with no output", duration), nil
	}
	return NewResult(output, duration), nil
}
