// Package model defines the provider-neutral LLM abstraction used by the
// agent loop. Providers implement Model (one request, one response); those
// that can stream implement StreamingModel as well and deliver chunks
// through a callback.
package model

import (
	"context"

	"github.com/hupe1980/agentflow/core"
)

// ToolDefinition describes a callable tool in a model request.
type ToolDefinition struct {
	Type     string             `json:"type"` // Always "function" for now
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition describes the function behind a tool definition.
type FunctionDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// TokenUsage reports token consumption for a single request.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Request is a provider-neutral completion request.
type Request struct {
	Messages    []core.Message   `json:"messages"`
	Tools       []ToolDefinition `json:"tools,omitempty"`
	Temperature float64          `json:"temperature,omitempty"`
	MaxTokens   int              `json:"max_tokens,omitempty"`
}

// Response is a provider-neutral completion response. ToolCalls is non-empty
// when the model requests tool executions instead of (or alongside) text.
type Response struct {
	Content      string          `json:"content"`
	ToolCalls    []core.ToolCall `json:"tool_calls,omitempty"`
	FinishReason string          `json:"finish_reason"`
	Usage        *TokenUsage     `json:"usage,omitempty"`
}

// Info describes a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"`
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the minimal interface the agent loop depends on.
type Model interface {
	// Complete performs one model turn.
	Complete(ctx context.Context, req Request) (*Response, error)

	// Info returns metadata describing the implementation.
	Info() Info
}

// StreamingModel is implemented by models that can stream. onChunk is called
// for each text delta before the final response is returned.
type StreamingModel interface {
	Model

	CompleteStream(ctx context.Context, req Request, onChunk func(chunk string)) (*Response, error)
}
