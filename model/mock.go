package model

import (
	"context"
	"sync"

	"github.com/hupe1980/agentflow/core"
)

// MockModel is a scripted in-memory Model for tests and examples. Responses
// are consumed in FIFO order, one per Complete call; when the script runs
// out the last response repeats. Every request is recorded for inspection.
type MockModel struct {
	mu        sync.Mutex
	info      Info
	responses []Response
	errs      []error
	requests  []Request
	calls     int
}

// NewMockModel constructs a MockModel with tool support enabled.
func NewMockModel(name string) *MockModel {
	return &MockModel{
		info: Info{Name: name, Provider: "mock", SupportsTools: true},
	}
}

// EnqueueResponse appends a scripted response.
func (m *MockModel) EnqueueResponse(resp Response) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, resp)
	m.errs = append(m.errs, nil)
	return m
}

// EnqueueText appends a scripted plain-text final response.
func (m *MockModel) EnqueueText(content string) *MockModel {
	return m.EnqueueResponse(Response{Content: content, FinishReason: "stop"})
}

// EnqueueToolCall appends a scripted response requesting a single tool call.
func (m *MockModel) EnqueueToolCall(id, name, arguments string) *MockModel {
	return m.EnqueueResponse(Response{
		ToolCalls:    []core.ToolCall{{ID: id, Name: name, Arguments: arguments}},
		FinishReason: "tool_calls",
	})
}

// EnqueueError appends a scripted failure.
func (m *MockModel) EnqueueError(err error) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, Response{})
	m.errs = append(m.errs, err)
	return m
}

// Complete implements Model.
func (m *MockModel) Complete(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)

	idx := m.calls
	if idx >= len(m.responses) {
		idx = len(m.responses) - 1
	}
	m.calls++

	if idx < 0 {
		return &Response{Content: "mock response", FinishReason: "stop"}, nil
	}
	if err := m.errs[idx]; err != nil {
		return nil, err
	}

	resp := m.responses[idx]
	return &resp, nil
}

// CompleteStream implements StreamingModel by chunking the scripted content
// rune by rune before returning the final response.
func (m *MockModel) CompleteStream(ctx context.Context, req Request, onChunk func(chunk string)) (*Response, error) {
	resp, err := m.Complete(ctx, req)
	if err != nil {
		return nil, err
	}
	if onChunk != nil {
		for _, r := range resp.Content {
			onChunk(string(r))
		}
	}
	return resp, nil
}

// Requests returns a copy of all recorded requests.
func (m *MockModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// Calls returns the number of Complete calls made.
func (m *MockModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Info implements Model.
func (m *MockModel) Info() Info {
	return m.info
}
