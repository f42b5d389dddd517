package core

import (
	"encoding/json"
	"sync"
	"time"
)

// Defaults for WorkflowContext budgets.
const (
	DefaultMaxContextTokens = 128_000
	DefaultInputOutputRatio = 4.0
)

// ContextMetadata describes a workflow context for checkpointing and
// diagnostics.
type ContextMetadata struct {
	WorkflowID string    `json:"workflow_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"last_updated"`
	StepCount  int       `json:"step_count"`
}

// WorkflowContext is the chat history shared by all steps of a workflow,
// including nested sub-workflows (which receive the same pointer). All
// accessors take defensive copies; the lock is never held across blocking
// calls.
type WorkflowContext struct {
	mu               sync.RWMutex
	history          []Message
	maxContextTokens int
	inputOutputRatio float64
	meta             ContextMetadata
}

// WorkflowContextOptions configure a new WorkflowContext.
type WorkflowContextOptions struct {
	MaxContextTokens int
	InputOutputRatio float64
}

// NewWorkflowContext creates an empty context for the given workflow id.
func NewWorkflowContext(workflowID string, optFns ...func(o *WorkflowContextOptions)) *WorkflowContext {
	opts := WorkflowContextOptions{
		MaxContextTokens: DefaultMaxContextTokens,
		InputOutputRatio: DefaultInputOutputRatio,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	now := time.Now().UTC()

	return &WorkflowContext{
		maxContextTokens: opts.MaxContextTokens,
		inputOutputRatio: opts.InputOutputRatio,
		meta: ContextMetadata{
			WorkflowID: workflowID,
			CreatedAt:  now,
			UpdatedAt:  now,
		},
	}
}

// AppendMessage adds a single message to the history.
func (c *WorkflowContext) AppendMessage(msg Message) {
	c.AppendMessages(msg)
}

// AppendMessages adds messages to the history and bumps UpdatedAt.
func (c *WorkflowContext) AppendMessages(msgs ...Message) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.history = append(c.history, msgs...)
	c.meta.UpdatedAt = time.Now().UTC()
}

// SetHistory replaces the history wholesale, e.g. after pruning.
func (c *WorkflowContext) SetHistory(msgs []Message) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.history = CopyMessages(msgs)
	c.meta.UpdatedAt = time.Now().UTC()
}

// History returns a defensive copy of the chat history.
func (c *WorkflowContext) History() []Message {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return CopyMessages(c.history)
}

// Len returns the number of messages in the history.
func (c *WorkflowContext) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.history)
}

// RecordStep increments the step counter.
func (c *WorkflowContext) RecordStep() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.meta.StepCount++
	c.meta.UpdatedAt = time.Now().UTC()
}

// Metadata returns a snapshot of the context metadata.
func (c *WorkflowContext) Metadata() ContextMetadata {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.meta
}

// MaxContextTokens returns the total token budget.
func (c *WorkflowContext) MaxContextTokens() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.maxContextTokens
}

// InputOutputRatio returns the configured input-to-output token ratio.
func (c *WorkflowContext) InputOutputRatio() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.inputOutputRatio
}

// MaxInputTokens derives the input budget from the total budget and the
// input/output ratio: total * ratio / (ratio + 1). With the defaults
// (128000, 4.0) this reserves a fifth of the window for output.
func (c *WorkflowContext) MaxInputTokens() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return maxInputTokens(c.maxContextTokens, c.inputOutputRatio)
}

// MaxOutputTokens returns the remainder of the budget after input.
func (c *WorkflowContext) MaxOutputTokens() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.maxContextTokens - maxInputTokens(c.maxContextTokens, c.inputOutputRatio)
}

func maxInputTokens(total int, ratio float64) int {
	return int(float64(total) * ratio / (ratio + 1))
}

// Fork returns an independent copy of the context with a "-fork" suffixed
// workflow id. Mutations on the fork never touch the original.
func (c *WorkflowContext) Fork() *WorkflowContext {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := time.Now().UTC()

	return &WorkflowContext{
		history:          CopyMessages(c.history),
		maxContextTokens: c.maxContextTokens,
		inputOutputRatio: c.inputOutputRatio,
		meta: ContextMetadata{
			WorkflowID: c.meta.WorkflowID + "-fork",
			CreatedAt:  now,
			UpdatedAt:  now,
			StepCount:  c.meta.StepCount,
		},
	}
}

// contextSnapshot is the serialized form of a WorkflowContext.
type contextSnapshot struct {
	History          []Message       `json:"history"`
	MaxContextTokens int             `json:"max_context_tokens"`
	InputOutputRatio float64         `json:"input_output_ratio"`
	Metadata         ContextMetadata `json:"metadata"`
}

// MarshalJSON serializes a consistent snapshot of the context.
func (c *WorkflowContext) MarshalJSON() ([]byte, error) {
	c.mu.RLock()
	snap := contextSnapshot{
		History:          CopyMessages(c.history),
		MaxContextTokens: c.maxContextTokens,
		InputOutputRatio: c.inputOutputRatio,
		Metadata:         c.meta,
	}
	c.mu.RUnlock()

	return json.Marshal(snap)
}

// UnmarshalJSON restores a context from its snapshot form.
func (c *WorkflowContext) UnmarshalJSON(data []byte) error {
	var snap contextSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.history = snap.History
	c.maxContextTokens = snap.MaxContextTokens
	c.inputOutputRatio = snap.InputOutputRatio
	c.meta = snap.Metadata

	if c.maxContextTokens == 0 {
		c.maxContextTokens = DefaultMaxContextTokens
	}
	if c.inputOutputRatio == 0 {
		c.inputOutputRatio = DefaultInputOutputRatio
	}

	return nil
}
