// Package testutil provides fluent helpers for constructing chat histories
// and events in tests.
package testutil

import (
	"fmt"

	"github.com/hupe1980/agentflow/core"
)

// HistoryBuilder assembles chat histories for tests.
// Example:
//
//	h := NewHistoryBuilder().System("be brief").User("hi").Assistant("hello").Build()
//
// Chain only the parts you need.
type HistoryBuilder struct {
	messages []core.Message
}

// NewHistoryBuilder creates an empty builder.
func NewHistoryBuilder() *HistoryBuilder { return &HistoryBuilder{} }

// System appends a system message (chainable).
func (b *HistoryBuilder) System(content string) *HistoryBuilder {
	b.messages = append(b.messages, core.SystemMessage(content))
	return b
}

// User appends a user message (chainable).
func (b *HistoryBuilder) User(content string) *HistoryBuilder {
	b.messages = append(b.messages, core.UserMessage(content))
	return b
}

// Assistant appends an assistant message (chainable).
func (b *HistoryBuilder) Assistant(content string) *HistoryBuilder {
	b.messages = append(b.messages, core.AssistantMessage(content))
	return b
}

// ToolCall appends an assistant message carrying a single tool call
// (chainable).
func (b *HistoryBuilder) ToolCall(id, name, arguments string) *HistoryBuilder {
	b.messages = append(b.messages, core.Message{
		Role:      core.RoleAssistant,
		ToolCalls: []core.ToolCall{{ID: id, Name: name, Arguments: arguments}},
	})
	return b
}

// ToolResult appends a tool result message (chainable).
func (b *HistoryBuilder) ToolResult(callID, content string) *HistoryBuilder {
	b.messages = append(b.messages, core.ToolMessage(callID, content))
	return b
}

// Exchanges appends n user/assistant pairs with numbered contents
// (chainable). Useful for pruning tests that need bulk.
func (b *HistoryBuilder) Exchanges(n int) *HistoryBuilder {
	for i := 0; i < n; i++ {
		b.User(fmt.Sprintf("question %d", i)).Assistant(fmt.Sprintf("answer %d", i))
	}
	return b
}

// Build returns the assembled history.
func (b *HistoryBuilder) Build() []core.Message {
	return core.CopyMessages(b.messages)
}

// CollectScope filters events by scope, preserving order.
func CollectScope(events []core.Event, scope core.Scope) []core.Event {
	var out []core.Event
	for _, ev := range events {
		if ev.Scope == scope {
			out = append(out, ev)
		}
	}
	return out
}

// TypesOf maps events to their types, preserving order.
func TypesOf(events []core.Event) []core.EventType {
	out := make([]core.EventType, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Type)
	}
	return out
}
