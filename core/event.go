// Package core provides the event model, the event bus and the shared
// workflow context that every other agentflow package builds on. Events are
// immutable once appended; the bus assigns offsets and fans them out to
// subscribers. The WorkflowContext carries the mutable chat history that
// workflow steps share.
package core

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Scope identifies which layer of the runtime produced an event.
type Scope string

// Event scopes.
const (
	ScopeWorkflow     Scope = "workflow"
	ScopeWorkflowStep Scope = "workflow_step"
	ScopeAgent        Scope = "agent"
	ScopeLlmRequest   Scope = "llm_request"
	ScopeTool         Scope = "tool"
	ScopeSystem       Scope = "system"
)

// EventType classifies the lifecycle moment an event describes.
type EventType string

// Event types.
const (
	EventStarted   EventType = "started"
	EventProgress  EventType = "progress"
	EventCompleted EventType = "completed"
	EventFailed    EventType = "failed"
	EventCanceled  EventType = "canceled"
)

// Status is the component status carried alongside the event type. It is
// redundant for terminal events but lets subscribers track component state
// without decoding the event type.
type Status string

// Component statuses.
const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCanceled  Status = "canceled"
)

// Event is a single entry in the workflow event log. Offset is assigned by
// the Bus on append; all other fields are set at construction time.
type Event struct {
	ID               string         `json:"id"`
	Offset           uint64         `json:"offset"`
	Timestamp        time.Time      `json:"timestamp"`
	Scope            Scope          `json:"scope"`
	Type             EventType      `json:"type"`
	ComponentID      string         `json:"component_id"`
	Status           Status         `json:"status"`
	WorkflowID       string         `json:"workflow_id"`
	ParentWorkflowID string         `json:"parent_workflow_id,omitempty"`
	Message          string         `json:"message,omitempty"`
	Data             map[string]any `json:"data,omitempty"`
}

var (
	stepComponentRe = regexp.MustCompile(`^.+:step:\d+$`)
	llmComponentRe  = regexp.MustCompile(`^.+:llm:\d+$`)
)

// ValidateComponentID checks a component id against the format required for
// the given scope. Workflow, agent and tool scopes only require a non-empty
// id; step and llm ids carry a numeric suffix; system ids are namespaced.
func ValidateComponentID(scope Scope, componentID string) error {
	if componentID == "" {
		return fmt.Errorf("component id must not be empty for scope %q", scope)
	}

	switch scope {
	case ScopeWorkflow, ScopeAgent, ScopeTool:
		return nil
	case ScopeWorkflowStep:
		if !stepComponentRe.MatchString(componentID) {
			return fmt.Errorf("workflow step component id %q must match name:step:N", componentID)
		}
	case ScopeLlmRequest:
		if !llmComponentRe.MatchString(componentID) {
			return fmt.Errorf("llm request component id %q must match agent:llm:N", componentID)
		}
	case ScopeSystem:
		if !strings.HasPrefix(componentID, "system:") {
			return fmt.Errorf("system component id %q must start with \"system:\"", componentID)
		}
	default:
		return fmt.Errorf("unknown event scope %q", scope)
	}

	return nil
}

// NewEvent constructs an event with a fresh id and timestamp. The component
// id is validated against the scope's format; an invalid id is a
// construction error, not a deferred append error.
func NewEvent(scope Scope, eventType EventType, componentID string, status Status, workflowID string) (Event, error) {
	if err := ValidateComponentID(scope, componentID); err != nil {
		return Event{}, err
	}

	return Event{
		ID:          "evt_" + uuid.NewString(),
		Timestamp:   time.Now().UTC(),
		Scope:       scope,
		Type:        eventType,
		ComponentID: componentID,
		Status:      status,
		WorkflowID:  workflowID,
	}, nil
}

// WithMessage returns a copy of the event carrying a human-readable message.
func (e Event) WithMessage(msg string) Event {
	e.Message = msg
	return e
}

// WithData returns a copy of the event carrying structured payload data.
func (e Event) WithData(data map[string]any) Event {
	e.Data = data
	return e
}

// IsTerminal reports whether the event describes a terminal state of its
// component.
func (e Event) IsTerminal() bool {
	switch e.Type {
	case EventCompleted, EventFailed, EventCanceled:
		return true
	default:
		return false
	}
}
