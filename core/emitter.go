package core

import "fmt"

// Emitter binds a Bus to a workflow so lifecycle events can be appended
// without repeating workflow identity on every call. A nil Emitter is valid
// and drops all events, which keeps event emission optional in components
// that can run standalone.
type Emitter struct {
	bus              *Bus
	workflowID       string
	parentWorkflowID string
}

// NewEmitter creates an emitter for a top-level workflow.
func NewEmitter(bus *Bus, workflowID string) *Emitter {
	return &Emitter{bus: bus, workflowID: workflowID}
}

// Child returns an emitter for a nested workflow sharing the same bus. All
// events emitted through it carry the parent workflow id.
func (e *Emitter) Child(workflowID string) *Emitter {
	return &Emitter{bus: e.bus, workflowID: workflowID, parentWorkflowID: e.workflowID}
}

// Bus returns the underlying bus.
func (e *Emitter) Bus() *Bus {
	if e == nil {
		return nil
	}
	return e.bus
}

// WorkflowID returns the workflow this emitter is bound to.
func (e *Emitter) WorkflowID() string {
	if e == nil {
		return ""
	}
	return e.workflowID
}

// ParentWorkflowID returns the parent workflow id for child emitters, or "".
func (e *Emitter) ParentWorkflowID() string {
	if e == nil {
		return ""
	}
	return e.parentWorkflowID
}

// emit constructs and appends an event. Construction errors are surfaced to
// the caller because an invalid component id is a programming error.
func (e *Emitter) emit(scope Scope, eventType EventType, componentID string, status Status, msg string, data map[string]any) error {
	if e == nil || e.bus == nil {
		return nil
	}

	ev, err := NewEvent(scope, eventType, componentID, status, e.workflowID)
	if err != nil {
		return err
	}
	ev.ParentWorkflowID = e.parentWorkflowID
	if msg != "" {
		ev = ev.WithMessage(msg)
	}
	if len(data) > 0 {
		ev = ev.WithData(data)
	}

	e.bus.Append(ev)
	return nil
}

// WorkflowStarted emits the workflow lifecycle start event.
func (e *Emitter) WorkflowStarted() error {
	return e.emit(ScopeWorkflow, EventStarted, e.workflowID, StatusRunning, "", nil)
}

// WorkflowCompleted emits the workflow completion event with the final output.
func (e *Emitter) WorkflowCompleted(output string) error {
	return e.emit(ScopeWorkflow, EventCompleted, e.workflowID, StatusCompleted, "", map[string]any{"output": output})
}

// WorkflowFailed emits the workflow failure event.
func (e *Emitter) WorkflowFailed(err error) error {
	return e.emit(ScopeWorkflow, EventFailed, e.workflowID, StatusFailed, err.Error(), nil)
}

// WorkflowCanceled emits the workflow cancellation event.
func (e *Emitter) WorkflowCanceled() error {
	return e.emit(ScopeWorkflow, EventCanceled, e.workflowID, StatusCanceled, "workflow canceled", nil)
}

func stepComponentID(workflowID string, index int) string {
	return fmt.Sprintf("%s:step:%d", workflowID, index)
}

// StepStarted emits the start event for step index (zero-based).
func (e *Emitter) StepStarted(index int, name string) error {
	return e.emit(ScopeWorkflowStep, EventStarted, stepComponentID(e.workflowID, index), StatusRunning, name, nil)
}

// StepCompleted emits the completion event for step index.
func (e *Emitter) StepCompleted(index int, name string, data map[string]any) error {
	return e.emit(ScopeWorkflowStep, EventCompleted, stepComponentID(e.workflowID, index), StatusCompleted, name, data)
}

// StepFailed emits the failure event for step index.
func (e *Emitter) StepFailed(index int, name string, err error) error {
	return e.emit(ScopeWorkflowStep, EventFailed, stepComponentID(e.workflowID, index), StatusFailed, fmt.Sprintf("%s: %s", name, err), nil)
}

// StepCanceled emits the cancellation event for step index.
func (e *Emitter) StepCanceled(index int, name string) error {
	return e.emit(ScopeWorkflowStep, EventCanceled, stepComponentID(e.workflowID, index), StatusCanceled, name, nil)
}

// AgentStarted emits the agent execution start event.
func (e *Emitter) AgentStarted(agentName string) error {
	return e.emit(ScopeAgent, EventStarted, agentName, StatusRunning, "", nil)
}

// AgentCompleted emits the agent completion event.
func (e *Emitter) AgentCompleted(agentName string, data map[string]any) error {
	return e.emit(ScopeAgent, EventCompleted, agentName, StatusCompleted, "", data)
}

// AgentFailed emits the agent failure event.
func (e *Emitter) AgentFailed(agentName string, err error) error {
	return e.emit(ScopeAgent, EventFailed, agentName, StatusFailed, err.Error(), nil)
}

// AgentCanceled emits the agent cancellation event.
func (e *Emitter) AgentCanceled(agentName string) error {
	return e.emit(ScopeAgent, EventCanceled, agentName, StatusCanceled, "agent canceled", nil)
}

func llmComponentID(agentName string, iteration int) string {
	return fmt.Sprintf("%s:llm:%d", agentName, iteration)
}

// LLMStarted emits the start of an LLM request for the given loop iteration.
func (e *Emitter) LLMStarted(agentName string, iteration int) error {
	return e.emit(ScopeLlmRequest, EventStarted, llmComponentID(agentName, iteration), StatusRunning, "", nil)
}

// LLMProgress emits one streamed chunk of an in-flight LLM request.
func (e *Emitter) LLMProgress(agentName string, iteration int, chunk string) error {
	return e.emit(ScopeLlmRequest, EventProgress, llmComponentID(agentName, iteration), StatusRunning, "", map[string]any{"chunk": chunk})
}

// LLMCompleted emits the completion of an LLM request.
func (e *Emitter) LLMCompleted(agentName string, iteration int, data map[string]any) error {
	return e.emit(ScopeLlmRequest, EventCompleted, llmComponentID(agentName, iteration), StatusCompleted, "", data)
}

// LLMFailed emits the failure of an LLM request.
func (e *Emitter) LLMFailed(agentName string, iteration int, err error) error {
	return e.emit(ScopeLlmRequest, EventFailed, llmComponentID(agentName, iteration), StatusFailed, err.Error(), nil)
}

// ToolStarted emits the start of a tool invocation.
func (e *Emitter) ToolStarted(toolName string) error {
	return e.emit(ScopeTool, EventStarted, toolName, StatusRunning, "", nil)
}

// ToolProgress emits intermediate progress for a long-running tool.
func (e *Emitter) ToolProgress(toolName string, percent float64) error {
	return e.emit(ScopeTool, EventProgress, toolName, StatusRunning, "", map[string]any{"percent": percent})
}

// ToolCompleted emits the completion of a tool invocation.
func (e *Emitter) ToolCompleted(toolName string, data map[string]any) error {
	return e.emit(ScopeTool, EventCompleted, toolName, StatusCompleted, "", data)
}

// ToolFailed emits the failure of a tool invocation.
func (e *Emitter) ToolFailed(toolName string, err error) error {
	return e.emit(ScopeTool, EventFailed, toolName, StatusFailed, err.Error(), nil)
}

// SystemProgress emits a system-scope progress event. The subsystem name is
// namespaced into the component id as "system:<subsystem>".
func (e *Emitter) SystemProgress(subsystem, msg string, data map[string]any) error {
	return e.emit(ScopeSystem, EventProgress, "system:"+subsystem, StatusRunning, msg, data)
}
