package core

import (
	"strings"
	"testing"
)

func TestValidateComponentID(t *testing.T) {
	cases := []struct {
		name        string
		scope       Scope
		componentID string
		wantErr     bool
	}{
		{"workflow name", ScopeWorkflow, "data_pipeline", false},
		{"workflow empty", ScopeWorkflow, "", true},
		{"step valid", ScopeWorkflowStep, "data_pipeline:step:0", false},
		{"step multi digit", ScopeWorkflowStep, "data_pipeline:step:12", false},
		{"step missing index", ScopeWorkflowStep, "data_pipeline:step:", true},
		{"step non numeric", ScopeWorkflowStep, "data_pipeline:step:one", true},
		{"step bare name", ScopeWorkflowStep, "data_pipeline", true},
		{"agent name", ScopeAgent, "researcher", false},
		{"agent empty", ScopeAgent, "", true},
		{"llm valid", ScopeLlmRequest, "researcher:llm:1", false},
		{"llm non numeric", ScopeLlmRequest, "researcher:llm:x", true},
		{"llm bare name", ScopeLlmRequest, "researcher", true},
		{"tool bare name", ScopeTool, "calculator", false},
		{"tool with index", ScopeTool, "calculator:2", false},
		{"tool empty", ScopeTool, "", true},
		{"system valid", ScopeSystem, "system:loop-guard", false},
		{"system missing prefix", ScopeSystem, "loop-guard", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateComponentID(tc.scope, tc.componentID)
			if tc.wantErr && err == nil {
				t.Errorf("expected error for %q scope %q", tc.componentID, tc.scope)
			}
			if !tc.wantErr && err != nil {
				t.Errorf("unexpected error for %q scope %q: %v", tc.componentID, tc.scope, err)
			}
		})
	}
}

func TestNewEvent(t *testing.T) {
	ev, err := NewEvent(ScopeAgent, EventStarted, "researcher", StatusRunning, "wf-1")
	if err != nil {
		t.Fatalf("NewEvent failed: %v", err)
	}
	if !strings.HasPrefix(ev.ID, "evt_") {
		t.Errorf("expected evt_ prefixed id, got %q", ev.ID)
	}
	if ev.Timestamp.IsZero() {
		t.Error("expected timestamp to be set")
	}
	if ev.WorkflowID != "wf-1" {
		t.Errorf("expected workflow id wf-1, got %q", ev.WorkflowID)
	}

	if _, err := NewEvent(ScopeLlmRequest, EventStarted, "bad-id", StatusRunning, "wf-1"); err == nil {
		t.Error("expected construction error for invalid llm component id")
	}
}

func TestEventIsTerminal(t *testing.T) {
	terminal := []EventType{EventCompleted, EventFailed, EventCanceled}
	for _, typ := range terminal {
		ev := Event{Type: typ}
		if !ev.IsTerminal() {
			t.Errorf("expected %q to be terminal", typ)
		}
	}
	for _, typ := range []EventType{EventStarted, EventProgress} {
		ev := Event{Type: typ}
		if ev.IsTerminal() {
			t.Errorf("expected %q to be non-terminal", typ)
		}
	}
}
