package engine

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentflow/agent"
	"github.com/hupe1980/agentflow/checkpoint"
	"github.com/hupe1980/agentflow/core"
	"github.com/hupe1980/agentflow/model"
	"github.com/hupe1980/agentflow/tool"
	"github.com/hupe1980/agentflow/workflow"
)

type scopeType struct {
	Scope core.Scope
	Type  core.EventType
}

func scopeTypes(events []core.Event) []scopeType {
	out := make([]scopeType, 0, len(events))
	for _, ev := range events {
		// Streaming progress noise is not part of lifecycle ordering.
		if ev.Type == core.EventProgress {
			continue
		}
		out = append(out, scopeType{ev.Scope, ev.Type})
	}
	return out
}

func newAgent(name, reply string) *agent.Agent {
	return agent.New(name, model.NewMockModel("mock-"+name).EnqueueText(reply))
}

func TestEngineThreeAgentLifecycle(t *testing.T) {
	eng := New()

	wf := workflow.NewBuilder("pipeline").
		AddAgent(newAgent("researcher", "research notes")).
		AddAgent(newAgent("writer", "draft text")).
		AddAgent(newAgent("editor", "final text")).
		WithInput("topic").
		MustBuild()

	run, err := eng.Execute(context.Background(), wf)
	require.NoError(t, err)

	assert.Equal(t, workflow.StateCompleted, run.State)
	assert.Equal(t, "final text", run.FinalOutput)
	require.Len(t, run.Steps, 3)
	assert.Equal(t, "topic", run.Steps[0].Input)
	assert.Equal(t, "research notes", run.Steps[1].Input)
	assert.Equal(t, "draft text", run.Steps[2].Input)

	perAgent := []scopeType{
		{core.ScopeWorkflowStep, core.EventStarted},
		{core.ScopeAgent, core.EventStarted},
		{core.ScopeLlmRequest, core.EventStarted},
		{core.ScopeLlmRequest, core.EventCompleted},
		{core.ScopeAgent, core.EventCompleted},
		{core.ScopeWorkflowStep, core.EventCompleted},
	}
	expected := []scopeType{{core.ScopeWorkflow, core.EventStarted}}
	for i := 0; i < 3; i++ {
		expected = append(expected, perAgent...)
	}
	expected = append(expected, scopeType{core.ScopeWorkflow, core.EventCompleted})

	assert.Equal(t, expected, scopeTypes(eng.Bus().Events()))

	for _, ev := range eng.Bus().Events() {
		assert.NotEqual(t, core.EventFailed, ev.Type)
		assert.Equal(t, "pipeline", ev.WorkflowID)
	}
}

func TestEngineStepComponentIDs(t *testing.T) {
	eng := New()

	wf := workflow.NewBuilder("wf").
		AddTransform("first", func(s string) (string, error) { return s, nil }).
		AddTransform("second", func(s string) (string, error) { return s, nil }).
		MustBuild()

	_, err := eng.Execute(context.Background(), wf)
	require.NoError(t, err)

	var stepIDs []string
	for _, ev := range eng.Bus().Events() {
		if ev.Scope == core.ScopeWorkflowStep && ev.Type == core.EventStarted {
			stepIDs = append(stepIDs, ev.ComponentID)
		}
	}
	assert.Equal(t, []string{"wf:step:0", "wf:step:1"}, stepIDs)
}

func TestEngineFailureAbortsRun(t *testing.T) {
	eng := New()

	var thirdRan bool
	wf := workflow.NewBuilder("failing").
		AddTransform("ok", func(s string) (string, error) { return s, nil }).
		AddTransform("boom", func(s string) (string, error) { return "", errors.New("exploded") }).
		AddTransform("never", func(s string) (string, error) { thirdRan = true; return s, nil }).
		MustBuild()

	run, err := eng.Execute(context.Background(), wf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step 1 (boom)")
	assert.Contains(t, err.Error(), "exploded")

	assert.Equal(t, workflow.StateFailed, run.State)
	assert.False(t, thirdRan, "steps after a failure must not run")
	require.Len(t, run.Steps, 1, "only the completed step is recorded")

	types := scopeTypes(eng.Bus().Events())
	assert.Contains(t, types, scopeType{core.ScopeWorkflowStep, core.EventFailed})
	assert.Equal(t, scopeType{core.ScopeWorkflow, core.EventFailed}, types[len(types)-1])
}

func TestEngineCancellationAtStepBoundary(t *testing.T) {
	eng := New()

	ctx, cancel := context.WithCancel(context.Background())

	wf := workflow.NewBuilder("cancelable").
		AddTransform("first", func(s string) (string, error) {
			cancel() // cancel mid-run; takes effect before the next step
			return s, nil
		}).
		AddTransform("second", func(s string) (string, error) { return s, nil }).
		MustBuild()

	run, err := eng.Execute(ctx, wf)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, workflow.StateCanceled, run.State)
	require.Len(t, run.Steps, 1)

	types := scopeTypes(eng.Bus().Events())
	assert.Equal(t, scopeType{core.ScopeWorkflow, core.EventCanceled}, types[len(types)-1])
}

func TestEngineSubWorkflow(t *testing.T) {
	eng := New()

	inner := workflow.NewBuilder("inner").
		AddAgent(newAgent("helper", "inner result")).
		MustBuild()

	outer := workflow.NewBuilder("outer").
		AddAgent(newAgent("starter", "outer start")).
		AddSubWorkflow(inner).
		AddTransform("wrap", func(s string) (string, error) { return "[" + s + "]", nil }).
		WithInput("go").
		MustBuild()

	run, err := eng.Execute(context.Background(), outer)
	require.NoError(t, err)
	assert.Equal(t, "[inner result]", run.FinalOutput)

	// Nested events share the bus and carry the parent workflow id.
	var innerEvents, outerEvents int
	for _, ev := range eng.Bus().Events() {
		switch ev.WorkflowID {
		case "inner":
			innerEvents++
			assert.Equal(t, "outer", ev.ParentWorkflowID)
		case "outer":
			outerEvents++
			assert.Empty(t, ev.ParentWorkflowID)
		}
	}
	assert.Greater(t, innerEvents, 0)
	assert.Greater(t, outerEvents, 0)

	// The nested run shares the parent's chat context.
	var contents []string
	for _, msg := range outer.Context.History() {
		contents = append(contents, msg.Content)
	}
	assert.Contains(t, contents, "outer start")
	assert.Contains(t, contents, "inner result")

	// The inner workflow value itself is untouched by the nested run.
	assert.NotSame(t, outer.Context, inner.Context)
	assert.Zero(t, inner.Context.Len())
	assert.Empty(t, inner.InitialInput)
}

func TestEngineSubWorkflowLeavesInnerReusable(t *testing.T) {
	inner := workflow.NewBuilder("inner").
		AddAgent(newAgent("helper", "inner result")).
		MustBuild()

	outer := workflow.NewBuilder("outer").
		AddSubWorkflow(inner).
		WithInput("go").
		MustBuild()

	_, err := New().Execute(context.Background(), outer)
	require.NoError(t, err)
	outerLen := outer.Context.Len()
	require.Greater(t, outerLen, 0)

	// A later standalone run of the inner workflow appends to its own
	// context, not the previous parent's.
	_, err = New().Execute(context.Background(), inner)
	require.NoError(t, err)

	assert.Equal(t, outerLen, outer.Context.Len())
	assert.Greater(t, inner.Context.Len(), 0)
}

func TestEngineSubWorkflowFailurePropagates(t *testing.T) {
	eng := New()

	inner := workflow.NewBuilder("inner").
		AddTransform("boom", func(s string) (string, error) { return "", errors.New("inner failure") }).
		MustBuild()

	outer := workflow.NewBuilder("outer").
		AddSubWorkflow(inner).
		MustBuild()

	run, err := eng.Execute(context.Background(), outer)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "inner failure")
	assert.Equal(t, workflow.StateFailed, run.State)

	// Both the inner and the outer workflow report failure.
	var failedWorkflows []string
	for _, ev := range eng.Bus().Events() {
		if ev.Scope == core.ScopeWorkflow && ev.Type == core.EventFailed {
			failedWorkflows = append(failedWorkflows, ev.WorkflowID)
		}
	}
	assert.Equal(t, []string{"inner", "outer"}, failedWorkflows)
}

func TestEngineToolAndGuardEvents(t *testing.T) {
	eng := New()

	var calls int
	echo := func(ctx context.Context, args map[string]any) (any, error) {
		calls++
		return "tool output", nil
	}

	reg := tool.MustRegistry(tool.NewFunctionTool("lookup", "test lookup", nil, echo))
	mock := model.NewMockModel("m").
		EnqueueToolCall("c1", "lookup", `{"q":"a"}`).
		EnqueueToolCall("c2", "lookup", `{"q":"a"}`).
		EnqueueText("final")

	a := agent.New("researcher", mock, func(o *agent.Options) { o.Tools = reg })

	wf := workflow.NewBuilder("guarded").AddAgent(a).WithInput("start").MustBuild()

	run, err := eng.Execute(context.Background(), wf)
	require.NoError(t, err)
	assert.Equal(t, "final", run.FinalOutput)
	assert.Equal(t, 1, calls)

	var sawToolCompleted, sawGuard bool
	for _, ev := range eng.Bus().Events() {
		if ev.Scope == core.ScopeTool && ev.Type == core.EventCompleted {
			sawToolCompleted = true
		}
		if ev.Scope == core.ScopeSystem {
			sawGuard = true
			assert.Equal(t, "guarded", ev.WorkflowID)
		}
	}
	assert.True(t, sawToolCompleted)
	assert.True(t, sawGuard)
}

func TestEngineCheckpointsAfterEachStep(t *testing.T) {
	store := checkpoint.NewInMemoryStore()
	eng := New(func(o *Options) { o.Checkpoints = store })

	wf := workflow.NewBuilder("durable").
		AddAgent(newAgent("one", "first")).
		AddAgent(newAgent("two", "second")).
		WithInput("go").
		MustBuild()

	_, err := eng.Execute(context.Background(), wf)
	require.NoError(t, err)

	restored, err := store.Load(context.Background(), "durable")
	require.NoError(t, err)
	assert.Equal(t, wf.Context.Len(), restored.Len())
	assert.Equal(t, 2, restored.Metadata().StepCount)
}

func TestEngineConcurrentWorkflowsShareBus(t *testing.T) {
	bus := core.NewBus()
	eng := New(func(o *Options) { o.Bus = bus })

	mk := func(name string) *workflow.Workflow {
		return workflow.NewBuilder(name).
			AddTransform("t", func(s string) (string, error) { return strings.ToUpper(s), nil }).
			WithInput(name).
			MustBuild()
	}

	done := make(chan error, 2)
	go func() { _, err := eng.Execute(context.Background(), mk("alpha")); done <- err }()
	go func() { _, err := eng.Execute(context.Background(), mk("beta")); done <- err }()

	require.NoError(t, <-done)
	require.NoError(t, <-done)

	byWorkflow := map[string]int{}
	for _, ev := range bus.Events() {
		byWorkflow[ev.WorkflowID]++
	}
	assert.Equal(t, 4, byWorkflow["alpha"], "started, step started/completed, completed")
	assert.Equal(t, 4, byWorkflow["beta"])
}
