package agentflow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentflow/agent"
	"github.com/hupe1980/agentflow/core"
	"github.com/hupe1980/agentflow/history"
	"github.com/hupe1980/agentflow/internal/testutil"
	"github.com/hupe1980/agentflow/model"
	"github.com/hupe1980/agentflow/workflow"
)

func TestFacadeEndToEnd(t *testing.T) {
	flow := New()

	wf := workflow.NewBuilder("pipeline").
		AddAgent(agent.New("writer", model.NewMockModel("m").EnqueueText("draft"))).
		AddTransform("finalize", func(s string) (string, error) { return s + "!", nil }).
		WithInput("topic").
		MustBuild()

	run, err := flow.Execute(context.Background(), wf)
	require.NoError(t, err)
	assert.Equal(t, workflow.StateCompleted, run.State)
	assert.Equal(t, "draft!", run.FinalOutput)

	wfEvents := testutil.CollectScope(flow.Bus().Events(), core.ScopeWorkflow)
	assert.Equal(t, []core.EventType{core.EventStarted, core.EventCompleted}, testutil.TypesOf(wfEvents))

	// The default in-memory checkpoint store saw the run.
	restored, err := flow.Checkpoints().Load(context.Background(), "pipeline")
	require.NoError(t, err)
	assert.Equal(t, 1, restored.Metadata().StepCount)
}

func TestFacadeSeededHistoryAndManager(t *testing.T) {
	flow := New()

	wc := core.NewWorkflowContext("seeded")
	wc.SetHistory(testutil.NewHistoryBuilder().
		System("stay factual").
		Exchanges(6).
		Build())

	wf := workflow.NewBuilder("seeded").
		AddAgent(agent.New("answerer", model.NewMockModel("m").EnqueueText("done"))).
		WithContext(wc).
		WithManager(history.NewSlidingWindowManager(4)).
		WithInput("go").
		MustBuild()

	_, err := flow.Execute(context.Background(), wf)
	require.NoError(t, err)

	hist := wc.History()
	require.Len(t, hist, 5, "system prefix plus sliding window of 4")
	assert.Equal(t, core.RoleSystem, hist[0].Role)
	assert.Equal(t, "done", hist[len(hist)-1].Content)
}

func TestFacadeReplay(t *testing.T) {
	flow := New()

	wf := workflow.NewBuilder("observed").
		AddTransform("t", func(s string) (string, error) { return s, nil }).
		MustBuild()

	_, err := flow.Execute(context.Background(), wf)
	require.NoError(t, err)

	replay, sub := flow.Replay(0)
	defer sub.Cancel()
	require.Len(t, replay, 4)

	// A second run arrives live on the subscription.
	wf2 := workflow.NewBuilder("observed-2").
		AddTransform("t", func(s string) (string, error) { return s, nil }).
		MustBuild()
	_, err = flow.Execute(context.Background(), wf2)
	require.NoError(t, err)

	var live []core.Event
	for len(live) < 4 {
		select {
		case ev := <-sub.Events():
			live = append(live, ev)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for live events")
		}
	}
	assert.Equal(t, uint64(4), live[0].Offset)
}
