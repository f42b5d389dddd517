package checkpoint

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentflow/core"
)

func newTestContext(workflowID string) *core.WorkflowContext {
	wc := core.NewWorkflowContext(workflowID, func(o *core.WorkflowContextOptions) {
		o.MaxContextTokens = 64_000
		o.InputOutputRatio = 3.0
	})
	wc.AppendMessages(
		core.SystemMessage("be helpful"),
		core.UserMessage("hello"),
		core.AssistantMessage("hi there"),
	)
	wc.RecordStep()
	return wc
}

func TestInMemoryStoreRoundTrip(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, newTestContext("wf-1")))

	restored, err := store.Load(ctx, "wf-1")
	require.NoError(t, err)

	assert.Equal(t, "wf-1", restored.Metadata().WorkflowID)
	assert.Equal(t, 3, restored.Len())
	assert.Equal(t, 1, restored.Metadata().StepCount)
	assert.Equal(t, 64_000, restored.MaxContextTokens())
	assert.Equal(t, 3.0, restored.InputOutputRatio())
}

func TestInMemoryStoreLoadMissing(t *testing.T) {
	store := NewInMemoryStore()

	_, err := store.Load(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInMemoryStoreSaveReplaces(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	wc := newTestContext("wf-1")
	require.NoError(t, store.Save(ctx, wc))

	wc.AppendMessage(core.UserMessage("more"))
	require.NoError(t, store.Save(ctx, wc))

	restored, err := store.Load(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, 4, restored.Len())
}

func TestInMemoryStoreIsolation(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	wc := newTestContext("wf-1")
	require.NoError(t, store.Save(ctx, wc))

	// Mutating the live context must not change the stored snapshot.
	wc.AppendMessage(core.UserMessage("after save"))

	restored, err := store.Load(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, 3, restored.Len())
}

func TestInMemoryStoreDeleteAndList(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, newTestContext("wf-b")))
	require.NoError(t, store.Save(ctx, newTestContext("wf-a")))

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"wf-a", "wf-b"}, ids)

	require.NoError(t, store.Delete(ctx, "wf-a"))
	require.NoError(t, store.Delete(ctx, "wf-a"), "deleting a missing snapshot is not an error")

	ids, err = store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"wf-b"}, ids)
}
