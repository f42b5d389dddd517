package history

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentflow/core"
)

func TestEstimateMessageTokens(t *testing.T) {
	// 8 chars / 4 + 1 role token.
	assert.Equal(t, 3, EstimateMessageTokens(core.UserMessage("12345678")))

	// Empty content still costs the role token.
	assert.Equal(t, 1, EstimateMessageTokens(core.UserMessage("")))

	// Each tool call adds a flat 20 tokens.
	msg := core.Message{
		Role:      core.RoleAssistant,
		ToolCalls: []core.ToolCall{{Name: "a"}, {Name: "b"}},
	}
	assert.Equal(t, 41, EstimateMessageTokens(msg))
}

func TestEstimateTokensDeterministic(t *testing.T) {
	history := []core.Message{
		core.SystemMessage("be helpful"),
		core.UserMessage("what is 2+2?"),
		core.AssistantMessage("4"),
	}
	assert.Equal(t, EstimateTokens(history), EstimateTokens(history))
}

func TestNoOpManagerNeverPrunes(t *testing.T) {
	m := NewNoOpManager()
	history := []core.Message{core.UserMessage(strings.Repeat("x", 10_000))}

	assert.False(t, m.ShouldPrune(history, 1_000_000))

	pruned, tokens, err := m.Prune(history)
	require.NoError(t, err)
	assert.Len(t, pruned, 1)
	assert.Equal(t, EstimateTokens(history), tokens)
	assert.Equal(t, "noop", m.Name())
}

func TestTokenBudgetDerivedBudget(t *testing.T) {
	m := NewTokenBudgetManager(100_000, 4.0)
	assert.Equal(t, 80_000, m.MaxInputTokens())
	assert.Equal(t, 72_000, m.PruneThreshold()) // 10% safety buffer

	zero := NewTokenBudgetManager(100_000, 4.0, func(o *TokenBudgetOptions) { o.SafetyBuffer = 0 })
	assert.Equal(t, 80_000, zero.PruneThreshold())
}

func TestTokenBudgetShouldPruneBoundary(t *testing.T) {
	m := NewTokenBudgetManager(1_000, 1.0, func(o *TokenBudgetOptions) { o.SafetyBuffer = 0 })
	// Input budget = 500; exactly at budget is fine, one over is not.
	assert.False(t, m.ShouldPrune(nil, 500))
	assert.True(t, m.ShouldPrune(nil, 501))
}

func TestTokenBudgetPruneDropsOldestNonSystem(t *testing.T) {
	m := NewTokenBudgetManager(200, 1.0, func(o *TokenBudgetOptions) {
		o.SafetyBuffer = 0
		o.MinMessages = 2
	})
	// Budget 100 tokens. Each message below is roughly 51 tokens.
	payload := strings.Repeat("x", 196)
	history := []core.Message{
		core.SystemMessage("keep me"),
		core.UserMessage("oldest " + payload),
		core.AssistantMessage("old " + payload),
		core.UserMessage("recent " + payload),
		core.AssistantMessage("newest " + payload),
	}

	pruned, tokens, err := m.Prune(history)
	require.NoError(t, err)

	assert.Equal(t, core.RoleSystem, pruned[0].Role, "system prefix must survive")
	assert.LessOrEqual(t, tokens, 100)
	// Oldest non-system messages go first.
	for _, msg := range pruned {
		assert.NotContains(t, msg.Content, "oldest")
	}
	assert.Equal(t, "newest "+payload, pruned[len(pruned)-1].Content)
}

func TestTokenBudgetPruneRespectsMinMessages(t *testing.T) {
	m := NewTokenBudgetManager(10, 1.0, func(o *TokenBudgetOptions) {
		o.SafetyBuffer = 0
		o.MinMessages = 3
	})
	history := []core.Message{
		core.UserMessage(strings.Repeat("a", 400)),
		core.AssistantMessage(strings.Repeat("b", 400)),
		core.UserMessage(strings.Repeat("c", 400)),
	}

	pruned, _, err := m.Prune(history)
	require.NoError(t, err)
	assert.Len(t, pruned, 3, "must not shrink below the message floor")
}

func TestSlidingWindowKeepsSystemAndTail(t *testing.T) {
	m := NewSlidingWindowManager(2)
	history := []core.Message{
		core.SystemMessage("instructions"),
		core.UserMessage("one"),
		core.AssistantMessage("two"),
		core.UserMessage("three"),
		core.AssistantMessage("four"),
	}

	assert.True(t, m.ShouldPrune(history, 0))

	pruned, _, err := m.Prune(history)
	require.NoError(t, err)
	require.Len(t, pruned, 3)
	assert.Equal(t, "instructions", pruned[0].Content)
	assert.Equal(t, "three", pruned[1].Content)
	assert.Equal(t, "four", pruned[2].Content)
}

func TestSlidingWindowUnderLimitUnchanged(t *testing.T) {
	m := NewSlidingWindowManager(10)
	history := []core.Message{core.UserMessage("hi")}

	assert.False(t, m.ShouldPrune(history, 0))
	pruned, _, err := m.Prune(history)
	require.NoError(t, err)
	assert.Equal(t, history, pruned)
}

func TestMessageTypePrunesToolTierFirst(t *testing.T) {
	m := NewMessageTypeManager(6, func(o *MessageTypeOptions) { o.KeepRecentPairs = 1 })
	history := []core.Message{
		core.SystemMessage("sys"),
		core.UserMessage("u1"),
		core.ToolMessage("c1", "tool result 1"),
		core.AssistantMessage("a1"),
		core.ToolMessage("c2", "tool result 2"),
		core.UserMessage("u2"),
		core.AssistantMessage("a2"),
	}

	assert.True(t, m.ShouldPrune(history, 0))
	pruned, _, err := m.Prune(history)
	require.NoError(t, err)
	require.Len(t, pruned, 6)

	// Oldest tool message is the only casualty.
	for _, msg := range pruned {
		assert.NotEqual(t, "tool result 1", msg.Content)
	}
	assert.Equal(t, "tool result 2", pruned[3].Content)
}

func TestMessageTypeExhaustsToolTierBeforeConversation(t *testing.T) {
	m := NewMessageTypeManager(4, func(o *MessageTypeOptions) { o.KeepRecentPairs = 1 })
	history := []core.Message{
		core.SystemMessage("sys"),
		core.UserMessage("old question"),
		core.AssistantMessage("old answer"),
		core.ToolMessage("c1", "tool result"),
		core.UserMessage("new question"),
		core.AssistantMessage("new answer"),
	}

	pruned, _, err := m.Prune(history)
	require.NoError(t, err)
	require.Len(t, pruned, 4)

	contents := make([]string, len(pruned))
	for i, msg := range pruned {
		contents[i] = msg.Content
	}
	// Tool message dropped first, then the oldest unprotected user message.
	assert.Equal(t, []string{"sys", "old answer", "new question", "new answer"}, contents)
}

func TestMessageTypeNeverDropsSystem(t *testing.T) {
	m := NewMessageTypeManager(2, func(o *MessageTypeOptions) { o.KeepRecentPairs = 0 })
	history := []core.Message{
		core.SystemMessage("s1"),
		core.SystemMessage("s2"),
		core.UserMessage("u"),
		core.AssistantMessage("a"),
	}

	pruned, _, err := m.Prune(history)
	require.NoError(t, err)
	for _, msg := range pruned[:2] {
		assert.Equal(t, core.RoleSystem, msg.Role)
	}
}

func TestSummarizationReplacesOldSegment(t *testing.T) {
	m := NewSummarizationManager(10_000, func(o *SummarizationOptions) { o.KeepRecent = 2 })
	history := []core.Message{
		core.SystemMessage("you are concise"),
		core.UserMessage("tell me about Go"),
		core.AssistantMessage("Go is a programming language."),
		core.ToolMessage("c1", "lookup result"),
		core.UserMessage("and generics?"),
		core.AssistantMessage("Added in 1.18."),
	}

	pruned, _, err := m.Prune(history)
	require.NoError(t, err)
	require.Len(t, pruned, 4)

	// System message from the old segment survives verbatim.
	assert.Equal(t, "you are concise", pruned[0].Content)

	// One summary message stands in for the summarized segment.
	assert.Contains(t, pruned[1].Content, "Summary of previous conversation:")
	assert.Contains(t, pruned[1].Content, "1 user messages")
	assert.Contains(t, pruned[1].Content, "1 assistant responses")
	assert.Contains(t, pruned[1].Content, "1 tool results")
	assert.Contains(t, pruned[1].Content, "tell me about Go")

	// Recent tail is untouched.
	assert.Equal(t, "and generics?", pruned[2].Content)
	assert.Equal(t, "Added in 1.18.", pruned[3].Content)
}

func TestSummarizationDeterministic(t *testing.T) {
	m := NewSummarizationManager(10_000)
	history := []core.Message{
		core.UserMessage("q1"), core.AssistantMessage("a1"),
		core.UserMessage("q2"), core.AssistantMessage("a2"),
		core.UserMessage("q3"), core.AssistantMessage("a3"),
	}

	first, _, err := m.Prune(history)
	require.NoError(t, err)
	second, _, err := m.Prune(history)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSummarizationEmergencyTruncation(t *testing.T) {
	m := NewSummarizationManager(60, func(o *SummarizationOptions) { o.KeepRecent = 3 })
	big := strings.Repeat("x", 200) // ~51 tokens each
	history := []core.Message{
		core.SystemMessage("keep"),
		core.UserMessage(big),
		core.AssistantMessage(big),
		core.UserMessage(big),
		core.AssistantMessage(big),
	}

	pruned, tokens, err := m.Prune(history)
	require.NoError(t, err)

	assert.LessOrEqual(t, tokens, 60)
	assert.Equal(t, core.RoleSystem, pruned[0].Role)
}

func TestSummarizationTopicSnippetRuneSafe(t *testing.T) {
	m := NewSummarizationManager(10_000, func(o *SummarizationOptions) { o.KeepRecent = 2 })

	// 81 bytes; a 60-byte cut would land inside a two-byte rune.
	topic := "x" + strings.Repeat("é", 40)
	history := []core.Message{
		core.UserMessage(topic),
		core.AssistantMessage("noted"),
		core.UserMessage("next"),
		core.AssistantMessage("ok"),
	}

	pruned, _, err := m.Prune(history)
	require.NoError(t, err)

	require.Contains(t, pruned[0].Content, "Topics discussed:")
	assert.True(t, utf8.ValidString(pruned[0].Content))
	assert.Contains(t, pruned[0].Content, "x"+strings.Repeat("é", 29)+"...")
}

func TestSummarizationShortHistoryUnchanged(t *testing.T) {
	m := NewSummarizationManager(1_000, func(o *SummarizationOptions) { o.KeepRecent = 10 })
	history := []core.Message{core.UserMessage("hi"), core.AssistantMessage("hello")}

	pruned, _, err := m.Prune(history)
	require.NoError(t, err)
	assert.Equal(t, history, pruned)
}
