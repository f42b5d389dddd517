// Package history provides pluggable chat history management strategies.
// A Manager decides when a workflow's chat history has grown too large and
// how to shrink it. All strategies are deterministic: the same history
// always prunes to the same result, which keeps workflow runs reproducible.
package history

import (
	"github.com/hupe1980/agentflow/core"
)

// Token estimation constants. The estimate is intentionally cheap and
// deterministic rather than tokenizer-accurate.
const (
	charsPerToken     = 4
	roleTokenOverhead = 1
	toolCallOverhead  = 20
)

// Manager decides when and how to prune a chat history.
type Manager interface {
	// ShouldPrune reports whether the history at the given token count
	// needs pruning.
	ShouldPrune(history []core.Message, currentTokens int) bool

	// Prune returns the reduced history and its new token estimate.
	// The input slice is never mutated.
	Prune(history []core.Message) ([]core.Message, int, error)

	// EstimateTokens returns the deterministic token estimate for a history.
	EstimateTokens(history []core.Message) int

	// Name identifies the strategy for logging and diagnostics.
	Name() string
}

// EstimateMessageTokens estimates tokens for a single message:
// len(content)/4 plus one token of role overhead plus 20 per tool call.
func EstimateMessageTokens(msg core.Message) int {
	tokens := len(msg.Content)/charsPerToken + roleTokenOverhead
	tokens += len(msg.ToolCalls) * toolCallOverhead
	return tokens
}

// EstimateTokens sums EstimateMessageTokens over a history.
func EstimateTokens(history []core.Message) int {
	total := 0
	for _, msg := range history {
		total += EstimateMessageTokens(msg)
	}
	return total
}

// NoOpManager never prunes. Useful for short workflows and as the default
// when no strategy is configured.
type NoOpManager struct{}

// NewNoOpManager creates a manager that never prunes.
func NewNoOpManager() *NoOpManager { return &NoOpManager{} }

// ShouldPrune always returns false.
func (m *NoOpManager) ShouldPrune(history []core.Message, currentTokens int) bool { return false }

// Prune returns the history unchanged.
func (m *NoOpManager) Prune(history []core.Message) ([]core.Message, int, error) {
	out := core.CopyMessages(history)
	return out, EstimateTokens(out), nil
}

// EstimateTokens implements Manager.
func (m *NoOpManager) EstimateTokens(history []core.Message) int { return EstimateTokens(history) }

// Name implements Manager.
func (m *NoOpManager) Name() string { return "noop" }

// splitSystemPrefix separates the leading run of system messages from the
// rest of the history. Strategies that preserve system instructions operate
// on the remainder only.
func splitSystemPrefix(history []core.Message) (prefix, rest []core.Message) {
	i := 0
	for i < len(history) && history[i].Role == core.RoleSystem {
		i++
	}
	return history[:i], history[i:]
}
