package history

import (
	"github.com/hupe1980/agentflow/core"
)

// SlidingWindowManager keeps the leading system messages plus the last N
// non-system messages. Simple and predictable; token counts are only used
// to decide when pruning is worthwhile.
type SlidingWindowManager struct {
	maxMessages int
}

// NewSlidingWindowManager creates a manager keeping at most maxMessages
// non-system messages.
func NewSlidingWindowManager(maxMessages int) *SlidingWindowManager {
	return &SlidingWindowManager{maxMessages: maxMessages}
}

// ShouldPrune implements Manager. Token count is irrelevant for this
// strategy; only message count matters.
func (m *SlidingWindowManager) ShouldPrune(history []core.Message, currentTokens int) bool {
	_, rest := splitSystemPrefix(history)
	return len(rest) > m.maxMessages
}

// Prune keeps the system prefix and the last maxMessages other messages.
func (m *SlidingWindowManager) Prune(history []core.Message) ([]core.Message, int, error) {
	prefix, rest := splitSystemPrefix(history)

	if len(rest) > m.maxMessages {
		rest = rest[len(rest)-m.maxMessages:]
	}

	out := append(core.CopyMessages(prefix), core.CopyMessages(rest)...)
	return out, EstimateTokens(out), nil
}

// EstimateTokens implements Manager.
func (m *SlidingWindowManager) EstimateTokens(history []core.Message) int {
	return EstimateTokens(history)
}

// Name implements Manager.
func (m *SlidingWindowManager) Name() string { return "sliding_window" }
