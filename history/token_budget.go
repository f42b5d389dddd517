package history

import (
	"github.com/hupe1980/agentflow/core"
)

// TokenBudgetManager prunes when the history approaches the input token
// budget. The input budget is derived from the total context size and the
// input/output ratio: total * ratio / (ratio + 1). Pruning starts before the
// budget is actually hit, at budget minus a safety buffer, and drops the
// oldest non-system messages first.
type TokenBudgetManager struct {
	maxContextTokens int
	inputOutputRatio float64
	safetyBuffer     float64
	minMessages      int
}

// TokenBudgetOptions configure a TokenBudgetManager.
type TokenBudgetOptions struct {
	// SafetyBuffer is the fraction of the input budget reserved as
	// headroom. Pruning triggers at budget * (1 - SafetyBuffer).
	SafetyBuffer float64

	// MinMessages is the floor below which pruning never shrinks the
	// history (system messages included).
	MinMessages int
}

// NewTokenBudgetManager creates a manager for the given total context size
// and input/output ratio.
func NewTokenBudgetManager(maxContextTokens int, inputOutputRatio float64, optFns ...func(o *TokenBudgetOptions)) *TokenBudgetManager {
	opts := TokenBudgetOptions{
		SafetyBuffer: 0.1,
		MinMessages:  3,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &TokenBudgetManager{
		maxContextTokens: maxContextTokens,
		inputOutputRatio: inputOutputRatio,
		safetyBuffer:     opts.SafetyBuffer,
		minMessages:      opts.MinMessages,
	}
}

// MaxInputTokens returns the derived input token budget.
func (m *TokenBudgetManager) MaxInputTokens() int {
	return int(float64(m.maxContextTokens) * m.inputOutputRatio / (m.inputOutputRatio + 1))
}

// PruneThreshold returns the token count at which pruning triggers.
func (m *TokenBudgetManager) PruneThreshold() int {
	budget := float64(m.MaxInputTokens())
	return int(budget * (1 - m.safetyBuffer))
}

// ShouldPrune implements Manager.
func (m *TokenBudgetManager) ShouldPrune(history []core.Message, currentTokens int) bool {
	return currentTokens > m.PruneThreshold()
}

// Prune drops the oldest non-system messages until the history fits under
// the prune threshold or the minimum message floor is reached. The leading
// system prefix is always preserved.
func (m *TokenBudgetManager) Prune(history []core.Message) ([]core.Message, int, error) {
	prefix, rest := splitSystemPrefix(history)
	threshold := m.PruneThreshold()

	kept := core.CopyMessages(rest)
	for len(prefix)+len(kept) > m.minMessages {
		if EstimateTokens(prefix)+EstimateTokens(kept) <= threshold {
			break
		}
		kept = kept[1:]
	}

	out := append(core.CopyMessages(prefix), kept...)
	return out, EstimateTokens(out), nil
}

// EstimateTokens implements Manager.
func (m *TokenBudgetManager) EstimateTokens(history []core.Message) int {
	return EstimateTokens(history)
}

// Name implements Manager.
func (m *TokenBudgetManager) Name() string { return "token_budget" }
