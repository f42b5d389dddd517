package history

import (
	"github.com/hupe1980/agentflow/core"
)

// MessageTypeManager prunes by message priority in strict tier order:
// system messages are never pruned, the most recent user/assistant pairs are
// protected, tool messages go first (oldest first), then unprotected
// user/assistant messages (oldest first). A lower tier is only touched once
// the higher tier is exhausted.
type MessageTypeManager struct {
	maxMessages     int
	keepRecentPairs int
}

// MessageTypeOptions configure a MessageTypeManager.
type MessageTypeOptions struct {
	// KeepRecentPairs is the number of trailing user/assistant exchanges
	// that are protected from pruning.
	KeepRecentPairs int
}

// NewMessageTypeManager creates a manager keeping at most maxMessages
// messages in total.
func NewMessageTypeManager(maxMessages int, optFns ...func(o *MessageTypeOptions)) *MessageTypeManager {
	opts := MessageTypeOptions{KeepRecentPairs: 2}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &MessageTypeManager{
		maxMessages:     maxMessages,
		keepRecentPairs: opts.KeepRecentPairs,
	}
}

// ShouldPrune implements Manager.
func (m *MessageTypeManager) ShouldPrune(history []core.Message, currentTokens int) bool {
	return len(history) > m.maxMessages
}

// Prune removes messages tier by tier until the history fits maxMessages.
func (m *MessageTypeManager) Prune(history []core.Message) ([]core.Message, int, error) {
	if len(history) <= m.maxMessages {
		out := core.CopyMessages(history)
		return out, EstimateTokens(out), nil
	}

	protected := m.protectedIndexes(history)
	drop := make(map[int]bool)
	remaining := len(history) - m.maxMessages

	// Tier one: tool messages, oldest first.
	for i := 0; i < len(history) && remaining > 0; i++ {
		if history[i].Role == core.RoleTool && !protected[i] {
			drop[i] = true
			remaining--
		}
	}

	// Tier two: unprotected user/assistant messages, oldest first.
	for i := 0; i < len(history) && remaining > 0; i++ {
		role := history[i].Role
		if (role == core.RoleUser || role == core.RoleAssistant) && !protected[i] && !drop[i] {
			drop[i] = true
			remaining--
		}
	}

	out := make([]core.Message, 0, m.maxMessages)
	for i, msg := range history {
		if !drop[i] {
			out = append(out, msg)
		}
	}
	out = core.CopyMessages(out)
	return out, EstimateTokens(out), nil
}

// protectedIndexes marks system messages and the trailing keepRecentPairs
// user/assistant exchanges as untouchable.
func (m *MessageTypeManager) protectedIndexes(history []core.Message) map[int]bool {
	protected := make(map[int]bool)
	for i, msg := range history {
		if msg.Role == core.RoleSystem {
			protected[i] = true
		}
	}

	pairs := 0
	for i := len(history) - 1; i >= 0 && pairs < m.keepRecentPairs; i-- {
		role := history[i].Role
		if role == core.RoleUser || role == core.RoleAssistant {
			protected[i] = true
			if role == core.RoleUser {
				pairs++
			}
		}
	}
	return protected
}

// EstimateTokens implements Manager.
func (m *MessageTypeManager) EstimateTokens(history []core.Message) int {
	return EstimateTokens(history)
}

// Name implements Manager.
func (m *MessageTypeManager) Name() string { return "message_type_priority" }
