package history

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/hupe1980/agentflow/core"
)

// SummarizationManager compresses the older part of a history into a single
// deterministic summary message. No model call is involved: the summary is
// a template over message counts and topics, so pruning stays reproducible.
// System messages in the summarized segment are preserved verbatim ahead of
// the summary. If the result still exceeds the budget, an emergency pass
// drops the oldest non-system messages until it fits.
type SummarizationManager struct {
	maxInputTokens int
	threshold      float64
	keepRecent     int
}

// SummarizationOptions configure a SummarizationManager.
type SummarizationOptions struct {
	// Threshold is the fraction of the input budget at which pruning
	// triggers.
	Threshold float64

	// KeepRecent is the number of trailing messages excluded from
	// summarization.
	KeepRecent int
}

// NewSummarizationManager creates a manager for the given input budget.
func NewSummarizationManager(maxInputTokens int, optFns ...func(o *SummarizationOptions)) *SummarizationManager {
	opts := SummarizationOptions{
		Threshold:  0.8,
		KeepRecent: 4,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &SummarizationManager{
		maxInputTokens: maxInputTokens,
		threshold:      opts.Threshold,
		keepRecent:     opts.KeepRecent,
	}
}

// ShouldPrune implements Manager.
func (m *SummarizationManager) ShouldPrune(history []core.Message, currentTokens int) bool {
	return float64(currentTokens) > float64(m.maxInputTokens)*m.threshold
}

// Prune summarizes everything but the trailing keepRecent messages.
func (m *SummarizationManager) Prune(history []core.Message) ([]core.Message, int, error) {
	if len(history) <= m.keepRecent {
		out := core.CopyMessages(history)
		return out, EstimateTokens(out), nil
	}

	cut := len(history) - m.keepRecent
	old, recent := history[:cut], history[cut:]

	var preserved []core.Message
	var summarized []core.Message
	for _, msg := range old {
		if msg.Role == core.RoleSystem {
			preserved = append(preserved, msg)
		} else {
			summarized = append(summarized, msg)
		}
	}

	out := core.CopyMessages(preserved)
	if len(summarized) > 0 {
		out = append(out, core.SystemMessage(summarize(summarized)))
	}
	out = append(out, core.CopyMessages(recent)...)

	out = m.emergencyTruncate(out)
	return out, EstimateTokens(out), nil
}

// summarize renders the deterministic summary template for a segment.
func summarize(segment []core.Message) string {
	var users, assistants, tools int
	var topics []string
	for _, msg := range segment {
		switch msg.Role {
		case core.RoleUser:
			users++
			if len(topics) < 3 && msg.Content != "" {
				topics = append(topics, snippet(msg.Content, 60))
			}
		case core.RoleAssistant:
			assistants++
		case core.RoleTool:
			tools++
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Summary of previous conversation: %d user messages, %d assistant responses and %d tool results were exchanged.", users, assistants, tools)
	if len(topics) > 0 {
		fmt.Fprintf(&b, " Topics discussed: %s.", strings.Join(topics, "; "))
	}
	return b.String()
}

// snippet truncates to at most max bytes, backing up to a rune boundary so
// multi-byte characters are never split.
func snippet(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

// emergencyTruncate drops the oldest non-system messages until the history
// fits the input budget. A history of only system messages is returned as
// is even when over budget.
func (m *SummarizationManager) emergencyTruncate(history []core.Message) []core.Message {
	for EstimateTokens(history) > m.maxInputTokens {
		dropped := false
		for i, msg := range history {
			if msg.Role != core.RoleSystem {
				history = append(history[:i], history[i+1:]...)
				dropped = true
				break
			}
		}
		if !dropped {
			break
		}
	}
	return history
}

// EstimateTokens implements Manager.
func (m *SummarizationManager) EstimateTokens(history []core.Message) int {
	return EstimateTokens(history)
}

// Name implements Manager.
func (m *SummarizationManager) Name() string { return "summarization" }
