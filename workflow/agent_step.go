package workflow

import (
	"context"
	"time"

	"github.com/hupe1980/agentflow/agent"
	"github.com/hupe1980/agentflow/logging"
)

// AgentStep runs an agent with the workflow's shared chat context. The
// agent reads the history accumulated by earlier steps, and its new
// messages are written back for later steps. After each run the configured
// history manager gets a chance to prune.
type AgentStep struct {
	name  string
	agent *agent.Agent
}

// NewAgentStep wraps an agent as a workflow step. The step name defaults to
// the agent's name.
func NewAgentStep(a *agent.Agent) *AgentStep {
	return &AgentStep{name: a.Name(), agent: a}
}

// Name implements Step.
func (s *AgentStep) Name() string { return s.name }

// Kind implements Step.
func (s *AgentStep) Kind() Kind { return KindAgent }

// Execute implements Step.
func (s *AgentStep) Execute(ctx context.Context, in StepInput, ec *ExecContext) (StepOutput, error) {
	start := time.Now()

	input := agent.Input{Data: in.Data}
	if ec.Context != nil {
		input.History = ec.Context.History()
	}

	out, err := s.agent.ExecuteWithEvents(ctx, input, ec.Emitter)
	if err != nil {
		return StepOutput{}, err
	}

	if ec.Context != nil {
		ec.Context.SetHistory(out.History)
		ec.Context.RecordStep()
		s.applyManager(ec)
	}

	return StepOutput{
		Data: out.Data,
		Metadata: map[string]any{
			"agent_name":        s.agent.Name(),
			"step_index":        ec.StepIndex,
			"execution_time_ms": time.Since(start).Milliseconds(),
			"tool_calls_count":  out.Metadata.ToolCalls,
		},
	}, nil
}

// applyManager prunes the shared history when the manager asks for it.
func (s *AgentStep) applyManager(ec *ExecContext) {
	if ec.Manager == nil {
		return
	}

	hist := ec.Context.History()
	tokens := ec.Manager.EstimateTokens(hist)
	if !ec.Manager.ShouldPrune(hist, tokens) {
		return
	}

	pruned, newTokens, err := ec.Manager.Prune(hist)
	if err != nil {
		logger(ec).Warn("history.prune.failed", "manager", ec.Manager.Name(), "error", err.Error())
		return
	}

	ec.Context.SetHistory(pruned)
	logger(ec).Debug("history.pruned",
		"manager", ec.Manager.Name(),
		"messages_before", len(hist),
		"messages_after", len(pruned),
		"tokens_before", tokens,
		"tokens_after", newTokens,
	)
}

func logger(ec *ExecContext) logging.Logger {
	if ec.Logger != nil {
		return ec.Logger
	}
	return logging.NoOpLogger{}
}
