// Package workflow defines workflows as ordered sequences of steps sharing
// a single chat context. Four step kinds exist: agent steps run an LLM tool
// loop, transform steps apply pure functions, conditional steps branch, and
// sub-workflow steps nest a whole workflow. Execution lives in the engine
// package.
package workflow

import (
	"context"

	"github.com/hupe1980/agentflow/core"
	"github.com/hupe1980/agentflow/history"
	"github.com/hupe1980/agentflow/logging"
)

// Kind identifies a step's behavior.
type Kind string

// Step kinds.
const (
	KindAgent       Kind = "agent"
	KindTransform   Kind = "transform"
	KindConditional Kind = "conditional"
	KindSubWorkflow Kind = "sub_workflow"
)

// StepInput carries data into a step. Each step receives the previous
// step's output data.
type StepInput struct {
	Data string
}

// StepOutput carries a step's result and descriptive metadata
// (agent name, execution time, tool call count and similar).
type StepOutput struct {
	Data     string
	Metadata map[string]any
}

// SubRunner executes a nested workflow. Implemented by engine.Engine;
// declared here to keep the step types free of an engine dependency.
type SubRunner interface {
	ExecuteSub(ctx context.Context, wf *Workflow, parent *ExecContext) (StepOutput, error)
}

// ExecContext is everything a step needs from its surrounding run: the
// event emitter, the shared chat context, the history manager, the runner
// for nested workflows and the step's position.
type ExecContext struct {
	Emitter   *core.Emitter
	Context   *core.WorkflowContext
	Manager   history.Manager
	Runner    SubRunner
	Logger    logging.Logger
	StepIndex int
}

// Step is one unit of work in a workflow.
type Step interface {
	Name() string
	Kind() Kind
	Execute(ctx context.Context, in StepInput, ec *ExecContext) (StepOutput, error)
}
