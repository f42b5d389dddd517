package workflow

import (
	"fmt"
	"time"

	"github.com/hupe1980/agentflow/agent"
	"github.com/hupe1980/agentflow/core"
	"github.com/hupe1980/agentflow/history"
)

// Workflow is an ordered list of steps sharing one chat context. The
// workflow id doubles as the workflow-scope component id in events, so it
// is the workflow name.
type Workflow struct {
	ID           string
	Name         string
	Steps        []Step
	Context      *core.WorkflowContext
	Manager      history.Manager
	InitialInput string
}

// State describes where a run is in its lifecycle.
type State string

// Run states.
const (
	StatePending   State = "pending"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
	StateCanceled  State = "canceled"
)

// StepRecord captures one executed step of a run.
type StepRecord struct {
	Index    int            `json:"step_index"`
	Name     string         `json:"step_name"`
	Kind     Kind           `json:"step_kind"`
	Input    string         `json:"input"`
	Output   string         `json:"output"`
	Metadata map[string]any `json:"metadata,omitempty"`
	Duration time.Duration  `json:"duration_ns"`
}

// Run is the record of one workflow execution.
type Run struct {
	WorkflowID       string       `json:"workflow_id"`
	ParentWorkflowID string       `json:"parent_workflow_id,omitempty"`
	State            State        `json:"state"`
	Steps            []StepRecord `json:"steps"`
	FinalOutput      string       `json:"final_output,omitempty"`
	Err              error        `json:"-"`
}

// Builder assembles a Workflow. Steps run in the order they are added.
type Builder struct {
	name    string
	steps   []Step
	context *core.WorkflowContext
	manager history.Manager
	input   string
}

// NewBuilder starts a workflow definition.
func NewBuilder(name string) *Builder {
	return &Builder{name: name}
}

// AddStep appends an arbitrary step.
func (b *Builder) AddStep(s Step) *Builder {
	b.steps = append(b.steps, s)
	return b
}

// AddAgent appends an agent step.
func (b *Builder) AddAgent(a *agent.Agent) *Builder {
	return b.AddStep(NewAgentStep(a))
}

// AddTransform appends a transform step.
func (b *Builder) AddTransform(name string, fn TransformFunc) *Builder {
	return b.AddStep(NewTransformStep(name, fn))
}

// AddConditional appends a conditional step.
func (b *Builder) AddConditional(name string, predicate Predicate, thenStep, elseStep Step) *Builder {
	return b.AddStep(NewConditionalStep(name, predicate, thenStep, elseStep))
}

// AddSubWorkflow appends a nested workflow step.
func (b *Builder) AddSubWorkflow(wf *Workflow) *Builder {
	return b.AddStep(NewSubWorkflowStep(wf))
}

// WithContext sets the shared chat context. Without it, Build creates a
// fresh one.
func (b *Builder) WithContext(ctx *core.WorkflowContext) *Builder {
	b.context = ctx
	return b
}

// WithManager sets the history management strategy.
func (b *Builder) WithManager(m history.Manager) *Builder {
	b.manager = m
	return b
}

// WithInput sets the initial input fed to the first step.
func (b *Builder) WithInput(input string) *Builder {
	b.input = input
	return b
}

// Build validates and produces the workflow.
func (b *Builder) Build() (*Workflow, error) {
	if b.name == "" {
		return nil, fmt.Errorf("workflow name must not be empty")
	}
	if len(b.steps) == 0 {
		return nil, fmt.Errorf("workflow %s has no steps", b.name)
	}

	ctx := b.context
	if ctx == nil {
		ctx = core.NewWorkflowContext(b.name)
	}

	return &Workflow{
		ID:           b.name,
		Name:         b.name,
		Steps:        b.steps,
		Context:      ctx,
		Manager:      b.manager,
		InitialInput: b.input,
	}, nil
}

// MustBuild is Build that panics on error. Intended for examples and tests.
func (b *Builder) MustBuild() *Workflow {
	wf, err := b.Build()
	if err != nil {
		panic(err)
	}
	return wf
}
