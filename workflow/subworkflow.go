package workflow

import (
	"context"
	"fmt"
)

// SubWorkflowStep nests a complete workflow as one step of its parent. The
// nested workflow is an owned, already built value. At execution time it
// shares the parent's event bus (all nested events carry the parent
// workflow id) and the parent's chat context, and runs synchronously.
type SubWorkflowStep struct {
	name     string
	workflow *Workflow
}

// NewSubWorkflowStep wraps a built workflow as a step. The step name
// defaults to the nested workflow's name.
func NewSubWorkflowStep(wf *Workflow) *SubWorkflowStep {
	return &SubWorkflowStep{name: wf.Name, workflow: wf}
}

// Name implements Step.
func (s *SubWorkflowStep) Name() string { return s.name }

// Kind implements Step.
func (s *SubWorkflowStep) Kind() Kind { return KindSubWorkflow }

// Workflow returns the nested workflow.
func (s *SubWorkflowStep) Workflow() *Workflow { return s.workflow }

// Execute implements Step by delegating to the run's SubRunner.
func (s *SubWorkflowStep) Execute(ctx context.Context, in StepInput, ec *ExecContext) (StepOutput, error) {
	if ec.Runner == nil {
		return StepOutput{}, fmt.Errorf("sub-workflow %s: no runner available", s.name)
	}

	// The nested workflow value stays untouched so it remains reusable; the
	// run operates on a shallow copy carrying this step's input.
	wf := *s.workflow
	wf.InitialInput = in.Data

	return ec.Runner.ExecuteSub(ctx, &wf, ec)
}
