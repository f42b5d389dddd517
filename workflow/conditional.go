package workflow

import (
	"context"
)

// Predicate decides which branch of a conditional step runs.
type Predicate func(in StepInput) bool

// ConditionalStep evaluates a predicate and runs exactly one of two steps.
// The unchosen branch executes nothing and emits no events. The output
// metadata is rewritten to reflect the conditional step itself, so
// downstream consumers see a single step regardless of the branch taken.
type ConditionalStep struct {
	name      string
	predicate Predicate
	thenStep  Step
	elseStep  Step
}

// NewConditionalStep creates a conditional step. elseStep may be nil, in
// which case a false predicate passes the input through unchanged.
func NewConditionalStep(name string, predicate Predicate, thenStep, elseStep Step) *ConditionalStep {
	return &ConditionalStep{
		name:      name,
		predicate: predicate,
		thenStep:  thenStep,
		elseStep:  elseStep,
	}
}

// Name implements Step.
func (s *ConditionalStep) Name() string { return s.name }

// Kind implements Step.
func (s *ConditionalStep) Kind() Kind { return KindConditional }

// Execute implements Step.
func (s *ConditionalStep) Execute(ctx context.Context, in StepInput, ec *ExecContext) (StepOutput, error) {
	chosen := s.thenStep
	branch := "then"
	if !s.predicate(in) {
		chosen = s.elseStep
		branch = "else"
	}

	if chosen == nil {
		return StepOutput{
			Data: in.Data,
			Metadata: map[string]any{
				"step_name":  s.name,
				"step_index": ec.StepIndex,
				"branch":     branch,
				"executed":   "",
			},
		}, nil
	}

	out, err := chosen.Execute(ctx, in, ec)
	if err != nil {
		return StepOutput{}, err
	}

	// Present the result as the conditional's own.
	out.Metadata = map[string]any{
		"step_name":  s.name,
		"step_index": ec.StepIndex,
		"branch":     branch,
		"executed":   chosen.Name(),
	}
	return out, nil
}
