package workflow

import (
	"context"
	"fmt"
	"time"
)

// TransformFunc is a pure data transformation applied between steps.
type TransformFunc func(data string) (string, error)

// TransformStep applies a pure function to the step input. No model call,
// no tool access, no history mutation.
type TransformStep struct {
	name string
	fn   TransformFunc
}

// NewTransformStep creates a transform step.
func NewTransformStep(name string, fn TransformFunc) *TransformStep {
	return &TransformStep{name: name, fn: fn}
}

// Name implements Step.
func (s *TransformStep) Name() string { return s.name }

// Kind implements Step.
func (s *TransformStep) Kind() Kind { return KindTransform }

// Execute implements Step.
func (s *TransformStep) Execute(ctx context.Context, in StepInput, ec *ExecContext) (StepOutput, error) {
	start := time.Now()

	out, err := s.fn(in.Data)
	if err != nil {
		return StepOutput{}, fmt.Errorf("transform %s: %w", s.name, err)
	}

	return StepOutput{
		Data: out,
		Metadata: map[string]any{
			"step_name":         s.name,
			"step_index":        ec.StepIndex,
			"execution_time_ms": time.Since(start).Milliseconds(),
		},
	}, nil
}
