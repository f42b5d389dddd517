// Package engine executes workflows: steps run sequentially, each step's
// output feeding the next step's input, with the full lifecycle reported as
// events on the bus. A failing step aborts the run; cancellation is checked
// at step boundaries. Sub-workflows run through the same engine, sharing
// the bus and the parent's chat context.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/agentflow/checkpoint"
	"github.com/hupe1980/agentflow/core"
	"github.com/hupe1980/agentflow/logging"
	"github.com/hupe1980/agentflow/workflow"
)

// Options configure an Engine.
type Options struct {
	// Bus receives all lifecycle events. A fresh bus is created when nil.
	Bus *core.Bus

	// Logger for structured execution logs. Defaults to NoOpLogger.
	Logger logging.Logger

	// Checkpoints, when set, receives a context snapshot after every
	// completed step.
	Checkpoints checkpoint.Store
}

// Engine runs workflows. Safe for concurrent Execute calls; per-run state
// lives in the returned Run record, the bus handles its own locking.
type Engine struct {
	bus         *core.Bus
	logger      logging.Logger
	checkpoints checkpoint.Store
}

var _ workflow.SubRunner = (*Engine)(nil)

// New creates an engine.
func New(optFns ...func(o *Options)) *Engine {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Bus == nil {
		opts.Bus = core.NewBus()
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &Engine{
		bus:         opts.Bus,
		logger:      opts.Logger,
		checkpoints: opts.Checkpoints,
	}
}

// Bus returns the engine's event bus for subscribing and replay.
func (e *Engine) Bus() *core.Bus { return e.bus }

// Execute runs a workflow to completion and returns its run record. The
// record is also returned alongside the error on failure and cancellation,
// carrying the steps that did complete.
func (e *Engine) Execute(ctx context.Context, wf *workflow.Workflow) (*workflow.Run, error) {
	emitter := core.NewEmitter(e.bus, wf.ID)
	return e.execute(ctx, wf, emitter)
}

// ExecuteSub implements workflow.SubRunner. The nested workflow inherits
// the parent's chat context and emits on the parent's bus with the parent
// workflow id attached. The caller's Workflow value is not modified; the
// inherited context and manager live on a per-run shallow copy.
func (e *Engine) ExecuteSub(ctx context.Context, wf *workflow.Workflow, parent *workflow.ExecContext) (workflow.StepOutput, error) {
	sub := *wf
	sub.Context = parent.Context
	if sub.Manager == nil {
		sub.Manager = parent.Manager
	}

	emitter := parent.Emitter.Child(sub.ID)

	run, err := e.execute(ctx, &sub, emitter)
	if err != nil {
		return workflow.StepOutput{}, err
	}

	return workflow.StepOutput{
		Data: run.FinalOutput,
		Metadata: map[string]any{
			"workflow_id":        run.WorkflowID,
			"parent_workflow_id": run.ParentWorkflowID,
			"steps_completed":    len(run.Steps),
		},
	}, nil
}

func (e *Engine) execute(ctx context.Context, wf *workflow.Workflow, emitter *core.Emitter) (*workflow.Run, error) {
	run := &workflow.Run{
		WorkflowID:       wf.ID,
		ParentWorkflowID: emitter.ParentWorkflowID(),
		State:            workflow.StateRunning,
	}

	_ = emitter.WorkflowStarted()
	e.logger.Info("workflow.started", "workflow_id", wf.ID, "steps", len(wf.Steps))

	input := wf.InitialInput
	for i, step := range wf.Steps {
		if err := ctx.Err(); err != nil {
			_ = emitter.StepCanceled(i, step.Name())
			_ = emitter.WorkflowCanceled()
			run.State = workflow.StateCanceled
			run.Err = err
			e.logger.Warn("workflow.canceled", "workflow_id", wf.ID, "step", step.Name())
			return run, err
		}

		_ = emitter.StepStarted(i, step.Name())

		ec := &workflow.ExecContext{
			Emitter:   emitter,
			Context:   wf.Context,
			Manager:   wf.Manager,
			Runner:    e,
			Logger:    e.logger,
			StepIndex: i,
		}

		start := time.Now()
		out, err := step.Execute(ctx, workflow.StepInput{Data: input}, ec)
		duration := time.Since(start)

		if err != nil {
			if ctx.Err() != nil {
				_ = emitter.StepCanceled(i, step.Name())
				_ = emitter.WorkflowCanceled()
				run.State = workflow.StateCanceled
				run.Err = ctx.Err()
				return run, ctx.Err()
			}

			_ = emitter.StepFailed(i, step.Name(), err)
			_ = emitter.WorkflowFailed(err)
			run.State = workflow.StateFailed
			run.Err = err
			e.logger.Error("workflow.step.failed", "workflow_id", wf.ID, "step", step.Name(), "error", err.Error())
			return run, fmt.Errorf("workflow %s step %d (%s) failed: %w", wf.ID, i, step.Name(), err)
		}

		_ = emitter.StepCompleted(i, step.Name(), out.Metadata)
		e.logger.Info("workflow.step.completed", "workflow_id", wf.ID, "step", step.Name(), "index", i, "duration_ms", duration.Milliseconds())

		run.Steps = append(run.Steps, workflow.StepRecord{
			Index:    i,
			Name:     step.Name(),
			Kind:     step.Kind(),
			Input:    input,
			Output:   out.Data,
			Metadata: out.Metadata,
			Duration: duration,
		})

		e.saveCheckpoint(ctx, wf)

		input = out.Data
	}

	run.State = workflow.StateCompleted
	run.FinalOutput = input
	_ = emitter.WorkflowCompleted(input)
	e.logger.Info("workflow.completed", "workflow_id", wf.ID)

	return run, nil
}

// saveCheckpoint persists the shared context after a completed step. A
// failing checkpoint store never fails the run.
func (e *Engine) saveCheckpoint(ctx context.Context, wf *workflow.Workflow) {
	if e.checkpoints == nil || wf.Context == nil {
		return
	}
	if err := e.checkpoints.Save(ctx, wf.Context); err != nil {
		e.logger.Warn("workflow.checkpoint.failed", "workflow_id", wf.ID, "error", err.Error())
	}
}
