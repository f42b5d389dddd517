// Package agentflow provides a high-level façade over the workflow engine,
// event bus and checkpoint services for chaining AI-agent steps into
// workflows. Most applications interact with this package by:
//  1. Creating an AgentFlow via New() (optionally overriding the bus,
//     logger or checkpoint store)
//  2. Building workflows from agent, transform, conditional and
//     sub-workflow steps
//  3. Executing them with Execute, observing progress through the event bus
//
// The façade delegates orchestration to engine.Engine while keeping setup
// concise. All defaults are safe for local development and testing;
// production deployments typically supply a durable checkpoint store and a
// structured logger.
package agentflow

import (
	"context"

	"github.com/hupe1980/agentflow/checkpoint"
	"github.com/hupe1980/agentflow/core"
	"github.com/hupe1980/agentflow/engine"
	"github.com/hupe1980/agentflow/logging"
	"github.com/hupe1980/agentflow/workflow"
)

// Options configures the AgentFlow instance.
type Options struct {
	// Bus receives all lifecycle events. A fresh in-process bus is created
	// if nil.
	Bus *core.Bus

	// Checkpoints persists context snapshots between steps. Defaults to an
	// in-memory store.
	Checkpoints checkpoint.Store

	// Logger defaults to the NoOp logger.
	Logger logging.Logger
}

// AgentFlow is the high-level façade aggregating the engine and services.
type AgentFlow struct {
	opts   Options
	engine *engine.Engine
}

// New creates a new AgentFlow instance with optional overrides. Any unset
// service is initialized with an in-memory implementation.
func New(optFns ...func(o *Options)) *AgentFlow {
	opts := Options{
		Bus:         core.NewBus(),
		Checkpoints: checkpoint.NewInMemoryStore(),
		Logger:      logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	eng := engine.New(func(o *engine.Options) {
		o.Bus = opts.Bus
		o.Logger = opts.Logger
		o.Checkpoints = opts.Checkpoints
	})

	return &AgentFlow{opts: opts, engine: eng}
}

// Execute runs a workflow to completion.
func (f *AgentFlow) Execute(ctx context.Context, wf *workflow.Workflow) (*workflow.Run, error) {
	return f.engine.Execute(ctx, wf)
}

// Bus returns the event bus for subscriptions and replay.
func (f *AgentFlow) Bus() *core.Bus { return f.opts.Bus }

// Checkpoints returns the checkpoint store.
func (f *AgentFlow) Checkpoints() checkpoint.Store { return f.opts.Checkpoints }

// Subscribe returns a live event subscription starting at the current tail.
func (f *AgentFlow) Subscribe() *core.Subscription { return f.opts.Bus.Subscribe() }

// Replay returns all events at or after offset plus a live subscription,
// with no gap and no duplicate in between.
func (f *AgentFlow) Replay(offset uint64) ([]core.Event, *core.Subscription) {
	return f.opts.Bus.SubscribeWithReplay(offset)
}
