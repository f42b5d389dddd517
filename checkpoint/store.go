// Package checkpoint persists workflow context snapshots so long-running
// workflows can be resumed. Two implementations are provided: a volatile
// in-memory store for tests and demos, and a SQLite-backed store for
// durable checkpoints.
package checkpoint

import (
	"context"
	"errors"

	"github.com/hupe1980/agentflow/core"
)

// ErrNotFound is returned when no checkpoint exists for a workflow id.
var ErrNotFound = errors.New("checkpoint not found")

// Store persists and restores workflow contexts keyed by workflow id.
type Store interface {
	// Save writes a snapshot of the context, replacing any previous one.
	Save(ctx context.Context, wc *core.WorkflowContext) error

	// Load restores the most recent snapshot for a workflow id.
	Load(ctx context.Context, workflowID string) (*core.WorkflowContext, error)

	// Delete removes the snapshot for a workflow id. Deleting a missing
	// snapshot is not an error.
	Delete(ctx context.Context, workflowID string) error

	// List returns the workflow ids with stored snapshots.
	List(ctx context.Context) ([]string, error)
}
