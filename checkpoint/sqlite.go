package checkpoint

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/hupe1980/agentflow/core"
)

// SQLiteStore is a Store backed by SQLite.
//
// It expects an *sql.DB using a SQLite driver (for example
// "modernc.org/sqlite"). The caller is responsible for importing the
// driver:
//
//	import _ "modernc.org/sqlite"
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore initializes the checkpoint schema in the given database
// and returns a new SQLiteStore.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS checkpoints (
			workflow_id TEXT PRIMARY KEY,
			snapshot BLOB NOT NULL,
			updated_at TEXT NOT NULL
		);`,
	)
	return err
}

// Save implements Store with an upsert per workflow id.
func (s *SQLiteStore) Save(ctx context.Context, wc *core.WorkflowContext) error {
	snapshot, err := json.Marshal(wc)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO checkpoints (workflow_id, snapshot, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(workflow_id) DO UPDATE SET snapshot = excluded.snapshot, updated_at = excluded.updated_at`,
		wc.Metadata().WorkflowID,
		snapshot,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	return err
}

// Load implements Store.
func (s *SQLiteStore) Load(ctx context.Context, workflowID string) (*core.WorkflowContext, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT snapshot FROM checkpoints WHERE workflow_id = ?`,
		workflowID,
	)

	var snapshot []byte
	if err := row.Scan(&snapshot); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var wc core.WorkflowContext
	if err := json.Unmarshal(snapshot, &wc); err != nil {
		return nil, err
	}
	return &wc, nil
}

// Delete implements Store.
func (s *SQLiteStore) Delete(ctx context.Context, workflowID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM checkpoints WHERE workflow_id = ?`, workflowID)
	return err
}

// List implements Store.
func (s *SQLiteStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT workflow_id FROM checkpoints ORDER BY workflow_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
