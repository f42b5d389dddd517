package checkpoint

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/hupe1980/agentflow/core"
)

// InMemoryStore is a volatile Store keeping JSON snapshots in a process
// local map. Safe for concurrent access; best suited for tests and
// ephemeral demos. Snapshots are serialized on the way in and out so
// callers can never alias stored state.
type InMemoryStore struct {
	mu        sync.RWMutex
	snapshots map[string][]byte
}

var _ Store = (*InMemoryStore)(nil)

// NewInMemoryStore constructs an empty in-memory checkpoint store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{snapshots: make(map[string][]byte)}
}

// Save implements Store.
func (s *InMemoryStore) Save(ctx context.Context, wc *core.WorkflowContext) error {
	data, err := json.Marshal(wc)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[wc.Metadata().WorkflowID] = data
	return nil
}

// Load implements Store.
func (s *InMemoryStore) Load(ctx context.Context, workflowID string) (*core.WorkflowContext, error) {
	s.mu.RLock()
	data, ok := s.snapshots[workflowID]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}

	var wc core.WorkflowContext
	if err := json.Unmarshal(data, &wc); err != nil {
		return nil, err
	}
	return &wc, nil
}

// Delete implements Store.
func (s *InMemoryStore) Delete(ctx context.Context, workflowID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snapshots, workflowID)
	return nil
}

// List implements Store.
func (s *InMemoryStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.snapshots))
	for id := range s.snapshots {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
