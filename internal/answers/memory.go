package answers

import (
	"context"
	"sync"

	"github.com/visamate/visamate/internal/model"
)

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]model.Answers
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]model.Answers)}
}

// Merge implements Store.
func (m *MemoryStore) Merge(_ context.Context, sessionID string, answers model.Answers) (MergeResult, error) {
	if err := checkSession("answers: merge", sessionID); err != nil {
		return MergeResult{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.sessions[sessionID]
	if !ok {
		cur = make(model.Answers, len(answers))
		m.sessions[sessionID] = cur
	}
	for k, v := range answers {
		cur[k] = v
	}
	return MergeResult{Accepted: len(answers), TotalStored: len(cur)}, nil
}

// Get implements Store.
func (m *MemoryStore) Get(_ context.Context, sessionID string) (model.Answers, error) {
	if err := checkSession("answers: get", sessionID); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(model.Answers, len(m.sessions[sessionID]))
	for k, v := range m.sessions[sessionID] {
		out[k] = v
	}
	return out, nil
}

// ListByPrefix implements Store.
func (m *MemoryStore) ListByPrefix(ctx context.Context, sessionID, prefix string) (model.Answers, error) {
	all, err := m.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return filterPrefix(all, prefix), nil
}
