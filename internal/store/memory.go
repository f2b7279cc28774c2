package store

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Memory is a map-backed Store. FindAll preserves insertion order. It is
// the substitution seam for the test suite and doubles as a backend for
// local development without a database.
type Memory struct {
	mu    sync.RWMutex
	todos map[string]Todo
	order []string
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{todos: make(map[string]Todo)}
}

// Ping implements Store. The in-memory store is always reachable.
func (m *Memory) Ping(context.Context) error { return nil }

// Close implements Store. Nothing to release.
func (m *Memory) Close(context.Context) error { return nil }

// FindAll implements Store.
func (m *Memory) FindAll(context.Context) ([]Todo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Todo, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.todos[id])
	}
	return out, nil
}

// FindByID implements Store.
func (m *Memory) FindByID(_ context.Context, id string) (*Todo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	todo, ok := m.todos[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &todo, nil
}

// Insert implements Store. IDs are random UUIDs, never reused.
func (m *Memory) Insert(_ context.Context, todo Todo) (*Todo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	todo.ID = uuid.NewString()
	m.todos[todo.ID] = todo
	m.order = append(m.order, todo.ID)
	return &todo, nil
}

// Update implements Store.
func (m *Memory) Update(_ context.Context, id string, todo Todo) (*Todo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.todos[id]; !ok {
		return nil, ErrNotFound
	}
	todo.ID = id
	m.todos[id] = todo
	return &todo, nil
}

// Delete implements Store.
func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.todos[id]; !ok {
		return ErrNotFound
	}
	delete(m.todos, id)
	for i, v := range m.order {
		if v == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}
