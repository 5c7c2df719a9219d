package storage

import (
	"context"
	"sync"

	"newsrelay/internal/model"
)

// Memory implements Storage in process memory. State is lost on exit.
type Memory struct {
	mu      sync.RWMutex
	cursors map[string]model.Cursor
	seen    map[string]struct{}
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		cursors: make(map[string]model.Cursor),
		seen:    make(map[string]struct{}),
	}
}

// Cursor returns the stored cursor for account, or the zero Cursor.
func (m *Memory) Cursor(_ context.Context, account string) (model.Cursor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cursors[account], nil
}

// SetCursor stores the cursor for account.
func (m *Memory) SetCursor(_ context.Context, account string, cursor model.Cursor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cursors[account] = cursor
	return nil
}

// MarkSeen records key as delivered.
func (m *Memory) MarkSeen(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seen[key] = struct{}{}
	return nil
}

// IsSeen reports whether key was recorded.
func (m *Memory) IsSeen(_ context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.seen[key]
	return ok, nil
}

// Close is a no-op.
func (m *Memory) Close() error {
	return nil
}
