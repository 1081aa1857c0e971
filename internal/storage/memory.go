package storage

import (
	"context"
	"sync"
)

// Memory keeps encoded values in a map. It is the backend for tests and for
// runs that do not need anything to survive the process.
type Memory struct {
	mu     sync.RWMutex
	items  map[string][]byte
	closed bool
}

func NewMemory() *Memory {
	return &Memory{items: make(map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, key string, dst any) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return false, ErrClosed
	}

	data, ok := m.items[key]
	if !ok {
		return false, nil
	}
	if err := Decode(key, data, dst); err != nil {
		return true, err
	}
	return true, nil
}

func (m *Memory) Set(_ context.Context, key string, value any) error {
	data, err := Encode(value)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.items[key] = data
	return nil
}

func (m *Memory) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	delete(m.items, key)
	return nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// PutRaw stores bytes without encoding them.
func (m *Memory) PutRaw(key string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = append([]byte(nil), data...)
}

// Raw returns the stored bytes for key.
func (m *Memory) Raw(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.items[key]
	return data, ok
}
