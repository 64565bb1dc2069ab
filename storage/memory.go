package storage

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is an in-memory PlaintextStore. It backs tests and preview
// builds, and documents the backend contract in its simplest form. Safe for
// concurrent use.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]string)}
}

// Get returns the stored value, or ok=false if the key is absent.
func (m *MemoryStore) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.items[key]
	return v, ok, nil
}

// Set stores value under key, replacing any previous value.
func (m *MemoryStore) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = value
	return nil
}

// Remove deletes key. Removing an absent key is not an error.
func (m *MemoryStore) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}

// Keys returns all stored keys in sorted order.
func (m *MemoryStore) Keys(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.items))
	for k := range m.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Len reports the number of stored entries.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// Raw returns the stored value without any interpretation. Tests use this to
// inspect what actually crossed the backend boundary.
func (m *MemoryStore) Raw(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.items[key]
	return v, ok
}

// MemorySecretStore is an in-memory secret-slot store implementing the same
// capability as the platform keystore adapters. Call counters let tests
// assert how often the slot was touched.
type MemorySecretStore struct {
	mu       sync.Mutex
	values   map[string]string
	getCalls int
	setCalls int
}

// NewMemorySecretStore creates an empty in-memory secret store.
func NewMemorySecretStore() *MemorySecretStore {
	return &MemorySecretStore{values: make(map[string]string)}
}

// Get returns the named secret, or ok=false if the slot is empty.
func (m *MemorySecretStore) Get(ctx context.Context, name string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls++
	v, ok := m.values[name]
	return v, ok, nil
}

// Set stores the named secret.
func (m *MemorySecretStore) Set(ctx context.Context, name, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setCalls++
	m.values[name] = value
	return nil
}

// GetCalls reports how many times Get has been invoked.
func (m *MemorySecretStore) GetCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getCalls
}

// SetCalls reports how many times Set has been invoked.
func (m *MemorySecretStore) SetCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.setCalls
}
