package passcode

import (
	"context"
	"sync"
	"time"
)

// mockTimeProvider is a mock implementation of TimeProvider for testing.
type mockTimeProvider struct {
	mu      sync.Mutex
	current time.Time
}

func newMockTimeProvider(start time.Time) *mockTimeProvider {
	return &mockTimeProvider{current: start}
}

func (m *mockTimeProvider) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

func (m *mockTimeProvider) Since(t time.Time) time.Duration {
	return m.Now().Sub(t)
}

func (m *mockTimeProvider) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = m.current.Add(d)
}

// mapStateStore is an in-memory StateStore with injectable failures.
type mapStateStore struct {
	mu       sync.Mutex
	items    map[string]string
	getErr   error
	setErr   error
	setCalls int
}

func newMapStateStore() *mapStateStore {
	return &mapStateStore{items: make(map[string]string)}
}

func (s *mapStateStore) GetItem(ctx context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return "", false, s.getErr
	}
	v, ok := s.items[key]
	return v, ok, nil
}

func (s *mapStateStore) SetItem(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setCalls++
	if s.setErr != nil {
		return s.setErr
	}
	s.items[key] = value
	return nil
}

func (s *mapStateStore) RemoveItem(ctx context.Context, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
}

func (s *mapStateStore) raw(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.items[key]
	return v, ok
}

func (s *mapStateStore) preload(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = value
}
