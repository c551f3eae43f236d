package stubs

import (
	"context"
	"errors"
	"sync"

	"librarian/internal/storage"
)

// ErrClosed is returned after Close
var ErrClosed = errors.New("mock storage closed")

// MockDB is an in-memory implementation of the Storage interface for tests and memory mode
type MockDB struct {
	mu       sync.RWMutex
	profiles map[string]map[string]string
	closed   bool

	// FailWrites makes Set and Delete fail, to exercise error paths
	FailWrites error
}

// NewMockDB creates a new mock database
func NewMockDB() *MockDB {
	return &MockDB{
		profiles: make(map[string]map[string]string),
	}
}

// Initialize is a no-op
func (m *MockDB) Initialize(ctx context.Context) error {
	return nil
}

// Get returns the value of key or storage.ErrNotFound
func (m *MockDB) Get(ctx context.Context, profile, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return "", ErrClosed
	}
	value, ok := m.profiles[profile][key]
	if !ok {
		return "", storage.ErrNotFound
	}
	return value, nil
}

// Set overwrites key
func (m *MockDB) Set(ctx context.Context, profile, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.writableLocked(); err != nil {
		return err
	}
	prefs, ok := m.profiles[profile]
	if !ok {
		prefs = make(map[string]string)
		m.profiles[profile] = prefs
	}
	prefs[key] = value
	return nil
}

// Delete removes key
func (m *MockDB) Delete(ctx context.Context, profile, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.writableLocked(); err != nil {
		return err
	}
	delete(m.profiles[profile], key)
	return nil
}

// All returns a copy of every key of a profile
func (m *MockDB) All(ctx context.Context, profile string) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrClosed
	}
	prefs := make(map[string]string, len(m.profiles[profile]))
	for k, v := range m.profiles[profile] {
		prefs[k] = v
	}
	return prefs, nil
}

// Close marks the mock closed
func (m *MockDB) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *MockDB) writableLocked() error {
	if m.closed {
		return ErrClosed
	}
	return m.FailWrites
}

var _ storage.Storage = (*MockDB)(nil)
