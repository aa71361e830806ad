// Package mock provides mock implementations of database interfaces for testing.
package mock

import (
	"context"
	"maps"
	"sync"
)

// MockBlobStore is an in-memory implementation of database.BlobStore
type MockBlobStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
	saves map[string]int

	// Error injection
	LoadError  error
	SaveError  error
	CloseError error

	closed bool
}

// NewMockBlobStore creates a new mock blob store
func NewMockBlobStore() *MockBlobStore {
	return &MockBlobStore{
		blobs: make(map[string][]byte),
		saves: make(map[string]int),
	}
}

// Put seeds a blob without counting it as a save
func (m *MockBlobStore) Put(key string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[key] = append([]byte(nil), data...)
}

// Load returns a copy of the blob stored under key
func (m *MockBlobStore) Load(ctx context.Context, key string) ([]byte, error) {
	if m.LoadError != nil {
		return nil, m.LoadError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.blobs[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), data...), nil
}

// Save stores a copy of data under key
func (m *MockBlobStore) Save(ctx context.Context, key string, data []byte) error {
	if m.SaveError != nil {
		return m.SaveError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[key] = append([]byte(nil), data...)
	m.saves[key]++
	return nil
}

// Close marks the store closed
func (m *MockBlobStore) Close() error {
	if m.CloseError != nil {
		return m.CloseError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// SaveCount returns how many times key was saved
func (m *MockBlobStore) SaveCount(key string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves[key]
}

// Blobs returns a snapshot of all stored blobs
func (m *MockBlobStore) Blobs() map[string][]byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return maps.Clone(m.blobs)
}

// Closed reports whether Close was called
func (m *MockBlobStore) Closed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.closed
}
