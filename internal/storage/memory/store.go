package memory

import (
	"context" // request-scoped context, unused by the in-memory backend
	"sync"    // guards the map against concurrent access

	interfaces "github.com/sheikh-saqib/kivoro-ledger/internal/interfaces"
)

// MemoryStore is an in-memory implementation of interfaces.KVStore.
// It plays the role of browser local storage for the demo server and tests.
type MemoryStore struct {
	mu     sync.RWMutex      // protects values
	values map[string]string // key -> serialized value
}

// NewMemoryStore creates and returns an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		values: make(map[string]string),
	}
}

// Get returns the value stored under key.
func (m *MemoryStore) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.RLock()         // readers can share the lock
	defer m.mu.RUnlock() // released even on early return

	value, ok := m.values[key]
	return value, ok, nil
}

// Set overwrites the value stored under key.
func (m *MemoryStore) Set(ctx context.Context, key string, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[key] = value
	return nil // always succeeds in memory
}

// Delete removes every given key; missing keys are ignored.
func (m *MemoryStore) Delete(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, key := range keys {
		delete(m.values, key)
	}
	return nil
}

// Len reports how many keys are stored. Useful in tests.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}

// Compile-time check: ensure MemoryStore implements KVStore
var _ interfaces.KVStore = (*MemoryStore)(nil)
