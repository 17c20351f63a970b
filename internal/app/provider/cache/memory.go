package cache

import (
	"context"
	"strings"
	"sync"

	"github.com/gomdlint/mdcompose/internal/domain/entity"
	"github.com/gomdlint/mdcompose/internal/shared/functional"
)

// MemoryStore keeps encoded documents in memory. It is used when the
// persistent cache is disabled and in tests.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string][]byte)}
}

// Get returns a fresh copy of the document stored under key.
func (m *MemoryStore) Get(ctx context.Context, key Key) functional.Option[*entity.Document] {
	if ctx.Err() != nil {
		return functional.None[*entity.Document]()
	}
	m.mu.RLock()
	data, ok := m.entries[key.String()]
	m.mu.RUnlock()
	if !ok {
		return functional.None[*entity.Document]()
	}
	doc, err := Decode(data)
	if err != nil {
		return functional.None[*entity.Document]()
	}
	return functional.Some(doc)
}

// Put stores doc under key, replacing entries for earlier contents of the
// same path.
func (m *MemoryStore) Put(ctx context.Context, key Key, doc *entity.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := Encode(doc)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := pathPrefix(key.Path)
	for k := range m.entries {
		if strings.HasPrefix(k, prefix) {
			delete(m.entries, k)
		}
	}
	m.entries[key.String()] = data
	return nil
}

// Clear removes every entry.
func (m *MemoryStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	m.entries = make(map[string][]byte)
	m.mu.Unlock()
	return nil
}

// Len returns the number of entries.
func (m *MemoryStore) Len(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries), nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error {
	return nil
}
