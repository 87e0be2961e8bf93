// internal/docstore/memory.go
package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

type memoryDocument struct {
	body    []byte
	version int
}

// MemoryStore is a process-local Store. Values round-trip through JSON so
// callers see the same decoding behaviour as the Postgres store.
type MemoryStore struct {
	mu   sync.Mutex
	docs map[string]memoryDocument
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]memoryDocument)}
}

func (s *MemoryStore) Load(_ context.Context, name string, dest any) (int, error) {
	if name == "" {
		return 0, ErrInvalidName
	}
	s.mu.Lock()
	doc, ok := s.docs[name]
	s.mu.Unlock()
	if !ok {
		return 0, nil
	}
	if err := json.Unmarshal(doc.body, dest); err != nil {
		return 0, fmt.Errorf("decode document %s: %w", name, err)
	}
	return doc.version, nil
}

func (s *MemoryStore) Replace(_ context.Context, name string, expectedVersion int, value any) (int, error) {
	if name == "" {
		return 0, ErrInvalidName
	}
	body, err := json.Marshal(value)
	if err != nil {
		return 0, fmt.Errorf("encode document %s: %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.docs[name].version != expectedVersion {
		return 0, ErrConcurrencyConflict
	}
	next := expectedVersion + 1
	s.docs[name] = memoryDocument{body: body, version: next}
	return next, nil
}

func (s *MemoryStore) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	delete(s.docs, name)
	s.mu.Unlock()
	return nil
}

// Put stores raw JSON under name, bypassing the version check. Used to
// seed legacy or malformed documents.
func (s *MemoryStore) Put(name string, raw []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[name] = memoryDocument{body: raw, version: s.docs[name].version + 1}
}
