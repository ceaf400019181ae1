package store

import (
	"context"
	"encoding/json"
	"sync"
)

// MemoryDocumentStore keeps the document in process memory. Intended for
// tests and development; nothing survives a restart.
type MemoryDocumentStore struct {
	mu     sync.RWMutex
	doc    Document
	closed bool
}

// NewMemoryDocumentStore creates an empty in-memory store.
func NewMemoryDocumentStore() *MemoryDocumentStore {
	return &MemoryDocumentStore{doc: Document{}}
}

// Load returns a copy of the current document.
func (s *MemoryDocumentStore) Load(ctx context.Context) (Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreClosed
	}
	return s.copyDoc(), nil
}

func (s *MemoryDocumentStore) copyDoc() Document {
	out := make(Document, len(s.doc))
	for k, v := range s.doc {
		out[k] = v
	}
	return out
}

// Save replaces the document.
func (s *MemoryDocumentStore) Save(ctx context.Context, doc Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	next := make(Document, len(doc))
	for k, v := range doc {
		next[k] = v
	}
	s.doc = next
	return nil
}

// Update sets a single key.
func (s *MemoryDocumentStore) Update(ctx context.Context, key string, value json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	s.doc[key] = value
	return nil
}

// Delete removes a single key.
func (s *MemoryDocumentStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	delete(s.doc, key)
	return nil
}

// Mutate runs fn over the document under the write lock.
func (s *MemoryDocumentStore) Mutate(ctx context.Context, fn func(doc Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}

	next := s.copyDoc()
	if err := fn(next); err != nil {
		return err
	}
	s.doc = next
	return nil
}

// Ping checks if the store is usable.
func (s *MemoryDocumentStore) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}
	return nil
}

// Close marks the store closed.
func (s *MemoryDocumentStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

var _ DocumentStore = (*MemoryDocumentStore)(nil)
