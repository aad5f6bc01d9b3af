package testutil

import (
	"context"
	"sync"

	ierr "github.com/vidinfra/billsync/internal/errors"
)

// InMemoryDocumentStore implements document.Repository
type InMemoryDocumentStore struct {
	mu   sync.RWMutex
	docs map[string][]byte

	// SaveErr forces the next Save calls to fail
	SaveErr error
}

// NewInMemoryDocumentStore creates a new in-memory document store
func NewInMemoryDocumentStore() *InMemoryDocumentStore {
	return &InMemoryDocumentStore{
		docs: make(map[string][]byte),
	}
}

func (s *InMemoryDocumentStore) Save(ctx context.Context, key string, content []byte) error {
	if s.SaveErr != nil {
		return s.SaveErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.docs[key] = append([]byte(nil), content...)
	return nil
}

func (s *InMemoryDocumentStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	content, exists := s.docs[key]
	if !exists {
		return nil, ierr.NewError("document not found").
			Mark(ierr.ErrNotFound)
	}
	return append([]byte(nil), content...), nil
}

func (s *InMemoryDocumentStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.docs[key]; !exists {
		return ierr.NewError("document not found").
			Mark(ierr.ErrNotFound)
	}
	delete(s.docs, key)
	return nil
}

// Has reports whether a document exists for the key
func (s *InMemoryDocumentStore) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.docs[key]
	return exists
}

// Count returns the number of stored documents
func (s *InMemoryDocumentStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// Clear removes all documents
func (s *InMemoryDocumentStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = make(map[string][]byte)
}
