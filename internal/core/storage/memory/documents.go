package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/stratahq/strata/internal/core/storage"
)

type documentKey struct {
	kind string
	id   string
}

// DocumentStore is an in-memory implementation of storage.DocumentStore.
// Useful for testing and development.
type DocumentStore struct {
	mu   sync.RWMutex
	docs map[documentKey]*storage.Document
}

// NewDocumentStore creates an empty in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		docs: make(map[documentKey]*storage.Document),
	}
}

func (s *DocumentStore) FindByID(ctx context.Context, kind, id string) (*storage.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, exists := s.docs[documentKey{kind: kind, id: id}]
	if !exists {
		return nil, nil
	}

	// Return a copy to prevent external modification
	return doc.Clone(), nil
}

func (s *DocumentStore) InsertIfAbsent(ctx context.Context, doc *storage.Document) (storage.InsertOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := documentKey{kind: doc.Kind, id: doc.ID}
	if _, exists := s.docs[key]; exists {
		return storage.AlreadyExists, nil
	}

	s.docs[key] = doc.Clone()
	return storage.Inserted, nil
}

func (s *DocumentStore) Replace(ctx context.Context, doc *storage.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := documentKey{kind: doc.Kind, id: doc.ID}
	if _, exists := s.docs[key]; !exists {
		return fmt.Errorf("replace %s/%s: document not found", doc.Kind, doc.ID)
	}

	s.docs[key] = doc.Clone()
	return nil
}

// Len returns the number of stored documents.
func (s *DocumentStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}
