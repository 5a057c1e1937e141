// Package memory is an in-process remote store, useful for development
// and single-device deployments where no backend is configured.
package memory

import (
	"context"
	"sync"
	"time"

	"bilancio/internal/core"
	"bilancio/internal/remote"
)

type document struct {
	store     core.Store
	updatedAt time.Time
}

type Store struct {
	mu   sync.Mutex
	docs map[string]document
}

// Ensure interface conformance
var _ remote.StoreClient = (*Store)(nil)

func New() *Store {
	return &Store{docs: map[string]document{}}
}

func (s *Store) FetchForUser(_ context.Context, userID string) (core.Store, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[userID]
	if !ok {
		return nil, remote.ErrNotFound
	}
	return doc.store.Clone(), nil
}

func (s *Store) UpsertForUser(_ context.Context, userID string, store core.Store) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[userID] = document{store: store.Clone(), updatedAt: time.Now()}
	return nil
}
