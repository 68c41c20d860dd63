package health

import (
	"context"
	"sync"
)

// InMemoryRepository is an in-memory implementation of Repository.
// This is intended for testing. Production should use FirestoreRepository.
type InMemoryRepository struct {
	mu   sync.RWMutex
	docs map[string]*Document
}

// NewInMemoryRepository creates a new in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		docs: make(map[string]*Document),
	}
}

// SaveResult stores the result under the pipeline key.
func (r *InMemoryRepository) SaveResult(_ context.Context, pipelineID string, doc *Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cpy := *doc
	r.docs[pipelineID] = &cpy
	return nil
}

// GetResult retrieves the result for a pipeline run.
func (r *InMemoryRepository) GetResult(_ context.Context, pipelineID string) (*Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	doc, ok := r.docs[pipelineID]
	if !ok {
		return nil, ErrNotFound
	}

	// Return a copy
	cpy := *doc
	return &cpy, nil
}
