package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/pipebuilder/pkg/domain"
)

// Store implements ports.RecipeStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.Recipe
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.Recipe),
	}
}

// Save persists a copy of the recipe in memory.
func (s *Store) Save(ctx context.Context, pipelineID string, recipe *domain.Recipe) error {
	if recipe == nil {
		return domain.ErrInvalidRecipe
	}
	copied := recipe.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[pipelineID] = copied
	return nil
}

// Load retrieves a copy of the recipe so callers can't mutate the store by pointer.
func (s *Store) Load(ctx context.Context, pipelineID string) (*domain.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recipe, ok := s.data[pipelineID]
	if !ok {
		return nil, domain.ErrPipelineNotFound
	}
	return recipe.Clone(), nil
}

// Delete removes the recipe.
func (s *Store) Delete(ctx context.Context, pipelineID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, pipelineID)
	return nil
}

// List returns stored pipeline IDs in sorted order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
