package ports_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/aretw0/pipebuilder/pkg/domain"
	"github.com/aretw0/pipebuilder/pkg/ports"
)

// MockStore is an in-memory RecipeStore that round-trips through JSON.
type MockStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewMockStore() *MockStore {
	return &MockStore{data: make(map[string][]byte)}
}

func (m *MockStore) Save(ctx context.Context, pipelineID string, recipe *domain.Recipe) error {
	raw, err := json.Marshal(recipe)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[pipelineID] = raw
	return nil
}

func (m *MockStore) Load(ctx context.Context, pipelineID string) (*domain.Recipe, error) {
	m.mu.Lock()
	raw, ok := m.data[pipelineID]
	m.mu.Unlock()
	if !ok {
		return nil, domain.ErrPipelineNotFound
	}
	var recipe domain.Recipe
	if err := json.Unmarshal(raw, &recipe); err != nil {
		return nil, err
	}
	return &recipe, nil
}

func (m *MockStore) Delete(ctx context.Context, pipelineID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, pipelineID)
	return nil
}

func (m *MockStore) List(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.data))
	for id := range m.data {
		ids = append(ids, id)
	}
	return ids, nil
}

func TestRecipeStore_Contract(t *testing.T) {
	ports.RunRecipeStoreContract(t, NewMockStore())
}
