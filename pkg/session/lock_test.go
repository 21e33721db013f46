package session

import (
	"context"
	"fmt"
	"testing"

	"github.com/aretw0/pipebuilder/pkg/domain"
)

type nopStore struct{}

func (nopStore) Save(ctx context.Context, pipelineID string, recipe *domain.Recipe) error {
	return nil
}
func (nopStore) Load(ctx context.Context, pipelineID string) (*domain.Recipe, error) {
	return nil, domain.ErrPipelineNotFound
}
func (nopStore) Delete(ctx context.Context, pipelineID string) error { return nil }
func (nopStore) List(ctx context.Context) ([]string, error)          { return nil, nil }

func TestManager_LockLifecycle(t *testing.T) {
	mgr := NewManager(nopStore{})
	ctx := context.Background()
	count := 10000

	for i := 0; i < count; i++ {
		id := fmt.Sprintf("pipeline-%d", i)
		_ = mgr.Save(ctx, id, &domain.Recipe{})
		_ = mgr.Delete(ctx, id)
	}

	if lockCount := len(mgr.locks); lockCount != 0 {
		t.Errorf("Memory Leak Detected: %d locks remaining in memory after Delete", lockCount)
	}
}
