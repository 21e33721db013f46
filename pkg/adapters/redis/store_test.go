package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/pipebuilder/pkg/adapters/redis"
	"github.com/aretw0/pipebuilder/pkg/domain"
	"github.com/aretw0/pipebuilder/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	return mr, backend.NewClient(&backend.Options{Addr: mr.Addr()})
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := newClient(t)
	store := redis.NewFromClient(client)
	ports.RunRecipeStoreContract(t, store)
}

func TestRedisStore_TTL_Expiration(t *testing.T) {
	mr, client := newClient(t)

	store := redis.NewFromClient(client, redis.WithTTL(1*time.Second))
	ctx := context.Background()
	pipelineID := "pipeline-ttl"
	recipe := domain.NewRecipe([]domain.PipelineNode{{ID: "start", Configuration: map[string]any{}}})

	err := store.Save(ctx, pipelineID, recipe)
	assert.NoError(t, err)

	ids, err := store.List(ctx)
	assert.NoError(t, err)
	assert.Contains(t, ids, pipelineID)

	mr.FastForward(2 * time.Second)

	_, err = store.Load(ctx, pipelineID)
	assert.ErrorIs(t, err, domain.ErrPipelineNotFound)

	// Index pruning uses wall-clock time, not miniredis time.
	time.Sleep(1200 * time.Millisecond)

	ids, err = store.List(ctx)
	assert.NoError(t, err)
	assert.Empty(t, ids)
}

func TestRedisStore_Prefix(t *testing.T) {
	mr, client := newClient(t)

	store := redis.NewFromClient(client, redis.WithPrefix("custom:app:"))
	ctx := context.Background()
	pipelineID := "my-pipeline"

	err := store.Save(ctx, pipelineID, domain.NewRecipe(nil))
	assert.NoError(t, err)

	assert.True(t, mr.Exists("custom:app:my-pipeline"), "Expected key with custom prefix to exist")
	assert.True(t, mr.Exists("custom:app:index"), "Expected index with custom prefix to exist")

	list, err := store.List(ctx)
	assert.NoError(t, err)
	assert.Contains(t, list, pipelineID)
}

func TestRedisStore_RejectsNilRecipe(t *testing.T) {
	_, client := newClient(t)
	store := redis.NewFromClient(client)
	assert.ErrorIs(t, store.Save(context.Background(), "p", nil), domain.ErrInvalidRecipe)
}
