package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/pipebuilder/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces every key written by the store.
const DefaultPrefix = "pipebuilder:pipeline:"

// Store implements ports.RecipeStore using Redis.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Store)

// WithTTL sets the expiration for recipes.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for recipes.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: DefaultPrefix,
		ttl:    0, // No expiration by default
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

// Client exposes the underlying client so a Locker can share it.
func (s *Store) Client() *backend.Client {
	return s.client
}

func (s *Store) key(pipelineID string) string {
	return s.prefix + pipelineID
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

// Save persists the recipe to Redis.
func (s *Store) Save(ctx context.Context, pipelineID string, recipe *domain.Recipe) error {
	if recipe == nil {
		return domain.ErrInvalidRecipe
	}
	data, err := json.Marshal(recipe)
	if err != nil {
		return fmt.Errorf("failed to marshal recipe: %w", err)
	}

	pipe := s.client.Pipeline()

	// Use 0 for no expiration if ttl is not set.
	pipe.Set(ctx, s.key(pipelineID), data, s.ttl)

	// Index score is the expiry time, so List can prune lazily.
	score := float64(time.Now().Add(s.ttl).Unix())
	if s.ttl == 0 {
		score = 4102444800 // 2100-01-01
	}

	pipe.ZAdd(ctx, s.indexKey(), backend.Z{
		Score:  score,
		Member: pipelineID,
	})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}

	return nil
}

// Load retrieves the recipe from Redis.
func (s *Store) Load(ctx context.Context, pipelineID string) (*domain.Recipe, error) {
	val, err := s.client.Get(ctx, s.key(pipelineID)).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, domain.ErrPipelineNotFound
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var recipe domain.Recipe
	if err := json.Unmarshal([]byte(val), &recipe); err != nil {
		return nil, fmt.Errorf("failed to unmarshal recipe: %w", err)
	}

	return &recipe, nil
}

// Delete removes the recipe.
func (s *Store) Delete(ctx context.Context, pipelineID string) error {
	pipe := s.client.Pipeline()

	pipe.Del(ctx, s.key(pipelineID))
	pipe.ZRem(ctx, s.indexKey(), pipelineID)

	_, err := pipe.Exec(ctx)
	return err
}

// List returns stored pipeline IDs, pruning expired entries from the index first.
func (s *Store) List(ctx context.Context) ([]string, error) {
	now := float64(time.Now().Unix())

	err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to prune expired pipelines: %w", err)
	}

	ids, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list pipelines: %w", err)
	}

	return ids, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
