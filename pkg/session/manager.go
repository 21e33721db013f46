package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/pipebuilder/internal/logging"
	"github.com/aretw0/pipebuilder/pkg/domain"
	"github.com/aretw0/pipebuilder/pkg/ports"
)

// DefaultLockTTL bounds how long a distributed lock outlives a crashed holder.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates pipeline access, ensuring safe concurrent operations.
// It uses reference counting to garbage collect unused locks.
type Manager struct {
	store ports.RecipeStore

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the TTL requested for distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a new pipeline Manager over the given recipe store.
func NewManager(store ports.RecipeStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(pipelineID) after unlocking.
func (m *Manager) acquire(pipelineID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[pipelineID]
	if !exists {
		entry = &lockEntry{}
		m.locks[pipelineID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(pipelineID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[pipelineID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, pipelineID)
	}
}

// NewPipelineRecipe returns the recipe of an empty pipeline: a start and an end operator.
func NewPipelineRecipe() *domain.Recipe {
	return domain.NewRecipe([]domain.PipelineNode{
		{
			ID:             domain.StartNodeID,
			NodeType:       domain.NodeTypeOperator,
			DefinitionName: domain.OperatorDefinitionPrefix + domain.StartNodeID,
			Configuration:  map[string]any{domain.KeyMetadata: map[string]any{}},
		},
		{
			ID:             domain.EndNodeID,
			NodeType:       domain.NodeTypeOperator,
			DefinitionName: domain.OperatorDefinitionPrefix + domain.EndNodeID,
			Configuration:  map[string]any{domain.KeyInput: map[string]any{}},
		},
	})
}

// Load retrieves an existing recipe from the store.
func (m *Manager) Load(ctx context.Context, pipelineID string) (*domain.Recipe, error) {
	var recipe *domain.Recipe
	err := m.WithLock(ctx, pipelineID, func(ctx context.Context) error {
		var err error
		recipe, err = m.store.Load(ctx, pipelineID)
		return err
	})
	return recipe, err
}

// LoadOrCreate tries to load a recipe. If not found, it stores and returns an empty pipeline.
func (m *Manager) LoadOrCreate(ctx context.Context, pipelineID string) (*domain.Recipe, error) {
	if err := domain.ValidateID(pipelineID); err != nil {
		return nil, err
	}
	var recipe *domain.Recipe
	err := m.WithLock(ctx, pipelineID, func(ctx context.Context) error {
		var err error
		recipe, err = m.store.Load(ctx, pipelineID)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrPipelineNotFound) {
			return fmt.Errorf("failed to check pipeline existence: %w", err)
		}

		recipe = NewPipelineRecipe()
		if err := m.store.Save(ctx, pipelineID, recipe); err != nil {
			return fmt.Errorf("failed to initialize pipeline: %w", err)
		}
		m.logger.Debug("pipeline created", "pipeline_id", pipelineID)
		return nil
	})
	return recipe, err
}

// Save persists the recipe.
func (m *Manager) Save(ctx context.Context, pipelineID string, recipe *domain.Recipe) error {
	return m.WithLock(ctx, pipelineID, func(ctx context.Context) error {
		return m.store.Save(ctx, pipelineID, recipe)
	})
}

// Update loads the recipe, applies fn and saves the result, all under the pipeline lock.
// When fn returns an error nothing is saved.
func (m *Manager) Update(ctx context.Context, pipelineID string, fn func(*domain.Recipe) error) (*domain.Recipe, error) {
	var recipe *domain.Recipe
	err := m.WithLock(ctx, pipelineID, func(ctx context.Context) error {
		current, err := m.store.Load(ctx, pipelineID)
		if err != nil {
			return err
		}
		if err := fn(current); err != nil {
			return err
		}
		if err := m.store.Save(ctx, pipelineID, current); err != nil {
			return err
		}
		recipe = current
		return nil
	})
	return recipe, err
}

// Delete removes the recipe from the store.
func (m *Manager) Delete(ctx context.Context, pipelineID string) error {
	return m.WithLock(ctx, pipelineID, func(ctx context.Context) error {
		return m.store.Delete(ctx, pipelineID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying recipe store.
func (m *Manager) Store() ports.RecipeStore {
	return m.store
}

// WithLock executes a function while holding the lock for the pipeline.
func (m *Manager) WithLock(ctx context.Context, pipelineID string, fn func(context.Context) error) error {
	entry := m.acquire(pipelineID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(pipelineID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, pipelineID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"pipeline_id", pipelineID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
