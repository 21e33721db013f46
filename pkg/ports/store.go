package ports

import (
	"context"

	"github.com/aretw0/pipebuilder/pkg/domain"
)

// RecipeStore defines the interface for persisting pipeline recipes.
type RecipeStore interface {
	// Save persists the recipe for a given pipeline ID.
	Save(ctx context.Context, pipelineID string, recipe *domain.Recipe) error

	// Load retrieves the recipe for a given pipeline ID.
	// Returns domain.ErrPipelineNotFound if the pipeline does not exist.
	Load(ctx context.Context, pipelineID string) (*domain.Recipe, error)

	// Delete removes the recipe for a given pipeline ID.
	Delete(ctx context.Context, pipelineID string) error

	// List returns the IDs of all stored pipelines.
	List(ctx context.Context) ([]string, error)
}
