package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidID is returned when a proposed component id breaks the identifier rules.
var ErrInvalidID = errors.New("invalid component id")

// ErrNodeNotFound is returned when an operation targets a node that is not in the graph.
var ErrNodeNotFound = errors.New("node not found")

// ErrPipelineNotFound is returned when a recipe cannot be found in the store.
var ErrPipelineNotFound = errors.New("pipeline not found")

// IdentifierCollisionError is returned when a rename or copy would duplicate an id.
// The operation is aborted and the original graph is preserved.
type IdentifierCollisionError struct {
	ID string
}

func (e *IdentifierCollisionError) Error() string {
	return fmt.Sprintf("component id %q already exists", e.ID)
}

// ErrDefinitionNotFound is returned when a definition source has no entry for a name.
var ErrDefinitionNotFound = errors.New("definition not found")

// ErrInvalidRecipe is returned when a recipe cannot be stored or loaded as a pipeline.
var ErrInvalidRecipe = errors.New("invalid recipe")
