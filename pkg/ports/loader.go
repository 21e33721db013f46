package ports

import "context"

// DefinitionSource defines how the builder retrieves component definitions.
// This allows the definition origin (backend API, Loam, Memory) to be decoupled.
type DefinitionSource interface {
	// GetDefinition returns the component specification of the definition with the given
	// name (e.g. "connector-definitions/ai-openai") as a generic JSON Schema document.
	GetDefinition(ctx context.Context, name string) (map[string]any, error)

	// ListDefinitions returns the names of all available definitions.
	ListDefinitions(ctx context.Context) ([]string, error)
}

// Watchable defines an interface for sources that can notify about backend changes.
// This is typically used to refresh cached definitions in dev mode.
type Watchable interface {
	// Watch returns a channel that receives the name of each changed definition.
	Watch(ctx context.Context) (<-chan string, error)
}
