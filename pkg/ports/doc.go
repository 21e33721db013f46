/*
Package ports defines the driven ports (interfaces) for the pipebuilder engine.

These interfaces decouple the builder from external implementations, allowing
it to work with various recipe stores, definition sources, and lock managers.

# Key Interfaces

  - DefinitionSource: Resolves component definitions (e.g., from the backend API or a Loam directory).
  - RecipeStore: Persists and loads pipeline recipes.
  - DistributedLocker: Provides distributed locking for concurrent edits to one pipeline.
*/
package ports
