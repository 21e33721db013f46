package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aretw0/loam"
	"github.com/aretw0/pipebuilder/pkg/domain"
)

// Loader adapts the Loam library to the ports.DefinitionSource interface.
// Each document of the repository is one definition; its path without
// extension is the definition name.
type Loader struct {
	Repo *loam.TypedRepository[DefinitionMetadata]
}

// New creates a new Loam adapter.
func New(repo *loam.TypedRepository[DefinitionMetadata]) *Loader {
	return &Loader{
		Repo: repo,
	}
}

// Open initializes a read-only, strict Loam repository at dir and wraps it.
func Open(dir string) (*Loader, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	// Strict mode keeps JSON integers as json.Number instead of float64.
	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return New(loam.NewTypedRepository[DefinitionMetadata](repo)), nil
}

// GetDefinition retrieves a definition document by name.
func (l *Loader) GetDefinition(ctx context.Context, name string) (map[string]any, error) {
	doc, err := l.Repo.Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("%w: loam get failed for %s: %v", domain.ErrDefinitionNotFound, name, err)
	}
	return doc.Data.document(), nil
}

// ListDefinitions lists all definition names in the repository.
func (l *Loader) ListDefinitions(ctx context.Context) ([]string, error) {
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string)
	names := make([]string, 0, len(docs))

	for _, doc := range docs {
		rawName := doc.Data.Name
		if rawName == "" {
			rawName = doc.ID
		}
		name := trimExtension(rawName)

		if existingPath, ok := seen[name]; ok {
			return nil, fmt.Errorf("collision detected: definition '%s' is defined in both '%s' and '%s'", name, existingPath, doc.ID)
		}
		seen[name] = doc.ID
		names = append(names, name)
	}
	return names, nil
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}

// Watch implements ports.Watchable.
func (l *Loader) Watch(ctx context.Context) (<-chan string, error) {
	events, err := l.Repo.Watch(ctx, "**/*.{md,json,yaml,yml}")
	if err != nil {
		return nil, fmt.Errorf("failed to start loam watcher: %w", err)
	}

	ch := make(chan string, 1)

	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-events:
				if !ok {
					return
				}
				select {
				case ch <- trimExtension(evt.ID):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return ch, nil
}
