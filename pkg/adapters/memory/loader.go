package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/pipebuilder/pkg/domain"
)

// Loader implements ports.DefinitionSource using an in-memory map.
type Loader struct {
	mu   sync.RWMutex
	defs map[string]map[string]any
}

// NewLoader creates a new memory Loader from raw JSON component specifications keyed by definition name.
func NewLoader(data map[string]string) (*Loader, error) {
	defs := make(map[string]map[string]any, len(data))
	for name, raw := range data {
		var spec map[string]any
		if err := json.Unmarshal([]byte(raw), &spec); err != nil {
			return nil, fmt.Errorf("failed to parse definition %s: %w", name, err)
		}
		defs[name] = spec
	}
	return &Loader{defs: defs}, nil
}

// NewFromSpecs creates a new memory Loader from already decoded specifications.
// The maps are copied.
func NewFromSpecs(specs map[string]map[string]any) *Loader {
	defs := make(map[string]map[string]any, len(specs))
	for name, spec := range specs {
		defs[name] = domain.CloneMap(spec)
	}
	return &Loader{defs: defs}
}

// Put adds or replaces a definition.
func (l *Loader) Put(name string, spec map[string]any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.defs[name] = domain.CloneMap(spec)
}

// GetDefinition returns a copy of the specification registered under name.
func (l *Loader) GetDefinition(_ context.Context, name string) (map[string]any, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	spec, ok := l.defs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrDefinitionNotFound, name)
	}
	return domain.CloneMap(spec), nil
}

// ListDefinitions returns all available definition names.
func (l *Loader) ListDefinitions(_ context.Context) ([]string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	keys := make([]string, 0, len(l.defs))
	for k := range l.defs {
		keys = append(keys, k)
	}
	sort.Strings(keys) // Deterministic order
	return keys, nil
}
