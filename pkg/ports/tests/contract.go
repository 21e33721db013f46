package tests

import (
	"context"
	"testing"

	"github.com/aretw0/pipebuilder/pkg/ports"
)

// DefinitionSourceContractTest is a reusable test suite that verifies if an adapter complies with ports.DefinitionSource.
// setupData maps each definition name to the "type" of its component specification.
func DefinitionSourceContractTest(t *testing.T, source ports.DefinitionSource, setupData map[string]string) {
	t.Helper()
	ctx := context.Background()

	t.Run("GetDefinition_Success", func(t *testing.T) {
		for name, wantType := range setupData {
			spec, err := source.GetDefinition(ctx, name)
			if err != nil {
				t.Fatalf("unexpected error getting definition %s: %v", name, err)
			}
			if got, _ := spec["type"].(string); got != wantType {
				t.Errorf("type mismatch for %s. got %q, want %q", name, got, wantType)
			}
		}
	})

	t.Run("GetDefinition_NotFound", func(t *testing.T) {
		_, err := source.GetDefinition(ctx, "connector-definitions/non-existent")
		if err == nil {
			t.Error("expected error for non-existent definition, got nil")
		}
	})

	t.Run("ListDefinitions", func(t *testing.T) {
		names, err := source.ListDefinitions(ctx)
		if err != nil {
			t.Fatalf("unexpected error listing definitions: %v", err)
		}

		if len(names) != len(setupData) {
			t.Errorf("expected %d definitions, got %d", len(setupData), len(names))
		}

		lookup := make(map[string]bool)
		for _, name := range names {
			lookup[name] = true
		}
		for name := range setupData {
			if !lookup[name] {
				t.Errorf("definition %s missing from list", name)
			}
		}
	})
}
