package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/pipebuilder/pkg/adapters/memory"
	"github.com/aretw0/pipebuilder/pkg/domain"
	contract "github.com/aretw0/pipebuilder/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryLoader_Contract(t *testing.T) {
	loader, err := memory.NewLoader(map[string]string{
		"operator-definitions/start":     `{"type": "object"}`,
		"connector-definitions/ai-openai": `{"type": "object", "oneOf": []}`,
	})
	require.NoError(t, err)

	contract.DefinitionSourceContractTest(t, loader, map[string]string{
		"operator-definitions/start":     "object",
		"connector-definitions/ai-openai": "object",
	})
}

func TestInMemoryLoader_InvalidJSON(t *testing.T) {
	_, err := memory.NewLoader(map[string]string{"bad": "{"})
	assert.Error(t, err)
}

func TestInMemoryLoader_ReturnsCopies(t *testing.T) {
	loader := memory.NewFromSpecs(map[string]map[string]any{
		"operator-definitions/start": {"type": "object"},
	})
	ctx := context.Background()

	spec, err := loader.GetDefinition(ctx, "operator-definitions/start")
	require.NoError(t, err)
	spec["type"] = "string"

	again, err := loader.GetDefinition(ctx, "operator-definitions/start")
	require.NoError(t, err)
	assert.Equal(t, "object", again["type"])

	_, err = loader.GetDefinition(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrDefinitionNotFound)
}
