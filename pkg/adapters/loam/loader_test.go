package loam

import (
	"context"
	"testing"

	"github.com/aretw0/loam"
	"github.com/aretw0/pipebuilder/internal/testutils"
	"github.com/aretw0/pipebuilder/pkg/catalog"
	"github.com/aretw0/pipebuilder/pkg/domain"
	"github.com/aretw0/pipebuilder/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader_Contract(t *testing.T) {
	_, repo := testutils.SetupDefinitionsRepo(t, map[string]string{
		"operator-definitions/start.yaml": "type: object\nproperties:\n  metadata:\n    type: object\n",
		"connector-definitions/ai-openai.json": `{
  "component_specification": {"type": "object", "required": ["task"]}
}`,
	})

	loader := New(loam.NewTypedRepository[DefinitionMetadata](repo))

	tests.DefinitionSourceContractTest(t, bareTypes{loader}, map[string]string{
		"operator-definitions/start":      "object",
		"connector-definitions/ai-openai": "object",
	})
}

// bareTypes exposes the component specification of full documents so the
// contract can check the "type" key of both shapes.
type bareTypes struct{ *Loader }

func (b bareTypes) GetDefinition(ctx context.Context, name string) (map[string]any, error) {
	doc, err := b.Loader.GetDefinition(ctx, name)
	if err != nil {
		return nil, err
	}
	if cs, ok := doc["component_specification"].(map[string]any); ok {
		return cs, nil
	}
	return doc, nil
}

func TestLoader_ListDefinitions_DetectsCollisions(t *testing.T) {
	_, repo := testutils.SetupDefinitionsRepo(t, map[string]string{
		"foo.yaml": "type: object\n",
		"foo.json": `{"type": "object"}`,
	})

	loader := New(loam.NewTypedRepository[DefinitionMetadata](repo))

	_, err := loader.ListDefinitions(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "collision detected")
	assert.Contains(t, err.Error(), "foo")
}

func TestLoader_NameOverride(t *testing.T) {
	_, repo := testutils.SetupDefinitionsRepo(t, map[string]string{
		"openai.yaml": "name: connector-definitions/ai-openai\ntype: object\n",
	})

	loader := New(loam.NewTypedRepository[DefinitionMetadata](repo))

	names, err := loader.ListDefinitions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"connector-definitions/ai-openai"}, names)
}

func TestLoader_MissingDefinition(t *testing.T) {
	_, repo := testutils.SetupDefinitionsRepo(t, nil)
	loader := New(loam.NewTypedRepository[DefinitionMetadata](repo))

	_, err := loader.GetDefinition(context.Background(), "connector-definitions/none")
	assert.ErrorIs(t, err, domain.ErrDefinitionNotFound)
}

func TestLoader_FeedsCatalog(t *testing.T) {
	_, repo := testutils.SetupDefinitionsRepo(t, map[string]string{
		"connector-definitions/ai-openai.yaml": `
component_specification:
  type: object
  required: [task]
  oneOf:
    - properties:
        task:
          const: TASK_TEXT_GENERATION
        input:
          type: object
          required: [prompt]
          properties:
            prompt:
              type: string
data_specifications:
  TASK_TEXT_GENERATION:
    output:
      type: object
      properties:
        texts:
          type: array
          instillFormat: array:string
`,
	})

	c := catalog.New(New(loam.NewTypedRepository[DefinitionMetadata](repo)))
	e := c.Entry(context.Background(), "connector-definitions/ai-openai")
	require.NotNil(t, e)
	assert.Equal(t, []string{"task"}, e.Component.Required)
	require.Len(t, e.Component.OneOf, 1)
	require.NotNil(t, e.Output("TASK_TEXT_GENERATION"))
	assert.Equal(t, "array:string", e.Output("TASK_TEXT_GENERATION").Properties["texts"].InstillFormat)
}
