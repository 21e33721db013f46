package dsl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/pipebuilder/pkg/domain"
	"github.com/aretw0/pipebuilder/pkg/graph"
)

func TestBuilder_SimplePipeline(t *testing.T) {
	b := New()

	b.Start().Field("text", "string", "Text")

	b.Add("ai_openai_0", "connector-definitions/ai-openai").
		Task("TASK_TEXT_GENERATION").
		Ref("input.prompt", "start.text").
		Template("input.system", "You answer {{ start.text }} briefly").
		Resource("connectors/openai").
		Note("drafts the answer")

	b.End().Output("answer", "ai_openai_0.output.texts")

	recipe, err := b.Build()
	require.NoError(t, err)
	require.Len(t, recipe.Components, 3)
	assert.Equal(t, domain.RecipeVersion, recipe.Version)
	assert.NotEmpty(t, recipe.UID)

	ids := []string{recipe.Components[0].ID, recipe.Components[1].ID, recipe.Components[2].ID}
	assert.Equal(t, []string{"start", "ai_openai_0", "end"}, ids, "components keep insertion order")

	ai := recipe.Components[1]
	assert.Equal(t, "connectors/openai", ai.ResourceName)
	assert.Equal(t, "drafts the answer", ai.Note)
	assert.Equal(t, "TASK_TEXT_GENERATION", ai.Configuration["task"])
	input := ai.Configuration["input"].(map[string]any)
	assert.Equal(t, "{ start.text }", input["prompt"])

	metadata := recipe.Components[0].Configuration["metadata"].(map[string]any)
	text := metadata["text"].(map[string]any)
	assert.Equal(t, "string", text["type"])

	edges := graph.ComposeFromNodes(recipe.Nodes())
	require.Len(t, edges, 2)
	assert.Equal(t, domain.EdgeID("ai_openai_0", "end"), edges[0].ID)
	assert.Equal(t, domain.EdgeID("start", "ai_openai_0"), edges[1].ID)
}

func TestBuilder_NodeTypes(t *testing.T) {
	b := New()
	b.Add("json_0", "operator-definitions/json")
	b.Add("http_0", "connector-definitions/http")

	recipe, err := b.Build()
	require.NoError(t, err)

	nodes := recipe.Nodes()
	assert.Equal(t, domain.NodeTypeOperator, nodes[0].NodeType)
	assert.Equal(t, domain.NodeTypeConnector, nodes[1].NodeType)
}

func TestBuilder_AddIsIdempotent(t *testing.T) {
	b := New()
	b.Add("a", "operator-definitions/json").Set("input.x", 1)
	b.Add("a", "operator-definitions/json").Set("input.y", 2)

	recipe, err := b.Build()
	require.NoError(t, err)
	require.Len(t, recipe.Components, 1)
	input := recipe.Components[0].Configuration["input"].(map[string]any)
	assert.Equal(t, 1, input["x"])
	assert.Equal(t, 2, input["y"])
}

func TestBuilder_InvalidID(t *testing.T) {
	b := New()
	b.Add("Not Valid", "operator-definitions/json")

	_, err := b.Build()
	assert.ErrorIs(t, err, domain.ErrInvalidRecipe)
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}

func TestFieldType(t *testing.T) {
	tests := map[string]string{
		"string":       "string",
		"array:string": "array",
		"number":       "number",
		"image/*":      "string",
		"boolean":      "boolean",
	}
	for format, want := range tests {
		assert.Equal(t, want, fieldType(format), format)
	}
}
