package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/pipebuilder/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contractRecipe() *domain.Recipe {
	return domain.NewRecipe([]domain.PipelineNode{
		{ID: domain.StartNodeID, NodeType: domain.NodeTypeOperator, DefinitionName: "operator-definitions/start",
			Configuration: map[string]any{"metadata": map[string]any{"text": map[string]any{"type": "text"}}}},
		{ID: "ai_0", NodeType: domain.NodeTypeConnector, DefinitionName: "connector-definitions/ai-openai",
			Configuration: map[string]any{"task": "TASK_TEXT_GENERATION", "input": map[string]any{"prompt": "{ start.text }"}}},
	})
}

// RunRecipeStoreContract runs a suite of tests to verify that a RecipeStore implementation
// adheres to the defined interface contract.
func RunRecipeStoreContract(t *testing.T, store RecipeStore) {
	ctx := context.Background()
	pipelineID := "contract-test-pipeline-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		recipe := contractRecipe()

		err := store.Save(ctx, pipelineID, recipe)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, pipelineID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, recipe.UID, loaded.UID)
		assert.Equal(t, recipe.Version, loaded.Version)
		require.Len(t, loaded.Components, 2)
		assert.Equal(t, "ai_0", loaded.Components[1].ID)
		input, _ := loaded.Components[1].Configuration["input"].(map[string]any)
		assert.Equal(t, "{ start.text }", input["prompt"])
	})

	t.Run("Load Returns A Copy", func(t *testing.T) {
		loaded, err := store.Load(ctx, pipelineID)
		require.NoError(t, err)
		loaded.Components[1].Configuration["task"] = "MUTATED"

		again, err := store.Load(ctx, pipelineID)
		require.NoError(t, err)
		assert.Equal(t, "TASK_TEXT_GENERATION", again.Components[1].Configuration["task"])
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+pipelineID)
		assert.ErrorIs(t, err, domain.ErrPipelineNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, pipelineID, contractRecipe())
		require.NoError(t, err)

		err = store.Delete(ctx, pipelineID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, pipelineID)
		assert.ErrorIs(t, err, domain.ErrPipelineNotFound, "Load after Delete should return ErrPipelineNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := pipelineID + "-1"
		id2 := pipelineID + "-2"
		_ = store.Save(ctx, id1, contractRecipe())
		_ = store.Save(ctx, id2, contractRecipe())

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		pipelines, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, pipelines, id1)
		assert.Contains(t, pipelines, id2)
	})
}
