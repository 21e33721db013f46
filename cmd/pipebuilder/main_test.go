package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/pipebuilder/internal/config"
	"github.com/aretw0/pipebuilder/internal/logging"
	"github.com/aretw0/pipebuilder/internal/validator"
	"github.com/aretw0/pipebuilder/pkg/adapters/memory"
	"github.com/aretw0/pipebuilder/pkg/catalog"
	"github.com/aretw0/pipebuilder/pkg/domain"
	"github.com/aretw0/pipebuilder/pkg/session"
)

const openaiDefinition = "connector-definitions/ai-openai"

const recipeYAML = `version: v1beta
components:
  - id: start
    definition_name: operator-definitions/start
    configuration:
      metadata:
        text:
          type: text
  - id: ai_openai_0
    definition_name: connector-definitions/ai-openai
    configuration:
      input:
        prompt: "{ start.text }"
  - id: end
    definition_name: operator-definitions/end
    configuration:
      input:
        answer: "{ ai_openai_0.output.texts }"
`

func testCatalog() *catalog.Catalog {
	return catalog.New(memory.NewFromSpecs(map[string]map[string]any{
		openaiDefinition: {
			"type":     "object",
			"required": []any{"input"},
			"properties": map[string]any{
				"input": map[string]any{
					"type":     "object",
					"required": []any{"prompt"},
					"properties": map[string]any{
						"prompt": map[string]any{
							"type": "string",
							"anyOf": []any{
								map[string]any{"type": "string", "instillUpstreamType": "value"},
								map[string]any{"type": "string", "instillUpstreamType": "reference"},
							},
						},
					},
				},
			},
		},
	}))
}

func writeRecipe(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "recipe.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func loadTestRecipe(t *testing.T) *domain.Recipe {
	t.Helper()
	r, err := readRecipe(writeRecipe(t, recipeYAML))
	require.NoError(t, err)
	return r
}

func TestReadRecipe(t *testing.T) {
	r := loadTestRecipe(t)
	require.Len(t, r.Components, 3)
	assert.Equal(t, "ai_openai_0", r.Components[1].ID)

	_, err := readRecipe(writeRecipe(t, "components: []\n"))
	assert.ErrorIs(t, err, domain.ErrInvalidRecipe)

	_, err = readRecipe(writeRecipe(t, "components: [unclosed\n"))
	assert.ErrorIs(t, err, domain.ErrInvalidRecipe)

	_, err = readRecipe(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestRunValidate(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runValidate(context.Background(), testCatalog(), loadTestRecipe(t), &out))
	assert.Contains(t, out.String(), "Pipeline is valid!")

	r := loadTestRecipe(t)
	r.Components[1].Configuration = map[string]any{"input": map[string]any{}}
	out.Reset()
	err := runValidate(context.Background(), testCatalog(), r, &out)
	assert.ErrorIs(t, err, errInvalidPipeline)
	assert.Contains(t, out.String(), "ai_openai_0: input.prompt:")
}

func TestRunGraph(t *testing.T) {
	ctx := context.Background()

	var out bytes.Buffer
	require.NoError(t, runGraph(ctx, testCatalog(), loadTestRecipe(t), "mermaid", &out))
	assert.Contains(t, out.String(), "start --> ai_openai_0")
	assert.Contains(t, out.String(), "ai_openai_0 --> end")

	out.Reset()
	require.NoError(t, runGraph(ctx, testCatalog(), loadTestRecipe(t), "dot", &out))
	assert.Contains(t, out.String(), `"start"->"ai_openai_0"`)

	assert.Error(t, runGraph(ctx, testCatalog(), loadTestRecipe(t), "svg", &out))
}

func TestRunInspect(t *testing.T) {
	ctx := context.Background()
	plain := func(md string) (string, error) { return md, nil }

	var out bytes.Buffer
	require.NoError(t, runInspect(ctx, testCatalog(), openaiDefinition, plain, &out))
	assert.Contains(t, out.String(), "`input.prompt`")

	assert.Error(t, runInspect(ctx, testCatalog(), "connector-definitions/missing", plain, &out))

	out.Reset()
	require.NoError(t, runList(ctx, testCatalog(), &out))
	assert.Equal(t, openaiDefinition+"\n", out.String())
}

func TestPipelinesCommands(t *testing.T) {
	ctx := context.Background()
	sessions := session.NewManager(memory.NewStore())
	var out bytes.Buffer

	require.NoError(t, runPipelinesList(ctx, sessions, &out))
	assert.Contains(t, out.String(), "No pipelines found.")

	out.Reset()
	require.NoError(t, runPipelinesPut(ctx, sessions, testCatalog(), "demo", loadTestRecipe(t), &out))
	assert.Contains(t, out.String(), "Stored pipeline 'demo'")

	assert.Error(t, runPipelinesPut(ctx, sessions, testCatalog(), "Bad ID", loadTestRecipe(t), &out))

	out.Reset()
	require.NoError(t, runPipelinesList(ctx, sessions, &out))
	assert.Contains(t, out.String(), "- demo")

	out.Reset()
	require.NoError(t, runPipelinesShow(ctx, sessions, "demo", &out))
	assert.Contains(t, out.String(), `"ai_openai_0"`)

	out.Reset()
	require.NoError(t, runPipelinesRemove(ctx, sessions, []string{"demo"}, &out))
	assert.Contains(t, out.String(), "Removed pipeline 'demo'")

	assert.ErrorIs(t, runPipelinesShow(ctx, sessions, "demo", &out), domain.ErrPipelineNotFound)
}

func TestNewSource_FreeForm(t *testing.T) {
	src, err := newSource(&config.Config{}, logging.NewNop())
	require.NoError(t, err)

	names, err := src.ListDefinitions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestAppSessions_Encrypted(t *testing.T) {
	a := &app{
		cfg: &config.Config{
			Store: config.StoreConfig{Driver: config.StoreMemory},
			Security: config.SecurityConfig{
				EncryptionKey: "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA=",
				MaskKeys:      []string{"api_key"},
			},
		},
		logger: logging.NewNop(),
	}
	sessions, err := a.sessions()
	require.NoError(t, err)

	ctx := context.Background()
	r := loadTestRecipe(t)
	r.Components[1].Configuration["api_key"] = "sk-secret"
	require.NoError(t, sessions.Save(ctx, "secure", r))

	raw, err := sessions.Store().Load(ctx, "secure")
	require.NoError(t, err)
	assert.Equal(t, "ai_openai_0", raw.Components[1].ID)
	assert.Equal(t, "***", raw.Components[1].Configuration["api_key"])
}

func TestRunValidate_BrokenGraph(t *testing.T) {
	r := loadTestRecipe(t)
	r.Components[1].Configuration["input"] = map[string]any{"prompt": "{ ghost.text }"}

	var out bytes.Buffer
	err := runValidate(context.Background(), testCatalog(), r, &out)
	assert.ErrorIs(t, err, validator.ErrBrokenGraph)
	assert.Contains(t, out.String(), "warning: ai_openai_0 is not connected to start")
}
