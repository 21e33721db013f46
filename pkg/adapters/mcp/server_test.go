package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/pipebuilder/pkg/adapters/memory"
	"github.com/aretw0/pipebuilder/pkg/catalog"
	"github.com/aretw0/pipebuilder/pkg/domain"
	"github.com/aretw0/pipebuilder/pkg/session"
)

const openaiDefinition = "connector-definitions/ai-openai"

func openaiSpec() map[string]any {
	return map[string]any{
		"component_specification": map[string]any{
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
		"data_specifications": map[string]any{
			"TASK_TEXT_GENERATION": map[string]any{
				"output": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"texts": map[string]any{"type": "array", "instillFormat": "array:string"},
					},
				},
			},
		},
	}
}

func newServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	cat := catalog.New(memory.NewFromSpecs(map[string]map[string]any{openaiDefinition: openaiSpec()}))
	return NewServer(cat, opts...)
}

func components(t *testing.T, extra ...domain.RecipeComponent) string {
	t.Helper()
	r := session.NewPipelineRecipe()
	r.Components = append(r.Components, domain.RecipeComponent{
		ID:             "ai_openai_0",
		DefinitionName: openaiDefinition,
		Configuration:  map[string]any{"input": map[string]any{"prompt": "{ start.text }"}},
	})
	r.Components = append(r.Components, extra...)
	data, err := json.Marshal(r.Components)
	require.NoError(t, err)
	return string(data)
}

func TestValidateConfiguration(t *testing.T) {
	s := newServer(t)
	ctx := context.Background()

	res, err := s.handleValidate(ctx, mcp.CallToolRequest{}, map[string]interface{}{
		"definition_name": openaiDefinition,
		"configuration":   `{"input": {}}`,
	})
	require.NoError(t, err)
	assert.False(t, res.Valid)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "input.prompt", res.Errors[0].Path)

	res, err = s.handleValidate(ctx, mcp.CallToolRequest{}, map[string]interface{}{
		"definition_name": openaiDefinition,
		"configuration":   `{"input": {"prompt": "{ start.text }"}}`,
	})
	require.NoError(t, err)
	assert.True(t, res.Valid)
}

func TestValidateConfiguration_UnknownDefinition(t *testing.T) {
	s := newServer(t)

	res, err := s.handleValidate(context.Background(), mcp.CallToolRequest{}, map[string]interface{}{
		"definition_name": "connector-definitions/missing",
		"configuration":   `{"anything": 1}`,
	})
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.True(t, res.FreeForm)
}

func TestValidateConfiguration_BadJSON(t *testing.T) {
	s := newServer(t)

	_, err := s.handleValidate(context.Background(), mcp.CallToolRequest{}, map[string]interface{}{
		"definition_name": openaiDefinition,
		"configuration":   `not json`,
	})
	assert.Error(t, err)
}

func TestExtractReferences(t *testing.T) {
	s := newServer(t)

	res, err := s.handleReferences(context.Background(), mcp.CallToolRequest{}, map[string]interface{}{
		"components": components(t),
	})
	require.NoError(t, err)
	require.Len(t, res.References, 1)
	assert.Equal(t, "start", res.References[0].TargetNodeID)
	require.Len(t, res.Edges, 1)
	assert.Equal(t, "ai_openai_0", res.Edges[0].Target)
}

func TestComposeGraph(t *testing.T) {
	s := newServer(t)

	res, err := s.handleCompose(context.Background(), mcp.CallToolRequest{}, map[string]interface{}{
		"components": components(t),
	})
	require.NoError(t, err)
	assert.Len(t, res.Graph.Nodes, 3)
	assert.Contains(t, res.Mermaid, "start --> ai_openai_0")

	_, err = s.handleCompose(context.Background(), mcp.CallToolRequest{}, map[string]interface{}{
		"components": `{"not": "an array"}`,
	})
	assert.Error(t, err)
}

func TestListHints(t *testing.T) {
	s := newServer(t)
	comps := components(t, domain.RecipeComponent{
		ID:             "ai_openai_1",
		DefinitionName: openaiDefinition,
		Configuration:  map[string]any{},
	})

	res, err := s.handleHints(context.Background(), mcp.CallToolRequest{}, map[string]interface{}{
		"components": comps,
		"node_id":    "ai_openai_1",
	})
	require.NoError(t, err)
	require.Len(t, res.Hints, 1)
	assert.Equal(t, "ai_openai_0.output.texts", res.Hints[0].Path)

	res, err = s.handleHints(context.Background(), mcp.CallToolRequest{}, map[string]interface{}{
		"components": comps,
		"node_id":    "ai_openai_1",
		"query":      "nothing",
	})
	require.NoError(t, err)
	assert.Empty(t, res.Hints)
}

func TestServer_Tools(t *testing.T) {
	plain := newServer(t)
	assert.Nil(t, plain.MCPServer().GetTool("get_pipeline"))
	assert.NotNil(t, plain.MCPServer().GetTool("compose_graph"))

	withSessions := newServer(t, WithSessions(session.NewManager(memory.NewStore())))
	assert.NotNil(t, withSessions.MCPServer().GetTool("get_pipeline"))
}
