package graph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/pipebuilder/pkg/domain"
)

func pipeline() []domain.PipelineNode {
	return []domain.PipelineNode{
		{ID: "start", NodeType: domain.NodeTypeOperator, Configuration: map[string]any{}},
		{ID: "openai_0", NodeType: domain.NodeTypeConnector, ResourceName: "users/me/connectors/openai", Configuration: map[string]any{
			"task":  "TASK_TEXT_GENERATION",
			"input": map[string]any{"prompt": "{ start.text }", "system_message": "{{ start.system }}"},
		}},
		{ID: "end", NodeType: domain.NodeTypeOperator, Configuration: map[string]any{
			"input": map[string]any{
				"answer": "{ openai_0.output.texts }",
				"again":  "{ openai_0.output.texts[0] }",
				"self":   "{ end.input }",
				"ghost":  "{ missing.output }",
			},
		}},
	}
}

func TestComposeFromNodes(t *testing.T) {
	edges := ComposeFromNodes(pipeline())
	assert.Equal(t, []domain.PipelineEdge{
		{ID: "edge-openai_0-end", Source: "openai_0", Target: "end"},
		{ID: "edge-start-openai_0", Source: "start", Target: "openai_0"},
	}, edges)

	// Idempotent
	assert.Equal(t, edges, ComposeFromNodes(pipeline()))
}

func TestCompose_TemplatesOnly(t *testing.T) {
	nodes := []domain.PipelineNode{
		{ID: "start", Configuration: map[string]any{}},
		{ID: "a", Configuration: map[string]any{"p": "Hi {{ start.name }}"}},
	}
	assert.Empty(t, ComposeFromNodes(nodes))
}

func TestRename(t *testing.T) {
	nodes := pipeline()

	out, edges, err := Rename(nodes, "openai_0", "writer")
	require.NoError(t, err)

	assert.Equal(t, "writer", out[1].ID)
	assert.Equal(t, "{ writer.output.texts }", out[2].Configuration["input"].(map[string]any)["answer"])
	assert.Equal(t, []domain.PipelineEdge{
		domain.NewEdge("start", "writer"),
		domain.NewEdge("writer", "end"),
	}, edges)

	// Inputs untouched
	assert.Equal(t, "openai_0", nodes[1].ID)
	assert.Equal(t, "{ openai_0.output.texts }", nodes[2].Configuration["input"].(map[string]any)["answer"])
}

func TestRename_StartRewritesTemplates(t *testing.T) {
	out, _, err := Rename(pipeline(), "start", "begin")
	require.NoError(t, err)
	in := out[1].Configuration["input"].(map[string]any)
	assert.Equal(t, "{ begin.text }", in["prompt"])
	assert.Equal(t, "{{ begin.system }}", in["system_message"])
}

func TestRename_Errors(t *testing.T) {
	nodes := pipeline()

	_, _, err := Rename(nodes, "openai_0", "end")
	var collision *domain.IdentifierCollisionError
	require.True(t, errors.As(err, &collision))
	assert.Equal(t, "end", collision.ID)

	_, _, err = Rename(nodes, "openai_0", "Bad Id")
	assert.ErrorIs(t, err, domain.ErrInvalidID)

	_, _, err = Rename(nodes, "nope", "fine")
	assert.ErrorIs(t, err, domain.ErrNodeNotFound)

	assert.Equal(t, pipeline(), nodes)
}

func TestCopy(t *testing.T) {
	nodes := pipeline()
	nodes = append(nodes, domain.PipelineNode{ID: "openai_3", Configuration: map[string]any{}})

	out, c, err := Copy(nodes, "openai_0", "openai")
	require.NoError(t, err)
	assert.Equal(t, "openai_4", c.ID)
	assert.Empty(t, c.ResourceName)
	assert.Len(t, out, len(nodes)+1)
	assert.Equal(t, nodes[1].Configuration, c.Configuration)

	_, _, err = Copy(nodes, "nope", "x")
	assert.ErrorIs(t, err, domain.ErrNodeNotFound)
}

func TestDelete(t *testing.T) {
	out, edges, err := Delete(pipeline(), "openai_0")
	require.NoError(t, err)
	assert.Equal(t, []string{"start", "end"}, domain.NodeIDs(out))
	assert.Empty(t, edges)
}

func TestNextComponentIndex(t *testing.T) {
	assert.Equal(t, 0, NextComponentIndex(nil, "openai"))
	assert.Equal(t, 3, NextComponentIndex([]string{"openai_0", "openai_2", "openai_x", "json_9"}, "openai"))
}

func TestIDPrefix(t *testing.T) {
	assert.Equal(t, "ai_openai", IDPrefix("connector-definitions/ai-openai"))
	assert.Equal(t, "json", IDPrefix("operator-definitions/json"))
	assert.Equal(t, "component", IDPrefix(""))
}

func TestOrder(t *testing.T) {
	nodes := pipeline()
	// declare end first to prove ordering ignores declaration when edges exist
	nodes[0], nodes[2] = nodes[2], nodes[0]
	edges := ComposeFromNodes(nodes)

	assert.Equal(t, []string{"start", "openai_0", "end"}, Order(nodes, edges))
	assert.Equal(t, 2, Positions(nodes, edges)["end"])
}

func TestOrder_Cycle(t *testing.T) {
	nodes := []domain.PipelineNode{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	edges := []domain.PipelineEdge{domain.NewEdge("a", "b"), domain.NewEdge("b", "a")}
	assert.Equal(t, []string{"c", "a", "b"}, Order(nodes, edges))
}
