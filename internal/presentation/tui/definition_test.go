package tui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/pipebuilder/pkg/catalog"
)

func TestDefinitionMarkdown(t *testing.T) {
	entry, err := catalog.Decode("connector-definitions/ai-openai", map[string]any{
		"component_specification": map[string]any{
			"type":     "object",
			"required": []any{"input"},
			"properties": map[string]any{
				"input": map[string]any{
					"type":     "object",
					"required": []any{"prompt"},
					"properties": map[string]any{
						"prompt": map[string]any{"type": "string", "instillFormat": "string"},
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
	})
	require.NoError(t, err)

	md := DefinitionMarkdown(entry)
	assert.Contains(t, md, "# connector-definitions/ai-openai")
	assert.Contains(t, md, "| `input.prompt` |")
	assert.Contains(t, md, "## Output of TASK_TEXT_GENERATION")
	assert.Contains(t, md, "| `texts` |")
	assert.Contains(t, md, "array:string")
}

func TestDefinitionMarkdown_FreeForm(t *testing.T) {
	md := DefinitionMarkdown(&catalog.Entry{Name: "operator-definitions/custom"})
	assert.Contains(t, md, "free-form")
	assert.NotContains(t, md, "## Output")
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf)
	assert.Contains(t, buf.String(), "|_|")
}
