package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/pipebuilder/pkg/domain"
	"github.com/aretw0/pipebuilder/pkg/dsl"
)

func build(t *testing.T, b *dsl.Builder) []domain.PipelineNode {
	t.Helper()
	r, err := b.Build()
	require.NoError(t, err)
	return r.Nodes()
}

func TestValidateGraph(t *testing.T) {
	// start -> a -> end
	b := dsl.New()
	b.Start().Field("text", "string", "Text")
	b.Add("a", "operator-definitions/json").Ref("input.json", "start.text")
	b.End().Output("out", "a.output.json")

	report := ValidateGraph(build(t, b), domain.StartNodeID)
	assert.NoError(t, report.Err())
	assert.Empty(t, report.Unreachable)
}

func TestValidateGraph_Dangling(t *testing.T) {
	b := dsl.New()
	b.Start()
	b.Add("a", "operator-definitions/json").
		Ref("input.json", "ghost.output").
		Template("input.note", "{{ phantom.text }}")

	report := ValidateGraph(build(t, b), domain.StartNodeID)
	require.Len(t, report.Dangling, 2)
	assert.Equal(t, "ghost", report.Dangling[0].TargetNodeID)
	assert.Equal(t, "phantom", report.Dangling[1].TargetNodeID)

	err := report.Err()
	assert.ErrorIs(t, err, ErrBrokenGraph)
	assert.Contains(t, err.Error(), "a.input.json references missing component 'ghost'")
}

func TestValidateGraph_Cycle(t *testing.T) {
	b := dsl.New()
	b.Start()
	b.Add("a", "operator-definitions/json").Ref("input.json", "b.output")
	b.Add("b", "operator-definitions/json").Ref("input.json", "a.output")
	b.Add("c", "operator-definitions/json").Ref("input.json", "start.text")

	report := ValidateGraph(build(t, b), domain.StartNodeID)
	assert.Equal(t, []string{"a", "b"}, report.Cycle)
	assert.Equal(t, []string{"a", "b"}, report.Unreachable)
	assert.ErrorIs(t, report.Err(), ErrBrokenGraph)
}

func TestValidateGraph_Unreachable(t *testing.T) {
	b := dsl.New()
	b.Start()
	b.Add("island", "operator-definitions/json").Set("input.json", "literal")

	report := ValidateGraph(build(t, b), domain.StartNodeID)
	assert.NoError(t, report.Err())
	assert.Equal(t, []string{"island"}, report.Unreachable)
}
