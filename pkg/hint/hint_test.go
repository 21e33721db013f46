package hint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/pipebuilder/pkg/domain"
	"github.com/aretw0/pipebuilder/pkg/schema"
)

func intPtr(i int) *int { return &i }

func sampleHints() []domain.SmartHint {
	return []domain.SmartHint{
		{ComponentID: "openai_0", Path: "openai_0.output.texts", Key: "texts", InstillFormat: "array:text"},
		{ComponentID: "start", Path: "start.prompt", Key: "prompt", InstillFormat: "text"},
		{ComponentID: "start", Path: "start.photo", Key: "photo", InstillFormat: "image/png"},
		{ComponentID: "json_0", Path: "json_0.output.text", Key: "text", InstillFormat: "text"},
		{ComponentID: "start", Path: "start.Title", Key: "Title", InstillFormat: "text"},
	}
}

var order = map[string]int{"start": 0, "openai_0": 1, "json_0": 2}

func paths(hints []domain.SmartHint) []string {
	out := make([]string, len(hints))
	for i, h := range hints {
		out[i] = h.Path
	}
	return out
}

func TestFilter_FormatAndSelf(t *testing.T) {
	got := Filter(sampleHints(), []string{"text"}, nil, nil, "", "json_0", order)
	assert.Equal(t, []string{"start.prompt", "start.Title"}, paths(got))
}

func TestFilter_Wildcards(t *testing.T) {
	got := Filter(sampleHints(), []string{"image/*"}, nil, nil, "", "x", order)
	assert.Equal(t, []string{"start.photo"}, paths(got))

	got = Filter(sampleHints(), []string{"*/*"}, nil, nil, "", "x", order)
	assert.Len(t, got, 5)

	got = Filter(sampleHints(), nil, nil, nil, "", "x", order)
	assert.Len(t, got, 5)
}

func TestFilter_OrderByTopology(t *testing.T) {
	got := Filter(sampleHints(), []string{"*"}, nil, nil, "", "x", order)
	assert.Equal(t, []string{"start.prompt", "start.photo", "start.Title", "openai_0.output.texts", "json_0.output.text"}, paths(got))
}

func TestFilter_TypedQuery(t *testing.T) {
	value := "Hello { TIT"
	got := Filter(sampleHints(), []string{"text"}, intPtr(11), intPtr(7), value, "x", order)
	assert.Equal(t, []string{"start.Title"}, paths(got))

	// cursor before trigger does not narrow
	got = Filter(sampleHints(), []string{"text"}, intPtr(3), intPtr(7), value, "x", order)
	assert.Len(t, got, 3)
}

func TestAccepts(t *testing.T) {
	assert.True(t, Accepts(nil, "text"))
	assert.True(t, Accepts([]string{"*"}, "audio"))
	assert.True(t, Accepts([]string{"audio/*"}, "audio"))
	assert.True(t, Accepts([]string{"audio/*"}, "audio/wav"))
	assert.False(t, Accepts([]string{"audio/*"}, "image/png"))
	assert.False(t, Accepts([]string{"text"}, "number"))
}

func TestSession_Lifecycle(t *testing.T) {
	s := NewSession(sampleHints(), []string{"text"}, []domain.UpstreamType{domain.UpstreamValue, domain.UpstreamReference}, "json_0", order)
	assert.Equal(t, StateIdle, s.State())
	assert.Nil(t, s.Candidates())

	s.Input("{", 1)
	assert.Equal(t, StateArmed, s.State())
	assert.Equal(t, []string{"start.prompt", "start.Title"}, paths(s.Candidates()))

	s.Input("{ ti", 4)
	assert.Equal(t, StateArmed, s.State())
	require.Len(t, s.Candidates(), 1)

	s.Input("{ ", 2)
	s.Next()
	assert.Equal(t, StateSelecting, s.State())
	assert.Equal(t, 1, s.Highlighted())
	s.Next()
	assert.Equal(t, 0, s.Highlighted(), "highlight wraps")
	s.Prev()
	assert.Equal(t, 1, s.Highlighted())

	value, cursor, ok := s.Commit()
	require.True(t, ok)
	assert.Equal(t, "{ start.Title }", value)
	assert.Equal(t, 15, cursor)
	assert.Equal(t, StateCommitted, s.State())

	s.Input(value+"x", cursor+1)
	assert.Equal(t, StateIdle, s.State())
}

func TestSession_TemplateInsideText(t *testing.T) {
	s := NewSession(sampleHints(), []string{"text"}, []domain.UpstreamType{domain.UpstreamValue, domain.UpstreamReference, domain.UpstreamTemplate}, "json_0", order)

	s.Input("Say {{pro}} now", 6)
	assert.Equal(t, StateArmed, s.State())
	s.Input("Say {{pro}} now", 9)

	value, _, ok := s.Commit()
	require.True(t, ok)
	assert.Equal(t, "Say {{ start.prompt }} now", value)
}

func TestSession_Cancel(t *testing.T) {
	newArmed := func() *Session {
		s := NewSession(sampleHints(), nil, nil, "x", order)
		s.Input("abc {", 5)
		require.Equal(t, StateArmed, s.State())
		return s
	}

	s := newArmed()
	s.Escape()
	assert.Equal(t, StateIdle, s.State())
	value, _, ok := s.Commit()
	assert.False(t, ok)
	assert.Equal(t, "abc {", value, "cancel does not mutate the field")

	s = newArmed()
	s.Blur()
	assert.Equal(t, StateIdle, s.State())

	s = newArmed()
	s.MoveCursor(2)
	assert.Equal(t, StateIdle, s.State())

	s = newArmed()
	s.Input("abc", 3)
	assert.Equal(t, StateIdle, s.State())
}

func TestFromNodes(t *testing.T) {
	nodes := []domain.PipelineNode{
		{ID: "start", Configuration: map[string]any{"metadata": map[string]any{
			"prompt": map[string]any{"instillFormat": "text", "type": "string"},
			"image":  map[string]any{"instillFormat": "image/*"},
		}}},
		{ID: "openai_0", Configuration: map[string]any{}},
		{ID: "json_0", Configuration: map[string]any{}},
	}
	outputs := map[string]*schema.Schema{
		"openai_0": {Properties: map[string]*schema.Schema{
			"texts": {Type: "array", InstillFormat: "array:text"},
			"usage": {Properties: map[string]*schema.Schema{"tokens": {Type: "integer", InstillFormat: "number"}}},
		}},
	}

	hints := FromNodes(nodes, outputs)
	assert.Equal(t, []string{"start.image", "start.prompt", "openai_0.output.texts", "openai_0.output.usage.tokens"}, paths(hints))
	assert.Equal(t, "text", hints[1].InstillFormat)
	assert.Equal(t, "start", hints[1].ComponentID)
}

func TestCheck(t *testing.T) {
	hints := sampleHints()

	assert.Nil(t, Check(hints, "{ start.prompt }"))
	assert.Nil(t, Check(hints, "{ openai_0.output.texts[0] }"))
	assert.Nil(t, Check(hints, "plain text"))

	w := Check(hints, "Hi {{ start.prompt }} and {{ start.missing }}")
	require.NotNil(t, w)
	assert.Equal(t, domain.ReferenceKindTemplate, w.Kind)
	assert.Equal(t, "start.missing", w.Path)
}
