package store

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/pipebuilder/pkg/domain"
)

func TestStore_UpdateNodes(t *testing.T) {
	s := New()

	s.UpdateNodes(func(prev []domain.PipelineNode) []domain.PipelineNode {
		assert.Empty(t, prev)
		return append(prev, domain.PipelineNode{ID: "start", Configuration: map[string]any{"a": 1}})
	})

	nodes := s.Nodes()
	require.Len(t, nodes, 1)

	// Mutating a read must not leak into the store
	nodes[0].Configuration["a"] = 2
	n, ok := s.Node("start")
	require.True(t, ok)
	assert.Equal(t, 1, n.Configuration["a"])

	_, ok = s.Node("missing")
	assert.False(t, ok)
}

func TestStore_UpdaterCannotAlias(t *testing.T) {
	s := New()
	var kept []domain.PipelineNode
	s.UpdateNodes(func(prev []domain.PipelineNode) []domain.PipelineNode {
		kept = []domain.PipelineNode{{ID: "a", Configuration: map[string]any{"k": "v"}}}
		return kept
	})

	kept[0].Configuration["k"] = "changed"
	n, _ := s.Node("a")
	assert.Equal(t, "v", n.Configuration["k"])
}

func TestStore_ScalarUpdaters(t *testing.T) {
	s := New()
	s.UpdatePipelineRecipeIsDirty(func(bool) bool { return true })
	s.UpdateCurrentAdvancedConfigurationNodeID(func(string) string { return "openai_0" })
	s.UpdateSelectedNodeID(func(string) string { return "json_0" })
	s.UpdateSmartHints(func([]domain.SmartHint) []domain.SmartHint {
		return []domain.SmartHint{{ComponentID: "start", Path: "start.text"}}
	})
	s.UpdateEdges(func([]domain.PipelineEdge) []domain.PipelineEdge {
		return []domain.PipelineEdge{domain.NewEdge("start", "json_0")}
	})
	s.UpdateReadOnly(func(bool) bool { return true })

	snap := s.Snapshot()
	assert.True(t, snap.PipelineRecipeIsDirty)
	assert.Equal(t, "openai_0", snap.CurrentAdvancedConfigurationNodeID)
	assert.Equal(t, "json_0", snap.SelectedNodeID)
	assert.Len(t, snap.SmartHints, 1)
	assert.Equal(t, []domain.PipelineEdge{domain.NewEdge("start", "json_0")}, s.Edges())
	assert.True(t, s.ReadOnly())
}

func TestStore_Subscribe(t *testing.T) {
	s := New(WithState(State{Nodes: []domain.PipelineNode{{ID: "start"}}}))

	var got []State
	unsubscribe := s.Subscribe(func(st State) {
		// Reading from inside a listener must not deadlock
		_ = s.Snapshot()
		got = append(got, st)
	})

	s.UpdateSelectedNodeID(func(string) string { return "start" })
	unsubscribe()
	s.UpdateSelectedNodeID(func(string) string { return "" })

	require.Len(t, got, 1)
	assert.Equal(t, "start", got[0].SelectedNodeID)
	assert.Len(t, got[0].Nodes, 1)
}

func TestStore_ConcurrentUpdates(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.UpdateNodes(func(prev []domain.PipelineNode) []domain.PipelineNode {
				return append(prev, domain.PipelineNode{ID: "n"})
			})
			_ = s.Snapshot()
		}()
	}
	wg.Wait()
	assert.Len(t, s.Nodes(), 50)
}
