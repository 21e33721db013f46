package domain

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestDiff(t *testing.T) {
	start := PipelineNode{ID: "start", NodeType: NodeTypeOperator, Configuration: map[string]any{}}
	openai := PipelineNode{ID: "openai_0", NodeType: NodeTypeConnector, Configuration: map[string]any{"task": "TASK_TEXT_GENERATION"}}
	edge := NewEdge("start", "openai_0")

	tests := []struct {
		name     string
		old      *Graph
		new      *Graph
		wantDiff *GraphDiff // nil means we expect no diff
	}{
		{
			name: "Initial Load (Old is Nil)",
			old:  nil,
			new:  &Graph{Nodes: []PipelineNode{start}, Edges: nil},
			wantDiff: &GraphDiff{
				PipelineID: "p1",
				Nodes:      []PipelineNode{start},
			},
		},
		{
			name:     "No Changes",
			old:      &Graph{Nodes: []PipelineNode{start, openai}, Edges: []PipelineEdge{edge}},
			new:      &Graph{Nodes: []PipelineNode{start, openai}, Edges: []PipelineEdge{edge}},
			wantDiff: nil,
		},
		{
			name: "Configuration Modified & Edge Added",
			old:  &Graph{Nodes: []PipelineNode{start, openai}},
			new: &Graph{
				Nodes: []PipelineNode{start, {ID: "openai_0", NodeType: NodeTypeConnector, Configuration: map[string]any{"task": "TASK_TEXT_GENERATION", "input": map[string]any{"prompt": "{ start.text }"}}}},
				Edges: []PipelineEdge{edge},
			},
			wantDiff: &GraphDiff{
				PipelineID: "p1",
				Nodes:      []PipelineNode{{ID: "openai_0", NodeType: NodeTypeConnector, Configuration: map[string]any{"task": "TASK_TEXT_GENERATION", "input": map[string]any{"prompt": "{ start.text }"}}}},
				AddedEdges: []PipelineEdge{edge},
			},
		},
		{
			name: "Node Deletion",
			old:  &Graph{Nodes: []PipelineNode{start, openai}, Edges: []PipelineEdge{edge}},
			new:  &Graph{Nodes: []PipelineNode{start}},
			wantDiff: &GraphDiff{
				PipelineID:   "p1",
				RemovedNodes: []string{"openai_0"},
				RemovedEdges: []string{edge.ID},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Diff("p1", tt.old, tt.new)
			if tt.wantDiff == nil {
				if got != nil {
					t.Errorf("Diff() = %v, want nil", got)
				}
				return
			}

			if got == nil {
				t.Fatalf("Diff() = nil, want %v", tt.wantDiff)
			}
			if !reflect.DeepEqual(got, tt.wantDiff) {
				t.Errorf("Diff() = %+v, want %+v", got, tt.wantDiff)
			}
		})
	}
}

func TestDiffJSONSerialization(t *testing.T) {
	t.Run("Empty Collections Omitted", func(t *testing.T) {
		g1 := &Graph{Nodes: []PipelineNode{{ID: "start"}}}
		g2 := &Graph{Nodes: []PipelineNode{{ID: "start"}, {ID: "end"}}}
		diff := Diff("p1", g1, g2)
		if diff == nil {
			t.Fatal("Expected diff, got nil")
		}

		bytes, _ := json.Marshal(diff)
		if strings.Contains(string(bytes), `"removed_nodes"`) {
			t.Errorf("JSON should not contain 'removed_nodes' when empty, got: %s", string(bytes))
		}
		if !strings.Contains(string(bytes), `"end"`) {
			t.Errorf("JSON should contain the added node, got: %s", string(bytes))
		}
	})
}
