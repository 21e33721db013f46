package domain

import (
	"reflect"
	"sort"
)

// Graph is a consistent snapshot of the pipeline's nodes and derived edges.
type Graph struct {
	Nodes []PipelineNode `json:"nodes"`
	Edges []PipelineEdge `json:"edges"`
}

// GraphDiff represents the changes between two graph snapshots.
// It is designed to be serialized to JSON for partial updates on the client.
type GraphDiff struct {
	PipelineID string `json:"pipeline_id"`

	// Nodes contains added or modified nodes.
	Nodes []PipelineNode `json:"nodes,omitempty"`

	// RemovedNodes lists ids no longer present.
	RemovedNodes []string `json:"removed_nodes,omitempty"`

	AddedEdges   []PipelineEdge `json:"added_edges,omitempty"`
	RemovedEdges []string       `json:"removed_edges,omitempty"`
}

// Diff calculates the difference between oldGraph and newGraph.
// If oldGraph is nil, it returns a diff representing the entire newGraph (initial load).
// It returns nil when nothing changed.
func Diff(pipelineID string, oldGraph, newGraph *Graph) *GraphDiff {
	if newGraph == nil {
		return nil
	}
	if oldGraph == nil {
		oldGraph = &Graph{}
	}

	diff := &GraphDiff{PipelineID: pipelineID}

	oldNodes := make(map[string]PipelineNode, len(oldGraph.Nodes))
	for _, n := range oldGraph.Nodes {
		oldNodes[n.ID] = n
	}
	newIDs := make(map[string]bool, len(newGraph.Nodes))
	for _, n := range newGraph.Nodes {
		newIDs[n.ID] = true
		prev, exists := oldNodes[n.ID]
		if !exists || !reflect.DeepEqual(prev, n) {
			diff.Nodes = append(diff.Nodes, n)
		}
	}
	for id := range oldNodes {
		if !newIDs[id] {
			diff.RemovedNodes = append(diff.RemovedNodes, id)
		}
	}
	sort.Strings(diff.RemovedNodes)

	oldEdges := make(map[string]bool, len(oldGraph.Edges))
	for _, e := range oldGraph.Edges {
		oldEdges[e.ID] = true
	}
	newEdges := make(map[string]bool, len(newGraph.Edges))
	for _, e := range newGraph.Edges {
		newEdges[e.ID] = true
		if !oldEdges[e.ID] {
			diff.AddedEdges = append(diff.AddedEdges, e)
		}
	}
	for id := range oldEdges {
		if !newEdges[id] {
			diff.RemovedEdges = append(diff.RemovedEdges, id)
		}
	}
	sort.Strings(diff.RemovedEdges)

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *GraphDiff) IsEmpty() bool {
	return len(d.Nodes) == 0 &&
		len(d.RemovedNodes) == 0 &&
		len(d.AddedEdges) == 0 &&
		len(d.RemovedEdges) == 0
}
