package graph

import (
	"sort"

	"github.com/aretw0/pipebuilder/pkg/domain"
	"github.com/aretw0/pipebuilder/pkg/reference"
)

// Compose builds one edge per distinct (target component → owner) pair of
// reference-kind references. Templates, self references and references to
// unknown components produce no edge. Edges are sorted by source, then target.
func Compose(nodes []domain.PipelineNode, refs []domain.ComponentReference) []domain.PipelineEdge {
	known := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		known[n.ID] = true
	}

	seen := make(map[string]bool)
	edges := make([]domain.PipelineEdge, 0)
	for _, ref := range refs {
		if !ref.Structural() {
			continue
		}
		source, target := ref.TargetNodeID, ref.OwnerNodeID
		if source == target || !known[source] || !known[target] {
			continue
		}
		id := domain.EdgeID(source, target)
		if seen[id] {
			continue
		}
		seen[id] = true
		edges = append(edges, domain.NewEdge(source, target))
	}

	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Source != edges[j].Source {
			return edges[i].Source < edges[j].Source
		}
		return edges[i].Target < edges[j].Target
	})
	return edges
}

// ComposeFromNodes extracts references from every node configuration and composes the edges.
func ComposeFromNodes(nodes []domain.PipelineNode) []domain.PipelineEdge {
	return Compose(nodes, reference.ExtractNodes(nodes))
}

// Build returns a graph snapshot of nodes with freshly composed edges.
func Build(nodes []domain.PipelineNode) *domain.Graph {
	return &domain.Graph{
		Nodes: domain.CloneNodes(nodes),
		Edges: ComposeFromNodes(nodes),
	}
}
