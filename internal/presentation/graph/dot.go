package graph

import (
	"strconv"

	"github.com/awalterschulze/gographviz"

	"github.com/aretw0/pipebuilder/pkg/domain"
)

const dotGraphName = "pipeline"

// GenerateDOT renders the pipeline as a Graphviz digraph.
// Overlay styles mirror GenerateMermaid: invalid nodes are filled red, the selected node yellow.
func GenerateDOT(g *domain.Graph, overlay *GraphOverlay) (string, error) {
	out := gographviz.NewGraph()
	if err := out.SetName(dotGraphName); err != nil {
		return "", err
	}
	if err := out.SetDir(true); err != nil {
		return "", err
	}
	if err := out.AddAttr(dotGraphName, "rankdir", "LR"); err != nil {
		return "", err
	}
	if g == nil {
		return out.String(), nil
	}

	invalid := map[string]bool{}
	selected := ""
	if overlay != nil {
		for _, id := range overlay.InvalidNodes {
			invalid[id] = true
		}
		selected = overlay.SelectedNode
	}

	for _, node := range g.Nodes {
		label := node.ID
		if node.ResourceName != "" {
			label += "\n" + node.ResourceName
		}
		attrs := map[string]string{
			"label": strconv.Quote(label),
			"shape": "box",
		}
		switch {
		case node.ID == domain.StartNodeID || node.ID == domain.EndNodeID:
			attrs["shape"] = "circle"
		case node.NodeType == domain.NodeTypeOperator:
			attrs["shape"] = "hexagon"
		}
		switch {
		case node.ID == selected:
			attrs["style"] = "filled"
			attrs["fillcolor"] = strconv.Quote("#ffeb3b")
		case invalid[node.ID]:
			attrs["style"] = "filled"
			attrs["fillcolor"] = strconv.Quote("#ffebee")
		}
		if err := out.AddNode(dotGraphName, strconv.Quote(node.ID), attrs); err != nil {
			return "", err
		}
	}

	for _, e := range g.Edges {
		if err := out.AddEdge(strconv.Quote(e.Source), strconv.Quote(e.Target), true, nil); err != nil {
			return "", err
		}
	}
	return out.String(), nil
}
