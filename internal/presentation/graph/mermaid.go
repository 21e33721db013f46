package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/pipebuilder/pkg/domain"
)

// GraphOverlay contains editor state to visualize on the graph.
type GraphOverlay struct {
	// InvalidNodes are nodes whose configuration fails validation.
	InvalidNodes []string
	SelectedNode string
}

// GenerateMermaid produces a Mermaid flowchart from a pipeline graph.
// It applies semantic styling:
// - start and end operators: ((Circle))
// - other operators: {{Hexagon}}
// - connectors: [Rectangle], annotated with their bound resource
// It also applies overlay styles (Invalid/Selected) if provided.
func GenerateMermaid(g *domain.Graph, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")
	if g == nil {
		return sb.String()
	}

	for _, node := range g.Nodes {
		safeID := sanitizeMermaidID(node.ID)

		opener, closer := "[", "]"
		switch {
		case node.ID == domain.StartNodeID || node.ID == domain.EndNodeID:
			opener, closer = "((", "))"
		case node.NodeType == domain.NodeTypeOperator:
			opener, closer = "{{", "}}"
		}

		label := node.ID
		if node.ResourceName != "" {
			label = fmt.Sprintf("%s <br/> %s", node.ID, node.ResourceName)
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, escapeLabel(label), closer)
	}

	for _, e := range g.Edges {
		fmt.Fprintf(&sb, "    %s --> %s\n", sanitizeMermaidID(e.Source), sanitizeMermaidID(e.Target))
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef invalid fill:#ffebee,stroke:#c62828,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef selected fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		invalid := append([]string(nil), overlay.InvalidNodes...)
		sort.Strings(invalid)
		seen := make(map[string]bool)
		for _, id := range invalid {
			safeID := sanitizeMermaidID(id)
			if !seen[safeID] && safeID != "" {
				seen[safeID] = true
				fmt.Fprintf(&sb, "    class %s invalid;\n", safeID)
			}
		}
		if overlay.SelectedNode != "" {
			fmt.Fprintf(&sb, "    class %s selected;\n", sanitizeMermaidID(overlay.SelectedNode))
		}
	}

	return sb.String()
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	return s
}
