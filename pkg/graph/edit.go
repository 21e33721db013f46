package graph

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/pipebuilder/pkg/domain"
	"github.com/aretw0/pipebuilder/pkg/reference"
)

// Rename changes a node id and redirects every reference and template addressing it.
// On error the inputs are left untouched and nothing is returned.
func Rename(nodes []domain.PipelineNode, oldID, newID string) ([]domain.PipelineNode, []domain.PipelineEdge, error) {
	if err := domain.ValidateID(newID); err != nil {
		return nil, nil, err
	}
	idx := domain.FindNode(nodes, oldID)
	if idx < 0 {
		return nil, nil, fmt.Errorf("%w: %s", domain.ErrNodeNotFound, oldID)
	}
	if oldID == newID {
		out := domain.CloneNodes(nodes)
		return out, ComposeFromNodes(out), nil
	}
	if domain.FindNode(nodes, newID) >= 0 {
		return nil, nil, &domain.IdentifierCollisionError{ID: newID}
	}

	out := make([]domain.PipelineNode, len(nodes))
	for i, n := range nodes {
		c := n.Clone()
		if i == idx {
			c.ID = newID
		}
		if n.Configuration != nil {
			c.Configuration = reference.RewriteTarget(n.Configuration, oldID, newID).(map[string]any)
		}
		out[i] = c
	}
	return out, ComposeFromNodes(out), nil
}

// Copy duplicates a node under the id prefix_N, N being the next free index.
// The copy keeps the configuration but not the resource binding.
func Copy(nodes []domain.PipelineNode, id, prefix string) ([]domain.PipelineNode, domain.PipelineNode, error) {
	idx := domain.FindNode(nodes, id)
	if idx < 0 {
		return nil, domain.PipelineNode{}, fmt.Errorf("%w: %s", domain.ErrNodeNotFound, id)
	}
	newID := fmt.Sprintf("%s_%d", prefix, NextComponentIndex(domain.NodeIDs(nodes), prefix))
	if err := domain.ValidateID(newID); err != nil {
		return nil, domain.PipelineNode{}, err
	}

	c := nodes[idx].Clone()
	c.ID = newID
	c.ResourceName = ""

	out := append(domain.CloneNodes(nodes), c)
	return out, c.Clone(), nil
}

// Delete removes a node. References to it stay in other configurations but no longer produce edges.
func Delete(nodes []domain.PipelineNode, id string) ([]domain.PipelineNode, []domain.PipelineEdge, error) {
	idx := domain.FindNode(nodes, id)
	if idx < 0 {
		return nil, nil, fmt.Errorf("%w: %s", domain.ErrNodeNotFound, id)
	}
	out := make([]domain.PipelineNode, 0, len(nodes)-1)
	for i, n := range nodes {
		if i != idx {
			out = append(out, n.Clone())
		}
	}
	return out, ComposeFromNodes(out), nil
}

// NextComponentIndex returns the smallest index greater than every existing prefix_N id.
func NextComponentIndex(ids []string, prefix string) int {
	next := 0
	for _, id := range ids {
		rest, ok := strings.CutPrefix(id, prefix+"_")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(rest)
		if err != nil || n < 0 {
			continue
		}
		if n+1 > next {
			next = n + 1
		}
	}
	return next
}

// IDPrefix derives an id prefix from a definition name, e.g.
// "connector-definitions/ai-openai" → "ai_openai".
func IDPrefix(definitionName string) string {
	name := definitionName
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	name = strings.ToLower(strings.ReplaceAll(name, "-", "_"))
	if name == "" {
		return "component"
	}
	return name
}
