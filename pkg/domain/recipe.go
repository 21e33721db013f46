package domain

import (
	"strings"

	"github.com/google/uuid"
)

// RecipeVersion is the recipe document format produced by this engine.
const RecipeVersion = "v1beta"

// Definition name prefixes used to infer a component's node type.
const (
	ConnectorDefinitionPrefix = "connector-definitions/"
	OperatorDefinitionPrefix  = "operator-definitions/"
)

// RecipeComponent is the serialized form of a PipelineNode.
type RecipeComponent struct {
	ID             string         `json:"id" yaml:"id"`
	DefinitionName string         `json:"definition_name" yaml:"definition_name"`
	ResourceName   string         `json:"resource_name,omitempty" yaml:"resource_name,omitempty"`
	Configuration  map[string]any `json:"configuration" yaml:"configuration"`
	Note           string         `json:"note,omitempty" yaml:"note,omitempty"`
}

// Recipe is the pipeline document sent to the backend on save.
type Recipe struct {
	UID        string            `json:"uid,omitempty" yaml:"uid,omitempty"`
	Version    string            `json:"version" yaml:"version"`
	Components []RecipeComponent `json:"components" yaml:"components"`
}

// NewRecipe serializes the node set into a recipe with a fresh UID.
func NewRecipe(nodes []PipelineNode) *Recipe {
	r := &Recipe{
		UID:        uuid.NewString(),
		Version:    RecipeVersion,
		Components: make([]RecipeComponent, 0, len(nodes)),
	}
	for _, n := range nodes {
		r.Components = append(r.Components, RecipeComponent{
			ID:             n.ID,
			DefinitionName: n.DefinitionName,
			ResourceName:   n.ResourceName,
			Configuration:  CloneMap(n.Configuration),
			Note:           n.Note,
		})
	}
	return r
}

// Nodes rebuilds pipeline nodes from the recipe. Node types are inferred from definition names.
func (r *Recipe) Nodes() []PipelineNode {
	nodes := make([]PipelineNode, 0, len(r.Components))
	for _, c := range r.Components {
		cfg := CloneMap(c.Configuration)
		if cfg == nil {
			cfg = make(map[string]any)
		}
		nodes = append(nodes, PipelineNode{
			ID:             c.ID,
			NodeType:       InferNodeType(c.ID, c.DefinitionName),
			DefinitionName: c.DefinitionName,
			Configuration:  cfg,
			ResourceName:   c.ResourceName,
			Note:           c.Note,
		})
	}
	return nodes
}

// InferNodeType derives the node type from the reserved ids and definition name.
func InferNodeType(id, definitionName string) NodeType {
	switch {
	case id == StartNodeID || id == EndNodeID:
		return NodeTypeOperator
	case strings.HasPrefix(definitionName, OperatorDefinitionPrefix):
		return NodeTypeOperator
	default:
		return NodeTypeConnector
	}
}

// Clone returns a deep copy of the recipe.
func (r *Recipe) Clone() *Recipe {
	if r == nil {
		return nil
	}
	c := *r
	c.Components = make([]RecipeComponent, len(r.Components))
	for i, comp := range r.Components {
		comp.Configuration = CloneMap(comp.Configuration)
		c.Components[i] = comp
	}
	return &c
}
