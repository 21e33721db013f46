package dsl

import (
	"fmt"

	"github.com/aretw0/pipebuilder/pkg/domain"
)

// Builder manages the recipe construction.
type Builder struct {
	order []string
	nodes map[string]*NodeBuilder
}

// New creates a new recipe builder.
func New() *Builder {
	return &Builder{
		nodes: make(map[string]*NodeBuilder),
	}
}

// Add creates a new component in the recipe.
// If the component already exists, it returns the existing builder.
func (b *Builder) Add(id, definitionName string) *NodeBuilder {
	if nb, ok := b.nodes[id]; ok {
		return nb
	}
	nb := &NodeBuilder{
		node: domain.PipelineNode{
			ID:             id,
			NodeType:       domain.InferNodeType(id, definitionName),
			DefinitionName: definitionName,
			Configuration:  map[string]any{},
		},
		builder: b,
	}
	b.nodes[id] = nb
	b.order = append(b.order, id)
	return nb
}

// Start returns the start operator, creating it on first use.
func (b *Builder) Start() *StartBuilder {
	nb := b.Add(domain.StartNodeID, domain.OperatorDefinitionPrefix+domain.StartNodeID)
	if _, ok := nb.node.Configuration[domain.KeyMetadata]; !ok {
		nb.node.Configuration[domain.KeyMetadata] = map[string]any{}
	}
	return &StartBuilder{nb}
}

// End returns the end operator, creating it on first use.
func (b *Builder) End() *EndBuilder {
	nb := b.Add(domain.EndNodeID, domain.OperatorDefinitionPrefix+domain.EndNodeID)
	if _, ok := nb.node.Configuration[domain.KeyInput]; !ok {
		nb.node.Configuration[domain.KeyInput] = map[string]any{}
	}
	return &EndBuilder{nb}
}

// Build compiles the components into a recipe.
func (b *Builder) Build() (*domain.Recipe, error) {
	nodes := make([]domain.PipelineNode, 0, len(b.order))
	for _, id := range b.order {
		if err := domain.ValidateID(id); err != nil {
			return nil, fmt.Errorf("%w: component %q: %w", domain.ErrInvalidRecipe, id, err)
		}
		nodes = append(nodes, b.nodes[id].node)
	}
	return domain.NewRecipe(nodes), nil
}
