package dsl

import (
	"strings"

	"github.com/aretw0/pipebuilder/pkg/domain"
)

// NodeBuilder provides a fluent API for configuring a component.
type NodeBuilder struct {
	node    domain.PipelineNode
	builder *Builder
}

// Set stores value at the dotted path of the configuration, creating parent objects.
func (n *NodeBuilder) Set(path string, value any) *NodeBuilder {
	parts := strings.Split(path, ".")
	m := n.node.Configuration
	for _, p := range parts[:len(parts)-1] {
		next, ok := m[p].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[p] = next
		}
		m = next
	}
	m[parts[len(parts)-1]] = value
	return n
}

// Task selects the component task.
func (n *NodeBuilder) Task(task string) *NodeBuilder {
	return n.Set(domain.KeyTask, task)
}

// Ref wires the field at path to an upstream field, e.g. Ref("input.prompt", "start.text").
func (n *NodeBuilder) Ref(path, upstream string) *NodeBuilder {
	return n.Set(path, "{ "+upstream+" }")
}

// Template sets a text field that embeds upstream values with {{ }} expressions.
func (n *NodeBuilder) Template(path, text string) *NodeBuilder {
	return n.Set(path, text)
}

// Resource binds the component to a connector resource.
func (n *NodeBuilder) Resource(name string) *NodeBuilder {
	n.node.ResourceName = name
	return n
}

// Note attaches a free-text note to the component.
func (n *NodeBuilder) Note(text string) *NodeBuilder {
	n.node.Note = text
	return n
}

// Add continues with another component.
func (n *NodeBuilder) Add(id, definitionName string) *NodeBuilder {
	return n.builder.Add(id, definitionName)
}

// StartBuilder declares the pipeline's trigger fields.
type StartBuilder struct{ *NodeBuilder }

// Field declares a start field offered to downstream components as "start.<key>".
func (s *StartBuilder) Field(key, instillFormat, title string) *StartBuilder {
	s.Set(domain.KeyMetadata+"."+key, map[string]any{
		"instillFormat": instillFormat,
		"title":         title,
		"type":          fieldType(instillFormat),
	})
	return s
}

// EndBuilder declares the pipeline's outputs.
type EndBuilder struct{ *NodeBuilder }

// Output exposes an upstream field as the pipeline output key.
func (e *EndBuilder) Output(key, upstream string) *EndBuilder {
	e.Ref(domain.KeyInput+"."+key, upstream)
	return e
}

func fieldType(instillFormat string) string {
	main, _, _ := strings.Cut(instillFormat, "/")
	main, _, _ = strings.Cut(main, ":")
	switch main {
	case "array":
		return "array"
	case "number", "integer", "boolean", "object":
		return main
	default:
		return "string"
	}
}
