package domain

// ReferenceKind tells how a configuration string addresses another component.
type ReferenceKind string

const (
	// ReferenceKindReference is the single-brace `{ path }` form. It creates an edge.
	ReferenceKindReference ReferenceKind = "reference"
	// ReferenceKindTemplate is the double-brace `{{ path }}` form. Informational only.
	ReferenceKindTemplate ReferenceKind = "template"
)

// ComponentReference is one cross-component address found in a node's configuration.
type ComponentReference struct {
	OwnerNodeID string `json:"owner_node_id"`
	// Path is the dotted location of the string inside the owner's configuration.
	Path             string        `json:"path"`
	TargetNodeID     string        `json:"target_node_id"`
	TargetOutputPath string        `json:"target_output_path"`
	Kind             ReferenceKind `json:"kind"`
}

// Structural reports whether the reference should produce a graph edge.
func (r ComponentReference) Structural() bool {
	return r.Kind == ReferenceKindReference
}
