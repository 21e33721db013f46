package domain

// NodeType distinguishes I/O components from pure transformations.
type NodeType string

const (
	// NodeTypeConnector performs I/O with an external system.
	NodeTypeConnector NodeType = "connector"
	// NodeTypeOperator performs a pure transformation.
	NodeTypeOperator NodeType = "operator"
)

// StartNodeID and EndNodeID are the reserved ids of the pipeline's entry and exit operators.
const (
	StartNodeID = "start"
	EndNodeID   = "end"
)

// Configuration keys with engine-level meaning.
const (
	// KeyTask is the discriminator selecting a component's task branch.
	KeyTask = "task"
	// KeyInput holds the task inputs inside a configuration.
	KeyInput = "input"
	// KeyMetadata holds the start operator's field declarations.
	KeyMetadata = "metadata"
)

// PipelineNode represents one component instance in the pipeline graph.
type PipelineNode struct {
	ID       string   `json:"id" yaml:"id"`
	NodeType NodeType `json:"node_type" yaml:"node_type"`

	// DefinitionName identifies the component definition (e.g. "connector-definitions/ai-openai").
	DefinitionName string `json:"definition_name,omitempty" yaml:"definition_name,omitempty"`

	// Configuration is an arbitrary value tree matching the definition's schema.
	Configuration map[string]any `json:"configuration" yaml:"configuration"`

	// ResourceName is the external resource a connector is bound to, if any.
	ResourceName string `json:"resource_name,omitempty" yaml:"resource_name,omitempty"`

	Note string `json:"note,omitempty" yaml:"note,omitempty"`
}

// Task returns the currently configured task discriminator, or "".
func (n PipelineNode) Task() string {
	if n.Configuration == nil {
		return ""
	}
	task, _ := n.Configuration[KeyTask].(string)
	return task
}

// Clone returns a deep copy of the node so callers can mutate it freely.
func (n PipelineNode) Clone() PipelineNode {
	c := n
	if n.Configuration != nil {
		c.Configuration = CloneMap(n.Configuration)
	}
	return c
}

// CloneNodes deep-copies a node collection.
func CloneNodes(nodes []PipelineNode) []PipelineNode {
	if nodes == nil {
		return nil
	}
	out := make([]PipelineNode, len(nodes))
	for i, n := range nodes {
		out[i] = n.Clone()
	}
	return out
}

// FindNode returns the index of the node with the given id, or -1.
func FindNode(nodes []PipelineNode, id string) int {
	for i, n := range nodes {
		if n.ID == id {
			return i
		}
	}
	return -1
}

// NodeIDs lists node ids in declaration order.
func NodeIDs(nodes []PipelineNode) []string {
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	return ids
}
