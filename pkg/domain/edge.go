package domain

// PipelineEdge is a directed relation derived from a reference: Source feeds Target.
type PipelineEdge struct {
	ID     string `json:"id" yaml:"id"`
	Source string `json:"source" yaml:"source"`
	Target string `json:"target" yaml:"target"`
}

// EdgeID builds the stable identifier of the edge between source and target.
func EdgeID(source, target string) string {
	return "edge-" + source + "-" + target
}

// NewEdge creates an edge with its canonical ID.
func NewEdge(source, target string) PipelineEdge {
	return PipelineEdge{
		ID:     EdgeID(source, target),
		Source: source,
		Target: target,
	}
}
