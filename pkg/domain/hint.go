package domain

// UpstreamType is the addressing mode a field value takes.
type UpstreamType string

const (
	UpstreamValue     UpstreamType = "value"
	UpstreamReference UpstreamType = "reference"
	UpstreamTemplate  UpstreamType = "template"
)

// SmartHint describes one upstream output a text field may reference.
type SmartHint struct {
	// ComponentID is the node exposing the output.
	ComponentID string `json:"component_id"`
	// Path is the full dotted path, first segment is ComponentID.
	Path          string `json:"path"`
	Key           string `json:"key"`
	InstillFormat string `json:"instill_format"`
	Type          string `json:"type,omitempty"`

	AvailableUpstreamTypes []UpstreamType `json:"available_upstream_types,omitempty"`
}
