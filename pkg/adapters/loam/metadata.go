package loam

// DefinitionMetadata is the document shape of a definition file.
// It uses "mapstructure" tags to match standard Frontmatter/YAML/JSON keys.
//
// A file that has neither specification key is read as a bare component
// specification.
type DefinitionMetadata struct {
	// Name overrides the file-derived name, e.g. "connector-definitions/ai-openai".
	Name  string `json:"name" mapstructure:"name"`
	Title string `json:"title" mapstructure:"title"`

	ComponentSpecification map[string]any `json:"component_specification" mapstructure:"component_specification"`
	DataSpecifications     map[string]any `json:"data_specifications" mapstructure:"data_specifications"`

	// Bare specification keys.
	Type       string         `json:"type" mapstructure:"type"`
	Properties map[string]any `json:"properties" mapstructure:"properties"`
	Required   []string       `json:"required" mapstructure:"required"`
	OneOf      []any          `json:"oneOf" mapstructure:"oneOf"`
}

// document converts the metadata into the generic definition document served to the catalog.
func (m DefinitionMetadata) document() map[string]any {
	if m.ComponentSpecification != nil || m.DataSpecifications != nil {
		doc := map[string]any{}
		if m.ComponentSpecification != nil {
			doc["component_specification"] = m.ComponentSpecification
		}
		if m.DataSpecifications != nil {
			doc["data_specifications"] = m.DataSpecifications
		}
		return doc
	}

	spec := map[string]any{}
	if m.Type != "" {
		spec["type"] = m.Type
	}
	if m.Title != "" {
		spec["title"] = m.Title
	}
	if m.Properties != nil {
		spec["properties"] = m.Properties
	}
	if len(m.Required) > 0 {
		required := make([]any, len(m.Required))
		for i, r := range m.Required {
			required[i] = r
		}
		spec["required"] = required
	}
	if m.OneOf != nil {
		spec["oneOf"] = m.OneOf
	}
	return spec
}
