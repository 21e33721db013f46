package schema

import (
	"encoding/json"
	"fmt"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// ParseJSON decodes a schema document from JSON.
func ParseJSON(data []byte) (*Schema, error) {
	var s Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("schema: decode json: %w", err)
	}
	return &s, nil
}

// ParseYAML decodes a schema document from YAML.
func ParseYAML(data []byte) (*Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("schema: decode yaml: %w", err)
	}
	return &s, nil
}

// FromMap decodes a schema from a generic value tree, as returned by an API
// response or by front matter.
func FromMap(m map[string]any) (*Schema, error) {
	if m == nil {
		return nil, nil
	}
	var s Schema
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           &s,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(m); err != nil {
		return nil, fmt.Errorf("schema: decode map: %w", err)
	}
	return &s, nil
}
