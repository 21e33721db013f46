package schema

import "github.com/aretw0/pipebuilder/pkg/domain"

// Schema is a component definition schema node.
type Schema struct {
	Draft       string `json:"$schema,omitempty" yaml:"$schema,omitempty"`
	Type        string `json:"type,omitempty" yaml:"type,omitempty"`
	Title       string `json:"title,omitempty" yaml:"title,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Const       any    `json:"const,omitempty" yaml:"const,omitempty"`
	Enum        []any  `json:"enum,omitempty" yaml:"enum,omitempty"`
	Default     any    `json:"default,omitempty" yaml:"default,omitempty"`
	Example     any    `json:"example,omitempty" yaml:"example,omitempty"`

	Properties map[string]*Schema `json:"properties,omitempty" yaml:"properties,omitempty"`
	Required   []string           `json:"required,omitempty" yaml:"required,omitempty"`
	OneOf      []*Schema          `json:"oneOf,omitempty" yaml:"oneOf,omitempty"`
	AnyOf      []*Schema          `json:"anyOf,omitempty" yaml:"anyOf,omitempty"`
	Items      *Schema            `json:"items,omitempty" yaml:"items,omitempty"`

	InstillFormat           string   `json:"instillFormat,omitempty" yaml:"instillFormat,omitempty"`
	InstillAcceptFormats    []string `json:"instillAcceptFormats,omitempty" yaml:"instillAcceptFormats,omitempty"`
	InstillUpstreamType     string   `json:"instillUpstreamType,omitempty" yaml:"instillUpstreamType,omitempty"`
	InstillUpstreamTypes    []string `json:"instillUpstreamTypes,omitempty" yaml:"instillUpstreamTypes,omitempty"`
	InstillUIOrder          *int     `json:"instillUIOrder,omitempty" yaml:"instillUIOrder,omitempty"`
	InstillShortDescription string   `json:"instillShortDescription,omitempty" yaml:"instillShortDescription,omitempty"`
	InstillEditOnNodeFields []string `json:"instillEditOnNodeFields,omitempty" yaml:"instillEditOnNodeFields,omitempty"`
	InstillCredentialField  bool     `json:"instillCredentialField,omitempty" yaml:"instillCredentialField,omitempty"`
	InstillUIMultiline      bool     `json:"instillUIMultiline,omitempty" yaml:"instillUIMultiline,omitempty"`
}

// ConditionMap maps a discriminator path (e.g. "task", "input.model") to the selected const literal.
type ConditionMap map[string]string

// Clone returns an independent copy of the map.
func (c ConditionMap) Clone() ConditionMap {
	out := make(ConditionMap, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Discriminator returns the property that carries a const in every oneOf branch, or "".
func (s *Schema) Discriminator() string {
	if len(s.OneOf) == 0 {
		return ""
	}
	var candidates []string
	for key, prop := range s.OneOf[0].Properties {
		if prop != nil && prop.Const != nil {
			candidates = append(candidates, key)
		}
	}
	for _, key := range sortedKeys(candidates) {
		ok := true
		for _, branch := range s.OneOf[1:] {
			p := branch.Properties[key]
			if p == nil || p.Const == nil {
				ok = false
				break
			}
		}
		if ok {
			return key
		}
	}
	return ""
}

// Branch returns the oneOf branch whose discriminator const equals value.
func (s *Schema) Branch(value string) *Schema {
	key := s.Discriminator()
	if key == "" {
		return nil
	}
	for _, branch := range s.OneOf {
		if constString(branch.Properties[key].Const) == value {
			return branch
		}
	}
	return nil
}

// BranchValues lists the discriminator consts in declaration order.
func (s *Schema) BranchValues() []string {
	key := s.Discriminator()
	if key == "" {
		return nil
	}
	out := make([]string, 0, len(s.OneOf))
	for _, branch := range s.OneOf {
		out = append(out, constString(branch.Properties[key].Const))
	}
	return out
}

// IsRequired reports whether key is listed in s.Required.
func (s *Schema) IsRequired(key string) bool {
	for _, r := range s.Required {
		if r == key {
			return true
		}
	}
	return false
}

// merge overlays a oneOf branch on top of the base object schema.
func merge(base, branch *Schema) *Schema {
	out := *base
	out.OneOf = nil
	out.Properties = make(map[string]*Schema, len(base.Properties)+len(branch.Properties))
	for k, v := range base.Properties {
		out.Properties[k] = v
	}
	for k, v := range branch.Properties {
		out.Properties[k] = v
	}
	out.Required = append(append([]string{}, base.Required...), branch.Required...)
	if out.Type == "" {
		out.Type = branch.Type
	}
	return &out
}

// upstreamTypes returns the enabled anyOf variants. An empty list enables all of them.
func (s *Schema) upstreamTypes() []domain.UpstreamType {
	var out []domain.UpstreamType
	for _, variant := range s.AnyOf {
		t := variantType(variant)
		if len(s.InstillUpstreamTypes) > 0 && !contains(s.InstillUpstreamTypes, string(t)) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func variantType(variant *Schema) domain.UpstreamType {
	if variant.InstillUpstreamType == "" {
		return domain.UpstreamValue
	}
	return domain.UpstreamType(variant.InstillUpstreamType)
}

// valueVariant returns the anyOf variant holding the literal type, if any.
func (s *Schema) valueVariant() *Schema {
	for _, variant := range s.AnyOf {
		if variantType(variant) == domain.UpstreamValue {
			return variant
		}
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, e := range list {
		if e == v {
			return true
		}
	}
	return false
}
