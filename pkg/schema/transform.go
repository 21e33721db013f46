package schema

import (
	"fmt"

	"github.com/aretw0/pipebuilder/pkg/domain"
	"github.com/aretw0/pipebuilder/pkg/reference"
)

// TransformOption configures Transform.
type TransformOption func(*transformOptions)

type transformOptions struct {
	readOnly bool
	hidden   func(path string, s *Schema) bool
}

// WithReadOnly marks every produced field as disabled.
func WithReadOnly() TransformOption {
	return func(o *transformOptions) {
		o.readOnly = true
	}
}

// WithHiddenCheck hides every field for which fn returns true.
// Hidden fields are still validated.
func WithHiddenCheck(fn func(path string, s *Schema) bool) TransformOption {
	return func(o *transformOptions) {
		o.hidden = fn
	}
}

// HideOffNodeFields hides fields that are not editable on the node itself,
// as listed by root.InstillEditOnNodeFields. An empty list hides nothing.
func HideOffNodeFields(root *Schema) TransformOption {
	var allowed []string
	if root != nil {
		allowed = root.InstillEditOnNodeFields
	}
	return WithHiddenCheck(func(path string, _ *Schema) bool {
		if len(allowed) == 0 {
			return false
		}
		for _, a := range allowed {
			if a == path || hasPathPrefix(a, path) || hasPathPrefix(path, a) {
				return false
			}
		}
		return true
	})
}

func hasPathPrefix(path, prefix string) bool {
	return len(path) > len(prefix) && path[:len(prefix)] == prefix && (path[len(prefix)] == '.' || path[len(prefix)] == '[')
}

// Transform compiles s into a validator and a field tree for the given condition map.
// Only the selected oneOf branches take part; inactive branches are absent from both outputs.
func Transform(s *Schema, conditions ConditionMap, opts ...TransformOption) (*Validator, []Field) {
	o := transformOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if conditions == nil {
		conditions = ConditionMap{}
	}

	c := &compiler{conds: conditions, opts: o}
	v := &Validator{
		root:       c.compile(s),
		conditions: conditions.Clone(),
	}
	if s == nil || !isObject(s) {
		return v, nil
	}
	return v, c.fields(s, "")
}

type compiler struct {
	conds ConditionMap
	opts  transformOptions
}

type branchState int

const (
	noBranch branchState = iota
	branchUnset
	branchSelected
	branchMissing
)

// resolve merges the selected oneOf branch into the object schema at path.
func (c *compiler) resolve(s *Schema, path string) (*Schema, string, branchState) {
	key := s.Discriminator()
	if key == "" {
		return s, "", noBranch
	}
	selected, set := c.conds[reference.Join(path, key)]
	base := *s
	base.OneOf = nil
	if !set {
		return &base, key, branchUnset
	}
	branch := s.Branch(selected)
	if branch == nil {
		return &base, key, branchMissing
	}
	return merge(s, branch), key, branchSelected
}

func (c *compiler) compile(s *Schema) Type {
	return c.compileAt(s, "")
}

func (c *compiler) compileAt(s *Schema, path string) Type {
	switch {
	case s == nil:
		return &FreeType{}
	case s.Const != nil:
		return &ConstType{value: s.Const}
	case len(s.AnyOf) > 0:
		return c.compileAnyOf(s, path)
	case isObject(s):
		return c.compileObject(s, path)
	default:
		return c.compileScalar(s, path)
	}
}

func (c *compiler) compileScalar(s *Schema, path string) Type {
	switch s.Type {
	case "string":
		return &StringType{enum: s.Enum}
	case "integer":
		return &NumberType{integer: true, enum: s.Enum}
	case "number":
		return &NumberType{enum: s.Enum}
	case "boolean":
		return &BoolType{}
	case "array":
		if s.Items == nil {
			return &ArrayType{}
		}
		return &ArrayType{items: c.compileAt(s.Items, path+"[]")}
	case "":
		if len(s.Enum) > 0 {
			return &StringType{enum: s.Enum}
		}
		return &FreeType{}
	default:
		return &FreeType{}
	}
}

func (c *compiler) compileAnyOf(s *Schema, path string) Type {
	enabled := s.upstreamTypes()
	var variants []Type
	for _, variant := range s.AnyOf {
		t := variantType(variant)
		if !containsUpstream(enabled, t) {
			continue
		}
		switch t {
		case domain.UpstreamReference:
			variants = append(variants, &ReferenceType{})
		case domain.UpstreamTemplate:
			variants = append(variants, &TemplateType{})
		default:
			variants = append(variants, c.compileAt(valueSchema(s, variant), path))
		}
	}
	switch len(variants) {
	case 0:
		return &FailType{message: "no upstream type is accepted"}
	case 1:
		return variants[0]
	default:
		return &AnyOfType{variants: variants}
	}
}

// valueSchema fills gaps of a value variant from its parent field.
func valueSchema(parent, variant *Schema) *Schema {
	v := *variant
	if v.Type == "" {
		v.Type = parent.Type
	}
	if len(v.Enum) == 0 {
		v.Enum = parent.Enum
	}
	return &v
}

func (c *compiler) compileObject(s *Schema, path string) Type {
	resolved, key, state := c.resolve(s, path)

	obj := &ObjectType{
		properties: make(map[string]Type, len(resolved.Properties)),
		required:   make(map[string]bool, len(resolved.Required)),
		strict:     len(resolved.Properties) > 0 && state != branchUnset,
	}
	for _, r := range resolved.Required {
		obj.required[r] = true
	}
	for k, prop := range resolved.Properties {
		obj.properties[k] = c.compileAt(prop, reference.Join(path, k))
	}

	if state == branchMissing {
		selected := c.conds[reference.Join(path, key)]
		obj.properties[key] = &FailType{message: fmt.Sprintf("no %s branch matches %q", key, selected)}
		obj.required[key] = true
	}
	return obj
}

func isObject(s *Schema) bool {
	return s.Type == "object" || len(s.Properties) > 0 || len(s.OneOf) > 0
}

func containsUpstream(list []domain.UpstreamType, t domain.UpstreamType) bool {
	for _, e := range list {
		if e == t {
			return true
		}
	}
	return false
}
