package schema

import (
	"sort"

	"github.com/aretw0/pipebuilder/pkg/domain"
	"github.com/aretw0/pipebuilder/pkg/reference"
)

// Kind tells a form renderer which widget draws a field.
type Kind string

const (
	KindText          Kind = "text"
	KindTextarea      Kind = "textarea"
	KindNumber        Kind = "number"
	KindInteger       Kind = "integer"
	KindBoolean       Kind = "boolean"
	KindSelect        Kind = "select"
	KindObject        Kind = "object"
	KindArray         Kind = "array"
	KindCondition     Kind = "condition"
	KindReferenceOnly Kind = "reference-only"
	KindFreeForm      Kind = "free-form"
)

// Field describes one renderable form field.
type Field struct {
	Path             string `json:"path"`
	Key              string `json:"key"`
	Title            string `json:"title"`
	Description      string `json:"description,omitempty"`
	ShortDescription string `json:"short_description,omitempty"`
	Kind             Kind   `json:"kind"`

	Required bool `json:"required,omitempty"`
	Hidden   bool `json:"hidden,omitempty"`
	Disabled bool `json:"disabled,omitempty"`

	Enum    []any `json:"enum,omitempty"`
	Default any   `json:"default,omitempty"`

	InstillFormat string                `json:"instill_format,omitempty"`
	AcceptFormats []string              `json:"accept_formats,omitempty"`
	UpstreamTypes []domain.UpstreamType `json:"upstream_types,omitempty"`
	Credential    bool                  `json:"credential,omitempty"`
	Order         int                   `json:"order"`

	// Options and Selected are set on condition selectors.
	Options  []string `json:"options,omitempty"`
	Selected string   `json:"selected,omitempty"`

	Children []Field `json:"children,omitempty"`
}

// Walk visits f and all its descendants depth-first.
func (f Field) Walk(fn func(Field)) {
	fn(f)
	for _, c := range f.Children {
		c.Walk(fn)
	}
}

// Flatten lists every field of the tree depth-first.
func Flatten(fields []Field) []Field {
	var out []Field
	for _, f := range fields {
		f.Walk(func(x Field) { out = append(out, x) })
	}
	return out
}

func (c *compiler) fields(s *Schema, path string) []Field {
	resolved, key, state := c.resolve(s, path)

	var out []Field
	if key != "" {
		out = append(out, c.conditionField(s, path, key, state))
	}

	required := make(map[string]bool, len(resolved.Required))
	for _, r := range resolved.Required {
		required[r] = true
	}
	for k, prop := range resolved.Properties {
		if k == key || prop == nil {
			continue
		}
		out = append(out, c.field(k, prop, path, required[k]))
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		// selectors lead their siblings
		if ci, cj := out[i].Kind == KindCondition, out[j].Kind == KindCondition; ci != cj {
			return ci
		}
		return out[i].Key < out[j].Key
	})
	return out
}

func (c *compiler) conditionField(s *Schema, path, key string, state branchState) Field {
	fieldPath := reference.Join(path, key)
	f := Field{
		Path:     fieldPath,
		Key:      key,
		Title:    key,
		Kind:     KindCondition,
		Required: true,
		Disabled: c.opts.readOnly,
		Options:  s.BranchValues(),
	}
	if state == branchSelected || state == branchMissing {
		f.Selected = c.conds[fieldPath]
	}
	if first := s.OneOf[0].Properties[key]; first != nil {
		if first.Title != "" {
			f.Title = first.Title
		}
		f.Description = first.Description
		f.Order = order(first)
	}
	return f
}

func (c *compiler) field(key string, s *Schema, parentPath string, required bool) Field {
	path := reference.Join(parentPath, key)
	f := Field{
		Path:             path,
		Key:              key,
		Title:            s.Title,
		Description:      s.Description,
		ShortDescription: s.InstillShortDescription,
		Required:         required,
		Disabled:         c.opts.readOnly,
		Default:          s.Default,
		InstillFormat:    s.InstillFormat,
		AcceptFormats:    s.InstillAcceptFormats,
		Credential:       s.InstillCredentialField,
		Order:            order(s),
	}
	if f.Title == "" {
		f.Title = key
	}

	shape := s
	if len(s.AnyOf) > 0 {
		f.UpstreamTypes = s.upstreamTypes()
		vv := s.valueVariant()
		if vv == nil || !containsUpstream(f.UpstreamTypes, domain.UpstreamValue) {
			f.Kind = KindReferenceOnly
		} else {
			shape = valueSchema(s, vv)
		}
	}

	if f.Kind == "" {
		f.Kind, f.Enum = kindOf(shape)
		switch f.Kind {
		case KindObject:
			f.Children = c.fields(shape, path)
		case KindArray:
			if shape.Items != nil && isObject(shape.Items) {
				f.Children = c.fields(shape.Items, path+"[]")
			}
		}
	}

	if s.Const != nil {
		f.Hidden = true
	} else if c.opts.hidden != nil && c.opts.hidden(path, s) {
		f.Hidden = true
	}
	return f
}

func kindOf(s *Schema) (Kind, []any) {
	if len(s.Enum) > 0 {
		return KindSelect, s.Enum
	}
	switch s.Type {
	case "string":
		if s.InstillUIMultiline {
			return KindTextarea, nil
		}
		return KindText, nil
	case "integer":
		return KindInteger, nil
	case "number":
		return KindNumber, nil
	case "boolean":
		return KindBoolean, nil
	case "array":
		return KindArray, nil
	case "object":
		if len(s.Properties) > 0 || len(s.OneOf) > 0 {
			return KindObject, nil
		}
		return KindFreeForm, nil
	default:
		if len(s.Properties) > 0 || len(s.OneOf) > 0 {
			return KindObject, nil
		}
		if s.Const != nil {
			return KindText, nil
		}
		return KindFreeForm, nil
	}
}

func order(s *Schema) int {
	if s.InstillUIOrder == nil {
		return 0
	}
	return *s.InstillUIOrder
}
