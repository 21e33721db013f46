// Package form assembles what a renderer needs to draw one node's configuration form.
package form

import (
	"sort"

	"github.com/aretw0/pipebuilder/pkg/reference"
	"github.com/aretw0/pipebuilder/pkg/schema"
)

// Mode selects how the form may be used.
type Mode string

const (
	ModeEditable Mode = "editable"
	ModeReadOnly Mode = "read-only"
)

// Form is the renderable description of a node configuration.
type Form struct {
	Fields     []schema.Field      `json:"fields"`
	Validator  *schema.Validator   `json:"-"`
	Conditions schema.ConditionMap `json:"conditions"`
	// FreeForm is set when no definition schema was available.
	FreeForm bool `json:"free_form,omitempty"`
}

type options struct {
	mode   Mode
	onNode bool
}

// Option configures Build.
type Option func(*options)

// WithMode sets editable or read-only mode.
func WithMode(m Mode) Option {
	return func(o *options) {
		o.mode = m
	}
}

// OnNode hides fields that are not editable directly on the node.
func OnNode() Option {
	return func(o *options) {
		o.onNode = true
	}
}

// Build creates the form for configuration against s. The active branches are
// read from the configuration, falling back to the first branch of each
// discriminator. A nil schema yields free-form fields derived from the
// configuration itself instead of failing.
func Build(s *schema.Schema, configuration map[string]any, opts ...Option) Form {
	o := options{mode: ModeEditable}
	for _, opt := range opts {
		opt(&o)
	}

	var topts []schema.TransformOption
	if o.mode == ModeReadOnly {
		topts = append(topts, schema.WithReadOnly())
	}

	if s == nil {
		v, _ := schema.Transform(nil, nil)
		return Form{
			Fields:     freeFormFields(configuration, "", o.mode == ModeReadOnly),
			Validator:  v,
			Conditions: schema.ConditionMap{},
			FreeForm:   true,
		}
	}

	if o.onNode {
		topts = append(topts, schema.HideOffNodeFields(s))
	}
	conds := schema.DefaultConditions(s, configuration)
	v, fields := schema.Transform(s, conds, topts...)
	return Form{Fields: fields, Validator: v, Conditions: conds}
}

// freeFormFields describes an arbitrary configuration value as editable fields.
func freeFormFields(value map[string]any, path string, readOnly bool) []schema.Field {
	keys := make([]string, 0, len(value))
	for k := range value {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make([]schema.Field, 0, len(keys))
	for i, k := range keys {
		p := reference.Join(path, k)
		f := schema.Field{
			Path:     p,
			Key:      k,
			Title:    k,
			Disabled: readOnly,
			Order:    i,
		}
		switch v := value[k].(type) {
		case map[string]any:
			f.Kind = schema.KindObject
			f.Children = freeFormFields(v, p, readOnly)
		case []any:
			f.Kind = schema.KindArray
		case bool:
			f.Kind = schema.KindBoolean
		case float64, float32, int, int64:
			f.Kind = schema.KindNumber
		case string:
			f.Kind = schema.KindText
		default:
			f.Kind = schema.KindFreeForm
		}
		fields = append(fields, f)
	}
	return fields
}
