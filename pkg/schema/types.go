package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/aretw0/pipebuilder/pkg/domain"
	"github.com/aretw0/pipebuilder/pkg/reference"
)

// Type is a compiled validation rule.
// Implementations determine how values are validated and what parsed data they yield.
type Type interface {
	// Name returns the human-readable name of the type (e.g., "string", "integer").
	Name() string
	// Parse checks value and returns the data to keep for it.
	Parse(path string, value any) (any, []*ValidationError)
}

// --- Built-in Type Implementations ---

// StringType accepts any string that is not a reference expression.
type StringType struct {
	enum []any
}

func (t *StringType) Name() string { return "string" }

func (t *StringType) Parse(path string, value any) (any, []*ValidationError) {
	s, ok := value.(string)
	if !ok {
		return nil, errs(newError(path, "expected string, got %T", value))
	}
	if reference.IsReference(s) {
		return nil, errs(newError(path, "reference is not accepted here"))
	}
	if err := checkEnum(path, t.enum, s); err != nil {
		return nil, errs(err)
	}
	return s, nil
}

// NumberType accepts numbers and numeric strings. Strings are kept as strings.
type NumberType struct {
	integer bool
	enum    []any
}

func (t *NumberType) Name() string {
	if t.integer {
		return "integer"
	}
	return "number"
}

func (t *NumberType) Parse(path string, value any) (any, []*ValidationError) {
	f, ok := toFloat(value)
	if !ok {
		return nil, errs(newError(path, "expected %s, got %s", t.Name(), describe(value)))
	}
	// Accept floats that are whole numbers (from JSON unmarshaling)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, errs(newError(path, "expected %s, got %v", t.Name(), value))
	}
	if t.integer && f != math.Trunc(f) {
		return nil, errs(newError(path, "expected integer, got %v", value))
	}
	if len(t.enum) > 0 {
		found := false
		for _, e := range t.enum {
			if ef, ok := toFloat(e); ok && ef == f {
				found = true
				break
			}
		}
		if !found {
			return nil, errs(newError(path, "value %v is not one of %v", value, t.enum))
		}
	}
	return value, nil
}

// BoolType validates boolean values.
type BoolType struct{}

func (t *BoolType) Name() string { return "boolean" }

func (t *BoolType) Parse(path string, value any) (any, []*ValidationError) {
	if _, ok := value.(bool); !ok {
		return nil, errs(newError(path, "expected boolean, got %T", value))
	}
	return value, nil
}

// ConstType accepts exactly one literal.
type ConstType struct {
	value any
}

func (t *ConstType) Name() string { return "const" }

func (t *ConstType) Parse(path string, value any) (any, []*ValidationError) {
	if !sameLiteral(value, t.value) {
		return nil, errs(newError(path, "expected %v, got %v", t.value, value))
	}
	return value, nil
}

// ReferenceType accepts a whole-string `{ path }` expression.
type ReferenceType struct{}

func (t *ReferenceType) Name() string { return "reference" }

func (t *ReferenceType) Parse(path string, value any) (any, []*ValidationError) {
	s, ok := value.(string)
	if !ok || !reference.IsReference(s) {
		return nil, errs(newError(path, "expected a reference like { component.output }"))
	}
	return s, nil
}

// TemplateType accepts a whole-string `{{ path }}` expression.
type TemplateType struct{}

func (t *TemplateType) Name() string { return "template" }

func (t *TemplateType) Parse(path string, value any) (any, []*ValidationError) {
	s, ok := value.(string)
	if !ok || !reference.IsTemplate(s) {
		return nil, errs(newError(path, "expected a template like {{ component.output }}"))
	}
	return s, nil
}

// AnyOfType accepts a value matching any of its variants, tried in declaration order.
type AnyOfType struct {
	variants []Type
}

func (t *AnyOfType) Name() string {
	names := make([]string, len(t.variants))
	for i, v := range t.variants {
		names[i] = v.Name()
	}
	return strings.Join(names, "|")
}

func (t *AnyOfType) Parse(path string, value any) (any, []*ValidationError) {
	for _, v := range t.variants {
		if data, verrs := v.Parse(path, value); len(verrs) == 0 {
			return data, nil
		}
	}
	return nil, errs(newError(path, "value does not match any accepted type (%s)", t.Name()))
}

// FreeType accepts anything and passes it through.
type FreeType struct{}

func (t *FreeType) Name() string { return "any" }

func (t *FreeType) Parse(_ string, value any) (any, []*ValidationError) {
	return domain.CloneValue(value), nil
}

// FailType rejects every value. It stands for a discriminator with no matching branch.
type FailType struct {
	message string
}

func (t *FailType) Name() string { return "never" }

func (t *FailType) Parse(path string, _ any) (any, []*ValidationError) {
	return nil, errs(newError(path, "%s", t.message))
}

// ObjectType validates declared properties. When strict, unknown keys are dropped from the data.
type ObjectType struct {
	properties map[string]Type
	required   map[string]bool
	strict     bool
}

func (t *ObjectType) Name() string { return "object" }

func (t *ObjectType) Parse(path string, value any) (any, []*ValidationError) {
	m, ok := value.(map[string]any)
	if !ok {
		return nil, errs(newError(path, "expected object, got %s", describe(value)))
	}

	out := make(map[string]any, len(m))
	if !t.strict {
		for k, v := range m {
			out[k] = domain.CloneValue(v)
		}
	}

	var all []*ValidationError
	keys := make([]string, 0, len(t.properties))
	for k := range t.properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		fieldPath := reference.Join(path, key)
		v, exists := m[key]
		if !exists || v == nil || v == "" {
			if t.required[key] {
				all = append(all, newError(fieldPath, "required"))
				continue
			}
			if exists && v == "" {
				out[key] = v
			}
			continue
		}
		data, verrs := t.properties[key].Parse(fieldPath, v)
		if len(verrs) > 0 {
			all = append(all, verrs...)
			continue
		}
		out[key] = data
	}

	if len(all) > 0 {
		return nil, all
	}
	return out, nil
}

// ArrayType validates every element against the item type.
type ArrayType struct {
	items Type
}

func (t *ArrayType) Name() string {
	if t.items == nil {
		return "array"
	}
	return fmt.Sprintf("[%s]", t.items.Name())
}

func (t *ArrayType) Parse(path string, value any) (any, []*ValidationError) {
	rv := reflect.ValueOf(value)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, errs(newError(path, "expected array, got %s", describe(value)))
	}

	out := make([]any, rv.Len())
	var all []*ValidationError
	// Validate each element
	for i := 0; i < rv.Len(); i++ {
		elem := rv.Index(i).Interface()
		if t.items == nil {
			out[i] = domain.CloneValue(elem)
			continue
		}
		data, verrs := t.items.Parse(path+"["+strconv.Itoa(i)+"]", elem)
		all = append(all, verrs...)
		out[i] = data
	}
	if len(all) > 0 {
		return nil, all
	}
	return out, nil
}

// sameLiteral compares literals, treating numbers of different Go types as equal.
func sameLiteral(a, b any) bool {
	if reflect.DeepEqual(a, b) {
		return true
	}
	_, aString := a.(string)
	_, bString := b.(string)
	if aString || bString {
		return false
	}
	fa, okA := toFloat(a)
	fb, okB := toFloat(b)
	return okA && okB && fa == fb
}

func errs(e ...*ValidationError) []*ValidationError { return e }

func checkEnum(path string, enum []any, s string) *ValidationError {
	if len(enum) == 0 {
		return nil
	}
	for _, e := range enum {
		if constString(e) == s {
			return nil
		}
	}
	return newError(path, "value %q is not one of %v", s, enum)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func describe(v any) string {
	if s, ok := v.(string); ok {
		return strconv.Quote(s)
	}
	return fmt.Sprintf("%T", v)
}

func constString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

func sortedKeys(keys []string) []string {
	out := append([]string{}, keys...)
	sort.Strings(out)
	return out
}
