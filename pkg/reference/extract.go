package reference

import (
	"sort"
	"strconv"

	"github.com/aretw0/pipebuilder/pkg/domain"
)

// Extract walks a configuration tree and returns every reference and template it contains.
// Map keys are visited in sorted order so the result is deterministic.
func Extract(configuration any, ownerNodeID string) []domain.ComponentReference {
	var refs []domain.ComponentReference
	walk(configuration, "", func(path, s string) {
		if p, ok := ParseReference(s); ok {
			target, rest := SplitPath(p)
			refs = append(refs, domain.ComponentReference{
				OwnerNodeID:      ownerNodeID,
				Path:             path,
				TargetNodeID:     target,
				TargetOutputPath: rest,
				Kind:             domain.ReferenceKindReference,
			})
			return
		}
		for _, p := range Templates(s) {
			target, rest := SplitPath(p)
			refs = append(refs, domain.ComponentReference{
				OwnerNodeID:      ownerNodeID,
				Path:             path,
				TargetNodeID:     target,
				TargetOutputPath: rest,
				Kind:             domain.ReferenceKindTemplate,
			})
		}
	})
	return refs
}

// ExtractNodes runs Extract over every node configuration, in node order.
func ExtractNodes(nodes []domain.PipelineNode) []domain.ComponentReference {
	var refs []domain.ComponentReference
	for _, n := range nodes {
		refs = append(refs, Extract(n.Configuration, n.ID)...)
	}
	return refs
}

func walk(v any, path string, visit func(path, s string)) {
	switch t := v.(type) {
	case string:
		visit(path, t)
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			walk(t[k], Join(path, k), visit)
		}
	case []any:
		for i, e := range t {
			walk(e, path+"["+strconv.Itoa(i)+"]", visit)
		}
	case []string:
		for i, e := range t {
			visit(path+"["+strconv.Itoa(i)+"]", e)
		}
	}
}

// Join appends key to a dotted path.
func Join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}
