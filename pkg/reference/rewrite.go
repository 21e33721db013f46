package reference

import (
	"regexp"
	"strings"

	"github.com/aretw0/pipebuilder/pkg/domain"
)

// RewriteTarget returns a deep copy of value where every reference or template
// addressing oldID is redirected to newID. Other strings are left untouched.
func RewriteTarget(value any, oldID, newID string) any {
	switch t := value.(type) {
	case string:
		return rewriteString(t, oldID, newID)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, v := range t {
			out[k] = RewriteTarget(v, oldID, newID)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, v := range t {
			out[i] = RewriteTarget(v, oldID, newID)
		}
		return out
	case []string:
		out := make([]string, len(t))
		for i, v := range t {
			out[i] = rewriteString(v, oldID, newID)
		}
		return out
	default:
		return domain.CloneValue(value)
	}
}

func rewriteString(s, oldID, newID string) string {
	if referencePattern.MatchString(s) {
		return replacePaths(s, referencePattern, oldID, newID)
	}
	return replacePaths(s, templatePattern, oldID, newID)
}

// replacePaths swaps the first segment of each matched path, keeping the surrounding text and spacing.
func replacePaths(s string, re *regexp.Regexp, oldID, newID string) string {
	locs := re.FindAllStringSubmatchIndex(s, -1)
	if len(locs) == 0 {
		return s
	}
	var b strings.Builder
	last := 0
	for _, loc := range locs {
		start := loc[2]
		target, _ := SplitPath(s[start:loc[3]])
		if target != oldID {
			continue
		}
		b.WriteString(s[last:start])
		b.WriteString(newID)
		last = start + len(target)
	}
	b.WriteString(s[last:])
	return b.String()
}
