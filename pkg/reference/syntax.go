package reference

import (
	"regexp"
	"strings"
)

// pathExpr matches a dotted path with optional bracketed indices: a.b_c[0].d-e
const pathExpr = `[A-Za-z0-9_-]+(?:\.[A-Za-z0-9_-]+|\[[0-9]+\])*`

var (
	referencePattern     = regexp.MustCompile(`^\{\s*(` + pathExpr + `)\s*\}$`)
	templatePattern      = regexp.MustCompile(`\{\{\s*(` + pathExpr + `)\s*\}\}`)
	wholeTemplatePattern = regexp.MustCompile(`^\{\{\s*(` + pathExpr + `)\s*\}\}$`)
)

// IsReference reports whether s is exactly one single-brace reference expression.
func IsReference(s string) bool {
	return referencePattern.MatchString(s)
}

// IsTemplate reports whether s is exactly one double-brace template expression.
func IsTemplate(s string) bool {
	return wholeTemplatePattern.MatchString(s)
}

// HasTemplate reports whether s embeds at least one template expression.
func HasTemplate(s string) bool {
	return templatePattern.MatchString(s)
}

// ParseReference returns the dotted path of a reference expression.
func ParseReference(s string) (string, bool) {
	m := referencePattern.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Templates returns the paths of every template expression in s, in order of appearance.
func Templates(s string) []string {
	matches := templatePattern.FindAllStringSubmatch(s, -1)
	if len(matches) == 0 {
		return nil
	}
	paths := make([]string, 0, len(matches))
	for _, m := range matches {
		paths = append(paths, m[1])
	}
	return paths
}

// SplitPath separates the target component id from the output path.
//
//	SplitPath("openai_0.output.texts[0]") // "openai_0", "output.texts[0]"
func SplitPath(path string) (target, rest string) {
	i := strings.IndexAny(path, ".[")
	if i < 0 {
		return path, ""
	}
	return path[:i], strings.TrimPrefix(path[i:], ".")
}
