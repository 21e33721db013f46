package middleware

import (
	"context"
	"regexp"

	"github.com/aretw0/pipebuilder/pkg/domain"
	"github.com/aretw0/pipebuilder/pkg/ports"
	"github.com/aretw0/pipebuilder/pkg/reference"
)

// Mask replaces the value of every masked configuration key.
const Mask = "***"

type piiMiddleware struct {
	next     ports.RecipeStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks configuration values whose key
// matches one of the patterns, e.g. credentials typed into a connector setup.
// References and templates are kept so the stored graph stays intact.
func NewPIIMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.RecipeStore) ports.RecipeStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}
}

func (m *piiMiddleware) Save(ctx context.Context, pipelineID string, recipe *domain.Recipe) error {
	cloned := recipe.Clone()
	for i := range cloned.Components {
		maskMap(cloned.Components[i].Configuration, m.patterns)
	}
	return m.next.Save(ctx, pipelineID, cloned)
}

func (m *piiMiddleware) Load(ctx context.Context, pipelineID string) (*domain.Recipe, error) {
	return m.next.Load(ctx, pipelineID)
}

func (m *piiMiddleware) Delete(ctx context.Context, pipelineID string) error {
	return m.next.Delete(ctx, pipelineID)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func maskMap(m map[string]any, patterns []*regexp.Regexp) {
	for k, v := range m {
		if s, ok := v.(string); ok && matches(k, patterns) && !wired(s) {
			m[k] = Mask
			continue
		}
		switch t := v.(type) {
		case map[string]any:
			maskMap(t, patterns)
		case []any:
			for _, item := range t {
				if sub, ok := item.(map[string]any); ok {
					maskMap(sub, patterns)
				}
			}
		}
	}
}

func matches(key string, patterns []*regexp.Regexp) bool {
	for _, p := range patterns {
		if p.MatchString(key) {
			return true
		}
	}
	return false
}

func wired(s string) bool {
	return reference.IsReference(s) || reference.HasTemplate(s)
}
