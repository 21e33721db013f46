package hint

import (
	"math"
	"sort"
	"strings"

	"github.com/aretw0/pipebuilder/pkg/domain"
)

// Filter selects the hints a field may use.
//
// A hint is kept when its format is accepted and it belongs to another component.
// When both cursorPos and triggerPos are set, the text typed between them narrows
// the list by case-insensitive substring of the hint path. The result is ordered by
// the owning component's position in order, stable within a component.
func Filter(all []domain.SmartHint, acceptFormats []string, cursorPos, triggerPos *int, fieldValue, componentID string, order map[string]int) []domain.SmartHint {
	query := strings.ToLower(typed(fieldValue, cursorPos, triggerPos))

	out := make([]domain.SmartHint, 0, len(all))
	for _, h := range all {
		if h.ComponentID == componentID {
			continue
		}
		if !Accepts(acceptFormats, h.InstillFormat) {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(h.Path), query) {
			continue
		}
		out = append(out, h)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return rank(order, out[i].ComponentID) < rank(order, out[j].ComponentID)
	})
	return out
}

func rank(order map[string]int, id string) int {
	if p, ok := order[id]; ok {
		return p
	}
	return math.MaxInt
}

// typed returns the text between the trigger and the cursor, without braces or spaces.
func typed(value string, cursorPos, triggerPos *int) string {
	if cursorPos == nil || triggerPos == nil {
		return ""
	}
	runes := []rune(value)
	from, to := *triggerPos, *cursorPos
	if from < 0 || to > len(runes) || from >= to {
		return ""
	}
	return strings.Trim(string(runes[from:to]), " {")
}

// Accepts reports whether format satisfies one of the accepted formats.
// "*" and "*/*" accept everything, "image/*" accepts any image format.
// An empty accept list accepts everything.
func Accepts(acceptFormats []string, format string) bool {
	if len(acceptFormats) == 0 {
		return true
	}
	for _, a := range acceptFormats {
		switch {
		case a == "*" || a == "*/*":
			return true
		case a == format:
			return true
		case strings.HasSuffix(a, "/*"):
			if mainType(format) == strings.TrimSuffix(a, "/*") {
				return true
			}
		}
	}
	return false
}

func mainType(format string) string {
	if i := strings.Index(format, "/"); i >= 0 {
		return format[:i]
	}
	return format
}
