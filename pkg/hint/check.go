package hint

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/aretw0/pipebuilder/pkg/domain"
	"github.com/aretw0/pipebuilder/pkg/reference"
)

// Warning flags a reference or template that no hint provides.
type Warning struct {
	Kind    domain.ReferenceKind `json:"kind"`
	Path    string               `json:"path"`
	Message string               `json:"message"`
}

var indexPattern = regexp.MustCompile(`\[[0-9]+\]`)

// Check returns a warning for the first reference or template in value whose
// path is not covered by any hint, or nil.
func Check(hints []domain.SmartHint, value string) *Warning {
	for _, ref := range reference.Extract(value, "") {
		path := reference.Join(ref.TargetNodeID, ref.TargetOutputPath)
		if strings.HasPrefix(ref.TargetOutputPath, "[") {
			path = ref.TargetNodeID + ref.TargetOutputPath
		}
		if covered(hints, path) {
			continue
		}
		return &Warning{
			Kind:    ref.Kind,
			Path:    path,
			Message: fmt.Sprintf("%s %q does not match any available output", ref.Kind, path),
		}
	}
	return nil
}

func covered(hints []domain.SmartHint, path string) bool {
	bare := indexPattern.ReplaceAllString(path, "")
	for _, h := range hints {
		if h.Path == path || h.Path == bare || strings.HasPrefix(bare, h.Path+".") {
			return true
		}
	}
	return false
}
