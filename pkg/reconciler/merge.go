package reconciler

import (
	"github.com/aretw0/pipebuilder/pkg/domain"
)

// mergeConfiguration folds parsed form values into the stored configuration.
//
// With the task unchanged, the input object is merged key by key so inputs the
// form does not render survive. A task change replaces input wholesale since
// inputs of the old task are meaningless for the new one.
func mergeConfiguration(current, parsed map[string]any) map[string]any {
	out := domain.CloneMap(current)
	if out == nil {
		out = make(map[string]any, len(parsed))
	}

	sameTask := taskOf(current) == taskOf(parsed)
	for k, v := range parsed {
		if k == domain.KeyInput && sameTask {
			prevInput, _ := out[domain.KeyInput].(map[string]any)
			nextInput, ok := v.(map[string]any)
			if ok {
				merged := domain.CloneMap(prevInput)
				if merged == nil {
					merged = make(map[string]any, len(nextInput))
				}
				for ik, iv := range nextInput {
					merged[ik] = domain.CloneValue(iv)
				}
				out[k] = merged
				continue
			}
		}
		out[k] = domain.CloneValue(v)
	}

	if !sameTask {
		if _, ok := parsed[domain.KeyInput]; !ok {
			delete(out, domain.KeyInput)
		}
	}
	return out
}

func taskOf(cfg map[string]any) string {
	task, _ := cfg[domain.KeyTask].(string)
	return task
}
