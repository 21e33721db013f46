package schema

import "github.com/aretw0/pipebuilder/pkg/reference"

// ConditionsFromConfiguration picks the active oneOf branches from a stored configuration.
// Discriminators absent from the configuration stay unset. A discriminator holding a
// value no branch declares is recorded as is, so the validator built from it fails.
func ConditionsFromConfiguration(s *Schema, configuration any) ConditionMap {
	conds := ConditionMap{}
	collectConditions(s, "", configuration, conds, false)
	return conds
}

// DefaultConditions is ConditionsFromConfiguration falling back to the first branch
// for every unset discriminator. It gives a new node a complete form to start with.
func DefaultConditions(s *Schema, configuration any) ConditionMap {
	conds := ConditionMap{}
	collectConditions(s, "", configuration, conds, true)
	return conds
}

func collectConditions(s *Schema, path string, value any, conds ConditionMap, defaults bool) {
	if s == nil || !isObject(s) {
		return
	}
	m, _ := value.(map[string]any)

	if key := s.Discriminator(); key != "" {
		var branch *Schema
		if v, ok := m[key]; ok {
			branch = s.Branch(constString(v))
			if branch != nil || !defaults {
				conds[reference.Join(path, key)] = constString(v)
			}
		}
		if branch == nil && defaults {
			branch = s.OneOf[0]
			conds[reference.Join(path, key)] = constString(branch.Properties[key].Const)
		}
		if branch != nil {
			s = merge(s, branch)
		}
	}

	for k, prop := range s.Properties {
		if prop == nil {
			continue
		}
		collectConditions(prop, reference.Join(path, k), m[k], conds, defaults)
	}
}
