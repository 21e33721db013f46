// Package schema turns component definition schemas into validators and form field trees.
//
// A component definition is a JSON-Schema-like document extended with instill
// keywords. Fields may accept several upstream types (a literal value, a
// reference to another component's output, or a template) and objects may
// branch on a discriminator property, typically "task".
//
// Basic usage:
//
//	s, err := schema.ParseJSON(definition)
//	if err != nil {
//	    return err
//	}
//
//	conds := schema.ConditionsFromConfiguration(s, node.Configuration)
//	v, fields := schema.Transform(s, conds)
//
//	res := v.SafeParse(node.Configuration)
//	if !res.Success {
//	    for _, e := range res.Errors {
//	        log.Println(e.Path, e.Message)
//	    }
//	}
//
// A Validator is compiled for exactly one condition map. When the selected
// branch changes, Transform must be called again.
package schema
