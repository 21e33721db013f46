package schema

// Validator checks configuration values against a compiled schema.
// It is bound to the condition map it was compiled for.
type Validator struct {
	root       Type
	conditions ConditionMap
}

// Result is the outcome of SafeParse.
type Result struct {
	Success bool               `json:"success"`
	Data    any                `json:"data,omitempty"`
	Errors  []*ValidationError `json:"errors,omitempty"`
}

// Err returns the failures as an *AggregateError, or nil on success.
func (r Result) Err() error {
	if r.Success {
		return nil
	}
	errs := make([]error, len(r.Errors))
	for i, e := range r.Errors {
		errs[i] = e
	}
	return &AggregateError{Errors: errs}
}

// SafeParse validates value without panicking or mutating it.
// On success Data holds the parsed value with unknown keys of declared objects removed.
func (v *Validator) SafeParse(value any) Result {
	data, errs := v.root.Parse("", value)
	if len(errs) > 0 {
		return Result{Errors: errs}
	}
	return Result{Success: true, Data: data}
}

// Validate is SafeParse returning only the error.
func (v *Validator) Validate(value any) error {
	return v.SafeParse(value).Err()
}

// Conditions returns the condition map the validator was compiled for.
func (v *Validator) Conditions() ConditionMap {
	return v.conditions.Clone()
}

// Name describes the root type.
func (v *Validator) Name() string {
	return v.root.Name()
}
