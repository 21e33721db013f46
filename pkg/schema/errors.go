package schema

import "fmt"

// ValidationError represents a single field validation failure.
type ValidationError struct {
	Path    string `json:"path"`    // Dotted path of the field
	Message string `json:"message"` // Human-readable reason for failure
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("field %q: %s", e.Path, e.Message)
}

// AggregateError represents multiple validation failures.
type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msg := fmt.Sprintf("%d validation errors:\n", len(e.Errors))
	for i, err := range e.Errors {
		msg += fmt.Sprintf("  %d. %s\n", i+1, err.Error())
	}
	return msg
}

// ValidationErrors returns all validation errors if err is an AggregateError.
// Otherwise returns nil.
func ValidationErrors(err error) []error {
	if aggr, ok := err.(*AggregateError); ok {
		return aggr.Errors
	}
	return nil
}

func newError(path, format string, args ...any) *ValidationError {
	return &ValidationError{Path: path, Message: fmt.Sprintf(format, args...)}
}
