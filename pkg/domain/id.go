package domain

import (
	"fmt"
	"regexp"
)

var idPattern = regexp.MustCompile(`^[a-z_][-a-z_0-9]{0,62}$`)

// ValidateID checks a component id against the identifier rules:
// lowercase letters, digits, '-' and '_', not starting with a digit or '-', at most 63 characters.
func ValidateID(id string) error {
	if !idPattern.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}
