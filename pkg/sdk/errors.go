package sdk

import (
	"errors"
	"fmt"
)

// ErrMissingCredential matches every *MissingCredentialError.
var ErrMissingCredential = errors.New("missing credential")

// MissingCredentialError is returned when a call lacks the access token or the entity name it needs.
// No request is sent.
type MissingCredentialError struct {
	// Field names what is missing, e.g. "access_token" or "user_name".
	Field string
}

func (e *MissingCredentialError) Error() string {
	return fmt.Sprintf("%s: %s not provided", ErrMissingCredential, e.Field)
}

// Is makes errors.Is(err, ErrMissingCredential) true.
func (e *MissingCredentialError) Is(target error) bool {
	return target == ErrMissingCredential
}

// APIError is a non-2xx answer from the backend.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("api error: status %d: %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is a 404 APIError.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == 404
}

func missing(field string) error {
	return &MissingCredentialError{Field: field}
}
