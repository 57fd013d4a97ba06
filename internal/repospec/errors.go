package repospec

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyName          = errors.New("repository name cannot be empty")
	ErrInvalidCharacters  = errors.New("repository name can only contain letters, numbers, hyphens, and underscores")
	ErrTooLong            = fmt.Errorf("repository name cannot be longer than %d characters", MaxNameLength)
	ErrDescriptionTooLong = fmt.Errorf("description cannot be longer than %d characters", MaxDescriptionLength)
	ErrUnknownLicense     = errors.New("unknown license")
)

type Field string

const (
	FieldName        Field = "name"
	FieldDescription Field = "description"
	FieldLicense     Field = "license"
)

// ValidationError is returned for bad local input. It never reaches the remote API.
type ValidationError struct {
	Field Field
	Value string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
