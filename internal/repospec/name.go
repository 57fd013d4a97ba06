package repospec

import (
	"path/filepath"
	"strings"
	"unicode/utf8"
)

const MaxNameLength = 100

// Name is a repository identifier that passed ValidateName.
type Name string

func (n Name) String() string { return string(n) }

// ValidateName trims raw and checks it can be used as a repository name:
// non-empty, at most MaxNameLength characters, ASCII letters, digits, '-' and '_' only.
func ValidateName(raw string) (Name, error) {
	name := strings.TrimSpace(raw)

	if name == "" {
		return "", &ValidationError{Field: FieldName, Value: raw, Err: ErrEmptyName}
	}

	for _, r := range name {
		if !isNameRune(r) {
			return "", &ValidationError{Field: FieldName, Value: raw, Err: ErrInvalidCharacters}
		}
	}

	if utf8.RuneCountInString(name) > MaxNameLength {
		return "", &ValidationError{Field: FieldName, Value: raw, Err: ErrTooLong}
	}

	return Name(name), nil
}

// NameFromDir derives a candidate name from the base name of a local directory.
func NameFromDir(dir string) (Name, error) {
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return ValidateName(filepath.Base(filepath.Clean(dir)))
}

func isNameRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '-' || r == '_':
		return true
	}
	return false
}
