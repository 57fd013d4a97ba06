package repospec

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const MaxDescriptionLength = 350

// CleanDescription drops control characters and collapses whitespace runs.
// A description still longer than MaxDescriptionLength is rejected, not truncated.
func CleanDescription(raw string) (string, error) {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r < ' ' || r == 0x7f {
			continue
		}
		b.WriteRune(r)
	}

	cleaned := strings.Join(strings.Fields(b.String()), " ")

	if n := utf8.RuneCountInString(cleaned); n > MaxDescriptionLength {
		return "", &ValidationError{
			Field: FieldDescription,
			Value: raw,
			Err:   fmt.Errorf("%w: got %d", ErrDescriptionTooLong, n),
		}
	}

	return cleaned, nil
}
