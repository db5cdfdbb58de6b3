package slugs

import (
	"regexp"
	"strings"
	"unicode"
)

// DefaultMaxLength caps slug length.
const DefaultMaxLength = 50

var validSlug = regexp.MustCompile(`^[a-z0-9-]+$`)

// Normalize derives the base slug for title:
//
//  1. lowercase
//  2. drop everything outside [a-z0-9], whitespace and "-"
//  3. runs of whitespace and "-" become a single "-"
//  4. leading and trailing "-" are trimmed
//  5. the result is cut to DefaultMaxLength bytes
//
// The result is empty when title has no ASCII letters or digits.
func Normalize(title string) string {
	return normalize(title, DefaultMaxLength)
}

func normalize(title string, maxLength int) string {
	var b strings.Builder
	b.Grow(len(title))

	separator := false
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if separator && b.Len() > 0 {
				b.WriteByte('-')
			}
			separator = false
			b.WriteRune(r)
		case r == '-' || unicode.IsSpace(r):
			separator = true
		}
	}

	out := b.String()
	if maxLength > 0 && len(out) > maxLength {
		out = out[:maxLength]
	}
	return out
}

// IsValid reports whether value is a well-formed slug no longer than
// DefaultMaxLength.
func IsValid(value string) bool {
	return len(value) <= DefaultMaxLength && validSlug.MatchString(value)
}
