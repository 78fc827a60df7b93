package halo

import (
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

// Slugify derives a URL-safe slug from a title: diacritics are folded to
// their base letters, runs of whitespace collapse to single hyphens, and
// everything outside [a-z0-9-] is dropped. A title with no usable
// characters, such as one written entirely in a non-Latin script, falls
// back to a random UUID so the slug is never empty.
func Slugify(input string) string {
	decomposed := norm.NFKD.String(input)

	var b strings.Builder
	for _, r := range decomposed {
		switch {
		case unicode.Is(unicode.Mn, r):
			// Combining marks left over from decomposition.
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(unicode.ToLower(r))
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}

	slug := strings.Join(strings.Fields(b.String()), "-")
	for strings.Contains(slug, "--") {
		slug = strings.ReplaceAll(slug, "--", "-")
	}
	slug = strings.Trim(slug, "-")
	if slug == "" {
		return uuid.NewString()
	}
	return slug
}
