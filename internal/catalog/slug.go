package catalog

import (
	"context"
	"fmt"
	"strings"
	"unicode"
)

// maxSlugBase leaves room for a numeric suffix in a 120 character slug.
const maxSlugBase = 110

// Slugify lower-cases s, drops characters other than ASCII letters, digits,
// underscores and hyphens, and joins words with single hyphens.
func Slugify(s string) string {
	var b strings.Builder
	pendingDash := false

	for _, r := range strings.ToLower(s) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'):
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
		case r == '-' || unicode.IsSpace(r):
			pendingDash = true
		}
	}

	return strings.Trim(b.String(), "-_")
}

// uniqueSlug returns base, or base-N with the smallest N >= 1 not yet taken.
func uniqueSlug(ctx context.Context, store Store, base string) (string, error) {
	if len(base) > maxSlugBase {
		base = strings.TrimRight(base[:maxSlugBase], "-")
	}

	candidate := base
	for n := 1; ; n++ {
		exists, err := store.SlugExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
}
