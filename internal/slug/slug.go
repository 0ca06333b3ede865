// Package slug derives URL-safe, per-owner-unique identifiers from titles.
package slug

import (
	"context"
	"fmt"
	"strings"
	"unicode"
)

// Fallback is used when a title contains no alphanumeric characters at all.
const Fallback = "logbook"

// ExistsFunc reports whether a candidate slug is already taken for the
// owner in question.
type ExistsFunc func(ctx context.Context, candidate string) (bool, error)

// Make normalizes a title into a lowercase hyphenated token: non-alphanumeric
// runs collapse to single hyphens, leading/trailing hyphens are trimmed.
func Make(title string) string {
	var b strings.Builder
	lastHyphen := true // suppress a leading hyphen
	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	s := strings.TrimRight(b.String(), "-")
	if s == "" {
		return Fallback
	}
	return s
}

// Allocate returns the first free candidate for title: the base token, then
// base-2, base-3, and so on. The exists probe is an optimistic pre-check
// only; the storage unique index remains the final arbiter, and callers
// must be prepared for a conflict at insert time.
func Allocate(ctx context.Context, title string, exists ExistsFunc) (string, error) {
	base := Make(title)
	candidate := base
	for i := 2; ; i++ {
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("slug: probe %q: %w", candidate, err)
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}
