package slug

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldDiacritics strips combining marks so "Café" slugifies to "cafe".
var foldDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Make derives a lowercase, hyphen-delimited, URL-safe slug from a title.
// Runs of non-alphanumeric characters collapse into a single hyphen and
// leading/trailing hyphens are trimmed.
func Make(title string) string {
	folded, _, err := transform.String(foldDiacritics, title)
	if err != nil {
		folded = title
	}

	var b strings.Builder
	b.Grow(len(folded))
	lastHyphen := true // suppress a leading hyphen
	for _, r := range strings.ToLower(folded) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}

	return strings.TrimRight(b.String(), "-")
}

// Allocate returns a slug for title that does not collide with any entry in
// existing. The base slug is tried first, then base-1, base-2, ... until a
// free candidate is found. Pure and deterministic: the same title and the
// same existing set always yield the same result.
//
// The existing set is a snapshot; the database's unique index on the slug
// column is the authority against concurrent creations.
func Allocate(title string, existing map[string]struct{}) string {
	base := Make(title)
	if base == "" {
		base = "project"
	}

	if _, taken := existing[base]; !taken {
		return base
	}

	for counter := 1; ; counter++ {
		candidate := fmt.Sprintf("%s-%d", base, counter)
		if _, taken := existing[candidate]; !taken {
			return candidate
		}
	}
}
