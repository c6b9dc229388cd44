package slugger

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"marlizintel.com/intel/internal/db"
)

const maxSlugLength = 100

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify converts a title into a URL-safe slug. Diacritics fold to their
// base letters, anything else non-alphanumeric collapses into hyphens.
func Slugify(title string) string {
	folded, _, err := transform.String(foldTransformer, title)
	if err != nil {
		folded = title
	}

	var b strings.Builder
	b.Grow(len(folded))
	lastHyphen := true
	for _, r := range strings.ToLower(folded) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}

	slug := strings.Trim(b.String(), "-")
	if len(slug) > maxSlugLength {
		slug = strings.Trim(slug[:maxSlugLength], "-")
	}
	return slug
}

// NextSuffix returns the candidate slug for a given attempt number.
// Attempt 0 is the base slug itself.
func NextSuffix(base string, attempt int) string {
	if attempt <= 0 {
		return base
	}
	return fmt.Sprintf("%s-%d", base, attempt)
}

// Allocate finds the first free slug for a title inside the caller's
// transaction, checking both the live and the buried namespaces so a
// tombstoned slug is never reused.
func Allocate(ctx context.Context, tx db.Tx, title string) (string, error) {
	base := Slugify(title)
	if base == "" {
		base = "article"
	}

	const q = `
SELECT EXISTS (SELECT 1 FROM intel.articles WHERE slug = $1)
    OR EXISTS (SELECT 1 FROM intel.deleted_articles WHERE slug = $1)
`

	for attempt := 0; ; attempt++ {
		candidate := NextSuffix(base, attempt)
		var taken bool
		if err := tx.QueryRow(ctx, q, candidate).Scan(&taken); err != nil {
			return "", fmt.Errorf("check slug %q: %w", candidate, err)
		}
		if !taken {
			return candidate, nil
		}
	}
}
