package normalize

import (
	"regexp"
	"strings"

	"github.com/albapepper/futbol-tracker/internal/record"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	nonWordRe    = regexp.MustCompile(`[^\w]`)
)

// DocID builds the deterministic document key "{category}_{name}": the name
// is lowercased, whitespace runs become "_" and every remaining non-word
// character is dropped. The same (category, name) always yields the same key.
func DocID(category record.Category, name string) string {
	slug := strings.ToLower(name)
	slug = whitespaceRe.ReplaceAllString(slug, "_")
	slug = nonWordRe.ReplaceAllString(slug, "")
	return string(category) + "_" + slug
}

// Text collapses whitespace runs to single spaces and trims the ends, which
// is how a browser's innerText presents table cells.
func Text(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
