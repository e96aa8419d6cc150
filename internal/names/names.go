// Package names canonicalizes indicator display names so values scraped from
// the portal can be matched against the curated catalog despite naming drift
// (HTML entities, trailing unit clauses, whitespace, known abbreviations).
package names

import (
	"html"
	"regexp"
	"strings"
)

var (
	trailingParenRe = regexp.MustCompile(`\s*\([^()]*\)\s*$`)
	whitespaceRe    = regexp.MustCompile(`\s+`)
)

// aliases maps normalized portal names to their catalog spelling. Entries are
// curated by hand for drift that normalization cannot fix. Exact match only:
// no edit-distance or token fuzzing, to avoid false-positive catalog hits.
var aliases = map[string]string{
	"Темп роста (индекс роста) реального среднедушевого денежного дохода населения": "Темп роста реального среднедушевого денежного дохода населения",
	"Уровень бедности, в %": "Уровень бедности",
	"Доля граждан, систематически занимающихся физкультурой и спортом": "Доля граждан, систематически занимающихся физической культурой и спортом",
}

// Normalize applies the canonicalization pipeline: HTML-entity decode, strip
// one trailing parenthetical clause, collapse whitespace runs, trim.
// &nbsp; decodes to U+00A0, which \s does not match, so it is downgraded to
// a plain space before collapsing.
func Normalize(name string) string {
	decoded := html.UnescapeString(name)
	decoded = strings.ReplaceAll(decoded, "\u00a0", " ")
	stripped := trailingParenRe.ReplaceAllString(decoded, "")
	collapsed := whitespaceRe.ReplaceAllString(stripped, " ")
	return strings.TrimSpace(collapsed)
}

// CatalogKeys returns the lookup keys for a portal display name, in match
// order: the alias target (or the normalized name when no alias applies),
// then the HTML-decoded original as a fallback.
func CatalogKeys(name string) []string {
	normalized := Normalize(name)
	key := normalized
	if target, ok := aliases[normalized]; ok {
		key = target
	}

	fallback := strings.TrimSpace(html.UnescapeString(name))
	if fallback == key {
		return []string{key}
	}
	return []string{key, fallback}
}

// Alias reports the catalog spelling for a normalized name, if one is curated.
func Alias(normalized string) (string, bool) {
	target, ok := aliases[normalized]
	return target, ok
}
