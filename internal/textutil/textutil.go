// Package textutil provides text normalization helpers shared by the scoring
// engine and the query layer. All matching in the application is done against
// folded text: lowercase, accent-stripped, with non-alphanumeric runs
// collapsed to single spaces.
package textutil

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonWord    = regexp.MustCompile(`[^\p{L}\p{N}+#.]+`)
	multiSpace = regexp.MustCompile(`\s+`)

	deaccent = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// Fold lowercases the string and strips diacritics, so that "São Paulo"
// and "sao paulo" compare equal.
func Fold(s string) string {
	folded, _, err := transform.String(deaccent, strings.ToLower(s))
	if err != nil {
		// The transform chain cannot fail on valid UTF-8; fall back to the
		// lowercased input for anything else.
		return strings.ToLower(s)
	}
	return folded
}

// Normalize folds the string and replaces every non-word run with a single
// space. "+", "#" and "." survive so terms like "c++", "c#" and "node.js"
// keep their identity.
func Normalize(s string) string {
	s = Fold(s)
	s = nonWord.ReplaceAllString(s, " ")
	s = multiSpace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// ContainsPhrase reports whether the normalized phrase occurs in the
// normalized text as whole words. "rest api" is found in "... rest api ..."
// but not in "... rest apis ...".
func ContainsPhrase(normalizedText, normalizedPhrase string) bool {
	if normalizedPhrase == "" {
		return false
	}
	hay := " " + normalizedText + " "
	needle := " " + normalizedPhrase + " "
	return strings.Contains(hay, needle)
}

// ContainsFold reports whether substr occurs in s, ignoring case and accents.
// Used for substring search over titles and descriptions.
func ContainsFold(s, substr string) bool {
	if substr == "" {
		return true
	}
	return strings.Contains(Fold(s), Fold(substr))
}
