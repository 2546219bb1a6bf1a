package shared

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var foldChain = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// FoldSearch normalises a search term for accent-insensitive matching.
// Party and product names are commonly typed with or without Portuguese
// diacritics, so both the stored lookup column and the query term go
// through the same fold.
func FoldSearch(s string) string {
	folded, _, err := transform.String(foldChain, s)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(s))
	}
	return strings.ToLower(strings.TrimSpace(folded))
}
