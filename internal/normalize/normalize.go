package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Key reduces a text block to its canonical comparison form: NFC-folded,
// lowercased, and stripped of everything that is not a letter, digit, or
// underscore. Whitespace is removed entirely, so "a b" and "ab" collapse to
// the same key. The result is used only for comparison, never for display.
func Key(text string) string {
	if text == "" {
		return ""
	}
	folded := norm.NFC.String(text)
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if !isWordRune(r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
