package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var diacriticStripper = transform.Chain(
	norm.NFKD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// Normalize prepares spoken text for comparison: case-fold, strip diacritics
// and punctuation, collapse whitespace. Two takes of the same line normalize
// to the same string regardless of transcription casing or punctuation noise.
func Normalize(text string) string {
	lowered := strings.ToLower(text)
	if stripped, _, err := transform.String(diacriticStripper, lowered); err == nil {
		lowered = stripped
	}
	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// WordCount returns the number of whitespace-delimited words in the
// normalized form of text.
func WordCount(text string) int {
	return len(strings.Fields(Normalize(text)))
}
