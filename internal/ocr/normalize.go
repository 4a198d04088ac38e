package ocr

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

var ligatures = strings.NewReplacer(
	"\ufb01", "fi",
	"\ufb02", "fl",
)

// Normalize expands the fi/fl ligature glyphs, composes text to NFC and
// collapses every whitespace run (newlines included) to one space, trimmed.
// Ligatures go first so a combining mark after one composes in this pass:
// Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	if s == "" {
		return s
	}
	s = ligatures.Replace(s)
	s = norm.NFC.String(s)
	return strings.Join(strings.Fields(s), " ")
}
