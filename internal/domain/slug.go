package domain

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldLetters cubre las letras que NFD no descompone.
var foldLetters = strings.NewReplacer(
	"ß", "ss", "ẞ", "ss",
	"Ø", "o", "ø", "o",
	"Ł", "l", "ł", "l",
	"Æ", "ae", "æ", "ae",
	"Œ", "oe", "œ", "oe",
	"Đ", "d", "đ", "d",
	"Þ", "th", "þ", "th",
)

// Slugify pasa a minúsculas, quita diacríticos y colapsa todo lo que no sea
// alfanumérico en un único guión. Nunca deja guiones en los extremos.
func Slugify(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	clean, _, err := transform.String(t, foldLetters.Replace(s))
	if err != nil {
		clean = foldLetters.Replace(s)
	}
	clean = strings.ToLower(clean)

	var b strings.Builder
	b.Grow(len(clean))
	pendingDash := false
	for _, r := range clean {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	return b.String()
}
