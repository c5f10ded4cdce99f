package tags

import (
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// legacyCharmaps are the single-byte code pages that older converters used
// when they misread UTF-8 tag names.
var legacyCharmaps = []*charmap.Charmap{
	charmap.Windows1252,
	charmap.ISO8859_1,
}

// Variants returns the mojibake spellings of s: the UTF-8 bytes of s decoded
// as each legacy code page. Spellings identical to s, or that contain
// unmappable bytes, are omitted.
func Variants(s string) []string {
	var out []string
	for _, cm := range legacyCharmaps {
		v, err := cm.NewDecoder().String(s)
		if err != nil || v == s {
			continue
		}
		if !utf8.ValidString(v) || containsReplacement(v) {
			continue
		}
		out = append(out, v)
	}
	return out
}

func containsReplacement(s string) bool {
	for _, r := range s {
		if r == utf8.RuneError {
			return true
		}
	}
	return false
}
