// Package naming turns free-form display names into identifiers.
//
// Two policies live here and must stay separate:
//
//   - Physical produces lower-case ASCII storage identifiers. Its output is
//     persisted in the diagram as a physical name.
//   - ExportToken produces legible tokens for generated diagram text. It keeps
//     case and Hangul letters and is never written back into a diagram.
package naming

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const (
	// PhysicalFallback replaces names that sanitize to nothing under Physical.
	PhysicalFallback = "unnamed"

	// ExportFallback replaces names that sanitize to nothing under ExportToken.
	ExportFallback = "entity"
)

// hangul holds the script ranges ExportToken keeps besides ASCII letters and
// digits: compatibility jamo consonants and vowels, and precomposed syllables.
var hangul = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x3131, Hi: 0x314e, Stride: 1}, // ㄱ..ㅎ
		{Lo: 0x314f, Hi: 0x3163, Stride: 1}, // ㅏ..ㅣ
		{Lo: 0xac00, Hi: 0xd7a3, Stride: 1}, // 가..힣
	},
}

// Physical derives a storage identifier from name: lower-cased, every rune
// outside [a-z0-9] replaced by '_', runs of '_' collapsed and trimmed.
func Physical(name string) string {
	lowered := strings.ToLower(name)
	out := replaceRunes(lowered, func(r rune) bool {
		return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
	})
	if out == "" {
		return PhysicalFallback
	}
	return out
}

// ExportToken derives an identifier for generated text. Case is preserved and
// Hangul letters survive alongside ASCII letters and digits.
func ExportToken(name string) string {
	composed := norm.NFC.String(name)
	out := replaceRunes(composed, isExportRune)
	if out == "" {
		return ExportFallback
	}
	return out
}

func isExportRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	default:
		return unicode.Is(hangul, r)
	}
}

// replaceRunes maps runes rejected by keep to '_' and joins the non-empty
// segments with a single '_'.
func replaceRunes(s string, keep func(rune) bool) string {
	var b strings.Builder
	b.Grow(len(s))

	pending := false
	for _, r := range s {
		if !keep(r) {
			pending = b.Len() > 0
			continue
		}
		if pending {
			b.WriteByte('_')
			pending = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
