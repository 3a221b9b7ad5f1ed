package textnorm

import (
	"strings"
	"unicode"
)

// Normalize prepares raw input text for speech synthesis: control characters
// become spaces, typographic dashes and ellipses are flattened to their ASCII
// forms, and runs of whitespace collapse to a single space.
func Normalize(text string) string {
	replacer := strings.NewReplacer(
		"—", "-",
		"–", "-",
		"…", "...",
	)
	text = replacer.Replace(text)

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if unicode.IsControl(r) {
			b.WriteRune(' ')
			continue
		}
		b.WriteRune(r)
	}

	return strings.Join(strings.Fields(b.String()), " ")
}
