package conversion

import "unicode"

// DetectLanguage picks a synthesis language for text that arrived without
// one: any Cyrillic rune selects Russian, everything else falls back to
// English.
func DetectLanguage(text string) string {
	for _, r := range text {
		if unicode.Is(unicode.Cyrillic, r) {
			return "ru"
		}
	}
	return "en"
}
