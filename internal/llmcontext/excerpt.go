package llmcontext

import (
	"strings"
	"unicode"
)

const (
	noteExcerptLimit  = 200
	emailExcerptLimit = 300
	ellipsis          = "..."
)

// Excerpt shortens text to at most limit runes, breaking on the last
// whitespace before the limit and appending an ellipsis.
func Excerpt(text string, limit int) string {
	runes := []rune(text)
	if limit <= 0 || len(runes) <= limit {
		return text
	}

	cut := runes[:limit]
	if !unicode.IsSpace(runes[limit]) {
		for i := len(cut) - 1; i > 0; i-- {
			if unicode.IsSpace(cut[i]) {
				cut = cut[:i]
				break
			}
		}
	}

	return strings.TrimRightFunc(string(cut), unicode.IsSpace) + ellipsis
}
