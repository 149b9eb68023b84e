package relevance

import (
	"strings"
	"unicode/utf8"

	"github.com/Veraticus/recollect/internal/model"
)

// snippetRadius is the number of runes kept either side of a content match.
const snippetRadius = 50

// tally accumulates weighted contributions and remembers which rule
// contributed the most.
type tally struct {
	match model.MatchType
	score float64
	best  float64
}

func (t *tally) add(weight float64, match model.MatchType) {
	t.score += weight
	if weight > t.best {
		t.best = weight
		t.match = match
	}
}

func containsFold(haystack, needle string) bool {
	if needle == "" {
		return false
	}
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func containsAnyFold(list []string, value string) bool {
	for _, v := range list {
		if strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(value)) {
			return true
		}
	}
	return false
}

// snippet returns up to snippetRadius runes either side of the first
// case-insensitive occurrence of needle in text. Truncated sides are
// marked with "...".
func snippet(text, needle string) string {
	runes := []rune(text)
	lower := []rune(strings.ToLower(text))
	if len(lower) != len(runes) {
		runes = lower
	}

	loweredText := string(lower)
	idx := strings.Index(loweredText, strings.ToLower(needle))
	if idx < 0 {
		return ""
	}

	start := utf8.RuneCountInString(loweredText[:idx])
	end := start + utf8.RuneCountInString(needle) + snippetRadius
	start -= snippetRadius
	if start < 0 {
		start = 0
	}
	if end > len(runes) {
		end = len(runes)
	}

	out := strings.TrimSpace(string(runes[start:end]))
	if start > 0 {
		out = "..." + out
	}
	if end < len(runes) {
		out += "..."
	}
	return out
}
