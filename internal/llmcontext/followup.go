package llmcontext

import (
	"strings"
	"unicode"
)

var continuationCues = []string{
	"what about",
	"how about",
	"same for",
	"and",
	"also",
	"those",
	"them",
}

var timeframeWords = map[string]struct{}{
	"today":     {},
	"tonight":   {},
	"yesterday": {},
	"tomorrow":  {},
	"morning":   {},
	"afternoon": {},
	"evening":   {},
	"weekend":   {},
	"week":      {},
	"month":     {},
	"year":      {},
}

var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "what": {}, "about": {}, "how": {},
	"did": {}, "does": {}, "have": {}, "has": {}, "had": {}, "was": {},
	"were": {}, "are": {}, "you": {}, "your": {}, "can": {}, "any": {},
	"all": {}, "show": {}, "tell": {}, "with": {}, "this": {}, "that": {},
	"from": {}, "last": {}, "next": {}, "there": {}, "much": {}, "many": {},
	"when": {}, "where": {}, "which": {}, "who": {}, "why": {}, "also": {},
	"those": {}, "them": {}, "same": {}, "into": {}, "out": {}, "get": {},
	"give": {}, "list": {}, "spend": {}, "spent": {}, "some": {}, "our": {},
}

// DetectFollowUp compares query with the most recent user turn in history.
// History holds prior turns only.
func DetectFollowUp(query string, history []Turn) TemporalContext {
	tc := TemporalContext{SharedKeywords: []string{}}

	previous := lastUserTurn(history)
	current := strings.ToLower(strings.TrimSpace(query))
	if previous == "" || current == "" {
		return tc
	}
	tc.PreviousQuery = previous

	prevWords := make(map[string]struct{})
	for _, w := range tokenize(strings.ToLower(previous)) {
		prevWords[w] = struct{}{}
	}

	seen := make(map[string]struct{})
	for _, w := range tokenize(current) {
		if _, ok := prevWords[w]; !ok {
			continue
		}
		if _, ok := timeframeWords[w]; ok {
			if tc.SharedTimeframe == "" {
				tc.SharedTimeframe = w
			}
			continue
		}
		if len(w) < 3 {
			continue
		}
		if _, ok := stopwords[w]; ok {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		tc.SharedKeywords = append(tc.SharedKeywords, w)
	}

	tc.IsFollowUp = startsWithCue(current) || len(tc.SharedKeywords) > 0 || tc.SharedTimeframe != ""
	return tc
}

func lastUserTurn(history []Turn) string {
	for i := len(history) - 1; i >= 0; i-- {
		if strings.EqualFold(history[i].Role, "user") {
			return strings.TrimSpace(history[i].Content)
		}
	}
	return ""
}

func startsWithCue(query string) bool {
	for _, cue := range continuationCues {
		if !strings.HasPrefix(query, cue) {
			continue
		}
		rest := query[len(cue):]
		if rest == "" {
			return true
		}
		r := []rune(rest)[0]
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

func tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
