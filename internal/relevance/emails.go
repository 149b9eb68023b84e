package relevance

import (
	"math"
	"sort"
	"strings"

	"github.com/Veraticus/recollect/internal/model"
)

const (
	emailCeiling = 4.0
	emailLimit   = 10

	// scores closer than this are ordered by recency instead.
	emailScoreTolerance = 0.1
)

// ImportanceKeywords flag an email as needing attention.
var ImportanceKeywords = []string{
	"urgent",
	"critical",
	"asap",
	"action required",
	"deadline",
	"important",
	"error",
	"warning",
	"failed",
}

// scoreEmails gates emails on the date range and scores sender, subject,
// body and importance signals.
func scoreEmails(intent model.IntentContext, emails []model.Email) []model.ScoredItem[model.Email] {
	entities := intent.LowerEntities()
	out := make([]model.ScoredItem[model.Email], 0, len(emails))

	for _, e := range emails {
		var t tally

		if intent.DateRange != nil {
			if !intent.DateRange.Contains(e.Timestamp) {
				continue
			}
			t.add(3, model.MatchDate)
		}

		sender := strings.ToLower(e.Sender)
		subject := strings.ToLower(e.Subject)
		body := strings.ToLower(e.Body)
		for _, entity := range entities {
			switch {
			case strings.Contains(sender, entity):
				t.add(4, model.MatchSender)
			case strings.Contains(subject, entity):
				t.add(3, model.MatchSubject)
			case strings.Contains(body, entity):
				t.add(2, model.MatchContent)
			}
		}

		var indicators []string
		text := subject + " " + body
		for _, kw := range ImportanceKeywords {
			if strings.Contains(text, kw) {
				indicators = append(indicators, kw)
				t.add(1, model.MatchImportance)
			}
		}
		if e.IsImportant {
			t.add(0.5, model.MatchImportance)
		}

		if t.score <= 0 {
			continue
		}
		out = append(out, model.ScoredItem[model.Email]{
			Item:                 e,
			RelevanceScore:       model.Normalize(t.score, emailCeiling),
			MatchType:            t.match,
			ImportanceIndicators: indicators,
		})
	}

	// The tolerance makes this ordering non-transitive, so start from a
	// fixed order to keep the result deterministic.
	sort.Slice(out, func(i, j int) bool { return out[i].Item.ID < out[j].Item.ID })
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if math.Abs(a.RelevanceScore-b.RelevanceScore) > emailScoreTolerance {
			return a.RelevanceScore > b.RelevanceScore
		}
		return a.Item.Timestamp.After(b.Item.Timestamp)
	})

	if len(out) > emailLimit {
		out = out[:emailLimit]
	}
	return out
}
