package relevance

import (
	"sort"
	"strings"

	"github.com/Veraticus/recollect/internal/model"
)

const (
	noteCeiling     = 10.0
	noteLimit       = 8
	noteSnippetsMax = 2
)

type scoredNote struct {
	item model.ScoredItem[model.Note]
	raw  float64
	best float64
}

// scoreNotes ranks notes by title, folder and content matches against the
// intent's entities, with a bonus for notes dated inside the range.
func scoreNotes(intent model.IntentContext, notes []model.Note) []model.ScoredItem[model.Note] {
	entities := intent.LowerEntities()
	candidates := make([]scoredNote, 0, len(notes))

	for _, n := range notes {
		var t tally
		var snippets []string
		title := strings.ToLower(strings.TrimSpace(n.Title))
		content := strings.ToLower(n.Content)
		folder := strings.ToLower(n.Folder)

		for _, e := range entities {
			switch {
			case title == e:
				t.add(10, model.MatchExactTitle)
			case strings.Contains(title, e):
				t.add(5, model.MatchExactTitle)
			}

			if strings.Contains(folder, e) {
				t.add(3, model.MatchFolder)
			}

			if strings.Contains(content, e) {
				if strings.TrimSpace(content) == e {
					t.add(2, model.MatchExactContent)
				} else {
					t.add(2, model.MatchContentKeyword)
				}
				if len(snippets) < noteSnippetsMax {
					if s := snippet(n.Content, e); s != "" {
						snippets = append(snippets, s)
					}
				}
			}
		}

		date := model.NewNoteItem(n).Date()
		if intent.DateRange != nil && intent.DateRange.Contains(date) {
			t.score += 1.5
			t.match = model.MatchDate
		}

		if t.score <= 0 {
			continue
		}
		candidates = append(candidates, scoredNote{
			item: model.ScoredItem[model.Note]{
				Item:           n,
				RelevanceScore: model.Normalize(t.score, noteCeiling),
				MatchType:      t.match,
				Snippets:       snippets,
			},
			raw:  t.score,
			best: t.best,
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.item.RelevanceScore != b.item.RelevanceScore {
			return a.item.RelevanceScore > b.item.RelevanceScore
		}
		if a.raw != b.raw {
			return a.raw > b.raw
		}
		if a.best != b.best {
			return a.best > b.best
		}
		da, db := model.NewNoteItem(a.item.Item).Date(), model.NewNoteItem(b.item.Item).Date()
		if !da.Equal(db) {
			return da.After(db)
		}
		return a.item.Item.ID < b.item.Item.ID
	})

	if len(candidates) > noteLimit {
		candidates = candidates[:noteLimit]
	}

	out := make([]model.ScoredItem[model.Note], len(candidates))
	for i, c := range candidates {
		out[i] = c.item
	}
	return out
}
