package relevance

import (
	"sort"
	"strings"
	"time"

	"github.com/Veraticus/recollect/internal/model"
)

const taskCeiling = 5.0

// distantFuture orders undated tasks after every dated one.
var distantFuture = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)

// scoreTasks gates tasks on the date range and matches entities against
// title and description. Results are in chronological order and uncapped.
func scoreTasks(intent model.IntentContext, tasks []model.Task) []model.ScoredItem[model.Task] {
	entities := intent.LowerEntities()
	out := make([]model.ScoredItem[model.Task], 0, len(tasks))

	for _, task := range tasks {
		var t tally
		effective, dated := task.EffectiveDate()

		if intent.DateRange != nil {
			if !dated || !intent.DateRange.Contains(effective) {
				continue
			}
			t.add(5, model.MatchDateRange)
		}

		title := strings.ToLower(task.Title)
		description := strings.ToLower(task.Description)
		for _, e := range entities {
			if strings.Contains(title, e) {
				t.add(3, model.MatchKeyword)
			}
			if strings.Contains(description, e) {
				t.add(1.5, model.MatchKeyword)
			}
		}

		if t.score <= 0 {
			continue
		}
		out = append(out, model.ScoredItem[model.Task]{
			Item:           task,
			RelevanceScore: model.Normalize(t.score, taskCeiling),
			MatchType:      t.match,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		da, db := sortDate(out[i].Item), sortDate(out[j].Item)
		if !da.Equal(db) {
			return da.Before(db)
		}
		if out[i].RelevanceScore != out[j].RelevanceScore {
			return out[i].RelevanceScore > out[j].RelevanceScore
		}
		return out[i].Item.ID < out[j].Item.ID
	})
	return out
}

func sortDate(task model.Task) time.Time {
	if d, ok := task.EffectiveDate(); ok {
		return d
	}
	return distantFuture
}
