package relevance

import (
	"sort"
	"strings"

	"github.com/Veraticus/recollect/internal/model"
)

const (
	locationCeiling = 5.0
	locationLimit   = 8

	// DistanceUnavailable is attached to locations for navigation queries
	// until a distance provider is configured.
	DistanceUnavailable = "distance unavailable"
)

// scoreLocations applies the geographic and rating gates, then scores
// category, name and rating.
func scoreLocations(intent model.IntentContext, locations []model.Location) []model.ScoredItem[model.Location] {
	entities := intent.LowerEntities()
	filter := intent.LocationFilter
	navigation := intent.Has(model.IntentNavigation)

	type candidate struct {
		item model.ScoredItem[model.Location]
		raw  float64
	}
	candidates := make([]candidate, 0, len(locations))

	for _, l := range locations {
		var t tally

		if filter.HasGeography() {
			matched := false
			if filter.Country != "" && containsFold(l.Country, filter.Country) {
				t.add(5, model.MatchGeographic)
				matched = true
			}
			if filter.City != "" && containsFold(l.City, filter.City) {
				t.add(4, model.MatchGeographic)
				matched = true
			}
			if filter.Province != "" && containsFold(l.Province, filter.Province) {
				t.add(3, model.MatchGeographic)
				matched = true
			}
			if !matched {
				continue
			}
		}

		if filter != nil {
			if filter.MinRating != nil && l.Rating < *filter.MinRating {
				continue
			}
			if filter.Category != "" && (containsFold(l.Category, filter.Category) || containsFold(l.Folder, filter.Category)) {
				t.add(3, model.MatchCategory)
			}
		}

		name := strings.ToLower(l.Name)
		category := strings.ToLower(l.Category)
		for _, e := range entities {
			if strings.Contains(name, e) {
				t.add(3, model.MatchExact)
			}
			if strings.Contains(category, e) {
				t.add(2, model.MatchCategory)
			}
		}

		if l.Rating > 0 {
			t.add(l.Rating/5*0.5, model.MatchRatingBoost)
		}

		if t.score <= 0 {
			continue
		}

		scored := model.ScoredItem[model.Location]{
			Item:           l,
			RelevanceScore: model.Normalize(t.score, locationCeiling),
			MatchType:      t.match,
		}
		if navigation {
			scored.Distance = DistanceUnavailable
		}
		candidates = append(candidates, candidate{item: scored, raw: t.score})
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.item.RelevanceScore != b.item.RelevanceScore {
			return a.item.RelevanceScore > b.item.RelevanceScore
		}
		if a.raw != b.raw {
			return a.raw > b.raw
		}
		return a.item.Item.ID < b.item.Item.ID
	})

	if len(candidates) > locationLimit {
		candidates = candidates[:locationLimit]
	}

	out := make([]model.ScoredItem[model.Location], len(candidates))
	for i, c := range candidates {
		out[i] = c.item
	}
	return out
}
