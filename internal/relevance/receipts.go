package relevance

import (
	"sort"
	"strings"

	"github.com/Veraticus/recollect/internal/model"
)

const receiptCeiling = 5.0

// receiptCandidates returns the receipts that pass the date and amount gates.
func receiptCandidates(intent model.IntentContext, receipts []model.Receipt, bounds AmountBounds) []model.Receipt {
	out := make([]model.Receipt, 0, len(receipts))
	for _, r := range receipts {
		if intent.DateRange != nil && !intent.DateRange.Contains(r.Date) {
			continue
		}
		if !bounds.Allows(r.Amount) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// scoreReceipts scores every receipt that passes the gates. profiles is
// keyed by lowercased merchant name and may be nil. The result is sorted
// by date, newest first, and never capped.
func scoreReceipts(intent model.IntentContext, receipts []model.Receipt, bounds AmountBounds, profiles map[string]model.MerchantProfile) []model.ScoredItem[model.Receipt] {
	entities := intent.LowerEntities()
	candidates := receiptCandidates(intent, receipts, bounds)
	out := make([]model.ScoredItem[model.Receipt], 0, len(candidates))

	for _, r := range candidates {
		var t tally
		if intent.DateRange != nil {
			t.add(5, model.MatchDateRange)
		}
		if len(intent.Categories) > 0 && containsAnyFold(intent.Categories, r.Category) {
			t.add(3, model.MatchCategory)
		}

		merchant := strings.ToLower(r.Merchant)
		profile, hasProfile := profiles[merchant]
		for _, e := range entities {
			if strings.Contains(merchant, e) {
				t.add(2, model.MatchMerchant)
			}
			if hasProfile && profileMatches(profile, e) {
				t.add(1.5, model.MatchMerchant)
			}
		}

		if t.score <= 0 {
			continue
		}

		scored := model.ScoredItem[model.Receipt]{
			Item:           r,
			RelevanceScore: model.Normalize(t.score, receiptCeiling),
			MatchType:      t.match,
		}
		if hasProfile && !profile.IsUnknown() {
			scored.MerchantType = profile.Type
			scored.MerchantProducts = profile.Products
		}
		out = append(out, scored)
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Item, out[j].Item
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		return a.ID < b.ID
	})
	return out
}

// profileMatches reports whether entity names the merchant's type or one
// of its products.
func profileMatches(profile model.MerchantProfile, entity string) bool {
	if profile.Type != "" && (containsFold(profile.Type, entity) || containsFold(entity, profile.Type)) {
		return true
	}
	for _, p := range profile.Products {
		if containsFold(p, entity) || containsFold(entity, p) {
			return true
		}
	}
	return false
}

// uniqueMerchants returns the distinct merchant names of receipts, sorted.
func uniqueMerchants(receipts []model.Receipt) []string {
	seen := make(map[string]struct{}, len(receipts))
	names := make([]string, 0, len(receipts))
	for _, r := range receipts {
		name := strings.TrimSpace(r.Merchant)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
