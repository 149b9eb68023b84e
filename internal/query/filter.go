// Package query implements the filter algebra and operation engine used by
// the generic query path.
package query

import (
	"strings"
	"time"

	"github.com/sahilm/fuzzy"

	"github.com/Veraticus/recollect/internal/model"
)

// FilterKind enumerates the supported filter predicates.
type FilterKind string

const (
	// FilterDateRange keeps items whose date falls inside a range.
	FilterDateRange FilterKind = "date_range"
	// FilterCategory keeps items by included and excluded categories.
	FilterCategory FilterKind = "category"
	// FilterTextSearch keeps items whose searchable text matches a query.
	FilterTextSearch FilterKind = "text_search"
	// FilterStatus keeps items with one of the given statuses.
	FilterStatus FilterKind = "status"
	// FilterAmountRange keeps items whose amount falls inside optional bounds.
	FilterAmountRange FilterKind = "amount_range"
	// FilterMerchant keeps items whose merchant matches one of the names.
	FilterMerchant FilterKind = "merchant"
)

// Filter is a pure predicate over an Item. Build one with the constructor
// for its kind; the unused payload fields stay zero.
type Filter struct {
	Start     time.Time
	End       time.Time
	Reference time.Time
	Min       *float64
	Max       *float64
	Kind      FilterKind
	Query     string
	Include   []string
	Exclude   []string
	Values    []string
	Fuzzy     bool
}

// DateRangeFilter keeps items dated within [start, end].
func DateRangeFilter(start, end time.Time) Filter {
	return Filter{Kind: FilterDateRange, Start: start, End: end}
}

// CategoryFilter keeps items whose category is in include (when non-empty)
// and not in exclude. Comparison ignores case.
func CategoryFilter(include, exclude []string) Filter {
	return Filter{Kind: FilterCategory, Include: include, Exclude: exclude}
}

// TextSearchFilter keeps items whose searchable text contains query. With
// fuzzy set, every word of the query must appear somewhere, in any order.
func TextSearchFilter(query string, fuzzy bool) Filter {
	return Filter{Kind: FilterTextSearch, Query: query, Fuzzy: fuzzy}
}

// StatusFilter keeps items whose status is one of values, evaluated at ref.
func StatusFilter(ref time.Time, values ...string) Filter {
	return Filter{Kind: FilterStatus, Values: values, Reference: ref}
}

// AmountRangeFilter keeps items with min <= amount <= max. Nil bounds are open.
func AmountRangeFilter(minAmount, maxAmount *float64) Filter {
	return Filter{Kind: FilterAmountRange, Min: minAmount, Max: maxAmount}
}

// MerchantFilter keeps items whose merchant equals one of names. With fuzzy
// set, a subsequence match is enough ("strbks" matches "Starbucks").
func MerchantFilter(names []string, fuzzy bool) Filter {
	return Filter{Kind: FilterMerchant, Values: names, Fuzzy: fuzzy}
}

// Matches reports whether item satisfies the filter.
func (f Filter) Matches(item model.Item) bool {
	switch f.Kind {
	case FilterDateRange:
		return model.DateRange{Start: f.Start, End: f.End}.Contains(item.Date())
	case FilterCategory:
		return f.matchesCategory(item.Category())
	case FilterTextSearch:
		return matchesText(item.SearchableText(), f.Query, f.Fuzzy)
	case FilterStatus:
		return f.matchesStatus(item)
	case FilterAmountRange:
		return f.matchesAmount(item.Amount())
	case FilterMerchant:
		return f.matchesMerchant(item.MerchantName())
	}
	return false
}

// MatchAll reports whether item satisfies every filter. No filters match everything.
func MatchAll(item model.Item, filters []Filter) bool {
	for _, f := range filters {
		if !f.Matches(item) {
			return false
		}
	}
	return true
}

// Apply returns the items that satisfy every filter, preserving order.
func Apply(items []model.Item, filters []Filter) []model.Item {
	out := make([]model.Item, 0, len(items))
	for _, item := range items {
		if MatchAll(item, filters) {
			out = append(out, item)
		}
	}
	return out
}

func (f Filter) matchesCategory(category string) bool {
	if containsFold(f.Exclude, category) {
		return false
	}
	if len(f.Include) == 0 {
		return true
	}
	return containsFold(f.Include, category)
}

func (f Filter) matchesStatus(item model.Item) bool {
	if len(f.Values) == 0 {
		return true
	}
	ref := f.Reference
	if ref.IsZero() {
		ref = time.Now()
	}
	return containsFold(f.Values, item.StatusAt(ref))
}

func (f Filter) matchesAmount(amount float64) bool {
	if f.Min != nil && amount < *f.Min {
		return false
	}
	if f.Max != nil && amount > *f.Max {
		return false
	}
	return true
}

func (f Filter) matchesMerchant(merchant string) bool {
	if len(f.Values) == 0 {
		return true
	}
	if merchant == "" {
		return false
	}
	merchant = strings.ToLower(merchant)

	for _, name := range f.Values {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		if name == merchant {
			return true
		}
		if f.Fuzzy && len(fuzzy.Find(name, []string{merchant})) > 0 {
			return true
		}
	}
	return false
}

// matchesText reports whether text contains query, or with fuzzy set every
// word of query. text is expected to be lowercased already.
func matchesText(text, query string, fuzzyMatch bool) bool {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return true
	}
	if !fuzzyMatch {
		return strings.Contains(text, query)
	}
	for _, word := range strings.Fields(query) {
		if !strings.Contains(text, word) {
			return false
		}
	}
	return true
}

func containsFold(list []string, value string) bool {
	for _, v := range list {
		if strings.EqualFold(strings.TrimSpace(v), value) {
			return true
		}
	}
	return false
}
