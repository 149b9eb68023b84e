package model

import (
	"fmt"
	"strings"
	"time"
)

// IntentType is the primary goal extracted from a user query.
type IntentType string

const (
	// IntentGeneral is a broad question touching several kinds of data.
	IntentGeneral IntentType = "general"
	// IntentNotes asks about notes.
	IntentNotes IntentType = "notes"
	// IntentTasks asks about the calendar or to-dos.
	IntentTasks IntentType = "tasks"
	// IntentLocations asks about saved places.
	IntentLocations IntentType = "locations"
	// IntentEmails asks about email.
	IntentEmails IntentType = "emails"
	// IntentExpenses asks about spending and receipts.
	IntentExpenses IntentType = "expenses"
	// IntentNavigation asks how to get somewhere.
	IntentNavigation IntentType = "navigation"
	// IntentWeather asks about the weather.
	IntentWeather IntentType = "weather"
)

// ParseIntentType validates a user supplied intent name.
func ParseIntentType(s string) (IntentType, error) {
	it := IntentType(strings.ToLower(strings.TrimSpace(s)))
	switch it {
	case IntentGeneral, IntentNotes, IntentTasks, IntentLocations,
		IntentEmails, IntentExpenses, IntentNavigation, IntentWeather:
		return it, nil
	case "":
		return IntentGeneral, nil
	default:
		return "", fmt.Errorf("unknown intent: %q", s)
	}
}

// DateRange is a closed interval with an optional human label such as "this month".
type DateRange struct {
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	PeriodLabel string    `json:"period_label,omitempty"`
}

// Contains reports whether t falls inside the range, inclusive on both ends.
func (r DateRange) Contains(t time.Time) bool {
	if t.IsZero() {
		return false
	}
	return !t.Before(r.Start) && !t.After(r.End)
}

// LocationFilter narrows saved places geographically and by quality.
type LocationFilter struct {
	MinRating *float64 `json:"min_rating,omitempty"`
	Country   string   `json:"country,omitempty"`
	City      string   `json:"city,omitempty"`
	Province  string   `json:"province,omitempty"`
	Category  string   `json:"category,omitempty"`
}

// HasGeography reports whether any geographic sub-filter is set.
func (f *LocationFilter) HasGeography() bool {
	return f != nil && (f.Country != "" || f.City != "" || f.Province != "")
}

// IntentContext is the structured form of a user query, produced by an
// external intent extractor.
type IntentContext struct {
	DateRange      *DateRange      `json:"date_range,omitempty"`
	LocationFilter *LocationFilter `json:"location_filter,omitempty"`
	Intent         IntentType      `json:"intent"`
	Query          string          `json:"query,omitempty"`
	SubIntents     []IntentType    `json:"sub_intents,omitempty"`
	Entities       []string        `json:"entities,omitempty"`
	Categories     []string        `json:"categories,omitempty"`
}

// Has reports whether it is the primary intent or one of the sub-intents.
func (ic IntentContext) Has(it IntentType) bool {
	if ic.Intent == it {
		return true
	}
	for _, sub := range ic.SubIntents {
		if sub == it {
			return true
		}
	}
	return false
}

// Wants reports whether records of kind k should be retrieved for this intent.
// Receipts are only retrieved for expense questions.
func (ic IntentContext) Wants(k Kind) bool {
	if k == KindReceipt {
		return ic.Has(IntentExpenses)
	}
	if ic.Has(IntentGeneral) {
		return true
	}
	switch k {
	case KindNote:
		return ic.Has(IntentNotes)
	case KindTask:
		return ic.Has(IntentTasks)
	case KindLocation:
		return ic.Has(IntentLocations) || ic.Has(IntentNavigation)
	case KindEmail:
		return ic.Has(IntentEmails)
	}
	return false
}

// LowerEntities returns the non-empty entities lowercased and trimmed.
func (ic IntentContext) LowerEntities() []string {
	out := make([]string, 0, len(ic.Entities))
	for _, e := range ic.Entities {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			out = append(out, e)
		}
	}
	return out
}
