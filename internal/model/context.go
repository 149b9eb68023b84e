package model

import "time"

// Weather is passed through to the model untouched.
type Weather struct {
	Condition    string  `json:"condition"`
	Location     string  `json:"location,omitempty"`
	TemperatureC float64 `json:"temperature_c"`
	HighC        float64 `json:"high_c,omitempty"`
	LowC         float64 `json:"low_c,omitempty"`
}

// ContextMetadata describes when and for what a FilteredContext was built.
type ContextMetadata struct {
	Timestamp            time.Time     `json:"timestamp"`
	Timezone             string        `json:"timezone"`
	DateRangeDescription string        `json:"date_range_description,omitempty"`
	Intent               IntentContext `json:"intent"`
}

// FilteredContext is the per-query snapshot of relevant records. A nil list
// means the intent did not ask for that kind; an empty list means it asked
// and nothing matched.
type FilteredContext struct {
	Notes             *[]ScoredItem[Note]
	Tasks             *[]ScoredItem[Task]
	Locations         *[]ScoredItem[Location]
	Emails            *[]ScoredItem[Email]
	Receipts          *[]ScoredItem[Receipt]
	ReceiptStatistics *ReceiptStatistics
	Weather           *Weather
	Metadata          ContextMetadata
}

// NoteIDs returns the set of note ids present in the context.
func (fc *FilteredContext) NoteIDs() map[string]struct{} {
	return idSet(fc.Notes, func(n Note) string { return n.ID })
}

// TaskIDs returns the set of task ids present in the context.
func (fc *FilteredContext) TaskIDs() map[string]struct{} {
	return idSet(fc.Tasks, func(t Task) string { return t.ID })
}

// LocationIDs returns the set of location ids present in the context.
func (fc *FilteredContext) LocationIDs() map[string]struct{} {
	return idSet(fc.Locations, func(l Location) string { return l.ID })
}

// EmailIDs returns the set of email ids present in the context.
func (fc *FilteredContext) EmailIDs() map[string]struct{} {
	return idSet(fc.Emails, func(e Email) string { return e.ID })
}

// ReceiptIDs returns the set of receipt ids present in the context.
func (fc *FilteredContext) ReceiptIDs() map[string]struct{} {
	return idSet(fc.Receipts, func(r Receipt) string { return r.ID })
}

// Count returns the number of records of kind k in the context.
func (fc *FilteredContext) Count(k Kind) int {
	switch k {
	case KindNote:
		return lenOf(fc.Notes)
	case KindTask:
		return lenOf(fc.Tasks)
	case KindLocation:
		return lenOf(fc.Locations)
	case KindEmail:
		return lenOf(fc.Emails)
	case KindReceipt:
		return lenOf(fc.Receipts)
	}
	return 0
}

func idSet[T any](list *[]ScoredItem[T], id func(T) string) map[string]struct{} {
	set := make(map[string]struct{})
	if list == nil {
		return set
	}
	for _, s := range *list {
		set[id(s.Item)] = struct{}{}
	}
	return set
}

func lenOf[T any](list *[]ScoredItem[T]) int {
	if list == nil {
		return 0
	}
	return len(*list)
}

// Snapshot is a read-only copy of every record supplied by the stores.
type Snapshot struct {
	Notes     []Note     `json:"notes,omitempty"`
	Tasks     []Task     `json:"tasks,omitempty"`
	Locations []Location `json:"locations,omitempty"`
	Emails    []Email    `json:"emails,omitempty"`
	Receipts  []Receipt  `json:"receipts,omitempty"`
}

// Items flattens the requested kinds into Items. No kinds means all kinds.
func (s Snapshot) Items(kinds ...Kind) []Item {
	if len(kinds) == 0 {
		kinds = AllKinds
	}

	var items []Item
	for _, k := range kinds {
		switch k {
		case KindNote:
			for _, n := range s.Notes {
				items = append(items, NewNoteItem(n))
			}
		case KindTask:
			for _, t := range s.Tasks {
				items = append(items, NewTaskItem(t))
			}
		case KindLocation:
			for _, l := range s.Locations {
				items = append(items, NewLocationItem(l))
			}
		case KindEmail:
			for _, e := range s.Emails {
				items = append(items, NewEmailItem(e))
			}
		case KindReceipt:
			for _, r := range s.Receipts {
				items = append(items, NewReceiptItem(r))
			}
		}
	}
	return items
}
