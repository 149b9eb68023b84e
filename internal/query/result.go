package query

import "github.com/Veraticus/recollect/internal/model"

// GroupValue is one group of a grouped aggregate.
type GroupValue struct {
	Key   string  `json:"key"`
	Value float64 `json:"value"`
	Count int     `json:"count"`
}

// Aggregation is the output of an aggregate operation. Groups is empty
// when no grouping was requested.
type Aggregation struct {
	Kind    AggregateKind `json:"kind"`
	GroupBy GroupBy       `json:"group_by,omitempty"`
	Groups  []GroupValue  `json:"groups,omitempty"`
	Value   float64       `json:"value"`
	Count   int           `json:"count"`
}

// SliceResult is the metric computed for one comparison slice.
// ChangePercent is relative to the first slice and nil for the first slice
// or when the first slice is zero.
type SliceResult struct {
	ChangePercent *float64 `json:"change_percent,omitempty"`
	Name          string   `json:"name"`
	Value         float64  `json:"value"`
	Count         int      `json:"count"`
}

// Comparison is the output of a comparison operation.
type Comparison struct {
	Dimension Dimension     `json:"dimension"`
	Metric    Metric        `json:"metric"`
	Slices    []SliceResult `json:"slices"`
}

// TrendPoint is one time bucket.
type TrendPoint struct {
	Key   string  `json:"key"`
	Value float64 `json:"value"`
	Count int     `json:"count"`
}

// TrendResult is the output of a trend analysis.
type TrendResult struct {
	MatchesExpected *bool        `json:"matches_expected,omitempty"`
	Metric          Metric       `json:"metric"`
	Granularity     Granularity  `json:"granularity"`
	Direction       Direction    `json:"direction"`
	Expected        Direction    `json:"expected,omitempty"`
	Points          []TrendPoint `json:"points"`
	ChangePercent   float64      `json:"change_percent"`
}

// ResultData accumulates the outputs of operations in application order.
type ResultData struct {
	Items        []model.Item  `json:"-"`
	Aggregations []Aggregation `json:"aggregations,omitempty"`
	Comparisons  []Comparison  `json:"comparisons,omitempty"`
	Trends       []TrendResult `json:"trends,omitempty"`
}
