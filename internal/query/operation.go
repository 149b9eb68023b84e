package query

import (
	"fmt"
	"time"
)

// OperationKind enumerates the supported transforms.
type OperationKind string

const (
	// OpAggregate computes count/sum/average/min/max, optionally grouped.
	OpAggregate OperationKind = "aggregate"
	// OpComparison computes one metric per named slice.
	OpComparison OperationKind = "comparison"
	// OpSearch ranks items matching a text query.
	OpSearch OperationKind = "search"
	// OpTrend buckets items over time.
	OpTrend OperationKind = "trend"
)

// AggregateKind is the reduction applied to item amounts.
type AggregateKind string

// Aggregate kinds.
const (
	AggCount   AggregateKind = "count"
	AggSum     AggregateKind = "sum"
	AggAverage AggregateKind = "average"
	AggMin     AggregateKind = "min"
	AggMax     AggregateKind = "max"
)

// GroupBy selects the key aggregates are grouped under.
type GroupBy string

// Grouping keys. The date buckets reuse the trend granularities.
const (
	GroupNone     GroupBy = ""
	GroupCategory GroupBy = "category"
	GroupMerchant GroupBy = "merchant"
	GroupStatus   GroupBy = "status"
	GroupDay      GroupBy = "day"
	GroupWeek     GroupBy = "week"
	GroupMonth    GroupBy = "month"
	GroupYear     GroupBy = "year"
)

// SortBy orders grouped aggregate results.
type SortBy string

const (
	// SortByValue orders groups by computed value, largest first.
	SortByValue SortBy = "value"
	// SortByKey orders groups alphabetically.
	SortByKey SortBy = "key"
)

// Dimension is the axis a comparison partitions items along.
type Dimension string

// Comparison dimensions.
const (
	DimensionTime     Dimension = "time"
	DimensionCategory Dimension = "category"
	DimensionMerchant Dimension = "merchant"
	DimensionStatus   Dimension = "status"
)

// Metric is computed per comparison slice or trend bucket.
type Metric string

// Metrics.
const (
	MetricTotal   Metric = "total"
	MetricCount   Metric = "count"
	MetricAverage Metric = "average"
)

// RankBy orders search results.
type RankBy string

// Search rankings.
const (
	RankRelevance RankBy = "relevance"
	RankDate      RankBy = "date"
	RankAmount    RankBy = "amount"
)

// Granularity is the width of a trend bucket.
type Granularity string

// Trend granularities.
const (
	GranularityDay   Granularity = "day"
	GranularityWeek  Granularity = "week"
	GranularityMonth Granularity = "month"
	GranularityYear  Granularity = "year"
)

// Direction describes how a trend moves from its first to its last bucket.
type Direction string

// Trend directions.
const (
	DirectionIncreasing Direction = "increasing"
	DirectionDecreasing Direction = "decreasing"
	DirectionStable     Direction = "stable"
)

// Slice names one partition of a comparison. Time slices use Start/End;
// other dimensions match item values against Values.
type Slice struct {
	Start  time.Time `json:"start,omitempty"`
	End    time.Time `json:"end,omitempty"`
	Name   string    `json:"name"`
	Values []string  `json:"values,omitempty"`
}

// Operation is a closed sum type over the supported transforms. Build one
// with Aggregate, Compare, Search or Trend.
type Operation struct {
	Kind        OperationKind
	Aggregate   AggregateKind
	GroupBy     GroupBy
	SortBy      SortBy
	Dimension   Dimension
	Metric      Metric
	Query       string
	RankBy      RankBy
	Granularity Granularity
	Direction   Direction
	Slices      []Slice
	Limit       int
}

// Aggregate builds an aggregate operation.
func Aggregate(kind AggregateKind, groupBy GroupBy, sortBy SortBy) Operation {
	return Operation{Kind: OpAggregate, Aggregate: kind, GroupBy: groupBy, SortBy: sortBy}
}

// Compare builds a comparison operation.
func Compare(dimension Dimension, metric Metric, slices ...Slice) Operation {
	return Operation{Kind: OpComparison, Dimension: dimension, Metric: metric, Slices: slices}
}

// Search builds a search operation. A limit of zero or less means unlimited.
func Search(query string, rankBy RankBy, limit int) Operation {
	return Operation{Kind: OpSearch, Query: query, RankBy: rankBy, Limit: limit}
}

// Trend builds a trend analysis operation. direction may be empty.
func Trend(metric Metric, granularity Granularity, direction Direction) Operation {
	return Operation{Kind: OpTrend, Metric: metric, Granularity: granularity, Direction: direction}
}

// Validate checks that the operation carries the payload its kind needs.
func (op Operation) Validate() error {
	switch op.Kind {
	case OpAggregate:
		switch op.Aggregate {
		case AggCount, AggSum, AggAverage, AggMin, AggMax:
		default:
			return fmt.Errorf("unknown aggregate kind: %q", op.Aggregate)
		}
		switch op.GroupBy {
		case GroupNone, GroupCategory, GroupMerchant, GroupStatus, GroupDay, GroupWeek, GroupMonth, GroupYear:
		default:
			return fmt.Errorf("unknown group by: %q", op.GroupBy)
		}
	case OpComparison:
		if len(op.Slices) == 0 {
			return fmt.Errorf("comparison requires at least one slice")
		}
		switch op.Dimension {
		case DimensionTime, DimensionCategory, DimensionMerchant, DimensionStatus:
		default:
			return fmt.Errorf("unknown comparison dimension: %q", op.Dimension)
		}
		if err := validateMetric(op.Metric); err != nil {
			return err
		}
	case OpSearch:
		switch op.RankBy {
		case "", RankRelevance, RankDate, RankAmount:
		default:
			return fmt.Errorf("unknown search ranking: %q", op.RankBy)
		}
	case OpTrend:
		switch op.Granularity {
		case GranularityDay, GranularityWeek, GranularityMonth, GranularityYear:
		default:
			return fmt.Errorf("unknown trend granularity: %q", op.Granularity)
		}
		if op.Metric != MetricTotal && op.Metric != MetricCount {
			return fmt.Errorf("trend metric must be total or count, got %q", op.Metric)
		}
	default:
		return fmt.Errorf("unknown operation kind: %q", op.Kind)
	}
	return nil
}

func validateMetric(m Metric) error {
	switch m {
	case MetricTotal, MetricCount, MetricAverage:
		return nil
	default:
		return fmt.Errorf("unknown metric: %q", m)
	}
}
