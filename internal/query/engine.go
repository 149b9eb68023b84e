package query

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/Veraticus/recollect/internal/model"
)

// stableThreshold is the percent change within which a trend counts as stable.
const stableThreshold = 5.0

// Engine applies filters and operations to a set of items. It holds no
// per-query state; the clock is only used to evaluate task status.
type Engine struct {
	clock func() time.Time
}

// NewEngine creates an engine. A nil clock uses time.Now.
func NewEngine(clock func() time.Time) *Engine {
	if clock == nil {
		clock = time.Now
	}
	return &Engine{clock: clock}
}

// Execute filters items with every filter, then applies ops in order.
// Search replaces the item list; the other operations append their output.
func (e *Engine) Execute(items []model.Item, filters []Filter, ops []Operation) (*ResultData, error) {
	for i, op := range ops {
		if err := op.Validate(); err != nil {
			return nil, fmt.Errorf("operation %d: %w", i, err)
		}
	}

	result := &ResultData{Items: Apply(items, filters)}
	ref := e.clock()

	for _, op := range ops {
		switch op.Kind {
		case OpAggregate:
			result.Aggregations = append(result.Aggregations, aggregate(result.Items, op, ref))
		case OpComparison:
			result.Comparisons = append(result.Comparisons, compare(result.Items, op, ref))
		case OpSearch:
			result.Items = search(result.Items, op)
		case OpTrend:
			result.Trends = append(result.Trends, trend(result.Items, op))
		}
	}
	return result, nil
}

func aggregate(items []model.Item, op Operation, ref time.Time) Aggregation {
	agg := Aggregation{
		Kind:    op.Aggregate,
		GroupBy: op.GroupBy,
		Value:   reduce(op.Aggregate, items),
		Count:   len(items),
	}
	if op.GroupBy == GroupNone {
		return agg
	}

	groups := make(map[string][]model.Item)
	for _, item := range items {
		key := groupKey(item, op.GroupBy, ref)
		groups[key] = append(groups[key], item)
	}

	agg.Groups = make([]GroupValue, 0, len(groups))
	for key, members := range groups {
		agg.Groups = append(agg.Groups, GroupValue{
			Key:   key,
			Value: reduce(op.Aggregate, members),
			Count: len(members),
		})
	}

	sort.Slice(agg.Groups, func(i, j int) bool {
		a, b := agg.Groups[i], agg.Groups[j]
		if op.SortBy == SortByKey || a.Value == b.Value {
			return a.Key < b.Key
		}
		return a.Value > b.Value
	})
	return agg
}

// reduce applies kind to the amounts of items. Empty input yields 0.
func reduce(kind AggregateKind, items []model.Item) float64 {
	if kind == AggCount {
		return float64(len(items))
	}
	if len(items) == 0 {
		return 0
	}

	total := 0.0
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, item := range items {
		amount := item.Amount()
		total += amount
		lo = math.Min(lo, amount)
		hi = math.Max(hi, amount)
	}

	switch kind {
	case AggSum:
		return roundCents(total)
	case AggAverage:
		return roundCents(total / float64(len(items)))
	case AggMin:
		return lo
	case AggMax:
		return hi
	case AggCount:
	}
	return 0
}

func groupKey(item model.Item, groupBy GroupBy, ref time.Time) string {
	switch groupBy {
	case GroupCategory:
		if c := item.Category(); c != "" {
			return c
		}
		return model.UncategorizedLabel
	case GroupMerchant:
		if m := item.MerchantName(); m != "" {
			return m
		}
		return "unknown"
	case GroupStatus:
		return item.StatusAt(ref)
	case GroupDay:
		return bucketKey(item.Date(), GranularityDay)
	case GroupWeek:
		return bucketKey(item.Date(), GranularityWeek)
	case GroupMonth:
		return bucketKey(item.Date(), GranularityMonth)
	case GroupYear:
		return bucketKey(item.Date(), GranularityYear)
	case GroupNone:
	}
	return ""
}

// bucketKey formats t for a time bucket. Undated items share the "undated" bucket.
func bucketKey(t time.Time, g Granularity) string {
	if t.IsZero() {
		return "undated"
	}
	switch g {
	case GranularityDay:
		return t.Format("2006-01-02")
	case GranularityWeek:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	case GranularityMonth:
		return t.Format("2006-01")
	case GranularityYear:
		return t.Format("2006")
	}
	return ""
}

func compare(items []model.Item, op Operation, ref time.Time) Comparison {
	out := Comparison{Dimension: op.Dimension, Metric: op.Metric}

	for _, slice := range op.Slices {
		var members []model.Item
		for _, item := range items {
			if inSlice(item, slice, op.Dimension, ref) {
				members = append(members, item)
			}
		}
		out.Slices = append(out.Slices, SliceResult{
			Name:  slice.Name,
			Value: metricValue(op.Metric, members),
			Count: len(members),
		})
	}

	if len(out.Slices) > 0 && out.Slices[0].Value != 0 {
		base := out.Slices[0].Value
		for i := 1; i < len(out.Slices); i++ {
			change := math.Round((out.Slices[i].Value-base)/base*1000) / 10
			out.Slices[i].ChangePercent = &change
		}
	}
	return out
}

func inSlice(item model.Item, slice Slice, dim Dimension, ref time.Time) bool {
	switch dim {
	case DimensionTime:
		return model.DateRange{Start: slice.Start, End: slice.End}.Contains(item.Date())
	case DimensionCategory:
		return containsFold(slice.Values, item.Category())
	case DimensionMerchant:
		return containsFold(slice.Values, item.MerchantName())
	case DimensionStatus:
		return containsFold(slice.Values, item.StatusAt(ref))
	}
	return false
}

func metricValue(m Metric, items []model.Item) float64 {
	switch m {
	case MetricTotal:
		return reduce(AggSum, items)
	case MetricCount:
		return reduce(AggCount, items)
	case MetricAverage:
		return reduce(AggAverage, items)
	}
	return 0
}

// search keeps items containing every query token and ranks them.
func search(items []model.Item, op Operation) []model.Item {
	phrase := strings.ToLower(strings.TrimSpace(op.Query))

	var hits []model.Item
	for _, item := range items {
		if matchesText(item.SearchableText(), phrase, true) {
			hits = append(hits, item)
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		a, b := hits[i], hits[j]
		switch op.RankBy {
		case RankAmount:
			if a.Amount() != b.Amount() {
				return a.Amount() > b.Amount()
			}
		case RankDate:
		case RankRelevance, "":
			ea := strings.Contains(a.SearchableText(), phrase)
			eb := strings.Contains(b.SearchableText(), phrase)
			if ea != eb {
				return ea
			}
		}
		if !a.Date().Equal(b.Date()) {
			return a.Date().After(b.Date())
		}
		return a.ID() < b.ID()
	})

	if op.Limit > 0 && len(hits) > op.Limit {
		hits = hits[:op.Limit]
	}
	return hits
}

func trend(items []model.Item, op Operation) TrendResult {
	out := TrendResult{
		Metric:      op.Metric,
		Granularity: op.Granularity,
		Expected:    op.Direction,
		Direction:   DirectionStable,
	}

	buckets := make(map[string][]model.Item)
	for _, item := range items {
		if item.Date().IsZero() {
			continue
		}
		key := bucketKey(item.Date(), op.Granularity)
		buckets[key] = append(buckets[key], item)
	}

	out.Points = make([]TrendPoint, 0, len(buckets))
	for key, members := range buckets {
		out.Points = append(out.Points, TrendPoint{
			Key:   key,
			Value: metricValue(op.Metric, members),
			Count: len(members),
		})
	}
	sort.Slice(out.Points, func(i, j int) bool { return out.Points[i].Key < out.Points[j].Key })

	if len(out.Points) >= 2 {
		first := out.Points[0].Value
		last := out.Points[len(out.Points)-1].Value
		out.Direction, out.ChangePercent = direction(first, last)
	}

	if op.Direction != "" {
		matches := out.Direction == op.Direction
		out.MatchesExpected = &matches
	}
	return out
}

func direction(first, last float64) (Direction, float64) {
	if first == 0 {
		switch {
		case last > 0:
			return DirectionIncreasing, 100
		case last < 0:
			return DirectionDecreasing, -100
		default:
			return DirectionStable, 0
		}
	}

	change := math.Round((last-first)/math.Abs(first)*1000) / 10
	switch {
	case math.Abs(change) <= stableThreshold:
		return DirectionStable, change
	case change > 0:
		return DirectionIncreasing, change
	default:
		return DirectionDecreasing, change
	}
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
