package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/recollect/internal/model"
)

func receipts() []model.Item {
	return []model.Item{
		model.NewReceiptItem(model.Receipt{ID: "r1", Merchant: "Starbucks", Amount: 10, Date: time.Date(2024, 9, 2, 9, 0, 0, 0, time.UTC), Category: "Coffee"}),
		model.NewReceiptItem(model.Receipt{ID: "r2", Merchant: "Whole Foods", Amount: 60, Date: time.Date(2024, 10, 5, 9, 0, 0, 0, time.UTC), Category: "Groceries"}),
		model.NewReceiptItem(model.Receipt{ID: "r3", Merchant: "Starbucks", Amount: 20, Date: time.Date(2024, 10, 9, 9, 0, 0, 0, time.UTC), Category: "Coffee"}),
		model.NewReceiptItem(model.Receipt{ID: "r4", Merchant: "Trader Joe's", Amount: 30, Date: time.Date(2024, 11, 1, 9, 0, 0, 0, time.UTC), Category: "Groceries"}),
	}
}

func newTestEngine() *Engine {
	return NewEngine(func() time.Time { return time.Date(2024, 11, 15, 0, 0, 0, 0, time.UTC) })
}

func TestEngine_Aggregate(t *testing.T) {
	tests := []struct {
		name       string
		op         Operation
		wantValue  float64
		wantGroups []GroupValue
	}{
		{name: "count", op: Aggregate(AggCount, GroupNone, ""), wantValue: 4},
		{name: "sum", op: Aggregate(AggSum, GroupNone, ""), wantValue: 120},
		{name: "average", op: Aggregate(AggAverage, GroupNone, ""), wantValue: 30},
		{name: "min", op: Aggregate(AggMin, GroupNone, ""), wantValue: 10},
		{name: "max", op: Aggregate(AggMax, GroupNone, ""), wantValue: 60},
		{
			name:      "sum by category sorted by value",
			op:        Aggregate(AggSum, GroupCategory, SortByValue),
			wantValue: 120,
			wantGroups: []GroupValue{
				{Key: "Groceries", Value: 90, Count: 2},
				{Key: "Coffee", Value: 30, Count: 2},
			},
		},
		{
			name:      "count by merchant sorted by key",
			op:        Aggregate(AggCount, GroupMerchant, SortByKey),
			wantValue: 4,
			wantGroups: []GroupValue{
				{Key: "Starbucks", Value: 2, Count: 2},
				{Key: "Trader Joe's", Value: 1, Count: 1},
				{Key: "Whole Foods", Value: 1, Count: 1},
			},
		},
		{
			name:      "sum by month",
			op:        Aggregate(AggSum, GroupMonth, SortByKey),
			wantValue: 120,
			wantGroups: []GroupValue{
				{Key: "2024-09", Value: 10, Count: 1},
				{Key: "2024-10", Value: 80, Count: 2},
				{Key: "2024-11", Value: 30, Count: 1},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := newTestEngine().Execute(receipts(), nil, []Operation{tt.op})
			require.NoError(t, err)
			require.Len(t, res.Aggregations, 1)

			agg := res.Aggregations[0]
			assert.InDelta(t, tt.wantValue, agg.Value, 0.001)
			assert.Equal(t, tt.wantGroups, agg.Groups)
		})
	}
}

func TestEngine_AggregateEmpty(t *testing.T) {
	res, err := newTestEngine().Execute(nil, nil, []Operation{Aggregate(AggAverage, GroupNone, "")})
	require.NoError(t, err)
	assert.Empty(t, res.Items)
	assert.Zero(t, res.Aggregations[0].Value)
}

func TestEngine_Comparison(t *testing.T) {
	sep := Slice{Name: "September", Start: time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC), End: time.Date(2024, 9, 30, 23, 59, 59, 0, time.UTC)}
	oct := Slice{Name: "October", Start: time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC), End: time.Date(2024, 10, 31, 23, 59, 59, 0, time.UTC)}

	res, err := newTestEngine().Execute(receipts(), nil, []Operation{Compare(DimensionTime, MetricTotal, sep, oct)})
	require.NoError(t, err)
	require.Len(t, res.Comparisons, 1)

	slices := res.Comparisons[0].Slices
	require.Len(t, slices, 2)
	assert.InDelta(t, 10.0, slices[0].Value, 0.001)
	assert.Nil(t, slices[0].ChangePercent)
	assert.InDelta(t, 80.0, slices[1].Value, 0.001)
	require.NotNil(t, slices[1].ChangePercent)
	assert.InDelta(t, 700.0, *slices[1].ChangePercent, 0.001)

	res, err = newTestEngine().Execute(receipts(), nil, []Operation{
		Compare(DimensionCategory, MetricCount, Slice{Name: "coffee", Values: []string{"coffee"}}, Slice{Name: "food", Values: []string{"Groceries"}}),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Comparisons[0].Slices[0].Count)
	assert.Equal(t, 2, res.Comparisons[0].Slices[1].Count)
}

func TestEngine_Search(t *testing.T) {
	items := []model.Item{
		model.NewNoteItem(model.Note{ID: "n1", Title: "Trip", Content: "packing list for the beach", UpdatedAt: time.Date(2024, 11, 10, 0, 0, 0, 0, time.UTC)}),
		model.NewNoteItem(model.Note{ID: "n2", Title: "Beach list", Content: "packing notes", UpdatedAt: time.Date(2024, 11, 12, 0, 0, 0, 0, time.UTC)}),
		model.NewNoteItem(model.Note{ID: "n3", Title: "Groceries", Content: "milk", UpdatedAt: time.Date(2024, 11, 13, 0, 0, 0, 0, time.UTC)}),
	}

	res, err := newTestEngine().Execute(items, nil, []Operation{Search("packing list", RankRelevance, 0)})
	require.NoError(t, err)
	require.Len(t, res.Items, 2)
	assert.Equal(t, "n1", res.Items[0].ID(), "exact phrase ranks first")
	assert.Equal(t, "n2", res.Items[1].ID())

	res, err = newTestEngine().Execute(items, nil, []Operation{Search("packing", RankDate, 1)})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "n2", res.Items[0].ID())
}

func TestEngine_SearchThenAggregate(t *testing.T) {
	res, err := newTestEngine().Execute(receipts(), nil, []Operation{
		Search("starbucks", RankAmount, 0),
		Aggregate(AggSum, GroupNone, ""),
	})
	require.NoError(t, err)
	require.Len(t, res.Items, 2)
	assert.Equal(t, "r3", res.Items[0].ID())
	assert.InDelta(t, 30.0, res.Aggregations[0].Value, 0.001)
}

func TestEngine_Trend(t *testing.T) {
	tests := []struct {
		name          string
		op            Operation
		wantKeys      []string
		wantDirection Direction
		wantMatches   bool
	}{
		{
			name:          "monthly totals increase",
			op:            Trend(MetricTotal, GranularityMonth, DirectionIncreasing),
			wantKeys:      []string{"2024-09", "2024-10", "2024-11"},
			wantDirection: DirectionIncreasing,
			wantMatches:   true,
		},
		{
			name:          "monthly counts",
			op:            Trend(MetricCount, GranularityMonth, DirectionDecreasing),
			wantKeys:      []string{"2024-09", "2024-10", "2024-11"},
			wantDirection: DirectionStable,
			wantMatches:   false,
		},
		{
			name:          "iso weeks",
			op:            Trend(MetricCount, GranularityWeek, ""),
			wantKeys:      []string{"2024-W36", "2024-W40", "2024-W41", "2024-W44"},
			wantDirection: DirectionStable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := newTestEngine().Execute(receipts(), nil, []Operation{tt.op})
			require.NoError(t, err)
			require.Len(t, res.Trends, 1)

			tr := res.Trends[0]
			keys := make([]string, 0, len(tr.Points))
			for _, p := range tr.Points {
				keys = append(keys, p.Key)
			}
			assert.Equal(t, tt.wantKeys, keys)
			assert.Equal(t, tt.wantDirection, tr.Direction)
			if tt.op.Direction == "" {
				assert.Nil(t, tr.MatchesExpected)
			} else {
				require.NotNil(t, tr.MatchesExpected)
				assert.Equal(t, tt.wantMatches, *tr.MatchesExpected)
			}
		})
	}
}

func TestEngine_RejectsInvalidOperation(t *testing.T) {
	_, err := newTestEngine().Execute(receipts(), nil, []Operation{{Kind: "pivot"}})
	assert.Error(t, err)

	_, err = newTestEngine().Execute(receipts(), nil, []Operation{Compare(DimensionTime, MetricTotal)})
	assert.Error(t, err)
}

func TestEngine_FiltersBeforeOperations(t *testing.T) {
	res, err := newTestEngine().Execute(receipts(), []Filter{CategoryFilter([]string{"Coffee"}, nil)}, []Operation{
		Aggregate(AggSum, GroupNone, ""),
	})
	require.NoError(t, err)
	assert.Len(t, res.Items, 2)
	assert.InDelta(t, 30.0, res.Aggregations[0].Value, 0.001)
}
