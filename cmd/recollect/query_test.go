package main

import (
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/recollect/internal/model"
	"github.com/Veraticus/recollect/internal/pipeline"
	"github.com/Veraticus/recollect/internal/query"
	"github.com/Veraticus/recollect/internal/testutil"
)

func buildQuery(t *testing.T, args ...string) (pipeline.QueryRequest, error) {
	t.Helper()
	var flags queryFlags
	cmd := &cobra.Command{Use: "query"}
	flags.bind(cmd)
	require.NoError(t, cmd.ParseFlags(args))
	return flags.build(testutil.ReferenceTime, time.UTC)
}

func runQuery(t *testing.T, req pipeline.QueryRequest) *query.ResultData {
	t.Helper()
	snap := testutil.NewSnapshotBuilder().
		WithFixture(testutil.FixtureWeekOfSpending).
		WithFixture(testutil.FixtureBusyDay).
		Build()
	engine := query.NewEngine(func() time.Time { return testutil.ReferenceTime })
	result, err := engine.Execute(snap.Items(req.Kinds...), req.Filters, req.Operations)
	require.NoError(t, err)
	return result
}

func TestQueryFlags_SumThisWeek(t *testing.T) {
	req, err := buildQuery(t, "-k", "receipts", "--from", "2024-11-11", "--to", "2024-11-17", "--aggregate", "sum")
	require.NoError(t, err)
	assert.Equal(t, []model.Kind{model.KindReceipt}, req.Kinds)
	require.Len(t, req.Filters, 1)
	require.Len(t, req.Operations, 1)

	result := runQuery(t, req)
	require.Len(t, result.Aggregations, 1)
	assert.Equal(t, 3, result.Aggregations[0].Count)
	assert.InDelta(t, 135.70, result.Aggregations[0].Value, 0.001)
}

func TestQueryFlags_GroupByCategory(t *testing.T) {
	req, err := buildQuery(t, "-k", "receipts", "--aggregate", "sum", "--group-by", "category", "--exclude-category", "books")
	require.NoError(t, err)

	result := runQuery(t, req)
	require.Len(t, result.Aggregations, 1)

	groups := make(map[string]float64)
	for _, g := range result.Aggregations[0].Groups {
		groups[g.Key] = g.Value
	}
	assert.InDelta(t, 11.75, groups["Coffee"], 0.001)
	assert.InDelta(t, 84.20, groups["Groceries"], 0.001)
	assert.NotContains(t, groups, "Books")
}

func TestQueryFlags_AmountAndMerchant(t *testing.T) {
	req, err := buildQuery(t, "--merchant", "blue bottle", "--min-amount", "6")
	require.NoError(t, err)

	result := runQuery(t, req)
	require.Len(t, result.Items, 1)
	assert.Equal(t, "rcpt-coffee-1", result.Items[0].ID())
}

func TestQueryFlags_StatusFilter(t *testing.T) {
	req, err := buildQuery(t, "-k", "tasks", "--status", "completed")
	require.NoError(t, err)

	result := runQuery(t, req)
	require.Len(t, result.Items, 1)
	assert.Equal(t, "task-gym", result.Items[0].ID())
}

func TestQueryFlags_CompareSlices(t *testing.T) {
	req, err := buildQuery(t, "-k", "receipts",
		"--compare", "time",
		"--slice", "last=2024-11-04..2024-11-10",
		"--slice", "this=2024-11-11..2024-11-17")
	require.NoError(t, err)
	require.Len(t, req.Operations, 1)
	require.Len(t, req.Operations[0].Slices, 2)

	result := runQuery(t, req)
	require.Len(t, result.Comparisons, 1)
	slices := result.Comparisons[0].Slices
	require.Len(t, slices, 2)
	assert.Equal(t, "last", slices[0].Name)
	assert.InDelta(t, 5.25, slices[0].Value, 0.001)
	assert.InDelta(t, 135.70, slices[1].Value, 0.001)
}

func TestQueryFlags_OperationOrder(t *testing.T) {
	req, err := buildQuery(t, "--search", "coffee", "--aggregate", "count", "--trend", "week")
	require.NoError(t, err)

	kinds := make([]query.OperationKind, 0, len(req.Operations))
	for _, op := range req.Operations {
		kinds = append(kinds, op.Kind)
	}
	assert.Equal(t, []query.OperationKind{query.OpSearch, query.OpAggregate, query.OpTrend}, kinds)
}

func TestQueryFlags_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "unknown kind", args: []string{"-k", "photos"}},
		{name: "unknown aggregate", args: []string{"--aggregate", "median"}},
		{name: "unknown group", args: []string{"--aggregate", "sum", "--group-by", "weekday"}},
		{name: "compare without slices", args: []string{"--compare", "merchant"}},
		{name: "malformed slice", args: []string{"--compare", "merchant", "--slice", "novalue"}},
		{name: "bad slice dates", args: []string{"--compare", "time", "--slice", "x=2024-11-10..2024-11-01"}},
		{name: "trend by average", args: []string{"--trend", "month", "--metric", "average"}},
		{name: "inverted amounts", args: []string{"--min-amount", "50", "--max-amount", "10"}},
		{name: "bad date", args: []string{"--from", "yesterday"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := buildQuery(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestParseSlice(t *testing.T) {
	s, err := parseSlice("coffee=Blue Bottle|Starbucks", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "coffee", s.Name)
	assert.Equal(t, []string{"Blue Bottle", "Starbucks"}, s.Values)
	assert.True(t, s.Start.IsZero())

	s, err = parseSlice("nov=2024-11-01..2024-11-30", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC), s.Start)
	assert.Equal(t, 30, s.End.Day())
}

func TestNewQueryOutput(t *testing.T) {
	result := &query.ResultData{Items: []model.Item{
		model.NewReceiptItem(model.Receipt{ID: "r1", Merchant: "Shell", Amount: 45, Date: testutil.ReferenceTime, Category: "Gas"}),
		model.NewTaskItem(model.Task{ID: "t1", Title: "Someday"}),
	}}

	out := newQueryOutput(result, testutil.ReferenceTime, false)
	assert.Equal(t, 2, out.Count)
	assert.Nil(t, out.Items)

	out = newQueryOutput(result, testutil.ReferenceTime, true)
	require.Len(t, out.Items, 2)
	assert.Equal(t, "Shell", out.Items[0].Merchant)
	require.NotNil(t, out.Items[0].Date)
	assert.Nil(t, out.Items[1].Date)
}
