package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/recollect/internal/model"
	"github.com/Veraticus/recollect/internal/pipeline"
	"github.com/Veraticus/recollect/internal/query"
)

// queryFlags map onto query filters and operations. Operations run in a
// fixed order: search, aggregate, compare, trend.
type queryFlags struct {
	kinds       []string
	from        string
	to          string
	categories  []string
	excludes    []string
	text        string
	statuses    []string
	merchants   []string
	minAmount   float64
	maxAmount   float64
	fuzzy       bool
	search      string
	rankBy      string
	limit       int
	aggregate   string
	groupBy     string
	sortBy      string
	compare     string
	metric      string
	slices      []string
	trend       string
	expect      string
}

func (f *queryFlags) bind(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringSliceVarP(&f.kinds, "kind", "k", nil, "record kinds to include (default: all)")
	flags.StringVar(&f.from, "from", "", "only items on or after this date (YYYY-MM-DD)")
	flags.StringVar(&f.to, "to", "", "only items on or before this date (YYYY-MM-DD)")
	flags.StringSliceVar(&f.categories, "category", nil, "include only these categories")
	flags.StringSliceVar(&f.excludes, "exclude-category", nil, "exclude these categories")
	flags.StringVar(&f.text, "text", "", "only items whose text contains this")
	flags.StringSliceVar(&f.statuses, "status", nil, "item status (pending, overdue, completed, important, read, unread, paid, ...)")
	flags.StringSliceVar(&f.merchants, "merchant", nil, "only receipts from these merchants")
	flags.Float64Var(&f.minAmount, "min-amount", 0, "minimum receipt amount")
	flags.Float64Var(&f.maxAmount, "max-amount", 0, "maximum receipt amount")
	flags.BoolVar(&f.fuzzy, "fuzzy", false, "fuzzy text and merchant matching")

	flags.StringVar(&f.search, "search", "", "rank items against this query")
	flags.StringVar(&f.rankBy, "rank", string(query.RankRelevance), "search ranking (relevance, date, amount)")
	flags.IntVar(&f.limit, "limit", 0, "maximum search results")

	flags.StringVar(&f.aggregate, "aggregate", "", "aggregate (count, sum, average, min, max)")
	flags.StringVar(&f.groupBy, "group-by", "", "aggregate grouping (category, merchant, status, day, week, month, year)")
	flags.StringVar(&f.sortBy, "sort", string(query.SortByValue), "group ordering (value, key)")

	flags.StringVar(&f.compare, "compare", "", "comparison dimension (time, category, merchant, status)")
	flags.StringVar(&f.metric, "metric", string(query.MetricTotal), "comparison or trend metric (total, count, average)")
	flags.StringArrayVar(&f.slices, "slice", nil, "comparison slice: name=YYYY-MM-DD..YYYY-MM-DD or name=value|value")

	flags.StringVar(&f.trend, "trend", "", "trend granularity (day, week, month, year)")
	flags.StringVar(&f.expect, "expect", "", "expected trend direction (increasing, decreasing, stable)")
}

// build converts the flags into a pipeline query. now is the reference for
// status filters.
func (f *queryFlags) build(now time.Time, loc *time.Location) (pipeline.QueryRequest, error) {
	var req pipeline.QueryRequest

	for _, k := range f.kinds {
		kind, err := model.ParseKind(k)
		if err != nil {
			return req, err
		}
		req.Kinds = append(req.Kinds, kind)
	}

	filters, err := f.filters(now, loc)
	if err != nil {
		return req, err
	}
	req.Filters = filters

	ops, err := f.operations(loc)
	if err != nil {
		return req, err
	}
	req.Operations = ops
	return req, nil
}

func (f *queryFlags) filters(now time.Time, loc *time.Location) ([]query.Filter, error) {
	var filters []query.Filter

	if f.from != "" || f.to != "" {
		dr, err := customRange(orDefault(f.from, "0001-01-01"), orDefault(f.to, "9999-12-30"), "", loc)
		if err != nil {
			return nil, err
		}
		filters = append(filters, query.DateRangeFilter(dr.Start, dr.End))
	}
	if len(f.categories) > 0 || len(f.excludes) > 0 {
		filters = append(filters, query.CategoryFilter(trimAll(f.categories), trimAll(f.excludes)))
	}
	if text := strings.TrimSpace(f.text); text != "" {
		filters = append(filters, query.TextSearchFilter(text, f.fuzzy))
	}
	if len(f.statuses) > 0 {
		filters = append(filters, query.StatusFilter(now, trimAll(f.statuses)...))
	}
	if f.minAmount > 0 || f.maxAmount > 0 {
		var minAmount, maxAmount *float64
		if f.minAmount > 0 {
			v := f.minAmount
			minAmount = &v
		}
		if f.maxAmount > 0 {
			v := f.maxAmount
			maxAmount = &v
		}
		if minAmount != nil && maxAmount != nil && *maxAmount < *minAmount {
			return nil, fmt.Errorf("--max-amount %.2f is below --min-amount %.2f", *maxAmount, *minAmount)
		}
		filters = append(filters, query.AmountRangeFilter(minAmount, maxAmount))
	}
	if len(f.merchants) > 0 {
		filters = append(filters, query.MerchantFilter(trimAll(f.merchants), f.fuzzy))
	}
	return filters, nil
}

func (f *queryFlags) operations(loc *time.Location) ([]query.Operation, error) {
	var ops []query.Operation

	if f.search != "" {
		ops = append(ops, query.Search(f.search, query.RankBy(f.rankBy), f.limit))
	}
	if f.aggregate != "" {
		ops = append(ops, query.Aggregate(query.AggregateKind(f.aggregate), query.GroupBy(f.groupBy), query.SortBy(f.sortBy)))
	}
	if f.compare != "" {
		slices := make([]query.Slice, 0, len(f.slices))
		for _, raw := range f.slices {
			s, err := parseSlice(raw, loc)
			if err != nil {
				return nil, err
			}
			slices = append(slices, s)
		}
		ops = append(ops, query.Compare(query.Dimension(f.compare), query.Metric(f.metric), slices...))
	}
	if f.trend != "" {
		ops = append(ops, query.Trend(query.Metric(f.metric), query.Granularity(f.trend), query.Direction(f.expect)))
	}

	for i, op := range ops {
		if err := op.Validate(); err != nil {
			return nil, fmt.Errorf("operation %d: %w", i, err)
		}
	}
	return ops, nil
}

// parseSlice reads "name=start..end" as a time slice and "name=a|b" as a
// value slice.
func parseSlice(raw string, loc *time.Location) (query.Slice, error) {
	name, value, ok := strings.Cut(raw, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" || strings.TrimSpace(value) == "" {
		return query.Slice{}, fmt.Errorf("invalid slice %q: expected name=values", raw)
	}

	if from, to, isRange := strings.Cut(value, ".."); isRange {
		dr, err := customRange(strings.TrimSpace(from), strings.TrimSpace(to), "", loc)
		if err != nil {
			return query.Slice{}, fmt.Errorf("invalid slice %q: %w", raw, err)
		}
		return query.Slice{Name: name, Start: dr.Start, End: dr.End}, nil
	}

	return query.Slice{Name: name, Values: trimAll(strings.Split(value, "|"))}, nil
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// itemView is the JSON shape of a matched item.
type itemView struct {
	Date     *time.Time `json:"date,omitempty"`
	Kind     model.Kind `json:"kind"`
	ID       string     `json:"id"`
	Category string     `json:"category,omitempty"`
	Merchant string     `json:"merchant,omitempty"`
	Status   string     `json:"status,omitempty"`
	Amount   float64    `json:"amount,omitempty"`
}

type queryOutput struct {
	*query.ResultData
	Items []itemView `json:"items,omitempty"`
	Count int        `json:"count"`
}

func newQueryOutput(result *query.ResultData, now time.Time, withItems bool) queryOutput {
	out := queryOutput{ResultData: result, Count: len(result.Items)}
	if !withItems {
		return out
	}
	out.Items = make([]itemView, 0, len(result.Items))
	for _, item := range result.Items {
		view := itemView{
			Kind:     item.Kind(),
			ID:       item.ID(),
			Category: item.Category(),
			Merchant: item.MerchantName(),
			Status:   item.StatusAt(now),
			Amount:   item.Amount(),
		}
		if d := item.Date(); !d.IsZero() {
			view.Date = &d
		}
		out.Items = append(out.Items, view)
	}
	return out
}

func queryCmd() *cobra.Command {
	var (
		flags     queryFlags
		withItems bool
	)

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Filter, aggregate and compare records directly",
		Long: `Run filters and operations over your records without a model and print the
result as JSON.

Examples:
  recollect query -k receipts --from 2025-03-01 --to 2025-03-31 --aggregate sum --group-by category
  recollect query -k receipts --compare time --slice feb=2025-02-01..2025-02-28 --slice mar=2025-03-01..2025-03-31
  recollect query -k tasks --status overdue --items
  recollect query --search "dentist" --rank date --limit 5 --items`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := a.Close(); cerr != nil {
					slog.Error("Failed to close app", "error", cerr)
				}
			}()

			now := time.Now()
			req, err := flags.build(now, a.cfg.Location)
			if err != nil {
				return err
			}

			result, err := a.engine.Query(ctx, req)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(newQueryOutput(result, now, withItems || flags.search != ""))
		},
	}

	flags.bind(cmd)
	cmd.Flags().BoolVar(&withItems, "items", false, "include matched items in the output")

	return cmd
}
