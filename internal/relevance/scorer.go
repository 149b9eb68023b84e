// Package relevance scores snapshot records against a structured intent and
// assembles the per-query FilteredContext.
package relevance

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Veraticus/recollect/internal/model"
)

// MerchantIntelligence classifies merchant names into a business type and
// product list. Results are keyed by the names passed in and unknown
// merchants may be omitted. A failed lookup may still return partial results.
type MerchantIntelligence interface {
	Lookup(ctx context.Context, names []string) (map[string]model.MerchantProfile, error)
}

// Config holds configuration options for the scorer.
type Config struct {
	Clock         func() time.Time
	Location      *time.Location
	LookupTimeout time.Duration
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Clock:         time.Now,
		Location:      time.Local,
		LookupTimeout: 3 * time.Second,
	}
}

// Scorer runs the five per-kind scoring passes.
type Scorer struct {
	merchants     MerchantIntelligence
	clock         func() time.Time
	location      *time.Location
	lookupTimeout time.Duration
}

// New creates a scorer with the default configuration. merchants may be nil.
func New(merchants MerchantIntelligence) *Scorer {
	return NewWithConfig(merchants, DefaultConfig())
}

// NewWithConfig creates a scorer with custom configuration.
func NewWithConfig(merchants MerchantIntelligence, cfg Config) *Scorer {
	defaults := DefaultConfig()
	if cfg.Clock == nil {
		cfg.Clock = defaults.Clock
	}
	if cfg.Location == nil {
		cfg.Location = defaults.Location
	}
	if cfg.LookupTimeout <= 0 {
		cfg.LookupTimeout = defaults.LookupTimeout
	}
	return &Scorer{
		merchants:     merchants,
		clock:         cfg.Clock,
		location:      cfg.Location,
		lookupTimeout: cfg.LookupTimeout,
	}
}

// Score builds the FilteredContext for intent from snap. Kinds the intent
// does not want are left nil. The only error returned is cancellation of ctx.
func (s *Scorer) Score(ctx context.Context, intent model.IntentContext, snap model.Snapshot) (*model.FilteredContext, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fc := &model.FilteredContext{
		Metadata: model.ContextMetadata{
			Timestamp:            s.clock().In(s.location),
			Timezone:             s.location.String(),
			DateRangeDescription: DescribeRange(intent.DateRange, s.location),
			Intent:               intent,
		},
	}

	// Each pass writes a distinct field of fc and reports only cancellation.
	g, gctx := errgroup.WithContext(ctx)
	if intent.Wants(model.KindNote) {
		g.Go(func() error {
			notes := scoreNotes(intent, snap.Notes)
			fc.Notes = &notes
			return gctx.Err()
		})
	}
	if intent.Wants(model.KindTask) {
		g.Go(func() error {
			tasks := scoreTasks(intent, snap.Tasks)
			fc.Tasks = &tasks
			return gctx.Err()
		})
	}
	if intent.Wants(model.KindLocation) {
		g.Go(func() error {
			locations := scoreLocations(intent, snap.Locations)
			fc.Locations = &locations
			return gctx.Err()
		})
	}
	if intent.Wants(model.KindEmail) {
		g.Go(func() error {
			emails := scoreEmails(intent, snap.Emails)
			fc.Emails = &emails
			return gctx.Err()
		})
	}
	if intent.Wants(model.KindReceipt) {
		g.Go(func() error {
			receipts := s.receiptPass(gctx, intent, snap.Receipts)
			plain := make([]model.Receipt, len(receipts))
			for i, r := range receipts {
				plain[i] = r.Item
			}
			stats := model.SummarizeReceipts(plain)
			fc.Receipts = &receipts
			fc.ReceiptStatistics = &stats
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return fc, nil
}

func (s *Scorer) receiptPass(ctx context.Context, intent model.IntentContext, receipts []model.Receipt) []model.ScoredItem[model.Receipt] {
	bounds := ParseAmountBounds(strings.Join(append([]string{intent.Query}, intent.Entities...), " "))
	profiles := s.lookupMerchants(ctx, uniqueMerchants(receiptCandidates(intent, receipts, bounds)))
	return scoreReceipts(intent, receipts, bounds, profiles)
}

// lookupMerchants classifies names under the lookup timeout. On failure,
// merchants that were not classified stay unknown.
func (s *Scorer) lookupMerchants(ctx context.Context, names []string) map[string]model.MerchantProfile {
	if s.merchants == nil || len(names) == 0 {
		return nil
	}

	lookupCtx, cancel := context.WithTimeout(ctx, s.lookupTimeout)
	defer cancel()

	found, err := s.merchants.Lookup(lookupCtx, names)
	if err != nil {
		slog.Warn("merchant lookup failed, continuing without classification",
			"error", err,
			"merchants", len(names),
			"classified", len(found))
	}

	profiles := make(map[string]model.MerchantProfile, len(found))
	for name, profile := range found {
		profiles[strings.ToLower(strings.TrimSpace(name))] = profile
	}
	return profiles
}

// DescribeRange renders a date range for display, for example
// "Nov 1, 2024 to Nov 30, 2024". A nil range yields "".
func DescribeRange(r *model.DateRange, loc *time.Location) string {
	if r == nil {
		return ""
	}
	if loc == nil {
		loc = time.Local
	}
	const layout = "Jan 2, 2006"
	start, end := r.Start.In(loc).Format(layout), r.End.In(loc).Format(layout)
	if start == end {
		return start
	}
	return fmt.Sprintf("%s to %s", start, end)
}
