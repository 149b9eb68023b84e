package llmcontext

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/recollect/internal/model"
	"github.com/Veraticus/recollect/internal/relevance"
)

// TimestampLayout always carries an explicit offset, never Z.
const TimestampLayout = "2006-01-02T15:04:05-07:00"

// ErrNilContext is returned when Build is given no FilteredContext.
var ErrNilContext = errors.New("filtered context is nil")

// Config configures a Builder.
type Config struct {
	Clock        func() time.Time
	Location     *time.Location
	HistoryLimit int
}

// DefaultConfig returns the default builder configuration.
func DefaultConfig() Config {
	return Config{
		Clock:        time.Now,
		Location:     time.Local,
		HistoryLimit: 10,
	}
}

// Builder converts FilteredContexts into StructuredContexts.
type Builder struct {
	clock        func() time.Time
	location     *time.Location
	historyLimit int
}

// NewBuilder creates a Builder. Zero config fields take their defaults.
func NewBuilder(cfg Config) *Builder {
	defaults := DefaultConfig()
	if cfg.Clock == nil {
		cfg.Clock = defaults.Clock
	}
	if cfg.Location == nil {
		cfg.Location = defaults.Location
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = defaults.HistoryLimit
	}
	return &Builder{
		clock:        cfg.Clock,
		location:     cfg.Location,
		historyLimit: cfg.HistoryLimit,
	}
}

// Build serializes fc with the given prior conversation turns.
func (b *Builder) Build(fc *model.FilteredContext, history []Turn) (*StructuredContext, error) {
	if fc == nil {
		return nil, ErrNilContext
	}

	now := fc.Metadata.Timestamp
	if now.IsZero() {
		now = b.clock()
	}

	intent := fc.Metadata.Intent
	temporal := DetectFollowUp(intent.Query, history)

	sc := &StructuredContext{
		Metadata: Metadata{
			Timestamp:       b.format(now),
			Timezone:        b.location.String(),
			Intent:          string(intent.Intent),
			SubIntents:      make([]string, 0, len(intent.SubIntents)),
			Entities:        append([]string{}, intent.Entities...),
			DateRange:       b.resolveDateRange(intent.DateRange, now),
			TemporalContext: &temporal,
			Weather:         fc.Weather,
		},
		Context: Payload{
			Notes:     b.notes(fc.Notes),
			Tasks:     b.tasks(fc.Tasks, now),
			Locations: b.locations(fc.Locations),
			Emails:    b.emails(fc.Emails),
			Receipts:  b.receipts(fc.Receipts),
		},
		ConversationHistory: b.trimHistory(history),
	}
	for _, sub := range intent.SubIntents {
		sc.Metadata.SubIntents = append(sc.Metadata.SubIntents, string(sub))
	}
	if fc.ReceiptStatistics != nil {
		sc.Context.ReceiptSummary = summarize(*fc.ReceiptStatistics)
	}

	return sc, nil
}

// Marshal encodes sc as compact UTF-8 JSON without HTML escaping.
func Marshal(sc *StructuredContext) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(sc); err != nil {
		return nil, fmt.Errorf("failed to encode context: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func (b *Builder) format(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(b.location).Format(TimestampLayout)
}

// ResolveDateRange fills a missing start or end from the range's period
// label, relative to the builder's clock and time zone. Ranges that are
// nil or already bounded come back unchanged.
func (b *Builder) ResolveDateRange(r *model.DateRange) *model.DateRange {
	if r == nil {
		return nil
	}
	resolved := b.resolve(*r, b.clock())
	return &resolved
}

func (b *Builder) resolve(r model.DateRange, now time.Time) model.DateRange {
	if !r.Start.IsZero() && !r.End.IsZero() {
		return r
	}
	start, end, ok := NormalizePeriod(r.PeriodLabel).Bounds(now, b.location)
	if !ok {
		return r
	}
	if r.Start.IsZero() {
		r.Start = start
	}
	if r.End.IsZero() {
		r.End = end
	}
	return r
}

func (b *Builder) resolveDateRange(r *model.DateRange, now time.Time) *DateRangeInfo {
	if r == nil {
		return nil
	}

	resolved := b.resolve(*r, now)
	return &DateRangeInfo{
		Start:       b.format(resolved.Start),
		End:         b.format(resolved.End),
		Period:      NormalizePeriod(r.PeriodLabel),
		Description: relevance.DescribeRange(&resolved, b.location),
	}
}

func (b *Builder) trimHistory(history []Turn) []Turn {
	if len(history) > b.historyLimit {
		history = history[len(history)-b.historyLimit:]
	}
	return append([]Turn{}, history...)
}

func (b *Builder) notes(list *[]model.ScoredItem[model.Note]) *[]NoteEntry {
	if list == nil {
		return nil
	}
	out := make([]NoteEntry, 0, len(*list))
	for _, s := range *list {
		n := s.Item
		out = append(out, NoteEntry{
			ID:             n.ID,
			Title:          n.Title,
			Excerpt:        Excerpt(n.Content, noteExcerptLimit),
			Folder:         n.Folder,
			CreatedAt:      b.format(n.CreatedAt),
			UpdatedAt:      b.format(n.UpdatedAt),
			Snippets:       s.Snippets,
			RelevanceScore: s.RelevanceScore,
			MatchType:      s.MatchType,
		})
	}
	return &out
}

func (b *Builder) tasks(list *[]model.ScoredItem[model.Task], now time.Time) *[]TaskEntry {
	if list == nil {
		return nil
	}
	out := make([]TaskEntry, 0, len(*list))
	for _, s := range *list {
		t := s.Item
		entry := TaskEntry{
			ID:             t.ID,
			Title:          t.Title,
			Description:    t.Description,
			Status:         model.NewTaskItem(t).StatusAt(now),
			Priority:       t.Priority,
			Tags:           t.Tags,
			IsCompleted:    t.IsCompleted,
			RelevanceScore: s.RelevanceScore,
			MatchType:      s.MatchType,
		}
		if t.ScheduledTime != nil {
			entry.ScheduledTime = b.format(*t.ScheduledTime)
		}
		if t.TargetDate != nil {
			entry.TargetDate = b.format(*t.TargetDate)
		}
		if d, ok := t.EffectiveDate(); ok {
			entry.DayOfWeek = d.In(b.location).Weekday().String()
		}
		out = append(out, entry)
	}
	return &out
}

func (b *Builder) locations(list *[]model.ScoredItem[model.Location]) *[]LocationEntry {
	if list == nil {
		return nil
	}
	out := make([]LocationEntry, 0, len(*list))
	for _, s := range *list {
		l := s.Item
		out = append(out, LocationEntry{
			ID:             l.ID,
			Name:           l.Name,
			Category:       l.Category,
			Address:        l.Address,
			City:           l.City,
			Province:       l.Province,
			Country:        l.Country,
			Rating:         l.Rating,
			Distance:       s.Distance,
			RelevanceScore: s.RelevanceScore,
			MatchType:      s.MatchType,
		})
	}
	return &out
}

func (b *Builder) emails(list *[]model.ScoredItem[model.Email]) *[]EmailEntry {
	if list == nil {
		return nil
	}
	out := make([]EmailEntry, 0, len(*list))
	for _, s := range *list {
		e := s.Item
		out = append(out, EmailEntry{
			ID:                   e.ID,
			Subject:              e.Subject,
			Sender:               e.Sender,
			Excerpt:              Excerpt(e.Body, emailExcerptLimit),
			Timestamp:            b.format(e.Timestamp),
			IsImportant:          e.IsImportant,
			IsRead:               e.IsRead,
			ImportanceIndicators: s.ImportanceIndicators,
			RelevanceScore:       s.RelevanceScore,
			MatchType:            s.MatchType,
		})
	}
	return &out
}

func (b *Builder) receipts(list *[]model.ScoredItem[model.Receipt]) *[]ReceiptEntry {
	if list == nil {
		return nil
	}
	out := make([]ReceiptEntry, 0, len(*list))
	for _, s := range *list {
		r := s.Item
		out = append(out, ReceiptEntry{
			ID:               r.ID,
			Merchant:         r.Merchant,
			Amount:           r.Amount,
			Date:             b.format(r.Date),
			Category:         r.Category,
			PaymentMethod:    r.PaymentMethod,
			MerchantType:     s.MerchantType,
			MerchantProducts: s.MerchantProducts,
			RelevanceScore:   s.RelevanceScore,
			MatchType:        s.MatchType,
		})
	}
	return &out
}

// summarize copies statistics the scorer already computed from the
// in-range receipts. Nothing is recomputed here.
func summarize(stats model.ReceiptStatistics) *ReceiptSummary {
	summary := &ReceiptSummary{
		TotalAmount:   stats.TotalAmount,
		TotalCount:    stats.TotalCount,
		AverageAmount: stats.AverageAmount,
		MinAmount:     stats.MinAmount,
		MaxAmount:     stats.MaxAmount,
		ByCategory:    make([]CategorySummary, 0, len(stats.ByCategory)),
	}
	for _, c := range stats.ByCategory {
		summary.ByCategory = append(summary.ByCategory, CategorySummary(c))
	}
	return summary
}
