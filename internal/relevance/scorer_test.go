package relevance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/Veraticus/recollect/internal/model"
)

type mockMerchants struct {
	mock.Mock
}

func (m *mockMerchants) Lookup(ctx context.Context, names []string) (map[string]model.MerchantProfile, error) {
	args := m.Called(ctx, names)
	profiles, _ := args.Get(0).(map[string]model.MerchantProfile)
	return profiles, args.Error(1)
}

// blockingMerchants never answers before the context expires.
type blockingMerchants struct{}

func (blockingMerchants) Lookup(ctx context.Context, _ []string) (map[string]model.MerchantProfile, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

// cancelingMerchants cancels the scoring request while the lookup is in flight.
type cancelingMerchants struct {
	cancel context.CancelFunc
}

func (m cancelingMerchants) Lookup(ctx context.Context, _ []string) (map[string]model.MerchantProfile, error) {
	m.cancel()
	<-ctx.Done()
	return nil, ctx.Err()
}

var fixedNow = time.Date(2024, 11, 15, 10, 0, 0, 0, time.UTC)

func testScorer(merchants MerchantIntelligence) *Scorer {
	return NewWithConfig(merchants, Config{
		Clock:         func() time.Time { return fixedNow },
		Location:      time.UTC,
		LookupTimeout: 50 * time.Millisecond,
	})
}

func november() *model.DateRange {
	return &model.DateRange{
		Start:       time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC),
		End:         time.Date(2024, 11, 30, 23, 59, 59, 0, time.UTC),
		PeriodLabel: "thisMonth",
	}
}

func sampleSnapshot() model.Snapshot {
	return model.Snapshot{
		Notes: []model.Note{
			{ID: "n1", Title: "Project X", Content: "kickoff agenda", UpdatedAt: time.Date(2024, 11, 2, 0, 0, 0, 0, time.UTC)},
			{ID: "n2", Title: "Misc", Content: "remember project x budget", UpdatedAt: time.Date(2024, 11, 3, 0, 0, 0, 0, time.UTC)},
		},
		Emails: []model.Email{
			{ID: "e1", Subject: "URGENT: server down", Sender: "ops@example.com", Timestamp: time.Date(2024, 11, 4, 0, 0, 0, 0, time.UTC)},
		},
		Receipts: []model.Receipt{
			{ID: "A", Merchant: "Blue Bottle", Amount: 12.50, Date: time.Date(2024, 11, 3, 0, 0, 0, 0, time.UTC), Category: "Coffee"},
			{ID: "B", Merchant: "Blue Bottle", Amount: 9.00, Date: time.Date(2024, 10, 28, 0, 0, 0, 0, time.UTC), Category: "Coffee"},
		},
	}
}

func TestScorer_GeneralIntentSkipsReceipts(t *testing.T) {
	defer goleak.VerifyNone(t)

	fc, err := testScorer(nil).Score(context.Background(), model.IntentContext{
		Intent:   model.IntentGeneral,
		Entities: []string{"project x"},
	}, sampleSnapshot())
	require.NoError(t, err)

	require.NotNil(t, fc.Notes)
	require.NotNil(t, fc.Tasks)
	require.NotNil(t, fc.Locations)
	require.NotNil(t, fc.Emails)
	assert.Nil(t, fc.Receipts)
	assert.Nil(t, fc.ReceiptStatistics)
	assert.Equal(t, "UTC", fc.Metadata.Timezone)
	assert.True(t, fc.Metadata.Timestamp.Equal(fixedNow))
}

func TestScorer_ReceiptScenario(t *testing.T) {
	defer goleak.VerifyNone(t)

	merchants := new(mockMerchants)
	merchants.On("Lookup", mock.Anything, []string{"Blue Bottle"}).Return(map[string]model.MerchantProfile{
		"Blue Bottle": {Name: "Blue Bottle", Type: "cafe", Products: []string{"coffee", "pastries"}},
	}, nil)

	fc, err := testScorer(merchants).Score(context.Background(), model.IntentContext{
		Intent:    model.IntentExpenses,
		DateRange: november(),
	}, sampleSnapshot())
	require.NoError(t, err)
	merchants.AssertExpectations(t)

	require.NotNil(t, fc.Receipts)
	require.Len(t, *fc.Receipts, 1)
	got := (*fc.Receipts)[0]
	assert.Equal(t, "A", got.Item.ID)
	assert.Equal(t, "cafe", got.MerchantType)
	assert.Equal(t, []string{"coffee", "pastries"}, got.MerchantProducts)

	require.NotNil(t, fc.ReceiptStatistics)
	stats := fc.ReceiptStatistics
	assert.InDelta(t, 12.50, stats.TotalAmount, 0.001)
	assert.Equal(t, 1, stats.TotalCount)
	require.Len(t, stats.ByCategory, 1)
	assert.Equal(t, model.CategoryTotal{Category: "Coffee", Amount: 12.50, Count: 1, Percentage: 100}, stats.ByCategory[0])
}

func TestScorer_MerchantLookupDegrades(t *testing.T) {
	tests := []struct {
		name      string
		merchants MerchantIntelligence
	}{
		{name: "error", merchants: func() MerchantIntelligence {
			m := new(mockMerchants)
			m.On("Lookup", mock.Anything, mock.Anything).Return(nil, errors.New("service unavailable"))
			return m
		}()},
		{name: "timeout", merchants: blockingMerchants{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer goleak.VerifyNone(t)

			fc, err := testScorer(tt.merchants).Score(context.Background(), model.IntentContext{
				Intent:    model.IntentExpenses,
				Entities:  []string{"coffee"},
				DateRange: november(),
			}, sampleSnapshot())
			require.NoError(t, err)
			require.Len(t, *fc.Receipts, 1)
			assert.Empty(t, (*fc.Receipts)[0].MerchantType)
		})
	}
}

func TestScorer_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testScorer(nil).Score(ctx, model.IntentContext{Intent: model.IntentGeneral}, sampleSnapshot())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScorer_CanceledDuringLookup(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fc, err := testScorer(cancelingMerchants{cancel: cancel}).Score(ctx, model.IntentContext{
		Intent:    model.IntentExpenses,
		Entities:  []string{"coffee"},
		DateRange: november(),
	}, sampleSnapshot())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, fc)
}

func TestScorer_EmptySnapshot(t *testing.T) {
	defer goleak.VerifyNone(t)

	fc, err := testScorer(nil).Score(context.Background(), model.IntentContext{
		Intent:     model.IntentGeneral,
		SubIntents: []model.IntentType{model.IntentExpenses},
		DateRange:  november(),
	}, model.Snapshot{})
	require.NoError(t, err)

	for _, k := range model.AllKinds {
		assert.Zero(t, fc.Count(k), k)
	}
	require.NotNil(t, fc.Receipts)
	assert.Empty(t, *fc.Receipts)
	assert.Equal(t, 0, fc.ReceiptStatistics.TotalCount)
}

func TestScorer_ScoresAreClamped(t *testing.T) {
	defer goleak.VerifyNone(t)

	rating := 5.0
	snap := sampleSnapshot()
	snap.Locations = []model.Location{
		{ID: "l1", Name: "Project X Cafe", Category: "project x", City: "Toronto", Country: "Canada", Province: "Ontario", Rating: rating},
	}
	snap.Tasks = []model.Task{
		{ID: "t1", Title: "project x review", Description: "project x", TargetDate: &november().Start},
	}

	fc, err := testScorer(nil).Score(context.Background(), model.IntentContext{
		Intent:         model.IntentGeneral,
		Entities:       []string{"project x", "project", "x"},
		DateRange:      november(),
		LocationFilter: &model.LocationFilter{Country: "canada", City: "toronto", Province: "ontario", Category: "project"},
	}, snap)
	require.NoError(t, err)

	check := func(score float64) {
		assert.GreaterOrEqual(t, score, 0.0)
		assert.LessOrEqual(t, score, 1.0)
	}
	for _, s := range *fc.Notes {
		check(s.RelevanceScore)
	}
	for _, s := range *fc.Tasks {
		check(s.RelevanceScore)
	}
	for _, s := range *fc.Locations {
		check(s.RelevanceScore)
	}
	for _, s := range *fc.Emails {
		check(s.RelevanceScore)
	}
	assert.NotEmpty(t, *fc.Locations)
	assert.NotEmpty(t, *fc.Tasks)
}

func TestDescribeRange(t *testing.T) {
	assert.Empty(t, DescribeRange(nil, time.UTC))
	assert.Equal(t, "Nov 1, 2024 to Nov 30, 2024", DescribeRange(november(), time.UTC))

	day := time.Date(2024, 11, 3, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "Nov 3, 2024", DescribeRange(&model.DateRange{Start: day, End: day.Add(23 * time.Hour)}, time.UTC))
}
