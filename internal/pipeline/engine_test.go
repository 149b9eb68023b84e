package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/recollect/internal/common"
	"github.com/Veraticus/recollect/internal/llmcontext"
	"github.com/Veraticus/recollect/internal/model"
	"github.com/Veraticus/recollect/internal/query"
	"github.com/Veraticus/recollect/internal/relevance"
	"github.com/Veraticus/recollect/internal/service"
	"github.com/Veraticus/recollect/internal/testutil"
	"github.com/Veraticus/recollect/internal/validator"
)

var fixedNow = time.Date(2024, 11, 15, 10, 0, 0, 0, time.UTC)

type staticSnapshots struct {
	err  error
	snap model.Snapshot
}

func (s staticSnapshots) LoadSnapshot(_ context.Context) (model.Snapshot, error) {
	return s.snap, s.err
}

type mockModel struct {
	mock.Mock
}

func (m *mockModel) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	args := m.Called(ctx, systemPrompt, userPrompt)
	return args.String(0), args.Error(1)
}

func sampleSnapshot() model.Snapshot {
	return model.Snapshot{
		Receipts: []model.Receipt{
			{ID: "A", Merchant: "Blue Bottle", Amount: 12.50, Date: time.Date(2024, 11, 3, 0, 0, 0, 0, time.UTC), Category: "Coffee"},
			{ID: "B", Merchant: "Whole Foods", Amount: 80.00, Date: time.Date(2024, 11, 9, 0, 0, 0, 0, time.UTC), Category: "Groceries"},
			{ID: "C", Merchant: "Blue Bottle", Amount: 9.00, Date: time.Date(2024, 10, 28, 0, 0, 0, 0, time.UTC), Category: "Coffee"},
		},
		Notes: []model.Note{
			{ID: "n1", Title: "Coffee budget", Content: "spend less", UpdatedAt: time.Date(2024, 11, 2, 0, 0, 0, 0, time.UTC)},
		},
	}
}

func expenseRequest() Request {
	return Request{
		Intent: model.IntentContext{
			Intent: model.IntentExpenses,
			Query:  "how much did I spend this month",
			DateRange: &model.DateRange{
				Start:       time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC),
				End:         time.Date(2024, 11, 30, 23, 59, 59, 0, time.UTC),
				PeriodLabel: "thisMonth",
			},
		},
	}
}

func testDeps(t *testing.T, snapshots service.SnapshotSource, client ModelClient) Deps {
	t.Helper()

	prompts, err := llmcontext.NewPromptBuilder()
	require.NoError(t, err)

	clock := func() time.Time { return fixedNow }
	return Deps{
		Snapshots: snapshots,
		Scorer:    relevance.NewWithConfig(nil, relevance.Config{Clock: clock, Location: time.UTC}),
		Builder:   llmcontext.NewBuilder(llmcontext.Config{Clock: clock, Location: time.UTC}),
		Prompts:   prompts,
		Model:     client,
		Validator: validator.NewWithConfig(validator.Config{Clock: clock, Location: time.UTC}),
		Queries:   query.NewEngine(clock),
	}
}

func testEngine(t *testing.T, snapshots service.SnapshotSource, client ModelClient) *Engine {
	t.Helper()

	engine, err := NewEngine(testDeps(t, snapshots, client), Config{
		Retry: service.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: time.Millisecond,
			MaxDelay:     2 * time.Millisecond,
			Multiplier:   2,
		},
	})
	require.NoError(t, err)
	return engine
}

func TestDeps_Validate(t *testing.T) {
	full := testDeps(t, staticSnapshots{}, nil)

	tests := []struct {
		mutate  func(d *Deps)
		name    string
		wantErr string
	}{
		{name: "complete without model", mutate: func(_ *Deps) {}},
		{name: "missing snapshots", mutate: func(d *Deps) { d.Snapshots = nil }, wantErr: "snapshot source"},
		{name: "missing scorer", mutate: func(d *Deps) { d.Scorer = nil }, wantErr: "scorer"},
		{name: "missing builder", mutate: func(d *Deps) { d.Builder = nil }, wantErr: "context builder"},
		{name: "missing prompts", mutate: func(d *Deps) { d.Prompts = nil }, wantErr: "prompt renderer"},
		{name: "missing validator", mutate: func(d *Deps) { d.Validator = nil }, wantErr: "validator"},
		{name: "missing queries", mutate: func(d *Deps) { d.Queries = nil }, wantErr: "query executor"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := full
			tt.mutate(&d)
			err := d.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestEngine_Retrieve(t *testing.T) {
	engine := testEngine(t, staticSnapshots{snap: sampleSnapshot()}, nil)

	req := expenseRequest()
	req.Weather = &model.Weather{Condition: "rain", TemperatureC: 8}
	fc, err := engine.Retrieve(context.Background(), req)
	require.NoError(t, err)

	require.NotNil(t, fc.Receipts)
	ids := make([]string, 0, len(*fc.Receipts))
	for _, r := range *fc.Receipts {
		ids = append(ids, r.Item.ID)
	}
	assert.Equal(t, []string{"B", "A"}, ids)
	require.NotNil(t, fc.ReceiptStatistics)
	assert.InDelta(t, 92.50, fc.ReceiptStatistics.TotalAmount, 0.001)
	assert.Equal(t, "rain", fc.Weather.Condition)
	assert.Nil(t, fc.Notes)
}

func TestEngine_Retrieve_SnapshotError(t *testing.T) {
	errStore := errors.New("disk on fire")
	engine := testEngine(t, staticSnapshots{err: errStore}, nil)

	_, err := engine.Retrieve(context.Background(), expenseRequest())
	assert.ErrorIs(t, err, errStore)
}

func TestEngine_Prepare(t *testing.T) {
	engine := testEngine(t, staticSnapshots{snap: sampleSnapshot()}, nil)

	prepared, err := engine.Prepare(context.Background(), expenseRequest())
	require.NoError(t, err)

	assert.NotEmpty(t, prepared.RequestID)
	assert.Contains(t, string(prepared.Document), `"receiptSummary"`)
	assert.Contains(t, string(prepared.Document), `"totalAmount":92.5`)
	assert.Contains(t, prepared.Prompt.User, string(prepared.Document))
	assert.Contains(t, prepared.Prompt.User, "how much did I spend this month")
	assert.Contains(t, prepared.Prompt.System, "2024-11-15T10:00:00+00:00")
}

func TestEngine_Answer(t *testing.T) {
	valid := "```json\n" + `{"response":"You spent $92.50 in November.","confidence":0.92,"needs_clarification":false,"clarifying_questions":[],"data_references":{"receipt_ids":["A","B"]}}` + "\n```"
	invented := `{"response":"You spent $9.00 at Blue Bottle.","confidence":0.9,"data_references":{"receipt_ids":["C"]}}`

	tests := []struct {
		name         string
		replies      []string
		wantStatus   validator.Status
		wantAttempts int
	}{
		{name: "valid first try", replies: []string{valid}, wantStatus: validator.StatusValid, wantAttempts: 1},
		{name: "retries undecodable reply", replies: []string{"Sorry, here is the answer: none", valid}, wantStatus: validator.StatusValid, wantAttempts: 2},
		{name: "out of range receipt", replies: []string{invented}, wantStatus: validator.StatusHallucination, wantAttempts: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &mockModel{}
			for _, reply := range tt.replies {
				client.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return(reply, nil).Once()
			}

			engine := testEngine(t, staticSnapshots{snap: sampleSnapshot()}, client)
			answer, err := engine.Answer(context.Background(), expenseRequest())
			require.NoError(t, err)

			assert.Equal(t, tt.wantStatus, answer.Result.Status)
			assert.Equal(t, tt.wantAttempts, answer.Attempts)
			assert.Equal(t, tt.replies[len(tt.replies)-1], answer.Raw)
			assert.NotEmpty(t, answer.RequestID)
			client.AssertExpectations(t)
		})
	}
}

func TestEngine_Answer_DecodeFailureIsAnError(t *testing.T) {
	client := &mockModel{}
	client.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return("no json here", nil).Times(3)

	engine := testEngine(t, staticSnapshots{snap: sampleSnapshot()}, client)
	answer, err := engine.Answer(context.Background(), expenseRequest())

	require.Error(t, err)
	assert.Nil(t, answer)
	assert.ErrorIs(t, err, common.ErrResponseDecode)
	assert.ErrorIs(t, err, common.ErrMaxRetries)
	client.AssertExpectations(t)
}

func TestEngine_Answer_PermanentModelError(t *testing.T) {
	client := &mockModel{}
	client.On("Complete", mock.Anything, mock.Anything, mock.Anything).
		Return("", common.NewPermanentError(errors.New("bad request"))).Once()

	engine := testEngine(t, staticSnapshots{snap: sampleSnapshot()}, client)
	_, err := engine.Answer(context.Background(), expenseRequest())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad request")
	client.AssertExpectations(t)
}

func TestEngine_Answer_NoModel(t *testing.T) {
	engine := testEngine(t, staticSnapshots{snap: sampleSnapshot()}, nil)

	_, err := engine.Answer(context.Background(), expenseRequest())
	assert.ErrorIs(t, err, ErrNoModel)
}

func TestEngine_ValidateRaw(t *testing.T) {
	engine := testEngine(t, staticSnapshots{snap: sampleSnapshot()}, nil)
	fc, err := engine.Retrieve(context.Background(), expenseRequest())
	require.NoError(t, err)

	result, err := engine.ValidateRaw([]byte(`{"response":"ok","confidence":0.8,"data_references":{"receipt_ids":["A"]}}`), fc)
	require.NoError(t, err)
	assert.Equal(t, validator.StatusValid, result.Status)

	_, err = engine.ValidateRaw([]byte("garbage"), fc)
	assert.ErrorIs(t, err, common.ErrResponseDecode)
	assert.True(t, common.IsRetryable(err))
}

func TestEngine_Query(t *testing.T) {
	engine := testEngine(t, staticSnapshots{snap: sampleSnapshot()}, nil)

	result, err := engine.Query(context.Background(), QueryRequest{
		Kinds:      []model.Kind{model.KindReceipt},
		Filters:    []query.Filter{query.CategoryFilter([]string{"coffee"}, nil)},
		Operations: []query.Operation{query.Aggregate(query.AggSum, query.GroupNone, "")},
	})
	require.NoError(t, err)

	require.Len(t, result.Aggregations, 1)
	assert.InDelta(t, 21.50, result.Aggregations[0].Value, 0.001)
	assert.Equal(t, 2, result.Aggregations[0].Count)
	assert.Len(t, result.Items, 2)
}

func TestEngine_RetrieveFromStorage(t *testing.T) {
	db := testutil.SetupTestDB(t, testutil.NewSnapshotBuilder().
		WithFixture(testutil.FixtureWeekOfSpending).
		WithFixture(testutil.FixtureBusyDay).
		Build())
	engine := testEngine(t, db.Storage, nil)

	fc, err := engine.Retrieve(context.Background(), Request{
		Intent: model.IntentContext{
			Intent: model.IntentExpenses,
			Query:  "what did I spend this week",
			DateRange: &model.DateRange{
				Start:       time.Date(2024, 11, 11, 0, 0, 0, 0, time.UTC),
				End:         time.Date(2024, 11, 17, 23, 59, 59, 0, time.UTC),
				PeriodLabel: "thisWeek",
			},
		},
	})
	require.NoError(t, err)

	require.NotNil(t, fc.Receipts)
	ids := make([]string, 0, len(*fc.Receipts))
	for _, r := range *fc.Receipts {
		ids = append(ids, r.Item.ID)
	}
	assert.ElementsMatch(t, []string{"rcpt-coffee-1", "rcpt-grocery-1", "rcpt-gas-1"}, ids)
	require.NotNil(t, fc.ReceiptStatistics)
	assert.InDelta(t, 135.70, fc.ReceiptStatistics.TotalAmount, 0.001)
}

func TestEngine_Prepare_ResolvesPeriodBeforeScoring(t *testing.T) {
	snap := model.Snapshot{
		Receipts: []model.Receipt{
			{ID: "today", Merchant: "Blue Bottle", Amount: 6.25, Date: fixedNow.Add(-time.Hour), Category: "Coffee"},
			{ID: "yesterday", Merchant: "Blue Bottle", Amount: 5.00, Date: fixedNow.AddDate(0, 0, -1), Category: "Coffee"},
		},
	}
	engine := testEngine(t, staticSnapshots{snap: snap}, nil)

	prepared, err := engine.Prepare(context.Background(), Request{
		Intent: model.IntentContext{
			Intent:    model.IntentExpenses,
			Query:     "what did I spend today",
			DateRange: &model.DateRange{PeriodLabel: "today"},
		},
	})
	require.NoError(t, err)

	require.NotNil(t, prepared.Filtered.Receipts)
	require.Len(t, *prepared.Filtered.Receipts, 1)
	assert.Equal(t, "today", (*prepared.Filtered.Receipts)[0].Item.ID)
	require.NotNil(t, prepared.Filtered.ReceiptStatistics)
	assert.Equal(t, 1, prepared.Filtered.ReceiptStatistics.TotalCount)

	dr := prepared.Context.Metadata.DateRange
	require.NotNil(t, dr)
	assert.Equal(t, "2024-11-15T00:00:00+00:00", dr.Start)
	assert.Equal(t, "2024-11-15T23:59:59+00:00", dr.End)
}
