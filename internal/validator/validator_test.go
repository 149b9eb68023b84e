package validator

import (
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/recollect/internal/model"
)

var fixedNow = time.Date(2024, 11, 15, 10, 0, 0, 0, time.UTC)

func testValidator() *Validator {
	return NewWithConfig(Config{
		Clock:    func() time.Time { return fixedNow },
		Location: time.UTC,
	})
}

func withNotes(ids ...string) *model.FilteredContext {
	notes := make([]model.ScoredItem[model.Note], 0, len(ids))
	for _, id := range ids {
		notes = append(notes, model.ScoredItem[model.Note]{Item: model.Note{ID: id, Title: id}, RelevanceScore: 1})
	}
	return &model.FilteredContext{
		Notes:    &notes,
		Metadata: model.ContextMetadata{Timestamp: fixedNow},
	}
}

func withTasks(period string) *model.FilteredContext {
	tasks := []model.ScoredItem[model.Task]{{Item: model.Task{ID: "t1", Title: "Dentist"}, RelevanceScore: 1}}
	return &model.FilteredContext{
		Tasks: &tasks,
		Metadata: model.ContextMetadata{
			Timestamp: fixedNow,
			Intent: model.IntentContext{
				Intent:    model.IntentTasks,
				DateRange: &model.DateRange{PeriodLabel: period},
			},
		},
	}
}

func TestValidator_Validate(t *testing.T) {
	tests := []struct {
		resp       *LLMResponse
		fc         *model.FilteredContext
		name       string
		wantStatus Status
		wantReason string
		wantIssues []string
	}{
		{
			name:       "confidence at threshold is accepted",
			resp:       &LLMResponse{Response: "Here you go.", Confidence: 0.75},
			fc:         withNotes("n1"),
			wantStatus: StatusValid,
		},
		{
			name:       "confidence just below threshold",
			resp:       &LLMResponse{Response: "Here you go.", Confidence: 0.749},
			fc:         withNotes("n1"),
			wantStatus: StatusLowConfidence,
			wantReason: "confidence 0.749 is below 0.75",
		},
		{
			name:       "NaN confidence",
			resp:       &LLMResponse{Response: "x", Confidence: math.NaN()},
			fc:         withNotes(),
			wantStatus: StatusLowConfidence,
			wantReason: "confidence NaN is below 0.75",
		},
		{
			name:       "nil response",
			fc:         withNotes(),
			wantStatus: StatusLowConfidence,
			wantReason: "no response to validate",
		},
		{
			name:       "low confidence wins over clarification",
			resp:       &LLMResponse{Confidence: 0.5, NeedsClarification: true, ClarifyingQuestions: []string{"Which month?"}},
			fc:         withNotes(),
			wantStatus: StatusLowConfidence,
			wantReason: "confidence 0.5 is below 0.75",
		},
		{
			name:       "clarification requested",
			resp:       &LLMResponse{Confidence: 0.9, NeedsClarification: true, ClarifyingQuestions: []string{"Which month?"}},
			fc:         withNotes(),
			wantStatus: StatusNeedsClarification,
		},
		{
			name: "known references",
			resp: &LLMResponse{
				Response:       "Your Project X note covers the kickoff.",
				Confidence:     0.9,
				DataReferences: &DataReferences{NoteIDs: []string{"n1"}},
			},
			fc:         withNotes("n1"),
			wantStatus: StatusValid,
		},
		{
			name: "unknown reference",
			resp: &LLMResponse{
				Response:       "See your note.",
				Confidence:     0.95,
				DataReferences: &DataReferences{NoteIDs: []string{"n1", "n9"}},
			},
			fc:         withNotes("n1"),
			wantStatus: StatusHallucination,
			wantReason: "Referenced note 'n9' not found",
			wantIssues: []string{"Referenced note 'n9' not found"},
		},
		{
			name: "reference to kind not requested",
			resp: &LLMResponse{
				Response:       "Your receipt from Blue Bottle.",
				Confidence:     0.95,
				DataReferences: &DataReferences{ReceiptIDs: []string{"A"}},
			},
			fc:         withNotes("n1"),
			wantStatus: StatusHallucination,
			wantReason: "Referenced receipt 'A' not found",
			wantIssues: []string{
				"Referenced receipt 'A' not found",
				"Response mentions receipts but none were provided in context",
			},
		},
		{
			name:       "nil context treats every list as empty",
			resp:       &LLMResponse{Response: "ok", Confidence: 0.9, DataReferences: &DataReferences{TaskIDs: []string{"t1"}}},
			wantStatus: StatusHallucination,
			wantReason: "Referenced task 't1' not found",
			wantIssues: []string{"Referenced task 't1' not found"},
		},
		{
			name:       "invented notes",
			resp:       &LLMResponse{Response: "You have 2 notes titled Project X", Confidence: 0.9},
			fc:         withNotes(),
			wantStatus: StatusHallucination,
			wantReason: "Response claims notes that are not present in context",
			wantIssues: []string{
				"Response mentions notes but none were provided in context",
				"Response claims notes that are not present in context",
			},
		},
		{
			name:       "denying notes is fine",
			resp:       &LLMResponse{Response: "You have no notes about that.", Confidence: 0.9},
			fc:         withNotes(),
			wantStatus: StatusValid,
		},
		{
			name:       "zero note count is fine",
			resp:       &LLMResponse{Response: "You have 0 notes about Project X.", Confidence: 0.95},
			fc:         withNotes(),
			wantStatus: StatusValid,
		},
		{
			name:       "zero matches is fine",
			resp:       &LLMResponse{Response: "There are 0 notes matching that.", Confidence: 0.95},
			fc:         withNotes(),
			wantStatus: StatusValid,
		},
		{
			name:       "zero word count is fine",
			resp:       &LLMResponse{Response: "I found zero notes about the trip.", Confidence: 0.95},
			fc:         withNotes(),
			wantStatus: StatusValid,
		},
		{
			name:       "multi digit count is a claim",
			resp:       &LLMResponse{Response: "I found 10 notes about the trip.", Confidence: 0.95},
			fc:         withNotes(),
			wantStatus: StatusHallucination,
			wantReason: "Response claims notes that are not present in context",
			wantIssues: []string{"Response claims notes that are not present in context"},
		},
		{
			name:       "schedule claim without tasks",
			resp:       &LLMResponse{Response: "Your schedule has a dentist visit.", Confidence: 0.9},
			fc:         withNotes("n1"),
			wantStatus: StatusPartiallyValid,
			wantIssues: []string{"Response mentions tasks but none were provided in context"},
		},
		{
			name:       "schedule claim with tasks",
			resp:       &LLMResponse{Response: "Your schedule has a dentist visit.", Confidence: 0.9},
			fc:         withTasks("thisWeek"),
			wantStatus: StatusValid,
		},
		{
			name:       "tomorrow's date in an answer about today",
			resp:       &LLMResponse{Response: "The dentist is on November 16, 2024.", Confidence: 0.9},
			fc:         withTasks("today"),
			wantStatus: StatusPartiallyValid,
			wantIssues: []string{"Response mentions tomorrow's date (Nov 16, 2024) for a question about today"},
		},
		{
			name:       "tomorrow's date in ISO form",
			resp:       &LLMResponse{Response: "Dentist: 2024-11-16", Confidence: 0.9},
			fc:         withTasks("today"),
			wantStatus: StatusPartiallyValid,
			wantIssues: []string{"Response mentions tomorrow's date (Nov 16, 2024) for a question about today"},
		},
		{
			name:       "tomorrow's date in numeric form",
			resp:       &LLMResponse{Response: "Dentist on 11/16/2024.", Confidence: 0.9},
			fc:         withTasks("today"),
			wantStatus: StatusPartiallyValid,
			wantIssues: []string{"Response mentions tomorrow's date (Nov 16, 2024) for a question about today"},
		},
		{
			name:       "tomorrow's date outside a today question",
			resp:       &LLMResponse{Response: "The dentist is on November 16, 2024.", Confidence: 0.9},
			fc:         withTasks("thisWeek"),
			wantStatus: StatusValid,
		},
		{
			name:       "today's date is fine",
			resp:       &LLMResponse{Response: "The dentist is on Nov 15, 2024.", Confidence: 0.9},
			fc:         withTasks("today"),
			wantStatus: StatusValid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := testValidator().Validate(tt.resp, tt.fc)

			assert.Equal(t, tt.wantStatus, got.Status)
			if tt.wantReason != "" {
				assert.Equal(t, tt.wantReason, got.Reason)
			}

			messages := make([]string, 0, len(got.Issues))
			for _, issue := range got.Issues {
				messages = append(messages, issue.Message)
			}
			if len(tt.wantIssues) == 0 {
				assert.Empty(t, messages)
			} else {
				assert.Equal(t, tt.wantIssues, messages)
			}
		})
	}
}

func TestValidator_ClarificationCarriesQuestions(t *testing.T) {
	got := testValidator().Validate(&LLMResponse{
		Confidence:          0.8,
		NeedsClarification:  true,
		ClarifyingQuestions: []string{"Which account?", "Which month?"},
	}, withNotes())

	assert.Equal(t, StatusNeedsClarification, got.Status)
	assert.Equal(t, []string{"Which account?", "Which month?"}, got.Questions)
	assert.False(t, got.Accepted())
}

func TestValidator_Deterministic(t *testing.T) {
	resp := &LLMResponse{
		Response:   "You have 3 notes titled Budget and your schedule is full. Also see November 16, 2024.",
		Confidence: 0.9,
		DataReferences: &DataReferences{
			NoteIDs:  []string{"n7", "n8"},
			EmailIDs: []string{"e1"},
		},
	}
	fc := withTasks("today")

	v := testValidator()
	first := v.Validate(resp, fc)
	for i := 0; i < 20; i++ {
		if diff := cmp.Diff(first, v.Validate(resp, fc)); diff != "" {
			t.Fatalf("validation changed between runs (-first +got):\n%s", diff)
		}
	}
	require.Equal(t, StatusHallucination, first.Status)
	assert.Equal(t, "Referenced note 'n7' not found", first.Reason)
}

func TestValidator_PartiallyValidKeepsResponse(t *testing.T) {
	got := testValidator().Validate(&LLMResponse{Response: "Your schedule is light.", Confidence: 0.9}, withNotes("n1"))

	assert.Equal(t, StatusPartiallyValid, got.Status)
	assert.Equal(t, "Your schedule is light.", got.Response)
	assert.True(t, got.Accepted())
}
