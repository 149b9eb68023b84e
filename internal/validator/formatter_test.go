package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatter_Format(t *testing.T) {
	f := NewFormatter()

	tests := []struct {
		name     string
		result   Result
		contains []string
	}{
		{
			name:     "valid",
			result:   Result{Status: StatusValid, Response: "You spent $12.50 on coffee."},
			contains: []string{"You spent $12.50 on coffee."},
		},
		{
			name: "partially valid",
			result: Result{
				Status:   StatusPartiallyValid,
				Response: "Your schedule is light.",
				Issues:   []Issue{{Severity: SeverityWarning, Message: "Response mentions tasks but none were provided in context", Suggestion: "State that no matching tasks were found"}},
			},
			contains: []string{"Your schedule is light.", "could not be verified", "Response mentions tasks", "State that no matching tasks were found"},
		},
		{
			name:     "low confidence",
			result:   Result{Status: StatusLowConfidence, Reason: "confidence 0.5 is below 0.75"},
			contains: []string{"not confident", "confidence 0.5 is below 0.75"},
		},
		{
			name:     "clarification",
			result:   Result{Status: StatusNeedsClarification, Questions: []string{"Which month?"}},
			contains: []string{"clarify", "Which month?"},
		},
		{
			name:     "hallucination",
			result:   Result{Status: StatusHallucination, Reason: "Referenced note 'n9' not found"},
			contains: []string{"withheld", "Referenced note 'n9' not found"},
		},
		{
			name:     "unknown status",
			result:   Result{Status: "bogus"},
			contains: []string{"bogus"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := f.Format(tt.result)
			for _, want := range tt.contains {
				assert.Contains(t, out, want)
			}
		})
	}
}
