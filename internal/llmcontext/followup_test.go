package llmcontext

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectFollowUp(t *testing.T) {
	tests := []struct {
		name         string
		query        string
		timeframe    string
		previous     string
		history      []Turn
		keywords     []string
		wantFollowUp bool
	}{
		{
			name:         "continuation cue",
			query:        "What about groceries?",
			history:      []Turn{{Role: "user", Content: "How much did I spend on coffee?"}, {Role: "assistant", Content: "$42.10"}},
			wantFollowUp: true,
			keywords:     []string{},
			previous:     "How much did I spend on coffee?",
		},
		{
			name:         "shared keyword",
			query:        "show coffee receipts",
			history:      []Turn{{Role: "user", Content: "coffee spending in November"}},
			wantFollowUp: true,
			keywords:     []string{"coffee"},
			previous:     "coffee spending in November",
		},
		{
			name:         "shared timeframe",
			query:        "any meetings today",
			history:      []Turn{{Role: "user", Content: "emails from today"}},
			wantFollowUp: true,
			keywords:     []string{},
			timeframe:    "today",
			previous:     "emails from today",
		},
		{
			name:         "unrelated",
			query:        "show my notes",
			history:      []Turn{{Role: "user", Content: "weather in paris"}},
			wantFollowUp: false,
			keywords:     []string{},
			previous:     "weather in paris",
		},
		{
			name:         "cue must be a whole word",
			query:        "android apps",
			history:      []Turn{{Role: "user", Content: "weather in paris"}},
			wantFollowUp: false,
			keywords:     []string{},
			previous:     "weather in paris",
		},
		{
			name:         "stopwords are not keywords",
			query:        "what did you show",
			history:      []Turn{{Role: "user", Content: "show what you did"}},
			wantFollowUp: false,
			keywords:     []string{},
			previous:     "show what you did",
		},
		{
			name:         "no history",
			query:        "and those?",
			wantFollowUp: false,
			keywords:     []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectFollowUp(tt.query, tt.history)
			assert.Equal(t, tt.wantFollowUp, got.IsFollowUp)
			assert.Equal(t, tt.keywords, got.SharedKeywords)
			assert.Equal(t, tt.timeframe, got.SharedTimeframe)
			assert.Equal(t, tt.previous, got.PreviousQuery)
		})
	}
}

func TestExcerpt(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		want  string
		limit int
	}{
		{name: "short text unchanged", text: "hello", limit: 10, want: "hello"},
		{name: "exact length unchanged", text: "hello", limit: 5, want: "hello"},
		{name: "breaks on whitespace", text: "hello world foo", limit: 8, want: "hello..."},
		{name: "no whitespace cuts at limit", text: "abcdefghij", limit: 4, want: "abcd..."},
		{name: "counts runes", text: "héllo wörld", limit: 7, want: "héllo..."},
		{name: "keeps a word ending at the limit", text: "hello world foo", limit: 11, want: "hello world..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Excerpt(tt.text, tt.limit))
		})
	}
}
