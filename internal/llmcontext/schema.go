// Package llmcontext turns a FilteredContext into the JSON document sent to
// the language model, and renders the prompts that carry it.
package llmcontext

import "github.com/Veraticus/recollect/internal/model"

// StructuredContext is the wire document given to the model. Field names
// and nesting are a stable contract with the prompt templates.
type StructuredContext struct {
	Context             Payload  `json:"context"`
	ConversationHistory []Turn   `json:"conversationHistory"`
	Metadata            Metadata `json:"metadata"`
}

// Turn is one message of the conversation so far.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Metadata describes the query the context was built for.
type Metadata struct {
	DateRange       *DateRangeInfo   `json:"dateRange,omitempty"`
	TemporalContext *TemporalContext `json:"temporalContext,omitempty"`
	Weather         *model.Weather   `json:"weather,omitempty"`
	Timestamp       string           `json:"timestamp"`
	Timezone        string           `json:"timezone"`
	Intent          string           `json:"intent"`
	SubIntents      []string         `json:"subIntents"`
	Entities        []string         `json:"entities"`
}

// DateRangeInfo is a resolved date range with its canonical period tag.
type DateRangeInfo struct {
	Start       string `json:"start"`
	End         string `json:"end"`
	Period      Period `json:"period"`
	Description string `json:"description"`
}

// TemporalContext reports how the current question relates to the previous one.
type TemporalContext struct {
	SharedTimeframe string   `json:"sharedTimeframe,omitempty"`
	PreviousQuery   string   `json:"previousQuery,omitempty"`
	SharedKeywords  []string `json:"sharedKeywords"`
	IsFollowUp      bool     `json:"isFollowUp"`
}

// Payload holds the per-kind records. A nil list was not requested and is
// omitted; a requested list with no matches serializes as [].
type Payload struct {
	Notes          *[]NoteEntry     `json:"notes,omitempty"`
	Locations      *[]LocationEntry `json:"locations,omitempty"`
	Tasks          *[]TaskEntry     `json:"tasks,omitempty"`
	Emails         *[]EmailEntry    `json:"emails,omitempty"`
	Receipts       *[]ReceiptEntry  `json:"receipts,omitempty"`
	ReceiptSummary *ReceiptSummary  `json:"receiptSummary,omitempty"`
}

// NoteEntry is a serialized note.
type NoteEntry struct {
	ID             string          `json:"id"`
	Title          string          `json:"title"`
	Excerpt        string          `json:"excerpt"`
	Folder         string          `json:"folder,omitempty"`
	CreatedAt      string          `json:"createdAt"`
	UpdatedAt      string          `json:"updatedAt,omitempty"`
	MatchType      model.MatchType `json:"matchType"`
	Snippets       []string        `json:"snippets,omitempty"`
	RelevanceScore float64         `json:"relevanceScore"`
}

// TaskEntry is a serialized task or event.
type TaskEntry struct {
	ID             string          `json:"id"`
	Title          string          `json:"title"`
	Description    string          `json:"description,omitempty"`
	ScheduledTime  string          `json:"scheduledTime,omitempty"`
	TargetDate     string          `json:"targetDate,omitempty"`
	DayOfWeek      string          `json:"dayOfWeek,omitempty"`
	Status         string          `json:"status"`
	Priority       string          `json:"priority,omitempty"`
	MatchType      model.MatchType `json:"matchType"`
	Tags           []string        `json:"tags,omitempty"`
	RelevanceScore float64         `json:"relevanceScore"`
	IsCompleted    bool            `json:"isCompleted"`
}

// LocationEntry is a serialized saved place.
type LocationEntry struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Category       string          `json:"category,omitempty"`
	Address        string          `json:"address,omitempty"`
	City           string          `json:"city,omitempty"`
	Province       string          `json:"province,omitempty"`
	Country        string          `json:"country,omitempty"`
	Distance       string          `json:"distance,omitempty"`
	MatchType      model.MatchType `json:"matchType"`
	Rating         float64         `json:"rating,omitempty"`
	RelevanceScore float64         `json:"relevanceScore"`
}

// EmailEntry is a serialized email.
type EmailEntry struct {
	ID                   string          `json:"id"`
	Subject              string          `json:"subject"`
	Sender               string          `json:"sender"`
	Excerpt              string          `json:"excerpt"`
	Timestamp            string          `json:"timestamp"`
	MatchType            model.MatchType `json:"matchType"`
	ImportanceIndicators []string        `json:"importanceIndicators,omitempty"`
	RelevanceScore       float64         `json:"relevanceScore"`
	IsImportant          bool            `json:"isImportant"`
	IsRead               bool            `json:"isRead"`
}

// ReceiptEntry is a serialized receipt.
type ReceiptEntry struct {
	ID               string          `json:"id"`
	Merchant         string          `json:"merchant"`
	Date             string          `json:"date"`
	Category         string          `json:"category,omitempty"`
	PaymentMethod    string          `json:"paymentMethod,omitempty"`
	MerchantType     string          `json:"merchantType,omitempty"`
	MatchType        model.MatchType `json:"matchType"`
	MerchantProducts []string        `json:"merchantProducts,omitempty"`
	Amount           float64         `json:"amount"`
	RelevanceScore   float64         `json:"relevanceScore"`
}

// ReceiptSummary carries the statistics of the receipts in the context.
type ReceiptSummary struct {
	ByCategory    []CategorySummary `json:"byCategory"`
	TotalAmount   float64           `json:"totalAmount"`
	AverageAmount float64           `json:"averageAmount"`
	MinAmount     float64           `json:"minAmount"`
	MaxAmount     float64           `json:"maxAmount"`
	TotalCount    int               `json:"totalCount"`
}

// CategorySummary is one category line of a ReceiptSummary.
type CategorySummary struct {
	Category   string  `json:"category"`
	Amount     float64 `json:"amount"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}
