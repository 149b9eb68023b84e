package llm

import (
	"context"
	"time"
)

// Client defines the interface for LLM providers.
type Client interface {
	// Complete sends a system and user prompt and returns the raw text reply.
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Config holds provider settings.
type Config struct {
	Provider    string
	APIKey      string
	Model       string
	BaseURL     string // Overrides the provider endpoint, mainly for tests
	Temperature float64
	MaxTokens   int
	RateLimit   int // Requests per minute
	Timeout     time.Duration
}
