package llm

import (
	"fmt"
	"strings"

	"github.com/Veraticus/recollect/internal/common"
)

// NewClient creates a rate limited client for the configured provider.
func NewClient(cfg Config) (Client, error) {
	var client Client
	switch strings.ToLower(cfg.Provider) {
	case "openai":
		c, err := newOpenAIClient(cfg)
		if err != nil {
			return nil, err
		}
		client = c
	case "anthropic":
		c, err := newAnthropicClient(cfg)
		if err != nil {
			return nil, err
		}
		client = c
	default:
		return nil, fmt.Errorf("%w: unsupported LLM provider: %s", common.ErrInvalidConfig, cfg.Provider)
	}

	return newRateLimitedClient(client, cfg.RateLimit), nil
}
