package llm

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// rateLimitedClient paces requests to the wrapped client.
type rateLimitedClient struct {
	next    Client
	limiter *rate.Limiter
}

// newRateLimitedClient allows requestsPerMinute requests per minute, with
// bursts of up to one minute's allowance.
func newRateLimitedClient(next Client, requestsPerMinute int) *rateLimitedClient {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 60 // Default to 60 requests per minute
	}
	return &rateLimitedClient{
		next:    next,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), requestsPerMinute),
	}
}

// Complete waits for a token, then forwards the request.
func (c *rateLimitedClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter canceled: %w", err)
	}
	return c.next.Complete(ctx, systemPrompt, userPrompt)
}
