package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Veraticus/recollect/internal/common"
)

const defaultTimeout = 30 * time.Second

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// postJSON sends body to url and returns the response body. Rate limits
// and server errors are retryable; other failures are permanent.
func postJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, body any, provider string) ([]byte, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, common.NewRetryableError(fmt.Errorf("%w: %s request failed: %w", common.ErrModelUnavailable, provider, err))
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, common.NewRetryableError(fmt.Errorf("failed to read response: %w", err))
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: %s API returned status %d", common.ErrRateLimit, provider, resp.StatusCode)
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, common.NewRetryableError(fmt.Errorf("%w: %s API error (status %d): %s", common.ErrModelUnavailable, provider, resp.StatusCode, string(respBody)))
	case resp.StatusCode != http.StatusOK:
		return nil, common.NewPermanentError(fmt.Errorf("%s API error (status %d): %s", provider, resp.StatusCode, string(respBody)))
	}

	return respBody, nil
}
