package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/Veraticus/recollect/internal/common"
)

const openAIEndpoint = "https://api.openai.com/v1/chat/completions"

// openAIClient implements the Client interface for OpenAI API.
type openAIClient struct {
	httpClient  *http.Client
	apiKey      string
	model       string
	endpoint    string
	temperature float64
	maxTokens   int
}

// newOpenAIClient creates a new OpenAI API client.
func newOpenAIClient(cfg Config) (*openAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: OpenAI API key is required", common.ErrMissingConfig)
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.2
	}

	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 1024
	}

	endpoint := openAIEndpoint
	if cfg.BaseURL != "" {
		endpoint = strings.TrimRight(cfg.BaseURL, "/") + "/v1/chat/completions"
	}

	return &openAIClient{
		apiKey:      cfg.APIKey,
		model:       model,
		endpoint:    endpoint,
		temperature: temperature,
		maxTokens:   maxTokens,
		httpClient:  newHTTPClient(cfg.Timeout),
	}, nil
}

// openAIResponse represents the OpenAI API response structure.
type openAIResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
		Index        int    `json:"index"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// Complete sends a chat completion request to OpenAI.
func (c *openAIClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	requestBody := map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": userPrompt},
		},
		"temperature": c.temperature,
		"max_tokens":  c.maxTokens,
	}

	body, err := postJSON(ctx, c.httpClient, c.endpoint, map[string]string{
		"Authorization": "Bearer " + c.apiKey,
	}, requestBody, "OpenAI")
	if err != nil {
		return "", err
	}

	var response openAIResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if len(response.Choices) == 0 || strings.TrimSpace(response.Choices[0].Message.Content) == "" {
		return "", common.NewRetryableError(common.ErrEmptyModelContent)
	}

	return response.Choices[0].Message.Content, nil
}
