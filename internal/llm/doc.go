// Package llm provides language model clients used to answer questions
// and classify merchants. It supports OpenAI and Anthropic, with request
// pacing through a token bucket limiter.
package llm
