// Package llm provides a unified, resilient HTTP client for hosted
// language-model providers. Requests are normalized across providers and flow
// through a composable middleware pipeline for rate limiting, circuit
// breaking, cost attribution, and logging.
package llm

import (
	"net/http"
	"time"
)

// Request is a normalized generation request across all providers. It carries
// everything an adapter needs to construct the provider-specific HTTP call
// plus the control fields the middleware pipeline keys on.
type Request struct {
	// Provider identifies which hosted service to call: "openai"|"anthropic".
	Provider string `json:"provider"`

	// Model is the exact model identifier the provider expects.
	Model string `json:"model"`

	// SystemPrompt carries the unit's role instructions.
	SystemPrompt string `json:"system_prompt,omitempty"`

	// UserPrompt is the rendered unit prompt, inputs included.
	UserPrompt string `json:"user_prompt"`

	// Generation parameters.
	MaxTokens   int64   `json:"max_tokens"`
	Temperature float64 `json:"temperature"`

	// WantStructured asks the provider for a JSON object response when the
	// provider supports constrained output modes.
	WantStructured bool `json:"want_structured"`

	// Timeout bounds this single call; zero inherits the client default.
	Timeout time.Duration `json:"timeout"`

	// IdempotencyKey deduplicates retried calls on providers that honor it.
	IdempotencyKey string `json:"idempotency_key,omitempty"`

	// Metadata rides along for logging and correlation.
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Response is the normalized output from any provider.
type Response struct {
	// Content is the generated text, expected to contain a JSON document
	// (possibly fenced) when the request asked for structured output.
	Content string `json:"content"`

	// FinishReason reports why generation stopped, in the provider's terms
	// normalized to "stop"|"length"|"content_filter".
	FinishReason string `json:"finish_reason"`

	// ProviderRequestID enables cross-system correlation.
	ProviderRequestID string `json:"provider_request_id,omitempty"`

	// Usage tracks resource consumption for the call.
	Usage NormalizedUsage `json:"usage"`

	// CostUSD is the estimated cost attributed by the pricing middleware.
	CostUSD float64 `json:"cost_usd"`

	// Headers preserves raw response headers for debugging.
	Headers http.Header `json:"-"`
}

// NormalizedUsage maps provider-specific token accounting into one shape.
type NormalizedUsage struct {
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
	TotalTokens      int64 `json:"total_tokens"`
	LatencyMs        int64 `json:"latency_ms"`
}

// Normalized finish reasons.
const (
	FinishStop          = "stop"
	FinishLength        = "length"
	FinishContentFilter = "content_filter"
)
