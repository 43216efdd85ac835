package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Router selects the provider adapter for a request.
type Router interface {
	// Pick returns the adapter for the named provider, or ErrUnknownProvider.
	Pick(provider string) (ProviderAdapter, error)
}

// ProviderAdapter abstracts provider-specific HTTP communication. Each
// provider implements this interface to handle its own API shape,
// authentication scheme, and response structure.
type ProviderAdapter interface {
	// Build constructs the provider-specific HTTP request.
	Build(ctx context.Context, req *Request) (*http.Request, error)

	// Parse extracts a normalized Response from the provider's HTTP response.
	// Non-2xx responses come back as a *BackendError.
	Parse(httpResp *http.Response) (*Response, error)

	// Name returns the canonical provider identifier.
	Name() string
}

// Supported provider identifiers. These match the configuration keys.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// ProviderConfig holds one provider's endpoint and credentials.
type ProviderConfig struct {
	Endpoint  string            `json:"endpoint" yaml:"endpoint"`
	APIKey    string            `json:"-" yaml:"-"` // sensitive, resolved from env
	APIKeyEnv string            `json:"api_key_env" yaml:"api_key_env"`
	Headers   map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
}

// NewRouter creates a router over the configured provider adapters.
func NewRouter(configs map[string]ProviderConfig) (Router, error) {
	adapters := make(map[string]ProviderAdapter, len(configs))
	for name, cfg := range configs {
		switch name {
		case ProviderOpenAI:
			adapters[name] = NewOpenAIAdapter(cfg)
		case ProviderAnthropic:
			adapters[name] = NewAnthropicAdapter(cfg)
		default:
			return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
		}
	}
	return &router{adapters: adapters}, nil
}

type router struct {
	adapters map[string]ProviderAdapter
}

func (r *router) Pick(provider string) (ProviderAdapter, error) {
	adapter, ok := r.adapters[provider]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
	}
	return adapter, nil
}

// OpenAIAdapter implements ProviderAdapter against the chat/completions API.
type OpenAIAdapter struct {
	config ProviderConfig
}

// NewOpenAIAdapter creates the adapter, defaulting to the production endpoint.
func NewOpenAIAdapter(cfg ProviderConfig) *OpenAIAdapter {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "https://api.openai.com/v1"
	}
	return &OpenAIAdapter{config: cfg}
}

// Name returns the provider name.
func (a *OpenAIAdapter) Name() string { return ProviderOpenAI }

// Build constructs the chat/completions request. Structured requests pin the
// response format to a JSON object.
func (a *OpenAIAdapter) Build(ctx context.Context, req *Request) (*http.Request, error) {
	endpoint := fmt.Sprintf("%s/chat/completions", a.config.Endpoint)

	messages := []map[string]any{}
	if req.SystemPrompt != "" {
		messages = append(messages, map[string]any{"role": "system", "content": req.SystemPrompt})
	}
	messages = append(messages, map[string]any{"role": "user", "content": req.UserPrompt})

	body := map[string]any{
		"model":       req.Model,
		"messages":    messages,
		"max_tokens":  req.MaxTokens,
		"temperature": req.Temperature,
	}
	if req.WantStructured {
		body["response_format"] = map[string]any{"type": "json_object"}
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", fmt.Sprintf("Bearer %s", a.config.APIKey))
	if req.IdempotencyKey != "" {
		httpReq.Header.Set("Idempotency-Key", req.IdempotencyKey)
	}
	for k, v := range a.config.Headers {
		httpReq.Header.Set(k, v)
	}
	return httpReq, nil
}

// Parse extracts the first choice, usage metrics, and the request ID.
func (a *OpenAIAdapter) Parse(httpResp *http.Response) (*Response, error) {
	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, parseOpenAIError(httpResp.StatusCode, body)
	}

	var resp struct {
		ID      string `json:"id"`
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
			FinishReason string `json:"finish_reason"`
		} `json:"choices"`
		Usage struct {
			PromptTokens     int64 `json:"prompt_tokens"`
			CompletionTokens int64 `json:"completion_tokens"`
			TotalTokens      int64 `json:"total_tokens"`
		} `json:"usage"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &BackendError{
			Provider: ProviderOpenAI,
			Message:  fmt.Sprintf("malformed response body: %v", err),
			Type:     ErrorTypeParse,
			Cause:    err,
		}
	}

	var content, finishReason string
	if len(resp.Choices) > 0 {
		content = resp.Choices[0].Message.Content
		finishReason = mapOpenAIFinishReason(resp.Choices[0].FinishReason)
	}

	return &Response{
		Content:           content,
		FinishReason:      finishReason,
		ProviderRequestID: httpResp.Header.Get("x-request-id"),
		Usage: NormalizedUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
		Headers: httpResp.Header,
	}, nil
}

// AnthropicAdapter implements ProviderAdapter against the messages API.
type AnthropicAdapter struct {
	config ProviderConfig
}

// NewAnthropicAdapter creates the adapter, defaulting to the production endpoint.
func NewAnthropicAdapter(cfg ProviderConfig) *AnthropicAdapter {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "https://api.anthropic.com/v1"
	}
	return &AnthropicAdapter{config: cfg}
}

// Name returns the provider name.
func (a *AnthropicAdapter) Name() string { return ProviderAnthropic }

// Build constructs the messages request. Anthropic takes the system prompt as
// a top-level field rather than a message role.
func (a *AnthropicAdapter) Build(ctx context.Context, req *Request) (*http.Request, error) {
	endpoint := fmt.Sprintf("%s/messages", a.config.Endpoint)

	body := map[string]any{
		"model": req.Model,
		"messages": []map[string]any{
			{"role": "user", "content": req.UserPrompt},
		},
		"max_tokens":  req.MaxTokens,
		"temperature": req.Temperature,
	}
	if req.SystemPrompt != "" {
		body["system"] = req.SystemPrompt
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", a.config.APIKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")
	if req.IdempotencyKey != "" {
		httpReq.Header.Set("Idempotency-Key", req.IdempotencyKey)
	}
	for k, v := range a.config.Headers {
		httpReq.Header.Set(k, v)
	}
	return httpReq, nil
}

// Parse extracts the first content block, usage metrics, and the request ID.
func (a *AnthropicAdapter) Parse(httpResp *http.Response) (*Response, error) {
	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, parseAnthropicError(httpResp.StatusCode, body)
	}

	var resp struct {
		ID      string `json:"id"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		StopReason string `json:"stop_reason"`
		Usage      struct {
			InputTokens  int64 `json:"input_tokens"`
			OutputTokens int64 `json:"output_tokens"`
		} `json:"usage"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &BackendError{
			Provider: ProviderAnthropic,
			Message:  fmt.Sprintf("malformed response body: %v", err),
			Type:     ErrorTypeParse,
			Cause:    err,
		}
	}

	var content string
	if len(resp.Content) > 0 {
		content = resp.Content[0].Text
	}

	return &Response{
		Content:           content,
		FinishReason:      mapAnthropicStopReason(resp.StopReason),
		ProviderRequestID: httpResp.Header.Get("request-id"),
		Usage: NormalizedUsage{
			PromptTokens:     resp.Usage.InputTokens,
			CompletionTokens: resp.Usage.OutputTokens,
			TotalTokens:      resp.Usage.InputTokens + resp.Usage.OutputTokens,
		},
		Headers: httpResp.Header,
	}, nil
}

func mapOpenAIFinishReason(reason string) string {
	switch reason {
	case "stop":
		return FinishStop
	case "length":
		return FinishLength
	case "content_filter":
		return FinishContentFilter
	default:
		return FinishStop
	}
}

func mapAnthropicStopReason(reason string) string {
	switch reason {
	case "end_turn", "stop_sequence":
		return FinishStop
	case "max_tokens":
		return FinishLength
	default:
		return FinishStop
	}
}

// parseOpenAIError converts the OpenAI JSON error format to a BackendError.
func parseOpenAIError(statusCode int, body []byte) error {
	var errResp struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
			Code    string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		return &BackendError{
			Provider:   ProviderOpenAI,
			StatusCode: statusCode,
			Message:    errResp.Error.Message,
			Code:       errResp.Error.Code,
			Type:       classifyErrorType(statusCode, errResp.Error.Type),
		}
	}
	return &BackendError{
		Provider:   ProviderOpenAI,
		StatusCode: statusCode,
		Message:    strings.TrimSpace(string(body)),
		Type:       classifyErrorType(statusCode, ""),
	}
}

// parseAnthropicError converts the Anthropic JSON error format to a BackendError.
func parseAnthropicError(statusCode int, body []byte) error {
	var errResp struct {
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		return &BackendError{
			Provider:   ProviderAnthropic,
			StatusCode: statusCode,
			Message:    errResp.Error.Message,
			Code:       errResp.Error.Type,
			Type:       classifyErrorType(statusCode, errResp.Error.Type),
		}
	}
	return &BackendError{
		Provider:   ProviderAnthropic,
		StatusCode: statusCode,
		Message:    strings.TrimSpace(string(body)),
		Type:       classifyErrorType(statusCode, ""),
	}
}
