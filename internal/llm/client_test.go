package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openAIServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(endpoint string) Config {
	return Config{
		Providers: map[string]ProviderConfig{
			ProviderOpenAI: {Endpoint: endpoint, APIKey: "test-key"},
		},
		RateLimit:      RateLimitConfig{RequestsPerSecond: 1000, Burst: 1000},
		CircuitBreaker: CircuitBreakerConfig{ConsecutiveFailures: 3, OpenTimeout: time.Minute},
		Logger:         zerolog.Nop(),
	}
}

func generationRequest() *Request {
	return &Request{
		Provider:       ProviderOpenAI,
		Model:          "gpt-4o",
		SystemPrompt:   "You are a product analyst.",
		UserPrompt:     "Analyze this product.",
		MaxTokens:      1000,
		Temperature:    0.7,
		WantStructured: true,
	}
}

func TestClientGenerate_Success(t *testing.T) {
	srv := openAIServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		w.Header().Set("x-request-id", "req-123")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"id": "chatcmpl-1",
			"choices": [{"message": {"content": "{\"demand_score\": 80}"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 100, "completion_tokens": 50, "total_tokens": 150}
		}`)
	})

	c, err := NewClient(testConfig(srv.URL))
	require.NoError(t, err)

	resp, err := c.Generate(context.Background(), generationRequest())
	require.NoError(t, err)

	assert.Equal(t, `{"demand_score": 80}`, resp.Content)
	assert.Equal(t, FinishStop, resp.FinishReason)
	assert.Equal(t, "req-123", resp.ProviderRequestID)
	assert.Equal(t, int64(150), resp.Usage.TotalTokens)
	// Default rates: 100 prompt tokens at $10/1M plus 50 completion at $30/1M.
	assert.InDelta(t, 0.0025, resp.CostUSD, 1e-9)
}

func TestClientGenerate_RateLimitErrorClassified(t *testing.T) {
	srv := openAIServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error": {"message": "Rate limit reached", "type": "rate_limit_error"}}`)
	})

	c, err := NewClient(testConfig(srv.URL))
	require.NoError(t, err)

	_, err = c.Generate(context.Background(), generationRequest())
	require.Error(t, err)

	var backendErr *BackendError
	require.ErrorAs(t, err, &backendErr)
	assert.Equal(t, ErrorTypeRateLimit, backendErr.Type)
	assert.True(t, backendErr.IsRetryable())
	assert.Equal(t, http.StatusTooManyRequests, backendErr.StatusCode)
}

func TestClientGenerate_EmptyContentIsParseError(t *testing.T) {
	srv := openAIServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices": [], "usage": {"prompt_tokens": 10, "completion_tokens": 0, "total_tokens": 10}}`)
	})

	c, err := NewClient(testConfig(srv.URL))
	require.NoError(t, err)

	_, err = c.Generate(context.Background(), generationRequest())
	var backendErr *BackendError
	require.ErrorAs(t, err, &backendErr)
	assert.Equal(t, ErrorTypeParse, backendErr.Type)
	assert.False(t, backendErr.IsRetryable())
}

func TestClientGenerate_CircuitBreakerOpensAfterFailures(t *testing.T) {
	var calls atomic.Int64
	srv := openAIServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, `{"error": {"message": "overloaded", "type": "server_error"}}`)
	})

	c, err := NewClient(testConfig(srv.URL))
	require.NoError(t, err)

	// Trip the breaker with consecutive retryable failures.
	for i := 0; i < 3; i++ {
		_, err = c.Generate(context.Background(), generationRequest())
		require.Error(t, err)
	}
	served := calls.Load()

	// The open breaker sheds the next call without reaching the server.
	_, err = c.Generate(context.Background(), generationRequest())
	require.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, served, calls.Load())
}

func TestClientGenerate_UnknownProvider(t *testing.T) {
	srv := openAIServer(t, func(w http.ResponseWriter, r *http.Request) {})

	c, err := NewClient(testConfig(srv.URL))
	require.NoError(t, err)

	req := generationRequest()
	req.Provider = "mystical"
	_, err = c.Generate(context.Background(), req)
	require.ErrorIs(t, err, ErrUnknownProvider)
}

func TestNewClient_RequiresProviders(t *testing.T) {
	_, err := NewClient(Config{Logger: zerolog.Nop()})
	require.Error(t, err)
}

func TestAnthropicAdapter_Parse(t *testing.T) {
	srv := openAIServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.NotEmpty(t, r.Header.Get("anthropic-version"))

		fmt.Fprint(w, `{
			"id": "msg-1",
			"content": [{"type": "text", "text": "{\"quality_tier\": \"premium\"}"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 120, "output_tokens": 60}
		}`)
	})

	cfg := Config{
		Providers: map[string]ProviderConfig{
			ProviderAnthropic: {Endpoint: srv.URL, APIKey: "test-key"},
		},
		Logger: zerolog.Nop(),
	}
	c, err := NewClient(cfg)
	require.NoError(t, err)

	req := generationRequest()
	req.Provider = ProviderAnthropic
	resp, err := c.Generate(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, `{"quality_tier": "premium"}`, resp.Content)
	assert.Equal(t, FinishStop, resp.FinishReason)
	assert.Equal(t, int64(180), resp.Usage.TotalTokens)
}

func TestPricingRegistry(t *testing.T) {
	reg := NewPricingRegistry([]PricingEntry{
		{Provider: "openai", Model: "gpt-4o", PromptCostPerMillion: 2.5, CompletionCostPerMillion: 10},
	})
	usage := NormalizedUsage{PromptTokens: 1_000_000, CompletionTokens: 500_000}

	assert.InDelta(t, 7.5, reg.Cost("openai", "gpt-4o", usage), 1e-9)
	// Unknown models fall back to the default $10/$30 per-million rates.
	assert.InDelta(t, 25.0, reg.Cost("openai", "gpt-unknown", usage), 1e-9)
}

func TestChainOrder(t *testing.T) {
	var order []string
	mw := func(name string) Middleware {
		return func(next Handler) Handler {
			return HandlerFunc(func(ctx context.Context, req *Request) (*Response, error) {
				order = append(order, name)
				return next.Handle(ctx, req)
			})
		}
	}
	core := HandlerFunc(func(ctx context.Context, req *Request) (*Response, error) {
		order = append(order, "core")
		return nil, errors.New("stop")
	})

	_, err := Chain(core, mw("outer"), mw("inner")).Handle(context.Background(), &Request{})
	require.Error(t, err)
	assert.Equal(t, []string{"outer", "inner", "core"}, order)
}
