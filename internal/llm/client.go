package llm

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Default client tuning.
const (
	DefaultHTTPTimeout       = 60 * time.Second
	DefaultRequestsPerSecond = 5.0
	DefaultBurst             = 10
	DefaultBreakerFailures   = 5
	DefaultBreakerTimeout    = 30 * time.Second
)

// Client is the single entry point units call to generate content.
type Client interface {
	Generate(ctx context.Context, req *Request) (*Response, error)
}

// Config assembles the client: providers, resilience knobs, and pricing.
type Config struct {
	HTTPTimeout    time.Duration             `json:"http_timeout" yaml:"http_timeout"`
	HTTPClient     *http.Client              `json:"-" yaml:"-"`
	Providers      map[string]ProviderConfig `json:"providers" yaml:"providers"`
	RateLimit      RateLimitConfig           `json:"rate_limit" yaml:"rate_limit"`
	CircuitBreaker CircuitBreakerConfig      `json:"circuit_breaker" yaml:"circuit_breaker"`
	Pricing        []PricingEntry            `json:"pricing" yaml:"pricing"`
	Logger         zerolog.Logger            `json:"-" yaml:"-"`
}

// applyDefaults fills zero-valued knobs and resolves provider API keys from
// the environment.
func (c *Config) applyDefaults() {
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = DefaultHTTPTimeout
	}
	if c.RateLimit.RequestsPerSecond <= 0 {
		c.RateLimit.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if c.RateLimit.Burst <= 0 {
		c.RateLimit.Burst = DefaultBurst
	}
	if c.CircuitBreaker.ConsecutiveFailures == 0 {
		c.CircuitBreaker.ConsecutiveFailures = DefaultBreakerFailures
	}
	if c.CircuitBreaker.OpenTimeout <= 0 {
		c.CircuitBreaker.OpenTimeout = DefaultBreakerTimeout
	}
	for name, p := range c.Providers {
		if p.APIKey == "" && p.APIKeyEnv != "" {
			p.APIKey = os.Getenv(p.APIKeyEnv)
			c.Providers[name] = p
		}
	}
}

type client struct {
	handler Handler
}

// NewClient assembles the middleware pipeline around the HTTP core:
// logging → rate limit → circuit breaker → pricing → HTTP. Pricing sits
// inside the breaker so only delivered responses are costed, and inside
// logging so the logged line carries the attributed cost.
func NewClient(cfg Config) (Client, error) {
	cfg.applyDefaults()
	if len(cfg.Providers) == 0 {
		return nil, fmt.Errorf("%w: no providers configured", ErrUnknownProvider)
	}

	router, err := NewRouter(cfg.Providers)
	if err != nil {
		return nil, err
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.HTTPTimeout}
	}

	core := &httpHandler{client: httpClient, router: router}
	pipeline := Chain(core,
		LoggingMiddleware(cfg.Logger),
		RateLimitMiddleware(cfg.RateLimit),
		CircuitBreakerMiddleware(cfg.CircuitBreaker),
		PricingMiddleware(NewPricingRegistry(cfg.Pricing)),
	)
	return &client{handler: pipeline}, nil
}

// Generate runs one normalized request through the pipeline.
func (c *client) Generate(ctx context.Context, req *Request) (*Response, error) {
	return c.handler.Handle(ctx, req)
}
