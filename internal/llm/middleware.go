package llm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// RateLimitConfig bounds the outbound request rate per provider.
type RateLimitConfig struct {
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second"`
	Burst             int     `json:"burst" yaml:"burst"`
}

// CircuitBreakerConfig controls per-provider breaker behavior.
type CircuitBreakerConfig struct {
	ConsecutiveFailures uint32        `json:"consecutive_failures" yaml:"consecutive_failures"`
	OpenTimeout         time.Duration `json:"open_timeout" yaml:"open_timeout"`
}

// RateLimitMiddleware blocks until the per-provider token bucket admits the
// call or the context expires. Limiters are created lazily per provider so a
// slow provider cannot starve the others.
func RateLimitMiddleware(cfg RateLimitConfig) Middleware {
	var (
		mu       sync.Mutex
		limiters = make(map[string]*rate.Limiter)
	)
	limiterFor := func(provider string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()
		l, ok := limiters[provider]
		if !ok {
			l = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst)
			limiters[provider] = l
		}
		return l
	}

	return func(next Handler) Handler {
		return HandlerFunc(func(ctx context.Context, req *Request) (*Response, error) {
			if err := limiterFor(req.Provider).Wait(ctx); err != nil {
				return nil, &BackendError{
					Provider: req.Provider,
					Message:  fmt.Sprintf("%v: %v", ErrRateLimited, err),
					Type:     ErrorTypeRateLimit,
					Cause:    ErrRateLimited,
				}
			}
			return next.Handle(ctx, req)
		})
	}
}

// CircuitBreakerMiddleware trips a per-provider breaker after consecutive
// retryable failures, shedding load until the open timeout elapses.
// Non-retryable failures (auth, validation, parse) do not count against the
// breaker: they will not heal by waiting.
func CircuitBreakerMiddleware(cfg CircuitBreakerConfig) Middleware {
	var (
		mu       sync.Mutex
		breakers = make(map[string]*gobreaker.CircuitBreaker)
	)
	breakerFor := func(provider string) *gobreaker.CircuitBreaker {
		mu.Lock()
		defer mu.Unlock()
		b, ok := breakers[provider]
		if !ok {
			st := gobreaker.Settings{Name: provider, Timeout: cfg.OpenTimeout}
			st.ReadyToTrip = func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
			}
			st.IsSuccessful = func(err error) bool {
				if err == nil {
					return true
				}
				var backendErr *BackendError
				if errors.As(err, &backendErr) {
					return !backendErr.IsRetryable()
				}
				return false
			}
			b = gobreaker.NewCircuitBreaker(st)
			breakers[provider] = b
		}
		return b
	}

	return func(next Handler) Handler {
		return HandlerFunc(func(ctx context.Context, req *Request) (*Response, error) {
			result, err := breakerFor(req.Provider).Execute(func() (any, error) {
				return next.Handle(ctx, req)
			})
			if err != nil {
				if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
					return nil, &BackendError{
						Provider: req.Provider,
						Message:  ErrCircuitOpen.Error(),
						Type:     ErrorTypeProvider,
						Cause:    ErrCircuitOpen,
					}
				}
				return nil, err
			}
			return result.(*Response), nil
		})
	}
}

// PricingMiddleware attributes a USD cost to each successful response.
func PricingMiddleware(registry *PricingRegistry) Middleware {
	return func(next Handler) Handler {
		return HandlerFunc(func(ctx context.Context, req *Request) (*Response, error) {
			resp, err := next.Handle(ctx, req)
			if err != nil {
				return nil, err
			}
			resp.CostUSD = registry.Cost(req.Provider, req.Model, resp.Usage)
			return resp, nil
		})
	}
}

// LoggingMiddleware records one structured line per provider call, success or
// failure, with usage and latency on success.
func LoggingMiddleware(logger zerolog.Logger) Middleware {
	return func(next Handler) Handler {
		return HandlerFunc(func(ctx context.Context, req *Request) (*Response, error) {
			resp, err := next.Handle(ctx, req)
			evt := logger.Info()
			if err != nil {
				evt = logger.Warn().Err(err)
			}
			evt = evt.
				Str("provider", req.Provider).
				Str("model", req.Model)
			for k, v := range req.Metadata {
				evt = evt.Str(k, v)
			}
			if resp != nil {
				evt = evt.
					Int64("total_tokens", resp.Usage.TotalTokens).
					Int64("latency_ms", resp.Usage.LatencyMs).
					Float64("cost_usd", resp.CostUSD).
					Str("finish_reason", resp.FinishReason)
			}
			evt.Msg("provider call")
			return resp, err
		})
	}
}
