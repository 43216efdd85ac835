package llm

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorType categorizes provider failures for retry classification. Types
// determine whether a call should be retried and let the activity layer fold
// backend failures into result envelopes with a stable taxonomy.
type ErrorType string

const (
	// ErrorTypeTimeout indicates a request timeout or deadline exceeded (retryable).
	ErrorTypeTimeout ErrorType = "timeout"

	// ErrorTypeRateLimit indicates the provider rate limit tripped (retryable).
	ErrorTypeRateLimit ErrorType = "rate_limit"

	// ErrorTypeNetwork indicates connectivity trouble (retryable).
	ErrorTypeNetwork ErrorType = "network"

	// ErrorTypeProvider indicates the provider service is degraded (retryable).
	ErrorTypeProvider ErrorType = "provider_unavailable"

	// ErrorTypeParse indicates the provider answered but its content could
	// not be decoded into the expected schema (non-retryable data error).
	ErrorTypeParse ErrorType = "parse_error"

	// ErrorTypeValidation indicates the provider rejected the request shape.
	ErrorTypeValidation ErrorType = "validation_failed"

	// ErrorTypeContent indicates content blocked by safety filters.
	ErrorTypeContent ErrorType = "content_filtered"

	// ErrorTypeAuth indicates authentication failed (non-retryable).
	ErrorTypeAuth ErrorType = "authentication"

	// ErrorTypeQuota indicates the account quota is exhausted (non-retryable).
	ErrorTypeQuota ErrorType = "quota_exceeded"

	// ErrorTypeUnknown indicates an unclassified error.
	ErrorTypeUnknown ErrorType = "unknown"
)

// Common client errors.
var (
	// ErrUnknownProvider indicates an unknown or unconfigured provider.
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrCircuitOpen indicates the provider's circuit breaker is open.
	ErrCircuitOpen = errors.New("provider circuit open")

	// ErrRateLimited indicates the client-side limiter rejected the call.
	ErrRateLimited = errors.New("client rate limit exceeded")

	// ErrEmptyResponse indicates the provider returned no content.
	ErrEmptyResponse = errors.New("provider returned empty content")
)

// BackendError is the classified failure of one provider call. It carries the
// HTTP status, the provider's own error code, and a retry recommendation.
type BackendError struct {
	Provider   string    `json:"provider"`
	StatusCode int       `json:"status_code"`
	Message    string    `json:"message"`
	Code       string    `json:"code,omitempty"`
	Type       ErrorType `json:"type"`
	Cause      error     `json:"-"`
}

// Error renders the classified failure with its type and provider code.
func (e *BackendError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s [%s:%s]: %s", e.Provider, e.Type, e.Code, e.Message)
	}
	return fmt.Sprintf("%s [%s]: %s", e.Provider, e.Type, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is/As traversal.
func (e *BackendError) Unwrap() error { return e.Cause }

// IsRetryable reports whether the failure class is transient.
func (e *BackendError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeTimeout, ErrorTypeRateLimit, ErrorTypeNetwork, ErrorTypeProvider:
		return true
	default:
		return false
	}
}

// classifyErrorType maps an HTTP status and provider error code onto the
// taxonomy. Provider codes win over status codes when they are specific.
func classifyErrorType(statusCode int, errorCode string) ErrorType {
	lowerCode := strings.ToLower(errorCode)
	switch {
	case strings.Contains(lowerCode, "rate") || strings.Contains(lowerCode, "limit"):
		return ErrorTypeRateLimit
	case strings.Contains(lowerCode, "timeout"):
		return ErrorTypeTimeout
	case strings.Contains(lowerCode, "auth") || strings.Contains(lowerCode, "unauthorized"):
		return ErrorTypeAuth
	case strings.Contains(lowerCode, "quota") || strings.Contains(lowerCode, "billing"):
		return ErrorTypeQuota
	case strings.Contains(lowerCode, "content") || strings.Contains(lowerCode, "safety"):
		return ErrorTypeContent
	}

	switch statusCode {
	case http.StatusTooManyRequests:
		return ErrorTypeRateLimit
	case http.StatusUnauthorized:
		return ErrorTypeAuth
	case http.StatusForbidden:
		return ErrorTypeQuota
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return ErrorTypeTimeout
	case http.StatusBadRequest:
		return ErrorTypeValidation
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
		return ErrorTypeProvider
	default:
		if statusCode >= 500 {
			return ErrorTypeProvider
		}
		return ErrorTypeUnknown
	}
}
