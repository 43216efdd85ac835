package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Handler processes requests through the composable middleware pipeline.
type Handler interface {
	Handle(ctx context.Context, req *Request) (*Response, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(context.Context, *Request) (*Response, error)

// Handle implements Handler.
func (f HandlerFunc) Handle(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// Middleware wraps a Handler with additional behavior.
type Middleware func(Handler) Handler

// Chain builds a middleware pipeline around a core handler. Middleware
// executes in the order provided, first middleware outermost.
func Chain(h Handler, middlewares ...Middleware) Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// httpHandler is the core handler that performs the provider HTTP call.
type httpHandler struct {
	client *http.Client
	router Router
}

// Handle selects the provider adapter, performs the HTTP exchange, and
// normalizes the response. Latency is measured around the wire call only.
func (h *httpHandler) Handle(ctx context.Context, req *Request) (*Response, error) {
	adapter, err := h.router.Pick(req.Provider)
	if err != nil {
		return nil, err
	}

	reqCtx := ctx
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	httpReq, err := adapter.Build(reqCtx, req)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", adapter.Name(), err)
	}

	start := time.Now()
	httpResp, err := h.client.Do(httpReq)
	latency := time.Since(start)
	if err != nil {
		return nil, &BackendError{
			Provider: adapter.Name(),
			Message:  err.Error(),
			Type:     classifyTransportError(reqCtx, err),
			Cause:    err,
		}
	}
	defer func() { _ = httpResp.Body.Close() }()

	resp, err := adapter.Parse(httpResp)
	if err != nil {
		return nil, err
	}
	resp.Usage.LatencyMs = latency.Milliseconds()

	if resp.Content == "" {
		return nil, &BackendError{
			Provider: adapter.Name(),
			Message:  ErrEmptyResponse.Error(),
			Type:     ErrorTypeParse,
			Cause:    ErrEmptyResponse,
		}
	}
	return resp, nil
}

// classifyTransportError distinguishes deadline expiry from other transport
// failures, which matters for the retry recommendation.
func classifyTransportError(ctx context.Context, err error) ErrorType {
	if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
		return ErrorTypeTimeout
	}
	return ErrorTypeNetwork
}
