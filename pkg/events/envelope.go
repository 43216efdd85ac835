// Package events provides the generic event infrastructure for pipeline
// event emission: the Envelope container and the EventSink interface
// implementations feed (database outbox, log output, or nothing at all).
package events

import (
	"context"
	"encoding/json"
	"time"
)

// Envelope wraps pipeline events with the metadata downstream consumers need
// for routing, deduplication, and correlation. The payload schema varies by
// Type and Version.
type Envelope struct {
	// ID uniquely identifies this event instance.
	ID string `json:"id"`

	// Type identifies the event for routing, e.g. "analysis.unit_completed".
	Type string `json:"type"`

	// Source names the component that emitted the event,
	// e.g. "analysis-activity".
	Source string `json:"source"`

	// Version enables schema evolution; starts at "1.0.0".
	Version string `json:"version"`

	// Timestamp records wall-clock emission time.
	Timestamp time.Time `json:"timestamp"`

	// IdempotencyKey deduplicates re-emissions caused by activity retries.
	// Derived deterministically from workflow coordinates and event content.
	IdempotencyKey string `json:"idempotency_key"`

	// ForecastID ties the event to the forecast run that produced it.
	ForecastID string `json:"forecast_id"`

	// WorkflowID and RunID identify the Temporal execution for correlation.
	WorkflowID string `json:"workflow_id"`
	RunID      string `json:"run_id"`

	// Payload carries the event-specific data as JSON.
	Payload json.RawMessage `json:"payload"`
}

// EventSink emits events to downstream consumers with best-effort delivery.
// Implementations must tolerate duplicates (same idempotency key) and return
// quickly; event emission is observability, never correctness, so callers do
// not fail their primary operation on sink errors.
type EventSink interface {
	Append(ctx context.Context, envelope Envelope) error
}

// NoOpEventSink discards every event. Used in tests and when event emission
// is disabled.
type NoOpEventSink struct{}

// Append implements EventSink and always succeeds.
func (n *NoOpEventSink) Append(_ context.Context, _ Envelope) error { return nil }

// NewNoOpEventSink creates a sink that discards everything.
func NewNoOpEventSink() EventSink { return &NoOpEventSink{} }
