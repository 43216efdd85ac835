// Package activity provides shared infrastructure for Temporal activity
// implementations: workflow context extraction, safe logging, heartbeats, and
// best-effort event emission that all work outside an activity context too.
package activity

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/activity"

	"github.com/marketlens/go-foresight/pkg/events"
)

// WorkflowContext carries the execution coordinates extracted from the
// Temporal activity context, with generated fallbacks for test scenarios.
type WorkflowContext struct {
	WorkflowID string
	RunID      string
	ActivityID string
}

// BaseActivities provides the common plumbing every activity package embeds:
// event emission and context extraction that degrade gracefully when no
// Temporal context or sink is present.
type BaseActivities struct {
	eventSink events.EventSink
}

// NewBaseActivities creates the shared base. A nil sink disables emission.
func NewBaseActivities(sink events.EventSink) BaseActivities {
	return BaseActivities{eventSink: sink}
}

// GetWorkflowContext extracts the workflow coordinates from the activity
// context. Outside a Temporal activity (unit tests calling the activity
// function directly) activity.GetInfo panics; the recover path substitutes
// stable test coordinates instead.
func (b *BaseActivities) GetWorkflowContext(ctx context.Context) WorkflowContext {
	var wfCtx WorkflowContext

	func() {
		defer func() {
			if r := recover(); r != nil {
				wfCtx.WorkflowID = "test-workflow"
				wfCtx.RunID = "test-run-" + uuid.New().String()[:8]
				wfCtx.ActivityID = "test-activity"
			}
		}()

		info := activity.GetInfo(ctx)
		wfCtx.WorkflowID = info.WorkflowExecution.ID
		wfCtx.RunID = info.WorkflowExecution.RunID
		wfCtx.ActivityID = info.ActivityID
	}()

	return wfCtx
}

// EmitEventSafe appends an event with a short retry and never propagates the
// error: events matter for projections and audit, not for correctness, so a
// failed emission must not fail the activity that produced it.
func (b *BaseActivities) EmitEventSafe(ctx context.Context, envelope events.Envelope, description string) {
	if b.eventSink == nil {
		return
	}

	const maxAttempts = 2
	const retryDelay = 200 * time.Millisecond

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(retryDelay):
			case <-ctx.Done():
				SafeLogError(ctx, fmt.Sprintf("event emission cancelled: %s", description),
					"event_type", envelope.Type)
				return
			}
		}

		if err := b.eventSink.Append(ctx, envelope); err != nil {
			lastErr = err
			continue
		}

		SafeLog(ctx, fmt.Sprintf("event emitted: %s", description),
			"event_type", envelope.Type,
			"idempotency_key", envelope.IdempotencyKey)
		return
	}

	SafeLogError(ctx, fmt.Sprintf("failed to emit %s after %d attempts", description, maxAttempts),
		"event_type", envelope.Type,
		"error", lastErr)
}

// RecordHeartbeat records an activity heartbeat, ignored outside an activity.
func (b *BaseActivities) RecordHeartbeat(ctx context.Context, details ...any) {
	RecordHeartbeat(ctx, details...)
}

// SafeLog logs through the activity logger when one is available and is a
// no-op in plain contexts, so activities can log freely in unit tests.
func SafeLog(ctx context.Context, msg string, keyvals ...any) {
	defer func() {
		_ = recover() // not an activity context
	}()
	activity.GetLogger(ctx).Info(msg, keyvals...)
}

// SafeLogError is SafeLog at error level.
func SafeLogError(ctx context.Context, msg string, keyvals ...any) {
	defer func() {
		_ = recover() // not an activity context
	}()
	activity.GetLogger(ctx).Error(msg, keyvals...)
}

// RecordHeartbeat heartbeats long activities, ignored outside an activity.
func RecordHeartbeat(ctx context.Context, details ...any) {
	defer func() {
		_ = recover() // not an activity context
	}()
	activity.RecordHeartbeat(ctx, details...)
}

// HeartbeatWhile invokes beat at every interval tick until the returned stop
// function is called or the context ends. Activities wrap blocking calls that
// outlive the workflow's heartbeat timeout with it so Temporal keeps seeing
// liveness. The stop function waits for the loop goroutine to exit, so no
// beat fires after it returns.
func HeartbeatWhile(ctx context.Context, interval time.Duration, beat func()) (stop func()) {
	stopCh := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				beat()
			case <-stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return func() {
		close(stopCh)
		<-done
	}
}
