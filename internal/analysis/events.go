package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/marketlens/go-foresight/internal/domain"
	"github.com/marketlens/go-foresight/pkg/activity"
	"github.com/marketlens/go-foresight/pkg/events"
)

// eventSource identifies this package as the emitting component.
const eventSource = "analysis-activity"

// unitUsageEvent aggregates the resource consumption of one unit execution.
// Emitted alongside the completion event whenever tokens were spent, so cost
// projections stay accurate even for runs whose output failed to parse.
type unitUsageEvent struct {
	UnitName   domain.UnitName `json:"unit_name"`
	Model      string          `json:"model,omitempty"`
	TokensUsed int64           `json:"tokens_used"`
	CostUSD    float64         `json:"cost_usd"`
	DurationMS int64           `json:"duration_ms"`
	Succeeded  bool            `json:"succeeded"`
}

// EventEmitter handles event emission for the analysis domain.
type EventEmitter struct {
	base activity.BaseActivities
}

// NewEventEmitter creates an EventEmitter with the provided base activities.
func NewEventEmitter(base activity.BaseActivities) *EventEmitter {
	return &EventEmitter{base: base}
}

// EmitUnitCompleted emits the terminal-state event for one unit execution.
// The idempotency key is derived from the workflow coordinates and unit name,
// so activity retries produce duplicates consumers can drop.
func (e *EventEmitter) EmitUnitCompleted(
	ctx context.Context,
	wfCtx activity.WorkflowContext,
	forecastID uuid.UUID,
	res domain.AnalysisResult,
) {
	event := domain.NewUnitCompletedEvent(forecastID.String(), wfCtx.WorkflowID, wfCtx.RunID, res)

	payload, err := json.Marshal(event)
	if err != nil {
		activity.SafeLogError(ctx, "Failed to marshal unit completion event",
			"unit", res.UnitName.String(),
			"error", err)
		return
	}

	envelope := events.Envelope{
		ID:             uuid.New().String(),
		Type:           domain.EventTypeUnitCompleted,
		Source:         eventSource,
		Version:        "1.0.0",
		Timestamp:      time.Now(),
		IdempotencyKey: event.IdempotencyKey,
		ForecastID:     forecastID.String(),
		WorkflowID:     wfCtx.WorkflowID,
		RunID:          wfCtx.RunID,
		Payload:        payload,
	}

	e.base.EmitEventSafe(ctx, envelope, fmt.Sprintf("UnitCompleted[%s]", res.UnitName))
}

// EmitUnitUsage emits the token and cost consumption of one unit execution.
func (e *EventEmitter) EmitUnitUsage(
	ctx context.Context,
	wfCtx activity.WorkflowContext,
	forecastID uuid.UUID,
	res domain.AnalysisResult,
) {
	event := unitUsageEvent{
		UnitName:   res.UnitName,
		TokensUsed: res.TokensUsed,
		CostUSD:    res.CostUSD,
		DurationMS: res.DurationMS,
		Succeeded:  res.Succeeded,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		activity.SafeLogError(ctx, "Failed to marshal unit usage event",
			"unit", res.UnitName.String(),
			"error", err)
		return
	}

	envelope := events.Envelope{
		ID:             uuid.New().String(),
		Type:           domain.EventTypeUnitUsage,
		Source:         eventSource,
		Version:        "1.0.0",
		Timestamp:      time.Now(),
		IdempotencyKey: domain.UsageIdempotencyKey(wfCtx.WorkflowID, res.UnitName),
		ForecastID:     forecastID.String(),
		WorkflowID:     wfCtx.WorkflowID,
		RunID:          wfCtx.RunID,
		Payload:        payload,
	}

	e.base.EmitEventSafe(ctx, envelope, fmt.Sprintf("UnitUsage[%s]", res.UnitName))
}
