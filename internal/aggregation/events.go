package aggregation

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/marketlens/go-foresight/internal/domain"
	"github.com/marketlens/go-foresight/pkg/activity"
	"github.com/marketlens/go-foresight/pkg/events"
)

const eventSource = "aggregation-activity"

// EventEmitter handles event emission for the aggregation domain.
type EventEmitter struct {
	base activity.BaseActivities
}

// NewEventEmitter creates an EventEmitter with the provided base activities.
func NewEventEmitter(base activity.BaseActivities) *EventEmitter {
	return &EventEmitter{base: base}
}

// EmitForecastScored emits the terminal scoring event for a forecast run.
func (e *EventEmitter) EmitForecastScored(
	ctx context.Context,
	wfCtx activity.WorkflowContext,
	forecastID uuid.UUID,
	scores domain.ScoreSet,
) {
	event := domain.NewForecastScoredEvent(forecastID.String(), wfCtx.WorkflowID, wfCtx.RunID, scores)

	payload, err := json.Marshal(event)
	if err != nil {
		activity.SafeLogError(ctx, "Failed to marshal forecast scored event",
			"forecast_id", forecastID.String(),
			"error", err)
		return
	}

	envelope := events.Envelope{
		ID:             uuid.New().String(),
		Type:           domain.EventTypeForecastScored,
		Source:         eventSource,
		Version:        "1.0.0",
		Timestamp:      time.Now(),
		IdempotencyKey: event.IdempotencyKey,
		ForecastID:     forecastID.String(),
		WorkflowID:     wfCtx.WorkflowID,
		RunID:          wfCtx.RunID,
		Payload:        payload,
	}

	e.base.EmitEventSafe(ctx, envelope, "ForecastScored")
}
