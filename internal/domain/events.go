package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event type identifiers for routing and projections.
const (
	EventTypeUnitCompleted  = "analysis.unit_completed"
	EventTypeUnitUsage      = "analysis.unit_usage"
	EventTypeForecastScored = "forecast.scored"
)

// BaseEvent carries the metadata every pipeline event shares.
type BaseEvent struct {
	ID             uuid.UUID `json:"id"`
	EventType      string    `json:"event_type"`
	ForecastID     string    `json:"forecast_id"`
	WorkflowID     string    `json:"workflow_id"`
	RunID          string    `json:"run_id"`
	OccurredAt     time.Time `json:"occurred_at"`
	IdempotencyKey string    `json:"idempotency_key"`
}

// UnitCompletedEvent records one unit execution reaching a terminal state.
type UnitCompletedEvent struct {
	BaseEvent
	UnitName   UnitName `json:"unit_name"`
	Succeeded  bool     `json:"succeeded"`
	Confidence float64  `json:"confidence"`
	DurationMS int64    `json:"duration_ms"`
	TokensUsed int64    `json:"tokens_used"`
	CostUSD    float64  `json:"cost_usd"`
	Error      string   `json:"error,omitempty"`
}

// NewUnitCompletedEvent builds the completion event for a unit result with a
// deterministic idempotency key, so retried activity executions emit
// duplicates that downstream consumers can drop.
func NewUnitCompletedEvent(forecastID, workflowID, runID string, res AnalysisResult) UnitCompletedEvent {
	return UnitCompletedEvent{
		BaseEvent: BaseEvent{
			ID:             uuid.New(),
			EventType:      EventTypeUnitCompleted,
			ForecastID:     forecastID,
			WorkflowID:     workflowID,
			RunID:          runID,
			OccurredAt:     time.Now().UTC(),
			IdempotencyKey: idempotencyKey(EventTypeUnitCompleted, workflowID, string(res.UnitName)),
		},
		UnitName:   res.UnitName,
		Succeeded:  res.Succeeded,
		Confidence: res.Confidence,
		DurationMS: res.DurationMS,
		TokensUsed: res.TokensUsed,
		CostUSD:    res.CostUSD,
		Error:      res.Error,
	}
}

// ForecastScoredEvent records the scoring engine producing a final ScoreSet.
type ForecastScoredEvent struct {
	BaseEvent
	OverallScore     float64 `json:"overall_score"`
	DemandScore      float64 `json:"demand_score"`
	CompetitionIndex float64 `json:"competition_index"`
	RiskScore        float64 `json:"risk_score"`
	RankedCities     int     `json:"ranked_cities"`
}

// NewForecastScoredEvent builds the scoring event for a completed aggregation.
func NewForecastScoredEvent(forecastID, workflowID, runID string, scores ScoreSet) ForecastScoredEvent {
	return ForecastScoredEvent{
		BaseEvent: BaseEvent{
			ID:             uuid.New(),
			EventType:      EventTypeForecastScored,
			ForecastID:     forecastID,
			WorkflowID:     workflowID,
			RunID:          runID,
			OccurredAt:     time.Now().UTC(),
			IdempotencyKey: idempotencyKey(EventTypeForecastScored, workflowID, forecastID),
		},
		OverallScore:     scores.OverallScore,
		DemandScore:      scores.DemandScore,
		CompetitionIndex: scores.CompetitionIndex,
		RiskScore:        scores.RiskScore,
		RankedCities:     len(scores.CityRankings),
	}
}

// UsageIdempotencyKey derives the stable key for a unit usage event, so
// retried activity executions report consumption at most once per workflow.
func UsageIdempotencyKey(workflowID string, unit UnitName) string {
	return idempotencyKey(EventTypeUnitUsage, workflowID, string(unit))
}

// idempotencyKey derives a stable key from the event coordinates.
func idempotencyKey(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))[:32]
}

// String renders the event coordinates for logs.
func (e BaseEvent) String() string {
	return fmt.Sprintf("%s[forecast=%s wf=%s]", e.EventType, e.ForecastID, e.WorkflowID)
}
