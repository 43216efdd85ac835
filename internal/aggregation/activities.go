// Package aggregation implements the Temporal activity that folds the unit
// results of a forecast run into the final deterministic score set. Scoring
// is pure arithmetic over the product and market payloads; this package
// supplies the activity plumbing and event emission around it.
package aggregation

import (
	"context"

	"github.com/google/uuid"
	"go.temporal.io/sdk/temporal"

	"github.com/marketlens/go-foresight/internal/domain"
	"github.com/marketlens/go-foresight/pkg/activity"
)

// AggregateInput carries the payloads scoring consumes. ProductPayload and
// MarketPayload are the successful envelopes of the two required units;
// Cities is the candidate list the forecast was requested against.
type AggregateInput struct {
	ForecastID     uuid.UUID      `json:"forecast_id"`
	ProductPayload domain.Payload `json:"product_payload"`
	MarketPayload  domain.Payload `json:"market_payload"`
	Cities         []domain.City  `json:"cities"`
}

// Activities handles the scoring Temporal activity.
type Activities struct {
	activity.BaseActivities
	events *EventEmitter
}

// NewActivities creates aggregation activities with the provided base.
func NewActivities(base activity.BaseActivities) *Activities {
	return &Activities{
		BaseActivities: base,
		events:         NewEventEmitter(base),
	}
}

// AggregateForecast computes the forecast's score set from the required unit
// payloads. The computation is deterministic: any retry over the same inputs
// yields the same scores, so the activity is safe to re-execute. Inputs are
// validated structurally only; missing metric paths inside the payloads fall
// back to the documented neutral defaults rather than failing the run.
func (a *Activities) AggregateForecast(ctx context.Context, in AggregateInput) (*domain.ScoreSet, error) {
	const tag = "AggregateForecast"

	if in.ForecastID == uuid.Nil {
		return nil, nonRetryable(tag, domain.ErrInvalidRequest, "missing forecast id")
	}
	if len(in.ProductPayload) == 0 {
		return nil, nonRetryable(tag, domain.ErrInvalidRequest, "missing product payload")
	}
	if len(in.MarketPayload) == 0 {
		return nil, nonRetryable(tag, domain.ErrInvalidRequest, "missing market payload")
	}

	wfCtx := a.GetWorkflowContext(ctx)
	activity.SafeLog(ctx, "Starting forecast aggregation",
		"forecast_id", in.ForecastID.String(),
		"cities", len(in.Cities))

	scores := domain.ComputeForecastScores(in.ProductPayload, in.MarketPayload, in.Cities)
	if err := scores.Validate(); err != nil {
		// Clamping keeps every derived score inside its range; a violation
		// here means the formulas and the bounds disagree.
		return nil, nonRetryable(tag, err, "computed scores out of range")
	}

	a.events.EmitForecastScored(ctx, wfCtx, in.ForecastID, scores)

	activity.SafeLog(ctx, "Forecast aggregation finished",
		"forecast_id", in.ForecastID.String(),
		"overall_score", scores.OverallScore,
		"ranked_cities", len(scores.CityRankings))
	return &scores, nil
}

func nonRetryable(tag string, cause error, msg string) error {
	return temporal.NewNonRetryableApplicationError(msg, tag, cause)
}
