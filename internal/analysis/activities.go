// Package analysis implements the Temporal activities that run the five
// analysis units of the forecast pipeline. Each activity wraps one unit
// execution: validate the request, call the model backend through the unit
// runner, emit completion and usage events, and return the result envelope.
package analysis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/temporal"

	"github.com/marketlens/go-foresight/internal/domain"
	"github.com/marketlens/go-foresight/internal/units"
	"github.com/marketlens/go-foresight/pkg/activity"
)

// heartbeatInterval must stay well below the workflow's heartbeat timeout.
// Variable so tests can shorten it.
var heartbeatInterval = 10 * time.Second

// recordBeat is swapped in tests to observe the heartbeat loop.
var recordBeat = activity.RecordHeartbeat

// UnitRunner executes one analysis unit invocation. Satisfied by
// *units.Runner; abstracted so tests can substitute scripted executions.
type UnitRunner interface {
	Run(ctx context.Context, forecastID uuid.UUID, req domain.AnalysisRequest) (domain.AnalysisResult, error)
}

var _ UnitRunner = (*units.Runner)(nil)

// UnitInput is the activity payload for every unit activity: which forecast
// the execution belongs to and the unit request to run.
type UnitInput struct {
	ForecastID uuid.UUID              `json:"forecast_id"`
	Request    domain.AnalysisRequest `json:"request"`
}

// Activities handles the unit-execution Temporal activities. It encapsulates
// the unit runner and event emission; one instance serves all five units.
type Activities struct {
	activity.BaseActivities
	runner UnitRunner
	events *EventEmitter
}

// NewActivities creates unit activities with the provided dependencies.
func NewActivities(base activity.BaseActivities, runner UnitRunner) *Activities {
	return &Activities{
		BaseActivities: base,
		runner:         runner,
		events:         NewEventEmitter(base),
	}
}

// AnalyzeProduct runs the product analysis unit.
func (a *Activities) AnalyzeProduct(ctx context.Context, in UnitInput) (*domain.AnalysisResult, error) {
	return a.run(ctx, domain.UnitProduct, in)
}

// ProfileMarket runs the market profiling unit.
func (a *Activities) ProfileMarket(ctx context.Context, in UnitInput) (*domain.AnalysisResult, error) {
	return a.run(ctx, domain.UnitMarket, in)
}

// PlanAdvertising runs the advertising planning unit.
func (a *Activities) PlanAdvertising(ctx context.Context, in UnitInput) (*domain.AnalysisResult, error) {
	return a.run(ctx, domain.UnitAdvertising, in)
}

// AdviseSupplyChain runs the supply chain advisory unit.
func (a *Activities) AdviseSupplyChain(ctx context.Context, in UnitInput) (*domain.AnalysisResult, error) {
	return a.run(ctx, domain.UnitSupplyChain, in)
}

// PlanSalesStrategy runs the sales strategy unit.
func (a *Activities) PlanSalesStrategy(ctx context.Context, in UnitInput) (*domain.AnalysisResult, error) {
	return a.run(ctx, domain.UnitSales, in)
}

// run executes one unit invocation. Malformed requests fail the activity
// with a non-retryable error; backend and parse failures come back inside
// the result envelope so the workflow can apply its partial-failure policy
// instead of Temporal retrying a call that already consumed tokens.
func (a *Activities) run(ctx context.Context, unit domain.UnitName, in UnitInput) (*domain.AnalysisResult, error) {
	tag := "Unit:" + unit.String()

	if in.Request.Unit != unit {
		return nil, nonRetryable(tag, domain.ErrInvalidRequest, "request unit does not match activity")
	}
	if in.ForecastID == uuid.Nil {
		return nil, nonRetryable(tag, domain.ErrInvalidRequest, "missing forecast id")
	}

	wfCtx := a.GetWorkflowContext(ctx)
	activity.SafeLog(ctx, "Starting unit activity",
		"unit", unit.String(),
		"forecast_id", in.ForecastID.String(),
		"workflow_id", wfCtx.WorkflowID)

	// The backend call can run for the whole unit timeout; beat well inside
	// the 30s heartbeat window the workflow configures so Temporal does not
	// time the activity out mid-call.
	recordBeat(ctx, "calling backend")
	stopBeat := activity.HeartbeatWhile(ctx, heartbeatInterval, func() {
		recordBeat(ctx, "calling backend")
	})
	res, err := a.runner.Run(ctx, in.ForecastID, in.Request)
	stopBeat()
	if err != nil {
		// The runner only errors on malformed requests; retrying cannot help.
		return nil, nonRetryable(tag, err, "invalid unit request")
	}

	a.events.EmitUnitCompleted(ctx, wfCtx, in.ForecastID, res)
	if res.TokensUsed > 0 {
		a.events.EmitUnitUsage(ctx, wfCtx, in.ForecastID, res)
	}

	activity.SafeLog(ctx, "Unit activity finished",
		"unit", unit.String(),
		"succeeded", res.Succeeded,
		"tokens_used", res.TokensUsed,
		"cost_usd", res.CostUSD)
	return &res, nil
}

// nonRetryable wraps an error as a Temporal non-retryable application error.
// Used for validation and usage errors where retry would always fail.
func nonRetryable(tag string, cause error, msg string) error {
	return temporal.NewNonRetryableApplicationError(msg, tag, cause)
}
