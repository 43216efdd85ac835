// Package worker wires the forecast pipeline onto a Temporal worker: it
// builds the activity implementations from their dependencies and registers
// them together with the workflow under the names the workflow resolves.
package worker

import (
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/marketlens/go-foresight/internal/aggregation"
	"github.com/marketlens/go-foresight/internal/analysis"
	"github.com/marketlens/go-foresight/internal/llm"
	"github.com/marketlens/go-foresight/internal/units"
	"github.com/marketlens/go-foresight/internal/workflow"
	pkgactivity "github.com/marketlens/go-foresight/pkg/activity"
	"github.com/marketlens/go-foresight/pkg/events"
)

// Deps carries everything the worker's activities need.
type Deps struct {
	// Runner executes unit invocations against the model backend.
	Runner analysis.UnitRunner

	// EventSink receives pipeline events; nil disables emission.
	EventSink events.EventSink
}

// New creates a Temporal worker with the full pipeline registered on the
// given task queue.
func New(c client.Client, taskQueue string, deps Deps) worker.Worker {
	w := worker.New(c, taskQueue, worker.Options{})
	RegisterAll(w, deps)
	return w
}

// RegisterAll registers the forecast workflow and all six activities.
// Activity names must stay in sync with the workflow's activity constants.
func RegisterAll(w worker.Worker, deps Deps) {
	base := pkgactivity.NewBaseActivities(deps.EventSink)
	unitActs := analysis.NewActivities(base, deps.Runner)
	aggActs := aggregation.NewActivities(base)

	w.RegisterWorkflow(workflow.ForecastWorkflow)

	register := func(name string, fn any) {
		w.RegisterActivityWithOptions(fn, activity.RegisterOptions{Name: name})
	}
	register(workflow.ActivityAnalyzeProduct, unitActs.AnalyzeProduct)
	register(workflow.ActivityProfileMarket, unitActs.ProfileMarket)
	register(workflow.ActivityPlanAdvertising, unitActs.PlanAdvertising)
	register(workflow.ActivityAdviseSupplyChain, unitActs.AdviseSupplyChain)
	register(workflow.ActivityPlanSalesStrategy, unitActs.PlanSalesStrategy)
	register(workflow.ActivityAggregateForecast, aggActs.AggregateForecast)
}

// NewRunner assembles the unit runner over the full registry. Convenience
// for the CLI so wiring lives next to registration.
func NewRunner(client llm.Client, cfg units.RunnerConfig, opts ...units.RunnerOption) *units.Runner {
	return units.NewRunner(client, units.NewRegistry(), cfg, opts...)
}
