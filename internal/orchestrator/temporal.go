package orchestrator

import (
	"context"
	"fmt"

	"go.temporal.io/sdk/client"

	"github.com/marketlens/go-foresight/internal/domain"
	"github.com/marketlens/go-foresight/internal/workflow"
)

// TemporalRunner executes the forecast workflow on a Temporal cluster.
type TemporalRunner struct {
	client    client.Client
	taskQueue string
}

// NewTemporalRunner wraps a connected Temporal client.
func NewTemporalRunner(c client.Client, taskQueue string) *TemporalRunner {
	return &TemporalRunner{client: c, taskQueue: taskQueue}
}

// Run implements WorkflowRunner. The workflow ID is derived from the forecast
// ID, so resubmitting the same forecast reuses the running execution instead
// of starting a duplicate pipeline.
func (r *TemporalRunner) Run(ctx context.Context, req domain.ForecastRequest) (*domain.ForecastRecord, error) {
	options := client.StartWorkflowOptions{
		ID:        "forecast-" + req.ForecastID.String(),
		TaskQueue: r.taskQueue,
	}

	run, err := r.client.ExecuteWorkflow(ctx, options, workflow.ForecastWorkflow, req)
	if err != nil {
		return nil, fmt.Errorf("start forecast workflow: %w", err)
	}

	var record domain.ForecastRecord
	if err := run.Get(ctx, &record); err != nil {
		return nil, fmt.Errorf("await forecast workflow: %w", err)
	}
	return &record, nil
}

var _ WorkflowRunner = (*TemporalRunner)(nil)
