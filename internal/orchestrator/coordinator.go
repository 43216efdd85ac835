// Package orchestrator owns the caller-facing forecast lifecycle: load the
// request's inputs, persist the record at every lifecycle transition, hand
// the pipeline to the workflow runner, and persist whatever terminal state
// comes back.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/marketlens/go-foresight/internal/domain"
	"github.com/marketlens/go-foresight/internal/persistence"
)

// WorkflowRunner executes the forecast pipeline to a terminal record.
// The Temporal-backed implementation lives in this package; tests substitute
// scripted runners.
type WorkflowRunner interface {
	Run(ctx context.Context, req domain.ForecastRequest) (*domain.ForecastRecord, error)
}

// CreateForecastInput identifies what to forecast and how.
type CreateForecastInput struct {
	ForecastID uuid.UUID             `json:"forecast_id"`
	ProductID  uuid.UUID             `json:"product_id"`
	CityIDs    []uuid.UUID           `json:"city_ids"`
	Config     domain.PipelineConfig `json:"config"`
}

// Coordinator drives one forecast run end to end. Persistence failures are
// infrastructure errors and propagate; pipeline failures are business
// outcomes carried inside the returned result.
type Coordinator struct {
	store  persistence.Store
	runner WorkflowRunner
	logger zerolog.Logger
	now    func() time.Time
}

// NewCoordinator creates a coordinator over the given store and runner.
func NewCoordinator(store persistence.Store, runner WorkflowRunner, logger zerolog.Logger) *Coordinator {
	return &Coordinator{store: store, runner: runner, logger: logger, now: time.Now}
}

// CreateForecast runs the full pipeline for a product against a set of
// candidate cities.
//
// The record is persisted pending before the pipeline starts and again at
// processing, so an operator can see in-flight runs; the terminal record
// replaces it when the workflow returns. Input errors (unknown product,
// unknown city, invalid config) surface as ErrInvalidRequest-wrapped errors
// before anything is persisted.
func (c *Coordinator) CreateForecast(ctx context.Context, in CreateForecastInput) (*domain.CreateForecastResult, error) {
	if in.ForecastID == uuid.Nil {
		in.ForecastID = uuid.New()
	}
	if in.Config == (domain.PipelineConfig{}) {
		in.Config = domain.DefaultPipelineConfig()
	}

	product, err := c.store.LoadProduct(ctx, in.ProductID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return nil, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
		}
		return nil, fmt.Errorf("load product: %w", err)
	}
	cities, err := c.store.LoadCities(ctx, in.CityIDs)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return nil, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
		}
		return nil, fmt.Errorf("load cities: %w", err)
	}

	req := domain.ForecastRequest{
		ForecastID: in.ForecastID,
		Product:    product,
		Cities:     cities,
		Config:     in.Config,
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	record := domain.NewForecastRecord(req.ForecastID, product.ID)
	if err := c.store.CreateForecast(ctx, record); err != nil {
		return nil, fmt.Errorf("persist pending forecast: %w", err)
	}
	if err := record.MarkProcessing(c.now()); err != nil {
		return nil, err
	}
	if err := c.store.UpdateForecast(ctx, record); err != nil {
		return nil, fmt.Errorf("persist processing forecast: %w", err)
	}

	c.logger.Info().
		Str("forecast_id", req.ForecastID.String()).
		Str("product", product.Name).
		Int("cities", len(cities)).
		Msg("forecast pipeline starting")

	terminal, err := c.runner.Run(ctx, req)
	if err != nil {
		// The pipeline never reported back: record the infrastructure
		// failure so the run is not stuck in processing forever.
		if failErr := record.Fail(c.now(), "pipeline execution failed: "+err.Error()); failErr == nil {
			if updateErr := c.store.UpdateForecast(ctx, record); updateErr != nil {
				c.logger.Error().Err(updateErr).
					Str("forecast_id", req.ForecastID.String()).
					Msg("failed to persist failed forecast")
			}
		}
		return nil, fmt.Errorf("run forecast pipeline: %w", err)
	}

	if err := c.store.UpdateForecast(ctx, terminal); err != nil {
		return nil, fmt.Errorf("persist terminal forecast: %w", err)
	}

	result := &domain.CreateForecastResult{
		Success:  terminal.Status == domain.StatusCompleted,
		Forecast: terminal,
	}
	if terminal.Status == domain.StatusFailed {
		result.Error = terminal.ErrorMessage
	}

	c.logger.Info().
		Str("forecast_id", req.ForecastID.String()).
		Str("status", string(terminal.Status)).
		Int64("tokens_used", terminal.TokensUsed).
		Float64("cost_usd", terminal.CostUSD).
		Msg("forecast pipeline finished")
	return result, nil
}

// GetForecast fetches a forecast record by ID.
func (c *Coordinator) GetForecast(ctx context.Context, id uuid.UUID) (*domain.ForecastRecord, error) {
	return c.store.GetForecast(ctx, id)
}
