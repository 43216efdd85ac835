package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ForecastStatus tracks a forecast through its lifecycle.
type ForecastStatus string

const (
	// StatusPending marks a forecast that has been requested but not started.
	StatusPending ForecastStatus = "pending"

	// StatusProcessing marks a forecast whose pipeline is running.
	StatusProcessing ForecastStatus = "processing"

	// StatusCompleted marks a forecast whose scoring finished, possibly with
	// optional-stage gaps.
	StatusCompleted ForecastStatus = "completed"

	// StatusFailed marks a forecast whose required stage (product or market)
	// failed after exhausting its attempts.
	StatusFailed ForecastStatus = "failed"
)

// CanTransitionTo reports whether the lifecycle permits moving to next.
// Pending → Processing → {Completed | Failed}; terminal states never move.
func (s ForecastStatus) CanTransitionTo(next ForecastStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusProcessing || next == StatusFailed
	case StatusProcessing:
		return next == StatusCompleted || next == StatusFailed
	default:
		return false
	}
}

// PipelineConfig carries the caller-tunable knobs of one pipeline run.
type PipelineConfig struct {
	// UnitTimeout bounds each unit invocation. A timed-out unit is treated
	// identically to a failed unit at its stage's required/optional class.
	UnitTimeout time.Duration `json:"unit_timeout" validate:"required,min=1000000000"`

	// MaxUnitAttempts is the per-unit attempt count, an extension point over
	// the base design. 1 means no retries.
	MaxUnitAttempts int `json:"max_unit_attempts" validate:"min=1,max=10"`
}

// DefaultPipelineConfig returns the base-design knobs: a two-minute unit
// timeout and no retries.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{UnitTimeout: 2 * time.Minute, MaxUnitAttempts: 1}
}

// ForecastRequest is the input of one coordinator run.
type ForecastRequest struct {
	ForecastID uuid.UUID      `json:"forecast_id" validate:"required"`
	Product    Product        `json:"product" validate:"required"`
	Cities     []City         `json:"cities" validate:"required,min=1"`
	Config     PipelineConfig `json:"config" validate:"required"`
}

// Validate checks the request against the operation contract.
func (r *ForecastRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	if err := r.Product.Validate(); err != nil {
		return fmt.Errorf("%w: product: %w", ErrInvalidRequest, err)
	}
	return nil
}

// UnitReport is the summary/payload pair a completed unit contributes to the
// forecast record. Nil reports mark units that failed or never ran.
type UnitReport struct {
	Summary string  `json:"summary"`
	Payload Payload `json:"payload"`
}

// ForecastRecord is the aggregate produced by one coordinator run. The
// coordinator owns it exclusively for the duration of the run and hands it to
// the persistence collaborator at a terminal state.
type ForecastRecord struct {
	ID        uuid.UUID      `json:"id" db:"id"`
	ProductID uuid.UUID      `json:"product_id" db:"product_id"`
	Status    ForecastStatus `json:"status" db:"status"`

	// ErrorMessage summarizes the required-stage failure on a failed forecast.
	ErrorMessage string `json:"error_message,omitempty" db:"error_message"`

	// Per-unit reports, each independently nil when that unit failed.
	ProductAnalysis *UnitReport `json:"product_analysis,omitempty"`
	MarketAnalysis  *UnitReport `json:"market_analysis,omitempty"`
	AdvertisingPlan *UnitReport `json:"advertising_plan,omitempty"`
	SupplyChainPlan *UnitReport `json:"supply_chain_plan,omitempty"`
	SalesStrategy   *UnitReport `json:"sales_strategy,omitempty"`

	// Scores holds the scoring-engine output once the run completes.
	Scores *ScoreSet `json:"scores,omitempty"`

	// Aggregate usage across all succeeded units.
	TokensUsed int64   `json:"tokens_used" db:"tokens_used"`
	CostUSD    float64 `json:"cost_usd" db:"cost_usd"`

	ProcessingStartedAt       time.Time `json:"processing_started_at,omitempty" db:"processing_started_at"`
	ProcessingCompletedAt     time.Time `json:"processing_completed_at,omitempty" db:"processing_completed_at"`
	ProcessingDurationSeconds float64   `json:"processing_duration_seconds" db:"processing_duration_seconds"`
}

// NewForecastRecord creates a pending record for a product.
func NewForecastRecord(id, productID uuid.UUID) *ForecastRecord {
	return &ForecastRecord{ID: id, ProductID: productID, Status: StatusPending}
}

// MarkProcessing transitions the record to processing and stamps the start time.
func (f *ForecastRecord) MarkProcessing(now time.Time) error {
	if !f.Status.CanTransitionTo(StatusProcessing) {
		return fmt.Errorf("%w: %s → %s", ErrInvalidTransition, f.Status, StatusProcessing)
	}
	f.Status = StatusProcessing
	f.ProcessingStartedAt = now
	return nil
}

// Complete transitions the record to completed and stamps the wall-clock span.
func (f *ForecastRecord) Complete(now time.Time) error {
	if !f.Status.CanTransitionTo(StatusCompleted) {
		return fmt.Errorf("%w: %s → %s", ErrInvalidTransition, f.Status, StatusCompleted)
	}
	f.Status = StatusCompleted
	f.ProcessingCompletedAt = now
	if !f.ProcessingStartedAt.IsZero() {
		f.ProcessingDurationSeconds = now.Sub(f.ProcessingStartedAt).Seconds()
	}
	return nil
}

// Fail transitions the record to failed with a human-readable message.
func (f *ForecastRecord) Fail(now time.Time, msg string) error {
	if !f.Status.CanTransitionTo(StatusFailed) {
		return fmt.Errorf("%w: %s → %s", ErrInvalidTransition, f.Status, StatusFailed)
	}
	f.Status = StatusFailed
	f.ErrorMessage = msg
	f.ProcessingCompletedAt = now
	if !f.ProcessingStartedAt.IsZero() {
		f.ProcessingDurationSeconds = now.Sub(f.ProcessingStartedAt).Seconds()
	}
	return nil
}

// AttachReport stores a succeeded unit's report on the matching field.
// Failed results attach nothing: downstream consumers detect degraded runs by
// the nil report.
func (f *ForecastRecord) AttachReport(res AnalysisResult) {
	if !res.Succeeded {
		return
	}
	report := &UnitReport{Summary: res.Summary, Payload: res.Payload}
	switch res.UnitName {
	case UnitProduct:
		f.ProductAnalysis = report
	case UnitMarket:
		f.MarketAnalysis = report
	case UnitAdvertising:
		f.AdvertisingPlan = report
	case UnitSupplyChain:
		f.SupplyChainPlan = report
	case UnitSales:
		f.SalesStrategy = report
	}
}

// AddUsage accumulates a succeeded unit's token and cost usage. Failed units
// contribute nothing to the aggregate.
func (f *ForecastRecord) AddUsage(res AnalysisResult) {
	if !res.Succeeded {
		return
	}
	f.TokensUsed += res.TokensUsed
	f.CostUSD += res.CostUSD
}

// CreateForecastResult is the caller-facing outcome of one coordinator run.
type CreateForecastResult struct {
	Success  bool            `json:"success"`
	Forecast *ForecastRecord `json:"forecast_data,omitempty"`
	Error    string          `json:"error,omitempty"`
}
