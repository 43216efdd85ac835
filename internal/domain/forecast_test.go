package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForecastStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to ForecastStatus
		allowed  bool
	}{
		{StatusPending, StatusProcessing, true},
		{StatusPending, StatusFailed, true},
		{StatusPending, StatusCompleted, false},
		{StatusProcessing, StatusCompleted, true},
		{StatusProcessing, StatusFailed, true},
		{StatusProcessing, StatusPending, false},
		{StatusCompleted, StatusFailed, false},
		{StatusCompleted, StatusProcessing, false},
		{StatusFailed, StatusProcessing, false},
		{StatusFailed, StatusCompleted, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to),
			"%s → %s", tt.from, tt.to)
	}
}

func TestForecastRecordLifecycle(t *testing.T) {
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(95 * time.Second)

	rec := NewForecastRecord(uuid.New(), uuid.New())
	assert.Equal(t, StatusPending, rec.Status)

	require.NoError(t, rec.MarkProcessing(start))
	assert.Equal(t, StatusProcessing, rec.Status)
	assert.Equal(t, start, rec.ProcessingStartedAt)

	require.NoError(t, rec.Complete(end))
	assert.Equal(t, StatusCompleted, rec.Status)
	assert.InDelta(t, 95.0, rec.ProcessingDurationSeconds, 0.001)

	// Terminal states reject every further transition.
	err := rec.Fail(end, "too late")
	require.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, StatusCompleted, rec.Status)
	assert.Empty(t, rec.ErrorMessage)
}

func TestForecastRecordFail(t *testing.T) {
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	rec := NewForecastRecord(uuid.New(), uuid.New())
	require.NoError(t, rec.MarkProcessing(start))
	require.NoError(t, rec.Fail(start.Add(4*time.Second), "product analysis failed"))

	assert.Equal(t, StatusFailed, rec.Status)
	assert.Equal(t, "product analysis failed", rec.ErrorMessage)
	assert.InDelta(t, 4.0, rec.ProcessingDurationSeconds, 0.001)

	require.ErrorIs(t, rec.Complete(start.Add(time.Minute)), ErrInvalidTransition)
}

func TestForecastRecordCompleteRequiresProcessing(t *testing.T) {
	rec := NewForecastRecord(uuid.New(), uuid.New())
	require.ErrorIs(t, rec.Complete(time.Now()), ErrInvalidTransition)
}

func TestForecastRecordAttachReport(t *testing.T) {
	rec := NewForecastRecord(uuid.New(), uuid.New())

	rec.AttachReport(AnalysisResult{
		UnitName:  UnitProduct,
		Succeeded: true,
		Summary:   "strong demand",
		Payload:   Payload{"demand_analysis": map[string]any{"demand_score": 80.0}},
	})
	require.NotNil(t, rec.ProductAnalysis)
	assert.Equal(t, "strong demand", rec.ProductAnalysis.Summary)

	// Failed results leave the report field nil; that nil is how callers
	// detect a degraded forecast.
	rec.AttachReport(NewFailedResult(UnitAdvertising, "backend unavailable", time.Second))
	assert.Nil(t, rec.AdvertisingPlan)
}

func TestForecastRecordAddUsage(t *testing.T) {
	rec := NewForecastRecord(uuid.New(), uuid.New())

	rec.AddUsage(AnalysisResult{UnitName: UnitProduct, Succeeded: true, TokensUsed: 1200, CostUSD: 0.042})
	rec.AddUsage(AnalysisResult{UnitName: UnitMarket, Succeeded: true, TokensUsed: 800, CostUSD: 0.031})
	rec.AddUsage(NewFailedResult(UnitSales, "timeout", 2*time.Second))

	assert.Equal(t, int64(2000), rec.TokensUsed)
	assert.InDelta(t, 0.073, rec.CostUSD, 1e-9)
}

func TestForecastRequestValidate(t *testing.T) {
	valid := ForecastRequest{
		ForecastID: uuid.New(),
		Product:    Product{ID: uuid.New(), Name: "Trail Camera", Category: "electronics", BasePrice: 120},
		Cities:     []City{{ID: uuid.New(), Name: "Istanbul", Country: "TR"}},
		Config:     DefaultPipelineConfig(),
	}
	require.NoError(t, valid.Validate())

	noCities := valid
	noCities.Cities = nil
	require.ErrorIs(t, noCities.Validate(), ErrInvalidRequest)

	noName := valid
	noName.Product.Name = ""
	require.ErrorIs(t, noName.Validate(), ErrInvalidRequest)
}

func TestDefaultPipelineConfig(t *testing.T) {
	cfg := DefaultPipelineConfig()
	assert.Equal(t, 2*time.Minute, cfg.UnitTimeout)
	assert.Equal(t, 1, cfg.MaxUnitAttempts)
}
