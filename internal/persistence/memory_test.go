package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketlens/go-foresight/internal/domain"
)

func TestMemoryStore_ProductsAndCities(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	product := domain.Product{ID: uuid.New(), Name: "Trail Camera", BasePrice: 120}
	store.PutProduct(product)

	got, err := store.LoadProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, product, got)

	_, err = store.LoadProduct(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	istanbul := domain.City{ID: uuid.New(), Name: "Istanbul"}
	lisbon := domain.City{ID: uuid.New(), Name: "Lisbon"}
	store.PutCity(istanbul)
	store.PutCity(lisbon)

	// Unfiltered load returns insertion order.
	all, err := store.LoadCities(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Istanbul", all[0].Name)

	// Filtered load preserves the requested order.
	ordered, err := store.LoadCities(ctx, []uuid.UUID{lisbon.ID, istanbul.ID})
	require.NoError(t, err)
	require.Len(t, ordered, 2)
	assert.Equal(t, "Lisbon", ordered[0].Name)

	_, err = store.LoadCities(ctx, []uuid.UUID{uuid.New()})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_ForecastLifecycle(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	record := domain.NewForecastRecord(uuid.New(), uuid.New())
	require.NoError(t, store.CreateForecast(ctx, record))
	require.Error(t, store.CreateForecast(ctx, record), "duplicate create is rejected")

	require.NoError(t, record.MarkProcessing(time.Now()))
	require.NoError(t, store.UpdateForecast(ctx, record))

	got, err := store.GetForecast(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusProcessing, got.Status)

	// The store hands out copies: mutating the returned record does not
	// affect stored state.
	got.Status = domain.StatusFailed
	again, err := store.GetForecast(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusProcessing, again.Status)

	orphan := domain.NewForecastRecord(uuid.New(), uuid.New())
	assert.ErrorIs(t, store.UpdateForecast(ctx, orphan), ErrNotFound)
	_, err = store.GetForecast(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_UnitLogs(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	forecastID := uuid.New()
	res := domain.AnalysisResult{
		UnitName:   domain.UnitProduct,
		Succeeded:  true,
		Payload:    domain.Payload{"demand_analysis": map[string]any{"demand_score": 70.0}},
		Summary:    "fine",
		TokensUsed: 1200,
		CostUSD:    0.02,
	}
	entry := domain.NewUnitLogEntry(forecastID, "gpt-4o", time.Now(), res)
	require.NoError(t, store.AppendUnitLog(ctx, entry))

	logs := store.UnitLogs()
	require.Len(t, logs, 1)
	assert.Equal(t, forecastID, logs[0].ForecastID)
	assert.Equal(t, "completed", logs[0].Status)
	assert.Equal(t, int64(1200), logs[0].TokensUsed)
}
