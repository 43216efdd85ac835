package audit

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/uuid"

	"github.com/marketlens/go-foresight/internal/domain"
	"github.com/marketlens/go-foresight/internal/persistence"
)

func sampleEntry(succeeded bool) domain.UnitLogEntry {
	res := domain.AnalysisResult{
		UnitName:   domain.UnitProduct,
		Succeeded:  succeeded,
		DurationMS: 1500,
		TokensUsed: 2000,
		CostUSD:    0.03,
	}
	if succeeded {
		res.Payload = domain.Payload{"demand_analysis": map[string]any{"demand_score": 70.0}}
		res.Summary = "fine"
	} else {
		res.Error = "backend unavailable"
	}
	return domain.NewUnitLogEntry(uuid.New(), "gpt-4o", time.Now(), res)
}

func TestStoreSink_PersistsAndCounts(t *testing.T) {
	store := persistence.NewMemoryStore()
	metrics := NewMetrics()
	reg := prometheus.NewRegistry()
	require.NoError(t, metrics.Register(reg))

	sink := NewStoreSink(store, metrics, zerolog.Nop())

	require.NoError(t, sink.Record(context.Background(), sampleEntry(true)))
	require.NoError(t, sink.Record(context.Background(), sampleEntry(false)))

	logs := store.UnitLogs()
	require.Len(t, logs, 2)

	completed := testutil.ToFloat64(metrics.UnitExecutions.WithLabelValues("product_analyst", "completed"))
	failed := testutil.ToFloat64(metrics.UnitExecutions.WithLabelValues("product_analyst", "failed"))
	assert.Equal(t, 1.0, completed)
	assert.Equal(t, 1.0, failed)

	tokens := testutil.ToFloat64(metrics.TokensConsumed.WithLabelValues("product_analyst"))
	assert.Equal(t, 4000.0, tokens)

	cost := testutil.ToFloat64(metrics.CostUSD.WithLabelValues("product_analyst"))
	assert.InDelta(t, 0.06, cost, 1e-9)
}

func TestStoreSink_NilMetrics(t *testing.T) {
	store := persistence.NewMemoryStore()
	sink := NewStoreSink(store, nil, zerolog.Nop())
	require.NoError(t, sink.Record(context.Background(), sampleEntry(true)))
	assert.Len(t, store.UnitLogs(), 1)
}

func TestNopSink(t *testing.T) {
	assert.NoError(t, NopSink{}.Record(context.Background(), sampleEntry(true)))
}
