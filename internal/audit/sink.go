package audit

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/marketlens/go-foresight/internal/domain"
	"github.com/marketlens/go-foresight/internal/persistence"
)

// Sink records one entry per unit execution. Satisfies units.AuditRecorder.
type Sink interface {
	Record(ctx context.Context, entry domain.UnitLogEntry) error
}

// StoreSink writes audit rows through the persistence layer and updates the
// pipeline metrics. Metric updates happen even when the database write fails,
// so observability degrades independently of storage.
type StoreSink struct {
	store   persistence.Store
	metrics *Metrics
	logger  zerolog.Logger
}

// NewStoreSink creates a sink over the given store. Metrics may be nil to
// disable instrumentation.
func NewStoreSink(store persistence.Store, metrics *Metrics, logger zerolog.Logger) *StoreSink {
	return &StoreSink{store: store, metrics: metrics, logger: logger}
}

// Record implements Sink.
func (s *StoreSink) Record(ctx context.Context, entry domain.UnitLogEntry) error {
	if s.metrics != nil {
		unit := entry.UnitName.String()
		s.metrics.UnitExecutions.WithLabelValues(unit, entry.Status).Inc()
		s.metrics.UnitDuration.WithLabelValues(unit).Observe(float64(entry.DurationMS) / 1000)
		if entry.TokensUsed > 0 {
			s.metrics.TokensConsumed.WithLabelValues(unit).Add(float64(entry.TokensUsed))
		}
		if entry.CostUSD > 0 {
			s.metrics.CostUSD.WithLabelValues(unit).Add(entry.CostUSD)
		}
	}

	if err := s.store.AppendUnitLog(ctx, entry); err != nil {
		s.logger.Warn().Err(err).
			Str("unit", entry.UnitName.String()).
			Str("forecast_id", entry.ForecastID.String()).
			Msg("audit row write failed")
		return fmt.Errorf("append unit log: %w", err)
	}
	return nil
}

// NopSink discards every entry. Used when auditing is disabled.
type NopSink struct{}

// Record implements Sink and always succeeds.
func (NopSink) Record(_ context.Context, _ domain.UnitLogEntry) error { return nil }
