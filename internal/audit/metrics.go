// Package audit persists per-unit execution records and exposes the
// pipeline's Prometheus metrics.
package audit

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus instruments the pipeline reports into.
type Metrics struct {
	// UnitExecutions counts unit runs by unit name and terminal status.
	UnitExecutions *prometheus.CounterVec

	// UnitDuration observes wall-clock unit execution time in seconds.
	UnitDuration *prometheus.HistogramVec

	// TokensConsumed counts model tokens spent per unit.
	TokensConsumed *prometheus.CounterVec

	// CostUSD accumulates model spend per unit in US dollars.
	CostUSD *prometheus.CounterVec
}

// NewMetrics creates the pipeline metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		UnitExecutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "foresight_unit_executions_total",
				Help: "Unit executions by unit name and terminal status",
			},
			[]string{"unit", "status"},
		),
		UnitDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "foresight_unit_duration_seconds",
				Help:    "Wall-clock duration of unit executions in seconds",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			},
			[]string{"unit"},
		),
		TokensConsumed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "foresight_unit_tokens_total",
				Help: "Model tokens consumed per unit",
			},
			[]string{"unit"},
		),
		CostUSD: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "foresight_unit_cost_usd_total",
				Help: "Model spend per unit in US dollars",
			},
			[]string{"unit"},
		),
	}
}

// Register registers every instrument on the given registry.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		m.UnitExecutions,
		m.UnitDuration,
		m.TokensConsumed,
		m.CostUSD,
	} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
