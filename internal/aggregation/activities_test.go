package aggregation

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/temporal"

	"github.com/marketlens/go-foresight/internal/domain"
	"github.com/marketlens/go-foresight/pkg/activity"
	"github.com/marketlens/go-foresight/pkg/events"
)

type capturingSink struct {
	mu        sync.Mutex
	envelopes []events.Envelope
}

func (c *capturingSink) Append(_ context.Context, envelope events.Envelope) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.envelopes = append(c.envelopes, envelope)
	return nil
}

func validInput() AggregateInput {
	return AggregateInput{
		ForecastID: uuid.New(),
		ProductPayload: domain.Payload{
			"demand_analysis":    map[string]any{"demand_score": 74.0},
			"quality_assessment": map[string]any{"quality_score": 82.0, "quality_tier": "premium"},
			"market_fit":         map[string]any{"market_fit_score": 68.0},
			"pricing_analysis":   map[string]any{"optimal_price_range": "40-80 USD"},
		},
		MarketPayload: domain.Payload{
			"city_rankings": []any{
				map[string]any{
					"city_name":                "Istanbul",
					"competition_score":        40.0,
					"purchasing_power_score":   65.0,
					"ecommerce_readiness_score": 72.0,
					"demographic_match_score":  70.0,
					"estimated_market_size":    "large",
					"average_competitor_price": 55.0,
				},
			},
			"overall_market_assessment": map[string]any{
				"market_maturity":  "growing",
				"entry_difficulty": "moderate",
			},
		},
		Cities: []domain.City{{Name: "Istanbul", Country: "Turkey"}},
	}
}

func TestAggregateForecast_ComputesAndEmits(t *testing.T) {
	sink := &capturingSink{}
	acts := NewActivities(activity.NewBaseActivities(sink))

	scores, err := acts.AggregateForecast(context.Background(), validInput())
	require.NoError(t, err)
	require.NotNil(t, scores)

	assert.Greater(t, scores.OverallScore, 0.0)
	assert.LessOrEqual(t, scores.OverallScore, 100.0)
	assert.Len(t, scores.CityRankings, 1)
	require.NoError(t, scores.Validate())

	require.Len(t, sink.envelopes, 1)
	assert.Equal(t, domain.EventTypeForecastScored, sink.envelopes[0].Type)
	assert.Equal(t, "aggregation-activity", sink.envelopes[0].Source)
	assert.NotEmpty(t, sink.envelopes[0].IdempotencyKey)
}

func TestAggregateForecast_Deterministic(t *testing.T) {
	acts := NewActivities(activity.NewBaseActivities(events.NewNoOpEventSink()))
	in := validInput()

	first, err := acts.AggregateForecast(context.Background(), in)
	require.NoError(t, err)
	second, err := acts.AggregateForecast(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, *first, *second)
}

func TestAggregateForecast_ValidatesInput(t *testing.T) {
	acts := NewActivities(activity.NewBaseActivities(events.NewNoOpEventSink()))

	tests := []struct {
		name   string
		mutate func(*AggregateInput)
	}{
		{"missing forecast id", func(in *AggregateInput) { in.ForecastID = uuid.Nil }},
		{"missing product payload", func(in *AggregateInput) { in.ProductPayload = nil }},
		{"missing market payload", func(in *AggregateInput) { in.MarketPayload = domain.Payload{} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)
			_, err := acts.AggregateForecast(context.Background(), in)
			require.Error(t, err)

			var appErr *temporal.ApplicationError
			require.ErrorAs(t, err, &appErr)
			assert.True(t, appErr.NonRetryable())
		})
	}
}
