package analysis

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/temporal"

	"github.com/marketlens/go-foresight/internal/domain"
	"github.com/marketlens/go-foresight/pkg/activity"
	"github.com/marketlens/go-foresight/pkg/events"
)

// scriptedRunner returns a fixed result or error per unit name, optionally
// blocking for delay first to simulate a slow backend.
type scriptedRunner struct {
	mu      sync.Mutex
	calls   []domain.AnalysisRequest
	results map[domain.UnitName]domain.AnalysisResult
	errs    map[domain.UnitName]error
	delay   time.Duration
}

func (s *scriptedRunner) Run(_ context.Context, _ uuid.UUID, req domain.AnalysisRequest) (domain.AnalysisResult, error) {
	s.mu.Lock()
	s.calls = append(s.calls, req)
	s.mu.Unlock()
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if err, ok := s.errs[req.Unit]; ok {
		return domain.AnalysisResult{}, err
	}
	return s.results[req.Unit], nil
}

// capturingSink records every appended envelope, thread-safe.
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

func (c *capturingSink) byType(eventType string) []events.Envelope {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []events.Envelope
	for _, e := range c.envelopes {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

func successResult(unit domain.UnitName) domain.AnalysisResult {
	return domain.AnalysisResult{
		UnitName:   unit,
		Succeeded:  true,
		Payload:    domain.Payload{"demand_analysis": map[string]any{"demand_score": 70.0}},
		Summary:    "looks viable",
		Confidence: 80,
		DurationMS: 1200,
		TokensUsed: 2100,
		CostUSD:    0.033,
	}
}

func TestAnalyzeProduct_EmitsCompletionAndUsage(t *testing.T) {
	sink := &capturingSink{}
	runner := &scriptedRunner{results: map[domain.UnitName]domain.AnalysisResult{
		domain.UnitProduct: successResult(domain.UnitProduct),
	}}
	acts := NewActivities(activity.NewBaseActivities(sink), runner)

	res, err := acts.AnalyzeProduct(context.Background(), UnitInput{
		ForecastID: uuid.New(),
		Request: domain.AnalysisRequest{
			Unit:   domain.UnitProduct,
			Fields: domain.Payload{"product_name": "Trail Camera"},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.True(t, res.Succeeded)
	assert.Equal(t, int64(2100), res.TokensUsed)

	completed := sink.byType(domain.EventTypeUnitCompleted)
	require.Len(t, completed, 1)
	assert.Equal(t, "analysis-activity", completed[0].Source)
	assert.NotEmpty(t, completed[0].IdempotencyKey)

	usage := sink.byType(domain.EventTypeUnitUsage)
	require.Len(t, usage, 1)
}

func TestUnitActivity_FailedEnvelopeStillSucceedsActivity(t *testing.T) {
	sink := &capturingSink{}
	runner := &scriptedRunner{results: map[domain.UnitName]domain.AnalysisResult{
		domain.UnitAdvertising: domain.NewFailedResult(domain.UnitAdvertising, "backend unavailable", 3*time.Second),
	}}
	acts := NewActivities(activity.NewBaseActivities(sink), runner)

	res, err := acts.PlanAdvertising(context.Background(), UnitInput{
		ForecastID: uuid.New(),
		Request: domain.AnalysisRequest{
			Unit:   domain.UnitAdvertising,
			Fields: domain.Payload{"product_name": "Trail Camera", "product_category": "electronics", "price": 120.0},
		},
	})
	require.NoError(t, err, "partial failure is the workflow's call, not a Temporal retry")
	assert.False(t, res.Succeeded)
	assert.Equal(t, "backend unavailable", res.Error)

	// Nothing was consumed, so no usage event.
	assert.Len(t, sink.byType(domain.EventTypeUnitUsage), 0)
	assert.Len(t, sink.byType(domain.EventTypeUnitCompleted), 1)
}

func TestUnitActivity_InvalidRequestIsNonRetryable(t *testing.T) {
	runner := &scriptedRunner{errs: map[domain.UnitName]error{
		domain.UnitProduct: domain.ErrInvalidRequest,
	}}
	acts := NewActivities(activity.NewBaseActivities(events.NewNoOpEventSink()), runner)

	_, err := acts.AnalyzeProduct(context.Background(), UnitInput{
		ForecastID: uuid.New(),
		Request:    domain.AnalysisRequest{Unit: domain.UnitProduct, Fields: domain.Payload{}},
	})
	require.Error(t, err)

	var appErr *temporal.ApplicationError
	require.ErrorAs(t, err, &appErr)
	assert.True(t, appErr.NonRetryable())
}

func TestUnitActivity_RejectsMismatchedUnit(t *testing.T) {
	runner := &scriptedRunner{}
	acts := NewActivities(activity.NewBaseActivities(events.NewNoOpEventSink()), runner)

	_, err := acts.ProfileMarket(context.Background(), UnitInput{
		ForecastID: uuid.New(),
		Request:    domain.AnalysisRequest{Unit: domain.UnitProduct},
	})
	require.Error(t, err)
	assert.Empty(t, runner.calls, "mismatch is caught before execution")
}

func TestUnitActivity_RequiresForecastID(t *testing.T) {
	runner := &scriptedRunner{}
	acts := NewActivities(activity.NewBaseActivities(events.NewNoOpEventSink()), runner)

	_, err := acts.PlanSalesStrategy(context.Background(), UnitInput{
		Request: domain.AnalysisRequest{Unit: domain.UnitSales},
	})
	require.Error(t, err)
}

func TestUnitActivity_HeartbeatsDuringSlowBackendCall(t *testing.T) {
	oldInterval, oldBeat := heartbeatInterval, recordBeat
	defer func() { heartbeatInterval, recordBeat = oldInterval, oldBeat }()

	var beats atomic.Int64
	heartbeatInterval = 2 * time.Millisecond
	recordBeat = func(context.Context, ...any) { beats.Add(1) }

	runner := &scriptedRunner{
		delay: 40 * time.Millisecond,
		results: map[domain.UnitName]domain.AnalysisResult{
			domain.UnitProduct: successResult(domain.UnitProduct),
		},
	}
	acts := NewActivities(activity.NewBaseActivities(events.NewNoOpEventSink()), runner)

	_, err := acts.AnalyzeProduct(context.Background(), UnitInput{
		ForecastID: uuid.New(),
		Request:    domain.AnalysisRequest{Unit: domain.UnitProduct, Fields: domain.Payload{"product_name": "Trail Camera"}},
	})
	require.NoError(t, err)

	// One beat up front plus ticks for the whole blocking call, and the loop
	// is stopped once the call returns.
	assert.GreaterOrEqual(t, beats.Load(), int64(3))
	after := beats.Load()
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, after, beats.Load())
}

func TestUsageIdempotencyKey_StableAcrossRetries(t *testing.T) {
	k1 := domain.UsageIdempotencyKey("wf-1", domain.UnitProduct)
	k2 := domain.UsageIdempotencyKey("wf-1", domain.UnitProduct)
	k3 := domain.UsageIdempotencyKey("wf-2", domain.UnitProduct)
	assert.Equal(t, k1, k2)
	assert.NotEqual(t, k1, k3)
}
