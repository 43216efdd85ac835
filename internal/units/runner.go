package units

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/marketlens/go-foresight/internal/domain"
	"github.com/marketlens/go-foresight/internal/llm"
)

// AuditRecorder receives one log entry per unit execution. Recording is
// best-effort: implementations must not block the pipeline, and the runner
// ignores recording failures.
type AuditRecorder interface {
	Record(ctx context.Context, entry domain.UnitLogEntry) error
}

// RunnerConfig fixes the backend coordinates every unit call uses.
type RunnerConfig struct {
	Provider string
	Model    string
	Timeout  time.Duration
}

// Runner owns the shared execution path of all unit variants: validate, build
// the prompt, call the backend, shape the envelope. Backend and parse
// failures become failed result envelopes; only malformed requests surface as
// errors to the caller.
type Runner struct {
	client   llm.Client
	registry Registry
	cfg      RunnerConfig
	audit    AuditRecorder
	logger   zerolog.Logger
}

// RunnerOption customizes a Runner.
type RunnerOption func(*Runner)

// WithAuditRecorder attaches best-effort execution logging.
func WithAuditRecorder(rec AuditRecorder) RunnerOption {
	return func(r *Runner) { r.audit = rec }
}

// WithLogger attaches a structured logger.
func WithLogger(logger zerolog.Logger) RunnerOption {
	return func(r *Runner) { r.logger = logger }
}

// NewRunner creates a runner over the given client and unit registry.
func NewRunner(client llm.Client, registry Registry, cfg RunnerConfig, opts ...RunnerOption) *Runner {
	r := &Runner{
		client:   client,
		registry: registry,
		cfg:      cfg,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes one unit invocation. The returned error is non-nil only for
// malformed requests (unknown unit, missing required fields), which are
// usage errors the caller must propagate unchanged. Everything the backend
// or parser gets wrong comes back inside a failed AnalysisResult instead.
func (r *Runner) Run(ctx context.Context, forecastID uuid.UUID, req domain.AnalysisRequest) (domain.AnalysisResult, error) {
	if err := req.Validate(); err != nil {
		return domain.AnalysisResult{}, err
	}
	unit, err := r.registry.Get(req.Unit)
	if err != nil {
		return domain.AnalysisResult{}, err
	}
	userPrompt, err := unit.BuildUserPrompt(req.Fields)
	if err != nil {
		return domain.AnalysisResult{}, err
	}

	start := time.Now()
	resp, err := r.client.Generate(ctx, &llm.Request{
		Provider:       r.cfg.Provider,
		Model:          r.cfg.Model,
		SystemPrompt:   unit.SystemPrompt(),
		UserPrompt:     userPrompt,
		MaxTokens:      unit.MaxTokens(),
		Temperature:    unit.Temperature(),
		WantStructured: true,
		Timeout:        r.cfg.Timeout,
		IdempotencyKey: fmt.Sprintf("%s/%s", forecastID, req.Unit),
		Metadata: map[string]string{
			"unit":        req.Unit.String(),
			"forecast_id": forecastID.String(),
		},
	})
	if err != nil {
		return r.finish(ctx, forecastID, start, domain.NewFailedResult(req.Unit, err.Error(), time.Since(start))), nil
	}

	payload, parseErr := ParsePayload(resp.Content)
	if parseErr != nil {
		res := domain.NewFailedResult(req.Unit, parseErr.Error(), time.Since(start))
		res.TokensUsed = resp.Usage.TotalTokens
		res.CostUSD = resp.CostUSD
		return r.finish(ctx, forecastID, start, res), nil
	}

	res := domain.AnalysisResult{
		UnitName:       req.Unit,
		Succeeded:      true,
		Payload:        payload,
		Summary:        unit.Summarize(payload),
		ReasoningTrace: unit.ReasoningTrace(payload),
		Confidence:     boundedConfidence(payload),
		DurationMS:     time.Since(start).Milliseconds(),
		TokensUsed:     resp.Usage.TotalTokens,
		CostUSD:        resp.CostUSD,
	}
	return r.finish(ctx, forecastID, start, res), nil
}

// finish records the audit entry and logs the outcome, both best-effort.
func (r *Runner) finish(ctx context.Context, forecastID uuid.UUID, start time.Time, res domain.AnalysisResult) domain.AnalysisResult {
	if r.audit != nil {
		entry := domain.NewUnitLogEntry(forecastID, r.cfg.Model, start, res)
		if err := r.audit.Record(ctx, entry); err != nil {
			r.logger.Warn().Err(err).
				Str("unit", res.UnitName.String()).
				Msg("audit record failed")
		}
	}

	evt := r.logger.Info()
	if !res.Succeeded {
		evt = r.logger.Warn().Str("error", res.Error)
	}
	evt.
		Str("unit", res.UnitName.String()).
		Str("forecast_id", forecastID.String()).
		Bool("succeeded", res.Succeeded).
		Int64("duration_ms", res.DurationMS).
		Int64("tokens_used", res.TokensUsed).
		Float64("cost_usd", res.CostUSD).
		Msg("unit execution finished")
	return res
}

// boundedConfidence reads the unit's self-reported confidence, clamped to
// [0,100] with a 75 default.
func boundedConfidence(payload domain.Payload) float64 {
	c := payload.Float("confidence_score", 75)
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}
