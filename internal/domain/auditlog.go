package domain

import (
	"time"

	"github.com/google/uuid"
)

// maxAuditSummary bounds the output excerpt stored per execution so audit
// rows stay cheap to write and scan.
const maxAuditSummary = 500

// UnitLogEntry is the audit record of one unit execution: who ran, whether it
// worked, what it cost. One entry is appended per invocation, best-effort —
// audit failures never abort a run.
type UnitLogEntry struct {
	ID         uuid.UUID `json:"id" db:"id"`
	ForecastID uuid.UUID `json:"forecast_id" db:"forecast_id"`
	UnitName   UnitName  `json:"unit_name" db:"unit_name"`
	Status     string    `json:"status" db:"status"` // "completed" or "failed"
	Succeeded  bool      `json:"is_successful" db:"is_successful"`
	StartedAt  time.Time `json:"started_at" db:"started_at"`
	FinishedAt time.Time `json:"finished_at" db:"finished_at"`
	DurationMS int64     `json:"duration_ms" db:"duration_ms"`
	TokensUsed int64     `json:"tokens_used" db:"tokens_used"`
	CostUSD    float64   `json:"cost_usd" db:"cost_usd"`
	Model      string    `json:"model" db:"model"`
	Summary    string    `json:"summary" db:"summary"`
	Error      string    `json:"error_message,omitempty" db:"error_message"`
}

// NewUnitLogEntry derives the audit record for a finished unit execution,
// truncating the summary excerpt.
func NewUnitLogEntry(forecastID uuid.UUID, model string, startedAt time.Time, res AnalysisResult) UnitLogEntry {
	status := "completed"
	if !res.Succeeded {
		status = "failed"
	}
	summary := res.Summary
	if len(summary) > maxAuditSummary {
		summary = summary[:maxAuditSummary]
	}
	return UnitLogEntry{
		ID:         uuid.New(),
		ForecastID: forecastID,
		UnitName:   res.UnitName,
		Status:     status,
		Succeeded:  res.Succeeded,
		StartedAt:  startedAt,
		FinishedAt: startedAt.Add(time.Duration(res.DurationMS) * time.Millisecond),
		DurationMS: res.DurationMS,
		TokensUsed: res.TokensUsed,
		CostUSD:    res.CostUSD,
		Model:      model,
		Summary:    summary,
		Error:      res.Error,
	}
}
