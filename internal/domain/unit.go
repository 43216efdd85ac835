// Package domain holds the pure types and algorithms of the forecasting
// pipeline: analysis unit contracts, the forecast lifecycle, and the scoring
// engine. Nothing in this package performs I/O; orchestration and backend
// access live in the activity and workflow packages.
package domain

import (
	"fmt"
	"time"
)

// UnitName identifies one of the five analysis unit variants.
type UnitName string

const (
	// UnitProduct classifies the product: quality tier, demand potential, market fit.
	UnitProduct UnitName = "product_analyst"

	// UnitMarket profiles and ranks the target cities for the product.
	UnitMarket UnitName = "market_profiler"

	// UnitAdvertising plans channel mix and campaign structure for the top market.
	UnitAdvertising UnitName = "advertising_planner"

	// UnitSupplyChain advises on sourcing, production method, and logistics.
	UnitSupplyChain UnitName = "supply_chain_advisor"

	// UnitSales recommends marketplaces, funnel design, and conversion tactics.
	UnitSales UnitName = "sales_strategy"
)

// AllUnits lists the five variants in pipeline order: the two required stages
// first, then the three parallel advisory units.
func AllUnits() []UnitName {
	return []UnitName{UnitProduct, UnitMarket, UnitAdvertising, UnitSupplyChain, UnitSales}
}

// String returns the unit name string.
func (u UnitName) String() string { return string(u) }

// IsValid reports whether the name is one of the five known variants.
func (u UnitName) IsValid() bool {
	switch u {
	case UnitProduct, UnitMarket, UnitAdvertising, UnitSupplyChain, UnitSales:
		return true
	}
	return false
}

// Required reports whether a unit failure is fatal to the whole forecast.
// Product and Market are required stages; the advisory units are optional.
func (u UnitName) Required() bool { return u == UnitProduct || u == UnitMarket }

// AnalysisRequest is the structured input for one unit invocation. It is
// built by the coordinator, owned transiently for the duration of the call,
// and treated as immutable once built.
type AnalysisRequest struct {
	// Unit names the variant this request targets.
	Unit UnitName `json:"unit" validate:"required"`

	// Fields carries the unit-specific named inputs (strings, numbers,
	// nested mappings and sequences). Each variant declares its own minimal
	// required fields and validates them before any backend call.
	Fields Payload `json:"fields"`
}

// Validate checks the request against the operation contract.
func (r *AnalysisRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	if !r.Unit.IsValid() {
		return fmt.Errorf("%w: %q", ErrUnknownUnit, r.Unit)
	}
	return nil
}

// AnalysisResult is the uniform envelope returned by every unit execution.
// Failures are values: a unit that could not produce a payload reports
// Succeeded=false with Error set, and the envelope still carries the timing
// and usage the run consumed.
//
// Invariant: exactly one of (Payload populated, Error empty) or
// (Payload empty, Error set) holds. Validate enforces it.
type AnalysisResult struct {
	// UnitName identifies which variant produced this result.
	UnitName UnitName `json:"unit_name" validate:"required"`

	// Succeeded reports whether the unit produced a usable payload.
	Succeeded bool `json:"succeeded"`

	// Payload is the unit-specific JSON-shaped output. Empty on failure.
	Payload Payload `json:"payload,omitempty"`

	// Summary is a short human-readable digest derived from Payload.
	Summary string `json:"summary,omitempty"`

	// ReasoningTrace lists the key derivations in order.
	ReasoningTrace []string `json:"reasoning_trace,omitempty"`

	// Confidence is the unit's self-reported confidence in [0,100].
	Confidence float64 `json:"confidence" validate:"min=0,max=100"`

	// DurationMS is the wall-clock execution time in milliseconds.
	DurationMS int64 `json:"duration_ms" validate:"min=0"`

	// TokensUsed counts prompt plus completion tokens for the backend call.
	TokensUsed int64 `json:"tokens_used" validate:"min=0"`

	// CostUSD is the backend cost attributed to this invocation.
	CostUSD float64 `json:"cost_usd" validate:"min=0"`

	// Error carries the failure description. Set iff Succeeded is false.
	Error string `json:"error,omitempty"`
}

// Validate checks the envelope structure and its success/failure invariant.
func (r *AnalysisResult) Validate() error {
	if err := validate.Struct(r); err != nil {
		return err
	}
	if r.Succeeded == (r.Error != "") {
		return ErrResultInvariant
	}
	if !r.Succeeded && len(r.Payload) > 0 {
		return ErrResultInvariant
	}
	return nil
}

// NewFailedResult builds a failure envelope for a unit, preserving whatever
// duration was spent before the failure. Used both by the unit runner and by
// the coordinator when an optional-stage task errors at the scheduling layer.
func NewFailedResult(unit UnitName, cause string, elapsed time.Duration) AnalysisResult {
	return AnalysisResult{
		UnitName:   unit,
		Succeeded:  false,
		Summary:    fmt.Sprintf("%s failed: %s", unit, cause),
		DurationMS: elapsed.Milliseconds(),
		Error:      cause,
	}
}
