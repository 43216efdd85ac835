// Package units implements the five analysis unit variants of the forecast
// pipeline. Each unit shares one contract — build a prompt, run it through the
// model client, shape the structured output — and differs only in prompt
// construction and expected schema. The runner owns the shared execution path.
package units

import (
	"fmt"

	"github.com/marketlens/go-foresight/internal/domain"
)

// Unit is the capability contract every analysis variant implements.
type Unit interface {
	// Name returns the variant identifier.
	Name() domain.UnitName

	// SystemPrompt returns the role instructions for the model.
	SystemPrompt() string

	// BuildUserPrompt validates the variant's required input fields and
	// renders the user prompt. A missing required field is a caller error
	// wrapping domain.ErrInvalidRequest.
	BuildUserPrompt(fields domain.Payload) (string, error)

	// Summarize derives the short human-readable digest from the payload.
	Summarize(payload domain.Payload) string

	// ReasoningTrace lists the unit's key derivations from the payload,
	// in order, for audit and debugging.
	ReasoningTrace(payload domain.Payload) []string

	// Temperature and MaxTokens tune the generation call per variant.
	Temperature() float64
	MaxTokens() int64
}

// Registry maps unit names to implementations.
type Registry map[domain.UnitName]Unit

// NewRegistry builds the registry of all five variants.
func NewRegistry() Registry {
	units := []Unit{
		NewProductUnit(),
		NewMarketUnit(),
		NewAdvertisingUnit(),
		NewSupplyChainUnit(),
		NewSalesUnit(),
	}
	reg := make(Registry, len(units))
	for _, u := range units {
		reg[u.Name()] = u
	}
	return reg
}

// Get returns the unit for a name, or domain.ErrUnknownUnit.
func (r Registry) Get(name domain.UnitName) (Unit, error) {
	u, ok := r[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownUnit, name)
	}
	return u, nil
}

// requireFields checks that every named field is present and non-empty,
// reporting the first gap as an invalid-request error.
func requireFields(fields domain.Payload, names ...string) error {
	for _, name := range names {
		v, ok := fields[name]
		if !ok || v == nil {
			return fmt.Errorf("%w: missing required field %q", domain.ErrInvalidRequest, name)
		}
		if s, isStr := v.(string); isStr && s == "" {
			return fmt.Errorf("%w: required field %q is empty", domain.ErrInvalidRequest, name)
		}
	}
	return nil
}
