package llm

import (
	"fmt"
	"math"
	"sync"
)

// Default per-million-token rates applied when a model has no explicit entry.
const (
	defaultPromptCostPerMillion     = 10.0
	defaultCompletionCostPerMillion = 30.0
)

// PricingEntry holds the USD rates for one provider/model pair, expressed per
// one million tokens the way providers publish them.
type PricingEntry struct {
	Provider                string  `json:"provider" yaml:"provider"`
	Model                   string  `json:"model" yaml:"model"`
	PromptCostPerMillion    float64 `json:"prompt_cost_per_million" yaml:"prompt_cost_per_million"`
	CompletionCostPerMillion float64 `json:"completion_cost_per_million" yaml:"completion_cost_per_million"`
}

// Calculate computes the call cost in USD, rounded to six decimal places so
// aggregation across units stays stable.
func (p PricingEntry) Calculate(usage NormalizedUsage) float64 {
	cost := float64(usage.PromptTokens)*p.PromptCostPerMillion/1e6 +
		float64(usage.CompletionTokens)*p.CompletionCostPerMillion/1e6
	return math.Round(cost*1e6) / 1e6
}

// PricingRegistry estimates the cost of provider calls. Missing entries fall
// back to the default rates rather than failing: the pipeline treats cost as
// attribution metadata, never as an admission gate.
type PricingRegistry struct {
	mu      sync.RWMutex
	entries map[string]PricingEntry
}

// NewPricingRegistry creates a registry seeded with the given entries.
func NewPricingRegistry(entries []PricingEntry) *PricingRegistry {
	r := &PricingRegistry{entries: make(map[string]PricingEntry, len(entries))}
	for _, e := range entries {
		r.entries[pricingKey(e.Provider, e.Model)] = e
	}
	return r
}

// Cost returns the USD cost of one call.
func (r *PricingRegistry) Cost(provider, model string, usage NormalizedUsage) float64 {
	r.mu.RLock()
	entry, ok := r.entries[pricingKey(provider, model)]
	r.mu.RUnlock()
	if !ok {
		entry = PricingEntry{
			PromptCostPerMillion:     defaultPromptCostPerMillion,
			CompletionCostPerMillion: defaultCompletionCostPerMillion,
		}
	}
	return entry.Calculate(usage)
}

// Update replaces or inserts a pricing entry.
func (r *PricingRegistry) Update(entry PricingEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[pricingKey(entry.Provider, entry.Model)] = entry
}

func pricingKey(provider, model string) string {
	return fmt.Sprintf("%s/%s", provider, model)
}
