package units

import (
	"fmt"
	"strings"

	"github.com/marketlens/go-foresight/internal/domain"
)

// maxPromptCities bounds how many city records the prompt carries.
const maxPromptCities = 20

// MarketUnit profiles and ranks the target cities for the product: purchasing
// power, e-commerce readiness, competition, and demographic match. It is the
// required second stage; scoring reads its ranked output directly.
type MarketUnit struct{}

// NewMarketUnit creates the market profiling unit.
func NewMarketUnit() *MarketUnit { return &MarketUnit{} }

// Name returns the variant identifier.
func (u *MarketUnit) Name() domain.UnitName { return domain.UnitMarket }

// Temperature returns the generation temperature.
func (u *MarketUnit) Temperature() float64 { return 0.6 }

// MaxTokens returns the generation token budget.
func (u *MarketUnit) MaxTokens() int64 { return 3500 }

// SystemPrompt returns the profiler role instructions.
func (u *MarketUnit) SystemPrompt() string {
	return `You are an expert Market Analysis and Demographics AI specializing in:
- Urban economics and city demographics
- E-commerce adoption and digital behavior patterns
- Purchasing power analysis and consumer spending
- Competitive market dynamics
- Cultural factors affecting commerce

Analyze cities as markets and provide insights about demographic match,
economic indicators, e-commerce penetration, competitive density, cultural
fit, entry barriers, and city rankings. Provide numerical scores (0-100) for
all metrics with clear reasoning.

Respond in structured JSON format.`
}

// BuildUserPrompt renders the market prompt. product_category and at least
// one city are required.
func (u *MarketUnit) BuildUserPrompt(fields domain.Payload) (string, error) {
	if err := requireFields(fields, "product_category"); err != nil {
		return "", err
	}
	cities := fields.Objects("cities")
	if len(cities) == 0 {
		return "", fmt.Errorf("%w: at least one city is required", domain.ErrInvalidRequest)
	}
	if len(cities) > maxPromptCities {
		cities = cities[:maxPromptCities]
	}

	return fmt.Sprintf(`Analyze these cities as potential markets for a %s product priced at $%.2f.

**Product Context:**
- Category: %s
- Price Point: $%.2f
- Target Demographics: %v

**Cities to Analyze:**
%s

Provide comprehensive market analysis in JSON format:

{
  "overall_market_assessment": {"market_size_estimate": "string", "growth_rate": "percentage", "market_maturity": "emerging|growing|mature|saturated", "entry_difficulty": "easy|moderate|challenging"},
  "city_rankings": [{"city_name": "string", "country": "string", "overall_score": 0-100, "demographic_match_score": 0-100, "purchasing_power_score": 0-100, "ecommerce_readiness_score": 0-100, "competition_score": 0-100, "estimated_market_size": "small|medium|large|very large", "average_competitor_price": number, "key_advantages": ["..."], "key_challenges": ["..."]}],
  "demographic_insights": {"ideal_customer_profile": "string", "age_groups": ["..."], "income_brackets": ["..."]},
  "competitive_landscape": {"competition_intensity": "low|moderate|high|very high", "market_gaps": ["..."], "differentiation_strategies": ["..."]},
  "risk_assessment": [{"risk": "string", "severity": "high|medium|low", "mitigation": "string"}],
  "confidence_score": 0-100,
  "analysis_summary": "string"
}

Rank cities by overall market potential, best first. Be realistic and data-driven.`,
		fields.String("product_category", ""),
		fields.Float("price_point", 0),
		fields.String("product_category", ""),
		fields.Float("price_point", 0),
		fields["target_demographics"],
		formatCities(cities),
	), nil
}

// Summarize digests the market maturity, top city, and competition findings.
func (u *MarketUnit) Summarize(payload domain.Payload) string {
	assessment := payload.Map("overall_market_assessment")
	rankings := payload.Objects("city_rankings")

	var b strings.Builder
	fmt.Fprintf(&b, "Market maturity: %s, entry %s. ",
		assessment.String("market_maturity", "unknown"),
		assessment.String("entry_difficulty", "unknown"))
	if len(rankings) > 0 {
		fmt.Fprintf(&b, "Top market: %s (%s/100). ",
			rankings[0].String("city_name", "unknown"),
			formatScore(rankings[0].Float("overall_score", 0)))
	}
	fmt.Fprintf(&b, "Competition: %s.",
		payload.Map("competitive_landscape").String("competition_intensity", "unknown"))
	return b.String()
}

// ReasoningTrace lists the key market derivations in order.
func (u *MarketUnit) ReasoningTrace(payload domain.Payload) []string {
	rankings := payload.Objects("city_rankings")
	topCity := "none ranked"
	if len(rankings) > 0 {
		topCity = fmt.Sprintf("%s (score %s/100)",
			rankings[0].String("city_name", "unknown"),
			formatScore(rankings[0].Float("overall_score", 0)))
	}
	return []string{
		fmt.Sprintf("ranked %d cities by market potential", len(rankings)),
		fmt.Sprintf("top city: %s", topCity),
		fmt.Sprintf("market maturity: %s",
			payload.Map("overall_market_assessment").String("market_maturity", "unknown")),
		fmt.Sprintf("competition intensity: %s",
			payload.Map("competitive_landscape").String("competition_intensity", "unknown")),
	}
}

// formatCities renders one prompt line per city with its economic indicators.
func formatCities(cities []domain.Payload) string {
	lines := make([]string, 0, len(cities))
	for _, c := range cities {
		lines = append(lines, fmt.Sprintf(
			"- %s, %s: population %.0f, GDP per capita $%.0f, purchasing power index %.1f, e-commerce penetration %.1f%%, competition density %.1f",
			c.String("name", "unknown"),
			c.String("country", ""),
			c.Float("population", 0),
			c.Float("gdp_per_capita", 0),
			c.Float("purchasing_power_index", 0),
			c.Float("ecommerce_penetration", 0),
			c.Float("competition_density", 0),
		))
	}
	return strings.Join(lines, "\n")
}
