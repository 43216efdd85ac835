package units

import (
	"fmt"
	"strings"

	"github.com/marketlens/go-foresight/internal/domain"
)

// ProductUnit classifies the product: category fit, quality tier, demand
// potential, production method, market fit, and pricing posture. It is the
// required first stage; everything downstream consumes its payload.
type ProductUnit struct{}

// NewProductUnit creates the product analysis unit.
func NewProductUnit() *ProductUnit { return &ProductUnit{} }

// Name returns the variant identifier.
func (u *ProductUnit) Name() domain.UnitName { return domain.UnitProduct }

// Temperature returns the generation temperature.
func (u *ProductUnit) Temperature() float64 { return 0.7 }

// MaxTokens returns the generation token budget.
func (u *ProductUnit) MaxTokens() int64 { return 3000 }

// SystemPrompt returns the analyst role instructions.
func (u *ProductUnit) SystemPrompt() string {
	return `You are an expert Product Analyst AI with deep knowledge of:
- E-commerce product categorization and market dynamics
- Quality assessment and manufacturing processes
- Contract manufacturing production methods
- Consumer demand patterns and product-market fit
- Competitive product positioning

Analyze products and provide detailed insights about classification, quality
tier (premium, standard, budget), production complexity, demand potential
scoring (0-100), market fit, unique selling propositions, and target customer
segments. Always provide clear reasoning, numerical scores with explanations,
and risk factors.

Respond in JSON format with structured data.`
}

// BuildUserPrompt renders the analysis prompt. product_name is required.
func (u *ProductUnit) BuildUserPrompt(fields domain.Payload) (string, error) {
	if err := requireFields(fields, "product_name"); err != nil {
		return "", err
	}

	return fmt.Sprintf(`Analyze this product comprehensively:

**Product Information:**
- Name: %s
- Description: %s
- Category: %s
- Base Price: $%.2f
- Production Method: %s
- Specifications: %v

Provide a detailed analysis in JSON format with this exact structure:

{
  "product_classification": {"primary_category": "string", "sub_category": "string", "market_segment": "premium|mid-tier|budget"},
  "quality_assessment": {"quality_tier": "premium|standard|budget", "quality_score": 0-100, "quality_indicators": ["..."], "perceived_value": "high|medium|low"},
  "demand_analysis": {"demand_score": 0-100, "demand_trend": "rising|stable|declining", "seasonality": "high|moderate|low", "target_demographics": ["..."], "demand_drivers": ["..."]},
  "production_analysis": {"production_complexity": "simple|moderate|complex", "recommended_method": "in-house|contract|dropshipping|hybrid", "estimated_production_cost_range": "min-max USD", "lead_time_estimate": "X-Y days"},
  "market_fit": {"market_fit_score": 0-100, "competitive_intensity": "low|medium|high", "differentiation_potential": 0-100, "unique_selling_points": ["..."]},
  "pricing_analysis": {"price_positioning": "premium|competitive|value", "price_elasticity": "elastic|neutral|inelastic", "optimal_price_range": "min-max USD", "profit_margin_potential": "percentage range"},
  "risk_factors": [{"risk": "string", "severity": "high|medium|low", "mitigation": "string"}],
  "opportunities": ["..."],
  "recommendations": ["..."],
  "confidence_score": 0-100,
  "reasoning": "detailed explanation"
}

Be thorough, analytical, and data-driven in your assessment.`,
		fields.String("product_name", ""),
		fields.String("description", ""),
		fields.String("category", ""),
		fields.Float("base_price", 0),
		fields.String("production_method", "not specified"),
		fields["specifications"],
	), nil
}

// Summarize digests the quality, demand, fit, and production findings.
func (u *ProductUnit) Summarize(payload domain.Payload) string {
	quality := payload.Map("quality_assessment").String("quality_tier", "unknown")
	demand := payload.Map("demand_analysis").Float("demand_score", 0)
	fit := payload.Map("market_fit").Float("market_fit_score", 0)
	method := payload.Map("production_analysis").String("recommended_method", "unknown")

	var b strings.Builder
	fmt.Fprintf(&b, "Quality: %s tier. ", quality)
	fmt.Fprintf(&b, "Demand potential %s/100 (%s). ", formatScore(demand), demandLabel(demand))
	fmt.Fprintf(&b, "Market fit %s/100. ", formatScore(fit))
	fmt.Fprintf(&b, "Recommended production: %s.", method)
	return b.String()
}

// ReasoningTrace lists the key product derivations in order.
func (u *ProductUnit) ReasoningTrace(payload domain.Payload) []string {
	return []string{
		fmt.Sprintf("classified product as %s",
			payload.Map("product_classification").String("primary_category", "uncategorized")),
		fmt.Sprintf("quality assessed as %s tier",
			payload.Map("quality_assessment").String("quality_tier", "unknown")),
		fmt.Sprintf("demand score calculated: %s/100",
			formatScore(payload.Map("demand_analysis").Float("demand_score", 0))),
		fmt.Sprintf("production method recommended: %s",
			payload.Map("production_analysis").String("recommended_method", "unknown")),
		fmt.Sprintf("market fit score: %s/100",
			formatScore(payload.Map("market_fit").Float("market_fit_score", 0))),
	}
}

func demandLabel(score float64) string {
	switch {
	case score >= 70:
		return "high"
	case score >= 40:
		return "moderate"
	default:
		return "low"
	}
}

// formatScore renders a score without trailing decimal noise.
func formatScore(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.1f", v)
}
