package units

import (
	"fmt"
	"strings"

	"github.com/marketlens/go-foresight/internal/domain"
)

// SupplyChainUnit advises on sourcing, production method, cost structure, and
// logistics for the product. Optional third-stage unit.
type SupplyChainUnit struct{}

// NewSupplyChainUnit creates the supply chain advisory unit.
func NewSupplyChainUnit() *SupplyChainUnit { return &SupplyChainUnit{} }

// Name returns the variant identifier.
func (u *SupplyChainUnit) Name() domain.UnitName { return domain.UnitSupplyChain }

// Temperature returns the generation temperature.
func (u *SupplyChainUnit) Temperature() float64 { return 0.6 }

// MaxTokens returns the generation token budget.
func (u *SupplyChainUnit) MaxTokens() int64 { return 3500 }

// SystemPrompt returns the advisor role instructions.
func (u *SupplyChainUnit) SystemPrompt() string {
	return `You are an expert Supply Chain and Manufacturing Operations AI with deep knowledge of:
- Contract manufacturing and production methods
- Global sourcing and supplier selection
- Manufacturing cost optimization
- Quality control and assurance
- Logistics and fulfillment strategies
- E-commerce supply chain best practices

Provide comprehensive supply chain strategies: manufacturing method
recommendations, supplier sourcing with regional options, cost breakdowns,
lead time estimates, quality control protocols, and inventory strategies.
Include risk mitigation and scalability considerations.

Respond in structured JSON format with actionable insights.`
}

// BuildUserPrompt renders the advisory prompt. product_name is required.
func (u *SupplyChainUnit) BuildUserPrompt(fields domain.Payload) (string, error) {
	if err := requireFields(fields, "product_name"); err != nil {
		return "", err
	}

	return fmt.Sprintf(`Create a comprehensive supply chain and manufacturing strategy:

**Product Information:**
- Name: %s
- Category: %s
- Target Monthly Volume: %.0f units
- Quality Requirements: %s
- Specifications: %v
- Target Production Cost: $%.2f
- Target Market: %s

Provide detailed supply chain analysis in JSON format:

{
  "manufacturing_recommendations": {"primary_method": "in-house|contract|dropshipping|hybrid", "method_rationale": "string", "scalability_score": 0-100, "recommended_regions": ["..."]},
  "supplier_recommendations": [{"region": "string", "supplier_type": "manufacturer|wholesaler|distributor", "estimated_moq": number, "unit_cost_range": "min-max USD", "lead_time_days": "range", "quality_tier": "premium|standard|budget", "recommended": true}],
  "cost_analysis": {"per_unit_breakdown": {"raw_materials": number, "manufacturing": number, "quality_control": number, "packaging": number, "shipping_to_warehouse": number, "total_cogs": number}, "cogs_as_percent_of_price": number},
  "logistics_plan": {"fulfillment_model": "string", "warehousing": "string", "shipping_strategy": "string", "estimated_delivery_days": "range"},
  "quality_control": {"protocols": ["..."], "inspection_points": ["..."]},
  "risk_factors": [{"risk": "string", "severity": "high|medium|low", "mitigation": "string"}],
  "confidence_score": 0-100
}

Ground cost estimates in the product category and volume.`,
		fields.String("product_name", ""),
		fields.String("product_category", ""),
		fields.Float("target_volume", 1000),
		fields.String("quality_requirements", "standard"),
		fields["specifications"],
		fields.Float("target_cost", 0),
		fields.String("target_market", "global"),
	), nil
}

// Summarize digests the production method and unit economics.
func (u *SupplyChainUnit) Summarize(payload domain.Payload) string {
	manufacturing := payload.Map("manufacturing_recommendations")
	cogs := payload.Map("cost_analysis").Map("per_unit_breakdown").Float("total_cogs", 0)

	var b strings.Builder
	fmt.Fprintf(&b, "Production method: %s. ", manufacturing.String("primary_method", "unknown"))
	if cogs > 0 {
		fmt.Fprintf(&b, "Estimated COGS $%.2f/unit. ", cogs)
	}
	fmt.Fprintf(&b, "%d supplier options evaluated.", len(payload.Objects("supplier_recommendations")))
	return b.String()
}

// ReasoningTrace lists the key sourcing derivations in order.
func (u *SupplyChainUnit) ReasoningTrace(payload domain.Payload) []string {
	return []string{
		fmt.Sprintf("production method recommended: %s",
			payload.Map("manufacturing_recommendations").String("primary_method", "unknown")),
		fmt.Sprintf("evaluated %d supplier options",
			len(payload.Objects("supplier_recommendations"))),
		fmt.Sprintf("estimated COGS: $%.2f per unit",
			payload.Map("cost_analysis").Map("per_unit_breakdown").Float("total_cogs", 0)),
		fmt.Sprintf("identified %d supply risks", len(payload.Objects("risk_factors"))),
	}
}
