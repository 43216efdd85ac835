package units

import (
	"fmt"
	"strings"

	"github.com/marketlens/go-foresight/internal/domain"
)

// SalesUnit recommends marketplaces, funnel design, and conversion tactics.
// Optional third-stage unit.
type SalesUnit struct{}

// NewSalesUnit creates the sales strategy unit.
func NewSalesUnit() *SalesUnit { return &SalesUnit{} }

// Name returns the variant identifier.
func (u *SalesUnit) Name() domain.UnitName { return domain.UnitSales }

// Temperature returns the generation temperature.
func (u *SalesUnit) Temperature() float64 { return 0.7 }

// MaxTokens returns the generation token budget.
func (u *SalesUnit) MaxTokens() int64 { return 4000 }

// SystemPrompt returns the strategist role instructions.
func (u *SalesUnit) SystemPrompt() string {
	return `You are an expert E-commerce Sales Strategy and Conversion Optimization AI with expertise in:
- Marketplace selection (Shopify, Amazon, Etsy, WooCommerce)
- Sales funnel design and optimization
- Email marketing automation
- Upselling and cross-selling strategies
- Conversion rate optimization
- Retention and lifecycle marketing

Create comprehensive sales strategies: platform selection, funnel
architecture, landing page structure, email sequences, upsell offers, and
conversion benchmarks.

Respond in structured JSON format with actionable strategies.`
}

// BuildUserPrompt renders the strategy prompt. product_name and price are
// required.
func (u *SalesUnit) BuildUserPrompt(fields domain.Payload) (string, error) {
	if err := requireFields(fields, "product_name", "price"); err != nil {
		return "", err
	}

	return fmt.Sprintf(`Create a comprehensive sales and conversion strategy for:

**Product Details:**
- Name: %s
- Category: %s
- Price: $%.2f
- USPs: %v
- Target Audience: %v
- Competition: %s

Provide detailed sales strategy in JSON format:

{
  "marketplace_recommendations": [{"platform": "Shopify|Amazon|Etsy|WooCommerce", "priority": "primary|secondary|tertiary", "rationale": "string", "setup_complexity": "easy|moderate|complex", "monthly_cost_estimate": number, "target_monthly_sales": number}],
  "sales_funnel": {"funnel_type": "direct|tripwire|value_ladder", "stages": [{"stage": "awareness|interest|consideration|purchase|retention", "objective": "string", "tactics": ["..."], "conversion_benchmark": "percentage"}]},
  "landing_page_strategy": {"page_type": "string", "hero_headline": "string", "key_sections": ["..."], "trust_elements": ["..."]},
  "email_sequences": [{"sequence": "welcome|abandoned_cart|post_purchase", "emails": number, "objective": "string"}],
  "upsell_offers": [{"offer": "string", "placement": "string", "expected_take_rate": "percentage"}],
  "conversion_benchmarks": {"landing_page_cvr": number, "cart_to_purchase": number, "repeat_purchase_rate": number},
  "confidence_score": 0-100
}

Tailor everything to the product's price point and competition level.`,
		fields.String("product_name", ""),
		fields.String("product_category", ""),
		fields.Float("price", 0),
		fields["unique_selling_points"],
		fields["target_audience"],
		fields.String("competition_level", "moderate"),
	), nil
}

// Summarize digests the primary channel and funnel design.
func (u *SalesUnit) Summarize(payload domain.Payload) string {
	marketplaces := payload.Objects("marketplace_recommendations")
	primary := "unknown"
	for _, m := range marketplaces {
		if m.String("priority", "") == "primary" {
			primary = m.String("platform", "unknown")
			break
		}
	}
	if primary == "unknown" && len(marketplaces) > 0 {
		primary = marketplaces[0].String("platform", "unknown")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Primary channel: %s. ", primary)
	fmt.Fprintf(&b, "Funnel: %s with %d stages.",
		payload.Map("sales_funnel").String("funnel_type", "direct"),
		len(payload.Map("sales_funnel").Objects("stages")))
	return b.String()
}

// ReasoningTrace lists the key strategy derivations in order.
func (u *SalesUnit) ReasoningTrace(payload domain.Payload) []string {
	return []string{
		fmt.Sprintf("recommended %d sales channels",
			len(payload.Objects("marketplace_recommendations"))),
		fmt.Sprintf("funnel type: %s",
			payload.Map("sales_funnel").String("funnel_type", "direct")),
		fmt.Sprintf("designed %d email sequences",
			len(payload.Objects("email_sequences"))),
		fmt.Sprintf("planned %d upsell offers",
			len(payload.Objects("upsell_offers"))),
	}
}
