package units

import (
	"fmt"
	"strings"

	"github.com/marketlens/go-foresight/internal/domain"
)

// AdvertisingUnit plans the paid acquisition strategy for the top-ranked
// market: platform mix, targeting, ad copy directions, and budget split.
// Optional third-stage unit; its failure degrades the forecast, never fails it.
type AdvertisingUnit struct{}

// NewAdvertisingUnit creates the advertising planning unit.
func NewAdvertisingUnit() *AdvertisingUnit { return &AdvertisingUnit{} }

// Name returns the variant identifier.
func (u *AdvertisingUnit) Name() domain.UnitName { return domain.UnitAdvertising }

// Temperature returns the generation temperature.
func (u *AdvertisingUnit) Temperature() float64 { return 0.8 }

// MaxTokens returns the generation token budget.
func (u *AdvertisingUnit) MaxTokens() int64 { return 4000 }

// SystemPrompt returns the strategist role instructions.
func (u *AdvertisingUnit) SystemPrompt() string {
	return `You are an expert Digital Advertising Strategist and Performance Marketing AI with expertise in:
- Meta Ads (Facebook, Instagram) campaign optimization
- Google Ads (Search, Display, Shopping) strategies
- TikTok Ads for viral product marketing
- Audience targeting and segmentation
- Budget allocation and ROI optimization

Create comprehensive advertising plans covering platform selection, target
audiences, ad copy variations, budget recommendations, and expected
performance metrics (CTR, CPC, CPA, ROAS). Provide realistic, data-driven
estimates.

Respond in structured JSON format with actionable strategies.`
}

// BuildUserPrompt renders the planning prompt. product_name,
// product_category, and price are required.
func (u *AdvertisingUnit) BuildUserPrompt(fields domain.Payload) (string, error) {
	if err := requireFields(fields, "product_name", "product_category", "price"); err != nil {
		return "", err
	}

	budget := fields.Map("budget_range")
	return fmt.Sprintf(`Create a comprehensive advertising strategy for this product:

**Product Details:**
- Name: %s
- Category: %s
- Price: $%.2f
- Target Market: %s
- Target Demographics: %v
- Monthly Budget Range: $%.0f - $%.0f
- Campaign Objective: %s

Create detailed advertising strategies in JSON format:

{
  "platform_recommendations": [{"platform": "Meta|Google|TikTok", "priority": "high|medium|low", "rationale": "string", "budget_allocation_percentage": 0-100}],
  "targeting": {"age_range": "string", "gender": "all|male|female", "interests": ["..."], "geographic": "string"},
  "ad_copy_variations": [{"platform": "string", "headline": "string", "primary_text": "string", "cta": "string"}],
  "creative_brief": {"visual_style": "string", "key_elements": ["..."], "messaging_focus": "string"},
  "budget_plan": {"recommended_monthly_budget": number, "allocation": [{"platform": "string", "amount": number}]},
  "estimated_performance": {"cpc": number, "ctr_percent": number, "cpa": number, "roas": number, "expected_monthly_reach": number},
  "testing_strategy": ["..."],
  "confidence_score": 0-100
}

Be specific to the product, market, and budget.`,
		fields.String("product_name", ""),
		fields.String("product_category", ""),
		fields.Float("price", 0),
		fields.String("target_city", "not specified"),
		fields["target_demographics"],
		budget.Float("min", 1000),
		budget.Float("max", 5000),
		fields.String("campaign_objective", "conversion"),
	), nil
}

// Summarize digests the platform mix and projected performance.
func (u *AdvertisingUnit) Summarize(payload domain.Payload) string {
	platforms := payload.Objects("platform_recommendations")
	names := make([]string, 0, len(platforms))
	for _, p := range platforms {
		if name := p.String("platform", ""); name != "" {
			names = append(names, name)
		}
	}
	perf := payload.Map("estimated_performance")

	var b strings.Builder
	if len(names) > 0 {
		fmt.Fprintf(&b, "Recommended platforms: %s. ", strings.Join(names, ", "))
	}
	if budget := payload.Map("budget_plan").Float("recommended_monthly_budget", 0); budget > 0 {
		fmt.Fprintf(&b, "Monthly budget $%.0f. ", budget)
	}
	if roas := perf.Float("roas", 0); roas > 0 {
		fmt.Fprintf(&b, "Projected ROAS %.1fx.", roas)
	}
	return strings.TrimSpace(b.String())
}

// ReasoningTrace lists the key planning derivations in order.
func (u *AdvertisingUnit) ReasoningTrace(payload domain.Payload) []string {
	platforms := payload.Objects("platform_recommendations")
	return []string{
		fmt.Sprintf("selected %d advertising platforms", len(platforms)),
		fmt.Sprintf("drafted %d ad copy variations", len(payload.Objects("ad_copy_variations"))),
		fmt.Sprintf("recommended monthly budget: $%.0f",
			payload.Map("budget_plan").Float("recommended_monthly_budget", 0)),
		fmt.Sprintf("projected ROAS: %.1fx",
			payload.Map("estimated_performance").Float("roas", 0)),
	}
}
