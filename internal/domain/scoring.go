package domain

// Scoring converts the product and market unit payloads into the final
// numeric forecast. Every function here is pure and deterministic: identical
// payloads and city lists yield bit-identical output, and missing fields fall
// back to documented defaults instead of raising.

import (
	"math"
	"strconv"
	"strings"
)

// PriceElasticity labels how demand is expected to respond to price changes.
type PriceElasticity string

const (
	// ElasticityElastic marks price-sensitive demand (budget tier).
	ElasticityElastic PriceElasticity = "elastic"

	// ElasticityNeutral marks average price sensitivity (standard tier).
	ElasticityNeutral PriceElasticity = "neutral"

	// ElasticityInelastic marks price-insensitive demand (premium tier).
	ElasticityInelastic PriceElasticity = "inelastic"
)

// Default inputs used when a payload field is missing or malformed.
const (
	defaultScore        = 50.0 // product demand, quality, market fit, city metrics
	defaultConfidence   = 75.0
	defaultUnitPrice    = 50.0
	defaultPriceMin     = 40.0
	defaultPriceMax     = 60.0
	baseProfitMargin    = 40.0
	minProfitMargin     = 15.0
	maxProfitMargin     = 70.0
	maxRankedCities     = 10
	monthsPerYear       = 12
	defaultMarketSize   = "medium"
	defaultMaturity     = "mature"
	defaultEntryBarrier = "moderate"
	defaultQualityTier  = "standard"
)

// Weights of the overall score combination.
const (
	overallDemandWeight        = 0.40
	overallProfitabilityWeight = 0.30
	overallCompetitionWeight   = 0.20
	overallMarketFitWeight     = 0.10
)

// ScoreSet is the scoring engine's complete output. All *_score fields and
// the competition index are clamped to [0,100]; the pricing triple preserves
// min ≤ recommended ≤ max.
type ScoreSet struct {
	DemandScore        float64 `json:"demand_score" db:"demand_score" validate:"min=0,max=100"`
	CompetitionIndex   float64 `json:"competition_index" db:"competition_index" validate:"min=0,max=100"`
	ProfitabilityScore float64 `json:"profitability_score" db:"profitability_score" validate:"min=0,max=100"`
	MarketFitScore     float64 `json:"market_fit_score" db:"market_fit_score" validate:"min=0,max=100"`
	RiskScore          float64 `json:"risk_score" db:"risk_score" validate:"min=0,max=100"`
	OverallScore       float64 `json:"overall_score" db:"overall_score" validate:"min=0,max=100"`

	ExpectedMonthlySalesVolume int64   `json:"expected_monthly_sales_volume" db:"expected_monthly_sales_volume" validate:"min=0"`
	ExpectedAnnualRevenue      float64 `json:"expected_annual_revenue" db:"expected_annual_revenue" validate:"min=0"`
	ExpectedProfitMargin       float64 `json:"expected_profit_margin" db:"expected_profit_margin" validate:"min=15,max=70"`

	RecommendedPrice    float64         `json:"recommended_price" db:"recommended_price" validate:"gt=0"`
	RecommendedPriceMin float64         `json:"recommended_price_min" db:"recommended_price_min" validate:"gt=0"`
	RecommendedPriceMax float64         `json:"recommended_price_max" db:"recommended_price_max" validate:"gt=0"`
	PriceElasticity     PriceElasticity `json:"price_elasticity" db:"price_elasticity" validate:"required,oneof=elastic neutral inelastic"`

	// CityRankings passes the market unit's ranked records through verbatim,
	// truncated to the top ten, order preserved.
	CityRankings []Payload `json:"city_rankings,omitempty"`
}

// Validate checks every field against its documented clamp range.
func (s *ScoreSet) Validate() error { return validate.Struct(s) }

// ComputeForecastScores derives the full ScoreSet from the product and market
// payloads plus the raw city records. Sparse or empty payloads — including an
// empty city ranking — fall back to entirely default-valued inputs; that is
// intended degradation, not an error, so the function cannot fail.
func ComputeForecastScores(productData, marketData Payload, cities []City) ScoreSet {
	productDemand := productData.Map("demand_analysis").Float("demand_score", defaultScore)
	productQuality := productData.Map("quality_assessment").Float("quality_score", defaultScore)
	marketFit := clamp(productData.Map("market_fit").Float("market_fit_score", defaultScore), 0, 100)

	rankings := marketData.Objects("city_rankings")
	topCity := Payload{}
	if len(rankings) > 0 {
		topCity = rankings[0]
	}
	assessment := marketData.Map("overall_market_assessment")

	marketSize := topCity.String("estimated_market_size", defaultMarketSize)
	maturity := assessment.String("market_maturity", defaultMaturity)
	entryDifficulty := assessment.String("entry_difficulty", defaultEntryBarrier)

	demand := demandScore(
		productDemand,
		marketSize,
		topCity.Float("ecommerce_readiness_score", defaultScore),
		topCity.Float("demographic_match_score", defaultScore),
	)
	competition := competitionIndex(topCity.Float("competition_score", defaultScore), maturity)
	profitability := profitabilityScore(
		topCity.Float("purchasing_power_score", defaultScore),
		productQuality,
		competition,
	)
	risk := riskScore(competition, maturity, entryDifficulty)
	overall := overallScore(demand, profitability, competition, marketFit)

	volume, revenue, margin := estimateSales(demand, marketSize, competition, averageUnitPrice(topCity))

	pricing := recommendPricing(
		productData.Map("pricing_analysis").String("optimal_price_range", ""),
		productData.Map("quality_assessment").String("quality_tier", defaultQualityTier),
	)

	if len(rankings) > maxRankedCities {
		rankings = rankings[:maxRankedCities]
	}

	// cities is accepted for interface parity with the persistence
	// collaborator; the current model reads market conditions from the
	// market unit's ranked payloads instead of the raw records.
	_ = cities

	return ScoreSet{
		DemandScore:                round2(demand),
		CompetitionIndex:           round2(competition),
		ProfitabilityScore:         round2(profitability),
		MarketFitScore:             round2(marketFit),
		RiskScore:                  round2(risk),
		OverallScore:               round2(overall),
		ExpectedMonthlySalesVolume: volume,
		ExpectedAnnualRevenue:      round2(revenue),
		ExpectedProfitMargin:       round2(margin),
		RecommendedPrice:           pricing.recommended,
		RecommendedPriceMin:        pricing.min,
		RecommendedPriceMax:        pricing.max,
		PriceElasticity:            pricing.elasticity,
		CityRankings:               rankings,
	}
}

// demandScore combines product demand with market conditions:
// 0.4·product_demand + 0.3·market_size_factor + 0.2·ecommerce_readiness +
// 0.1·demographic_match, clamped to [0,100].
func demandScore(productDemand float64, marketSize string, ecommerceReadiness, demographicMatch float64) float64 {
	return clamp(
		productDemand*0.4+
			marketSizeFactor(marketSize)*0.3+
			ecommerceReadiness*0.2+
			demographicMatch*0.1,
		0, 100)
}

// marketSizeFactor maps the market unit's categorical size label to a score.
func marketSizeFactor(size string) float64 {
	switch strings.ToLower(size) {
	case "small":
		return 30
	case "medium":
		return 60
	case "large":
		return 85
	case "very large":
		return 95
	default:
		return 60
	}
}

// competitionIndex scales raw competition by a market-maturity multiplier.
// Higher means more competition.
func competitionIndex(competitionScore float64, maturity string) float64 {
	multiplier := 1.0
	switch strings.ToLower(maturity) {
	case "emerging":
		multiplier = 0.7
	case "growing":
		multiplier = 0.85
	case "mature":
		multiplier = 1.0
	case "saturated":
		multiplier = 1.2
	}
	return clamp(competitionScore*multiplier, 0, 100)
}

// profitabilityScore weighs purchasing power, product quality, and inverse
// competition: 0.45·power + 0.35·quality + 0.20·(100 − competition).
func profitabilityScore(purchasingPower, productQuality, competition float64) float64 {
	return clamp(
		purchasingPower*0.45+
			productQuality*0.35+
			(100-competition)*0.20,
		0, 100)
}

// riskScore estimates entry risk. Higher means more risk.
func riskScore(competition float64, maturity, entryDifficulty string) float64 {
	maturityRisk := 30.0
	switch strings.ToLower(maturity) {
	case "emerging":
		maturityRisk = 45 // higher risk, higher reward
	case "growing":
		maturityRisk = 25
	case "mature":
		maturityRisk = 15
	case "saturated":
		maturityRisk = 60
	}

	entryRisk := 30.0
	switch strings.ToLower(entryDifficulty) {
	case "easy":
		entryRisk = 10
	case "moderate":
		entryRisk = 30
	case "challenging":
		entryRisk = 60
	}

	return clamp(competition*0.5+maturityRisk*0.3+entryRisk*0.2, 0, 100)
}

// overallScore is the weighted market-potential combination, with competition
// inverted so that less competition scores higher.
func overallScore(demand, profitability, competition, marketFit float64) float64 {
	return clamp(
		overallDemandWeight*demand+
			overallProfitabilityWeight*profitability+
			overallCompetitionWeight*(100-competition)+
			overallMarketFitWeight*marketFit,
		0, 100)
}

// estimateSales projects monthly volume, annual revenue, and profit margin.
// Base volume is keyed by market-size label, then scaled by demand and
// inverse-competition multipliers normalized around 1.0.
func estimateSales(demand float64, marketSize string, competition, unitPrice float64) (volume int64, annualRevenue, margin float64) {
	base := 200.0
	switch strings.ToLower(marketSize) {
	case "small":
		base = 50
	case "medium":
		base = 200
	case "large":
		base = 800
	case "very large":
		base = 2000
	}

	adjusted := base * (demand / 50) * ((100 - competition) / 50)
	if adjusted < 0 {
		adjusted = 0
	}
	volume = int64(adjusted)

	annualRevenue = float64(volume) * unitPrice * monthsPerYear

	margin = clamp(baseProfitMargin+(100-competition)*0.2, minProfitMargin, maxProfitMargin)
	return volume, annualRevenue, margin
}

// averageUnitPrice reads the top city's observed competitor price, falling
// back to the default unit price when absent or non-positive.
func averageUnitPrice(topCity Payload) float64 {
	if price := topCity.Float("average_competitor_price", 0); price > 0 {
		return price
	}
	return defaultUnitPrice
}

type pricingRecommendation struct {
	recommended, min, max float64
	elasticity            PriceElasticity
}

// recommendPricing derives the price band from the product unit's optimal
// price range, scaled by the quality-tier multiplier. Any parse failure on
// the range string falls back to the default 40–60 band.
func recommendPricing(priceRange, qualityTier string) pricingRecommendation {
	priceMin, priceMax, ok := parsePriceRange(priceRange)
	var recommended float64
	switch {
	case ok:
		recommended = (priceMin + priceMax) / 2
	case parseAsPrice(priceRange) > 0:
		recommended = parseAsPrice(priceRange)
		priceMin = recommended * 0.8
		priceMax = recommended * 1.2
	default:
		priceMin, priceMax = defaultPriceMin, defaultPriceMax
		recommended = (defaultPriceMin + defaultPriceMax) / 2
	}

	multiplier := 1.0
	elasticity := ElasticityNeutral
	switch strings.ToLower(qualityTier) {
	case "premium":
		multiplier = 1.3
		elasticity = ElasticityInelastic
	case "budget":
		multiplier = 0.7
		elasticity = ElasticityElastic
	}

	return pricingRecommendation{
		recommended: round2(recommended * multiplier),
		min:         round2(priceMin * multiplier),
		max:         round2(priceMax * multiplier),
		elasticity:  elasticity,
	}
}

// parsePriceRange parses a "min-max" price band such as "$40-60". Returns
// ok=false on any malformed input.
func parsePriceRange(s string) (minPrice, maxPrice float64, ok bool) {
	s = strings.ReplaceAll(s, "$", "")
	s = strings.TrimSuffix(strings.TrimSpace(s), " USD")
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	lo, errLo := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	hi, errHi := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if errLo != nil || errHi != nil || lo <= 0 || hi < lo {
		return 0, 0, false
	}
	return lo, hi, true
}

// parseAsPrice parses a single positive price value, returning 0 on failure.
func parseAsPrice(s string) float64 {
	s = strings.TrimSpace(strings.ReplaceAll(s, "$", ""))
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return 0
	}
	return v
}

// clamp bounds x to the inclusive range [lo, hi].
func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// round2 rounds to two decimal places, enough precision for score and
// currency fields while keeping output stable across runs.
func round2(x float64) float64 { return math.Round(x*100) / 100 }
