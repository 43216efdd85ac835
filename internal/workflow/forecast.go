// Package workflow orchestrates the forecast pipeline as a Temporal workflow:
// staged unit execution with fan-out over the optional units, partial-failure
// tolerance, and deterministic scoring at the end. All control flow uses
// workflow-safe APIs only.
package workflow

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/marketlens/go-foresight/internal/aggregation"
	"github.com/marketlens/go-foresight/internal/analysis"
	"github.com/marketlens/go-foresight/internal/domain"
)

// Activity names resolved against the worker registry. They must match the
// method names registered in the worker package.
const (
	ActivityAnalyzeProduct    = "AnalyzeProduct"
	ActivityProfileMarket     = "ProfileMarket"
	ActivityPlanAdvertising   = "PlanAdvertising"
	ActivityAdviseSupplyChain = "AdviseSupplyChain"
	ActivityPlanSalesStrategy = "PlanSalesStrategy"
	ActivityAggregateForecast = "AggregateForecast"
)

// Derived-input defaults for the fan-out stage.
const (
	defaultBudgetMin      = 1000
	defaultBudgetMax      = 5000
	defaultTargetVolume   = 1000
	defaultObjective      = "conversion"
	defaultQualityReq     = "standard"
	defaultCompetition    = "moderate"
	targetCostShare       = 0.30
	activityHeartbeatSpan = 30 * time.Second
)

// ForecastWorkflow runs the five-unit analysis pipeline for one forecast.
//
// Stage 1 (product) and stage 2 (market) are required: a failure in either
// fails the whole forecast. Stage 3 fans out advertising, supply chain, and
// sales concurrently; each is optional and a failure there degrades the
// record instead of failing it. Stage 4 folds the required payloads into the
// deterministic score set. The returned record is always terminal: completed
// with scores, or failed with the first required-stage error.
func ForecastWorkflow(ctx workflow.Context, req domain.ForecastRequest) (*domain.ForecastRecord, error) {
	const currentVersion = 1
	_ = workflow.GetVersion(ctx, "forecast.v", workflow.DefaultVersion, currentVersion)

	if err := req.Validate(); err != nil {
		return nil, temporal.NewNonRetryableApplicationError(
			"invalid forecast request",
			"Validation",
			err,
		)
	}

	logger := workflow.GetLogger(ctx)

	ao := workflow.ActivityOptions{
		StartToCloseTimeout: req.Config.UnitTimeout,
		HeartbeatTimeout:    activityHeartbeatSpan,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    time.Minute,
			MaximumAttempts:    int32(req.Config.MaxUnitAttempts),
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	record := domain.NewForecastRecord(req.ForecastID, req.Product.ID)
	if err := record.MarkProcessing(workflow.Now(ctx)); err != nil {
		return nil, temporal.NewNonRetryableApplicationError("record transition", "Validation", err)
	}

	// Stage 1: product analysis. Required.
	product, err := runUnit(ctx, ActivityAnalyzeProduct, req.ForecastID, domain.AnalysisRequest{
		Unit:   domain.UnitProduct,
		Fields: productFields(req.Product),
	})
	if err != nil {
		return failRecord(ctx, record, "product analysis error: "+err.Error())
	}
	if !product.Succeeded {
		logger.Warn("Required unit failed, failing forecast",
			"unit", product.UnitName, "error", product.Error)
		return failRecord(ctx, record, "product analysis failed: "+product.Error)
	}
	record.AttachReport(product)
	record.AddUsage(product)

	// Stage 2: market profiling, seeded with the product unit's demographics.
	market, err := runUnit(ctx, ActivityProfileMarket, req.ForecastID, domain.AnalysisRequest{
		Unit:   domain.UnitMarket,
		Fields: marketFields(req, product.Payload),
	})
	if err != nil {
		return failRecord(ctx, record, "market profiling error: "+err.Error())
	}
	if !market.Succeeded {
		logger.Warn("Required unit failed, failing forecast",
			"unit", market.UnitName, "error", market.Error)
		return failRecord(ctx, record, "market profiling failed: "+market.Error)
	}
	record.AttachReport(market)
	record.AddUsage(market)

	// Stage 3: fan out the optional units. All three futures are always
	// drained; a slow straggler is never cancelled by a sibling's failure.
	type stageCall struct {
		activity string
		request  domain.AnalysisRequest
	}
	calls := []stageCall{
		{ActivityPlanAdvertising, domain.AnalysisRequest{
			Unit:   domain.UnitAdvertising,
			Fields: advertisingFields(req.Product, market.Payload),
		}},
		{ActivityAdviseSupplyChain, domain.AnalysisRequest{
			Unit:   domain.UnitSupplyChain,
			Fields: supplyChainFields(req.Product, market.Payload),
		}},
		{ActivityPlanSalesStrategy, domain.AnalysisRequest{
			Unit:   domain.UnitSales,
			Fields: salesFields(req.Product, product.Payload, market.Payload),
		}},
	}

	futures := make([]workflow.Future, len(calls))
	for i, call := range calls {
		futures[i] = workflow.ExecuteActivity(ctx, call.activity, analysis.UnitInput{
			ForecastID: req.ForecastID,
			Request:    call.request,
		})
	}
	for i, future := range futures {
		var res domain.AnalysisResult
		if err := future.Get(ctx, &res); err != nil {
			// Optional units degrade the record instead of failing the run.
			logger.Warn("Optional unit errored, continuing degraded",
				"unit", calls[i].request.Unit, "error", err)
			res = domain.NewFailedResult(calls[i].request.Unit, err.Error(), 0)
		}
		record.AttachReport(res)
		record.AddUsage(res)
	}

	// Stage 4: deterministic scoring over the required payloads.
	var scores domain.ScoreSet
	err = workflow.ExecuteActivity(ctx, ActivityAggregateForecast, aggregation.AggregateInput{
		ForecastID:     req.ForecastID,
		ProductPayload: product.Payload,
		MarketPayload:  market.Payload,
		Cities:         req.Cities,
	}).Get(ctx, &scores)
	if err != nil {
		return failRecord(ctx, record, "aggregation failed: "+err.Error())
	}
	record.Scores = &scores

	if err := record.Complete(workflow.Now(ctx)); err != nil {
		return nil, temporal.NewNonRetryableApplicationError("record transition", "Validation", err)
	}
	logger.Info("Forecast completed",
		"forecast_id", req.ForecastID,
		"overall_score", scores.OverallScore,
		"tokens_used", record.TokensUsed)
	return record, nil
}

// runUnit executes one required-stage unit activity and decodes its envelope.
func runUnit(ctx workflow.Context, activityName string, forecastID uuid.UUID, req domain.AnalysisRequest) (domain.AnalysisResult, error) {
	var res domain.AnalysisResult
	err := workflow.ExecuteActivity(ctx, activityName, analysis.UnitInput{
		ForecastID: forecastID,
		Request:    req,
	}).Get(ctx, &res)
	return res, err
}

// failRecord transitions the record to failed and returns it as the workflow
// result. The error is carried inside the record, not as a workflow failure:
// a degraded-input forecast is a business outcome, not an infrastructure one.
func failRecord(ctx workflow.Context, record *domain.ForecastRecord, msg string) (*domain.ForecastRecord, error) {
	if err := record.Fail(workflow.Now(ctx), msg); err != nil {
		if !errors.Is(err, domain.ErrInvalidTransition) {
			return nil, err
		}
	}
	return record, nil
}

// productFields maps the product record into the product unit's inputs.
func productFields(p domain.Product) domain.Payload {
	return domain.Payload{
		"product_name":      p.Name,
		"description":       p.Description,
		"category":          p.Category,
		"base_price":        p.BasePrice,
		"production_method": p.ProductionMethod,
		"specifications":    p.Specifications,
	}
}

// marketFields maps the request cities and the product unit's demographic
// findings into the market unit's inputs.
func marketFields(req domain.ForecastRequest, productPayload domain.Payload) domain.Payload {
	cities := make([]any, 0, len(req.Cities))
	for _, c := range req.Cities {
		cities = append(cities, map[string]any(c.AsPayload()))
	}
	return domain.Payload{
		"product_category":    req.Product.Category,
		"price_point":         req.Product.BasePrice,
		"target_demographics": productPayload.Map("demand_analysis").Slice("target_demographics"),
		"cities":              cities,
	}
}

// advertisingFields derives the fan-out inputs for the advertising unit from
// the market payload: the top-ranked city becomes the target market and the
// demographic insights become the audience.
func advertisingFields(p domain.Product, marketPayload domain.Payload) domain.Payload {
	return domain.Payload{
		"product_name":        p.Name,
		"product_category":    p.Category,
		"price":               p.BasePrice,
		"target_city":         topRankedCity(marketPayload),
		"target_demographics": map[string]any(marketPayload.Map("demographic_insights")),
		"budget_range":        map[string]any{"min": float64(defaultBudgetMin), "max": float64(defaultBudgetMax)},
		"campaign_objective":  defaultObjective,
	}
}

// supplyChainFields derives the fan-out inputs for the supply chain unit.
// The production cost target is a fixed share of the selling price.
func supplyChainFields(p domain.Product, marketPayload domain.Payload) domain.Payload {
	return domain.Payload{
		"product_name":         p.Name,
		"product_category":     p.Category,
		"specifications":       p.Specifications,
		"target_volume":        float64(defaultTargetVolume),
		"quality_requirements": defaultQualityReq,
		"target_cost":          p.BasePrice * targetCostShare,
		"target_market":        topRankedCity(marketPayload),
	}
}

// salesFields derives the fan-out inputs for the sales strategy unit. The
// competition level is the market unit's finding, defaulted only when the
// market payload omits it.
func salesFields(p domain.Product, productPayload, marketPayload domain.Payload) domain.Payload {
	return domain.Payload{
		"product_name":          p.Name,
		"product_category":      p.Category,
		"price":                 p.BasePrice,
		"target_audience":       map[string]any(marketPayload.Map("demographic_insights")),
		"unique_selling_points": productPayload.Map("market_fit").Slice("unique_selling_points"),
		"competition_level":     marketPayload.Map("competitive_landscape").String("competition_intensity", defaultCompetition),
	}
}

// topRankedCity reads the name of the market unit's best-ranked city.
func topRankedCity(marketPayload domain.Payload) string {
	rankings := marketPayload.Objects("city_rankings")
	if len(rankings) == 0 {
		return "not specified"
	}
	return rankings[0].String("city_name", "not specified")
}
