package advisor

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/i474232898/spray-advisory/internal/common"
	"github.com/i474232898/spray-advisory/internal/compliance"
	"github.com/i474232898/spray-advisory/internal/registry"
	"github.com/i474232898/spray-advisory/internal/weather"
)

// Recommendation thresholds.
const (
	maxWindKph         = 15
	maxRainProbability = 70
	maxOilTempC        = 30
)

// Recommendation reasons.
const (
	ReasonWind     = "Wind speed is too high for spraying - drift risk"
	ReasonRain     = "Rain is likely - the product may wash off before it takes effect"
	ReasonHeat     = "Temperature is too high for oil-based products - risk of leaf burn"
	ReasonSuitable = "Conditions are suitable for spraying"
)

// ProductSource resolves registered products.
type ProductSource interface {
	Search(ctx context.Context, query string, limit int) []registry.Product
	GetByRegistrationNumber(ctx context.Context, id string) (registry.Product, bool)
}

// ForecastSource resolves daily forecasts by postal code.
type ForecastSource interface {
	Forecast(ctx context.Context, postalCode string) []weather.Forecast
}

// Recommendation is the composite answer to "should I spray today".
type Recommendation struct {
	Recommended bool             `json:"recommended"`
	Reason      string           `json:"reason"`
	Warnings    []string         `json:"warnings"`
	Forecast    weather.Forecast `json:"forecast"`
}

// Engine composes the registry, the weather chain and the rule set.
type Engine struct {
	products  ProductSource
	forecasts ForecastSource
	rules     *compliance.RuleSet
	now       func() time.Time
}

// NewEngine creates an Engine. A nil rule set selects the embedded defaults.
func NewEngine(products ProductSource, forecasts ForecastSource, rules *compliance.RuleSet) *Engine {
	if rules == nil {
		rules = compliance.DefaultRules()
	}
	return &Engine{products: products, forecasts: forecasts, rules: rules, now: time.Now}
}

// SearchProducts returns products matching query. It never fails.
func (e *Engine) SearchProducts(ctx context.Context, query string, limit int) []registry.Product {
	return e.products.Search(ctx, query, limit)
}

// GetProduct resolves a single product by registration number.
func (e *Engine) GetProduct(ctx context.Context, productID string) (registry.Product, bool) {
	return e.products.GetByRegistrationNumber(ctx, productID)
}

// Label derives the label for a product, if it can be resolved.
func (e *Engine) Label(ctx context.Context, productID string) (compliance.Label, bool) {
	p, ok := e.products.GetByRegistrationNumber(ctx, productID)
	if !ok {
		return compliance.Label{}, false
	}
	return e.rules.DeriveLabel(p), true
}

// Forecast returns up to three scored daily forecasts, today first.
func (e *Engine) Forecast(ctx context.Context, postalCode string) []weather.Forecast {
	return e.forecasts.Forecast(ctx, postalCode)
}

// CheckCompliance evaluates a product against an application context.
func (e *Engine) CheckCompliance(ctx context.Context, productID string, appCtx compliance.ApplicationContext) compliance.Result {
	p, ok := e.products.GetByRegistrationNumber(ctx, productID)
	if !ok {
		log.Printf("INFO: compliance check for unresolved product %q\n", productID)
		return compliance.Unresolved()
	}
	label := e.rules.DeriveLabel(p)
	return e.rules.Check(&p, &label, appCtx)
}

// CheckPermit reports the permit requirement for a product in a jurisdiction.
func (e *Engine) CheckPermit(ctx context.Context, productID, state string) compliance.PermitResult {
	p, ok := e.products.GetByRegistrationNumber(ctx, productID)
	if !ok {
		return e.rules.CheckPermit(nil, state)
	}
	return e.rules.CheckPermit(&p, state)
}

// Recommend decides whether today's weather suits spraying. hint describes the
// product type; any hint mentioning oil enables the heat check.
func (e *Engine) Recommend(ctx context.Context, postalCode, hint string) Recommendation {
	days := e.forecasts.Forecast(ctx, postalCode)
	var today weather.Forecast
	if len(days) > 0 {
		today = days[0]
	} else {
		// ForecastSource implementations should never return nothing.
		today = weather.Synthetic(strings.TrimSpace(postalCode), e.now()).Scored()
	}

	var triggered []string
	if today.WindSpeedKph > maxWindKph {
		triggered = append(triggered, ReasonWind)
	}
	if today.RainProbabilityPct > maxRainProbability {
		triggered = append(triggered, ReasonRain)
	}
	if common.ContainsFold(hint, "oil") && today.TempMaxC > maxOilTempC {
		triggered = append(triggered, ReasonHeat)
	}

	rec := Recommendation{
		Recommended: len(triggered) == 0,
		Reason:      ReasonSuitable,
		Warnings:    make([]string, 0, len(triggered)+len(today.Warnings)),
		Forecast:    today,
	}
	if len(triggered) > 0 {
		rec.Reason = triggered[0]
	}
	rec.Warnings = append(rec.Warnings, triggered...)
	rec.Warnings = append(rec.Warnings, today.Warnings...)

	if !rec.Recommended {
		log.Printf("DEBUG: spraying not recommended for %s: %s\n", today.PostalCode, rec.Reason)
	}
	return rec
}
