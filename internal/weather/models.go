package weather

import (
	"strings"
	"time"
)

// Condition represents a normalized high-level weather condition.
type Condition string

const (
	ConditionUnknown Condition = "unknown"
	ConditionClear   Condition = "clear"
	ConditionCloudy  Condition = "cloudy"
	ConditionRain    Condition = "rain"
	ConditionSnow    Condition = "snow"
	ConditionStorm   Condition = "storm"
	ConditionMist    Condition = "mist"
)

// Precipitating reports whether the condition counts as a wet sub-interval.
func (c Condition) Precipitating() bool {
	return c == ConditionRain || c == ConditionStorm || c == ConditionSnow
}

// SprayCondition is the categorical suitability rating for applying a treatment.
type SprayCondition string

const (
	SprayExcellent SprayCondition = "excellent"
	SprayGood      SprayCondition = "good"
	SprayMarginal  SprayCondition = "marginal"
	SprayPoor      SprayCondition = "poor"
)

// Location identifies the area a forecast is requested for.
// PostalCode must be provided; Country is an ISO 3166 alpha-2 code.
type Location struct {
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

// Key returns a canonical string key for caching this location.
func (l Location) Key() string {
	return strings.TrimSpace(l.PostalCode)
}

// Forecast is the normalized view of one day of weather for a postal code.
type Forecast struct {
	Location           string         `json:"location"`
	PostalCode         string         `json:"postalCode"`
	Date               time.Time      `json:"date"` // midnight, provider-local day
	TempMinC           float64        `json:"tempMinC"`
	TempMaxC           float64        `json:"tempMaxC"`
	HumidityPct        float64        `json:"humidityPercent"`
	WindSpeedKph       float64        `json:"windSpeedKph"`
	WindDirection      string         `json:"windDirection"`
	RainfallMm         float64        `json:"rainfallMm"`
	RainProbabilityPct float64        `json:"rainProbabilityPercent"`
	SprayConditions    SprayCondition `json:"sprayConditions"`
	Warnings           []string       `json:"warnings"`

	// Source names the provider that produced this entry.
	Source string `json:"source"`
}

// Scored returns a copy of f with SprayConditions and Warnings derived from its own fields.
func (f Forecast) Scored() Forecast {
	f.SprayConditions, f.Warnings = Score(f)
	return f
}

// Reading is a single provider sample (an hour, a 3-hour slot, or a current
// observation) that SummarizeDay folds into a daily Forecast.
type Reading struct {
	Timestamp time.Time

	TemperatureC float64
	HumidityPct  float64
	WindSpeedKph float64
	WindDeg      float64
	PrecipMm     float64
	Condition    Condition
}
