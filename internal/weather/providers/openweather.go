package providers

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/spray-advisory/internal/resilience"
	"github.com/i474232898/spray-advisory/internal/weather"
)

// OpenWeatherProvider implements weather.Provider for OpenWeatherMap. It
// geocodes the postal code with the zip endpoint, then reads the 5 day / 3 hour
// forecast and folds the slots into daily forecasts.
type OpenWeatherProvider struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg resilience.HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenWeatherProvider(cfg resilience.HTTPClientConfig, apiKey, baseURL string) *OpenWeatherProvider {
	if baseURL == "" {
		baseURL = "https://api.openweathermap.org"
	}
	return &OpenWeatherProvider{
		name:    "openweathermap",
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpCfg: cfg,
		circuit: resilience.NewBreaker("openweather"),
	}
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

type owZipResponse struct {
	Name string   `json:"name"`
	Lat  *float64 `json:"lat"`
	Lon  *float64 `json:"lon"`
}

type owForecastResponse struct {
	List []struct {
		Dt   int64 `json:"dt"`
		Main struct {
			Temp     float64 `json:"temp"`
			Humidity float64 `json:"humidity"`
		} `json:"main"`
		Weather []struct {
			Main string `json:"main"`
		} `json:"weather"`
		Wind struct {
			Speed float64 `json:"speed"`
			Deg   float64 `json:"deg"`
		} `json:"wind"`
		Rain struct {
			ThreeH float64 `json:"3h"`
		} `json:"rain"`
	} `json:"list"`
	City struct {
		Name     string `json:"name"`
		Timezone int    `json:"timezone"` // seconds east of UTC
	} `json:"city"`
}

func (p *OpenWeatherProvider) Fetch(ctx context.Context, loc weather.Location) ([]weather.Forecast, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("%w: openweather api key is not configured", errNotConfigured)
	}

	zip := loc.PostalCode
	if loc.Country != "" {
		zip = fmt.Sprintf("%s,%s", loc.PostalCode, loc.Country)
	}

	geo := url.Values{}
	geo.Set("zip", zip)
	geo.Set("appid", p.apiKey)

	var place owZipResponse
	if err := getJSON(ctx, p.httpCfg, p.circuit, p.baseURL+"/geo/1.0/zip?"+geo.Encode(), &place); err != nil {
		return nil, fmt.Errorf("geocode %s: %w", zip, err)
	}
	if place.Lat == nil || place.Lon == nil {
		return nil, fmt.Errorf("%w: geocode response missing coordinates", errMalformed)
	}

	values := url.Values{}
	values.Set("lat", fmt.Sprintf("%f", *place.Lat))
	values.Set("lon", fmt.Sprintf("%f", *place.Lon))
	values.Set("units", "metric")
	values.Set("appid", p.apiKey)

	var payload owForecastResponse
	if err := getJSON(ctx, p.httpCfg, p.circuit, p.baseURL+"/data/2.5/forecast?"+values.Encode(), &payload); err != nil {
		return nil, err
	}

	zone := time.FixedZone("", payload.City.Timezone)
	readings := make([]weather.Reading, 0, len(payload.List))
	for _, item := range payload.List {
		cond := weather.ConditionUnknown
		if len(item.Weather) > 0 {
			cond = mapOpenWeatherCondition(item.Weather[0].Main)
		}
		readings = append(readings, weather.Reading{
			Timestamp:    time.Unix(item.Dt, 0).In(zone),
			TemperatureC: item.Main.Temp,
			HumidityPct:  item.Main.Humidity,
			WindSpeedKph: kphFromMS(item.Wind.Speed),
			WindDeg:      item.Wind.Deg,
			PrecipMm:     item.Rain.ThreeH,
			Condition:    cond,
		})
	}

	name := place.Name
	if name == "" {
		name = payload.City.Name
	}
	return dailyForecasts(readings, name, loc.PostalCode, weather.MaxForecastDays), nil
}

func mapOpenWeatherCondition(main string) weather.Condition {
	switch main {
	case "Clear":
		return weather.ConditionClear
	case "Clouds":
		return weather.ConditionCloudy
	case "Rain", "Drizzle":
		return weather.ConditionRain
	case "Snow":
		return weather.ConditionSnow
	case "Thunderstorm":
		return weather.ConditionStorm
	case "Mist", "Fog", "Haze":
		return weather.ConditionMist
	default:
		return weather.ConditionUnknown
	}
}

// dailyForecasts groups readings by local day and summarizes up to maxDays of them.
func dailyForecasts(readings []weather.Reading, name, postalCode string, maxDays int) []weather.Forecast {
	var out []weather.Forecast
	for _, day := range weather.GroupByDay(readings) {
		if len(out) >= maxDays {
			break
		}
		f := weather.SummarizeDay(day)
		f.Location = name
		f.PostalCode = postalCode
		out = append(out, f)
	}
	return out
}
