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

// Geocoder resolves a postal code to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, loc weather.Location) (Coordinates, error)
}

// Coordinates is a resolved latitude/longitude pair with an optional place name.
type Coordinates struct {
	Lat  float64
	Lon  float64
	Name string
}

// OpenMeteoProvider implements weather.Provider for Open-Meteo. The API is
// keyless but coordinate based, so postal codes go through a Geocoder first.
type OpenMeteoProvider struct {
	name     string
	baseURL  string
	geocoder Geocoder
	httpCfg  resilience.HTTPClientConfig
	circuit  *gobreaker.CircuitBreaker
}

func NewOpenMeteoProvider(cfg resilience.HTTPClientConfig, geocoder Geocoder, baseURL string) *OpenMeteoProvider {
	if baseURL == "" {
		baseURL = "https://api.open-meteo.com"
	}
	return &OpenMeteoProvider{
		name:     "openmeteo",
		baseURL:  strings.TrimRight(baseURL, "/"),
		geocoder: geocoder,
		httpCfg:  cfg,
		circuit:  resilience.NewBreaker("openmeteo"),
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

type omResponse struct {
	UTCOffsetSeconds int `json:"utc_offset_seconds"`
	Hourly           struct {
		Time             []string  `json:"time"`
		Temperature      []float64 `json:"temperature_2m"`
		RelativeHumidity []float64 `json:"relative_humidity_2m"`
		WindSpeed        []float64 `json:"wind_speed_10m"`
		WindDirection    []float64 `json:"wind_direction_10m"`
		Precipitation    []float64 `json:"precipitation"`
		WeatherCode      []int     `json:"weather_code"`
	} `json:"hourly"`
}

func (p *OpenMeteoProvider) Fetch(ctx context.Context, loc weather.Location) ([]weather.Forecast, error) {
	if p.geocoder == nil {
		return nil, fmt.Errorf("%w: openmeteo requires a geocoder", errNotConfigured)
	}

	coords, err := p.geocoder.Geocode(ctx, loc)
	if err != nil {
		return nil, fmt.Errorf("geocode %s: %w", loc.Key(), err)
	}

	values := url.Values{}
	values.Set("latitude", fmt.Sprintf("%f", coords.Lat))
	values.Set("longitude", fmt.Sprintf("%f", coords.Lon))
	values.Set("hourly", "temperature_2m,relative_humidity_2m,wind_speed_10m,wind_direction_10m,precipitation,weather_code")
	values.Set("wind_speed_unit", "kmh")
	values.Set("timezone", "auto")
	values.Set("forecast_days", fmt.Sprintf("%d", weather.MaxForecastDays))

	var payload omResponse
	if err := getJSON(ctx, p.httpCfg, p.circuit, p.baseURL+"/v1/forecast?"+values.Encode(), &payload); err != nil {
		return nil, err
	}

	h := payload.Hourly
	n := len(h.Time)
	if len(h.Temperature) < n || len(h.RelativeHumidity) < n || len(h.WindSpeed) < n ||
		len(h.WindDirection) < n || len(h.Precipitation) < n || len(h.WeatherCode) < n {
		return nil, fmt.Errorf("%w: hourly arrays have mismatched lengths", errMalformed)
	}

	zone := time.FixedZone("", payload.UTCOffsetSeconds)
	readings := make([]weather.Reading, 0, n)
	for i := 0; i < n; i++ {
		ts, err := time.ParseInLocation("2006-01-02T15:04", h.Time[i], zone)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errMalformed, err)
		}
		readings = append(readings, weather.Reading{
			Timestamp:    ts,
			TemperatureC: h.Temperature[i],
			HumidityPct:  h.RelativeHumidity[i],
			WindSpeedKph: h.WindSpeed[i],
			WindDeg:      h.WindDirection[i],
			PrecipMm:     h.Precipitation[i],
			Condition:    mapOpenMeteoCondition(h.WeatherCode[i]),
		})
	}

	name := coords.Name
	if name == "" {
		name = loc.PostalCode
	}
	return dailyForecasts(readings, name, loc.PostalCode, weather.MaxForecastDays), nil
}

func mapOpenMeteoCondition(code int) weather.Condition {
	// Mapping based on WMO weather interpretation codes (simplified).
	switch {
	case code == 0:
		return weather.ConditionClear
	case code >= 1 && code <= 3:
		return weather.ConditionCloudy
	case code == 45 || code == 48:
		return weather.ConditionMist
	case (code >= 51 && code <= 67) || (code >= 80 && code <= 82):
		return weather.ConditionRain
	case (code >= 71 && code <= 77) || code == 85 || code == 86:
		return weather.ConditionSnow
	case code >= 95:
		return weather.ConditionStorm
	default:
		return weather.ConditionUnknown
	}
}
