package providers

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/spray-advisory/internal/common"
	"github.com/i474232898/spray-advisory/internal/resilience"
	"github.com/i474232898/spray-advisory/internal/weather"
)

// WeatherAPIProvider implements weather.Provider for WeatherAPI.com. It builds
// a single day from the current observation and today's hourly slots.
type WeatherAPIProvider struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg resilience.HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewWeatherAPIProvider(cfg resilience.HTTPClientConfig, apiKey, baseURL string) *WeatherAPIProvider {
	if baseURL == "" {
		baseURL = "https://api.weatherapi.com"
	}
	return &WeatherAPIProvider{
		name:    "weatherapi",
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpCfg: cfg,
		circuit: resilience.NewBreaker("weatherapi"),
	}
}

func (p *WeatherAPIProvider) Name() string {
	return p.name
}

type waCondition struct {
	Text string `json:"text"`
}

type waSample struct {
	TimeEpoch  int64       `json:"time_epoch"`
	TempC      float64     `json:"temp_c"`
	Humidity   float64     `json:"humidity"`
	WindKph    float64     `json:"wind_kph"`
	WindDegree float64     `json:"wind_degree"`
	PrecipMm   float64     `json:"precip_mm"`
	Condition  waCondition `json:"condition"`
}

type waResponse struct {
	Location struct {
		Name           string `json:"name"`
		TzID           string `json:"tz_id"`
		LocaltimeEpoch int64  `json:"localtime_epoch"`
	} `json:"location"`
	Current *waSample `json:"current"`
	Forecast struct {
		ForecastDay []struct {
			Hour []waSample `json:"hour"`
		} `json:"forecastday"`
	} `json:"forecast"`
}

func (p *WeatherAPIProvider) Fetch(ctx context.Context, loc weather.Location) ([]weather.Forecast, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("%w: weatherapi api key is not configured", errNotConfigured)
	}

	values := url.Values{}
	values.Set("key", p.apiKey)
	// WeatherAPI accepts postcodes directly in "q".
	q := loc.PostalCode
	if loc.Country != "" {
		q = fmt.Sprintf("%s,%s", loc.PostalCode, loc.Country)
	}
	values.Set("q", q)
	values.Set("days", "1")

	var payload waResponse
	if err := getJSON(ctx, p.httpCfg, p.circuit, p.baseURL+"/v1/forecast.json?"+values.Encode(), &payload); err != nil {
		return nil, err
	}
	if payload.Current == nil {
		return nil, fmt.Errorf("%w: missing current observation", errMalformed)
	}

	zone := time.UTC
	if tz, err := time.LoadLocation(payload.Location.TzID); err == nil && payload.Location.TzID != "" {
		zone = tz
	}

	var hours []waSample
	if len(payload.Forecast.ForecastDay) > 0 {
		hours = payload.Forecast.ForecastDay[0].Hour
	}

	readings := make([]weather.Reading, 0, len(hours)+1)
	for _, h := range hours {
		readings = append(readings, p.reading(h, zone))
	}

	cur := *payload.Current
	if cur.TimeEpoch == 0 {
		cur.TimeEpoch = payload.Location.LocaltimeEpoch
	}
	current := p.reading(cur, zone)
	if len(readings) == 0 {
		readings = append(readings, current)
	}

	day := weather.SummarizeDay(readings)
	// The current observation wins for the instantaneous fields.
	day.WindSpeedKph = current.WindSpeedKph
	day.WindDirection = weather.CompassPoint(current.WindDeg)
	day.HumidityPct = current.HumidityPct
	if current.Timestamp.Unix() > 0 {
		day.Date = time.Date(current.Timestamp.Year(), current.Timestamp.Month(), current.Timestamp.Day(), 0, 0, 0, 0, zone)
	}
	day.Location = payload.Location.Name
	day.PostalCode = loc.PostalCode

	return []weather.Forecast{day}, nil
}

func (p *WeatherAPIProvider) reading(s waSample, zone *time.Location) weather.Reading {
	return weather.Reading{
		Timestamp:    time.Unix(s.TimeEpoch, 0).In(zone),
		TemperatureC: s.TempC,
		HumidityPct:  s.Humidity,
		WindSpeedKph: s.WindKph,
		WindDeg:      s.WindDegree,
		PrecipMm:     s.PrecipMm,
		Condition:    mapWeatherAPICondition(s.Condition.Text),
	}
}

func mapWeatherAPICondition(text string) weather.Condition {
	switch {
	case text == "":
		return weather.ConditionUnknown
	case common.ContainsFold(text, "thunder") || common.ContainsFold(text, "storm"):
		return weather.ConditionStorm
	case common.ContainsFold(text, "rain") || common.ContainsFold(text, "shower") || common.ContainsFold(text, "drizzle"):
		return weather.ConditionRain
	case common.ContainsFold(text, "snow") || common.ContainsFold(text, "sleet") || common.ContainsFold(text, "blizzard"):
		return weather.ConditionSnow
	case common.ContainsFold(text, "mist") || common.ContainsFold(text, "fog"):
		return weather.ConditionMist
	case common.ContainsFold(text, "cloud") || common.ContainsFold(text, "overcast"):
		return weather.ConditionCloudy
	case common.ContainsFold(text, "sunny") || common.ContainsFold(text, "clear"):
		return weather.ConditionClear
	default:
		return weather.ConditionUnknown
	}
}
