package weather

import (
	"math"
	"sort"
	"time"
)

// SummarizeDay combines a day's sub-interval readings into a single Forecast.
// Temperature is min/maxed, humidity averaged, wind taken from the windiest
// reading, rainfall summed, and rain probability is the share of readings whose
// condition is precipitating. Spray fields are left for the caller to score.
func SummarizeDay(readings []Reading) Forecast {
	if len(readings) == 0 {
		return Forecast{WindDirection: CompassPoint(0)}
	}

	var (
		minTemp     = math.Inf(1)
		maxTemp     = math.Inf(-1)
		sumHumidity float64
		sumPrecip   float64
		wet         int
		windiest    = readings[0]
		earliest    = readings[0].Timestamp
	)

	for _, r := range readings {
		minTemp = math.Min(minTemp, r.TemperatureC)
		maxTemp = math.Max(maxTemp, r.TemperatureC)
		sumHumidity += r.HumidityPct
		sumPrecip += r.PrecipMm

		if r.Condition.Precipitating() {
			wet++
		}
		if r.WindSpeedKph > windiest.WindSpeedKph {
			windiest = r
		}
		if r.Timestamp.Before(earliest) {
			earliest = r.Timestamp
		}
	}

	n := float64(len(readings))

	return Forecast{
		Date:               dayStart(earliest),
		TempMinC:           round1(minTemp),
		TempMaxC:           round1(maxTemp),
		HumidityPct:        math.Round(sumHumidity / n),
		WindSpeedKph:       round1(windiest.WindSpeedKph),
		WindDirection:      CompassPoint(windiest.WindDeg),
		RainfallMm:         round1(sumPrecip),
		RainProbabilityPct: math.Round(float64(wet) / n * 100),
	}
}

// GroupByDay buckets readings by calendar day in their own location and returns
// the buckets in date order.
func GroupByDay(readings []Reading) [][]Reading {
	buckets := make(map[string][]Reading)
	for _, r := range readings {
		k := r.Timestamp.Format("2006-01-02")
		buckets[k] = append(buckets[k], r)
	}

	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	days := make([][]Reading, 0, len(keys))
	for _, k := range keys {
		days = append(days, buckets[k])
	}
	return days
}

func dayStart(ts time.Time) time.Time {
	return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, ts.Location())
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
