package weather

import "time"

// SyntheticSource is the Source of forecasts built by Synthetic.
const SyntheticSource = "synthetic"

type seasonal struct {
	minC, maxC float64
}

// Southern-hemisphere seasonal averages, indexed by month.
var seasonalByMonth = map[time.Month]seasonal{
	time.December: {18, 27}, time.January: {19, 28}, time.February: {19, 28},
	time.March: {16, 25}, time.April: {13, 22}, time.May: {10, 19},
	time.June: {8, 16}, time.July: {7, 16}, time.August: {8, 17},
	time.September: {10, 20}, time.October: {12, 22}, time.November: {15, 24},
}

// Synthetic builds a single average-seasonal forecast for postalCode on the day
// of now. The result depends only on its inputs.
func Synthetic(postalCode string, now time.Time) Forecast {
	s := seasonalByMonth[now.Month()]
	return Forecast{
		Location:           postalCode + " (seasonal average)",
		PostalCode:         postalCode,
		Date:               dayStart(now),
		TempMinC:           s.minC,
		TempMaxC:           s.maxC,
		HumidityPct:        60,
		WindSpeedKph:       10,
		WindDirection:      CompassPoint(270),
		RainfallMm:         0,
		RainProbabilityPct: 20,
		Source:             SyntheticSource,
	}
}
