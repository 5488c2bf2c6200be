package weather

// Warning texts produced by Score.
const (
	WarnHighWind      = "High wind speed - spray drift risk is severe, do not spray"
	WarnModerateWind  = "Moderate wind - risk of spray drift onto non-target areas"
	WarnHeavyRain     = "High chance of rain - product is likely to wash off"
	WarnPossibleRain  = "Rain possible - check the product's rainfast period before spraying"
	WarnHighTemp      = "High temperature - increased evaporation, volatilisation and crop stress"
	WarnLowHumidity   = "Low humidity - droplets evaporate quickly and drift further"
	WarnFungalDisease = "Warm, humid conditions - elevated fungal disease risk"
)

// Above this wind speed spraying is unsafe regardless of the other factors.
const hardStopWindKph = 25

type penalty struct {
	over   float64
	points int
}

// Brackets are checked highest first; only the first match applies.
var (
	windPenalties = []penalty{{25, 40}, {20, 30}, {15, 20}, {10, 10}}
	rainPenalties = []penalty{{80, 30}, {60, 20}, {40, 10}}
	heatPenalties = []penalty{{35, 25}, {30, 15}, {28, 5}}
)

// Score rates a forecast's suitability for spraying and lists advisory
// warnings. It depends only on the forecast's numeric fields.
func Score(f Forecast) (SprayCondition, []string) {
	score := 100
	score -= bracket(windPenalties, f.WindSpeedKph)
	score -= bracket(rainPenalties, f.RainProbabilityPct)
	score -= bracket(heatPenalties, f.TempMaxC)
	if f.HumidityPct < 30 {
		score -= 10
	}
	if f.HumidityPct > 90 {
		score -= 15
	}

	category := categorize(score)
	if f.WindSpeedKph > hardStopWindKph {
		category = SprayPoor
	}

	return category, warningsFor(f)
}

func bracket(table []penalty, v float64) int {
	for _, p := range table {
		if v > p.over {
			return p.points
		}
	}
	return 0
}

func categorize(score int) SprayCondition {
	switch {
	case score >= 85:
		return SprayExcellent
	case score >= 70:
		return SprayGood
	case score >= 50:
		return SprayMarginal
	default:
		return SprayPoor
	}
}

func warningsFor(f Forecast) []string {
	warnings := []string{}

	switch {
	case f.WindSpeedKph > 20:
		warnings = append(warnings, WarnHighWind)
	case f.WindSpeedKph > 15:
		warnings = append(warnings, WarnModerateWind)
	}

	switch {
	case f.RainProbabilityPct > 70:
		warnings = append(warnings, WarnHeavyRain)
	case f.RainProbabilityPct > 40:
		warnings = append(warnings, WarnPossibleRain)
	}

	if f.TempMaxC > 32 {
		warnings = append(warnings, WarnHighTemp)
	}

	if f.HumidityPct < 30 {
		warnings = append(warnings, WarnLowHumidity)
	} else if f.HumidityPct > 85 && f.TempMaxC > 25 {
		warnings = append(warnings, WarnFungalDisease)
	}

	return warnings
}
