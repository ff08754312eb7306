package flood

import (
	"github.com/Prototyp3html/2025-CP-SafePathZamboanga-sub002/pkg/datastructure"
)

// WeatherMultiplier scale applied to the measured flooded percentage.
func WeatherMultiplier(w datastructure.Weather) float64 {
	multiplier := 1.0
	switch {
	case w.PrecipitationMMHr > 50:
		multiplier = 2.5
	case w.PrecipitationMMHr > 25:
		multiplier = 2.0
	case w.PrecipitationMMHr > 10:
		multiplier = 1.5
	case w.PrecipitationMMHr > 5:
		multiplier = 1.2
	}

	switch {
	case w.WindKPH > 60:
		multiplier *= 1.3
	case w.WindKPH > 40:
		multiplier *= 1.15
	}
	return multiplier
}

func Impact(w datastructure.Weather) datastructure.WeatherImpact {
	impact := datastructure.ImpactNone
	switch {
	case w.PrecipitationMMHr > 50:
		impact = datastructure.ImpactSevere
	case w.PrecipitationMMHr > 25:
		impact = datastructure.ImpactHigh
	case w.PrecipitationMMHr > 10:
		impact = datastructure.ImpactModerate
	case w.PrecipitationMMHr > 5:
		impact = datastructure.ImpactLow
	}
	if w.WindKPH > 60 {
		impact = impact.Raise()
	}
	return impact
}

// ClassifyRisk risk level of an effective flooded percentage. bad weather tightens the thresholds.
func ClassifyRisk(effectivePercentage float64, impact datastructure.WeatherImpact) datastructure.RiskLevel {
	lowMax, moderateMax := 20.0, 50.0
	if impact == datastructure.ImpactHigh || impact == datastructure.ImpactSevere {
		lowMax, moderateMax = 10.0, 30.0
	}

	switch {
	case effectivePercentage < lowMax:
		return datastructure.RiskLow
	case effectivePercentage < moderateMax:
		return datastructure.RiskModerate
	case effectivePercentage < 80:
		return datastructure.RiskHigh
	default:
		return datastructure.RiskSevere
	}
}
