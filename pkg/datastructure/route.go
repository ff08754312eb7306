package datastructure

import "time"

type RiskProfile string

const (
	Safe       RiskProfile = "safe"
	Manageable RiskProfile = "manageable"
	Prone      RiskProfile = "prone"
)

// RiskProfiles in order of decreasing flood avoidance.
var RiskProfiles = []RiskProfile{Safe, Manageable, Prone}

type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskModerate RiskLevel = "moderate"
	RiskHigh     RiskLevel = "high"
	RiskSevere   RiskLevel = "severe"
)

// Rank ordinal of the level, low = 0.
func (l RiskLevel) Rank() int {
	switch l {
	case RiskModerate:
		return 1
	case RiskHigh:
		return 2
	case RiskSevere:
		return 3
	}
	return 0
}

type WeatherImpact string

const (
	ImpactNone     WeatherImpact = "none"
	ImpactLow      WeatherImpact = "low"
	ImpactModerate WeatherImpact = "moderate"
	ImpactHigh     WeatherImpact = "high"
	ImpactSevere   WeatherImpact = "severe"
)

var weatherImpacts = []WeatherImpact{ImpactNone, ImpactLow, ImpactModerate, ImpactHigh, ImpactSevere}

func (w WeatherImpact) Rank() int {
	for i, v := range weatherImpacts {
		if v == w {
			return i
		}
	}
	return 0
}

// Raise returns the next stronger impact, saturating at severe.
func (w WeatherImpact) Raise() WeatherImpact {
	r := w.Rank()
	if r+1 >= len(weatherImpacts) {
		return ImpactSevere
	}
	return weatherImpacts[r+1]
}

// Weather current reading supplied by the caller.
type Weather struct {
	PrecipitationMMHr float64 `json:"precipitation_mm_hr"`
	WindKPH           float64 `json:"wind_kph"`
}

type FloodAnalysisResult struct {
	FloodedDistance     float64       `json:"flooded_distance_m"`
	SafeDistance        float64       `json:"safe_distance_m"`
	TotalDistance       float64       `json:"total_distance_m"`
	FloodedPercentage   float64       `json:"flooded_percentage"`
	EffectivePercentage float64       `json:"effective_percentage"`
	RiskLevel           RiskLevel     `json:"risk_level"`
	WeatherImpact       WeatherImpact `json:"weather_impact"`
	WeatherMultiplier   float64       `json:"weather_multiplier"`
	FloodedSegments     []string      `json:"flooded_segments,omitempty"`
}

type RouteSource string

const (
	SourceGraph        RouteSource = "graph"
	SourceExternal     RouteSource = "external"
	SourceStraightLine RouteSource = "straight_line"
)

type Route struct {
	Label         RiskProfile
	SearchProfile RiskProfile
	Source        RouteSource
	Degraded      bool
	Coordinates   []Coordinate
	Polyline      string
	SegmentIDs    []string
	Distance      float64 // meter
	Duration      time.Duration
	FloodAnalysis FloodAnalysisResult
}

func EstimateDuration(distance float64, mode TravelMode) time.Duration {
	hours := distance / 1000 / mode.SpeedKmH()
	return time.Duration(hours * float64(time.Hour))
}
