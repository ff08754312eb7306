package geo

import "math"

const (
	earthRadiusKM = 6371.0
	earthRadiusM  = 6371000.0
)

func havFunction(angleRad float64) float64 {
	return (1 - math.Cos(angleRad)) / 2.0
}

func degreeToRadians(angle float64) float64 {
	return angle * (math.Pi / 180.0)
}

func radiansToDegree(angle float64) float64 {
	return angle * (180.0 / math.Pi)
}

// CalculateHaversineDistance in km.
func CalculateHaversineDistance(latOne, longOne, latTwo, longTwo float64) float64 {
	latOne = degreeToRadians(latOne)
	longOne = degreeToRadians(longOne)
	latTwo = degreeToRadians(latTwo)
	longTwo = degreeToRadians(longTwo)

	a := havFunction(latOne-latTwo) + math.Cos(latOne)*math.Cos(latTwo)*havFunction(longOne-longTwo)
	c := 2.0 * math.Asin(math.Sqrt(a))
	return earthRadiusKM * c
}

// GetDestinationPoint point reached from (lat, lon) after dist km on the given bearing (degrees).
func GetDestinationPoint(lat, lon, bearing, dist float64) (float64, float64) {
	dr := dist / earthRadiusKM
	bearing = degreeToRadians(bearing)
	lat1 := degreeToRadians(lat)
	lon1 := degreeToRadians(lon)

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(dr) + math.Cos(lat1)*math.Sin(dr)*math.Cos(bearing))
	lon2 := lon1 + math.Atan2(math.Sin(bearing)*math.Sin(dr)*math.Cos(lat1), math.Cos(dr)-math.Sin(lat1)*math.Sin(lat2))
	return radiansToDegree(lat2), radiansToDegree(lon2)
}
