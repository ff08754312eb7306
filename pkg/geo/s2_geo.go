package geo

import (
	"math"

	"github.com/Prototyp3html/2025-CP-SafePathZamboanga-sub002/pkg/datastructure"

	"github.com/golang/geo/s2"
)

func toS2(c datastructure.Coordinate) s2.Point {
	return s2.PointFromLatLng(s2.LatLngFromDegrees(c.Lat, c.Lon))
}

// PointLinePerpendicularDistance great-circle distance in meters from p to the segment (a, b).
func PointLinePerpendicularDistance(a, b, p datastructure.Coordinate) float64 {
	if a.Equal(b) {
		return a.Distance(p)
	}
	return s2.DistanceFromSegment(toS2(p), toS2(a), toS2(b)).Radians() * earthRadiusM
}

// PointPolylineDistance minimum distance in meters from p to any piece of line.
func PointPolylineDistance(p datastructure.Coordinate, line []datastructure.Coordinate) float64 {
	if len(line) == 0 {
		return math.Inf(1)
	}
	if len(line) == 1 {
		return line[0].Distance(p)
	}
	minDist := math.Inf(1)
	for i := 0; i < len(line)-1; i++ {
		d := PointLinePerpendicularDistance(line[i], line[i+1], p)
		if d < minDist {
			minDist = d
		}
	}
	return minDist
}

// Interpolate point at fraction t (0..1) between a and b.
func Interpolate(a, b datastructure.Coordinate, t float64) datastructure.Coordinate {
	ll := s2.LatLngFromPoint(s2.Interpolate(t, toS2(a), toS2(b)))
	return datastructure.NewCoordinate(ll.Lat.Degrees(), ll.Lng.Degrees())
}

type BoundingBox struct {
	MinLat, MinLon, MaxLat, MaxLon float64
}

// BoundingBoxAround box that contains every point within radius meters of c.
func BoundingBoxAround(c datastructure.Coordinate, radius float64) BoundingBox {
	upperLat, upperLon := GetDestinationPoint(c.Lat, c.Lon, 45, math.Sqrt2*radius/1000)
	lowerLat, lowerLon := GetDestinationPoint(c.Lat, c.Lon, 225, math.Sqrt2*radius/1000)
	return BoundingBox{MinLat: lowerLat, MinLon: lowerLon, MaxLat: upperLat, MaxLon: upperLon}
}

func (bb BoundingBox) Contains(c datastructure.Coordinate) bool {
	return c.Lat >= bb.MinLat && c.Lat <= bb.MaxLat && c.Lon >= bb.MinLon && c.Lon <= bb.MaxLon
}
