package datastructure

import (
	"math"

	"github.com/twpayne/go-polyline"
)

const (
	earthRadiusM = 6371000.0

	// coordinates closer than this (degrees) compare as equal.
	coordinateEpsilon = 1e-9
)

type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func NewCoordinate(lat, lon float64) Coordinate {
	return Coordinate{
		Lat: lat,
		Lon: lon,
	}
}

func NewCoordinates(lat, lon []float64) []Coordinate {
	coords := make([]Coordinate, len(lat))
	for i := range lat {
		coords[i] = NewCoordinate(lat[i], lon[i])
	}
	return coords
}

// Distance great-circle distance to other in meters.
func (c Coordinate) Distance(other Coordinate) float64 {
	latOne := c.Lat * math.Pi / 180
	latTwo := other.Lat * math.Pi / 180
	dLat := latTwo - latOne
	dLon := (other.Lon - c.Lon) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(latOne)*math.Cos(latTwo)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusM * math.Asin(math.Min(1, math.Sqrt(a)))
}

// Compare total order on (lat, lon). returns -1, 0 or 1.
func Compare(a, b Coordinate) int {
	if d := a.Lat - b.Lat; math.Abs(d) > coordinateEpsilon {
		if d < 0 {
			return -1
		}
		return 1
	}
	if d := a.Lon - b.Lon; math.Abs(d) > coordinateEpsilon {
		if d < 0 {
			return -1
		}
		return 1
	}
	return 0
}

func (c Coordinate) Equal(other Coordinate) bool {
	return Compare(c, other) == 0
}

func (c Coordinate) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180 &&
		!math.IsNaN(c.Lat) && !math.IsNaN(c.Lon)
}

// PathLength sum of great-circle distances along path, in meters.
func PathLength(path []Coordinate) float64 {
	total := 0.0
	for i := 1; i < len(path); i++ {
		total += path[i-1].Distance(path[i])
	}
	return total
}

func CreatePolyline(path []Coordinate) string {
	coords := make([][]float64, 0, len(path))
	for _, p := range path {
		coords = append(coords, []float64{p.Lat, p.Lon})
	}
	return string(polyline.EncodeCoords(coords))
}

func DecodePolyline(encoded string) ([]Coordinate, error) {
	coords, _, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, err
	}
	path := make([]Coordinate, 0, len(coords))
	for _, c := range coords {
		path = append(path, NewCoordinate(c[0], c[1]))
	}
	return path, nil
}
