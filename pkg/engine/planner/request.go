package planner

import (
	"errors"
	"fmt"

	"github.com/Prototyp3html/2025-CP-SafePathZamboanga-sub002/pkg/datastructure"
)

var ErrInvalidRequest = errors.New("invalid route request")

type Request struct {
	Start     datastructure.Coordinate
	End       datastructure.Coordinate
	Waypoints []datastructure.Coordinate
	Mode      datastructure.TravelMode
	Weather   datastructure.Weather
}

// Points start, waypoints and end in travel order.
func (r Request) Points() []datastructure.Coordinate {
	points := make([]datastructure.Coordinate, 0, len(r.Waypoints)+2)
	points = append(points, r.Start)
	points = append(points, r.Waypoints...)
	return append(points, r.End)
}

func (r Request) Validate() error {
	_, err := r.Normalize()
	return err
}

// Normalize validates r and returns a copy with the travel mode alias ("foot", "driving", ...)
// replaced by its canonical mode.
func (r Request) Normalize() (Request, error) {
	mode, err := datastructure.ParseTravelMode(string(r.Mode))
	if err != nil {
		return Request{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	r.Mode = mode
	for i, p := range r.Points() {
		if !p.Valid() {
			return Request{}, fmt.Errorf("%w: coordinate %d (%f, %f) out of range", ErrInvalidRequest, i, p.Lat, p.Lon)
		}
	}
	if r.Weather.PrecipitationMMHr < 0 || r.Weather.WindKPH < 0 {
		return Request{}, fmt.Errorf("%w: negative weather reading", ErrInvalidRequest)
	}
	return r, nil
}
