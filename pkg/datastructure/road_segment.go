package datastructure

import (
	"fmt"
	"strconv"
	"strings"
)

type TravelMode string

const (
	Car        TravelMode = "car"
	Motorcycle TravelMode = "motorcycle"
	Bicycle    TravelMode = "bicycle"
	Walking    TravelMode = "walking"
)

var TravelModes = []TravelMode{Car, Motorcycle, Bicycle, Walking}

func ParseTravelMode(s string) (TravelMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "car", "driving", "drive":
		return Car, nil
	case "motorcycle", "motorbike", "motor":
		return Motorcycle, nil
	case "bicycle", "bike", "cycling":
		return Bicycle, nil
	case "walking", "walk", "foot", "pedestrian":
		return Walking, nil
	}
	return "", fmt.Errorf("unknown travel mode %q", s)
}

// SpeedKmH average travel speed used for duration estimates.
func (m TravelMode) SpeedKmH() float64 {
	switch m {
	case Motorcycle:
		return 45
	case Bicycle:
		return 15
	case Walking:
		return 5
	default:
		return 40
	}
}

func (m TravelMode) bit() ModeSet {
	switch m {
	case Car:
		return 1 << 0
	case Motorcycle:
		return 1 << 1
	case Bicycle:
		return 1 << 2
	case Walking:
		return 1 << 3
	}
	return 0
}

// ModeSet bitmask of travel modes allowed on a segment.
type ModeSet uint8

const (
	AllModes     ModeSet = 0b1111
	VehicleModes ModeSet = 0b0011
)

func NewModeSet(modes ...TravelMode) ModeSet {
	var s ModeSet
	for _, m := range modes {
		s |= m.bit()
	}
	return s
}

func (s ModeSet) Allows(m TravelMode) bool {
	return s&m.bit() != 0
}

func (s ModeSet) With(m TravelMode) ModeSet {
	return s | m.bit()
}

func (s ModeSet) Without(m TravelMode) ModeSet {
	return s &^ m.bit()
}

type RoadClass string

const (
	Motorway     RoadClass = "motorway"
	Trunk        RoadClass = "trunk"
	Primary      RoadClass = "primary"
	Secondary    RoadClass = "secondary"
	Tertiary     RoadClass = "tertiary"
	Unclassified RoadClass = "unclassified"
	Residential  RoadClass = "residential"
	LivingStreet RoadClass = "living_street"
	Service      RoadClass = "service"
	Track        RoadClass = "track"
	Path         RoadClass = "path"
	Footway      RoadClass = "footway"
	Cycleway     RoadClass = "cycleway"
	Pedestrian   RoadClass = "pedestrian"
	Steps        RoadClass = "steps"
)

// ParseRoadClass maps an osm highway value to a RoadClass. link roads take the class of their parent.
func ParseRoadClass(highway string) (RoadClass, bool) {
	highway = strings.TrimSuffix(strings.ToLower(highway), "_link")
	switch RoadClass(highway) {
	case Motorway, Trunk, Primary, Secondary, Tertiary, Unclassified, Residential, LivingStreet,
		Service, Track, Path, Footway, Cycleway, Pedestrian, Steps:
		return RoadClass(highway), true
	case "road":
		return Unclassified, true
	case "bridleway", "corridor", "sidewalk", "crossing":
		return Footway, true
	}
	return "", false
}

// DefaultModes modes physically able to use a road of this class.
func (c RoadClass) DefaultModes() ModeSet {
	switch c {
	case Motorway, Trunk:
		return VehicleModes
	case Footway, Pedestrian, Steps:
		return NewModeSet(Walking)
	case Cycleway:
		return NewModeSet(Bicycle, Walking)
	case Path:
		return NewModeSet(Bicycle, Walking, Motorcycle)
	default:
		return AllModes
	}
}

type ElevationSummary struct {
	Mean  float64 `json:"mean"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Known bool    `json:"known"`
}

func NewElevationSummary(mean, min, max float64) ElevationSummary {
	return ElevationSummary{Mean: mean, Min: min, Max: max, Known: true}
}

type RoadSegment struct {
	ID        string
	Geometry  []Coordinate
	Class     RoadClass
	Flooded   bool
	Elevation ElevationSummary
	Length    float64 // meter
	Modes     ModeSet
	OneWay    bool
}

// NewRoadSegment derives length and allowed modes. modes == 0 means the class defaults.
func NewRoadSegment(id string, geometry []Coordinate, class RoadClass, flooded bool,
	elevation ElevationSummary, modes ModeSet, oneWay bool) RoadSegment {
	if modes == 0 {
		modes = class.DefaultModes()
	}
	return RoadSegment{
		ID:        id,
		Geometry:  geometry,
		Class:     class,
		Flooded:   flooded,
		Elevation: elevation,
		Length:    PathLength(geometry),
		Modes:     modes,
		OneWay:    oneWay,
	}
}

// PartID id of part k of a multi part source feature.
func PartID(sourceID string, k int) string {
	return sourceID + "#" + strconv.Itoa(k)
}

// SourceID id of the feature the segment was read from: the ID without a PartID suffix.
func (s *RoadSegment) SourceID() string {
	i := strings.LastIndexByte(s.ID, '#')
	if i <= 0 || i == len(s.ID)-1 {
		return s.ID
	}
	if _, err := strconv.Atoi(s.ID[i+1:]); err != nil {
		return s.ID
	}
	return s.ID[:i]
}

func (s *RoadSegment) AllowsMode(m TravelMode) bool {
	return s.Modes.Allows(m)
}

func (s *RoadSegment) Validate() error {
	if len(s.Geometry) < 2 {
		return fmt.Errorf("road segment %s: need at least 2 points, got %d", s.ID, len(s.Geometry))
	}
	for _, c := range s.Geometry {
		if !c.Valid() {
			return fmt.Errorf("road segment %s: invalid coordinate %v", s.ID, c)
		}
	}
	return nil
}
