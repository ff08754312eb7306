package datastructure

// FloodRecord one entry of the flood dataset. SegmentID may be empty when the record only
// carries a location.
type FloodRecord struct {
	SegmentID   string
	Flooded     bool
	Coordinates []Coordinate
	Elevation   ElevationSummary
}
