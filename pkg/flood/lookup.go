package flood

import (
	"github.com/Prototyp3html/2025-CP-SafePathZamboanga-sub002/pkg/datastructure"
	"github.com/Prototyp3html/2025-CP-SafePathZamboanga-sub002/pkg/util"
)

const DefaultCoordinatePrecision = 4 // ~11 m

type coordKey struct {
	lat, lon float64
}

// Lookup answers whether a road segment is flooded: the static flag, a flooded record keyed by the
// segment ID (or the ID of the feature it was split from), or any segment vertex that rounds to a
// flooded record coordinate. an unflooded ID record does not clear a coordinate match. a nil Lookup
// only reports the static flag.
type Lookup struct {
	bySegment map[string]datastructure.FloodRecord
	byCoord   map[coordKey]struct{}
	precision uint
}

func NewLookup(records []datastructure.FloodRecord, precision uint) *Lookup {
	if precision == 0 {
		precision = DefaultCoordinatePrecision
	}
	l := &Lookup{
		bySegment: make(map[string]datastructure.FloodRecord, len(records)),
		byCoord:   make(map[coordKey]struct{}),
		precision: precision,
	}
	for _, rec := range records {
		if rec.SegmentID != "" {
			l.bySegment[rec.SegmentID] = rec
		}
		if !rec.Flooded {
			continue
		}
		for _, c := range rec.Coordinates {
			l.byCoord[l.key(c)] = struct{}{}
		}
	}
	return l
}

func (l *Lookup) key(c datastructure.Coordinate) coordKey {
	return coordKey{lat: util.RoundFloat(c.Lat, l.precision), lon: util.RoundFloat(c.Lon, l.precision)}
}

func (l *Lookup) IsFlooded(seg *datastructure.RoadSegment) bool {
	if seg.Flooded {
		return true
	}
	if l == nil {
		return false
	}
	if rec, ok := l.record(seg); ok && rec.Flooded {
		return true
	}
	for _, c := range seg.Geometry {
		if _, ok := l.byCoord[l.key(c)]; ok {
			return true
		}
	}
	return false
}

// Elevation segment elevation, falling back to the elevation of a flood record for the segment.
func (l *Lookup) Elevation(seg *datastructure.RoadSegment) datastructure.ElevationSummary {
	if seg.Elevation.Known || l == nil {
		return seg.Elevation
	}
	if rec, ok := l.record(seg); ok && rec.Elevation.Known {
		return rec.Elevation
	}
	return seg.Elevation
}

func (l *Lookup) record(seg *datastructure.RoadSegment) (datastructure.FloodRecord, bool) {
	if rec, ok := l.bySegment[seg.ID]; ok {
		return rec, true
	}
	if source := seg.SourceID(); source != seg.ID {
		rec, ok := l.bySegment[source]
		return rec, ok
	}
	return datastructure.FloodRecord{}, false
}

func (l *Lookup) Size() int {
	if l == nil {
		return 0
	}
	return len(l.bySegment) + len(l.byCoord)
}
