package kv

import (
	"github.com/Prototyp3html/2025-CP-SafePathZamboanga-sub002/pkg/datastructure"

	"github.com/kelindar/binary"
)

type kvSegment struct {
	ID        string
	Lat       []float64
	Lon       []float64
	Class     string
	Flooded   bool
	Elevation [3]float64 // mean, min, max
	HasElev   bool
	Modes     uint8
	OneWay    bool
}

type kvFloodRecord struct {
	Seq       int // position in the source dataset, later records override earlier ones
	SegmentID string
	Flooded   bool
	Lat       []float64
	Lon       []float64
	Elevation [3]float64
	HasElev   bool
}

func splitCoords(coords []datastructure.Coordinate) ([]float64, []float64) {
	lat := make([]float64, len(coords))
	lon := make([]float64, len(coords))
	for i, c := range coords {
		lat[i] = c.Lat
		lon[i] = c.Lon
	}
	return lat, lon
}

func joinCoords(lat, lon []float64) []datastructure.Coordinate {
	if len(lat) == 0 {
		return nil
	}
	return datastructure.NewCoordinates(lat, lon)
}

func elevationArr(e datastructure.ElevationSummary) [3]float64 {
	return [3]float64{e.Mean, e.Min, e.Max}
}

func elevationSummary(arr [3]float64, known bool) datastructure.ElevationSummary {
	if !known {
		return datastructure.ElevationSummary{}
	}
	return datastructure.NewElevationSummary(arr[0], arr[1], arr[2])
}

func toKVSegment(seg datastructure.RoadSegment) kvSegment {
	lat, lon := splitCoords(seg.Geometry)
	return kvSegment{
		ID:        seg.ID,
		Lat:       lat,
		Lon:       lon,
		Class:     string(seg.Class),
		Flooded:   seg.Flooded,
		Elevation: elevationArr(seg.Elevation),
		HasElev:   seg.Elevation.Known,
		Modes:     uint8(seg.Modes),
		OneWay:    seg.OneWay,
	}
}

func (s kvSegment) toRoadSegment() datastructure.RoadSegment {
	return datastructure.NewRoadSegment(s.ID, joinCoords(s.Lat, s.Lon),
		datastructure.RoadClass(s.Class), s.Flooded, elevationSummary(s.Elevation, s.HasElev),
		datastructure.ModeSet(s.Modes), s.OneWay)
}

func toKVFloodRecord(seq int, rec datastructure.FloodRecord) kvFloodRecord {
	lat, lon := splitCoords(rec.Coordinates)
	return kvFloodRecord{
		Seq:       seq,
		SegmentID: rec.SegmentID,
		Flooded:   rec.Flooded,
		Lat:       lat,
		Lon:       lon,
		Elevation: elevationArr(rec.Elevation),
		HasElev:   rec.Elevation.Known,
	}
}

func (r kvFloodRecord) toFloodRecord() datastructure.FloodRecord {
	return datastructure.FloodRecord{
		SegmentID:   r.SegmentID,
		Flooded:     r.Flooded,
		Coordinates: joinCoords(r.Lat, r.Lon),
		Elevation:   elevationSummary(r.Elevation, r.HasElev),
	}
}

func encodeSegments(sw []kvSegment) ([]byte, error) {
	bb, err := binary.Marshal(sw)
	if err != nil {
		return nil, err
	}
	return compress(bb), nil
}

func loadSegments(bbCompressed []byte) ([]kvSegment, error) {
	bb, err := decompress(bbCompressed)
	if err != nil {
		return nil, err
	}
	var sw []kvSegment
	err = binary.Unmarshal(bb, &sw)
	return sw, err
}

func encodeFloodRecords(recs []kvFloodRecord) ([]byte, error) {
	bb, err := binary.Marshal(recs)
	if err != nil {
		return nil, err
	}
	return compress(bb), nil
}

func loadFloodRecords(bbCompressed []byte) ([]kvFloodRecord, error) {
	bb, err := decompress(bbCompressed)
	if err != nil {
		return nil, err
	}
	var recs []kvFloodRecord
	err = binary.Unmarshal(bb, &recs)
	return recs, err
}
