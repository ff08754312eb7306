package dataset

import (
	"fmt"
	"io"

	"github.com/Prototyp3html/2025-CP-SafePathZamboanga-sub002/pkg/datastructure"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/pkg/errors"
	"golang.org/x/exp/slog"
)

func readFeatureCollection(r io.Reader) (*geojson.FeatureCollection, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read geojson")
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, errors.Wrap(err, "decode geojson feature collection")
	}
	return fc, nil
}

func toCoordinates(ls orb.LineString) []datastructure.Coordinate {
	coords := make([]datastructure.Coordinate, 0, len(ls))
	for _, p := range ls {
		coords = append(coords, datastructure.NewCoordinate(p.Lat(), p.Lon()))
	}
	return coords
}

func featureID(f *geojson.Feature, index int) string {
	if id, ok := propString(f.Properties, "osm_id", "id", "segment_id", "way_id"); ok {
		return id
	}
	if f.ID != nil {
		if id, ok := propString(geojson.Properties{"id": f.ID}, "id"); ok {
			return id
		}
	}
	return fmt.Sprintf("feature-%d", index)
}

func restrict(modes datastructure.ModeSet, props geojson.Properties, key string,
	affected ...datastructure.TravelMode) datastructure.ModeSet {
	allowed, ok := propBool(props, key)
	if !ok {
		return modes
	}
	for _, m := range affected {
		if allowed {
			modes = modes.With(m)
		} else {
			modes = modes.Without(m)
		}
	}
	return modes
}

// LoadRoadsGeoJSON reads LineString and MultiLineString features as road segments. features with
// other geometries or unroutable highway values are skipped.
func LoadRoadsGeoJSON(r io.Reader) ([]datastructure.RoadSegment, error) {
	fc, err := readFeatureCollection(r)
	if err != nil {
		return nil, err
	}

	segments := make([]datastructure.RoadSegment, 0, len(fc.Features))
	skipped := 0
	for i, f := range fc.Features {
		var lines []orb.LineString
		switch g := f.Geometry.(type) {
		case orb.LineString:
			lines = []orb.LineString{g}
		case orb.MultiLineString:
			lines = g
		default:
			skipped++
			continue
		}

		class := datastructure.Unclassified
		if highway, ok := propString(f.Properties, "highway", "road_type", "class"); ok {
			parsed, ok := datastructure.ParseRoadClass(highway)
			if !ok {
				skipped++
				continue
			}
			class = parsed
		}

		flooded, _ := propBool(f.Properties, "flooded", "flood_prone", "is_flooded")
		oneWay, _ := propBool(f.Properties, "oneway", "one_way")

		elevation := datastructure.ElevationSummary{}
		if mean, ok := propFloat(f.Properties, "elev_mean", "elevation_mean", "elevation"); ok {
			minEle, okMin := propFloat(f.Properties, "elev_min", "elevation_min")
			maxEle, okMax := propFloat(f.Properties, "elev_max", "elevation_max")
			if !okMin {
				minEle = mean
			}
			if !okMax {
				maxEle = mean
			}
			elevation = datastructure.NewElevationSummary(mean, minEle, maxEle)
		}

		modes := class.DefaultModes()
		modes = restrict(modes, f.Properties, "foot", datastructure.Walking)
		modes = restrict(modes, f.Properties, "bicycle", datastructure.Bicycle)
		modes = restrict(modes, f.Properties, "motor_vehicle", datastructure.Car, datastructure.Motorcycle)
		if modes == 0 {
			skipped++
			continue
		}

		id := featureID(f, i)
		for k, line := range lines {
			segID := id
			if len(lines) > 1 {
				segID = datastructure.PartID(id, k)
			}
			seg := datastructure.NewRoadSegment(segID, toCoordinates(line), class, flooded, elevation, modes, oneWay)
			if err := seg.Validate(); err != nil {
				skipped++
				continue
			}
			segments = append(segments, seg)
		}
	}

	slog.Info("road geojson loaded", "segments", len(segments), "skipped", skipped)
	return segments, nil
}

// LoadFloodGeoJSON reads flood records. Point, MultiPoint and line geometries provide the
// coordinates used for coordinate matching, features without geometry only match by segment id.
func LoadFloodGeoJSON(r io.Reader) ([]datastructure.FloodRecord, error) {
	fc, err := readFeatureCollection(r)
	if err != nil {
		return nil, err
	}

	records := make([]datastructure.FloodRecord, 0, len(fc.Features))
	for _, f := range fc.Features {
		rec := datastructure.FloodRecord{Flooded: true}
		if id, ok := propString(f.Properties, "osm_id", "segment_id", "way_id", "id"); ok {
			rec.SegmentID = id
		}
		if flooded, ok := propBool(f.Properties, "flooded", "flood_prone", "is_flooded"); ok {
			rec.Flooded = flooded
		}
		if mean, ok := propFloat(f.Properties, "elev_mean", "elevation_mean", "elevation"); ok {
			minEle, okMin := propFloat(f.Properties, "elev_min", "elevation_min")
			maxEle, okMax := propFloat(f.Properties, "elev_max", "elevation_max")
			if !okMin {
				minEle = mean
			}
			if !okMax {
				maxEle = mean
			}
			rec.Elevation = datastructure.NewElevationSummary(mean, minEle, maxEle)
		}

		switch g := f.Geometry.(type) {
		case orb.Point:
			rec.Coordinates = []datastructure.Coordinate{datastructure.NewCoordinate(g.Lat(), g.Lon())}
		case orb.MultiPoint:
			rec.Coordinates = toCoordinates(orb.LineString(g))
		case orb.LineString:
			rec.Coordinates = toCoordinates(g)
		case orb.MultiLineString:
			for _, line := range g {
				rec.Coordinates = append(rec.Coordinates, toCoordinates(line)...)
			}
		}

		if rec.SegmentID == "" && len(rec.Coordinates) == 0 {
			continue
		}
		records = append(records, rec)
	}

	slog.Info("flood geojson loaded", "records", len(records))
	return records, nil
}
