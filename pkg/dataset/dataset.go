package dataset

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Prototyp3html/2025-CP-SafePathZamboanga-sub002/pkg/datastructure"
	"github.com/Prototyp3html/2025-CP-SafePathZamboanga-sub002/pkg/osmparser"
)

var ErrDatasetUnavailable = errors.New("dataset unavailable")

type Dataset struct {
	Segments     []datastructure.RoadSegment
	FloodRecords []datastructure.FloodRecord
}

// Load reads the road network (.geojson/.json or .osm.pbf/.osm) and, when floodsPath is not
// empty, the flood dataset. any failure is wrapped in ErrDatasetUnavailable.
func Load(ctx context.Context, roadsPath, floodsPath string) (Dataset, error) {
	var ds Dataset

	switch ext := strings.ToLower(filepath.Ext(roadsPath)); ext {
	case ".geojson", ".json":
		f, err := os.Open(roadsPath)
		if err != nil {
			return Dataset{}, fmt.Errorf("%w: %w", ErrDatasetUnavailable, err)
		}
		defer f.Close()
		ds.Segments, err = LoadRoadsGeoJSON(f)
		if err != nil {
			return Dataset{}, fmt.Errorf("%w: roads %s: %w", ErrDatasetUnavailable, roadsPath, err)
		}
	case ".pbf", ".osm", ".xml":
		res, err := osmparser.NewOSMParser().Parse(ctx, osmparser.FileScanner(roadsPath))
		if err != nil {
			return Dataset{}, fmt.Errorf("%w: roads %s: %w", ErrDatasetUnavailable, roadsPath, err)
		}
		ds.Segments = res.Segments
		ds.FloodRecords = res.FloodRecords
	default:
		return Dataset{}, fmt.Errorf("%w: unsupported road dataset %q", ErrDatasetUnavailable, roadsPath)
	}

	if len(ds.Segments) == 0 {
		return Dataset{}, fmt.Errorf("%w: roads %s contain no usable segments", ErrDatasetUnavailable, roadsPath)
	}

	if floodsPath != "" {
		f, err := os.Open(floodsPath)
		if err != nil {
			return Dataset{}, fmt.Errorf("%w: %w", ErrDatasetUnavailable, err)
		}
		defer f.Close()
		records, err := LoadFloodGeoJSON(f)
		if err != nil {
			return Dataset{}, fmt.Errorf("%w: floods %s: %w", ErrDatasetUnavailable, floodsPath, err)
		}
		ds.FloodRecords = append(ds.FloodRecords, records...)
	}
	return ds, nil
}
