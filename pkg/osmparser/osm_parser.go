package osmparser

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/Prototyp3html/2025-CP-SafePathZamboanga-sub002/pkg/datastructure"

	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/paulmach/osm/osmxml"
	"github.com/pkg/errors"
	"golang.org/x/exp/slog"
)

type NodeType uint8

const (
	END_NODE NodeType = iota + 1
	BETWEEN_NODE
	JUNCTION_NODE
)

type nodeData struct {
	coord     datastructure.Coordinate
	elevation float64
	hasEle    bool
}

// wayData accepted way kept between the two passes.
type wayData struct {
	id      osm.WayID
	nodes   []osm.NodeID
	class   datastructure.RoadClass
	flooded bool
	modes   datastructure.ModeSet
	oneWay  bool
	reverse bool
}

type ParseResult struct {
	Segments []datastructure.RoadSegment
	// FloodRecords flood tagged nodes, matched to segments by coordinate.
	FloodRecords []datastructure.FloodRecord
}

// ScannerFactory opens a fresh scanner over the same data, the parser reads it twice.
type ScannerFactory func(ctx context.Context) (osm.Scanner, error)

type OsmParser struct {
	wayNodeMap map[osm.NodeID]NodeType
	nodes      map[osm.NodeID]nodeData
	ways       []wayData
	floodNodes map[osm.NodeID]struct{}
}

func NewOSMParser() *OsmParser {
	return &OsmParser{
		wayNodeMap: make(map[osm.NodeID]NodeType),
		nodes:      make(map[osm.NodeID]nodeData),
		floodNodes: make(map[osm.NodeID]struct{}),
	}
}

var skipHighway = map[string]struct{}{
	"construction": {},
	"proposed":     {},
	"abandoned":    {},
	"platform":     {},
	"bus_guideway": {},
	"raceway":      {},
	"elevator":     {},
	"escape":       {},
}

// FileScanner scanner factory for a .osm.pbf or .osm (xml) file.
func FileScanner(path string) ScannerFactory {
	return func(ctx context.Context) (osm.Scanner, error) {
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.Wrapf(err, "open openstreetmap file %s", path)
		}
		var scanner osm.Scanner
		if strings.HasSuffix(path, ".pbf") {
			scanner = osmpbf.New(ctx, f, 1)
		} else if ext := filepath.Ext(path); ext == ".osm" || ext == ".xml" {
			scanner = osmxml.New(ctx, f)
		} else {
			f.Close()
			return nil, errors.Errorf("unsupported openstreetmap file %s", path)
		}
		return &fileScanner{Scanner: scanner, f: f}, nil
	}
}

type fileScanner struct {
	osm.Scanner
	f *os.File
}

func (s *fileScanner) Close() error {
	err := s.Scanner.Close()
	if cerr := s.f.Close(); err == nil {
		err = cerr
	}
	return err
}

// Parse first pass collects accepted ways, second pass the coordinates and elevation of their nodes.
func (p *OsmParser) Parse(ctx context.Context, open ScannerFactory) (ParseResult, error) {
	scanner, err := open(ctx)
	if err != nil {
		return ParseResult{}, err
	}
	countWays := 0
	for scanner.Scan() {
		way, ok := scanner.Object().(*osm.Way)
		if !ok || len(way.Nodes) < 2 {
			continue
		}
		data, accepted := acceptOsmWay(way)
		if !accepted {
			continue
		}
		if (countWays+1)%50000 == 0 {
			slog.Info("reading openstreetmap ways", "count", countWays+1)
		}
		countWays++

		for i, node := range way.Nodes {
			if _, ok := p.wayNodeMap[node.ID]; !ok {
				if i == 0 || i == len(way.Nodes)-1 {
					p.wayNodeMap[node.ID] = END_NODE
				} else {
					p.wayNodeMap[node.ID] = BETWEEN_NODE
				}
			} else {
				p.wayNodeMap[node.ID] = JUNCTION_NODE
			}
			data.nodes = append(data.nodes, node.ID)
		}
		p.ways = append(p.ways, data)
	}
	err = scanner.Err()
	scanner.Close()
	if err != nil {
		return ParseResult{}, errors.Wrap(err, "scan openstreetmap ways")
	}

	scanner, err = open(ctx)
	if err != nil {
		return ParseResult{}, err
	}
	defer scanner.Close()
	for scanner.Scan() {
		node, ok := scanner.Object().(*osm.Node)
		if !ok {
			continue
		}
		if _, ok := p.wayNodeMap[node.ID]; !ok {
			continue
		}
		data := nodeData{coord: datastructure.NewCoordinate(node.Lat, node.Lon)}
		if ele, err := strconv.ParseFloat(strings.TrimSuffix(node.Tags.Find("ele"), " m"), 64); err == nil {
			data.elevation = ele
			data.hasEle = true
		}
		p.nodes[node.ID] = data
		if isFloodTagged(node.Tags) {
			p.floodNodes[node.ID] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		return ParseResult{}, errors.Wrap(err, "scan openstreetmap nodes")
	}

	return p.buildResult(), nil
}

func (p *OsmParser) buildResult() ParseResult {
	res := ParseResult{Segments: make([]datastructure.RoadSegment, 0, len(p.ways))}
	junctions := 0
	for _, way := range p.ways {
		geometry := make([]datastructure.Coordinate, 0, len(way.nodes))
		minEle, maxEle, sumEle, countEle := math.Inf(1), math.Inf(-1), 0.0, 0
		for _, id := range way.nodes {
			node, ok := p.nodes[id]
			if !ok {
				// clipped extract
				continue
			}
			if p.wayNodeMap[id] == JUNCTION_NODE {
				junctions++
			}
			geometry = append(geometry, node.coord)
			if node.hasEle {
				minEle = math.Min(minEle, node.elevation)
				maxEle = math.Max(maxEle, node.elevation)
				sumEle += node.elevation
				countEle++
			}
		}
		if len(geometry) < 2 {
			continue
		}
		if way.reverse {
			reversed := make([]datastructure.Coordinate, len(geometry))
			for i := range geometry {
				reversed[len(geometry)-1-i] = geometry[i]
			}
			geometry = reversed
		}

		elevation := datastructure.ElevationSummary{}
		if countEle > 0 {
			elevation = datastructure.NewElevationSummary(sumEle/float64(countEle), minEle, maxEle)
		}
		res.Segments = append(res.Segments, datastructure.NewRoadSegment(strconv.FormatInt(int64(way.id), 10),
			geometry, way.class, way.flooded, elevation, way.modes, way.oneWay))
	}

	floodNodes := make([]osm.NodeID, 0, len(p.floodNodes))
	for id := range p.floodNodes {
		floodNodes = append(floodNodes, id)
	}
	sort.Slice(floodNodes, func(i, j int) bool { return floodNodes[i] < floodNodes[j] })
	for _, id := range floodNodes {
		res.FloodRecords = append(res.FloodRecords, datastructure.FloodRecord{
			Flooded:     true,
			Coordinates: []datastructure.Coordinate{p.nodes[id].coord},
		})
	}

	slog.Info("openstreetmap parsed", "segments", len(res.Segments), "junction_nodes", junctions,
		"flood_nodes", len(res.FloodRecords))
	return res
}

func acceptOsmWay(way *osm.Way) (wayData, bool) {
	highway := way.Tags.Find("highway")
	if highway == "" {
		return wayData{}, false
	}
	if _, skip := skipHighway[highway]; skip {
		return wayData{}, false
	}
	class, ok := datastructure.ParseRoadClass(highway)
	if !ok {
		return wayData{}, false
	}

	modes := wayModes(way.Tags, class)
	if modes == 0 {
		return wayData{}, false
	}

	data := wayData{
		id:      way.ID,
		class:   class,
		flooded: isFloodTagged(way.Tags),
		modes:   modes,
	}
	switch way.Tags.Find("oneway") {
	case "yes", "true", "1":
		data.oneWay = true
	case "-1", "reverse":
		data.oneWay = true
		data.reverse = true
	}
	if way.Tags.Find("junction") == "roundabout" {
		data.oneWay = true
	}
	return data, true
}

func isRestricted(value string) bool {
	switch value {
	case "no", "private", "military", "emergency", "restricted", "permit":
		return true
	}
	return false
}

func isAllowed(value string) bool {
	switch value {
	case "yes", "designated", "permissive", "destination":
		return true
	}
	return false
}

// wayModes modes allowed by the class defaults refined with the access tags.
func wayModes(tags osm.Tags, class datastructure.RoadClass) datastructure.ModeSet {
	modes := class.DefaultModes()
	if isRestricted(tags.Find("access")) {
		modes = 0
	}

	if v := tags.Find("motor_vehicle"); isRestricted(v) {
		modes = modes.Without(datastructure.Car).Without(datastructure.Motorcycle)
	} else if isAllowed(v) {
		modes = modes.With(datastructure.Car).With(datastructure.Motorcycle)
	}
	if v := tags.Find("foot"); isRestricted(v) {
		modes = modes.Without(datastructure.Walking)
	} else if isAllowed(v) {
		modes = modes.With(datastructure.Walking)
	}
	if v := tags.Find("bicycle"); isRestricted(v) {
		modes = modes.Without(datastructure.Bicycle)
	} else if isAllowed(v) {
		modes = modes.With(datastructure.Bicycle)
	}
	return modes
}

func isFloodTagged(tags osm.Tags) bool {
	for _, key := range []string{"flood_prone", "flooded", "hazard:flood"} {
		switch tags.Find(key) {
		case "yes", "true", "1":
			return true
		}
	}
	return tags.Find("hazard") == "flooding"
}
