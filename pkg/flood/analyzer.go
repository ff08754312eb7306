package flood

import (
	"math"
	"sort"

	"github.com/Prototyp3html/2025-CP-SafePathZamboanga-sub002/pkg/datastructure"
	"github.com/Prototyp3html/2025-CP-SafePathZamboanga-sub002/pkg/geo"
	"github.com/Prototyp3html/2025-CP-SafePathZamboanga-sub002/pkg/spatial"
)

type Config struct {
	// SampleStep max length (m) of the pieces a path is cut into before testing.
	SampleStep float64 `yaml:"sample_step_m"`
	// BufferRadius a piece is flooded when its midpoint is this close (m) to a flooded segment.
	BufferRadius float64 `yaml:"buffer_radius_m"`
	// CoordinatePrecision decimals used to match flood record coordinates to segment vertices.
	CoordinatePrecision uint `yaml:"coordinate_precision"`
}

func DefaultConfig() Config {
	return Config{
		SampleStep:          20,
		BufferRadius:        50,
		CoordinatePrecision: DefaultCoordinatePrecision,
	}
}

// Analyzer scores arbitrary paths against the effectively flooded road segments. it does not
// depend on the routing graph, so routes from an external router are scored the same way.
type Analyzer struct {
	cfg     Config
	lookup  *Lookup
	flooded []datastructure.RoadSegment
	index   *spatial.Index
}

func NewAnalyzer(segments []datastructure.RoadSegment, lookup *Lookup, cfg Config) *Analyzer {
	def := DefaultConfig()
	if cfg.SampleStep <= 0 {
		cfg.SampleStep = def.SampleStep
	}
	if cfg.BufferRadius <= 0 {
		cfg.BufferRadius = def.BufferRadius
	}

	a := &Analyzer{
		cfg:    cfg,
		lookup: lookup,
		index:  spatial.NewIndex(),
	}
	for i := range segments {
		seg := &segments[i]
		if !lookup.IsFlooded(seg) {
			continue
		}
		a.index.InsertLine(len(a.flooded), seg.Geometry)
		a.flooded = append(a.flooded, *seg)
	}
	return a
}

// FloodedSegmentCount number of segments the analyzer treats as flooded.
func (a *Analyzer) FloodedSegmentCount() int {
	return len(a.flooded)
}

func (a *Analyzer) Lookup() *Lookup {
	return a.lookup
}

func (a *Analyzer) Analyze(coords []datastructure.Coordinate, weather datastructure.Weather) datastructure.FloodAnalysisResult {
	var floodedDist, totalDist float64
	matched := make(map[string]struct{})

	for i := 1; i < len(coords); i++ {
		from, to := coords[i-1], coords[i]
		dist := from.Distance(to)
		if dist == 0 {
			continue
		}
		totalDist += dist

		pieces := int(math.Ceil(dist / a.cfg.SampleStep))
		pieceLength := dist / float64(pieces)
		for k := 0; k < pieces; k++ {
			mid := geo.Interpolate(from, to, (float64(k)+0.5)/float64(pieces))
			hits := a.index.Near(mid, a.cfg.BufferRadius)
			if len(hits) == 0 {
				continue
			}
			floodedDist += pieceLength
			for _, hit := range hits {
				matched[a.flooded[hit.ID].ID] = struct{}{}
			}
		}
	}

	floodedPct := 0.0
	if totalDist > 0 {
		floodedPct = math.Min(100, floodedDist/totalDist*100)
	}
	multiplier := WeatherMultiplier(weather)
	impact := Impact(weather)
	effective := math.Min(100, floodedPct*multiplier)

	ids := make([]string, 0, len(matched))
	for id := range matched {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return datastructure.FloodAnalysisResult{
		FloodedDistance:     floodedDist,
		SafeDistance:        math.Max(0, totalDist-floodedDist),
		TotalDistance:       totalDist,
		FloodedPercentage:   floodedPct,
		EffectivePercentage: effective,
		RiskLevel:           ClassifyRisk(effective, impact),
		WeatherImpact:       impact,
		WeatherMultiplier:   multiplier,
		FloodedSegments:     ids,
	}
}
