package planner

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/Prototyp3html/2025-CP-SafePathZamboanga-sub002/pkg/datastructure"
	"github.com/Prototyp3html/2025-CP-SafePathZamboanga-sub002/pkg/engine/cost"
	"github.com/Prototyp3html/2025-CP-SafePathZamboanga-sub002/pkg/engine/routingalgorithm"
	"github.com/Prototyp3html/2025-CP-SafePathZamboanga-sub002/pkg/flood"
	"github.com/Prototyp3html/2025-CP-SafePathZamboanga-sub002/pkg/graph"
	"github.com/Prototyp3html/2025-CP-SafePathZamboanga-sub002/pkg/snap"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func road(id string, class datastructure.RoadClass, flooded bool, coords ...datastructure.Coordinate) datastructure.RoadSegment {
	return datastructure.NewRoadSegment(id, coords, class, flooded, datastructure.ElevationSummary{}, 0, false)
}

func newPlanner(t *testing.T, segments []datastructure.RoadSegment, floodCfg flood.Config,
	cfg Config, extra ...Strategy) *Planner {
	g, err := graph.Build(segments, graph.DefaultConfig())
	require.NoError(t, err)

	cm := cost.NewCostModel(cost.DefaultConfig(), nil)
	rt := routingalgorithm.NewRouteAlgorithm(g, cm, snap.NewRoadSnapper(g, 0), routingalgorithm.DefaultConfig())
	analyzer := flood.NewAnalyzer(g.Segments, nil, floodCfg)

	strategies := append([]Strategy{NewGraphStrategy(rt)}, extra...)
	return NewPlanner(analyzer, cfg, strategies...)
}

var (
	zStart = datastructure.NewCoordinate(6.9214, 122.0790)
	zEnd   = datastructure.NewCoordinate(6.9100, 122.0850)

	// direct road, flooded along its whole length
	zA1 = datastructure.NewCoordinate(6.9157, 122.0820)

	// ~350 m east of the direct road with a 200 m flooded stretch in the middle
	zB1  = datastructure.NewCoordinate(6.920008, 122.083310)
	zBm1 = datastructure.NewCoordinate(6.917955, 122.084390)
	zBm2 = datastructure.NewCoordinate(6.916361, 122.085230)
	zB2  = datastructure.NewCoordinate(6.914308, 122.086310)

	// ~950 m west of the direct road, dry
	zC1 = datastructure.NewCoordinate(6.915163, 122.072573)
	zC2 = datastructure.NewCoordinate(6.908323, 122.076172)
)

func zamboangaRoads() []datastructure.RoadSegment {
	return []datastructure.RoadSegment{
		road("a1", datastructure.Primary, true, zStart, zA1),
		road("a2", datastructure.Primary, true, zA1, zEnd),

		road("b1", datastructure.Primary, false, zStart, zB1),
		road("b2", datastructure.Primary, false, zB1, zBm1),
		road("b3", datastructure.Primary, true, zBm1, zBm2),
		road("b4", datastructure.Primary, false, zBm2, zB2),
		road("b5", datastructure.Primary, false, zB2, zEnd),

		road("c1", datastructure.Primary, false, zStart, zC1),
		road("c2", datastructure.Primary, false, zC1, zC2),
		road("c3", datastructure.Primary, false, zC2, zEnd),
	}
}

func routeByLabel(t *testing.T, set RouteSet, label datastructure.RiskProfile) datastructure.Route {
	for _, r := range set.Routes {
		if r.Label == label {
			return r
		}
	}
	t.Fatalf("no %s route", label)
	return datastructure.Route{}
}

func containsCoordinate(coords []datastructure.Coordinate, c datastructure.Coordinate) bool {
	for _, p := range coords {
		if p == c {
			return true
		}
	}
	return false
}

func TestBuildRoutesZamboanga(t *testing.T) {
	p := newPlanner(t, zamboangaRoads(), flood.DefaultConfig(), DefaultConfig())

	set, err := p.BuildRoutes(context.Background(), Request{Start: zStart, End: zEnd, Mode: datastructure.Car})
	require.NoError(t, err)
	require.Equal(t, 3, len(set.Routes))
	assert.Empty(t, set.Failures)
	assert.Empty(t, set.Warnings)

	safe := routeByLabel(t, set, datastructure.Safe)
	manageable := routeByLabel(t, set, datastructure.Manageable)
	prone := routeByLabel(t, set, datastructure.Prone)

	assert.Equal(t, datastructure.Safe, safe.SearchProfile)
	assert.Equal(t, datastructure.Manageable, manageable.SearchProfile)
	assert.Equal(t, datastructure.Prone, prone.SearchProfile)

	assert.Equal(t, []string{"c1", "c2", "c3"}, safe.SegmentIDs)
	assert.Equal(t, []string{"b1", "b2", "b3", "b4", "b5"}, manageable.SegmentIDs)
	assert.Equal(t, []string{"a1", "a2"}, prone.SegmentIDs)

	assert.Greater(t, safe.Distance, prone.Distance)
	assert.Less(t, safe.FloodAnalysis.FloodedPercentage, manageable.FloodAnalysis.FloodedPercentage)
	assert.Less(t, manageable.FloodAnalysis.FloodedPercentage, prone.FloodAnalysis.FloodedPercentage)
	assert.InDelta(t, 100, prone.FloodAnalysis.FloodedPercentage, 1)

	straight := zStart.Distance(zEnd)
	for _, r := range set.Routes {
		assert.Equal(t, zStart, r.Coordinates[0])
		assert.Equal(t, zEnd, r.Coordinates[len(r.Coordinates)-1])
		assert.GreaterOrEqual(t, r.Distance, straight)
		assert.Equal(t, datastructure.SourceGraph, r.Source)
		assert.False(t, r.Degraded)
		assert.NotEmpty(t, r.Polyline)
		assert.Greater(t, r.Duration.Seconds(), 0.0)
	}
}

func TestBuildRoutesDeterministic(t *testing.T) {
	p := newPlanner(t, zamboangaRoads(), flood.DefaultConfig(), DefaultConfig())
	req := Request{Start: zStart, End: zEnd, Mode: datastructure.Car}

	first, err := p.BuildRoutes(context.Background(), req)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		again, err := p.BuildRoutes(context.Background(), req)
		require.NoError(t, err)
		for j := range first.Routes {
			assert.Equal(t, first.Routes[j].Coordinates, again.Routes[j].Coordinates)
			assert.Equal(t, first.Routes[j].Label, again.Routes[j].Label)
		}
	}
}

func TestBuildRoutesWaypoint(t *testing.T) {
	p := newPlanner(t, zamboangaRoads(), flood.DefaultConfig(), DefaultConfig())

	// ~10 m north of the junction on the eastern road
	waypoint := datastructure.NewCoordinate(6.920098, 122.083310)
	set, err := p.BuildRoutes(context.Background(), Request{
		Start:     zStart,
		End:       zEnd,
		Waypoints: []datastructure.Coordinate{waypoint},
		Mode:      datastructure.Car,
	})
	require.NoError(t, err)
	require.Equal(t, 3, len(set.Routes))

	for _, r := range set.Routes {
		assert.True(t, containsCoordinate(r.Coordinates, waypoint), "%s route misses the waypoint", r.Label)
		assert.Equal(t, zStart, r.Coordinates[0])
		assert.Equal(t, zEnd, r.Coordinates[len(r.Coordinates)-1])
	}
}

func TestBuildRoutesWalkingOnMotorway(t *testing.T) {
	west := datastructure.NewCoordinate(6.9200, 122.0690)
	s := datastructure.NewCoordinate(6.9200, 122.0700)
	e := datastructure.NewCoordinate(6.9200, 122.0720)
	east := datastructure.NewCoordinate(6.9200, 122.0730)

	t.Run("motorway only", func(t *testing.T) {
		p := newPlanner(t, []datastructure.RoadSegment{road("m", datastructure.Motorway, false, s, e)},
			flood.DefaultConfig(), DefaultConfig())
		set, err := p.BuildRoutes(context.Background(), Request{Start: s, End: e, Mode: datastructure.Walking})
		require.NoError(t, err)
		assert.Empty(t, set.Routes)
		require.Equal(t, 3, len(set.Failures))
		for _, err := range set.Failures {
			assert.ErrorIs(t, err, routingalgorithm.ErrNoNearbyRoad)
		}
	})

	t.Run("motorway between walkable streets", func(t *testing.T) {
		p := newPlanner(t, []datastructure.RoadSegment{
			road("w", datastructure.Residential, false, west, s),
			road("m", datastructure.Motorway, false, s, e),
			road("e", datastructure.Residential, false, e, east),
		}, flood.DefaultConfig(), DefaultConfig())
		set, err := p.BuildRoutes(context.Background(), Request{Start: west, End: east, Mode: datastructure.Walking})
		require.NoError(t, err)
		assert.Empty(t, set.Routes)
		for _, err := range set.Failures {
			assert.ErrorIs(t, err, routingalgorithm.ErrModeRestricted)
		}
	})
}

func TestBuildRoutesWalkingAvoidsForbiddenRoads(t *testing.T) {
	s := datastructure.NewCoordinate(6.9200, 122.0700)
	e := datastructure.NewCoordinate(6.9200, 122.0720)
	n1 := datastructure.NewCoordinate(6.9212, 122.0700)
	n2 := datastructure.NewCoordinate(6.9212, 122.0720)

	segments := []datastructure.RoadSegment{
		road("trunk", datastructure.Trunk, false, s, e),
		road("f1", datastructure.Footway, false, s, n1),
		road("f2", datastructure.Footway, false, n1, n2),
		road("f3", datastructure.Footway, false, n2, e),
	}
	p := newPlanner(t, segments, flood.DefaultConfig(), DefaultConfig())

	set, err := p.BuildRoutes(context.Background(), Request{Start: s, End: e, Mode: datastructure.Walking})
	require.NoError(t, err)
	require.Equal(t, 3, len(set.Routes))

	allowed := map[string]bool{}
	for _, seg := range segments {
		allowed[seg.ID] = seg.AllowsMode(datastructure.Walking)
	}
	for _, r := range set.Routes {
		for _, id := range r.SegmentIDs {
			assert.True(t, allowed[id], "walking route uses %s", id)
		}
	}

	set, err = p.BuildRoutes(context.Background(), Request{Start: s, End: e, Mode: datastructure.Car})
	require.NoError(t, err)
	assert.Equal(t, []string{"trunk"}, set.Routes[0].SegmentIDs)
}

const gridSize = 8

// gridRoads square grid with ~200 m blocks. a few horizontal blocks are flooded and no node
// touches more than one of them.
func gridRoads() ([][]datastructure.Coordinate, []datastructure.RoadSegment, map[string]bool) {
	nodes := make([][]datastructure.Coordinate, gridSize)
	for r := 0; r < gridSize; r++ {
		nodes[r] = make([]datastructure.Coordinate, gridSize)
		for c := 0; c < gridSize; c++ {
			nodes[r][c] = datastructure.NewCoordinate(6.9000+float64(r)*0.0018, 122.0600+float64(c)*0.0018)
		}
	}

	flooded := make(map[string]bool)
	segments := make([]datastructure.RoadSegment, 0)
	for r := 0; r < gridSize; r++ {
		for c := 0; c < gridSize; c++ {
			if c+1 < gridSize {
				id := "h-" + string(rune('a'+r)) + string(rune('a'+c))
				isFlooded := r%3 == 1 && c%3 == 1
				flooded[id] = isFlooded
				segments = append(segments, road(id, datastructure.Secondary, isFlooded, nodes[r][c], nodes[r][c+1]))
			}
			if r+1 < gridSize {
				id := "v-" + string(rune('a'+r)) + string(rune('a'+c))
				flooded[id] = false
				segments = append(segments, road(id, datastructure.Secondary, false, nodes[r][c], nodes[r+1][c]))
			}
		}
	}
	return nodes, segments, flooded
}

func TestFloodProfileDivergence(t *testing.T) {
	nodes, segments, flooded := gridRoads()
	floodCfg := flood.DefaultConfig()
	floodCfg.BufferRadius = 10
	p := newPlanner(t, segments, floodCfg, DefaultConfig())

	r := rand.New(rand.NewSource(42))
	applicable := 0
	for i := 0; i < 120; i++ {
		sr, sc := r.Intn(gridSize), r.Intn(gridSize)
		er, ec := r.Intn(gridSize), r.Intn(gridSize)
		if i%2 == 0 {
			// same row, the straight run is the only shortest path
			er = sr
		}
		if sr == er && sc == ec {
			continue
		}

		set, err := p.BuildRoutes(context.Background(), Request{
			Start: nodes[sr][sc],
			End:   nodes[er][ec],
			Mode:  datastructure.Car,
		})
		require.NoError(t, err)
		require.Equal(t, 3, len(set.Routes))

		var proneSearch datastructure.Route
		for _, route := range set.Routes {
			if route.SearchProfile == datastructure.Prone {
				proneSearch = route
			}
		}
		onFlood := false
		for _, id := range proneSearch.SegmentIDs {
			onFlood = onFlood || flooded[id]
		}
		if !onFlood {
			continue
		}
		applicable++

		safe := routeByLabel(t, set, datastructure.Safe)
		prone := routeByLabel(t, set, datastructure.Prone)
		assert.Less(t, safe.FloodAnalysis.FloodedPercentage, prone.FloodAnalysis.FloodedPercentage,
			"(%d,%d) -> (%d,%d)", sr, sc, er, ec)
	}
	assert.Greater(t, applicable, 0)
}

type fakeRouter struct {
	calls atomic.Int32
}

func (f *fakeRouter) Route(ctx context.Context, points []datastructure.Coordinate,
	mode datastructure.TravelMode) ([]datastructure.Coordinate, error) {
	f.calls.Add(1)
	a, b := points[0], points[len(points)-1]
	mid := datastructure.NewCoordinate((a.Lat+b.Lat)/2+0.001, (a.Lon+b.Lon)/2)
	return []datastructure.Coordinate{mid}, nil
}

func TestBuildRoutesExternalFallback(t *testing.T) {
	router := &fakeRouter{}
	p := newPlanner(t, zamboangaRoads(), flood.DefaultConfig(), DefaultConfig(), NewExternalStrategy(router))

	// far from every local road
	start := datastructure.NewCoordinate(7.0500, 122.1500)
	end := datastructure.NewCoordinate(7.0600, 122.1600)
	set, err := p.BuildRoutes(context.Background(), Request{Start: start, End: end, Mode: datastructure.Car})
	require.NoError(t, err)

	require.Equal(t, 3, len(set.Routes))
	assert.Equal(t, int32(3), router.calls.Load())
	for _, r := range set.Routes {
		assert.Equal(t, datastructure.SourceExternal, r.Source)
		assert.Equal(t, start, r.Coordinates[0])
		assert.Equal(t, end, r.Coordinates[len(r.Coordinates)-1])
	}
	assert.Equal(t, []datastructure.RiskProfile{datastructure.Safe, datastructure.Manageable, datastructure.Prone},
		[]datastructure.RiskProfile{set.Routes[0].Label, set.Routes[1].Label, set.Routes[2].Label})
	// identical geometry for every profile
	assert.Equal(t, 3, len(set.Warnings))
}

type failingStrategy struct {
	profile datastructure.RiskProfile
	inner   Strategy
}

var errBoom = errors.New("boom")

func (s *failingStrategy) Name() string { return "failing" }

func (s *failingStrategy) Attempt(ctx context.Context, req Request, profile datastructure.RiskProfile) (Candidate, error) {
	if profile == s.profile {
		return Candidate{}, errBoom
	}
	return s.inner.Attempt(ctx, req, profile)
}

func TestBuildRoutesFailureIsolation(t *testing.T) {
	g, err := graph.Build(zamboangaRoads(), graph.DefaultConfig())
	require.NoError(t, err)
	rt := routingalgorithm.NewRouteAlgorithm(g, cost.NewCostModel(cost.DefaultConfig(), nil),
		snap.NewRoadSnapper(g, 0), routingalgorithm.DefaultConfig())
	analyzer := flood.NewAnalyzer(g.Segments, nil, flood.DefaultConfig())

	p := NewPlanner(analyzer, DefaultConfig(), &failingStrategy{profile: datastructure.Safe, inner: NewGraphStrategy(rt)})
	set, err := p.BuildRoutes(context.Background(), Request{Start: zStart, End: zEnd, Mode: datastructure.Car})
	require.NoError(t, err)

	require.Equal(t, 2, len(set.Routes))
	assert.ErrorIs(t, set.Failures[datastructure.Safe], errBoom)
	assert.Equal(t, datastructure.Safe, set.Routes[0].Label)
	assert.Equal(t, datastructure.Manageable, set.Routes[0].SearchProfile)
	assert.Equal(t, datastructure.Prone, set.Routes[1].Label)
}

func TestBuildRoutesStraightLine(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EnableStraightLine = true
	p := newPlanner(t, zamboangaRoads(), flood.DefaultConfig(), cfg)

	start := datastructure.NewCoordinate(7.0500, 122.1500)
	end := datastructure.NewCoordinate(7.0600, 122.1600)
	set, err := p.BuildRoutes(context.Background(), Request{Start: start, End: end, Mode: datastructure.Walking})
	require.NoError(t, err)
	require.Equal(t, 3, len(set.Routes))
	for _, r := range set.Routes {
		assert.True(t, r.Degraded)
		assert.Equal(t, datastructure.SourceStraightLine, r.Source)
		assert.Equal(t, []datastructure.Coordinate{start, end}, r.Coordinates)
	}
}

func TestBuildRoutesModeAlias(t *testing.T) {
	p := newPlanner(t, zamboangaRoads(), flood.DefaultConfig(), DefaultConfig())

	set, err := p.BuildRoutes(context.Background(), Request{Start: zStart, End: zEnd, Mode: "driving"})
	require.NoError(t, err)
	assert.Equal(t, 3, len(set.Routes))
	assert.Empty(t, set.Failures)

	req, err := Request{Start: zStart, End: zEnd, Mode: "foot"}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, datastructure.Walking, req.Mode)
}

func TestBuildRoutesInvalidRequest(t *testing.T) {
	p := newPlanner(t, zamboangaRoads(), flood.DefaultConfig(), DefaultConfig())

	_, err := p.BuildRoutes(context.Background(), Request{Start: zStart, End: zEnd, Mode: "boat"})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = p.BuildRoutes(context.Background(), Request{Start: zStart, End: datastructure.NewCoordinate(95, 0),
		Mode: datastructure.Car})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}
