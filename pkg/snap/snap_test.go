package snap

import (
	"testing"

	"github.com/Prototyp3html/2025-CP-SafePathZamboanga-sub002/pkg/datastructure"
	"github.com/Prototyp3html/2025-CP-SafePathZamboanga-sub002/pkg/graph"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildGraph(t *testing.T) *graph.Graph {
	motorway := datastructure.NewRoadSegment("m1",
		[]datastructure.Coordinate{{6.9200, 122.0700}, {6.9200, 122.0710}},
		datastructure.Motorway, false, datastructure.ElevationSummary{}, 0, false)
	footway := datastructure.NewRoadSegment("f1",
		[]datastructure.Coordinate{{6.9230, 122.0700}, {6.9230, 122.0710}},
		datastructure.Footway, false, datastructure.ElevationSummary{}, 0, false)

	g, err := graph.Build([]datastructure.RoadSegment{motorway, footway}, graph.DefaultConfig())
	require.NoError(t, err)
	return g
}

func TestSnapToNode(t *testing.T) {
	rs := NewRoadSnapper(buildGraph(t), 0)
	assert.Equal(t, DefaultRadius, rs.Radius())

	p := datastructure.NewCoordinate(6.9201, 122.0701)

	cand, ok := rs.SnapToNode(p, datastructure.Car)
	require.True(t, ok)
	assert.Equal(t, datastructure.NewCoordinate(6.9200, 122.0700), cand.Coord)
	assert.Less(t, cand.Distance, 20.0)

	// walking ignores the motorway, the footway is ~320 m away
	_, ok = rs.SnapToNode(p, datastructure.Walking)
	assert.False(t, ok)
	assert.True(t, rs.HasAnyNode(p))

	q := datastructure.NewCoordinate(6.9215, 122.0700)
	cand, ok = rs.SnapToNode(q, datastructure.Walking)
	require.True(t, ok)
	assert.Equal(t, datastructure.NewCoordinate(6.9230, 122.0700), cand.Coord)
}

func TestSnapToNodes(t *testing.T) {
	rs := NewRoadSnapper(buildGraph(t), 0)
	p := datastructure.NewCoordinate(6.9200, 122.0700)

	cands := rs.SnapToNodes(p, datastructure.Car, 500)
	require.Equal(t, 2, len(cands))
	assert.LessOrEqual(t, cands[0].Distance, cands[1].Distance)

	assert.Equal(t, 0, len(rs.SnapToNodes(datastructure.NewCoordinate(7.5, 122.5), datastructure.Car, 500)))
}
