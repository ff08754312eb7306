package routingalgorithm

import (
	"github.com/Prototyp3html/2025-CP-SafePathZamboanga-sub002/pkg/datastructure"
	"github.com/Prototyp3html/2025-CP-SafePathZamboanga-sub002/pkg/graph"
	"github.com/Prototyp3html/2025-CP-SafePathZamboanga-sub002/pkg/snap"
)

type RoadGraph interface {
	OutEdges(node int32) []int32
	Edge(id int32) *graph.Edge
	Node(id int32) graph.Node
	EdgeSegment(e *graph.Edge) *datastructure.RoadSegment

	Connected(a, b int32, mode datastructure.TravelMode) bool
	ConnectedAnyMode(a, b int32) bool
}

type EdgeCoster interface {
	EdgeCost(seg *datastructure.RoadSegment, length float64, mode datastructure.TravelMode,
		profile datastructure.RiskProfile) float64
}

type RoadSnapper interface {
	SnapToNode(p datastructure.Coordinate, mode datastructure.TravelMode) (snap.Candidate, bool)
}
