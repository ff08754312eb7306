package snap

import (
	"github.com/Prototyp3html/2025-CP-SafePathZamboanga-sub002/pkg/datastructure"
	"github.com/Prototyp3html/2025-CP-SafePathZamboanga-sub002/pkg/graph"
	"github.com/Prototyp3html/2025-CP-SafePathZamboanga-sub002/pkg/spatial"
)

const (
	DefaultRadius = 300.0 // meter
)

type RoadNetwork interface {
	NodeIndex() *spatial.Index
	Node(id int32) graph.Node
}

type Candidate struct {
	NodeID   int32
	Coord    datastructure.Coordinate
	Distance float64 // meter
}

type RoadSnapper struct {
	network RoadNetwork
	radius  float64
}

func NewRoadSnapper(network RoadNetwork, radius float64) *RoadSnapper {
	if radius <= 0 {
		radius = DefaultRadius
	}
	return &RoadSnapper{network: network, radius: radius}
}

func (rs *RoadSnapper) Radius() float64 {
	return rs.radius
}

func (rs *RoadSnapper) usableBy(mode datastructure.TravelMode) func(id int) bool {
	return func(id int) bool {
		return rs.network.Node(int32(id)).Modes.Allows(mode)
	}
}

// SnapToNode nearest node within the snap radius that has at least one edge usable by mode.
func (rs *RoadSnapper) SnapToNode(p datastructure.Coordinate, mode datastructure.TravelMode) (Candidate, bool) {
	hit, ok := rs.network.NodeIndex().Nearest(p, rs.radius, rs.usableBy(mode))
	if !ok {
		return Candidate{}, false
	}
	return rs.candidate(hit), true
}

// SnapToNodes every node usable by mode within radius meters of p, nearest first.
func (rs *RoadSnapper) SnapToNodes(p datastructure.Coordinate, mode datastructure.TravelMode, radius float64) []Candidate {
	hits := rs.network.NodeIndex().NearFunc(p, radius, rs.usableBy(mode))
	candidates := make([]Candidate, 0, len(hits))
	for _, hit := range hits {
		candidates = append(candidates, rs.candidate(hit))
	}
	return candidates
}

// HasAnyNode reports whether some node, usable by any mode, lies within the snap radius.
func (rs *RoadSnapper) HasAnyNode(p datastructure.Coordinate) bool {
	_, ok := rs.network.NodeIndex().Nearest(p, rs.radius, func(id int) bool {
		return rs.network.Node(int32(id)).Modes != 0
	})
	return ok
}

func (rs *RoadSnapper) candidate(hit spatial.Hit) Candidate {
	return Candidate{
		NodeID:   int32(hit.ID),
		Coord:    rs.network.Node(int32(hit.ID)).Coord,
		Distance: hit.Distance,
	}
}
