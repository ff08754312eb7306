package routingalgorithm

import (
	"context"
	"fmt"
	"math"

	"github.com/Prototyp3html/2025-CP-SafePathZamboanga-sub002/pkg/datastructure"
	"github.com/Prototyp3html/2025-CP-SafePathZamboanga-sub002/pkg/util"
)

type Config struct {
	MaxIterations int `yaml:"max_iterations"`
	// StagnationLimit iterations allowed without getting closer to the goal.
	StagnationLimit int `yaml:"stagnation_limit"`
	// branches longer than DetourFactor x straight line + DetourSlack (geometric meters) are pruned.
	DetourFactor float64 `yaml:"detour_factor"`
	DetourSlack  float64 `yaml:"detour_slack_m"`
	// GoalTolerance a popped node this close (m) to the destination ends the search.
	GoalTolerance float64 `yaml:"goal_tolerance_m"`
}

func DefaultConfig() Config {
	return Config{
		MaxIterations:   50000,
		StagnationLimit: 15000,
		DetourFactor:    2.5,
		DetourSlack:     500,
		GoalTolerance:   1,
	}
}

const ctxCheckInterval = 1024

type cameFromPair struct {
	EdgeID int32
	NodeID int32
}

type RouteAlgorithm struct {
	graph   RoadGraph
	cost    EdgeCoster
	snapper RoadSnapper
	cfg     Config
}

func NewRouteAlgorithm(graph RoadGraph, cost EdgeCoster, snapper RoadSnapper, cfg Config) *RouteAlgorithm {
	def := DefaultConfig()
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = def.MaxIterations
	}
	if cfg.StagnationLimit <= 0 {
		cfg.StagnationLimit = def.StagnationLimit
	}
	if cfg.DetourFactor < 1 {
		cfg.DetourFactor = def.DetourFactor
	}
	return &RouteAlgorithm{graph: graph, cost: cost, snapper: snapper, cfg: cfg}
}

type SearchResult struct {
	Coordinates []datastructure.Coordinate
	EdgeIDs     []int32
	// SegmentIDs road segments in travel order, consecutive repeats collapsed.
	SegmentIDs []string
	Cost       float64
	Distance   float64 // meter
	Iterations int
	StartNode  int32
	EndNode    int32
}

// Search snaps start and end to the road network and runs A* between them. the returned
// coordinates begin at start and finish at end exactly.
func (rt *RouteAlgorithm) Search(ctx context.Context, start, end datastructure.Coordinate,
	mode datastructure.TravelMode, profile datastructure.RiskProfile) (SearchResult, error) {
	from, ok := rt.snapper.SnapToNode(start, mode)
	if !ok {
		return SearchResult{}, fmt.Errorf("%w: start (%f, %f) for %s", ErrNoNearbyRoad, start.Lat, start.Lon, mode)
	}
	to, ok := rt.snapper.SnapToNode(end, mode)
	if !ok {
		return SearchResult{}, fmt.Errorf("%w: end (%f, %f) for %s", ErrNoNearbyRoad, end.Lat, end.Lon, mode)
	}

	res, err := rt.shortestPath(ctx, from.NodeID, to.NodeID, end, mode, profile)
	if err != nil {
		return SearchResult{}, err
	}

	if len(res.Coordinates) == 0 || !res.Coordinates[0].Equal(start) {
		res.Coordinates = append([]datastructure.Coordinate{start}, res.Coordinates...)
	}
	if !res.Coordinates[len(res.Coordinates)-1].Equal(end) {
		res.Coordinates = append(res.Coordinates, end)
	}
	res.Distance = datastructure.PathLength(res.Coordinates)
	return res, nil
}

// ShortestPathAStar least-cost path between two graph nodes for the given mode and risk profile.
func (rt *RouteAlgorithm) ShortestPathAStar(ctx context.Context, from, to int32,
	mode datastructure.TravelMode, profile datastructure.RiskProfile) (SearchResult, error) {
	return rt.shortestPath(ctx, from, to, rt.graph.Node(to).Coord, mode, profile)
}

// https://www.cs.princeton.edu/courses/archive/spr06/cos423/Handouts/GH05.pdf
func (rt *RouteAlgorithm) shortestPath(ctx context.Context, from, to int32, goal datastructure.Coordinate,
	mode datastructure.TravelMode, profile datastructure.RiskProfile) (SearchResult, error) {
	if from == to {
		return SearchResult{
			Coordinates: []datastructure.Coordinate{rt.graph.Node(from).Coord},
			StartNode:   from,
			EndNode:     to,
		}, nil
	}

	if !rt.graph.ConnectedAnyMode(from, to) {
		return SearchResult{}, fmt.Errorf("%w: start and end are on disconnected road networks", ErrSearchExhausted)
	}
	if !rt.graph.Connected(from, to, mode) {
		return SearchResult{}, fmt.Errorf("%w: %s", ErrModeRestricted, mode)
	}

	startCoord := rt.graph.Node(from).Coord
	maxDetour := rt.cfg.DetourFactor*startCoord.Distance(goal) + rt.cfg.DetourSlack

	pq := datastructure.NewMinHeap[int32]()
	pq.Insert(startCoord.Distance(goal), from)

	costSoFar := make(map[int32]float64)
	costSoFar[from] = 0.0

	distSoFar := make(map[int32]float64)
	distSoFar[from] = 0.0

	cameFrom := make(map[int32]cameFromPair)
	cameFrom[from] = cameFromPair{-1, -1}

	visited := make(map[int32]struct{})

	bestH := math.Inf(1)
	sinceImprovement := 0
	iterations := 0

	for pq.Size() > 0 {
		iterations++
		if iterations%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return SearchResult{}, err
			}
		}
		if iterations > rt.cfg.MaxIterations {
			return SearchResult{}, fmt.Errorf("%w: iteration limit %d reached", ErrSearchExhausted, rt.cfg.MaxIterations)
		}

		current, _ := pq.ExtractMin()
		if _, ok := visited[current.Item]; ok {
			// stale entry
			continue
		}
		visited[current.Item] = struct{}{}

		currCoord := rt.graph.Node(current.Item).Coord
		h := currCoord.Distance(goal)
		if current.Item == to || h <= rt.cfg.GoalTolerance {
			return rt.buildResult(from, current.Item, cameFrom, costSoFar[current.Item], iterations), nil
		}

		if h < bestH {
			bestH = h
			sinceImprovement = 0
		} else {
			sinceImprovement++
			if sinceImprovement > rt.cfg.StagnationLimit {
				return SearchResult{}, fmt.Errorf("%w: no progress towards the destination for %d iterations",
					ErrSearchExhausted, rt.cfg.StagnationLimit)
			}
		}

		for _, edgeID := range rt.graph.OutEdges(current.Item) {
			edge := rt.graph.Edge(edgeID)
			if _, ok := visited[edge.To]; ok {
				continue
			}

			edgeCost := rt.cost.EdgeCost(rt.graph.EdgeSegment(edge), edge.Length, mode, profile)
			if math.IsInf(edgeCost, 1) {
				continue
			}

			neighborH := rt.graph.Node(edge.To).Coord.Distance(goal)
			dist := distSoFar[current.Item] + edge.Length
			if dist+neighborH > maxDetour {
				continue
			}

			newCost := costSoFar[current.Item] + edgeCost
			if oldCost, ok := costSoFar[edge.To]; ok && newCost >= oldCost {
				continue
			}

			costSoFar[edge.To] = newCost
			distSoFar[edge.To] = dist
			cameFrom[edge.To] = cameFromPair{edgeID, current.Item}
			pq.Insert(newCost+neighborH, edge.To) // add heuristic
		}
	}

	return SearchResult{}, fmt.Errorf("%w: no path for %s", ErrSearchExhausted, mode)
}

func (rt *RouteAlgorithm) buildResult(from, to int32, cameFrom map[int32]cameFromPair, cost float64,
	iterations int) SearchResult {
	edgeIDs := make([]int32, 0)
	for curr := to; cameFrom[curr].NodeID != -1; curr = cameFrom[curr].NodeID {
		edgeIDs = append(edgeIDs, cameFrom[curr].EdgeID)
	}
	edgeIDs = util.ReverseG(edgeIDs)

	coords := []datastructure.Coordinate{rt.graph.Node(from).Coord}
	segmentIDs := make([]string, 0, len(edgeIDs))
	distance := 0.0
	for _, edgeID := range edgeIDs {
		edge := rt.graph.Edge(edgeID)
		coords = append(coords, edge.Geometry[1:]...)
		distance += edge.Length

		segID := rt.graph.EdgeSegment(edge).ID
		if len(segmentIDs) == 0 || segmentIDs[len(segmentIDs)-1] != segID {
			segmentIDs = append(segmentIDs, segID)
		}
	}

	return SearchResult{
		Coordinates: coords,
		EdgeIDs:     edgeIDs,
		SegmentIDs:  segmentIDs,
		Cost:        cost,
		Distance:    distance,
		Iterations:  iterations,
		StartNode:   from,
		EndNode:     to,
	}
}
