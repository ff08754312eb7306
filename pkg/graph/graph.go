package graph

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Prototyp3html/2025-CP-SafePathZamboanga-sub002/pkg/datastructure"
	"github.com/Prototyp3html/2025-CP-SafePathZamboanga-sub002/pkg/geo"
	"github.com/Prototyp3html/2025-CP-SafePathZamboanga-sub002/pkg/spatial"
	"github.com/Prototyp3html/2025-CP-SafePathZamboanga-sub002/pkg/util"

	"golang.org/x/exp/slog"
)

var ErrEmptyGraph = errors.New("road network has no usable segments")

type Config struct {
	// MaxEdgeLength longer stretches of road get intermediate nodes so every point on a road is near a node.
	MaxEdgeLength float64 `yaml:"max_edge_length_m"`
}

func DefaultConfig() Config {
	return Config{MaxEdgeLength: 250}
}

type Node struct {
	ID    int32
	Coord datastructure.Coordinate
	// Modes union of the modes allowed on the incident edges.
	Modes datastructure.ModeSet
}

type Edge struct {
	ID       int32
	From     int32
	To       int32
	Segment  int32 // index into Graph.Segments
	Geometry []datastructure.Coordinate
	Length   float64 // meter
}

// Graph routing graph derived from road segments. immutable once built.
type Graph struct {
	Nodes    []Node
	Edges    []Edge
	Segments []datastructure.RoadSegment

	out          [][]int32
	nodeIndex    *spatial.Index
	nodeByCoord  map[datastructure.Coordinate]int32
	components   map[datastructure.TravelMode][]int32
	allComponent []int32
}

// Build creates nodes at segment endpoints, at vertices shared by two or more segments and at
// split points of long stretches, then one edge per node-to-node piece of every segment. one-way
// segments only get the edge in digitized direction.
func Build(segments []datastructure.RoadSegment, cfg Config) (*Graph, error) {
	if cfg.MaxEdgeLength <= 0 {
		cfg.MaxEdgeLength = DefaultConfig().MaxEdgeLength
	}

	sorted := make([]datastructure.RoadSegment, 0, len(segments))
	seen := make(map[string]struct{}, len(segments))
	for _, seg := range segments {
		if err := seg.Validate(); err != nil {
			slog.Warn("skipping road segment", "error", err)
			continue
		}
		if _, ok := seen[seg.ID]; ok {
			slog.Warn("skipping duplicate road segment", "id", seg.ID)
			continue
		}
		seen[seg.ID] = struct{}{}
		if seg.Modes == 0 {
			seg.Modes = seg.Class.DefaultModes()
		}
		sorted = append(sorted, seg)
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ID < sorted[j].ID
	})

	g := &Graph{
		Segments:    sorted,
		nodeByCoord: make(map[datastructure.Coordinate]int32),
		nodeIndex:   spatial.NewIndex(),
		components:  make(map[datastructure.TravelMode][]int32, len(datastructure.TravelModes)),
	}

	// vertex usage count, a vertex used more than once is a junction.
	usage := make(map[datastructure.Coordinate]int)
	for _, seg := range sorted {
		for _, c := range seg.Geometry {
			usage[c]++
		}
	}

	for i := range sorted {
		seg := &sorted[i]
		g.addSegment(int32(i), seg, usage, cfg.MaxEdgeLength)

		if (i+1)%10000 == 0 {
			slog.Info("building routing graph", "segments", i+1)
		}
	}

	if len(g.Edges) == 0 {
		return nil, ErrEmptyGraph
	}

	for _, n := range g.Nodes {
		g.nodeIndex.InsertPoint(int(n.ID), n.Coord)
	}

	g.allComponent = g.weakComponents(func(e *Edge) bool { return true })
	for _, mode := range datastructure.TravelModes {
		mode := mode
		g.components[mode] = g.weakComponents(func(e *Edge) bool {
			return g.Segments[e.Segment].AllowsMode(mode)
		})
	}

	slog.Info("routing graph built", "segments", len(g.Segments), "nodes", len(g.Nodes), "edges", len(g.Edges))
	return g, nil
}

func (g *Graph) nodeAt(c datastructure.Coordinate) int32 {
	if id, ok := g.nodeByCoord[c]; ok {
		return id
	}
	id := int32(len(g.Nodes))
	g.Nodes = append(g.Nodes, Node{ID: id, Coord: c})
	g.out = append(g.out, nil)
	g.nodeByCoord[c] = id
	return id
}

func (g *Graph) addSegment(segIdx int32, seg *datastructure.RoadSegment, usage map[datastructure.Coordinate]int,
	maxEdgeLength float64) {
	geometry := densify(seg.Geometry, maxEdgeLength)

	piece := []datastructure.Coordinate{geometry[0]}
	pieceLength := 0.0
	for i := 1; i < len(geometry); i++ {
		curr := geometry[i]
		step := geometry[i-1].Distance(curr)

		if pieceLength+step > maxEdgeLength && len(piece) > 1 {
			// cut at the previous vertex
			g.addPiece(segIdx, seg, piece, pieceLength)
			piece = []datastructure.Coordinate{piece[len(piece)-1]}
			pieceLength = 0
		}

		piece = append(piece, curr)
		pieceLength += step

		if i == len(geometry)-1 || usage[curr] > 1 {
			g.addPiece(segIdx, seg, piece, pieceLength)
			piece = []datastructure.Coordinate{curr}
			pieceLength = 0
		}
	}
}

func (g *Graph) addPiece(segIdx int32, seg *datastructure.RoadSegment, piece []datastructure.Coordinate,
	length float64) {
	from := g.nodeAt(piece[0])
	to := g.nodeAt(piece[len(piece)-1])
	if from == to {
		return
	}

	g.Nodes[from].Modes |= seg.Modes
	g.Nodes[to].Modes |= seg.Modes

	g.addEdge(from, to, segIdx, piece, length)
	if !seg.OneWay {
		g.addEdge(to, from, segIdx, util.ReverseG(piece), length)
	}
}

func (g *Graph) addEdge(from, to, segIdx int32, geometry []datastructure.Coordinate, length float64) {
	id := int32(len(g.Edges))
	g.Edges = append(g.Edges, Edge{
		ID:       id,
		From:     from,
		To:       to,
		Segment:  segIdx,
		Geometry: geometry,
		Length:   length,
	})
	g.out[from] = append(g.out[from], id)
}

// densify inserts interpolated vertices so no pair of consecutive points is longer than maxLength.
func densify(line []datastructure.Coordinate, maxLength float64) []datastructure.Coordinate {
	out := make([]datastructure.Coordinate, 0, len(line))
	out = append(out, line[0])
	for i := 1; i < len(line); i++ {
		a, b := line[i-1], line[i]
		dist := a.Distance(b)
		if dist > maxLength {
			n := int(dist/maxLength) + 1
			for k := 1; k < n; k++ {
				out = append(out, geo.Interpolate(a, b, float64(k)/float64(n)))
			}
		}
		out = append(out, b)
	}
	return out
}

func (g *Graph) NumNodes() int {
	return len(g.Nodes)
}

func (g *Graph) Node(id int32) Node {
	return g.Nodes[id]
}

func (g *Graph) Edge(id int32) *Edge {
	return &g.Edges[id]
}

// OutEdges outgoing edge IDs of node, in build order.
func (g *Graph) OutEdges(node int32) []int32 {
	return g.out[node]
}

func (g *Graph) EdgeSegment(e *Edge) *datastructure.RoadSegment {
	return &g.Segments[e.Segment]
}

// NodeIndex spatial index of the nodes, item IDs are node IDs.
func (g *Graph) NodeIndex() *spatial.Index {
	return g.nodeIndex
}

// Connected reports whether a and b are in the same weakly connected component of the
// subgraph usable by mode.
func (g *Graph) Connected(a, b int32, mode datastructure.TravelMode) bool {
	comp, ok := g.components[mode]
	if !ok {
		return false
	}
	return comp[a] >= 0 && comp[a] == comp[b]
}

// ConnectedAnyMode same as Connected over every edge regardless of travel mode.
func (g *Graph) ConnectedAnyMode(a, b int32) bool {
	return g.allComponent[a] >= 0 && g.allComponent[a] == g.allComponent[b]
}

// weakComponents labels nodes by connected component of the edges accepted by use, ignoring
// direction. nodes without any accepted edge get -1.
func (g *Graph) weakComponents(use func(e *Edge) bool) []int32 {
	n := len(g.Nodes)
	adj := make([][]int32, n)
	for i := range g.Edges {
		e := &g.Edges[i]
		if !use(e) {
			continue
		}
		adj[e.From] = append(adj[e.From], e.To)
		adj[e.To] = append(adj[e.To], e.From)
	}

	comp := make([]int32, n)
	for i := range comp {
		comp[i] = -1
	}

	var next int32
	stack := make([]int32, 0, 64)
	for v := int32(0); v < int32(n); v++ {
		if comp[v] != -1 || len(adj[v]) == 0 {
			continue
		}
		comp[v] = next
		stack = append(stack[:0], v)
		for len(stack) > 0 {
			u := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for _, w := range adj[u] {
				if comp[w] == -1 {
					comp[w] = next
					stack = append(stack, w)
				}
			}
		}
		next++
	}
	return comp
}

func (g *Graph) String() string {
	return fmt.Sprintf("graph{nodes: %d, edges: %d, segments: %d}", len(g.Nodes), len(g.Edges), len(g.Segments))
}
