package spatial

import (
	"sort"

	"github.com/Prototyp3html/2025-CP-SafePathZamboanga-sub002/pkg/datastructure"
	"github.com/Prototyp3html/2025-CP-SafePathZamboanga-sub002/pkg/geo"

	"github.com/dhconnelly/rtreego"
)

const (
	minChildren = 25
	maxChildren = 50

	// boxes get this padding (degrees) so points and axis-aligned pieces have non-zero extent.
	boxPadding = 1e-6
)

type leaf struct {
	bound rtreego.Rect
	id    int
}

func (l *leaf) Bounds() rtreego.Rect {
	return l.bound
}

// Hit item found by a radius query with its distance in meters.
type Hit struct {
	ID       int
	Distance float64
}

// Index R-tree over polylines and points, each identified by a caller-chosen integer ID.
// Build it once, then query from any number of goroutines.
type Index struct {
	tree   *rtreego.Rtree
	shapes map[int][]datastructure.Coordinate
}

func NewIndex() *Index {
	return &Index{
		tree:   rtreego.NewTree(2, minChildren, maxChildren),
		shapes: make(map[int][]datastructure.Coordinate),
	}
}

func newRect(minLat, minLon, maxLat, maxLon float64) rtreego.Rect {
	rect, _ := rtreego.NewRectFromPoints(
		rtreego.Point{minLat - boxPadding, minLon - boxPadding},
		rtreego.Point{maxLat + boxPadding, maxLon + boxPadding},
	)
	return rect
}

// InsertLine indexes every consecutive pair of line separately, so a long curved road does not
// produce one huge box.
func (ix *Index) InsertLine(id int, line []datastructure.Coordinate) {
	if len(line) == 0 {
		return
	}
	ix.shapes[id] = line
	if len(line) == 1 {
		ix.InsertPoint(id, line[0])
		return
	}
	for i := 1; i < len(line); i++ {
		a, b := line[i-1], line[i]
		ix.tree.Insert(&leaf{
			bound: newRect(min(a.Lat, b.Lat), min(a.Lon, b.Lon), max(a.Lat, b.Lat), max(a.Lon, b.Lon)),
			id:    id,
		})
	}
}

func (ix *Index) InsertPoint(id int, p datastructure.Coordinate) {
	if _, ok := ix.shapes[id]; !ok {
		ix.shapes[id] = []datastructure.Coordinate{p}
	}
	ix.tree.Insert(&leaf{bound: newRect(p.Lat, p.Lon, p.Lat, p.Lon), id: id})
}

func (ix *Index) Size() int {
	return len(ix.shapes)
}

// Near returns every item within radius meters of p, nearest first. ties are ordered by ID.
func (ix *Index) Near(p datastructure.Coordinate, radius float64) []Hit {
	return ix.NearFunc(p, radius, nil)
}

// NearFunc is Near restricted to the IDs accepted by keep. keep == nil accepts all.
func (ix *Index) NearFunc(p datastructure.Coordinate, radius float64, keep func(id int) bool) []Hit {
	bb := geo.BoundingBoxAround(p, radius)
	candidates := ix.tree.SearchIntersect(newRect(bb.MinLat, bb.MinLon, bb.MaxLat, bb.MaxLon))

	seen := make(map[int]struct{}, len(candidates))
	hits := make([]Hit, 0, len(candidates))
	for _, c := range candidates {
		id := c.(*leaf).id
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		if keep != nil && !keep(id) {
			continue
		}

		dist := geo.PointPolylineDistance(p, ix.shapes[id])
		if dist <= radius {
			hits = append(hits, Hit{ID: id, Distance: dist})
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].ID < hits[j].ID
	})
	return hits
}

// Nearest closest item within radius accepted by keep.
func (ix *Index) Nearest(p datastructure.Coordinate, radius float64, keep func(id int) bool) (Hit, bool) {
	hits := ix.NearFunc(p, radius, keep)
	if len(hits) == 0 {
		return Hit{}, false
	}
	return hits[0], true
}
