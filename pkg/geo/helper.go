package geo

import (
	"container/list"
	"math"

	"github.com/Prototyp3html/2025-CP-SafePathZamboanga-sub002/pkg/datastructure"

	"golang.org/x/exp/slog"
)

const (
	DOUGLAS_PEUCKER_THRESHOLDS = 5.0 // 5 meter
)

type SimplifyOptions struct {
	// SpikeTolerance max distance (m) between the points around a spike for it to count as out-and-back.
	SpikeTolerance float64 `yaml:"spike_tolerance_m"`
	// MaxSpikeFraction spike removal is skipped entirely when it would drop more than this share of points.
	MaxSpikeFraction float64 `yaml:"max_spike_fraction"`
}

func DefaultSimplifyOptions() SimplifyOptions {
	return SimplifyOptions{
		SpikeTolerance:   3.0,
		MaxSpikeFraction: 0.4,
	}
}

// Simplify removes out-and-back spikes and then runs Douglas-Peucker with the given tolerance.
// first, last and every point equal to a pinned coordinate are kept exactly.
// both passes are repeated until nothing changes, so Simplify(Simplify(p)) == Simplify(p) whenever
// the spike cap was not reached. the cap counts spikes removed over all passes against len(coords),
// once a pass would exceed it spike removal stops and only Douglas-Peucker runs.
func Simplify(coords []datastructure.Coordinate, tolerance float64, pinned []datastructure.Coordinate,
	opts SimplifyOptions) []datastructure.Coordinate {
	if len(coords) < 3 {
		return cloneCoords(coords)
	}

	budget := opts.MaxSpikeFraction * float64(len(coords))
	despike := true
	curr := cloneCoords(coords)
	for {
		next := curr
		if despike {
			kept, removed := removeSpikes(curr, pinned, opts.SpikeTolerance)
			if float64(removed) > budget {
				slog.Warn("spike removal would drop too many points, keeping remaining spikes",
					"points", len(coords), "spikes", removed)
				despike = false
			} else {
				next = kept
				budget -= float64(removed)
			}
		}
		next = RamesDouglasPeucker(next, tolerance, pinned)
		if sameCoords(next, curr) {
			return next
		}
		curr = next
	}
}

// RemoveSpikes drops points where the path moves away from the goal and immediately comes back.
// the raw path is returned when more than MaxSpikeFraction of its points would go.
func RemoveSpikes(coords []datastructure.Coordinate, pinned []datastructure.Coordinate,
	opts SimplifyOptions) []datastructure.Coordinate {
	kept, removed := removeSpikes(coords, pinned, opts.SpikeTolerance)
	if float64(removed) > opts.MaxSpikeFraction*float64(len(coords)) {
		slog.Warn("spike removal would drop too many points, keeping raw path",
			"points", len(coords), "spikes", removed)
		return cloneCoords(coords)
	}
	return kept
}

func removeSpikes(coords []datastructure.Coordinate, pinned []datastructure.Coordinate,
	tolerance float64) ([]datastructure.Coordinate, int) {
	size := len(coords)
	if size < 3 {
		return cloneCoords(coords), 0
	}
	goal := coords[size-1]

	kept := make([]datastructure.Coordinate, 0, size)
	kept = append(kept, coords[0])
	removed := 0
	for i := 1; i < size-1; i++ {
		prev := kept[len(kept)-1]
		curr := coords[i]
		next := coords[i+1]

		if isPinned(curr, pinned) || prev.Distance(next) > tolerance ||
			curr.Distance(goal) <= prev.Distance(goal) {
			kept = append(kept, curr)
			continue
		}

		removed++
		if i+1 < size-1 && !isPinned(next, pinned) {
			// next is the return point, a duplicate of prev
			removed++
			i++
		}
	}
	kept = append(kept, coords[size-1])
	return kept, removed
}

// https://cartography-playground.gitlab.io/playgrounds/douglas-peucker-algorithm/

// RamesDouglasPeucker simplifies each stretch between pinned points independently.
func RamesDouglasPeucker(coords []datastructure.Coordinate, threshold float64,
	pinned []datastructure.Coordinate) []datastructure.Coordinate {
	size := len(coords)
	if size < 3 {
		return cloneCoords(coords)
	}

	kepts := make([]bool, size)
	kepts[0] = true
	kepts[size-1] = true

	stack := list.New()
	left := 0
	for i := 1; i < size; i++ {
		if i == size-1 || isPinned(coords[i], pinned) {
			kepts[i] = true
			stack.PushBack([2]int{left, i})
			left = i
		}
	}

	for stack.Len() > 0 {
		pair := stack.Remove(stack.Back()).([2]int)
		left, right := pair[0], pair[1]
		var maxDist float64
		farthestIndex := left

		// sweep over range to find the farthest point from the segment (left,right)
		for i := left + 1; i < right; i++ {
			dist := PointLinePerpendicularDistance(coords[left], coords[right], coords[i])
			if dist > maxDist && dist > threshold {
				maxDist = dist
				farthestIndex = i
			}
		}

		if maxDist > threshold {
			kepts[farthestIndex] = true
			if left < farthestIndex {
				stack.PushBack([2]int{left, farthestIndex})
			}
			if farthestIndex < right {
				stack.PushBack([2]int{farthestIndex, right})
			}
		}
	}

	simplifiedGeometry := make([]datastructure.Coordinate, 0)
	for i, necessary := range kepts {
		if necessary {
			simplifiedGeometry = append(simplifiedGeometry, coords[i])
		}
	}
	return simplifiedGeometry
}

func isPinned(c datastructure.Coordinate, pinned []datastructure.Coordinate) bool {
	for _, p := range pinned {
		if c.Equal(p) {
			return true
		}
	}
	return false
}

func sameCoords(a, b []datastructure.Coordinate) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func cloneCoords(coords []datastructure.Coordinate) []datastructure.Coordinate {
	out := make([]datastructure.Coordinate, len(coords))
	copy(out, coords)
	return out
}

// MaxDeviation largest distance (m) from any original point to the simplified line.
func MaxDeviation(original, simplified []datastructure.Coordinate) float64 {
	maxDev := 0.0
	for _, p := range original {
		maxDev = math.Max(maxDev, PointPolylineDistance(p, simplified))
	}
	return maxDev
}
