package planner

import (
	"context"
	"errors"
	"fmt"

	"github.com/Prototyp3html/2025-CP-SafePathZamboanga-sub002/pkg/datastructure"
	"github.com/Prototyp3html/2025-CP-SafePathZamboanga-sub002/pkg/engine/routingalgorithm"
)

// Candidate unsimplified route produced by a Strategy.
type Candidate struct {
	Coordinates []datastructure.Coordinate
	SegmentIDs  []string
	Source      datastructure.RouteSource
	Degraded    bool
}

type Strategy interface {
	Name() string
	Attempt(ctx context.Context, req Request, profile datastructure.RiskProfile) (Candidate, error)
}

type Searcher interface {
	Search(ctx context.Context, start, end datastructure.Coordinate, mode datastructure.TravelMode,
		profile datastructure.RiskProfile) (routingalgorithm.SearchResult, error)
}

// ExternalRouter third party routing service. it knows nothing about floods.
type ExternalRouter interface {
	Route(ctx context.Context, points []datastructure.Coordinate, mode datastructure.TravelMode) ([]datastructure.Coordinate, error)
}

// legs calls route for every consecutive pair of points and stitches the results so each
// waypoint appears exactly once.
func legs(points []datastructure.Coordinate,
	route func(a, b datastructure.Coordinate) ([]datastructure.Coordinate, []string, error)) (Candidate, error) {
	var cand Candidate
	for i := 1; i < len(points); i++ {
		coords, segmentIDs, err := route(points[i-1], points[i])
		if err != nil {
			return Candidate{}, fmt.Errorf("leg %d: %w", i, err)
		}
		if len(coords) == 0 {
			return Candidate{}, fmt.Errorf("leg %d: empty route", i)
		}

		if len(cand.Coordinates) > 0 && cand.Coordinates[len(cand.Coordinates)-1].Equal(coords[0]) {
			coords = coords[1:]
		}
		cand.Coordinates = append(cand.Coordinates, coords...)

		for _, id := range segmentIDs {
			if len(cand.SegmentIDs) > 0 && cand.SegmentIDs[len(cand.SegmentIDs)-1] == id {
				continue
			}
			cand.SegmentIDs = append(cand.SegmentIDs, id)
		}
	}
	return cand, nil
}

// GraphStrategy A* over the local road graph, the only strategy that honours the risk profile.
type GraphStrategy struct {
	searcher Searcher
}

func NewGraphStrategy(searcher Searcher) *GraphStrategy {
	return &GraphStrategy{searcher: searcher}
}

func (s *GraphStrategy) Name() string {
	return string(datastructure.SourceGraph)
}

func (s *GraphStrategy) Attempt(ctx context.Context, req Request, profile datastructure.RiskProfile) (Candidate, error) {
	cand, err := legs(req.Points(), func(a, b datastructure.Coordinate) ([]datastructure.Coordinate, []string, error) {
		res, err := s.searcher.Search(ctx, a, b, req.Mode, profile)
		if err != nil {
			return nil, nil, err
		}
		return res.Coordinates, res.SegmentIDs, nil
	})
	if err != nil {
		return Candidate{}, err
	}
	cand.Source = datastructure.SourceGraph
	return cand, nil
}

// ExternalStrategy asks an external router leg by leg. the result is the same for every profile.
type ExternalStrategy struct {
	router ExternalRouter
}

func NewExternalStrategy(router ExternalRouter) *ExternalStrategy {
	return &ExternalStrategy{router: router}
}

func (s *ExternalStrategy) Name() string {
	return string(datastructure.SourceExternal)
}

func (s *ExternalStrategy) Attempt(ctx context.Context, req Request, _ datastructure.RiskProfile) (Candidate, error) {
	cand, err := legs(req.Points(), func(a, b datastructure.Coordinate) ([]datastructure.Coordinate, []string, error) {
		coords, err := s.router.Route(ctx, []datastructure.Coordinate{a, b}, req.Mode)
		if err != nil {
			return nil, nil, err
		}
		if len(coords) == 0 || !coords[0].Equal(a) {
			coords = append([]datastructure.Coordinate{a}, coords...)
		}
		if !coords[len(coords)-1].Equal(b) {
			coords = append(coords, b)
		}
		return coords, nil, nil
	})
	if err != nil {
		return Candidate{}, err
	}
	cand.Source = datastructure.SourceExternal
	return cand, nil
}

// StraightLineStrategy joins the request points directly. last resort, marked degraded.
type StraightLineStrategy struct{}

func NewStraightLineStrategy() *StraightLineStrategy {
	return &StraightLineStrategy{}
}

func (s *StraightLineStrategy) Name() string {
	return string(datastructure.SourceStraightLine)
}

func (s *StraightLineStrategy) Attempt(ctx context.Context, req Request, _ datastructure.RiskProfile) (Candidate, error) {
	if err := ctx.Err(); err != nil {
		return Candidate{}, err
	}
	cand, err := legs(req.Points(), func(a, b datastructure.Coordinate) ([]datastructure.Coordinate, []string, error) {
		return []datastructure.Coordinate{a, b}, nil, nil
	})
	if err != nil {
		return Candidate{}, err
	}
	cand.Source = datastructure.SourceStraightLine
	cand.Degraded = true
	return cand, nil
}

// attemptChain runs the strategies in order until one succeeds. the returned error joins every
// strategy failure.
func attemptChain(ctx context.Context, strategies []Strategy, req Request,
	profile datastructure.RiskProfile) (Candidate, error) {
	errs := make([]error, 0, len(strategies))
	for _, s := range strategies {
		cand, err := s.Attempt(ctx, req, profile)
		if err == nil {
			return cand, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		if ctx.Err() != nil {
			break
		}
	}
	if len(errs) == 0 {
		return Candidate{}, errors.New("no routing strategy configured")
	}
	return Candidate{}, errors.Join(errs...)
}
