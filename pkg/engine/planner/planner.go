package planner

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/Prototyp3html/2025-CP-SafePathZamboanga-sub002/pkg/datastructure"
	"github.com/Prototyp3html/2025-CP-SafePathZamboanga-sub002/pkg/geo"

	"golang.org/x/exp/slog"
)

type Config struct {
	SimplifyTolerance float64             `yaml:"simplify_tolerance_m"`
	Simplify          geo.SimplifyOptions `yaml:"simplify"`
	// MinDivergence routes whose flooded percentages are closer than this (percentage points) get a warning.
	MinDivergence float64 `yaml:"min_divergence_pp"`
	// EnableStraightLine appends the degraded straight line strategy to the chain.
	EnableStraightLine bool `yaml:"enable_straight_line"`
}

func DefaultConfig() Config {
	return Config{
		SimplifyTolerance:  geo.DOUGLAS_PEUCKER_THRESHOLDS,
		Simplify:           geo.DefaultSimplifyOptions(),
		MinDivergence:      1.0,
		EnableStraightLine: false,
	}
}

type FloodAnalyzer interface {
	Analyze(coords []datastructure.Coordinate, weather datastructure.Weather) datastructure.FloodAnalysisResult
}

type RouteSet struct {
	Routes   []datastructure.Route
	Failures map[datastructure.RiskProfile]error
	Warnings []string
}

type Planner struct {
	strategies []Strategy
	analyzer   FloodAnalyzer
	cfg        Config
}

// NewPlanner strategies are tried in the given order for every profile.
func NewPlanner(analyzer FloodAnalyzer, cfg Config, strategies ...Strategy) *Planner {
	if cfg.SimplifyTolerance <= 0 {
		cfg.SimplifyTolerance = geo.DOUGLAS_PEUCKER_THRESHOLDS
	}
	if cfg.Simplify.MaxSpikeFraction <= 0 {
		cfg.Simplify = geo.DefaultSimplifyOptions()
	}
	if cfg.EnableStraightLine {
		strategies = append(strategies, NewStraightLineStrategy())
	}
	return &Planner{strategies: strategies, analyzer: analyzer, cfg: cfg}
}

func (p *Planner) Analyzer() FloodAnalyzer {
	return p.analyzer
}

// BuildRoutes computes one route per risk profile concurrently, then labels them by measured
// flood exposure. profile failures are reported in RouteSet.Failures, the error is only for
// invalid requests or cancellation.
func (p *Planner) BuildRoutes(ctx context.Context, req Request) (RouteSet, error) {
	req, err := req.Normalize()
	if err != nil {
		return RouteSet{}, err
	}

	type outcome struct {
		route datastructure.Route
		err   error
	}
	outcomes := make([]outcome, len(datastructure.RiskProfiles))

	pinned := req.Points()
	var wg sync.WaitGroup
	for i, profile := range datastructure.RiskProfiles {
		wg.Add(1)
		go func(i int, profile datastructure.RiskProfile) {
			defer wg.Done()
			cand, err := attemptChain(ctx, p.strategies, req, profile)
			if err != nil {
				outcomes[i] = outcome{err: err}
				return
			}
			outcomes[i] = outcome{route: p.buildRoute(cand, req, profile, pinned)}
		}(i, profile)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return RouteSet{}, err
	}

	set := RouteSet{Failures: make(map[datastructure.RiskProfile]error)}
	for i, profile := range datastructure.RiskProfiles {
		if outcomes[i].err != nil {
			slog.Warn("route profile failed", "profile", profile, "mode", req.Mode, "error", outcomes[i].err)
			set.Failures[profile] = outcomes[i].err
			continue
		}
		set.Routes = append(set.Routes, outcomes[i].route)
	}

	set.Warnings = p.divergenceWarnings(set.Routes)
	labelRoutes(set.Routes)
	for _, r := range set.Routes {
		if r.Degraded {
			set.Warnings = append(set.Warnings, fmt.Sprintf("%s route is a straight line estimate", r.Label))
		}
	}
	return set, nil
}

func (p *Planner) buildRoute(cand Candidate, req Request, profile datastructure.RiskProfile,
	pinned []datastructure.Coordinate) datastructure.Route {
	coords := geo.Simplify(cand.Coordinates, p.cfg.SimplifyTolerance, pinned, p.cfg.Simplify)
	distance := datastructure.PathLength(coords)

	return datastructure.Route{
		Label:         profile,
		SearchProfile: profile,
		Source:        cand.Source,
		Degraded:      cand.Degraded,
		Coordinates:   coords,
		Polyline:      datastructure.CreatePolyline(coords),
		SegmentIDs:    cand.SegmentIDs,
		Distance:      distance,
		Duration:      datastructure.EstimateDuration(distance, req.Mode),
		FloodAnalysis: p.analyzer.Analyze(coords, req.Weather),
	}
}

func (p *Planner) divergenceWarnings(routes []datastructure.Route) []string {
	warnings := make([]string, 0)
	for i := 0; i < len(routes); i++ {
		for j := i + 1; j < len(routes); j++ {
			a, b := routes[i], routes[j]
			if sameGeometry(a.Coordinates, b.Coordinates) {
				warnings = append(warnings, fmt.Sprintf("%s and %s searches produced the same route",
					a.SearchProfile, b.SearchProfile))
				continue
			}
			diff := math.Abs(a.FloodAnalysis.FloodedPercentage - b.FloodAnalysis.FloodedPercentage)
			if diff < p.cfg.MinDivergence {
				warnings = append(warnings, fmt.Sprintf("%s and %s routes differ by only %.2f%% flood exposure",
					a.SearchProfile, b.SearchProfile, diff))
			}
		}
	}
	return warnings
}

// labelRoutes sorts by flooded percentage (ties: longer route first) and assigns safe, manageable,
// prone. two routes become safe and prone, a single route keeps its search profile.
func labelRoutes(routes []datastructure.Route) {
	sort.SliceStable(routes, func(i, j int) bool {
		a, b := routes[i].FloodAnalysis.FloodedPercentage, routes[j].FloodAnalysis.FloodedPercentage
		if a != b {
			return a < b
		}
		return routes[i].Distance > routes[j].Distance
	})

	switch len(routes) {
	case 1:
		routes[0].Label = routes[0].SearchProfile
	case 2:
		routes[0].Label = datastructure.Safe
		routes[1].Label = datastructure.Prone
	case 3:
		for i := range routes {
			routes[i].Label = datastructure.RiskProfiles[i]
		}
	}
}

func sameGeometry(a, b []datastructure.Coordinate) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}
