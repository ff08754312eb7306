package service

import (
	"context"
	"errors"

	"github.com/Prototyp3html/2025-CP-SafePathZamboanga-sub002/pkg/datastructure"
	"github.com/Prototyp3html/2025-CP-SafePathZamboanga-sub002/pkg/engine/planner"
	"github.com/Prototyp3html/2025-CP-SafePathZamboanga-sub002/pkg/engine/routingalgorithm"
	"github.com/Prototyp3html/2025-CP-SafePathZamboanga-sub002/pkg/kv"
	"github.com/Prototyp3html/2025-CP-SafePathZamboanga-sub002/pkg/server"
)

const MaxNearbyRadiusKm = 10.0

type RoutePlanner interface {
	BuildRoutes(ctx context.Context, req planner.Request) (planner.RouteSet, error)
}

type FloodAnalyzer interface {
	Analyze(coords []datastructure.Coordinate, weather datastructure.Weather) datastructure.FloodAnalysisResult
}

type FloodRecordStore interface {
	NearbyFloodRecords(p datastructure.Coordinate, radiusKm float64) ([]datastructure.FloodRecord, error)
}

type RoutingService struct {
	planner  RoutePlanner
	analyzer FloodAnalyzer
	floods   FloodRecordStore
}

// NewRoutingService floods may be nil when the engine was started without a snapshot.
func NewRoutingService(planner RoutePlanner, analyzer FloodAnalyzer, floods FloodRecordStore) *RoutingService {
	return &RoutingService{planner: planner, analyzer: analyzer, floods: floods}
}

func (uc *RoutingService) PlanRoutes(ctx context.Context, req planner.Request) (planner.RouteSet, error) {
	set, err := uc.planner.BuildRoutes(ctx, req)
	if err != nil {
		if errors.Is(err, planner.ErrInvalidRequest) {
			return planner.RouteSet{}, server.WrapErrorf(err, server.ErrBadParamInput, "invalid route request")
		}
		return planner.RouteSet{}, server.WrapErrorf(err, server.ErrInternalServerError, "internal server error")
	}
	if len(set.Routes) > 0 {
		return set, nil
	}
	return planner.RouteSet{}, noRouteError(set.Failures)
}

func noRouteError(failures map[datastructure.RiskProfile]error) error {
	errs := make([]error, 0, len(failures))
	allNoRoad := len(failures) > 0
	restricted := false
	for _, profile := range datastructure.RiskProfiles {
		err, ok := failures[profile]
		if !ok {
			continue
		}
		errs = append(errs, err)
		if !errors.Is(err, routingalgorithm.ErrNoNearbyRoad) {
			allNoRoad = false
		}
		if errors.Is(err, routingalgorithm.ErrModeRestricted) {
			restricted = true
		}
	}
	joined := errors.Join(errs...)

	switch {
	case allNoRoad:
		return server.WrapErrorf(joined, server.ErrNotFound,
			"sorry!! the location you entered is not near any road usable by this travel mode")
	case restricted:
		return server.WrapErrorf(joined, server.ErrUnprocessable,
			"the destination can only be reached over roads closed to this travel mode")
	default:
		return server.WrapErrorf(joined, server.ErrNotFound, "no route found between the given locations")
	}
}

func (uc *RoutingService) AnalyzeRoute(ctx context.Context, coords []datastructure.Coordinate,
	weather datastructure.Weather) (datastructure.FloodAnalysisResult, error) {
	if len(coords) < 2 {
		return datastructure.FloodAnalysisResult{}, server.NewErrorf(server.ErrBadParamInput,
			"route needs at least 2 coordinates")
	}
	for _, c := range coords {
		if !c.Valid() {
			return datastructure.FloodAnalysisResult{}, server.NewErrorf(server.ErrBadParamInput,
				"coordinate (%f, %f) out of range", c.Lat, c.Lon)
		}
	}
	if weather.PrecipitationMMHr < 0 || weather.WindKPH < 0 {
		return datastructure.FloodAnalysisResult{}, server.NewErrorf(server.ErrBadParamInput, "negative weather reading")
	}
	if err := ctx.Err(); err != nil {
		return datastructure.FloodAnalysisResult{}, server.WrapErrorf(err, server.ErrInternalServerError, "internal server error")
	}
	return uc.analyzer.Analyze(coords, weather), nil
}

func (uc *RoutingService) NearbyFloods(ctx context.Context, p datastructure.Coordinate,
	radiusKm float64) ([]datastructure.FloodRecord, error) {
	if !p.Valid() {
		return nil, server.NewErrorf(server.ErrBadParamInput, "coordinate (%f, %f) out of range", p.Lat, p.Lon)
	}
	if radiusKm <= 0 || radiusKm > MaxNearbyRadiusKm {
		return nil, server.NewErrorf(server.ErrBadParamInput, "radius must be in (0, %.0f] km", MaxNearbyRadiusKm)
	}
	if uc.floods == nil {
		return nil, server.NewErrorf(server.ErrNotFound, "flood snapshot is not loaded")
	}

	records, err := uc.floods.NearbyFloodRecords(p, radiusKm)
	if err != nil {
		if errors.Is(err, kv.ErrSnapshotNotFound) {
			return nil, server.WrapErrorf(err, server.ErrNotFound, "flood snapshot is not loaded")
		}
		return nil, server.WrapErrorf(err, server.ErrInternalServerError, "internal server error")
	}
	return records, nil
}
