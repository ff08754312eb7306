package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/Prototyp3html/2025-CP-SafePathZamboanga-sub002/pkg/datastructure"
	"github.com/Prototyp3html/2025-CP-SafePathZamboanga-sub002/pkg/engine/planner"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
)

const defaultNearbyRadiusKm = 1.0

type RoutingService interface {
	PlanRoutes(ctx context.Context, req planner.Request) (planner.RouteSet, error)
	AnalyzeRoute(ctx context.Context, coords []datastructure.Coordinate,
		weather datastructure.Weather) (datastructure.FloodAnalysisResult, error)
	NearbyFloods(ctx context.Context, p datastructure.Coordinate, radiusKm float64) ([]datastructure.FloodRecord, error)
}

type RoutingHandler struct {
	svc      RoutingService
	m        *Metrics
	validate *validator.Validate
	trans    ut.Translator
}

func RoutingRouter(r *chi.Mux, svc RoutingService, m *Metrics) {
	validate := validator.New()
	english := en.New()
	uni := ut.New(english, english)
	trans, _ := uni.GetTranslator("en")
	_ = enTranslations.RegisterDefaultTranslations(validate, trans)

	handler := &RoutingHandler{svc: svc, m: m, validate: validate, trans: trans}

	r.Get("/healthz", handler.Health)
	r.Group(func(r chi.Router) {
		r.Route("/api", func(r chi.Router) {
			r.Post("/routes", handler.CreateRoutes)
			r.Post("/flood-analysis", handler.AnalyzeRoute)
			r.Get("/floods/nearby", handler.NearbyFloods)
		})
	})
}

// Coord model info
//
//	@Description	model untuk koordinat
type Coord struct {
	Lat float64 `json:"lat" validate:"lte=90,gte=-90"`
	Lon float64 `json:"lon" validate:"lte=180,gte=-180"`
}

func (c Coord) toCoordinate() datastructure.Coordinate {
	return datastructure.NewCoordinate(c.Lat, c.Lon)
}

func toCoordinates(coords []Coord) []datastructure.Coordinate {
	out := make([]datastructure.Coordinate, 0, len(coords))
	for _, c := range coords {
		out = append(out, c.toCoordinate())
	}
	return out
}

type WeatherRequest struct {
	PrecipitationMMHr float64 `json:"precipitation_mm_hr" validate:"gte=0"`
	WindKPH           float64 `json:"wind_kph" validate:"gte=0"`
}

func (w WeatherRequest) toWeather() datastructure.Weather {
	return datastructure.Weather{PrecipitationMMHr: w.PrecipitationMMHr, WindKPH: w.WindKPH}
}

// RouteRequest model info
//
//	@Description	request body for flood aware route planning
type RouteRequest struct {
	Start     *Coord         `json:"start" validate:"required"`
	End       *Coord         `json:"end" validate:"required"`
	Waypoints []Coord        `json:"waypoints" validate:"max=10,dive"`
	Mode      string         `json:"mode" validate:"required"`
	Weather   WeatherRequest `json:"weather"`
}

func (s *RouteRequest) Bind(r *http.Request) error {
	if s.Start == nil || s.End == nil {
		return errors.New("start and end are required")
	}
	return nil
}

type RouteResponse struct {
	Label         datastructure.RiskProfile         `json:"label"`
	SearchProfile datastructure.RiskProfile         `json:"search_profile"`
	Source        datastructure.RouteSource         `json:"source"`
	Degraded      bool                              `json:"degraded"`
	Path          string                            `json:"path"`
	Coordinates   []Coord                           `json:"coordinates"`
	Distance      float64                           `json:"distance_m"`
	Duration      float64                           `json:"duration_s"`
	SegmentIDs    []string                          `json:"segment_ids,omitempty"`
	FloodAnalysis datastructure.FloodAnalysisResult `json:"flood_analysis"`
}

type RoutesResponse struct {
	Routes   []RouteResponse   `json:"routes"`
	Failures map[string]string `json:"failures,omitempty"`
	Warnings []string          `json:"warnings,omitempty"`
}

func renderCoords(coords []datastructure.Coordinate) []Coord {
	out := make([]Coord, 0, len(coords))
	for _, c := range coords {
		out = append(out, Coord{Lat: c.Lat, Lon: c.Lon})
	}
	return out
}

func RenderRoutesResponse(set planner.RouteSet) *RoutesResponse {
	resp := &RoutesResponse{
		Routes:   make([]RouteResponse, 0, len(set.Routes)),
		Warnings: set.Warnings,
	}
	for _, r := range set.Routes {
		resp.Routes = append(resp.Routes, RouteResponse{
			Label:         r.Label,
			SearchProfile: r.SearchProfile,
			Source:        r.Source,
			Degraded:      r.Degraded,
			Path:          r.Polyline,
			Coordinates:   renderCoords(r.Coordinates),
			Distance:      r.Distance,
			Duration:      r.Duration.Seconds(),
			SegmentIDs:    r.SegmentIDs,
			FloodAnalysis: r.FloodAnalysis,
		})
	}
	if len(set.Failures) > 0 {
		resp.Failures = make(map[string]string, len(set.Failures))
		for profile, err := range set.Failures {
			resp.Failures[string(profile)] = err.Error()
		}
	}
	return resp
}

func (h *RoutingHandler) validateStruct(w http.ResponseWriter, r *http.Request, data interface{}) bool {
	if err := h.validate.Struct(data); err != nil {
		render.Render(w, r, ErrValidation(err, translateError(err, h.trans)))
		return false
	}
	return true
}

// CreateRoutes
//
//	@Summary		up to three routes between start and end, labelled safe, manageable and prone by flood exposure
//	@Tags			routes
//	@Param			body	body	RouteRequest	true	"request body"
//	@Accept			application/json
//	@Produce		application/json
//	@Router			/routes [post]
//	@Success		200	{object}	RoutesResponse
//	@Failure		400	{object}	ErrResponse
//	@Failure		404	{object}	ErrResponse
//	@Failure		422	{object}	ErrResponse
//	@Failure		500	{object}	ErrResponse
func (h *RoutingHandler) CreateRoutes(w http.ResponseWriter, r *http.Request) {
	data := &RouteRequest{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	if !h.validateStruct(w, r, data) {
		return
	}
	mode, err := datastructure.ParseTravelMode(data.Mode)
	if err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}

	set, err := h.svc.PlanRoutes(r.Context(), planner.Request{
		Start:     data.Start.toCoordinate(),
		End:       data.End.toCoordinate(),
		Waypoints: toCoordinates(data.Waypoints),
		Mode:      mode,
		Weather:   data.Weather.toWeather(),
	})
	if err != nil {
		render.Render(w, r, ErrChooser(err))
		return
	}
	h.m.observeRoutes(set.Routes, set.Failures)

	render.Status(r, http.StatusOK)
	render.JSON(w, r, RenderRoutesResponse(set))
}

// FloodAnalysisRequest model info
//
//	@Description	either coordinates or an encoded polyline path
type FloodAnalysisRequest struct {
	Coordinates []Coord        `json:"coordinates" validate:"omitempty,min=2,dive"`
	Path        string         `json:"path"`
	Weather     WeatherRequest `json:"weather"`

	coords []datastructure.Coordinate
}

func (s *FloodAnalysisRequest) Bind(r *http.Request) error {
	if len(s.Coordinates) > 0 {
		s.coords = toCoordinates(s.Coordinates)
		return nil
	}
	if s.Path == "" {
		return errors.New("coordinates or path is required")
	}
	coords, err := datastructure.DecodePolyline(s.Path)
	if err != nil {
		return fmt.Errorf("invalid path polyline: %w", err)
	}
	s.coords = coords
	return nil
}

// AnalyzeRoute
//
//	@Summary		flood exposure of an arbitrary route
//	@Tags			routes
//	@Param			body	body	FloodAnalysisRequest	true	"request body"
//	@Accept			application/json
//	@Produce		application/json
//	@Router			/flood-analysis [post]
//	@Success		200	{object}	datastructure.FloodAnalysisResult
//	@Failure		400	{object}	ErrResponse
//	@Failure		500	{object}	ErrResponse
func (h *RoutingHandler) AnalyzeRoute(w http.ResponseWriter, r *http.Request) {
	data := &FloodAnalysisRequest{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	if !h.validateStruct(w, r, data) {
		return
	}

	res, err := h.svc.AnalyzeRoute(r.Context(), data.coords, data.Weather.toWeather())
	if err != nil {
		render.Render(w, r, ErrChooser(err))
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, res)
}

type FloodRecordResponse struct {
	SegmentID   string                          `json:"segment_id,omitempty"`
	Flooded     bool                            `json:"flooded"`
	Coordinates []Coord                         `json:"coordinates"`
	Elevation   *datastructure.ElevationSummary `json:"elevation,omitempty"`
}

type NearbyFloodsResponse struct {
	Records []FloodRecordResponse `json:"records"`
}

func RenderNearbyFloodsResponse(records []datastructure.FloodRecord) *NearbyFloodsResponse {
	resp := &NearbyFloodsResponse{Records: make([]FloodRecordResponse, 0, len(records))}
	for _, rec := range records {
		item := FloodRecordResponse{
			SegmentID:   rec.SegmentID,
			Flooded:     rec.Flooded,
			Coordinates: renderCoords(rec.Coordinates),
		}
		if rec.Elevation.Known {
			elev := rec.Elevation
			item.Elevation = &elev
		}
		resp.Records = append(resp.Records, item)
	}
	return resp
}

func queryFloat(r *http.Request, key string, def float64, required bool) (float64, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		if required {
			return 0, fmt.Errorf("query parameter %s is required", key)
		}
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("query parameter %s: %w", key, err)
	}
	return v, nil
}

// NearbyFloods
//
//	@Summary		flood records around a location, read from the h3 indexed snapshot
//	@Tags			floods
//	@Param			lat			query	number	true	"latitude"
//	@Param			lon			query	number	true	"longitude"
//	@Param			radius_km	query	number	false	"search radius, default 1 km"
//	@Produce		application/json
//	@Router			/floods/nearby [get]
//	@Success		200	{object}	NearbyFloodsResponse
//	@Failure		400	{object}	ErrResponse
//	@Failure		404	{object}	ErrResponse
func (h *RoutingHandler) NearbyFloods(w http.ResponseWriter, r *http.Request) {
	lat, err := queryFloat(r, "lat", 0, true)
	if err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	lon, err := queryFloat(r, "lon", 0, true)
	if err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	radius, err := queryFloat(r, "radius_km", defaultNearbyRadiusKm, false)
	if err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}

	records, err := h.svc.NearbyFloods(r.Context(), datastructure.NewCoordinate(lat, lon), radius)
	if err != nil {
		render.Render(w, r, ErrChooser(err))
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, RenderNearbyFloodsResponse(records))
}

func (h *RoutingHandler) Health(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusOK)
	render.JSON(w, r, map[string]string{"status": "ok"})
}
