package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Prototyp3html/2025-CP-SafePathZamboanga-sub002/pkg/datastructure"
	"github.com/Prototyp3html/2025-CP-SafePathZamboanga-sub002/pkg/engine/planner"
	"github.com/Prototyp3html/2025-CP-SafePathZamboanga-sub002/pkg/server"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	lastRequest planner.Request
	lastCoords  []datastructure.Coordinate
	lastRadius  float64

	set     planner.RouteSet
	records []datastructure.FloodRecord
	err     error
}

func (f *fakeService) PlanRoutes(ctx context.Context, req planner.Request) (planner.RouteSet, error) {
	f.lastRequest = req
	return f.set, f.err
}

func (f *fakeService) AnalyzeRoute(ctx context.Context, coords []datastructure.Coordinate,
	weather datastructure.Weather) (datastructure.FloodAnalysisResult, error) {
	f.lastCoords = coords
	if f.err != nil {
		return datastructure.FloodAnalysisResult{}, f.err
	}
	return datastructure.FloodAnalysisResult{TotalDistance: datastructure.PathLength(coords),
		RiskLevel: datastructure.RiskLow, WeatherImpact: datastructure.ImpactNone, WeatherMultiplier: 1}, nil
}

func (f *fakeService) NearbyFloods(ctx context.Context, p datastructure.Coordinate,
	radiusKm float64) ([]datastructure.FloodRecord, error) {
	f.lastRadius = radiusKm
	return f.records, f.err
}

func newTestRouter(svc RoutingService) (*chi.Mux, *Metrics) {
	m := NewMetrics(prometheus.NewRegistry())
	r := chi.NewRouter()
	r.Use(PromeHttpMiddleware(m))
	RoutingRouter(r, svc, m)
	return r, m
}

func doJSON(t *testing.T, h http.Handler, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCreateRoutes(t *testing.T) {
	coords := []datastructure.Coordinate{{Lat: 6.9157, Lon: 122.0820}, {Lat: 6.9200, Lon: 122.0833}}
	svc := &fakeService{set: planner.RouteSet{
		Routes: []datastructure.Route{{
			Label:         datastructure.Safe,
			SearchProfile: datastructure.Prone,
			Source:        datastructure.SourceGraph,
			Coordinates:   coords,
			Polyline:      datastructure.CreatePolyline(coords),
			Distance:      500,
			Duration:      90 * time.Second,
			SegmentIDs:    []string{"a1"},
			FloodAnalysis: datastructure.FloodAnalysisResult{FloodedPercentage: 12.5, RiskLevel: datastructure.RiskModerate},
		}},
		Failures: map[datastructure.RiskProfile]error{datastructure.Manageable: errors.New("search exhausted")},
		Warnings: []string{"only one route"},
	}}
	h, m := newTestRouter(svc)

	rec := doJSON(t, h, http.MethodPost, "/api/routes", map[string]interface{}{
		"start":     map[string]float64{"lat": 6.9157, "lon": 122.0820},
		"end":       map[string]float64{"lat": 6.9200, "lon": 122.0833},
		"waypoints": []map[string]float64{{"lat": 6.918, "lon": 122.083}},
		"mode":      "walk",
		"weather":   map[string]float64{"precipitation_mm_hr": 12},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, datastructure.Walking, svc.lastRequest.Mode)
	assert.Equal(t, datastructure.NewCoordinate(6.9157, 122.0820), svc.lastRequest.Start)
	assert.Equal(t, []datastructure.Coordinate{{Lat: 6.918, Lon: 122.083}}, svc.lastRequest.Waypoints)
	assert.Equal(t, 12.0, svc.lastRequest.Weather.PrecipitationMMHr)

	var resp RoutesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Routes, 1)
	assert.Equal(t, datastructure.Safe, resp.Routes[0].Label)
	assert.Equal(t, datastructure.Prone, resp.Routes[0].SearchProfile)
	assert.Equal(t, 90.0, resp.Routes[0].Duration)
	assert.Equal(t, datastructure.RiskModerate, resp.Routes[0].FloodAnalysis.RiskLevel)
	assert.Len(t, resp.Routes[0].Coordinates, 2)
	assert.Equal(t, map[string]string{"manageable": "search exhausted"}, resp.Failures)
	assert.Equal(t, []string{"only one route"}, resp.Warnings)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.routesBuilt.WithLabelValues("safe", "graph")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.profileFailures.WithLabelValues("manageable")))
}

func TestCreateRoutesBadRequests(t *testing.T) {
	cases := []struct {
		name string
		body interface{}
	}{
		{"missing end", map[string]interface{}{
			"start": map[string]float64{"lat": 6.9, "lon": 122.0}, "mode": "car"}},
		{"latitude out of range", map[string]interface{}{
			"start": map[string]float64{"lat": 96.9, "lon": 122.0},
			"end":   map[string]float64{"lat": 6.9, "lon": 122.0}, "mode": "car"}},
		{"unknown mode", map[string]interface{}{
			"start": map[string]float64{"lat": 6.9, "lon": 122.0},
			"end":   map[string]float64{"lat": 6.91, "lon": 122.0}, "mode": "boat"}},
		{"missing mode", map[string]interface{}{
			"start": map[string]float64{"lat": 6.9, "lon": 122.0},
			"end":   map[string]float64{"lat": 6.91, "lon": 122.0}}},
		{"negative rain", map[string]interface{}{
			"start": map[string]float64{"lat": 6.9, "lon": 122.0},
			"end":   map[string]float64{"lat": 6.91, "lon": 122.0}, "mode": "car",
			"weather": map[string]float64{"precipitation_mm_hr": -3}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h, _ := newTestRouter(&fakeService{})
			rec := doJSON(t, h, http.MethodPost, "/api/routes", tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestCreateRoutesServiceErrors(t *testing.T) {
	body := map[string]interface{}{
		"start": map[string]float64{"lat": 6.9, "lon": 122.0},
		"end":   map[string]float64{"lat": 6.91, "lon": 122.0},
		"mode":  "car",
	}
	cases := []struct {
		err    error
		status int
	}{
		{server.NewErrorf(server.ErrNotFound, "no road"), http.StatusNotFound},
		{server.NewErrorf(server.ErrUnprocessable, "mode restricted"), http.StatusUnprocessableEntity},
		{server.NewErrorf(server.ErrBadParamInput, "bad"), http.StatusBadRequest},
		{server.WrapErrorf(errors.New("boom"), server.ErrInternalServerError, "internal server error"), http.StatusInternalServerError},
		{errors.New("unexpected"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		h, _ := newTestRouter(&fakeService{err: tc.err})
		rec := doJSON(t, h, http.MethodPost, "/api/routes", body)
		assert.Equal(t, tc.status, rec.Code, tc.err.Error())

		var resp ErrResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.StatusText)
		assert.NotContains(t, resp.ErrorText, "boom")
	}
}

func TestAnalyzeRouteHandler(t *testing.T) {
	coords := []datastructure.Coordinate{{Lat: 6.91, Lon: 122.07}, {Lat: 6.92, Lon: 122.07}}

	t.Run("coordinates", func(t *testing.T) {
		svc := &fakeService{}
		h, _ := newTestRouter(svc)
		rec := doJSON(t, h, http.MethodPost, "/api/flood-analysis", map[string]interface{}{
			"coordinates": []map[string]float64{{"lat": 6.91, "lon": 122.07}, {"lat": 6.92, "lon": 122.07}},
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, coords, svc.lastCoords)

		var res datastructure.FloodAnalysisResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		assert.InDelta(t, 1112, res.TotalDistance, 1)
	})

	t.Run("polyline", func(t *testing.T) {
		svc := &fakeService{}
		h, _ := newTestRouter(svc)
		rec := doJSON(t, h, http.MethodPost, "/api/flood-analysis", map[string]interface{}{
			"path": datastructure.CreatePolyline(coords),
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		require.Len(t, svc.lastCoords, 2)
		assert.InDelta(t, 6.92, svc.lastCoords[1].Lat, 1e-5)
	})

	t.Run("empty", func(t *testing.T) {
		h, _ := newTestRouter(&fakeService{})
		rec := doJSON(t, h, http.MethodPost, "/api/flood-analysis", map[string]interface{}{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("single coordinate", func(t *testing.T) {
		h, _ := newTestRouter(&fakeService{})
		rec := doJSON(t, h, http.MethodPost, "/api/flood-analysis", map[string]interface{}{
			"coordinates": []map[string]float64{{"lat": 6.91, "lon": 122.07}},
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestNearbyFloodsHandler(t *testing.T) {
	p := datastructure.NewCoordinate(6.92, 122.08)
	svc := &fakeService{records: []datastructure.FloodRecord{
		{Flooded: true, Coordinates: []datastructure.Coordinate{p}, Elevation: datastructure.NewElevationSummary(1, 1, 1)},
		{SegmentID: "w1", Flooded: true},
	}}
	h, _ := newTestRouter(svc)

	rec := doJSON(t, h, http.MethodGet, "/api/floods/nearby?lat=6.92&lon=122.08", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, defaultNearbyRadiusKm, svc.lastRadius)

	var resp NearbyFloodsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Records, 2)
	require.NotNil(t, resp.Records[0].Elevation)
	assert.Nil(t, resp.Records[1].Elevation)
	assert.Equal(t, "w1", resp.Records[1].SegmentID)

	rec = doJSON(t, h, http.MethodGet, "/api/floods/nearby?lat=6.92&lon=122.08&radius_km=2.5", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2.5, svc.lastRadius)

	for _, target := range []string{
		"/api/floods/nearby?lon=122.08",
		"/api/floods/nearby?lat=abc&lon=122.08",
		"/api/floods/nearby?lat=6.92&lon=122.08&radius_km=x",
	} {
		rec = doJSON(t, h, http.MethodGet, target, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}

	h, _ = newTestRouter(&fakeService{err: server.NewErrorf(server.ErrNotFound, "flood snapshot is not loaded")})
	rec = doJSON(t, h, http.MethodGet, "/api/floods/nearby?lat=6.92&lon=122.08", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthAndMetricsMiddleware(t *testing.T) {
	h, m := newTestRouter(&fakeService{})
	rec := doJSON(t, h, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	assert.Equal(t, 1, testutil.CollectAndCount(m.httpDuration))
}
