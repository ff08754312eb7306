package external

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Prototyp3html/2025-CP-SafePathZamboanga-sub002/pkg/datastructure"

	"golang.org/x/exp/slog"
)

var ErrNoRoute = errors.New("external router found no route")

type Config struct {
	// BaseURL e.g. http://router.project-osrm.org. empty disables the external router.
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

func DefaultConfig() Config {
	return Config{
		Timeout: 10 * time.Second,
	}
}

type osrmResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Routes  []osrmRoute `json:"routes"`
}

type osrmRoute struct {
	Distance float64 `json:"distance"` // meter
	Duration float64 `json:"duration"` // second
	Geometry string  `json:"geometry"`
}

// OSRMClient asks an OSRM compatible server for a route through all points.
type OSRMClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewOSRMClient(cfg Config) *OSRMClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultConfig().Timeout
	}
	return &OSRMClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func osrmProfile(mode datastructure.TravelMode) string {
	switch mode {
	case datastructure.Bicycle:
		return "cycling"
	case datastructure.Walking:
		return "foot"
	default:
		return "driving"
	}
}

func (c *OSRMClient) routeURL(points []datastructure.Coordinate, mode datastructure.TravelMode) string {
	locs := make([]string, 0, len(points))
	for _, p := range points {
		// lon,lat
		locs = append(locs, fmt.Sprintf("%.6f,%.6f", p.Lon, p.Lat))
	}
	return fmt.Sprintf("%s/route/v1/%s/%s?overview=full&geometries=polyline&alternatives=false&steps=false",
		c.baseURL, osrmProfile(mode), strings.Join(locs, ";"))
}

func (c *OSRMClient) Route(ctx context.Context, points []datastructure.Coordinate,
	mode datastructure.TravelMode) ([]datastructure.Coordinate, error) {
	if len(points) < 2 {
		return nil, fmt.Errorf("external route needs at least 2 points, got %d", len(points))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.routeURL(points, mode), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call external router: %w", err)
	}
	defer resp.Body.Close()

	var osrmResp osrmResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&osrmResp)

	if resp.StatusCode != http.StatusOK {
		slog.Warn("external router returned an error", "status", resp.StatusCode, "code", osrmResp.Code,
			"message", osrmResp.Message)
		if resp.StatusCode == http.StatusBadRequest && osrmResp.Code == "NoRoute" {
			return nil, ErrNoRoute
		}
		return nil, fmt.Errorf("external router returned status %d", resp.StatusCode)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("failed to decode external router response: %w", decodeErr)
	}
	if osrmResp.Code != "Ok" || len(osrmResp.Routes) == 0 {
		return nil, fmt.Errorf("%w: code %q", ErrNoRoute, osrmResp.Code)
	}

	coords, err := datastructure.DecodePolyline(osrmResp.Routes[0].Geometry)
	if err != nil {
		return nil, fmt.Errorf("failed to decode route geometry: %w", err)
	}
	if len(coords) < 2 {
		return nil, fmt.Errorf("%w: geometry has %d points", ErrNoRoute, len(coords))
	}
	return coords, nil
}
