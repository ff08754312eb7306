package config

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/Prototyp3html/2025-CP-SafePathZamboanga-sub002/pkg/engine/cost"
	"github.com/Prototyp3html/2025-CP-SafePathZamboanga-sub002/pkg/engine/planner"
	"github.com/Prototyp3html/2025-CP-SafePathZamboanga-sub002/pkg/engine/routingalgorithm"
	"github.com/Prototyp3html/2025-CP-SafePathZamboanga-sub002/pkg/external"
	"github.com/Prototyp3html/2025-CP-SafePathZamboanga-sub002/pkg/flood"
	"github.com/Prototyp3html/2025-CP-SafePathZamboanga-sub002/pkg/graph"
	"github.com/Prototyp3html/2025-CP-SafePathZamboanga-sub002/pkg/snap"

	"gopkg.in/yaml.v3"
)

type Server struct {
	ListenAddr string `yaml:"listen_addr"`
	// AllowedOrigins cors origins.
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type Config struct {
	Server   Server                  `yaml:"server"`
	Graph    graph.Config            `yaml:"graph"`
	Cost     cost.Config             `yaml:"cost"`
	Search   routingalgorithm.Config `yaml:"search"`
	Planner  planner.Config          `yaml:"planner"`
	Flood    flood.Config            `yaml:"flood"`
	External external.Config         `yaml:"external"`
	// SnapRadius max distance (m) between a requested coordinate and the road node it snaps to.
	SnapRadius float64 `yaml:"snap_radius_m"`
}

func Default() Config {
	return Config{
		Server: Server{
			ListenAddr:     ":5000",
			AllowedOrigins: []string{"https://*", "http://*"},
		},
		Graph:      graph.DefaultConfig(),
		Cost:       cost.DefaultConfig(),
		Search:     routingalgorithm.DefaultConfig(),
		Planner:    planner.DefaultConfig(),
		Flood:      flood.DefaultConfig(),
		External:   external.DefaultConfig(),
		SnapRadius: snap.DefaultRadius,
	}
}

// Load decodes the yaml file at path over Default. an empty path returns the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("open config %s: %w", path, err)
	}
	defer f.Close()

	cfg, err := Decode(f)
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func Decode(r io.Reader) (Config, error) {
	cfg := Default()
	raw, err := io.ReadAll(r)
	if err != nil {
		return Config{}, err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return cfg, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	for profile, penalty := range c.Cost.FloodPenalty {
		if penalty < 1 {
			return fmt.Errorf("cost.flood_penalty.%s must be >= 1, got %v", profile, penalty)
		}
	}
	if c.Cost.SteepWeight < 0 || c.Cost.MaxTerrain < 1 {
		return fmt.Errorf("cost: steep_weight must be >= 0 and max_terrain_factor >= 1")
	}
	if c.Search.MaxIterations <= 0 || c.Search.StagnationLimit <= 0 {
		return fmt.Errorf("search: max_iterations and stagnation_limit must be positive")
	}
	if c.Search.DetourFactor < 1 {
		return fmt.Errorf("search.detour_factor must be >= 1, got %v", c.Search.DetourFactor)
	}
	if c.Graph.MaxEdgeLength <= 0 {
		return fmt.Errorf("graph.max_edge_length_m must be positive")
	}
	if c.Flood.SampleStep <= 0 || c.Flood.BufferRadius < 0 {
		return fmt.Errorf("flood: sample_step_m must be positive and buffer_radius_m not negative")
	}
	if c.SnapRadius <= 0 {
		return fmt.Errorf("snap_radius_m must be positive")
	}
	return nil
}
