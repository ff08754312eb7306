package cost

import (
	"math"

	"github.com/Prototyp3html/2025-CP-SafePathZamboanga-sub002/pkg/datastructure"
	"github.com/Prototyp3html/2025-CP-SafePathZamboanga-sub002/pkg/flood"
)

type Config struct {
	FloodPenalty map[datastructure.RiskProfile]float64 `yaml:"flood_penalty"`

	// grade (rise over length) above which a segment counts as steep.
	SteepGrade  float64 `yaml:"steep_grade"`
	SteepWeight float64 `yaml:"steep_weight"`
	MaxTerrain  float64 `yaml:"max_terrain_factor"`

	// segments with mean elevation below LowElevation meters are treated as low-lying.
	LowElevation       float64                               `yaml:"low_elevation_m"`
	LowElevationWeight map[datastructure.RiskProfile]float64 `yaml:"low_elevation_weight"`
}

func DefaultConfig() Config {
	return Config{
		FloodPenalty: map[datastructure.RiskProfile]float64{
			datastructure.Safe:       50,
			datastructure.Manageable: 5,
			datastructure.Prone:      1.1,
		},
		SteepGrade:   0.08,
		SteepWeight:  4,
		MaxTerrain:   3,
		LowElevation: 5,
		LowElevationWeight: map[datastructure.RiskProfile]float64{
			datastructure.Safe:       1.0,
			datastructure.Manageable: 0.3,
			datastructure.Prone:      0,
		},
	}
}

// CostModel edge weight = length x flood x terrain x mode x hierarchy. every finite factor is >= 1,
// so the cost is never below the geometric length.
type CostModel struct {
	cfg    Config
	lookup *flood.Lookup
}

func NewCostModel(cfg Config, lookup *flood.Lookup) *CostModel {
	def := DefaultConfig()
	if cfg.FloodPenalty == nil {
		cfg.FloodPenalty = def.FloodPenalty
	}
	if cfg.LowElevationWeight == nil {
		cfg.LowElevationWeight = def.LowElevationWeight
	}
	if cfg.MaxTerrain < 1 {
		cfg.MaxTerrain = def.MaxTerrain
	}
	return &CostModel{cfg: cfg, lookup: lookup}
}

func (cm *CostModel) Lookup() *flood.Lookup {
	return cm.lookup
}

func (cm *CostModel) Cost(seg *datastructure.RoadSegment, mode datastructure.TravelMode,
	profile datastructure.RiskProfile) float64 {
	return cm.EdgeCost(seg, seg.Length, mode, profile)
}

// EdgeCost cost of traversing length meters of seg. +Inf when mode may not use the segment.
func (cm *CostModel) EdgeCost(seg *datastructure.RoadSegment, length float64, mode datastructure.TravelMode,
	profile datastructure.RiskProfile) float64 {
	if !seg.AllowsMode(mode) {
		return math.Inf(1)
	}
	return length * cm.FloodFactor(seg, profile) * cm.TerrainFactor(seg, profile) *
		modeFactor(seg.Class, mode) * hierarchyFactor(seg.Class, mode)
}

func (cm *CostModel) FloodFactor(seg *datastructure.RoadSegment, profile datastructure.RiskProfile) float64 {
	if !cm.lookup.IsFlooded(seg) {
		return 1
	}
	penalty, ok := cm.cfg.FloodPenalty[profile]
	if !ok || penalty < 1 {
		return 1
	}
	return penalty
}

func (cm *CostModel) TerrainFactor(seg *datastructure.RoadSegment, profile datastructure.RiskProfile) float64 {
	elev := cm.lookup.Elevation(seg)
	if !elev.Known {
		return 1
	}

	factor := 1.0
	if seg.Length > 0 {
		grade := (elev.Max - elev.Min) / seg.Length
		if grade > cm.cfg.SteepGrade {
			factor += cm.cfg.SteepWeight * (grade - cm.cfg.SteepGrade)
		}
	}
	factor = math.Min(factor, cm.cfg.MaxTerrain)

	if cm.cfg.LowElevation > 0 && elev.Mean < cm.cfg.LowElevation {
		depth := math.Min(1, (cm.cfg.LowElevation-elev.Mean)/cm.cfg.LowElevation)
		factor *= 1 + cm.cfg.LowElevationWeight[profile]*depth
	}
	return factor
}

// modeFactor suitability of a road class for the mode.
func modeFactor(class datastructure.RoadClass, mode datastructure.TravelMode) float64 {
	switch mode {
	case datastructure.Car:
		switch class {
		case datastructure.Residential, datastructure.Service, datastructure.LivingStreet:
			return 1.15
		case datastructure.Track, datastructure.Path:
			return 1.5
		}
	case datastructure.Bicycle:
		switch class {
		case datastructure.Trunk, datastructure.Primary:
			return 1.3
		case datastructure.Track:
			return 1.2
		}
	case datastructure.Walking:
		switch class {
		case datastructure.Trunk, datastructure.Primary, datastructure.Secondary:
			return 1.2
		case datastructure.Steps:
			return 1.3
		}
	}
	return 1
}

// hierarchyFactor road hierarchy preference, vehicles favour major roads and walking minor ones.
func hierarchyFactor(class datastructure.RoadClass, mode datastructure.TravelMode) float64 {
	if mode == datastructure.Walking {
		switch class {
		case datastructure.Footway, datastructure.Pedestrian, datastructure.Path, datastructure.Steps,
			datastructure.LivingStreet, datastructure.Residential:
			return 1
		}
		return 1.1
	}

	switch class {
	case datastructure.Motorway, datastructure.Trunk, datastructure.Primary:
		return 1
	case datastructure.Secondary:
		return 1.05
	case datastructure.Tertiary:
		return 1.1
	case datastructure.Unclassified, datastructure.Residential:
		return 1.2
	case datastructure.Cycleway:
		if mode == datastructure.Bicycle {
			return 1
		}
		return 1.3
	default:
		return 1.3
	}
}
