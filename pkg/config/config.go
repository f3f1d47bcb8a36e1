// Package config holds the simulation parameters and their validation.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/anggasct/urbanflow/pkg/utils"
)

// Config is the root configuration. Partial JSON files are applied over
// DefaultConfig, so any omitted field keeps its default.
type Config struct {
	Screen    ScreenConfig    `json:"screen"`
	Road      RoadConfig      `json:"road"`
	Vehicles  VehicleConfig   `json:"vehicles"`
	Spawn     SpawnConfig     `json:"spawn"`
	FixedTime FixedTimeConfig `json:"fixed_time"`
	QLearning QLearningConfig `json:"qlearning"`
}

// ScreenConfig describes the simulated area. TickRate only converts ticks to
// seconds for display; the core never reads a wall clock.
type ScreenConfig struct {
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	TickRate int     `json:"tick_rate"`
}

// RoadConfig places the stop lines relative to the intersection centre.
type RoadConfig struct {
	StopLineOffset float64 `json:"stop_line_offset"`
	LaneWidth      float64 `json:"lane_width"`
}

// VehicleConfig holds vehicle dimensions and per-kind speeds (units per tick).
type VehicleConfig struct {
	Length            float64 `json:"length"`
	Width             float64 `json:"width"`
	CarSpeed          float64 `json:"car_speed"`
	AmbulanceSpeed    float64 `json:"ambulance_speed"`
	PoliceSpeed       float64 `json:"police_speed"`
	MinFollowDistance float64 `json:"min_follow_distance"`
}

// SpawnConfig holds per-tick Bernoulli spawn probabilities.
type SpawnConfig struct {
	CarRate       float64 `json:"car_rate"`
	AmbulanceRate float64 `json:"ambulance_rate"`
	PoliceRate    float64 `json:"police_rate"`
}

// FixedTimeConfig holds the fixed timer dwell times in ticks.
type FixedTimeConfig struct {
	GreenTicks  int `json:"green_ticks"`
	YellowTicks int `json:"yellow_ticks"`
}

// QLearningConfig holds the learning controller timing, state binning and
// hyperparameters.
type QLearningConfig struct {
	DecisionInterval int     `json:"decision_interval"`
	YellowTicks      int     `json:"yellow_ticks"`
	QueueBinSize     int     `json:"queue_bin_size"`
	MaxQueueBin      int     `json:"max_queue_bin"`
	Alpha            float64 `json:"alpha"`
	Gamma            float64 `json:"gamma"`
	Epsilon          float64 `json:"epsilon"`
	EpsilonDecay     float64 `json:"epsilon_decay"`
	MinEpsilon       float64 `json:"min_epsilon"`
}

// DefaultConfig returns the stock parameters.
func DefaultConfig() Config {
	return Config{
		Screen: ScreenConfig{
			Width:    1000,
			Height:   1000,
			TickRate: 60,
		},
		Road: RoadConfig{
			StopLineOffset: 50,
			LaneWidth:      40,
		},
		Vehicles: VehicleConfig{
			Length:            45,
			Width:             22,
			CarSpeed:          2,
			AmbulanceSpeed:    3.5,
			PoliceSpeed:       3.5,
			MinFollowDistance: 35,
		},
		Spawn: SpawnConfig{
			CarRate:       0.03,
			AmbulanceRate: 0.005,
			PoliceRate:    0.005,
		},
		FixedTime: FixedTimeConfig{
			GreenTicks:  180,
			YellowTicks: 60,
		},
		QLearning: QLearningConfig{
			DecisionInterval: 120,
			YellowTicks:      60,
			QueueBinSize:     5,
			MaxQueueBin:      10,
			Alpha:            0.1,
			Gamma:            0.9,
			Epsilon:          1.0,
			EpsilonDecay:     0.9995,
			MinEpsilon:       0.05,
		},
	}
}

const maxFileSize = 1 * 1024 * 1024

// Load reads a JSON config file over DefaultConfig and validates the result.
func Load(path string) (Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return Config{}, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return Config{}, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return Config{}, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate rejects values the simulation cannot run with. Nothing is clamped.
func (c Config) Validate() error {
	if c.Screen.Width <= 0 || c.Screen.Height <= 0 {
		return utils.NewConfigurationError("Config", fmt.Sprintf("screen size must be positive, got %gx%g", c.Screen.Width, c.Screen.Height))
	}
	if c.Screen.TickRate <= 0 {
		return utils.NewConfigurationError("Config", fmt.Sprintf("tick_rate must be positive, got %d", c.Screen.TickRate))
	}
	if c.Road.StopLineOffset <= 0 {
		return utils.NewConfigurationError("Config", fmt.Sprintf("stop_line_offset must be positive, got %g", c.Road.StopLineOffset))
	}
	if c.Road.StopLineOffset >= c.Screen.Width/2 || c.Road.StopLineOffset >= c.Screen.Height/2 {
		return utils.NewConfigurationError("Config", "stop_line_offset must leave the stop line inside the screen")
	}
	if c.Road.LaneWidth <= 0 {
		return utils.NewConfigurationError("Config", fmt.Sprintf("lane_width must be positive, got %g", c.Road.LaneWidth))
	}
	if err := c.Vehicles.validate(); err != nil {
		return err
	}
	if err := c.Spawn.validate(); err != nil {
		return err
	}
	if err := c.FixedTime.Validate(); err != nil {
		return err
	}
	return c.QLearning.Validate()
}

func (v VehicleConfig) validate() error {
	if v.Length <= 0 || v.Width <= 0 {
		return utils.NewConfigurationError("Config", fmt.Sprintf("vehicle dimensions must be positive, got %gx%g", v.Length, v.Width))
	}
	for name, speed := range map[string]float64{
		"car_speed":       v.CarSpeed,
		"ambulance_speed": v.AmbulanceSpeed,
		"police_speed":    v.PoliceSpeed,
	} {
		if speed <= 0 {
			return utils.NewConfigurationError("Config", fmt.Sprintf("%s must be positive, got %g", name, speed))
		}
	}
	if v.MinFollowDistance < 0 {
		return utils.NewConfigurationError("Config", fmt.Sprintf("min_follow_distance must be non-negative, got %g", v.MinFollowDistance))
	}
	return nil
}

func (s SpawnConfig) validate() error {
	for name, rate := range map[string]float64{
		"car_rate":       s.CarRate,
		"ambulance_rate": s.AmbulanceRate,
		"police_rate":    s.PoliceRate,
	} {
		if rate < 0 || rate > 1 {
			return utils.NewConfigurationError("Spawner", fmt.Sprintf("%s must be between 0 and 1, got %g", name, rate))
		}
	}
	return nil
}

// Validate checks the fixed timer durations.
func (f FixedTimeConfig) Validate() error {
	if f.GreenTicks <= 0 {
		return utils.NewConfigurationError("FixedTimeController", fmt.Sprintf("green_ticks must be positive, got %d", f.GreenTicks))
	}
	if f.YellowTicks <= 0 {
		return utils.NewConfigurationError("FixedTimeController", fmt.Sprintf("yellow_ticks must be positive, got %d", f.YellowTicks))
	}
	return nil
}

// Validate checks the learning controller timing, binning and hyperparameters.
func (q QLearningConfig) Validate() error {
	if q.DecisionInterval <= 0 {
		return utils.NewConfigurationError("QLearningController", fmt.Sprintf("decision_interval must be positive, got %d", q.DecisionInterval))
	}
	if q.YellowTicks <= 0 {
		return utils.NewConfigurationError("QLearningController", fmt.Sprintf("yellow_ticks must be positive, got %d", q.YellowTicks))
	}
	if q.QueueBinSize <= 0 {
		return utils.NewConfigurationError("QLearningAgent", fmt.Sprintf("queue_bin_size must be positive, got %d", q.QueueBinSize))
	}
	if q.MaxQueueBin <= 0 {
		return utils.NewConfigurationError("QLearningAgent", fmt.Sprintf("max_queue_bin must be positive, got %d", q.MaxQueueBin))
	}
	if q.Alpha <= 0 || q.Alpha > 1 {
		return utils.NewConfigurationError("QLearningAgent", fmt.Sprintf("alpha must be in (0, 1], got %g", q.Alpha))
	}
	if q.Gamma < 0 || q.Gamma > 1 {
		return utils.NewConfigurationError("QLearningAgent", fmt.Sprintf("gamma must be in [0, 1], got %g", q.Gamma))
	}
	if q.Epsilon < 0 || q.Epsilon > 1 {
		return utils.NewConfigurationError("QLearningAgent", fmt.Sprintf("epsilon must be in [0, 1], got %g", q.Epsilon))
	}
	if q.MinEpsilon < 0 || q.MinEpsilon > 1 {
		return utils.NewConfigurationError("QLearningAgent", fmt.Sprintf("min_epsilon must be in [0, 1], got %g", q.MinEpsilon))
	}
	if q.EpsilonDecay <= 0 || q.EpsilonDecay > 1 {
		return utils.NewConfigurationError("QLearningAgent", fmt.Sprintf("epsilon_decay must be in (0, 1], got %g", q.EpsilonDecay))
	}
	return nil
}
