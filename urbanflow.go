// Package urbanflow simulates a single signalized four-way intersection
// driven either by a fixed-time timer or by a tabular Q-learning agent.
// Time advances in discrete ticks; the core never reads a wall clock and
// every random draw comes from an explicitly seeded source.
package urbanflow

import (
	"github.com/anggasct/urbanflow/pkg/agent"
	"github.com/anggasct/urbanflow/pkg/builders"
	"github.com/anggasct/urbanflow/pkg/config"
	"github.com/anggasct/urbanflow/pkg/controllers"
	"github.com/anggasct/urbanflow/pkg/core"
	"github.com/anggasct/urbanflow/pkg/observers"
	"github.com/anggasct/urbanflow/pkg/simulation"
	"github.com/anggasct/urbanflow/pkg/utils"
)

// Core types
type (
	// Config is the root configuration
	Config = config.Config

	// Path is a travel direction
	Path = core.Path

	// Kind is a vehicle category
	Kind = core.Kind

	// Color is a signal colour
	Color = core.Color

	// Phase is the intersection signal phase
	Phase = core.Phase

	// TrafficLight is one signal head
	TrafficLight = core.TrafficLight

	// Vehicle is a single vehicle on one path
	Vehicle = core.Vehicle

	// Intersection holds the phase machine and the lights
	Intersection = core.Intersection

	// Observer receives phase changes
	Observer = core.Observer

	// ExtendedObserver receives vehicle, tick and error events as well
	ExtendedObserver = core.ExtendedObserver

	// BaseObserver provides no-op observer methods for embedding
	BaseObserver = core.BaseObserver
)

// Controllers and learning
type (
	// Controller drives the intersection once per tick
	Controller = controllers.Controller

	// Learner is a controller that trains an agent across runs
	Learner = controllers.Learner

	// FixedTimeController alternates phases on a fixed timer
	FixedTimeController = controllers.FixedTimeController

	// QLearningController decides KEEP or SWITCH at each decision interval
	QLearningController = controllers.QLearningController

	// QLearningAgent is the tabular learner
	QLearningAgent = agent.QLearningAgent

	// RandSource supplies the random draws
	RandSource = agent.RandSource
)

// Simulation types
type (
	// Simulation runs one intersection tick by tick
	Simulation = simulation.Simulation

	// TickResult reports one tick
	TickResult = simulation.TickResult

	// Snapshot is a read-only view for renderers
	Snapshot = simulation.Snapshot

	// Stats are the running counters of a simulation
	Stats = simulation.Stats

	// EpisodeSummary is the record of one finished run
	EpisodeSummary = simulation.EpisodeSummary

	// Trainer runs a series of learning episodes
	Trainer = simulation.Trainer

	// TrainerConfig sizes a training series
	TrainerConfig = simulation.TrainerConfig

	// Option configures a Simulation
	Option = simulation.Option

	// SimulationBuilder assembles simulations fluently
	SimulationBuilder = builders.SimulationBuilder
)

// Error types
type (
	// ConfigurationError reports rejected construction parameters
	ConfigurationError = utils.ConfigurationError

	// PhaseError reports an unknown phase value
	PhaseError = utils.PhaseError

	// TransitionError reports a phase change that breaks the cycle
	TransitionError = utils.TransitionError

	// RunError reports use of a finished run
	RunError = utils.RunError
)

// Re-exported constants
const (
	PathNS = core.PathNS
	PathEW = core.PathEW

	KindCar       = core.KindCar
	KindAmbulance = core.KindAmbulance
	KindPolice    = core.KindPolice

	Red    = core.Red
	Yellow = core.Yellow
	Green  = core.Green

	NSGreen  = core.NSGreen
	NSYellow = core.NSYellow
	EWGreen  = core.EWGreen
	EWYellow = core.EWYellow
)

// Re-exported functions
var (
	// DefaultConfig returns the stock parameters
	DefaultConfig = config.DefaultConfig

	// LoadConfig reads a JSON file over the defaults
	LoadConfig = config.Load

	// NewBuilder starts a fluent simulation builder
	NewBuilder = builders.NewSimulationBuilder

	// NewTrainer creates a training series with a fresh agent
	NewTrainer = simulation.NewTrainer

	// RunFixedTime runs a fixed-time baseline series
	RunFixedTime = simulation.RunFixedTime

	// WithObserver registers an observer on a simulation
	WithObserver = simulation.WithObserver

	// WithRunID overrides the generated run id
	WithRunID = simulation.WithRunID

	// WithEpisode tags a run with its episode number
	WithEpisode = simulation.WithEpisode

	// NewLoggingObserver logs events at or above a level
	NewLoggingObserver = observers.NewLoggingObserver

	// NewMetricsObserver counts phases, transitions and vehicles
	NewMetricsObserver = observers.NewMetricsObserver

	// NewValidationObserver records safety violations
	NewValidationObserver = observers.NewValidationObserver

	// IsConfigurationError checks if an error is a ConfigurationError
	IsConfigurationError = utils.IsConfigurationError

	// IsPhaseError checks if an error is a PhaseError
	IsPhaseError = utils.IsPhaseError

	// IsTransitionError checks if an error is a TransitionError
	IsTransitionError = utils.IsTransitionError

	// IsRunError checks if an error is a RunError
	IsRunError = utils.IsRunError
)

// NewFixedTime creates a fixed-time simulation using the configured dwell times
func NewFixedTime(cfg Config, seed uint64, opts ...Option) (*Simulation, error) {
	ctrl, err := controllers.NewFixedTimeController(cfg.FixedTime.GreenTicks, cfg.FixedTime.YellowTicks)
	if err != nil {
		return nil, err
	}
	return simulation.New(cfg, ctrl, append([]Option{simulation.WithSeed(seed)}, opts...)...)
}

// NewQLearning creates a learning simulation. A nil agent gets a fresh one
// whose exploration draws are seeded from seed.
func NewQLearning(cfg Config, a *QLearningAgent, seed uint64, opts ...Option) (*Simulation, error) {
	if a == nil {
		var err error
		a, err = agent.NewQLearningAgent(cfg.QLearning, agent.NewRandSource(simulation.AgentSeed(seed)))
		if err != nil {
			return nil, err
		}
	}
	ctrl, err := controllers.NewQLearningController(a, cfg.QLearning.DecisionInterval, cfg.QLearning.YellowTicks)
	if err != nil {
		return nil, err
	}
	return simulation.New(cfg, ctrl, append([]Option{simulation.WithSeed(seed)}, opts...)...)
}
