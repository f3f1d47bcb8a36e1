// Package builders provides fluent builders for assembling simulations
package builders

import (
	"time"

	"github.com/anggasct/urbanflow/pkg/agent"
	"github.com/anggasct/urbanflow/pkg/config"
	"github.com/anggasct/urbanflow/pkg/controllers"
	"github.com/anggasct/urbanflow/pkg/core"
	"github.com/anggasct/urbanflow/pkg/simulation"
	"github.com/anggasct/urbanflow/pkg/utils"
)

// ControllerMode selects the controller variant
type ControllerMode int

const (
	ModeFixedTime ControllerMode = iota
	ModeQLearning
)

func (m ControllerMode) String() string {
	if m == ModeQLearning {
		return "q-learning"
	}
	return "fixed-time"
}

// ParseControllerMode accepts the controller names used by the runners
func ParseControllerMode(name string) (ControllerMode, error) {
	switch name {
	case "fixed-time", "fixed":
		return ModeFixedTime, nil
	case "q-learning", "qlearning", "learning":
		return ModeQLearning, nil
	}
	return 0, utils.NewConfigurationError("SimulationBuilder", "unknown controller mode '"+name+"'")
}

// SimulationBuilder provides a fluent interface for building simulations
type SimulationBuilder struct {
	cfg       config.Config
	mode      ControllerMode
	agent     *agent.QLearningAgent
	seed      uint64
	observers []core.Observer
	opts      []simulation.Option
	validator *ValidationBuilder
}

// NewSimulationBuilder starts from DefaultConfig, the fixed-time
// controller and a clock-derived seed
func NewSimulationBuilder() *SimulationBuilder {
	return &SimulationBuilder{
		cfg:  config.DefaultConfig(),
		mode: ModeFixedTime,
		seed: uint64(time.Now().UnixNano()),
	}
}

// WithConfig replaces the whole configuration
func (b *SimulationBuilder) WithConfig(cfg config.Config) *SimulationBuilder {
	b.cfg = cfg
	return b
}

// FixedTime selects the fixed-time controller
func (b *SimulationBuilder) FixedTime() *SimulationBuilder {
	b.mode = ModeFixedTime
	return b
}

// WithFixedTime selects the fixed-time controller with explicit dwell times
func (b *SimulationBuilder) WithFixedTime(greenTicks, yellowTicks int) *SimulationBuilder {
	b.cfg.FixedTime = config.FixedTimeConfig{GreenTicks: greenTicks, YellowTicks: yellowTicks}
	return b.FixedTime()
}

// QLearning selects the learning controller with a fresh agent
func (b *SimulationBuilder) QLearning() *SimulationBuilder {
	b.mode = ModeQLearning
	return b
}

// WithAgent selects the learning controller and reuses a trained agent
func (b *SimulationBuilder) WithAgent(a *agent.QLearningAgent) *SimulationBuilder {
	b.agent = a
	return b.QLearning()
}

// WithMode selects the controller variant by value
func (b *SimulationBuilder) WithMode(mode ControllerMode) *SimulationBuilder {
	b.mode = mode
	return b
}

// WithSeed seeds the spawner and, for a fresh agent, its exploration draws
func (b *SimulationBuilder) WithSeed(seed uint64) *SimulationBuilder {
	b.seed = seed
	return b
}

// WithObserver registers an observer on the built simulation
func (b *SimulationBuilder) WithObserver(observer core.Observer) *SimulationBuilder {
	b.observers = append(b.observers, observer)
	return b
}

// WithValidation attaches a validation observer and returns its builder;
// call Done to continue the chain
func (b *SimulationBuilder) WithValidation() *ValidationBuilder {
	if b.validator == nil {
		b.validator = NewValidationBuilder()
		b.validator.parent = b
	}
	return b.validator
}

// Validator returns the attached validation observer, nil without WithValidation
func (b *SimulationBuilder) Validator() *ValidationBuilder {
	return b.validator
}

// WithRunID overrides the generated run id
func (b *SimulationBuilder) WithRunID(id string) *SimulationBuilder {
	b.opts = append(b.opts, simulation.WithRunID(id))
	return b
}

// WithEpisode tags the run with an episode number
func (b *SimulationBuilder) WithEpisode(episode int) *SimulationBuilder {
	b.opts = append(b.opts, simulation.WithEpisode(episode))
	return b
}

// Controller builds only the controller for the current settings
func (b *SimulationBuilder) Controller() (controllers.Controller, error) {
	if err := b.cfg.Validate(); err != nil {
		return nil, err
	}
	if b.mode == ModeFixedTime {
		ctrl, err := controllers.NewFixedTimeController(b.cfg.FixedTime.GreenTicks, b.cfg.FixedTime.YellowTicks)
		if err != nil {
			return nil, err
		}
		return ctrl, nil
	}

	a := b.agent
	if a == nil {
		var err error
		// offset so the agent's draws differ from the spawner's
		a, err = agent.NewQLearningAgent(b.cfg.QLearning, agent.NewRandSource(simulation.AgentSeed(b.seed)))
		if err != nil {
			return nil, err
		}
	}
	ctrl, err := controllers.NewQLearningController(a, b.cfg.QLearning.DecisionInterval, b.cfg.QLearning.YellowTicks)
	if err != nil {
		return nil, err
	}
	return ctrl, nil
}

// Build creates the simulation
func (b *SimulationBuilder) Build() (*simulation.Simulation, error) {
	ctrl, err := b.Controller()
	if err != nil {
		return nil, err
	}

	opts := []simulation.Option{simulation.WithSeed(b.seed)}
	for _, observer := range b.observers {
		opts = append(opts, simulation.WithObserver(observer))
	}
	if b.validator != nil {
		opts = append(opts, simulation.WithObserver(b.validator.Build()))
	}
	opts = append(opts, b.opts...)
	return simulation.New(b.cfg, ctrl, opts...)
}
