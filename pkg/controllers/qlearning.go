package controllers

import (
	"github.com/anggasct/urbanflow/pkg/agent"
	"github.com/anggasct/urbanflow/pkg/config"
	"github.com/anggasct/urbanflow/pkg/core"
	"github.com/anggasct/urbanflow/pkg/utils"
)

// Decision records one choice made at a decision point
type Decision struct {
	State  agent.State
	Action agent.Action
}

// QLearningController asks the agent to keep or switch the green every
// decision interval. The reward passed at a decision point scores the
// previous decision, one interval late.
type QLearningController struct {
	agent            *agent.QLearningAgent
	decisionInterval int
	yellowTicks      int

	timer    int
	isYellow bool
	last     *Decision

	decisions int
	updates   int
}

// NewQLearningController creates a learning controller around a shared agent
func NewQLearningController(a *agent.QLearningAgent, decisionInterval, yellowTicks int) (*QLearningController, error) {
	if a == nil {
		return nil, utils.NewConfigurationError("QLearningController", "agent is required")
	}
	if decisionInterval <= 0 || yellowTicks <= 0 {
		cfg := config.DefaultConfig().QLearning
		cfg.DecisionInterval = decisionInterval
		cfg.YellowTicks = yellowTicks
		return nil, cfg.Validate()
	}
	return &QLearningController{
		agent:            a,
		decisionInterval: decisionInterval,
		yellowTicks:      yellowTicks,
		timer:            decisionInterval,
	}, nil
}

// Name implements Controller
func (c *QLearningController) Name() string {
	return "q-learning"
}

// Timer implements Controller
func (c *QLearningController) Timer() int {
	return c.timer
}

// Agent implements Learner
func (c *QLearningController) Agent() *agent.QLearningAgent {
	return c.agent
}

// Epsilon implements Learner
func (c *QLearningController) Epsilon() float64 {
	return c.agent.Epsilon()
}

// IsYellow reports whether the controller is in a clearance interval
func (c *QLearningController) IsYellow() bool {
	return c.isYellow
}

// LastDecision returns the pending decision awaiting its reward
func (c *QLearningController) LastDecision() (Decision, bool) {
	if c.last == nil {
		return Decision{}, false
	}
	return *c.last, true
}

// Decisions returns the number of decision points reached in this run
func (c *QLearningController) Decisions() int {
	return c.decisions
}

// Updates returns the number of table updates applied in this run
func (c *QLearningController) Updates() int {
	return c.updates
}

// EndRun implements Learner
func (c *QLearningController) EndRun() {
	c.agent.DecayEpsilon()
	c.last = nil
	c.timer = c.decisionInterval
	c.isYellow = false
	c.decisions = 0
	c.updates = 0
}

// Update implements Controller
func (c *QLearningController) Update(in *core.Intersection, reward float64) error {
	err := c.step(in, reward)
	in.SetCountdown(c.timer)
	return err
}

func (c *QLearningController) step(in *core.Intersection, reward float64) error {
	c.timer--

	if c.isYellow {
		if c.timer > 0 {
			return nil
		}
		c.isYellow = false
		c.timer = c.decisionInterval
		return in.SetPhase(core.GreenPhase(in.Phase().Direction().Opposite()))
	}

	if c.timer > 0 {
		return nil
	}

	current := c.agent.StateOf(in)
	if c.last != nil {
		c.agent.Update(c.last.State, c.last.Action, reward, current)
		c.updates++
	}

	action := c.agent.ChooseAction(current)
	c.last = &Decision{State: current, Action: action}
	c.decisions++

	if action == agent.Switch {
		c.isYellow = true
		c.timer = c.yellowTicks
		return in.SetPhase(core.YellowPhase(in.Phase().Direction()))
	}
	c.timer = c.decisionInterval
	return nil
}
