// Package agent implements the tabular Q-learning agent used by the learning
// signal controller.
package agent

import (
	"fmt"
	"math/rand/v2"

	"github.com/anggasct/urbanflow/pkg/config"
	"github.com/anggasct/urbanflow/pkg/core"
	"github.com/anggasct/urbanflow/pkg/utils"
	"github.com/samber/lo"
)

// Action is a decision taken at a decision point
type Action int

const (
	// Keep holds the current green for another decision interval
	Keep Action = iota
	// Switch starts the yellow clearance towards the crossing direction
	Switch
)

// Actions lists every action in table order
var Actions = [2]Action{Keep, Switch}

func (a Action) String() string {
	switch a {
	case Keep:
		return "KEEP"
	case Switch:
		return "SWITCH"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// RandSource is the random source for exploration draws
type RandSource interface {
	Float64() float64
	IntN(n int) int
}

// NewRandSource returns a deterministic source for a seed
func NewRandSource(seed uint64) RandSource {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// State is a discretized observation. Values are only produced by the
// agent's binning, so every State indexes the table in range.
type State struct {
	nsBin    int
	ewBin    int
	phaseBit int
}

// NSBin returns the north-south queue bin
func (s State) NSBin() int { return s.nsBin }

// EWBin returns the east-west queue bin
func (s State) EWBin() int { return s.ewBin }

// PhaseBit returns 0 while NS holds right-of-way and 1 for EW
func (s State) PhaseBit() int { return s.phaseBit }

func (s State) String() string {
	return fmt.Sprintf("(%d,%d,%d)", s.nsBin, s.ewBin, s.phaseBit)
}

// QLearningAgent holds the value table and the epsilon-greedy policy.
// Only epsilon changes after construction.
type QLearningAgent struct {
	alpha        float64
	gamma        float64
	epsilon      float64
	minEpsilon   float64
	epsilonDecay float64

	binSize int
	maxBin  int

	table [][2]float64
	rng   RandSource
}

// NewQLearningAgent creates an agent with an all-zero table
func NewQLearningAgent(cfg config.QLearningConfig, rng RandSource) (*QLearningAgent, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, utils.NewConfigurationError("QLearningAgent", "random source is required")
	}

	bins := cfg.MaxQueueBin + 1
	return &QLearningAgent{
		alpha:        cfg.Alpha,
		gamma:        cfg.Gamma,
		epsilon:      cfg.Epsilon,
		minEpsilon:   cfg.MinEpsilon,
		epsilonDecay: cfg.EpsilonDecay,
		binSize:      cfg.QueueBinSize,
		maxBin:       cfg.MaxQueueBin,
		table:        make([][2]float64, bins*bins*2),
		rng:          rng,
	}, nil
}

// Bin maps a queue length to its bucket, clamped to [0, max bin]
func (a *QLearningAgent) Bin(queueLen int) int {
	bin := (queueLen + a.binSize - 1) / a.binSize
	return lo.Clamp(bin, 0, a.maxBin)
}

// NewState builds a state from raw queue lengths and the direction holding
// right-of-way
func (a *QLearningAgent) NewState(nsQueue, ewQueue int, dir core.Path) State {
	s := State{nsBin: a.Bin(nsQueue), ewBin: a.Bin(ewQueue)}
	if dir == core.PathEW {
		s.phaseBit = 1
	}
	return s
}

// StateOf observes the intersection
func (a *QLearningAgent) StateOf(in *core.Intersection) State {
	return a.NewState(in.QueueLen(core.PathNS), in.QueueLen(core.PathEW), in.Phase().Direction())
}

func (a *QLearningAgent) index(s State) int {
	bins := a.maxBin + 1
	return (s.nsBin*bins+s.ewBin)*2 + s.phaseBit
}

// ChooseAction is epsilon-greedy. Greedy ties go to the lowest action index.
func (a *QLearningAgent) ChooseAction(s State) Action {
	if a.rng.Float64() < a.epsilon {
		return Action(a.rng.IntN(len(Actions)))
	}
	return a.BestAction(s)
}

// BestAction returns the greedy action for s
func (a *QLearningAgent) BestAction(s State) Action {
	row := a.table[a.index(s)]
	best := Keep
	for _, act := range Actions {
		if row[act] > row[best] {
			best = act
		}
	}
	return best
}

// Update applies one Q-learning step for taking action in s and landing in next
func (a *QLearningAgent) Update(s State, action Action, reward float64, next State) {
	i := a.index(s)
	old := a.table[i][action]
	row := a.table[a.index(next)]
	nextMax := max(row[Keep], row[Switch])
	a.table[i][action] = old + a.alpha*(reward+a.gamma*nextMax-old)
}

// DecayEpsilon shrinks epsilon once; it never goes below the floor
func (a *QLearningAgent) DecayEpsilon() {
	if a.epsilon > a.minEpsilon {
		a.epsilon = max(a.epsilon*a.epsilonDecay, a.minEpsilon)
	}
}

// Epsilon returns the current exploration rate
func (a *QLearningAgent) Epsilon() float64 {
	return a.epsilon
}

// Q returns the table value for a state-action pair
func (a *QLearningAgent) Q(s State, action Action) float64 {
	return a.table[a.index(s)][action]
}

// States returns the number of distinct states in the table
func (a *QLearningAgent) States() int {
	return len(a.table)
}

// MaxBin returns the highest queue bin
func (a *QLearningAgent) MaxBin() int {
	return a.maxBin
}
