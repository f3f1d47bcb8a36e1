// Package controllers contains the signal controllers that drive the
// intersection phase machine.
package controllers

import (
	"github.com/anggasct/urbanflow/pkg/agent"
	"github.com/anggasct/urbanflow/pkg/core"
)

// Controller drives an intersection once per tick. reward is the negative
// total wait observed this tick; controllers that do not learn ignore it.
type Controller interface {
	// Update advances the controller by one tick and may change the phase
	Update(in *core.Intersection, reward float64) error

	// Name identifies the controller variant
	Name() string

	// Timer returns the ticks left before the controller acts again
	Timer() int
}

// Learner is implemented by controllers that train an agent across runs
type Learner interface {
	Controller

	// Agent returns the agent being trained
	Agent() *agent.QLearningAgent

	// Epsilon returns the agent's current exploration rate
	Epsilon() float64

	// EndRun closes a run: epsilon is decayed once and the pending
	// decision is forgotten
	EndRun()
}

// AsLearner returns the learning view of c when it has one
func AsLearner(c Controller) (Learner, bool) {
	l, ok := c.(Learner)
	return l, ok
}
