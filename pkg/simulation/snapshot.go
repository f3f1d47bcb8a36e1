package simulation

import (
	"github.com/anggasct/urbanflow/pkg/controllers"
	"github.com/anggasct/urbanflow/pkg/core"
	"github.com/samber/lo"
)

// VehicleView is the drawable state of one vehicle
type VehicleView struct {
	ID        int
	Path      core.Path
	Kind      core.Kind
	X, Y      float64
	Waiting   bool
	WaitTicks int
}

// Snapshot is a read-only view of the simulation between ticks
type Snapshot struct {
	Tick       int
	Phase      core.Phase
	NSLight    core.TrafficLight
	EWLight    core.TrafficLight
	NSQueue    int
	EWQueue    int
	Controller string
	Timer      int

	// Epsilon is only meaningful when Learning is true
	Epsilon  float64
	Learning bool

	Emergency []core.Kind
	Vehicles  []VehicleView
	Stats     Stats
}

// Snapshot copies everything a renderer needs
func (s *Simulation) Snapshot() Snapshot {
	snap := Snapshot{
		Tick:       s.tick,
		Phase:      s.intersection.Phase(),
		NSLight:    s.intersection.Light(core.PathNS),
		EWLight:    s.intersection.Light(core.PathEW),
		NSQueue:    s.intersection.QueueLen(core.PathNS),
		EWQueue:    s.intersection.QueueLen(core.PathEW),
		Controller: s.controller.Name(),
		Timer:      s.controller.Timer(),
		Emergency:  s.EmergencyKinds(),
		Stats:      s.Stats(),
	}
	if learner, ok := controllers.AsLearner(s.controller); ok {
		snap.Learning = true
		snap.Epsilon = learner.Epsilon()
	}
	snap.Vehicles = lo.Map(s.vehicles, func(v *core.Vehicle, _ int) VehicleView {
		x, y := s.geometry.Coordinates(v)
		return VehicleView{
			ID:        v.ID,
			Path:      v.Path,
			Kind:      v.Kind,
			X:         x,
			Y:         y,
			Waiting:   v.Waiting,
			WaitTicks: v.WaitTicks,
		}
	})
	return snap
}
