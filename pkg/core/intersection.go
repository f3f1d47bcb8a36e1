package core

import "github.com/anggasct/urbanflow/pkg/utils"

// Intersection owns the two lights, the per-direction queues and the current
// phase. It never times itself; the active controller drives SetPhase.
type Intersection struct {
	phase   Phase
	nsLight TrafficLight
	ewLight TrafficLight

	nsQueue []*Vehicle
	ewQueue []*Vehicle

	observers *ObserverManager
}

// NewIntersection creates an intersection in NS_GREEN
func NewIntersection() *Intersection {
	in := &Intersection{
		phase:     NSGreen,
		observers: NewObserverManager(),
	}
	in.applyLights()
	return in
}

// Phase returns the current phase
func (in *Intersection) Phase() Phase {
	return in.phase
}

// SetPhase moves the intersection to p. Setting the current phase again only
// re-derives the light colours. Any other target must be the cycle successor,
// so NS and EW can never be green together.
func (in *Intersection) SetPhase(p Phase) error {
	if !p.Valid() {
		return utils.NewInvalidPhaseError(p.String())
	}

	previous := in.phase
	if p != previous && p != previous.Next() {
		return utils.NewTransitionNotAllowedError(previous.String(), p.String())
	}

	in.phase = p
	in.applyLights()

	if previous != p {
		in.observers.NotifyPhaseChange(previous, p)
	}
	return nil
}

func (in *Intersection) applyLights() {
	ns, ew := LightColors(in.phase)
	in.nsLight.Color = ns
	in.ewLight.Color = ew
}

// Light returns the signal head facing a path
func (in *Intersection) Light(p Path) TrafficLight {
	if p == PathNS {
		return in.nsLight
	}
	return in.ewLight
}

// IsGreen reports whether the light facing p is green
func (in *Intersection) IsGreen(p Path) bool {
	return in.Light(p).IsGreen()
}

// SetCountdown writes the controller's remaining ticks to both lights
func (in *Intersection) SetCountdown(ticks int) {
	in.nsLight.RemainingTicks = ticks
	in.ewLight.RemainingTicks = ticks
}

// ReplaceQueues installs the queues computed for the current tick. The
// previous tick's queues are discarded, never merged.
func (in *Intersection) ReplaceQueues(ns, ew []*Vehicle) {
	in.nsQueue = ns
	in.ewQueue = ew
}

// Queue returns a copy of the waiting vehicles on a path, rear first
func (in *Intersection) Queue(p Path) []*Vehicle {
	q := in.ewQueue
	if p == PathNS {
		q = in.nsQueue
	}
	out := make([]*Vehicle, len(q))
	copy(out, q)
	return out
}

// QueueLen returns the number of waiting vehicles on a path
func (in *Intersection) QueueLen(p Path) int {
	if p == PathNS {
		return len(in.nsQueue)
	}
	return len(in.ewQueue)
}

// AddObserver registers an observer for phase changes and simulation events
func (in *Intersection) AddObserver(observer Observer) {
	in.observers.AddObserver(observer)
}

// RemoveObserver unregisters an observer
func (in *Intersection) RemoveObserver(observer Observer) {
	in.observers.RemoveObserver(observer)
}

// Observers exposes the manager so the simulation loop can publish events
func (in *Intersection) Observers() *ObserverManager {
	return in.observers
}
