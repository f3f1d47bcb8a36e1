package core

import "fmt"

// Observer represents an entity that observes the intersection
type Observer interface {
	// OnPhaseChange is called after the phase changes
	OnPhaseChange(from, to Phase)
}

// ExtendedObserver provides additional optional observation methods
type ExtendedObserver interface {
	Observer

	// OnVehicleSpawned is called when a vehicle enters the simulation
	OnVehicleSpawned(v *Vehicle)

	// OnVehicleExited is called when a vehicle leaves the simulated area
	OnVehicleExited(v *Vehicle)

	// OnTickCompleted is called once every tick has been fully applied
	OnTickCompleted(tick int, in *Intersection, vehicles []*Vehicle)

	// OnError is called when an error occurs during processing
	OnError(err error)
}

// BaseObserver provides a default implementation with no-op methods
type BaseObserver struct{}

// OnPhaseChange implements the required Observer method
func (o *BaseObserver) OnPhaseChange(from, to Phase) {}

// OnVehicleSpawned implements the optional ExtendedObserver method
func (o *BaseObserver) OnVehicleSpawned(v *Vehicle) {}

// OnVehicleExited implements the optional ExtendedObserver method
func (o *BaseObserver) OnVehicleExited(v *Vehicle) {}

// OnTickCompleted implements the optional ExtendedObserver method
func (o *BaseObserver) OnTickCompleted(tick int, in *Intersection, vehicles []*Vehicle) {}

// OnError implements the optional ExtendedObserver method
func (o *BaseObserver) OnError(err error) {}

// ObserverManager manages a collection of observers. A panicking observer is
// isolated and reported through OnError; it never aborts a tick.
type ObserverManager struct {
	observers []Observer
}

// NewObserverManager creates a new observer manager
func NewObserverManager() *ObserverManager {
	return &ObserverManager{
		observers: make([]Observer, 0),
	}
}

// AddObserver adds an observer to the manager
func (om *ObserverManager) AddObserver(observer Observer) {
	om.observers = append(om.observers, observer)
}

// RemoveObserver removes an observer from the manager
func (om *ObserverManager) RemoveObserver(observer Observer) {
	for i, obs := range om.observers {
		if obs == observer {
			om.observers = append(om.observers[:i], om.observers[i+1:]...)
			break
		}
	}
}

// Len returns the number of registered observers
func (om *ObserverManager) Len() int {
	return len(om.observers)
}

// Snapshot returns a copy of the registered observers
func (om *ObserverManager) Snapshot() []Observer {
	observers := make([]Observer, len(om.observers))
	copy(observers, om.observers)
	return observers
}

func recoverInto(observer Observer, method string) {
	if r := recover(); r != nil {
		if extObs, ok := observer.(ExtendedObserver); ok {
			func() {
				defer func() { recover() }()
				extObs.OnError(fmt.Errorf("observer panic in %s: %v", method, r))
			}()
		}
	}
}

// NotifyPhaseChange notifies all observers of a phase change
func (om *ObserverManager) NotifyPhaseChange(from, to Phase) {
	for _, observer := range om.Snapshot() {
		func() {
			defer recoverInto(observer, "OnPhaseChange")
			observer.OnPhaseChange(from, to)
		}()
	}
}

// NotifyVehicleSpawned notifies all observers of a new vehicle
func (om *ObserverManager) NotifyVehicleSpawned(v *Vehicle) {
	for _, observer := range om.Snapshot() {
		if extObs, ok := observer.(ExtendedObserver); ok {
			func() {
				defer recoverInto(observer, "OnVehicleSpawned")
				extObs.OnVehicleSpawned(v)
			}()
		}
	}
}

// NotifyVehicleExited notifies all observers of a departed vehicle
func (om *ObserverManager) NotifyVehicleExited(v *Vehicle) {
	for _, observer := range om.Snapshot() {
		if extObs, ok := observer.(ExtendedObserver); ok {
			func() {
				defer recoverInto(observer, "OnVehicleExited")
				extObs.OnVehicleExited(v)
			}()
		}
	}
}

// NotifyTickCompleted notifies all observers that a tick finished
func (om *ObserverManager) NotifyTickCompleted(tick int, in *Intersection, vehicles []*Vehicle) {
	for _, observer := range om.Snapshot() {
		if extObs, ok := observer.(ExtendedObserver); ok {
			func() {
				defer recoverInto(observer, "OnTickCompleted")
				extObs.OnTickCompleted(tick, in, vehicles)
			}()
		}
	}
}

// NotifyError notifies all observers of errors
func (om *ObserverManager) NotifyError(err error) {
	for _, observer := range om.Snapshot() {
		if extObs, ok := observer.(ExtendedObserver); ok {
			extObs.OnError(err)
		}
	}
}
