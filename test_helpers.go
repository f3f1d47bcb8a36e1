package urbanflow

import (
	"sync"
	"testing"
)

// TestObserver is a mock observer for testing that captures all observer events
type TestObserver struct {
	mutex        sync.RWMutex
	PhaseChanges []PhaseChangeEvent
	Spawned      []VehicleEvent
	Exited       []VehicleEvent
	Ticks        []TickEvent
	Errors       []error
	Runs         []EpisodeSummary
}

type PhaseChangeEvent struct {
	From Phase
	To   Phase
}

type VehicleEvent struct {
	ID   int
	Path Path
	Kind Kind
}

type TickEvent struct {
	Tick     int
	Phase    Phase
	NS       Color
	EW       Color
	Vehicles int
}

// NewTestObserver creates a new test observer
func NewTestObserver() *TestObserver {
	return &TestObserver{}
}

// Observer interface implementations
func (o *TestObserver) OnPhaseChange(from, to Phase) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.PhaseChanges = append(o.PhaseChanges, PhaseChangeEvent{From: from, To: to})
}

// ExtendedObserver interface implementations
func (o *TestObserver) OnVehicleSpawned(v *Vehicle) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.Spawned = append(o.Spawned, VehicleEvent{ID: v.ID, Path: v.Path, Kind: v.Kind})
}

func (o *TestObserver) OnVehicleExited(v *Vehicle) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.Exited = append(o.Exited, VehicleEvent{ID: v.ID, Path: v.Path, Kind: v.Kind})
}

func (o *TestObserver) OnTickCompleted(tick int, in *Intersection, vehicles []*Vehicle) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.Ticks = append(o.Ticks, TickEvent{
		Tick:     tick,
		Phase:    in.Phase(),
		NS:       in.Light(PathNS).Color,
		EW:       in.Light(PathEW).Color,
		Vehicles: len(vehicles),
	})
}

func (o *TestObserver) OnError(err error) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.Errors = append(o.Errors, err)
}

// OnRunFinished records finished runs
func (o *TestObserver) OnRunFinished(s EpisodeSummary) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.Runs = append(o.Runs, s)
}

// Helper methods for test assertions
func (o *TestObserver) Reset() {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.PhaseChanges = nil
	o.Spawned = nil
	o.Exited = nil
	o.Ticks = nil
	o.Errors = nil
	o.Runs = nil
}

func (o *TestObserver) PhaseChangeCount() int {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return len(o.PhaseChanges)
}

func (o *TestObserver) TickCount() int {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return len(o.Ticks)
}

func (o *TestObserver) LastPhaseChange() *PhaseChangeEvent {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	if len(o.PhaseChanges) == 0 {
		return nil
	}
	return &o.PhaseChanges[len(o.PhaseChanges)-1]
}

// PhaseRuns compresses the recorded ticks into consecutive (phase, length) runs
func (o *TestObserver) PhaseRuns() []PhaseRun {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	var runs []PhaseRun
	for _, tick := range o.Ticks {
		if n := len(runs); n > 0 && runs[n-1].Phase == tick.Phase {
			runs[n-1].Ticks++
			continue
		}
		runs = append(runs, PhaseRun{Phase: tick.Phase, Ticks: 1})
	}
	return runs
}

// PhaseRun is a stretch of consecutive ticks spent in one phase
type PhaseRun struct {
	Phase Phase
	Ticks int
}

// Test configurations

// QuietConfig returns the default configuration with spawning disabled
func QuietConfig() Config {
	cfg := DefaultConfig()
	cfg.Spawn.CarRate = 0
	cfg.Spawn.AmbulanceRate = 0
	cfg.Spawn.PoliceRate = 0
	return cfg
}

// Test assertions and utilities

// AssertPhase checks if the intersection is in the expected phase
func AssertPhase(t *testing.T, sim *Simulation, expected Phase) {
	t.Helper()
	if current := sim.Intersection().Phase(); current != expected {
		t.Errorf("Expected phase %s, got %s", expected, current)
	}
}

// AssertNoDoubleGreen fails for every recorded tick where both lights were green
func AssertNoDoubleGreen(t *testing.T, observer *TestObserver) {
	t.Helper()
	observer.mutex.RLock()
	defer observer.mutex.RUnlock()
	for _, tick := range observer.Ticks {
		if tick.NS == Green && tick.EW == Green {
			t.Errorf("Both lights green at tick %d", tick.Tick)
		}
	}
}

// StepN advances the simulation n ticks and fails on the first error
func StepN(t *testing.T, sim *Simulation, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if _, err := sim.Step(); err != nil {
			t.Fatalf("Step %d failed: %v", sim.Tick(), err)
		}
	}
}
