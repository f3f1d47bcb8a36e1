package observers

import (
	"maps"
	"sync"

	"github.com/anggasct/urbanflow/pkg/core"
	"github.com/samber/lo"
)

// MetricsObserver collects phase and traffic counters. Dwell is measured in
// ticks, never wall-clock time.
type MetricsObserver struct {
	phaseVisits      map[core.Phase]int
	phaseTicks       map[core.Phase]int
	transitionCounts map[string]int
	spawned          map[core.Kind]int
	exited           map[core.Kind]int
	peakWaiting      int
	ticks            int
	errorCount       int
	mutex            sync.RWMutex
}

// NewMetricsObserver creates a new metrics observer
func NewMetricsObserver() *MetricsObserver {
	o := &MetricsObserver{}
	o.Reset()
	return o
}

// OnPhaseChange records visits and transitions
func (o *MetricsObserver) OnPhaseChange(from, to core.Phase) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	o.phaseVisits[to]++
	o.transitionCounts[from.String()+"->"+to.String()]++
}

// OnVehicleSpawned counts spawns per kind
func (o *MetricsObserver) OnVehicleSpawned(v *core.Vehicle) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.spawned[v.Kind]++
}

// OnVehicleExited counts exits per kind
func (o *MetricsObserver) OnVehicleExited(v *core.Vehicle) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.exited[v.Kind]++
}

// OnTickCompleted records dwell and the number of waiting vehicles
func (o *MetricsObserver) OnTickCompleted(tick int, in *core.Intersection, vehicles []*core.Vehicle) {
	waiting := lo.CountBy(vehicles, func(v *core.Vehicle) bool {
		return v.Waiting
	})

	o.mutex.Lock()
	defer o.mutex.Unlock()

	o.ticks++
	o.phaseTicks[in.Phase()]++
	o.peakWaiting = max(o.peakWaiting, waiting)
}

// OnError records error metrics
func (o *MetricsObserver) OnError(err error) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.errorCount++
}

// GetPhaseVisitCounts returns how often each phase was entered
func (o *MetricsObserver) GetPhaseVisitCounts() map[core.Phase]int {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return maps.Clone(o.phaseVisits)
}

// GetPhaseTicks returns the ticks that ended in each phase
func (o *MetricsObserver) GetPhaseTicks() map[core.Phase]int {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return maps.Clone(o.phaseTicks)
}

// GetTransitionCounts returns the number of times each transition occurred
func (o *MetricsObserver) GetTransitionCounts() map[string]int {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return maps.Clone(o.transitionCounts)
}

// GetSpawnCounts returns spawns per vehicle kind
func (o *MetricsObserver) GetSpawnCounts() map[core.Kind]int {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return maps.Clone(o.spawned)
}

// GetExitCounts returns exits per vehicle kind
func (o *MetricsObserver) GetExitCounts() map[core.Kind]int {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return maps.Clone(o.exited)
}

// GetPeakWaiting returns the largest number of vehicles waiting after a tick
func (o *MetricsObserver) GetPeakWaiting() int {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return o.peakWaiting
}

// GetTickCount returns the number of completed ticks observed
func (o *MetricsObserver) GetTickCount() int {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return o.ticks
}

// GetErrorCount returns the number of errors
func (o *MetricsObserver) GetErrorCount() int {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return o.errorCount
}

// Reset resets all metrics
func (o *MetricsObserver) Reset() {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	o.phaseVisits = make(map[core.Phase]int)
	o.phaseTicks = make(map[core.Phase]int)
	o.transitionCounts = make(map[string]int)
	o.spawned = make(map[core.Kind]int)
	o.exited = make(map[core.Kind]int)
	o.peakWaiting = 0
	o.ticks = 0
	o.errorCount = 0
}
