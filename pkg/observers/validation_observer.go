package observers

import (
	"cmp"
	"fmt"
	"slices"
	"sync"

	"github.com/anggasct/urbanflow/pkg/core"
	"github.com/samber/lo"
)

// ValidationObserver checks the intersection after every tick and records
// violations instead of failing
type ValidationObserver struct {
	core.BaseObserver

	allowedTransitions map[core.Phase]map[core.Phase]bool
	visitedPhases      map[core.Phase]bool
	minGap             float64
	checkGaps          bool
	violations         []string
	mutex              sync.RWMutex
}

// NewValidationObserver creates an observer that allows only the
// four-phase cycle
func NewValidationObserver() *ValidationObserver {
	o := &ValidationObserver{
		allowedTransitions: make(map[core.Phase]map[core.Phase]bool),
		visitedPhases:      make(map[core.Phase]bool),
		violations:         make([]string, 0),
	}
	for _, p := range core.Phases {
		o.AddAllowedTransition(p, p.Next())
	}
	return o
}

// AddAllowedTransition adds an allowed transition
func (o *ValidationObserver) AddAllowedTransition(from, to core.Phase) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	if _, exists := o.allowedTransitions[from]; !exists {
		o.allowedTransitions[from] = make(map[core.Phase]bool)
	}
	o.allowedTransitions[from][to] = true
}

// CheckFollowingGap enables the queue spacing check. A vehicle stopped
// behind another must keep at least minGap to it.
func (o *ValidationObserver) CheckFollowingGap(minGap float64) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.minGap = minGap
	o.checkGaps = true
}

func (o *ValidationObserver) addViolation(format string, args ...interface{}) {
	o.violations = append(o.violations, fmt.Sprintf(format, args...))
}

// OnPhaseChange validates the transition against the allowed set
func (o *ValidationObserver) OnPhaseChange(from, to core.Phase) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	o.visitedPhases[to] = true
	if !o.allowedTransitions[from][to] {
		o.addViolation("Invalid transition from '%s' to '%s'", from, to)
	}
}

// OnTickCompleted validates the light state and, when enabled, queue spacing
func (o *ValidationObserver) OnTickCompleted(tick int, in *core.Intersection, vehicles []*core.Vehicle) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	phase := in.Phase()
	o.visitedPhases[phase] = true
	if !phase.Valid() {
		o.addViolation("tick %d: phase %s outside the cycle", tick, phase)
	}

	ns, ew := in.Light(core.PathNS), in.Light(core.PathEW)
	if ns.IsGreen() && ew.IsGreen() {
		o.addViolation("tick %d: both directions green", tick)
	}
	wantNS, wantEW := core.LightColors(phase)
	if ns.Color != wantNS || ew.Color != wantEW {
		o.addViolation("tick %d: lights %s/%s do not match phase %s", tick, ns.Color, ew.Color, phase)
	}

	if o.checkGaps {
		for _, p := range core.Paths {
			o.checkLane(tick, vehicles, p)
		}
	}
}

// checkLane sorts one path's vehicles rear first and checks each follower
// stopped behind a leader against the vehicle directly in front of it,
// whether that vehicle is queued or moving
func (o *ValidationObserver) checkLane(tick int, vehicles []*core.Vehicle, p core.Path) {
	lane := lo.Filter(vehicles, func(v *core.Vehicle, _ int) bool {
		return v.Path == p
	})
	slices.SortStableFunc(lane, func(a, b *core.Vehicle) int {
		return cmp.Compare(a.Position, b.Position)
	})
	for i := 0; i+1 < len(lane); i++ {
		rear, front := lane[i], lane[i+1]
		if !rear.Waiting || rear.StopReason != core.StoppedBehind {
			continue
		}
		if gap := front.Position - rear.LeadingEdge(); gap < o.minGap-1e-9 {
			o.addViolation("tick %d: vehicle #%d is %.2f behind #%d", tick, rear.ID, gap, front.ID)
		}
	}
}

// OnError records errors as violations
func (o *ValidationObserver) OnError(err error) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.addViolation("Error occurred: %v", err)
}

// GetViolations returns all validation violations
func (o *ValidationObserver) GetViolations() []string {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	result := make([]string, len(o.violations))
	copy(result, o.violations)
	return result
}

// GetUnvisitedPhases returns cycle phases never observed
func (o *ValidationObserver) GetUnvisitedPhases() []core.Phase {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	var unvisited []core.Phase
	for _, p := range core.Phases {
		if !o.visitedPhases[p] {
			unvisited = append(unvisited, p)
		}
	}
	return unvisited
}

// HasViolations returns whether any violations occurred
func (o *ValidationObserver) HasViolations() bool {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return len(o.violations) > 0
}

// Reset resets the validation state
func (o *ValidationObserver) Reset() {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	o.visitedPhases = make(map[core.Phase]bool)
	o.violations = make([]string, 0)
}
