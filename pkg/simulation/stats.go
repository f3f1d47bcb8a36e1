package simulation

import (
	"maps"

	"github.com/anggasct/urbanflow/pkg/core"
	"github.com/samber/lo"
)

// Stats aggregates a run. TotalWaitTicks folds in each vehicle's final
// WaitTicks when it exits; CumulativeWaitTicks counts every waiting tick of
// every vehicle, including those still on screen.
type Stats struct {
	Ticks               int                `json:"ticks"`
	CarsPassed          int                `json:"cars_passed"`
	TotalWaitTicks      int                `json:"total_wait_ticks"`
	CumulativeWaitTicks int                `json:"cumulative_wait_ticks"`
	RewardSum           float64            `json:"reward_sum"`
	Spawned             map[core.Kind]int  `json:"spawned"`
	Exited              map[core.Kind]int  `json:"exited"`
	MaxQueue            map[core.Path]int  `json:"max_queue"`
	PhaseTicks          map[core.Phase]int `json:"phase_ticks"`
}

func newStats() Stats {
	return Stats{
		Spawned:    make(map[core.Kind]int),
		Exited:     make(map[core.Kind]int),
		MaxQueue:   make(map[core.Path]int),
		PhaseTicks: make(map[core.Phase]int),
	}
}

func (s Stats) clone() Stats {
	s.Spawned = maps.Clone(s.Spawned)
	s.Exited = maps.Clone(s.Exited)
	s.MaxQueue = maps.Clone(s.MaxQueue)
	s.PhaseTicks = maps.Clone(s.PhaseTicks)
	return s
}

// AverageWaitSeconds is TotalWaitTicks per passed vehicle, in seconds
func (s Stats) AverageWaitSeconds(tickRate int) float64 {
	if s.CarsPassed == 0 || tickRate <= 0 {
		return 0
	}
	return float64(s.TotalWaitTicks) / float64(s.CarsPassed) / float64(tickRate)
}

// TotalSpawned returns the number of vehicles introduced during the run
func (s Stats) TotalSpawned() int {
	return lo.SumBy(lo.Values(s.Spawned), func(n int) int { return n })
}

// EpisodeSummary is the record of one finished run
type EpisodeSummary struct {
	RunID               string  `json:"run_id"`
	Episode             int     `json:"episode"`
	Controller          string  `json:"controller"`
	Seed                uint64  `json:"seed"`
	Ticks               int     `json:"ticks"`
	CarsPassed          int     `json:"cars_passed"`
	TotalWaitTicks      int     `json:"total_wait_ticks"`
	CumulativeWaitTicks int     `json:"cumulative_wait_ticks"`
	AverageWaitSeconds  float64 `json:"average_wait_seconds"`
	RewardSum           float64 `json:"reward_sum"`
	Epsilon             float64 `json:"epsilon"`

	// VehicleWaits holds the lifetime waiting ticks of each exited vehicle
	VehicleWaits []int `json:"vehicle_waits,omitempty"`
}
