// Package simulation runs the per-tick pipeline that ties vehicles, the
// intersection and a signal controller together.
package simulation

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/anggasct/urbanflow/pkg/agent"
	"github.com/anggasct/urbanflow/pkg/config"
	"github.com/anggasct/urbanflow/pkg/controllers"
	"github.com/anggasct/urbanflow/pkg/core"
	"github.com/anggasct/urbanflow/pkg/monitoring"
	"github.com/anggasct/urbanflow/pkg/utils"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

// RunObserver is notified once when a run is finished
type RunObserver interface {
	OnRunFinished(summary EpisodeSummary)
}

// TickResult describes what one Step did
type TickResult struct {
	Tick    int
	Reward  float64
	NSQueue int
	EWQueue int
	Exited  int
	Spawned int
}

// Option configures a Simulation
type Option func(*Simulation)

// WithSeed seeds the spawner's random source
func WithSeed(seed uint64) Option {
	return func(s *Simulation) {
		s.seed = seed
		s.rng = agent.NewRandSource(seed)
	}
}

// WithRandSource replaces the spawner's random source
func WithRandSource(rng agent.RandSource) Option {
	return func(s *Simulation) {
		s.rng = rng
	}
}

// WithObserver registers an observer on the intersection
func WithObserver(observer core.Observer) Option {
	return func(s *Simulation) {
		s.pendingObservers = append(s.pendingObservers, observer)
	}
}

// WithEpisode tags the run with its episode number
func WithEpisode(episode int) Option {
	return func(s *Simulation) {
		s.episode = episode
	}
}

// WithRunID overrides the generated run id
func WithRunID(id string) Option {
	return func(s *Simulation) {
		s.runID = id
	}
}

// Simulation owns the active vehicles and drives one intersection.
// It is not safe for concurrent use; reads between ticks see a complete tick.
type Simulation struct {
	cfg          config.Config
	geometry     core.Geometry
	intersection *core.Intersection
	controller   controllers.Controller
	spawner      *Spawner
	rng          agent.RandSource

	vehicles  []*core.Vehicle
	nextID    int
	tick      int
	emergency []core.Kind

	stats        Stats
	vehicleWaits []int

	runID    string
	episode  int
	seed     uint64
	finished bool
	summary  EpisodeSummary

	pendingObservers []core.Observer
}

// New creates a simulation for a validated configuration and controller
func New(cfg config.Config, controller controllers.Controller, opts ...Option) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if controller == nil {
		return nil, utils.NewConfigurationError("Simulation", "controller is required")
	}

	s := &Simulation{
		cfg:          cfg,
		geometry:     core.NewGeometry(cfg),
		intersection: core.NewIntersection(),
		controller:   controller,
		stats:        newStats(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		return nil, utils.NewConfigurationError("Simulation", "random source is required, use WithSeed or WithRandSource")
	}
	if s.runID == "" {
		s.runID = uuid.New().String()
	}
	s.spawner = NewSpawner(cfg.Spawn, s.rng)
	for _, observer := range s.pendingObservers {
		s.intersection.AddObserver(observer)
	}
	s.pendingObservers = nil
	return s, nil
}

// lanePass is the result of moving every vehicle for one tick
type lanePass struct {
	queues    [2][]*core.Vehicle
	totalWait int
	waiting   int
	emergency []core.Kind
	exited    []*core.Vehicle
}

func byPosition(a, b *core.Vehicle) int {
	return cmp.Compare(a.Position, b.Position)
}

// advanceVehicles moves every vehicle once, rear of each lane first, and
// returns the queues and totals for the tick
func (s *Simulation) advanceVehicles() lanePass {
	var pass lanePass
	for _, p := range core.Paths {
		lane := lo.Filter(s.vehicles, func(v *core.Vehicle, _ int) bool {
			return v.Path == p
		})
		slices.SortStableFunc(lane, byPosition)
		green := s.intersection.IsGreen(p)

		for i, v := range lane {
			if v.IsEmergency() {
				pass.emergency = append(pass.emergency, v.Kind)
			}
			v.Advance(green, lane[i+1:])
			if v.Waiting {
				pass.queues[p] = append(pass.queues[p], v)
				pass.totalWait += v.WaitTicks
				pass.waiting++
			}
			if s.geometry.Exited(v) {
				pass.exited = append(pass.exited, v)
			}
		}
	}
	return pass
}

// Step runs one tick: move vehicles and rebuild queues, retire exited
// vehicles, hand the reward to the controller, then spawn.
func (s *Simulation) Step() (TickResult, error) {
	if s.finished {
		return TickResult{}, utils.NewRunFinishedError("Step")
	}
	s.tick++

	pass := s.advanceVehicles()
	s.intersection.ReplaceQueues(pass.queues[core.PathNS], pass.queues[core.PathEW])
	s.emergency = pass.emergency

	for _, v := range pass.exited {
		s.stats.TotalWaitTicks += v.WaitTicks
		s.stats.CarsPassed++
		s.stats.Exited[v.Kind]++
		s.vehicleWaits = append(s.vehicleWaits, v.TotalWaitTicks)
		s.intersection.Observers().NotifyVehicleExited(v)
	}
	if len(pass.exited) > 0 {
		s.vehicles = lo.Reject(s.vehicles, func(v *core.Vehicle, _ int) bool {
			return lo.Contains(pass.exited, v)
		})
	}

	reward := -float64(pass.totalWait)
	s.stats.RewardSum += reward
	s.stats.CumulativeWaitTicks += pass.waiting
	for _, p := range core.Paths {
		s.stats.MaxQueue[p] = max(s.stats.MaxQueue[p], len(pass.queues[p]))
	}

	err := s.controller.Update(s.intersection, reward)
	if err != nil {
		err = fmt.Errorf("controller %s at tick %d: %w", s.controller.Name(), s.tick, err)
		monitoring.Logf("simulation %s: %v", s.runID, err)
		s.intersection.Observers().NotifyError(err)
	}
	s.stats.PhaseTicks[s.intersection.Phase()]++

	spawned := 0
	for _, req := range s.spawner.Draw(len(s.emergency) > 0) {
		s.AddVehicle(req.Path, req.Kind)
		spawned++
	}

	s.stats.Ticks = s.tick
	s.intersection.Observers().NotifyTickCompleted(s.tick, s.intersection, s.vehicles)

	return TickResult{
		Tick:    s.tick,
		Reward:  reward,
		NSQueue: len(pass.queues[core.PathNS]),
		EWQueue: len(pass.queues[core.PathEW]),
		Exited:  len(pass.exited),
		Spawned: spawned,
	}, err
}

// AddVehicle places a vehicle at the upstream edge of its path
func (s *Simulation) AddVehicle(p core.Path, k core.Kind) *core.Vehicle {
	s.nextID++
	v := s.geometry.NewVehicle(s.nextID, p, k)
	s.vehicles = append(s.vehicles, v)
	s.stats.Spawned[k]++
	s.intersection.Observers().NotifyVehicleSpawned(v)
	return v
}

// Run steps until maxTicks ticks have run or ctx is done. maxTicks <= 0
// runs until cancellation. Cancellation is only observed between ticks.
func (s *Simulation) Run(ctx context.Context, maxTicks int) error {
	for n := 0; maxTicks <= 0 || n < maxTicks; n++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if _, err := s.Step(); err != nil && utils.IsRunError(err) {
			return err
		}
	}
	return nil
}

// Finish closes the run and returns its summary. A learning controller
// decays epsilon exactly once per run; later calls return the same summary.
func (s *Simulation) Finish() EpisodeSummary {
	if s.finished {
		return s.summary
	}
	s.finished = true

	summary := EpisodeSummary{
		RunID:               s.runID,
		Episode:             s.episode,
		Controller:          s.controller.Name(),
		Seed:                s.seed,
		Ticks:               s.tick,
		CarsPassed:          s.stats.CarsPassed,
		TotalWaitTicks:      s.stats.TotalWaitTicks,
		CumulativeWaitTicks: s.stats.CumulativeWaitTicks,
		AverageWaitSeconds:  s.stats.AverageWaitSeconds(s.cfg.Screen.TickRate),
		RewardSum:           s.stats.RewardSum,
		VehicleWaits:        slices.Clone(s.vehicleWaits),
	}
	if learner, ok := controllers.AsLearner(s.controller); ok {
		learner.EndRun()
		summary.Epsilon = learner.Epsilon()
	}
	s.summary = summary

	for _, observer := range s.intersection.Observers().Snapshot() {
		if ro, ok := observer.(RunObserver); ok {
			ro.OnRunFinished(summary)
		}
	}
	return summary
}

// Finished reports whether Finish was called
func (s *Simulation) Finished() bool {
	return s.finished
}

// RunID returns the unique id of this run
func (s *Simulation) RunID() string {
	return s.runID
}

// Tick returns the number of completed ticks
func (s *Simulation) Tick() int {
	return s.tick
}

// Intersection returns the simulated intersection
func (s *Simulation) Intersection() *core.Intersection {
	return s.intersection
}

// Controller returns the active controller
func (s *Simulation) Controller() controllers.Controller {
	return s.controller
}

// Geometry returns the layout used for vehicles
func (s *Simulation) Geometry() core.Geometry {
	return s.geometry
}

// Vehicles returns the active vehicles in spawn order
func (s *Simulation) Vehicles() []*core.Vehicle {
	return slices.Clone(s.vehicles)
}

// EmergencyKinds returns the kinds of emergency vehicles seen in the last
// tick's vehicle pass
func (s *Simulation) EmergencyKinds() []core.Kind {
	return slices.Clone(s.emergency)
}

// Stats returns a copy of the running totals
func (s *Simulation) Stats() Stats {
	return s.stats.clone()
}
