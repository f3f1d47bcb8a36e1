package simulation

import (
	"context"
	"fmt"
	"slices"
	"testing"

	"github.com/anggasct/urbanflow/pkg/agent"
	"github.com/anggasct/urbanflow/pkg/config"
	"github.com/anggasct/urbanflow/pkg/controllers"
	"github.com/anggasct/urbanflow/pkg/core"
	"github.com/anggasct/urbanflow/pkg/utils"
	"github.com/google/go-cmp/cmp"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedRand replays fixed draws
type scriptedRand struct {
	floats []float64
	ints   []int
}

func (r *scriptedRand) Float64() float64 {
	v := r.floats[0]
	r.floats = r.floats[1:]
	return v
}

func (r *scriptedRand) IntN(n int) int {
	v := r.ints[0]
	r.ints = r.ints[1:]
	return v % n
}

func quietConfig() config.Config {
	cfg := config.DefaultConfig()
	cfg.Spawn = config.SpawnConfig{}
	return cfg
}

func newFixedSim(t *testing.T, cfg config.Config, green, yellow int, opts ...Option) *Simulation {
	t.Helper()
	ctrl, err := controllers.NewFixedTimeController(green, yellow)
	require.NoError(t, err)
	sim, err := New(cfg, ctrl, append([]Option{WithSeed(1)}, opts...)...)
	require.NoError(t, err)
	return sim
}

func newLearningSim(t *testing.T, cfg config.Config, seed uint64) *Simulation {
	t.Helper()
	a, err := agent.NewQLearningAgent(cfg.QLearning, agent.NewRandSource(AgentSeed(seed)))
	require.NoError(t, err)
	ctrl, err := controllers.NewQLearningController(a, cfg.QLearning.DecisionInterval, cfg.QLearning.YellowTicks)
	require.NoError(t, err)
	sim, err := New(cfg, ctrl, WithSeed(seed), WithRunID("fixed-id"))
	require.NoError(t, err)
	return sim
}

func TestNew_Rejects(t *testing.T) {
	_, err := New(config.DefaultConfig(), nil, WithSeed(1))
	assert.True(t, utils.IsConfigurationError(err))

	ctrl, _ := controllers.NewFixedTimeController(10, 2)
	_, err = New(config.DefaultConfig(), ctrl)
	assert.True(t, utils.IsConfigurationError(err))

	cfg := config.DefaultConfig()
	cfg.Spawn.CarRate = 2
	_, err = New(cfg, ctrl, WithSeed(1))
	assert.True(t, utils.IsConfigurationError(err))
}

func TestNew_GeneratesRunID(t *testing.T) {
	a := newFixedSim(t, quietConfig(), 10, 2)
	b := newFixedSim(t, quietConfig(), 10, 2)
	assert.Len(t, a.RunID(), 36)
	assert.NotEqual(t, a.RunID(), b.RunID())

	c := newFixedSim(t, quietConfig(), 10, 2, WithRunID("run-1"))
	assert.Equal(t, "run-1", c.RunID())
}

func TestSpawner_Draw(t *testing.T) {
	rates := config.DefaultConfig().Spawn

	tests := []struct {
		name      string
		emergency bool
		rng       *scriptedRand
		want      []SpawnRequest
		leftover  int
	}{
		{
			name: "ambulance and car share the path",
			rng:  &scriptedRand{ints: []int{1}, floats: []float64{0.001, 0.01}},
			want: []SpawnRequest{{core.PathEW, core.KindAmbulance}, {core.PathEW, core.KindCar}},
		},
		{
			name: "police only after ambulance misses",
			rng:  &scriptedRand{ints: []int{0}, floats: []float64{0.5, 0.004, 0.9}},
			want: []SpawnRequest{{core.PathNS, core.KindPolice}},
		},
		{
			name: "nothing",
			rng:  &scriptedRand{ints: []int{0}, floats: []float64{0.5, 0.5, 0.5}},
		},
		{
			name:      "active emergency skips emergency draws",
			emergency: true,
			rng:       &scriptedRand{ints: []int{0}, floats: []float64{0.001, 0.001, 0.001}},
			want:      []SpawnRequest{{core.PathNS, core.KindCar}},
			leftover:  2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewSpawner(rates, tt.rng).Draw(tt.emergency)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("spawn mismatch (-want +got):\n%s", diff)
			}
			assert.Len(t, tt.rng.floats, tt.leftover)
		})
	}
}

func TestSimulation_StopLineScenario(t *testing.T) {
	sim := newFixedSim(t, quietConfig(), 100, 20)
	car := sim.AddVehicle(core.PathNS, core.KindCar)

	for tick := 1; tick <= 224; tick++ {
		_, err := sim.Step()
		require.NoError(t, err)
		require.False(t, car.Waiting, "tick %d", tick)
	}
	assert.Equal(t, 403.0, car.Position)
	assert.Equal(t, core.EWYellow, sim.Intersection().Phase())

	for tick := 225; tick <= 240; tick++ {
		res, err := sim.Step()
		require.NoError(t, err)
		require.True(t, car.Waiting, "tick %d", tick)
		require.Equal(t, 405.0, car.Position)
		require.Equal(t, 450.0, car.LeadingEdge())
		require.Equal(t, tick-224, car.WaitTicks)
		require.Equal(t, 1, res.NSQueue)
		require.Equal(t, -float64(tick-224), res.Reward)
	}
	assert.Equal(t, core.NSGreen, sim.Intersection().Phase())

	res, err := sim.Step()
	require.NoError(t, err)
	assert.Equal(t, 241, res.Tick)
	assert.False(t, car.Waiting)
	assert.Equal(t, 0, car.WaitTicks)
	assert.Equal(t, 407.0, car.Position)
	assert.Equal(t, 0, res.NSQueue)
	assert.Equal(t, 16, sim.Stats().CumulativeWaitTicks)
}

func TestSimulation_ExitFoldsTotals(t *testing.T) {
	sim := newFixedSim(t, quietConfig(), 100, 20)
	v := sim.AddVehicle(core.PathEW, core.KindCar)
	v.Position = 999

	res, err := sim.Step()
	require.NoError(t, err)

	assert.Equal(t, 1, res.Exited)
	assert.Empty(t, sim.Vehicles())
	stats := sim.Stats()
	assert.Equal(t, 1, stats.CarsPassed)
	assert.Equal(t, 0, stats.TotalWaitTicks)
	assert.Equal(t, 1, stats.Exited[core.KindCar])
	assert.Equal(t, 1, stats.Spawned[core.KindCar])
}

func TestSimulation_FollowersQueueBehindLeader(t *testing.T) {
	sim := newFixedSim(t, quietConfig(), 1000, 20)
	require.NoError(t, sim.Intersection().SetPhase(core.NSYellow))

	lead := sim.AddVehicle(core.PathNS, core.KindCar)
	lead.Position = 405
	mid := sim.AddVehicle(core.PathNS, core.KindCar)
	mid.Position = 330
	rear := sim.AddVehicle(core.PathNS, core.KindCar)
	rear.Position = 100

	res, err := sim.Step()
	require.NoError(t, err)

	assert.Equal(t, 2, res.NSQueue)
	assert.Equal(t, 325.0, mid.Position)
	assert.Equal(t, core.StoppedBehind, mid.StopReason)
	assert.Equal(t, 102.0, rear.Position)
	assert.Equal(t, -2.0, res.Reward)

	queue := sim.Intersection().Queue(core.PathNS)
	require.Len(t, queue, 2)
	assert.Same(t, mid, queue[0])
	assert.Same(t, lead, queue[1])
}

// laneGapViolations lists followers stopped behind a leader closer than the
// minimum gap, walking each path rear first
func laneGapViolations(vehicles []*core.Vehicle, minGap float64) []string {
	var out []string
	for _, p := range core.Paths {
		lane := lo.Filter(vehicles, func(v *core.Vehicle, _ int) bool { return v.Path == p })
		slices.SortStableFunc(lane, byPosition)
		for i := 0; i+1 < len(lane); i++ {
			rear, front := lane[i], lane[i+1]
			if !rear.Waiting || rear.StopReason != core.StoppedBehind {
				continue
			}
			if gap := front.Position - rear.LeadingEdge(); gap < minGap-1e-9 {
				out = append(out, fmt.Sprintf("%s #%d is %.2f behind %s #%d", rear.Kind, rear.ID, gap, front.Kind, front.ID))
			}
		}
	}
	return out
}

func TestSimulation_FollowingGapAcrossLightChange(t *testing.T) {
	cfg := quietConfig()
	minGap := cfg.Vehicles.MinFollowDistance

	// the light leaves green at every point of the leader's approach
	for green := 200; green <= 240; green++ {
		for delay := 1; delay <= 3; delay++ {
			sim := newFixedSim(t, cfg, green, 60)
			sim.AddVehicle(core.PathNS, core.KindCar)
			for i := 0; i < delay; i++ {
				_, err := sim.Step()
				require.NoError(t, err)
			}
			sim.AddVehicle(core.PathNS, core.KindAmbulance)

			for sim.Tick() < 500 {
				_, err := sim.Step()
				require.NoError(t, err)
				require.Empty(t, laneGapViolations(sim.Vehicles(), minGap),
					"green=%d delay=%d tick=%d", green, delay, sim.Tick())
			}
		}
	}
}

func TestSimulation_EmergencyGate(t *testing.T) {
	rng := &scriptedRand{ints: []int{0}, floats: []float64{0.5, 0.0, 0.0}}
	ctrl, err := controllers.NewFixedTimeController(100, 20)
	require.NoError(t, err)
	sim, err := New(config.DefaultConfig(), ctrl, WithRandSource(rng))
	require.NoError(t, err)

	sim.AddVehicle(core.PathEW, core.KindAmbulance)
	_, err = sim.Step()
	require.NoError(t, err)

	assert.Equal(t, []core.Kind{core.KindAmbulance}, sim.EmergencyKinds())
	assert.Len(t, rng.floats, 2)
	assert.Equal(t, 1, sim.Stats().TotalSpawned())
}

func TestSimulation_ObserversSeeEvents(t *testing.T) {
	obs := &eventRecorder{}
	sim := newFixedSim(t, quietConfig(), 3, 1, WithObserver(obs))
	v := sim.AddVehicle(core.PathNS, core.KindPolice)
	v.Position = 999

	for i := 0; i < 5; i++ {
		_, err := sim.Step()
		require.NoError(t, err)
	}
	summary := sim.Finish()

	assert.Equal(t, 1, obs.spawned)
	assert.Equal(t, 1, obs.exited)
	assert.Equal(t, 5, obs.ticks)
	assert.Equal(t, []core.Phase{core.NSYellow, core.EWGreen}, obs.phases)
	require.Len(t, obs.finished, 1)
	assert.Equal(t, summary, obs.finished[0])
}

type eventRecorder struct {
	core.BaseObserver
	spawned  int
	exited   int
	ticks    int
	phases   []core.Phase
	finished []EpisodeSummary
}

func (r *eventRecorder) OnPhaseChange(_, to core.Phase) {
	r.phases = append(r.phases, to)
}

func (r *eventRecorder) OnVehicleSpawned(*core.Vehicle) { r.spawned++ }

func (r *eventRecorder) OnVehicleExited(*core.Vehicle) { r.exited++ }

func (r *eventRecorder) OnRunFinished(summary EpisodeSummary) {
	r.finished = append(r.finished, summary)
}

func (r *eventRecorder) OnTickCompleted(int, *core.Intersection, []*core.Vehicle) {
	r.ticks++
}

// skippingController tries to jump straight to the crossing green
type skippingController struct{}

func (skippingController) Update(in *core.Intersection, _ float64) error {
	return in.SetPhase(core.EWGreen)
}

func (skippingController) Name() string { return "skipping" }

func (skippingController) Timer() int { return 0 }

func TestSimulation_ControllerErrorKeepsType(t *testing.T) {
	sim, err := New(quietConfig(), skippingController{}, WithSeed(1))
	require.NoError(t, err)

	res, err := sim.Step()
	require.Error(t, err)
	assert.Equal(t, 1, res.Tick)
	assert.ErrorContains(t, err, "controller skipping at tick 1")
	assert.True(t, utils.IsTransitionError(err))
	assert.Equal(t, utils.ErrCodeTransitionNotAllowed, utils.GetErrorCode(err))
	assert.Equal(t, core.NSGreen, sim.Intersection().Phase())
}

func TestSimulation_MutualExclusionLongRun(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Spawn.CarRate = 0.08

	sims := map[string]*Simulation{
		"fixed":    newFixedSim(t, cfg, cfg.FixedTime.GreenTicks, cfg.FixedTime.YellowTicks),
		"learning": newLearningSim(t, cfg, 11),
	}
	for name, sim := range sims {
		t.Run(name, func(t *testing.T) {
			for i := 0; i < 5000; i++ {
				_, err := sim.Step()
				require.NoError(t, err)
				in := sim.Intersection()
				require.False(t, in.IsGreen(core.PathNS) && in.IsGreen(core.PathEW), "tick %d", i)
				require.True(t, in.Phase().Valid())
			}
			stats := sim.Stats()
			assert.Positive(t, stats.CarsPassed)
			assert.Equal(t, 5000, stats.Ticks)
		})
	}
}

func TestSimulation_Deterministic(t *testing.T) {
	cfg := config.DefaultConfig()
	a := newLearningSim(t, cfg, 99)
	b := newLearningSim(t, cfg, 99)

	for i := 0; i < 3000; i++ {
		ra, errA := a.Step()
		rb, errB := b.Step()
		require.NoError(t, errA)
		require.NoError(t, errB)
		require.Equal(t, ra, rb)
	}
	if diff := cmp.Diff(a.Snapshot(), b.Snapshot()); diff != "" {
		t.Errorf("snapshots diverged (-a +b):\n%s", diff)
	}
}

func TestSimulation_FinishLifecycle(t *testing.T) {
	cfg := quietConfig()
	sim := newLearningSim(t, cfg, 5)
	require.NoError(t, sim.Run(context.Background(), 10))

	first := sim.Finish()
	second := sim.Finish()

	assert.Equal(t, first, second)
	assert.True(t, sim.Finished())
	assert.Equal(t, 10, first.Ticks)
	assert.Equal(t, "q-learning", first.Controller)
	assert.InDelta(t, 0.9995, first.Epsilon, 1e-12)
	assert.InDelta(t, 0.9995, sim.Snapshot().Epsilon, 1e-12)

	_, err := sim.Step()
	assert.True(t, utils.IsRunError(err))
	assert.True(t, utils.IsRunError(sim.Run(context.Background(), 1)))
}

func TestSimulation_RunStopsOnCancel(t *testing.T) {
	sim := newFixedSim(t, quietConfig(), 10, 2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := sim.Run(ctx, 0)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, sim.Tick())
}

func TestSimulation_Snapshot(t *testing.T) {
	sim := newFixedSim(t, quietConfig(), 100, 20)
	v := sim.AddVehicle(core.PathNS, core.KindCar)
	_, err := sim.Step()
	require.NoError(t, err)

	snap := sim.Snapshot()
	assert.Equal(t, 1, snap.Tick)
	assert.Equal(t, core.NSGreen, snap.Phase)
	assert.Equal(t, "fixed-time", snap.Controller)
	assert.Equal(t, 99, snap.Timer)
	assert.Equal(t, 99, snap.NSLight.RemainingTicks)
	assert.False(t, snap.Learning)

	want := []VehicleView{{ID: v.ID, Path: core.PathNS, Kind: core.KindCar, X: 500 - 20 - 11, Y: -43}}
	if diff := cmp.Diff(want, snap.Vehicles); diff != "" {
		t.Errorf("vehicles mismatch (-want +got):\n%s", diff)
	}
}

func TestStats_AverageWaitSeconds(t *testing.T) {
	s := Stats{CarsPassed: 4, TotalWaitTicks: 480}
	assert.Equal(t, 2.0, s.AverageWaitSeconds(60))
	assert.Equal(t, 0.0, Stats{}.AverageWaitSeconds(60))
}
