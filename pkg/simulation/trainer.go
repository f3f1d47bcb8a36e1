package simulation

import (
	"context"

	"github.com/anggasct/urbanflow/pkg/agent"
	"github.com/anggasct/urbanflow/pkg/config"
	"github.com/anggasct/urbanflow/pkg/controllers"
	"github.com/anggasct/urbanflow/pkg/core"
	"github.com/anggasct/urbanflow/pkg/monitoring"
	"github.com/anggasct/urbanflow/pkg/utils"
	"github.com/google/uuid"
)

// TrainerConfig sets the size of a training session
type TrainerConfig struct {
	Episodes        int
	TicksPerEpisode int
	Seed            uint64
}

func (tc TrainerConfig) validate() error {
	if tc.Episodes <= 0 {
		return utils.NewConfigurationError("Trainer", "episodes must be positive")
	}
	if tc.TicksPerEpisode <= 0 {
		return utils.NewConfigurationError("Trainer", "ticks per episode must be positive")
	}
	return nil
}

// EpisodeFunc is called after every finished episode. Returning an error
// stops the session.
type EpisodeFunc func(summary EpisodeSummary) error

// Trainer runs episodes back to back with one shared agent. Each episode
// gets a fresh intersection and vehicle set, and its own spawn seed.
type Trainer struct {
	cfg       config.Config
	tc        TrainerConfig
	agent     *agent.QLearningAgent
	seriesID  string
	observers []core.Observer
	onEpisode EpisodeFunc
}

// NewTrainer creates a trainer and its agent
func NewTrainer(cfg config.Config, tc TrainerConfig) (*Trainer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := tc.validate(); err != nil {
		return nil, err
	}
	a, err := agent.NewQLearningAgent(cfg.QLearning, agent.NewRandSource(AgentSeed(tc.Seed)))
	if err != nil {
		return nil, err
	}
	return &Trainer{
		cfg:      cfg,
		tc:       tc,
		agent:    a,
		seriesID: uuid.New().String(),
	}, nil
}

// Agent returns the shared agent
func (t *Trainer) Agent() *agent.QLearningAgent {
	return t.agent
}

// SeriesID identifies the training session
func (t *Trainer) SeriesID() string {
	return t.seriesID
}

// AddObserver registers an observer on every episode's intersection
func (t *Trainer) AddObserver(observer core.Observer) {
	t.observers = append(t.observers, observer)
}

// OnEpisode sets the per-episode callback
func (t *Trainer) OnEpisode(fn EpisodeFunc) {
	t.onEpisode = fn
}

// Run trains for the configured number of episodes
func (t *Trainer) Run(ctx context.Context) ([]EpisodeSummary, error) {
	return runEpisodes(ctx, t.cfg, t.tc, t.observers, t.onEpisode, func() (controllers.Controller, error) {
		return controllers.NewQLearningController(t.agent, t.cfg.QLearning.DecisionInterval, t.cfg.QLearning.YellowTicks)
	})
}

// RunFixedTime runs the fixed-time baseline over the same seeds a Trainer
// with the same TrainerConfig would use. observers are attached to every episode.
func RunFixedTime(ctx context.Context, cfg config.Config, tc TrainerConfig, onEpisode EpisodeFunc, observers ...core.Observer) ([]EpisodeSummary, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := tc.validate(); err != nil {
		return nil, err
	}
	return runEpisodes(ctx, cfg, tc, observers, onEpisode, func() (controllers.Controller, error) {
		return controllers.NewFixedTimeController(cfg.FixedTime.GreenTicks, cfg.FixedTime.YellowTicks)
	})
}

// AgentSeed derives the exploration seed of an agent trained from base. It
// never matches an episode's spawn seed, so the two streams stay independent.
func AgentSeed(base uint64) uint64 {
	return base + 1
}

// EpisodeSeed derives the spawn seed of an episode
func EpisodeSeed(base uint64, episode int) uint64 {
	return base + uint64(episode)*0x9e3779b97f4a7c15
}

func runEpisodes(ctx context.Context, cfg config.Config, tc TrainerConfig, observers []core.Observer,
	onEpisode EpisodeFunc, newController func() (controllers.Controller, error)) ([]EpisodeSummary, error) {
	summaries := make([]EpisodeSummary, 0, tc.Episodes)
	for episode := 0; episode < tc.Episodes; episode++ {
		if err := ctx.Err(); err != nil {
			return summaries, err
		}

		ctrl, err := newController()
		if err != nil {
			return summaries, err
		}
		opts := []Option{WithSeed(EpisodeSeed(tc.Seed, episode)), WithEpisode(episode)}
		for _, observer := range observers {
			opts = append(opts, WithObserver(observer))
		}
		sim, err := New(cfg, ctrl, opts...)
		if err != nil {
			return summaries, err
		}

		runErr := sim.Run(ctx, tc.TicksPerEpisode)
		summary := sim.Finish()
		summaries = append(summaries, summary)
		monitoring.Logf("episode %d (%s): ticks=%d passed=%d reward=%.0f epsilon=%.4f",
			episode, summary.Controller, summary.Ticks, summary.CarsPassed, summary.RewardSum, summary.Epsilon)

		if onEpisode != nil {
			if err := onEpisode(summary); err != nil {
				return summaries, err
			}
		}
		if runErr != nil {
			return summaries, runErr
		}
	}
	return summaries, nil
}
