package simulation

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/anggasct/urbanflow/pkg/agent"
	"github.com/anggasct/urbanflow/pkg/config"
	"github.com/anggasct/urbanflow/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTrainer_Rejects(t *testing.T) {
	_, err := NewTrainer(config.DefaultConfig(), TrainerConfig{Episodes: 0, TicksPerEpisode: 10})
	assert.True(t, utils.IsConfigurationError(err))

	_, err = NewTrainer(config.DefaultConfig(), TrainerConfig{Episodes: 1, TicksPerEpisode: 0})
	assert.True(t, utils.IsConfigurationError(err))
}

func TestTrainer_DecaysOncePerEpisode(t *testing.T) {
	trainer, err := NewTrainer(config.DefaultConfig(), TrainerConfig{Episodes: 4, TicksPerEpisode: 600, Seed: 3})
	require.NoError(t, err)
	assert.Len(t, trainer.SeriesID(), 36)

	var seen []int
	trainer.OnEpisode(func(s EpisodeSummary) error {
		seen = append(seen, s.Episode)
		return nil
	})

	summaries, err := trainer.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, summaries, 4)
	assert.Equal(t, []int{0, 1, 2, 3}, seen)

	for i, s := range summaries {
		assert.Equal(t, 600, s.Ticks)
		assert.Equal(t, "q-learning", s.Controller)
		assert.Equal(t, EpisodeSeed(3, i), s.Seed)
		assert.InDelta(t, math.Pow(0.9995, float64(i+1)), s.Epsilon, 1e-12)
	}
	assert.NotEqual(t, summaries[0].RunID, summaries[1].RunID)
	assert.InDelta(t, math.Pow(0.9995, 4), trainer.Agent().Epsilon(), 1e-12)
}

func TestTrainer_CallbackErrorStops(t *testing.T) {
	trainer, err := NewTrainer(config.DefaultConfig(), TrainerConfig{Episodes: 5, TicksPerEpisode: 50, Seed: 1})
	require.NoError(t, err)

	stop := errors.New("stop")
	trainer.OnEpisode(func(s EpisodeSummary) error {
		if s.Episode == 1 {
			return stop
		}
		return nil
	})

	summaries, err := trainer.Run(context.Background())
	assert.ErrorIs(t, err, stop)
	assert.Len(t, summaries, 2)
}

func TestTrainer_Cancelled(t *testing.T) {
	trainer, err := NewTrainer(config.DefaultConfig(), TrainerConfig{Episodes: 3, TicksPerEpisode: 50})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summaries, err := trainer.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, summaries)
	assert.Equal(t, 1.0, trainer.Agent().Epsilon())
}

func TestRunFixedTime_SharesSeeds(t *testing.T) {
	tc := TrainerConfig{Episodes: 2, TicksPerEpisode: 400, Seed: 8}

	a, err := RunFixedTime(context.Background(), config.DefaultConfig(), tc, nil)
	require.NoError(t, err)
	b, err := RunFixedTime(context.Background(), config.DefaultConfig(), tc, nil)
	require.NoError(t, err)

	require.Len(t, a, 2)
	for i := range a {
		assert.Equal(t, "fixed-time", a[i].Controller)
		assert.Equal(t, 0.0, a[i].Epsilon)
		assert.Equal(t, a[i].RewardSum, b[i].RewardSum)
		assert.Equal(t, a[i].CarsPassed, b[i].CarsPassed)
	}
}

func TestAgentSeed_IndependentOfEpisodeSeeds(t *testing.T) {
	for _, base := range []uint64{0, 3, 8, math.MaxUint64} {
		seed := AgentSeed(base)
		for episode := 0; episode < 1000; episode++ {
			require.NotEqual(t, EpisodeSeed(base, episode), seed, "base %d episode %d", base, episode)
		}

		explore, spawn := agent.NewRandSource(seed), agent.NewRandSource(EpisodeSeed(base, 0))
		same := 0
		for i := 0; i < 32; i++ {
			if explore.Float64() == spawn.Float64() {
				same++
			}
		}
		assert.Zero(t, same, "base %d", base)
	}
}
