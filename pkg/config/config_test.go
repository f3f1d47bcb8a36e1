package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/anggasct/urbanflow/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 180, cfg.FixedTime.GreenTicks)
	assert.Equal(t, 60, cfg.FixedTime.YellowTicks)
	assert.Equal(t, 120, cfg.QLearning.DecisionInterval)
	assert.Equal(t, 5, cfg.QLearning.QueueBinSize)
	assert.Equal(t, 10, cfg.QLearning.MaxQueueBin)
	assert.Equal(t, 35.0, cfg.Vehicles.MinFollowDistance)
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero green", func(c *Config) { c.FixedTime.GreenTicks = 0 }},
		{"negative yellow", func(c *Config) { c.FixedTime.YellowTicks = -1 }},
		{"zero decision interval", func(c *Config) { c.QLearning.DecisionInterval = 0 }},
		{"zero learning yellow", func(c *Config) { c.QLearning.YellowTicks = 0 }},
		{"zero bin size", func(c *Config) { c.QLearning.QueueBinSize = 0 }},
		{"zero max bin", func(c *Config) { c.QLearning.MaxQueueBin = 0 }},
		{"alpha zero", func(c *Config) { c.QLearning.Alpha = 0 }},
		{"gamma above one", func(c *Config) { c.QLearning.Gamma = 1.5 }},
		{"epsilon negative", func(c *Config) { c.QLearning.Epsilon = -0.1 }},
		{"min epsilon above one", func(c *Config) { c.QLearning.MinEpsilon = 2 }},
		{"decay zero", func(c *Config) { c.QLearning.EpsilonDecay = 0 }},
		{"car rate above one", func(c *Config) { c.Spawn.CarRate = 1.1 }},
		{"police rate negative", func(c *Config) { c.Spawn.PoliceRate = -0.5 }},
		{"zero car speed", func(c *Config) { c.Vehicles.CarSpeed = 0 }},
		{"zero length", func(c *Config) { c.Vehicles.Length = 0 }},
		{"negative follow distance", func(c *Config) { c.Vehicles.MinFollowDistance = -1 }},
		{"zero tick rate", func(c *Config) { c.Screen.TickRate = 0 }},
		{"stop line off screen", func(c *Config) { c.Road.StopLineOffset = 600 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, utils.IsConfigurationError(err), "got %T", err)
		})
	}
}

func TestLoad_PartialOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sim.json")
	data := `{"fixed_time": {"green_ticks": 90}, "spawn": {"car_rate": 0.1}}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 90, cfg.FixedTime.GreenTicks)
	assert.Equal(t, 60, cfg.FixedTime.YellowTicks)
	assert.Equal(t, 0.1, cfg.Spawn.CarRate)
	assert.Equal(t, 0.005, cfg.Spawn.AmbulanceRate)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "sim.yaml"))
	assert.ErrorContains(t, err, ".json extension")

	_, err = Load(filepath.Join(dir, "missing.json"))
	assert.ErrorContains(t, err, "failed to stat")

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o644))
	_, err = Load(bad)
	assert.ErrorContains(t, err, "failed to parse")

	invalid := filepath.Join(dir, "invalid.json")
	require.NoError(t, os.WriteFile(invalid, []byte(`{"qlearning": {"alpha": 0}}`), 0o644))
	_, err = Load(invalid)
	assert.ErrorContains(t, err, "invalid configuration")
	assert.True(t, utils.IsConfigurationError(err))
	assert.Equal(t, utils.ErrCodeInvalidConfiguration, utils.GetErrorCode(err))

	zeroGreen := filepath.Join(dir, "zero-green.json")
	require.NoError(t, os.WriteFile(zeroGreen, []byte(`{"fixed_time": {"green_ticks": 0}}`), 0o644))
	_, err = Load(zeroGreen)
	assert.True(t, utils.IsConfigurationError(err))

	_, err = Load(bad)
	assert.False(t, utils.IsConfigurationError(err))
}
