package simulation

import (
	"github.com/anggasct/urbanflow/pkg/agent"
	"github.com/anggasct/urbanflow/pkg/config"
	"github.com/anggasct/urbanflow/pkg/core"
)

// SpawnRequest describes one vehicle to introduce this tick
type SpawnRequest struct {
	Path core.Path
	Kind core.Kind
}

// Spawner draws new vehicles once per tick. A single path draw is shared by
// every vehicle spawned on the same tick.
type Spawner struct {
	rates config.SpawnConfig
	rng   agent.RandSource
}

// NewSpawner creates a spawner over the given rates
func NewSpawner(rates config.SpawnConfig, rng agent.RandSource) *Spawner {
	return &Spawner{rates: rates, rng: rng}
}

// Draw returns the vehicles to spawn. Emergency vehicles are only drawn
// when none is active; the ambulance draw short-circuits the police draw.
// The car draw happens regardless.
func (s *Spawner) Draw(emergencyActive bool) []SpawnRequest {
	path := core.Paths[s.rng.IntN(len(core.Paths))]

	var out []SpawnRequest
	if !emergencyActive {
		if s.rng.Float64() < s.rates.AmbulanceRate {
			out = append(out, SpawnRequest{Path: path, Kind: core.KindAmbulance})
		} else if s.rng.Float64() < s.rates.PoliceRate {
			out = append(out, SpawnRequest{Path: path, Kind: core.KindPolice})
		}
	}
	if s.rng.Float64() < s.rates.CarRate {
		out = append(out, SpawnRequest{Path: path, Kind: core.KindCar})
	}
	return out
}
