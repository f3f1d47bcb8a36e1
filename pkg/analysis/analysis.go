// Package analysis summarizes finished episodes and compares controllers.
package analysis

import (
	"math"
	"slices"

	"github.com/anggasct/urbanflow/pkg/simulation"
	"github.com/samber/lo"
	"gonum.org/v1/gonum/stat"
)

// Moments is a mean and sample standard deviation
type Moments struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
}

func moments(x []float64) Moments {
	switch len(x) {
	case 0:
		return Moments{}
	case 1:
		return Moments{Mean: x[0]}
	}
	mean, std := stat.MeanStdDev(x, nil)
	return Moments{Mean: mean, StdDev: std}
}

// Summary aggregates a series of episodes
type Summary struct {
	Episodes       int     `json:"episodes"`
	Reward         Moments `json:"reward"`
	Throughput     Moments `json:"throughput"`
	AverageWait    Moments `json:"average_wait_seconds"`
	CumulativeWait Moments `json:"cumulative_wait_ticks"`
	FinalEpsilon   float64 `json:"final_epsilon"`
}

// Summarize aggregates episode summaries in order
func Summarize(episodes []simulation.EpisodeSummary) Summary {
	s := Summary{Episodes: len(episodes)}
	if len(episodes) == 0 {
		return s
	}
	s.Reward = moments(lo.Map(episodes, func(e simulation.EpisodeSummary, _ int) float64 {
		return e.RewardSum
	}))
	s.Throughput = moments(lo.Map(episodes, func(e simulation.EpisodeSummary, _ int) float64 {
		return float64(e.CarsPassed)
	}))
	s.AverageWait = moments(lo.Map(episodes, func(e simulation.EpisodeSummary, _ int) float64 {
		return e.AverageWaitSeconds
	}))
	s.CumulativeWait = moments(lo.Map(episodes, func(e simulation.EpisodeSummary, _ int) float64 {
		return float64(e.CumulativeWaitTicks)
	}))
	s.FinalEpsilon = episodes[len(episodes)-1].Epsilon
	return s
}

// Distribution describes per-vehicle waiting times in seconds
type Distribution struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	P50    float64 `json:"p50"`
	P95    float64 `json:"p95"`
	Max    float64 `json:"max"`
}

// WaitDistribution converts waiting ticks to seconds and describes them
func WaitDistribution(waits []int, tickRate int) Distribution {
	if len(waits) == 0 || tickRate <= 0 {
		return Distribution{}
	}
	x := lo.Map(waits, func(w int, _ int) float64 {
		return float64(w) / float64(tickRate)
	})
	slices.Sort(x)

	m := moments(x)
	return Distribution{
		Count:  len(x),
		Mean:   m.Mean,
		StdDev: m.StdDev,
		P50:    stat.Quantile(0.5, stat.Empirical, x, nil),
		P95:    stat.Quantile(0.95, stat.Empirical, x, nil),
		Max:    x[len(x)-1],
	}
}

// Comparison is the relative change of a candidate against a baseline.
// Positive values mean the candidate is better.
type Comparison struct {
	Baseline  Summary `json:"baseline"`
	Candidate Summary `json:"candidate"`

	WaitReduction     float64 `json:"wait_reduction"`
	ThroughputGain    float64 `json:"throughput_gain"`
	RewardImprovement float64 `json:"reward_improvement"`
}

// Compare summarizes both series and reports relative improvements
func Compare(baseline, candidate []simulation.EpisodeSummary) Comparison {
	b, c := Summarize(baseline), Summarize(candidate)
	return Comparison{
		Baseline:          b,
		Candidate:         c,
		WaitReduction:     relative(b.AverageWait.Mean, c.AverageWait.Mean, true),
		ThroughputGain:    relative(b.Throughput.Mean, c.Throughput.Mean, false),
		RewardImprovement: relative(b.Reward.Mean, c.Reward.Mean, false),
	}
}

// relative returns the fractional improvement from base to cand. When
// lowerIsBetter is set a decrease counts as positive.
func relative(base, cand float64, lowerIsBetter bool) float64 {
	if base == 0 {
		return 0
	}
	change := (cand - base) / math.Abs(base)
	if lowerIsBetter {
		return -change
	}
	return change
}

// MovingAverage smooths a series with a trailing window
func MovingAverage(x []float64, window int) []float64 {
	if window <= 1 {
		return slices.Clone(x)
	}
	out := make([]float64, len(x))
	for i := range x {
		start := max(0, i-window+1)
		out[i] = stat.Mean(x[start:i+1], nil)
	}
	return out
}
