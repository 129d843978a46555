package main

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/cellsim/config"
	"github.com/pthm-cable/cellsim/engine"
)

// FitnessEvaluator runs headless Engine instances and scores a parameter
// vector by how closely its population trajectory tracks a target curve,
// driving the engine only through its public surface
// (NewWithConfig/Configure/Spawn/Tick/DrainEvents/ActiveCount/WorldSize),
// never its internals.
type FitnessEvaluator struct {
	params     *ParamVector
	baseConfig *config.Config
	ticks      int
	seeds      []int64
	target     []float64 // target population sampled at len(target) evenly spaced checkpoints
}

// NewFitnessEvaluator builds an evaluator that runs `ticks` steps per seed
// and compares the resulting population trajectory against target.
func NewFitnessEvaluator(params *ParamVector, baseCfg *config.Config, ticks int, seeds []int64, target []float64) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:     params,
		baseConfig: baseCfg,
		ticks:      ticks,
		seeds:      seeds,
		target:     target,
	}
}

// Evaluate computes the RMSE (averaged across seeds) between the simulated
// population curve and the target curve for parameter vector x. Lower is
// better; this is the function gonum/optimize minimizes.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	clamped := fe.params.Clamp(x)

	var total float64
	for _, seed := range fe.seeds {
		total += fe.runOne(clamped, seed)
	}
	return total / float64(len(fe.seeds))
}

func (fe *FitnessEvaluator) runOne(p []float64, seed int64) float64 {
	cfg := fe.baseConfig.Clone()
	e := engine.NewWithConfig(cfg, seed)

	mutationRate := float32(p[0])
	foodAbundance := float32(p[1])
	friction := float32(p[2])
	solarConstant := float32(p[3])
	e.Configure(engine.ConfigureOptions{
		MutationRate:  &mutationRate,
		FoodAbundance: &foodAbundance,
		Friction:      &friction,
		SolarConstant: &solarConstant,
	})

	seedStartingPopulation(e, seed)

	n := len(fe.target)
	if n == 0 {
		return 0
	}
	checkpoint := fe.ticks / n
	if checkpoint < 1 {
		checkpoint = 1
	}

	sampled := make([]float64, 0, n)
	for tick := 0; tick < fe.ticks; tick++ {
		e.Tick(0.1)
		e.DrainEvents()
		if (tick+1)%checkpoint == 0 && len(sampled) < n {
			sampled = append(sampled, float64(e.ActiveCount()))
		}
	}
	for len(sampled) < n {
		sampled = append(sampled, float64(e.ActiveCount()))
	}

	return rmse(sampled, fe.target)
}

func rmse(actual, target []float64) float64 {
	n := len(actual)
	if n == 0 {
		return 0
	}
	diffs := make([]float64, n)
	for i := range diffs {
		diffs[i] = actual[i] - target[i]
	}
	meanSq := stat.Mean(square(diffs), nil)
	return math.Sqrt(meanSq)
}

func square(v []float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = x * x
	}
	return out
}

// seedStartingPopulation gives every run with a given seed the same
// deterministic starting population, so evaluations of different parameter
// vectors compare parameter effects, not seeding luck. Positions are the
// same for every seed; genomes shift with the seed.
func seedStartingPopulation(e *engine.Engine, seed int64) {
	const n = 100
	worldSize := e.WorldSize()
	for i := 0; i < n; i++ {
		frac := float64(i) / float64(n)
		x := float32(frac) * worldSize
		y := float32(math.Mod(frac*7.0, 1.0)) * worldSize
		e.Spawn(x, y, defaultGenomeAt(i, seed))
	}
}

// defaultGenomeAt derives a deterministic but varied starting genome from
// the agent's seeding index, avoiding a monoculture at tick zero.
func defaultGenomeAt(i int, seed int64) [8]float32 {
	var g [8]float32
	for j := range g {
		v := math.Mod(float64(i+1)*2.3+float64(j)*0.7+float64(seed%97)*0.01, 1.0)
		g[j] = float32(v)
	}
	return g
}
