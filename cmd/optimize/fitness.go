package main

import (
	"io"
	"log/slog"
	"math/rand"

	"github.com/pthm-cable/strider/config"
	"github.com/pthm-cable/strider/sim"
	"github.com/pthm-cable/strider/world"
)

const evalStepDelta = 1.0 / 60.0

// FitnessEvaluator scores a parameter vector by running short headless
// evolution runs and averaging the best walked distance across seeds.
type FitnessEvaluator struct {
	params      *ParamVector
	generations int
	seeds       []int64
	baseCfg     *config.Config

	lastBest float64
}

// NewFitnessEvaluator creates a fitness evaluator.
func NewFitnessEvaluator(params *ParamVector, generations int, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		generations: generations,
		seeds:       seeds,
		baseCfg:     baseCfg,
	}
}

// LastBest returns the mean best distance of the most recent evaluation.
func (e *FitnessEvaluator) LastBest() float64 {
	return e.lastBest
}

// Evaluate runs one evolution per seed and returns the negated mean best
// distance, since the optimizer minimizes.
func (e *FitnessEvaluator) Evaluate(raw []float64) float64 {
	cfg := *e.baseCfg
	e.params.ApplyToConfig(&cfg, raw)

	var total float64
	for _, seed := range e.seeds {
		total += runEvolution(cfg, seed, e.generations)
	}
	mean := total / float64(len(e.seeds))
	e.lastBest = mean
	return -mean
}

// runEvolution runs one headless evolution and returns the best distance
// seen across all generations.
func runEvolution(cfg config.Config, seed int64, generations int) float64 {
	cfg.World.Seed = seed

	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	rng := rand.New(rand.NewSource(seed))
	kw := world.NewKinematic(cfg.World)

	scheduler, err := sim.NewScheduler(&cfg, kw, rng, quiet)
	if err != nil {
		// ApplyToConfig keeps every vector inside the validated bounds.
		panic(err)
	}

	best := 0.0
	done := false
	scheduler.OnGeneration(func(g sim.Generation) {
		if g.BestDistance > best {
			best = g.BestDistance
		}
		if g.Number+1 >= generations {
			done = true
		}
	})

	for !done {
		kw.Step(evalStepDelta)
	}
	return best
}
