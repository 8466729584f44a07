package sim

import (
	"log/slog"
	"math/rand"
	"sort"

	"github.com/pthm-cable/strider/config"
	"github.com/pthm-cable/strider/neural"
	"github.com/pthm-cable/strider/walker"
)

// SowReport counts what the sow phase did to the population.
type SowReport struct {
	Reaped     int
	Crossovers int
	Mutated    int
	Randomized int
}

// Engine implements the rank/reap/sow cycle over a ranked view of the
// population. It mutates genomes in place; physical representations are
// rebuilt lazily on the walker's next activation.
type Engine struct {
	cfg config.EvolutionConfig
	rng *rand.Rand
	log *slog.Logger

	// Cursor into the reaped band, walked worst-first across one sow.
	nextReapedOffset int

	// Staging genome for crossover children. The non-elite father draw can
	// land on the slot being refilled, so the child is built here and
	// installed afterwards to keep the parent reads consistent.
	scratch *neural.Genome
}

func NewEngine(cfg config.EvolutionConfig, rng *rand.Rand, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{cfg: cfg, rng: rng, log: log}
}

// Rank returns the population sorted by descending fitness. The sort is
// stable over the slot-ordered input, so equal fitness resolves to ascending
// slot index. The input slice is not reordered.
func (e *Engine) Rank(population []*walker.Walker) []*walker.Walker {
	ranked := make([]*walker.Walker, len(population))
	copy(ranked, population)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Fitness() > ranked[j].Fitness()
	})
	e.nextReapedOffset = 0
	return ranked
}

// Evolve runs the reap and sow phases over an already ranked population.
func (e *Engine) Evolve(ranked []*walker.Walker) SowReport {
	report := e.Sow(ranked, e.Reap(ranked))
	return report
}

// Reap marks the bottom reapFraction of the ranked population for
// replacement and returns how many were marked.
func (e *Engine) Reap(ranked []*walker.Walker) int {
	n := len(ranked)
	reaped := 0
	for i := n - 1; float64(i) >= float64(n-1)*(1-e.cfg.ReapFraction); i-- {
		ranked[i].SetReaped(true)
		reaped++
	}
	return reaped
}

// Sow refills the reaped band: crossover children of elite parents first,
// fully random genomes for whatever remains, plus a ramped mutation pass
// over the middle band. Elites are never written to.
func (e *Engine) Sow(ranked []*walker.Walker, reaped int) SowReport {
	n := len(ranked)
	report := SowReport{Reaped: reaped}

	for i := 0; float64(i) < float64(n)*e.cfg.CrossoverFraction; i++ {
		child := e.nextReaped(ranked)
		if child == nil {
			break
		}
		mother := e.randomElite(ranked)
		father := e.randomElite(ranked)
		if e.rng.Float64() >= e.cfg.EliteParentBias {
			father = e.randomNonElite(ranked)
		}
		if e.scratch == nil {
			g := child.Genome()
			e.scratch = neural.NewGenome(g.Sensors(), g.Joints())
		}
		neural.Crossover(mother.Genome(), father.Genome(), e.scratch, e.rng)
		child.ReplaceWeightsFrom(e.scratch)
		child.SetReaped(false)
		report.Crossovers++
	}

	// Mutation rate ramps linearly from 0 at the top of the band up to
	// just under the configured rate at the bottom.
	for i := int(float64(n) * e.cfg.EliteFraction); float64(i) < float64(n)*(e.cfg.EliteFraction+e.cfg.MutationFraction); i++ {
		rate := e.cfg.MutationRate / (float64(n) * e.cfg.MutationFraction) * (float64(i) - float64(n)*e.cfg.EliteFraction)
		ranked[i].Genome().Mutate(e.rng, rate)
		report.Mutated++
	}

	for i := 0; float64(i) < float64(n-1)*(e.cfg.ReapFraction-e.cfg.CrossoverFraction); i++ {
		wk := e.nextReaped(ranked)
		if wk == nil {
			break
		}
		wk.Genome().Randomize(e.rng)
		wk.SetReaped(false)
		report.Randomized++
	}

	return report
}

// randomElite picks uniformly from the elite band at the top of the ranking.
func (e *Engine) randomElite(ranked []*walker.Walker) *walker.Walker {
	n := len(ranked)
	idx := int(float64(n-1) * e.cfg.EliteFraction * e.rng.Float64())
	return ranked[idx]
}

// randomNonElite picks uniformly from everything below the elite band.
func (e *Engine) randomNonElite(ranked []*walker.Walker) *walker.Walker {
	n := len(ranked)
	idx := int(float64(n-1)*e.cfg.EliteFraction + float64(n-1)*(1-e.cfg.EliteFraction)*e.rng.Float64())
	return ranked[idx]
}

// nextReaped advances the cursor and returns the next reaped walker,
// worst-ranked first. It returns nil once the cursor would leave the reaped
// band, so over-asking cannot hand out a survivor.
func (e *Engine) nextReaped(ranked []*walker.Walker) *walker.Walker {
	n := len(ranked)
	if float64(n-1-e.nextReapedOffset) >= float64(n-1)*(1-e.cfg.ReapFraction) {
		e.nextReapedOffset++
		candidate := ranked[n-e.nextReapedOffset]
		if candidate.Reaped() {
			return candidate
		}
	}
	return nil
}
