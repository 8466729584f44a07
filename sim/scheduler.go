// Package sim contains the evaluation scheduler and the evolution engine:
// the step-driven core that decides which walkers are under evaluation,
// ranks completed rounds, and breeds the next generation.
package sim

import (
	"log/slog"
	"math/rand"

	"github.com/pthm-cable/strider/config"
	"github.com/pthm-cable/strider/neural"
	"github.com/pthm-cable/strider/walker"
	"github.com/pthm-cable/strider/world"
)

// Generation describes one completed rank/reap/sow cycle.
type Generation struct {
	Number       int
	SimTime      float64
	BestDistance float64
	Distances    []float64 // walked distances, ranked best-first
	Report       SowReport
}

// GenerationFunc observes completed generations (telemetry, live streaming).
type GenerationFunc func(Generation)

// Scheduler drives the population through staggered evaluations against the
// physics world. It is invoked synchronously once per simulation step via
// the world's pre-step hook; everything runs on that single goroutine.
type Scheduler struct {
	cfg *config.Config
	w   world.World
	log *slog.Logger

	population []*walker.Walker
	engine     *Engine

	inFlight   int
	resetPos   world.Vec3
	simTime    float64
	generation int

	// Best distance seen across rounds. Elites are never mutated, so a
	// regression here means the physics replay was not deterministic.
	bestDistance float64

	onGeneration GenerationFunc
}

// NewScheduler validates the configuration, builds the population with
// random genomes, and hooks itself into the world's pre-step and contact
// callbacks.
func NewScheduler(cfg *config.Config, w world.World, rng *rand.Rand, log *slog.Logger) (*Scheduler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}

	plan := walker.NewPlan(cfg.Walker)
	population := make([]*walker.Walker, cfg.Population.Size)
	for i := range population {
		genome := neural.NewRandomGenome(plan.SegmentCount(), plan.JointCount(), rng)
		population[i] = walker.New(i, plan, genome, cfg.Control)
	}

	s := &Scheduler{
		cfg:        cfg,
		w:          w,
		log:        log,
		population: population,
		engine:     NewEngine(cfg.Evolution, rng, log),
	}

	w.OnPreStep(s.OnStep)
	w.OnContact(s.handleContact)

	return s, nil
}

// Population returns the slot-ordered population array. Slot i always holds
// the walker with index i; ranking never reorders it.
func (s *Scheduler) Population() []*walker.Walker {
	return s.population
}

// InFlight returns the number of walkers currently under evaluation.
func (s *Scheduler) InFlight() int {
	return s.inFlight
}

// GenerationCount returns the number of completed generations.
func (s *Scheduler) GenerationCount() int {
	return s.generation
}

// SimTime returns the accumulated (clamped) simulation time in seconds.
func (s *Scheduler) SimTime() float64 {
	return s.simTime
}

// OnGeneration registers the observer for completed generations.
func (s *Scheduler) OnGeneration(fn GenerationFunc) {
	s.onGeneration = fn
}

// handleContact routes a contact to the touch sensors of any walker bodies
// involved. Contacts for walkers that left evaluation mid-step degrade to
// no-ops inside RecordTouch.
func (s *Scheduler) handleContact(a, b world.Body) {
	s.recordTouch(s.w.Owner(a))
	s.recordTouch(s.w.Owner(b))
}

func (s *Scheduler) recordTouch(o world.Owner) {
	if o.Kind != world.OwnerWalker {
		return
	}
	if o.Walker < 0 || o.Walker >= len(s.population) {
		return
	}
	s.population[o.Walker].RecordTouch(o.Segment)
}

// OnStep runs once per physics step: advance active evaluations, tear down
// the ones past the evaluation duration, admit new walkers up to the
// parallelism bound, and, when the round is over, run exactly one
// rank/reap/sow cycle.
func (s *Scheduler) OnStep(dt float64) {
	if dt > s.cfg.Evaluation.MaxStepDelta {
		dt = s.cfg.Evaluation.MaxStepDelta
	}
	s.simTime += dt

	for _, wk := range s.population {
		wk.Tick(dt) // no-op for idle walkers
	}

	for _, wk := range s.population {
		if wk.State() == walker.Evaluating && wk.EvaluationTime() >= s.cfg.Evaluation.Duration {
			s.log.Debug("evaluation finished",
				slog.Int("slot", wk.Index()),
				slog.Float64("sim_time", s.simTime),
				slog.Float64("distance", wk.Distance()))
			wk.Deactivate()
			s.inFlight--
		}
	}

	// Admission follows ascending slot order, so the first wave of a round
	// is deterministic. Only walkers that have not run this round qualify.
	for _, wk := range s.population {
		if s.inFlight >= s.cfg.Population.ParallelEvaluations {
			break
		}
		if wk.State() == walker.Idle && wk.EvaluationTime() == 0 {
			s.log.Debug("evaluation started",
				slog.Int("slot", wk.Index()),
				slog.Float64("sim_time", s.simTime))
			wk.Activate(s.w, s.resetPos)
			s.inFlight++
		}
	}

	if s.inFlight != 0 {
		return
	}
	for _, wk := range s.population {
		if wk.EvaluationTime() == 0 {
			return // not everyone has been evaluated this round
		}
	}

	s.completeRound()
}

// completeRound hands off synchronously to the evolution engine and resets
// the evaluation clocks for the next round.
func (s *Scheduler) completeRound() {
	ranked := s.engine.Rank(s.population)

	distances := make([]float64, len(ranked))
	for i, wk := range ranked {
		distances[i] = wk.Distance()
	}
	best := distances[0]
	s.log.Info("round complete", slog.Int("generation", s.generation), slog.Float64("best_distance", best))

	// Elites survive untouched, so the best distance must not regress; a
	// regression means the evaluation replay was not deterministic.
	n := len(s.population)
	if float64(n-1)*(1-s.cfg.Evolution.ReapFraction) != 0 && best < s.bestDistance {
		s.log.Warn("simulation not deterministic",
			slog.Float64("best_distance", best),
			slog.Float64("previous_best", s.bestDistance))
	} else {
		s.bestDistance = best
	}

	report := s.engine.Evolve(ranked)
	s.log.Info("generation sown",
		slog.Int("reaped", report.Reaped),
		slog.Int("crossovers", report.Crossovers),
		slog.Int("mutated", report.Mutated),
		slog.Int("randomized", report.Randomized))

	gen := Generation{
		Number:       s.generation,
		SimTime:      s.simTime,
		BestDistance: best,
		Distances:    distances,
		Report:       report,
	}
	s.generation++

	for _, wk := range s.population {
		wk.ResetEvaluationTime()
	}

	if s.onGeneration != nil {
		s.onGeneration(gen)
	}
}
