package telemetry

import (
	"math"
	"testing"

	"github.com/pthm-cable/strider/sim"
)

func TestNewGenerationStatsAggregates(t *testing.T) {
	g := sim.Generation{
		Number:       3,
		SimTime:      12.5,
		BestDistance: 4,
		Distances:    []float64{4, 3, 2, 1},
		Report:       sim.SowReport{Reaped: 2, Crossovers: 1, Mutated: 1, Randomized: 1},
	}

	s := NewGenerationStats(g)

	if s.Generation != 3 || s.SimTimeSec != 12.5 {
		t.Errorf("identity fields = (%d, %g), want (3, 12.5)", s.Generation, s.SimTimeSec)
	}
	if s.BestDistance != 4 || s.WorstDistance != 1 {
		t.Errorf("extremes = (%g, %g), want (4, 1)", s.BestDistance, s.WorstDistance)
	}
	if s.MeanDistance != 2.5 {
		t.Errorf("mean = %g, want 2.5", s.MeanDistance)
	}
	if want := math.Sqrt(1.25); math.Abs(s.StdDistance-want) > 1e-12 {
		t.Errorf("std = %g, want %g", s.StdDistance, want)
	}
	if s.P50Distance != 2 {
		t.Errorf("p50 = %g, want 2", s.P50Distance)
	}
	if s.Reaped != 2 || s.Crossovers != 1 || s.Mutated != 1 || s.Randomized != 1 {
		t.Errorf("sow counts = %+v", s)
	}
}

func TestNewGenerationStatsEmpty(t *testing.T) {
	s := NewGenerationStats(sim.Generation{Number: 1})

	if s.BestDistance != 0 || s.MeanDistance != 0 || s.StdDistance != 0 {
		t.Errorf("empty generation produced non-zero aggregates: %+v", s)
	}
}
