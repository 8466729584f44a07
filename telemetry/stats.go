// Package telemetry aggregates per-generation results and writes them to
// structured run output (CSV plus slog).
package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/strider/sim"
)

// GenerationStats holds aggregated statistics for one completed generation.
type GenerationStats struct {
	Generation int     `csv:"generation"`
	SimTimeSec float64 `csv:"sim_time"`

	// Walked distance distribution across the ranked population
	BestDistance  float64 `csv:"best_distance"`
	WorstDistance float64 `csv:"worst_distance"`
	MeanDistance  float64 `csv:"mean_distance"`
	StdDistance   float64 `csv:"std_distance"`
	P10Distance   float64 `csv:"p10_distance"`
	P50Distance   float64 `csv:"p50_distance"`
	P90Distance   float64 `csv:"p90_distance"`

	// What the sow phase did
	Reaped     int `csv:"reaped"`
	Crossovers int `csv:"crossovers"`
	Mutated    int `csv:"mutated"`
	Randomized int `csv:"randomized"`
}

// NewGenerationStats aggregates a completed generation. Distances arrive
// ranked best-first from the scheduler.
func NewGenerationStats(g sim.Generation) GenerationStats {
	s := GenerationStats{
		Generation: g.Number,
		SimTimeSec: g.SimTime,
		Reaped:     g.Report.Reaped,
		Crossovers: g.Report.Crossovers,
		Mutated:    g.Report.Mutated,
		Randomized: g.Report.Randomized,
	}
	if len(g.Distances) == 0 {
		return s
	}

	s.BestDistance = g.Distances[0]
	s.WorstDistance = g.Distances[len(g.Distances)-1]
	s.MeanDistance = stat.Mean(g.Distances, nil)
	s.StdDistance = stat.PopStdDev(g.Distances, nil)

	// Quantile wants ascending order.
	sorted := make([]float64, len(g.Distances))
	copy(sorted, g.Distances)
	sort.Float64s(sorted)
	s.P10Distance = stat.Quantile(0.10, stat.Empirical, sorted, nil)
	s.P50Distance = stat.Quantile(0.50, stat.Empirical, sorted, nil)
	s.P90Distance = stat.Quantile(0.90, stat.Empirical, sorted, nil)

	return s
}

// LogValue implements slog.LogValuer for structured logging.
func (s GenerationStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("generation", s.Generation),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Float64("best_distance", s.BestDistance),
		slog.Float64("worst_distance", s.WorstDistance),
		slog.Float64("mean_distance", s.MeanDistance),
		slog.Float64("std_distance", s.StdDistance),
		slog.Float64("p10_distance", s.P10Distance),
		slog.Float64("p50_distance", s.P50Distance),
		slog.Float64("p90_distance", s.P90Distance),
		slog.Int("reaped", s.Reaped),
		slog.Int("crossovers", s.Crossovers),
		slog.Int("mutated", s.Mutated),
		slog.Int("randomized", s.Randomized),
	)
}

// LogStats logs the generation stats using slog.
func (s GenerationStats) LogStats() {
	slog.Info("generation",
		"generation", s.Generation,
		"sim_time", s.SimTimeSec,
		"best_distance", s.BestDistance,
		"worst_distance", s.WorstDistance,
		"mean_distance", s.MeanDistance,
		"std_distance", s.StdDistance,
		"p50_distance", s.P50Distance,
		"reaped", s.Reaped,
		"crossovers", s.Crossovers,
		"mutated", s.Mutated,
		"randomized", s.Randomized,
	)
}
