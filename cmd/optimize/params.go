// Package main provides CMA-ES optimization for engine parameters that
// produce fast walkers.
package main

import (
	"github.com/pthm-cable/strider/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable parameters. The
// elite/mutation/reap split stays locked so the population bands keep their
// shape; the search tunes the controller and the operators inside the bands.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Controller
			{Name: "control_frequency", Path: "control.frequency", Min: 1.0, Max: 8.0, Default: 3.0},
			{Name: "motor_strength", Path: "control.motor_strength", Min: 0.1, Max: 1.0, Default: 0.5},
			// Evolution operators (band fractions locked)
			{Name: "crossover_fraction", Path: "evolution.crossover_fraction", Min: 0.0, Max: 0.3, Default: 0.2},
			{Name: "mutation_rate", Path: "evolution.mutation_rate", Min: 0.05, Max: 0.9, Default: 0.5},
			{Name: "elite_parent_bias", Path: "evolution.elite_parent_bias", Min: 0.5, Max: 1.0, Default: 0.8},
			// World response
			{Name: "stride_gain", Path: "world.stride_gain", Min: 0.02, Max: 0.3, Default: 0.12},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		val := v[i]
		if val < spec.Min {
			val = spec.Min
		}
		if val > spec.Max {
			val = spec.Max
		}
		clamped[i] = val
	}
	return clamped
}

// ApplyToConfig applies parameter values to a Config struct.
// Order must match Specs order.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	clamped := pv.Clamp(values)

	i := 0
	cfg.Control.Frequency = clamped[i]
	i++
	cfg.Control.MotorStrength = clamped[i]
	i++

	// crossover_fraction may not exceed reap_fraction
	cf := clamped[i]
	if cf > cfg.Evolution.ReapFraction {
		cf = cfg.Evolution.ReapFraction
	}
	cfg.Evolution.CrossoverFraction = cf
	i++
	cfg.Evolution.MutationRate = clamped[i]
	i++
	cfg.Evolution.EliteParentBias = clamped[i]
	i++

	cfg.World.StrideGain = clamped[i]
}

// ExtractFromConfig extracts current parameter values from a Config struct.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	return []float64{
		cfg.Control.Frequency,
		cfg.Control.MotorStrength,
		cfg.Evolution.CrossoverFraction,
		cfg.Evolution.MutationRate,
		cfg.Evolution.EliteParentBias,
		cfg.World.StrideGain,
	}
}
