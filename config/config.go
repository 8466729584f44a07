// Package config provides configuration loading and validation for the
// walker evolution engine.
package config

import (
	_ "embed"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all engine configuration parameters.
type Config struct {
	Population PopulationConfig `yaml:"population"`
	Evaluation EvaluationConfig `yaml:"evaluation"`
	Control    ControlConfig    `yaml:"control"`
	Evolution  EvolutionConfig  `yaml:"evolution"`
	Walker     WalkerConfig     `yaml:"walker"`
	World      WorldConfig      `yaml:"world"`
}

// PopulationConfig holds population sizing parameters.
type PopulationConfig struct {
	Size                int `yaml:"size"`                 // Number of walker slots, fixed for the run
	ParallelEvaluations int `yaml:"parallel_evaluations"` // Admission bound on concurrently evaluated walkers
}

// EvaluationConfig holds per-evaluation timing parameters.
type EvaluationConfig struct {
	Duration     float64 `yaml:"duration"`       // Seconds each walker is evaluated
	MaxStepDelta float64 `yaml:"max_step_delta"` // Per-step dt clamp, bounds controller overshoot on hitches
}

// ControlConfig holds controller parameters.
type ControlConfig struct {
	Frequency     float64 `yaml:"frequency"`      // Controller update rate in Hz
	MotorStrength float64 `yaml:"motor_strength"` // Max motor force handed to the physics world
}

// EvolutionConfig holds rank/reap/sow parameters.
// EliteFraction + MutationFraction + ReapFraction must sum to 1.
type EvolutionConfig struct {
	ReapFraction      float64 `yaml:"reap_fraction"`      // Worst fraction replaced each generation
	CrossoverFraction float64 `yaml:"crossover_fraction"` // Fraction of reaped slots refilled by crossover
	EliteFraction     float64 `yaml:"elite_fraction"`     // Top fraction never touched
	MutationFraction  float64 `yaml:"mutation_fraction"`  // Middle band receiving ramped per-weight mutation
	MutationRate      float64 `yaml:"mutation_rate"`      // Mutation rate at the far end of the band
	EliteParentBias   float64 `yaml:"elite_parent_bias"`  // Probability the crossover father is elite
}

// WalkerConfig holds the walker body plan dimensions.
type WalkerConfig struct {
	Legs           int     `yaml:"legs"`
	RootBodyRadius float64 `yaml:"root_body_radius"`
	RootBodyHeight float64 `yaml:"root_body_height"`
	LegRadius      float64 `yaml:"leg_radius"`
	LegLength      float64 `yaml:"leg_length"`
	ForeLegRadius  float64 `yaml:"fore_leg_radius"`
	ForeLegLength  float64 `yaml:"fore_leg_length"`
}

// WorldConfig holds parameters of the kinematic reference world.
type WorldConfig struct {
	Seed             int64   `yaml:"seed"`
	TerrainScale     float64 `yaml:"terrain_scale"`     // Noise frequency of the ground height field
	TerrainAmplitude float64 `yaml:"terrain_amplitude"` // Height variation of the ground
	StrideGain       float64 `yaml:"stride_gain"`       // Displacement per radian of grounded joint travel
}

// BodyParts returns the number of body segments: one root plus two per leg.
func (w WalkerConfig) BodyParts() int {
	return 2*w.Legs + 1
}

// Joints returns the number of hinge joints: one hip and one knee per leg.
func (w WalkerConfig) Joints() int {
	return 2 * w.Legs
}

// ControlPeriod returns the seconds between controller updates.
func (c ControlConfig) ControlPeriod() float64 {
	return 1.0 / c.Frequency
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration invariants. Malformed configuration is
// the only fatal condition in the engine, so it fails here, at startup.
func (c *Config) Validate() error {
	if c.Population.Size < 2 {
		return fmt.Errorf("population.size must be at least 2, got %d", c.Population.Size)
	}
	if c.Population.ParallelEvaluations < 1 {
		return fmt.Errorf("population.parallel_evaluations must be at least 1, got %d", c.Population.ParallelEvaluations)
	}
	if c.Evaluation.Duration <= 0 {
		return fmt.Errorf("evaluation.duration must be positive, got %g", c.Evaluation.Duration)
	}
	if c.Evaluation.MaxStepDelta <= 0 {
		return fmt.Errorf("evaluation.max_step_delta must be positive, got %g", c.Evaluation.MaxStepDelta)
	}
	if c.Control.Frequency <= 0 {
		return fmt.Errorf("control.frequency must be positive, got %g", c.Control.Frequency)
	}

	ev := c.Evolution
	fractions := []struct {
		name  string
		value float64
	}{
		{"reap_fraction", ev.ReapFraction},
		{"crossover_fraction", ev.CrossoverFraction},
		{"elite_fraction", ev.EliteFraction},
		{"mutation_fraction", ev.MutationFraction},
		{"mutation_rate", ev.MutationRate},
		{"elite_parent_bias", ev.EliteParentBias},
	}
	for _, f := range fractions {
		if f.value < 0 || f.value > 1 {
			return fmt.Errorf("evolution.%s must be in [0,1], got %g", f.name, f.value)
		}
	}
	if sum := ev.EliteFraction + ev.MutationFraction + ev.ReapFraction; math.Abs(sum-1) > 1e-9 {
		return fmt.Errorf("evolution fractions elite+mutation+reap must sum to 1, got %g", sum)
	}
	if ev.CrossoverFraction > ev.ReapFraction {
		return fmt.Errorf("evolution.crossover_fraction (%g) cannot exceed reap_fraction (%g)",
			ev.CrossoverFraction, ev.ReapFraction)
	}

	if c.Walker.Legs < 1 {
		return fmt.Errorf("walker.legs must be at least 1, got %d", c.Walker.Legs)
	}

	return nil
}

// WriteYAML writes the configuration to a YAML file for run provenance.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
