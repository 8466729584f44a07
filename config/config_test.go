package config

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load with defaults failed: %v", err)
	}

	if cfg.Population.Size != 50 {
		t.Errorf("expected population size 50, got %d", cfg.Population.Size)
	}
	if cfg.Population.ParallelEvaluations != 10 {
		t.Errorf("expected 10 parallel evaluations, got %d", cfg.Population.ParallelEvaluations)
	}
	if cfg.Evaluation.Duration != 10.0 {
		t.Errorf("expected evaluation duration 10s, got %g", cfg.Evaluation.Duration)
	}
	if cfg.Control.Frequency != 3.0 {
		t.Errorf("expected control frequency 3Hz, got %g", cfg.Control.Frequency)
	}
}

func TestDerivedCounts(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// Hexapod: 1 root + 12 leg segments, 12 hinges.
	if got := cfg.Walker.BodyParts(); got != 13 {
		t.Errorf("expected 13 body parts, got %d", got)
	}
	if got := cfg.Walker.Joints(); got != 12 {
		t.Errorf("expected 12 joints, got %d", got)
	}

	period := cfg.Control.ControlPeriod()
	if period < 0.333 || period > 0.334 {
		t.Errorf("expected control period ~1/3s, got %g", period)
	}
}

func TestValidateRejectsBadConfig(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantSub string
	}{
		{
			name:    "zero parallelism",
			mutate:  func(c *Config) { c.Population.ParallelEvaluations = 0 },
			wantSub: "parallel_evaluations",
		},
		{
			name:    "tiny population",
			mutate:  func(c *Config) { c.Population.Size = 1 },
			wantSub: "population.size",
		},
		{
			name:    "fractions not summing",
			mutate:  func(c *Config) { c.Evolution.ReapFraction = 0.5 },
			wantSub: "sum to 1",
		},
		{
			name: "crossover exceeds reap",
			mutate: func(c *Config) {
				c.Evolution.CrossoverFraction = 0.4
			},
			wantSub: "crossover_fraction",
		},
		{
			name:    "negative duration",
			mutate:  func(c *Config) { c.Evaluation.Duration = -1 },
			wantSub: "duration",
		},
		{
			name:    "rate out of range",
			mutate:  func(c *Config) { c.Evolution.MutationRate = 1.5 },
			wantSub: "mutation_rate",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := Load("")
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			tc.mutate(cfg)
			err = cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tc.wantSub) {
				t.Errorf("error %q does not mention %q", err.Error(), tc.wantSub)
			}
		})
	}
}

func TestLoadMergesUserFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "override.yaml")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	cfg.Population.Size = 12
	cfg.Population.ParallelEvaluations = 3
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load with user file failed: %v", err)
	}
	if loaded.Population.Size != 12 {
		t.Errorf("expected overridden size 12, got %d", loaded.Population.Size)
	}
	if loaded.Population.ParallelEvaluations != 3 {
		t.Errorf("expected overridden parallelism 3, got %d", loaded.Population.ParallelEvaluations)
	}
	// Untouched sections keep defaults.
	if loaded.Walker.Legs != 6 {
		t.Errorf("expected default legs 6, got %d", loaded.Walker.Legs)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}
