// Package main runs the walker evolution engine headless: it steps the
// kinematic world at a fixed rate, evolves the population round by round,
// and writes per-generation telemetry.
package main

import (
	"flag"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"time"

	"github.com/pthm-cable/strider/config"
	"github.com/pthm-cable/strider/live"
	"github.com/pthm-cable/strider/sim"
	"github.com/pthm-cable/strider/telemetry"
	"github.com/pthm-cable/strider/world"
)

func main() {
	configPath := flag.String("config", "", "Config YAML file (empty = use defaults)")
	generations := flag.Int("generations", 100, "Number of generations to evolve")
	seed := flag.Int64("seed", 0, "RNG seed override (0 = use config)")
	stepDelta := flag.Float64("dt", 1.0/60.0, "Fixed physics step in seconds")
	outputDir := flag.String("output", "", "Output directory for run telemetry (empty = disabled)")
	listenAddr := flag.String("listen", "", "Listen address for the live websocket dashboard (empty = disabled)")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		slog.Error("invalid log level", "value", *logLevel)
		os.Exit(1)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("loading config", slog.Any("error", err))
		os.Exit(1)
	}
	if *seed != 0 {
		cfg.World.Seed = *seed
	}

	rng := rand.New(rand.NewSource(cfg.World.Seed))
	kw := world.NewKinematic(cfg.World)

	scheduler, err := sim.NewScheduler(cfg, kw, rng, logger)
	if err != nil {
		logger.Error("building scheduler", slog.Any("error", err))
		os.Exit(1)
	}

	out, err := telemetry.NewOutputManager(*outputDir)
	if err != nil {
		logger.Error("initializing output", slog.Any("error", err))
		os.Exit(1)
	}
	defer out.Close()
	if err := out.WriteConfig(cfg); err != nil {
		logger.Error("writing config provenance", slog.Any("error", err))
		os.Exit(1)
	}

	var hub *live.Hub
	if *listenAddr != "" {
		hub = live.NewHub(map[string]interface{}{
			"type":       "config",
			"population": cfg.Population.Size,
			"parallel":   cfg.Population.ParallelEvaluations,
			"legs":       cfg.Walker.Legs,
			"seed":       cfg.World.Seed,
		}, logger)
		defer hub.Close()
		http.HandleFunc("/ws", hub.Handler())
		go func() {
			logger.Info("live dashboard listening", slog.String("addr", *listenAddr))
			if err := http.ListenAndServe(*listenAddr, nil); err != nil {
				logger.Error("live dashboard stopped", slog.Any("error", err))
			}
		}()
	}

	done := false
	scheduler.OnGeneration(func(g sim.Generation) {
		stats := telemetry.NewGenerationStats(g)
		logger.Info("generation complete", slog.Any("stats", stats))
		if err := out.WriteGeneration(stats); err != nil {
			logger.Error("writing generation stats", slog.Any("error", err))
		}
		if hub != nil {
			hub.Broadcast(map[string]interface{}{"type": "generation", "stats": stats})
		}
		if g.Number+1 >= *generations {
			done = true
		}
	})

	logger.Info("starting run",
		slog.Int("population", cfg.Population.Size),
		slog.Int("parallel", cfg.Population.ParallelEvaluations),
		slog.Int("generations", *generations),
		slog.Int64("seed", cfg.World.Seed))

	start := time.Now()
	for !done {
		kw.Step(*stepDelta)
	}

	logger.Info("run complete",
		slog.Int("generations", scheduler.GenerationCount()),
		slog.Float64("sim_time", scheduler.SimTime()),
		slog.Duration("wall_time", time.Since(start)))
}
