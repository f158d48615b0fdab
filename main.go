package main

import (
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/pthm-cable/formic/config"
	"github.com/pthm-cable/formic/sim"
	"github.com/pthm-cable/formic/telemetry"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	seed := flag.Int64("seed", 0, "World and run seed (0 = time-based)")
	ticks := flag.Int("ticks", 1000, "Number of ticks to run")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	logStats := flag.Bool("log-stats", true, "Log window stats via slog")
	logEvents := flag.Bool("log-events", false, "Write per-agent events to events.csv (needs -output-dir)")

	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	runSeed := *seed
	if runSeed == 0 {
		runSeed = time.Now().UnixNano()
	}

	output, err := telemetry.NewOutputManager(*outputDir)
	if err != nil {
		slog.Error("failed to set up output", "error", err)
		os.Exit(1)
	}
	defer output.Close()

	if output != nil {
		if err := cfg.WriteYAML(filepath.Join(output.Dir(), "config.yaml")); err != nil {
			slog.Error("failed to snapshot config", "error", err)
			os.Exit(1)
		}
	}

	s, err := sim.New(cfg, runSeed)
	if err != nil {
		slog.Error("failed to build simulation", "error", err)
		os.Exit(1)
	}

	slog.Info("run starting",
		"seed", runSeed,
		"ticks", *ticks,
		"world", cfg.World,
		"workers", cfg.Colony.Workers,
		"queens", cfg.Colony.Queens,
	)

	for i := 0; i < *ticks; i++ {
		report := s.Tick()

		if *logEvents {
			if err := output.WriteEvents(report.Agents); err != nil {
				slog.Error("failed to write events", "error", err)
				os.Exit(1)
			}
		}

		if s.Collector().ShouldFlush(s.CurrentTick()) {
			stats := s.FlushStats()
			if *logStats {
				stats.LogStats()
			}
			if err := output.WriteStats(stats); err != nil {
				slog.Error("failed to write stats", "error", err)
				os.Exit(1)
			}
		}
	}

	final := s.FlushStats()
	if *logStats {
		final.LogStats()
	}
	if err := output.WriteStats(final); err != nil {
		slog.Error("failed to write stats", "error", err)
		os.Exit(1)
	}

	workers, queens, brood := s.Population()
	slog.Info("run complete",
		"ticks", s.CurrentTick(),
		"workers", workers,
		"queens", queens,
		"brood", brood,
		"food_on_grid", s.Grid().TotalFood(),
	)
}
