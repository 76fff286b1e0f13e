package main

import (
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/pthm-cable/phage/components"
	"github.com/pthm-cable/phage/config"
	"github.com/pthm-cable/phage/devtools"
	"github.com/pthm-cable/phage/game"
	"github.com/pthm-cable/phage/grid"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	levelPath := flag.String("level", "", "Level file to load (.json or msgpack); empty = generate")
	slot := flag.String("slot", "", "Save slot to load instead of a level file")
	seed := flag.Int64("seed", 0, "RNG seed (0 = config, then time-based)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	snapshotDir := flag.String("snapshot-dir", "", "Directory for level snapshots taken on bookmarks")
	statsWindow := flag.Float64("stats-window", 0, "Stats window size in seconds (0 = use config)")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	logText := flag.Bool("log-text", false, "Human-readable log output instead of JSON")
	debug := flag.Bool("debug", false, "Log unit events at debug level")
	savePath := flag.String("save", "", "Write the final level to this file")
	saveSlot := flag.String("save-slot", "", "Write the final level to this save slot")
	dump := flag.Bool("dump", false, "Print an ASCII map of the final state")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	handlerOpts := &slog.HandlerOptions{}
	if *debug {
		handlerOpts.Level = slog.LevelDebug
	}
	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, handlerOpts)
	if *logText {
		handler = slog.NewTextHandler(os.Stdout, handlerOpts)
	}
	slog.SetDefault(slog.New(handler))

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = cfg.Sim.Seed
	}
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	g, err := game.New(cfg, game.Options{
		Seed:           rngSeed,
		LogStats:       *logStats,
		StatsWindowSec: *statsWindow,
		SnapshotDir:    *snapshotDir,
		OutputDir:      *outputDir,
	})
	if err != nil {
		slog.Error("failed to create game", "error", err)
		os.Exit(1)
	}
	defer g.Close()

	switch {
	case *levelPath != "":
		err = g.LoadLevel(*levelPath)
	case *slot != "":
		err = g.LoadSlot(*slot)
	default:
		err = g.Generate(rngSeed)
	}
	if err != nil {
		slog.Error("failed to load level", "error", err)
		os.Exit(1)
	}

	slog.Info("starting headless simulation",
		"seed", rngSeed,
		"max_ticks", *maxTicks,
		"units", g.UnitCount(),
	)

	start := time.Now()
	dt := cfg.Derived.DT
	for *maxTicks <= 0 || int(g.Tick()) < *maxTicks {
		g.Update(dt)
	}
	slog.Info("max ticks reached",
		"tick", g.Tick(),
		"wall_time", time.Since(start).Round(time.Millisecond).String(),
		"units", g.CountKinds(),
		"path", g.Pathfinder().Stats(),
	)

	if *savePath != "" {
		if err := g.SaveLevel(*savePath); err != nil {
			slog.Error("failed to save level", "error", err)
			os.Exit(1)
		}
	}
	if *saveSlot != "" {
		if err := g.SaveSlot(*saveSlot); err != nil {
			slog.Error("failed to save slot", "error", err)
			os.Exit(1)
		}
	}

	if *dump {
		opts := devtools.StdoutOptions()
		opts.Fog = false
		opts.Kind = func(id grid.UnitID) (components.Kind, bool) {
			cell, _, ok := g.Unit(id)
			return cell.Kind, ok
		}
		if err := devtools.DumpMap(os.Stdout, g.Grid(), opts); err != nil {
			slog.Error("failed to dump map", "error", err)
		}
	}
}
