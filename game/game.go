// Package game runs the tile-grid simulation: units, orders, substances and
// fog on one grid, advanced in fixed phases by Update.
package game

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/pthm-cable/phage/config"
	"github.com/pthm-cable/phage/grid"
	"github.com/pthm-cable/phage/level"
	"github.com/pthm-cable/phage/levelgen"
	"github.com/pthm-cable/phage/systems"
	"github.com/pthm-cable/phage/telemetry"
)

// DefaultAppName names the per-user data directory used for save slots.
const DefaultAppName = "phage"

// Options holds runtime options for game initialization.
type Options struct {
	Seed           int64
	LogStats       bool    // log window stats via slog
	StatsWindowSec float64 // 0 = use config
	SnapshotDir    string  // save a level snapshot on each bookmark
	OutputDir      string  // CSV telemetry; empty disables
	AppName        string  // save slot namespace; empty = DefaultAppName
}

// Game holds the complete simulation state.
type Game struct {
	cfg *config.Config
	rng *rand.Rand

	grid       *grid.Grid
	units      *unitStore
	diffusion  *systems.DiffusionField
	visibility *systems.VisibilityEngine
	pathfinder *systems.Pathfinder
	moveParams systems.MoveParams

	// Visibility is recomputed at the end of a tick that marked it dirty or
	// changed the grid's terrain.
	visDirty     bool
	visRevision  uint64
	visibleTiles int

	// State
	tick int32

	// Telemetry
	collector        *telemetry.Collector
	perfCollector    *telemetry.PerfCollector
	outputManager    *telemetry.OutputManager
	bookmarkDetector *telemetry.BookmarkDetector
	dispersion       systems.DispersionReport // accumulated over the window
	logStats         bool
	snapshotDir      string

	appName string
	store   *level.Store
}

// New creates a game on an empty all-floor grid of the configured size.
func New(cfg *config.Config, opts Options) (*Game, error) {
	pathOpts, err := systems.PathOptionsFromConfig(cfg.Pathfinding)
	if err != nil {
		return nil, err
	}

	statsWindow := cfg.Telemetry.StatsWindow
	if opts.StatsWindowSec > 0 {
		statsWindow = opts.StatsWindowSec
	}
	appName := opts.AppName
	if appName == "" {
		appName = DefaultAppName
	}

	g := &Game{
		cfg:              cfg,
		rng:              rand.New(rand.NewSource(opts.Seed)),
		moveParams:       systems.MoveParamsFromConfig(cfg),
		collector:        telemetry.NewCollector(statsWindow, cfg.Sim.DT),
		perfCollector:    telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow),
		bookmarkDetector: telemetry.NewBookmarkDetector(10),
		logStats:         opts.LogStats,
		snapshotDir:      opts.SnapshotDir,
		appName:          appName,
	}

	g.grid = grid.New(cfg.Grid.Cols, cfg.Grid.Rows)
	g.units = newUnitStore()
	g.diffusion = systems.NewDiffusionField(g.grid, cfg.Diffusion, g.rng.Int63())
	g.visibility = systems.NewVisibilityEngine(g.grid)
	g.pathfinder = systems.NewPathfinder(g.grid, pathOpts)
	g.visDirty = true

	if opts.OutputDir != "" {
		om, err := telemetry.NewOutputManager(opts.OutputDir)
		if err != nil {
			return nil, err
		}
		if err := om.WriteConfig(cfg); err != nil {
			om.Close()
			return nil, err
		}
		g.outputManager = om
	}

	return g, nil
}

// Close flushes and closes telemetry output.
func (g *Game) Close() error {
	return g.outputManager.Close()
}

// Config returns the configuration the game runs with.
func (g *Game) Config() *config.Config { return g.cfg }

// Grid returns the live grid. It is replaced wholesale when a level loads.
func (g *Game) Grid() *grid.Grid { return g.grid }

// Tick returns the number of completed updates.
func (g *Game) Tick() int32 { return g.tick }

// Pathfinder returns the pathfinder bound to the live grid.
func (g *Game) Pathfinder() *systems.Pathfinder { return g.pathfinder }

// VisibleTiles returns the visible tile count from the last recompute.
func (g *Game) VisibleTiles() int { return g.visibleTiles }

// Collector returns the telemetry collector.
func (g *Game) Collector() *telemetry.Collector { return g.collector }

// Update advances the simulation by dt. Phases run in a fixed order:
// kind behaviours, movement, diffusion, visibility, telemetry.
func (g *Game) Update(dt time.Duration) {
	g.perfCollector.StartTick()

	g.perfCollector.StartPhase(telemetry.PhaseBehaviour)
	g.updateBehaviours(dt)

	g.perfCollector.StartPhase(telemetry.PhaseMovement)
	g.updateMovement(dt)

	g.perfCollector.StartPhase(telemetry.PhaseDiffusion)
	rep := g.diffusion.Update(dt)
	g.dispersion.Add(rep)

	g.perfCollector.StartPhase(telemetry.PhaseVisibility)
	g.updateVisibility()

	g.tick++

	g.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	g.flushTelemetry()

	g.perfCollector.EndTick()
}

// updateVisibility recomputes fog from every unit with a sight radius.
func (g *Game) updateVisibility() {
	if !g.visDirty && g.visRevision == g.grid.Revision() {
		return
	}
	g.visibleTiles = g.visibility.Recompute(g.flares())
	g.visDirty = false
	g.visRevision = g.grid.Revision()
}

func (g *Game) flares() []systems.Flare {
	var flares []systems.Flare
	query := g.units.filter.Query()
	for query.Next() {
		cell, mover, _ := query.Get()
		r := g.cfg.Kind(cell.Kind).SightRadius
		if r <= 0 {
			continue
		}
		flares = append(flares, systems.Flare{Center: mover.Tile, Radius: r})
	}
	return flares
}

// Generate replaces the running level with a procedural one.
func (g *Game) Generate(seed int64) error {
	if err := g.install(levelgen.Generate(g.cfg, seed)); err != nil {
		return fmt.Errorf("generated level: %w", err)
	}
	slog.Info("level generated", "seed", seed, "cols", g.grid.Cols(), "rows", g.grid.Rows(), "units", g.units.count())
	return nil
}
