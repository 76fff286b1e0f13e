package game

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/pthm-cable/phage/grid"
	"github.com/pthm-cable/phage/level"
	"github.com/pthm-cable/phage/systems"
	"github.com/pthm-cable/phage/telemetry"
)

// flushTelemetry checks if the stats window should be flushed and handles bookmarks.
func (g *Game) flushTelemetry() {
	if !g.collector.ShouldFlush(g.tick) {
		return
	}

	stats := g.collector.Flush(g.tick, g.sampleWorld())
	perfStats := g.perfCollector.Stats()

	// Log stats if enabled (console output)
	if g.logStats {
		stats.LogStats()
		perfStats.LogStats()
		slog.Info("diffusion", "report", g.dispersion)
	}
	g.dispersion = systems.DispersionReport{}

	// Write to CSV if output manager is enabled
	if g.outputManager != nil {
		if err := g.outputManager.WriteTelemetry(stats); err != nil {
			slog.Error("failed to write telemetry", "error", err)
		}
		if err := g.outputManager.WritePerf(perfStats, stats.WindowEndTick); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
	}

	// Check for bookmarks
	for _, bm := range g.bookmarkDetector.Check(stats) {
		if g.logStats {
			bm.LogBookmark()
		}
		if g.outputManager != nil {
			if err := g.outputManager.WriteBookmark(bm); err != nil {
				slog.Error("failed to write bookmark", "error", err)
			}
		}
		if g.snapshotDir != "" {
			g.saveSnapshot(bm)
		}
	}
}

// sampleWorld gathers the end-of-window state.
func (g *Game) sampleWorld() telemetry.WorldSample {
	ps := g.pathfinder.Stats()
	w := telemetry.WorldSample{
		Units:         g.CountKinds(),
		Orders:        len(g.units.orders),
		VirusTotal:    g.grid.Total(grid.Virus),
		AntibodyTotal: g.grid.Total(grid.Antibody),
		PathSearches:  ps.Searches,
		PathFailures:  ps.Failures,
	}
	g.grid.ForEach(func(t *grid.Tile) {
		if !t.IsFloor() {
			return
		}
		w.FloorTiles++
		if t.Visibility() == grid.Visible {
			w.VisibleTiles++
		}
		if b := t.Concentration(grid.Virus).Balance(); b > 0 {
			w.VirusBalances = append(w.VirusBalances, b)
		}
	})
	return w
}

// saveSnapshot writes the running level next to the other bookmark output.
func (g *Game) saveSnapshot(bm telemetry.Bookmark) {
	path := filepath.Join(g.snapshotDir, fmt.Sprintf("tick_%d_%s.lvl", bm.Tick, bm.Type))
	if err := level.Save(path, g.Capture()); err != nil {
		slog.Error("failed to save snapshot", "error", err)
		return
	}
	slog.Info("snapshot saved", "path", path, "tick", g.tick)
}
