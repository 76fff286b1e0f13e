package game

import (
	"log/slog"

	"github.com/pthm-cable/phage/grid"
	"github.com/pthm-cable/phage/telemetry"
)

// BrushTerrain sets the terrain of every tile in r, clipped to the grid, and
// returns how many tiles changed. Units on tiles turned to wall are crushed:
// a present unit is destroyed, an inbound unit goes back to the tile it came
// from if that is still free and is destroyed otherwise.
func (g *Game) BrushTerrain(r grid.Rect, t grid.Terrain) int {
	view, ok := g.grid.SubGrid(r)
	if !ok {
		return 0
	}
	changed := 0
	for _, c := range view.Coords() {
		if g.grid.Tile(c).Terrain() == t {
			continue
		}
		ev, _ := g.grid.SetTerrain(c, t)
		changed++
		if ev.Present != grid.NoUnit {
			g.crush(ev.Present, c)
		}
		if ev.Pending != grid.NoUnit {
			g.evictPending(ev.Pending, c)
		}
	}
	if changed > 0 {
		g.visDirty = true
	}
	return changed
}

func (g *Game) crush(id grid.UnitID, at grid.Coord) {
	slog.Debug("unit crushed", "unit", id, "col", at.Col, "row", at.Row)
	g.destroyUnit(id, telemetry.EventCrush)
}

func (g *Game) evictPending(id grid.UnitID, at grid.Coord) {
	_, mover, pos, ok := g.units.get(id)
	if !ok {
		return
	}
	if g.bounce(id, mover, pos) {
		slog.Debug("unit bounced", "unit", id, "col", mover.Tile.Col, "row", mover.Tile.Row)
		return
	}
	g.crush(id, at)
}

// BrushConcentration adds amount of substance s to every floor tile in r.
// A negative amount erases. Balances stay within [0,1].
func (g *Game) BrushConcentration(r grid.Rect, s grid.Substance, amount float64) {
	view, ok := g.grid.SubGrid(r)
	if !ok || amount == 0 {
		return
	}
	view.Each(func(t *grid.Tile) {
		if !t.IsFloor() {
			return
		}
		conc := t.Concentration(s)
		if amount > 0 {
			conc.TryDeposit(amount)
		} else {
			conc.TryWithdraw(-amount)
		}
	})
}

// Paint deposits the configured paint amount of s on tile c.
func (g *Game) Paint(c grid.Coord, s grid.Substance) {
	g.BrushConcentration(grid.Rect{Col: c.Col, Row: c.Row, Cols: 1, Rows: 1}, s, g.cfg.Diffusion.PaintAmount)
}
