package game

import (
	"github.com/pthm-cable/phage/grid"
)

// Select replaces the selection with the player-controlled units standing
// in r and returns how many were selected.
func (g *Game) Select(r grid.Rect) int {
	n := 0
	query := g.units.filter.Query()
	for query.Next() {
		cell, mover, _ := query.Get()
		cell.Selected = g.cfg.Kind(cell.Kind).PlayerControlled && r.Contains(mover.Tile)
		if cell.Selected {
			n++
		}
	}
	return n
}

// ClearSelection deselects every unit.
func (g *Game) ClearSelection() {
	g.Select(grid.Rect{})
}

// Selected returns the selected unit ids in ascending order.
func (g *Game) Selected() []grid.UnitID {
	var ids []grid.UnitID
	for _, id := range g.units.ids() {
		if cell, _, _, ok := g.units.get(id); ok && cell.Selected {
			ids = append(ids, id)
		}
	}
	return ids
}

// CommandMove orders every selected unit toward dest and returns the number
// of orders issued.
func (g *Game) CommandMove(dest grid.Coord) int {
	n := 0
	for _, id := range g.Selected() {
		if g.Command(id, dest) {
			n++
		}
	}
	return n
}
