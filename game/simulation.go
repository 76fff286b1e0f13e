package game

import (
	"log/slog"
	"time"

	"github.com/pthm-cable/phage/components"
	"github.com/pthm-cable/phage/grid"
	"github.com/pthm-cable/phage/systems"
	"github.com/pthm-cable/phage/telemetry"
)

// updateMovement steps every active order in unit id order, then carries
// order-less units through any hop they had already committed to.
func (g *Game) updateMovement(dt time.Duration) {
	for _, id := range g.units.orderIDs() {
		o := g.units.orders[id]
		cell, mover, pos, ok := g.units.get(id)
		if !ok {
			delete(g.units.orders, id)
			continue
		}

		hops := o.Hops
		state := o.Update(dt, mover, pos)
		g.recordHops(o.Hops - hops)

		switch state {
		case systems.OrderBlocked:
			g.collector.Record(telemetry.EventBlocked)
		case systems.OrderArrived:
			g.collector.Record(telemetry.EventArrival)
			delete(g.units.orders, id)
		case systems.OrderCancelled:
			g.collector.Record(telemetry.EventCancel)
			delete(g.units.orders, id)
			slog.Debug("order cancelled", "event", telemetry.Event{
				Type: telemetry.EventCancel,
				Tick: g.tick,
				Unit: id,
				Kind: cell.Kind,
				At:   mover.Tile,
			}, "destination", o.Destination(), "blocked_ticks", o.BlockedTicks)
		}
	}

	tileSize := g.moveParams.TileSize
	query := g.units.filter.Query()
	for query.Next() {
		cell, mover, pos := query.Get()
		if _, ok := g.units.orders[cell.ID]; ok {
			continue
		}
		mover.DropUncommitted()
		if systems.AdvanceTransit(dt, cell.ID, mover, pos, g.grid, tileSize) {
			g.recordHops(1)
		}
	}
}

func (g *Game) recordHops(n int) {
	for range n {
		g.collector.Record(telemetry.EventHop)
	}
	if n > 0 {
		g.visDirty = true
	}
}

// Command issues a move order for unit id toward dest, replacing any order
// it had. A committed hop in flight is finished first. It reports false for
// unknown units, immobile kinds and out-of-bounds destinations.
func (g *Game) Command(id grid.UnitID, dest grid.Coord) bool {
	_, mover, _, ok := g.units.get(id)
	if !ok || mover.Speed <= 0 || !g.grid.Valid(dest) {
		return false
	}
	g.units.orders[id] = systems.NewMoveOrder(id, mover, dest, g.navigation(), g.moveParams)
	return true
}

// Order returns the active order of unit id, or nil.
func (g *Game) Order(id grid.UnitID) *systems.MoveOrder {
	return g.units.orders[id]
}

// OrderCount returns the number of active orders.
func (g *Game) OrderCount() int {
	return len(g.units.orders)
}

func (g *Game) navigation() systems.Navigation {
	return systems.Navigation{Grid: g.grid, Planner: g.pathfinder}
}

// bounce returns a unit whose inbound tile was walled back to its source
// tile. It reports false if the source was taken in the meantime.
func (g *Game) bounce(id grid.UnitID, mover *components.Mover, pos *components.Position) bool {
	src := g.grid.Tile(mover.Tile)
	if src == nil || !src.Place(id) {
		return false
	}
	mover.HasNext = false
	mover.Committed = false
	mover.Progress = 0
	*pos = components.TileCenter(mover.Tile, g.moveParams.TileSize)
	if o := g.units.orders[id]; o != nil {
		o.Replan(mover)
	}
	return true
}
