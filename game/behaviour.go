package game

import (
	"log/slog"
	"time"

	"github.com/pthm-cable/phage/components"
	"github.com/pthm-cable/phage/grid"
	"github.com/pthm-cable/phage/telemetry"
)

// updateBehaviours runs the per-kind logic of every unit.
func (g *Game) updateBehaviours(dt time.Duration) {
	sec := dt.Seconds()
	for _, id := range g.units.ids() {
		cell, mover, _, ok := g.units.get(id)
		if !ok {
			continue
		}
		kc := g.cfg.Kind(cell.Kind)

		switch cell.Kind {
		case components.KindMacrophage:
			if g.units.orders[id] != nil || mover.InTransit() {
				continue
			}
			g.eatVirus(mover.Tile, kc.EatRate*sec)

		case components.KindCivilian:
			virus := g.grid.Tile(mover.Tile).Concentration(grid.Virus).Balance()
			if virus > 0 {
				cell.Infection = min(cell.Infection+kc.InfectionRate*virus*sec, 1)
			}
			// Conversion waits for the unit to land so the infected cell
			// never freezes between two tiles.
			if cell.Infection >= 1 && !mover.InTransit() {
				g.infect(id, cell, mover)
			}

		case components.KindInfected:
			if cell.Spawn.Update(dt) {
				g.grid.Tile(mover.Tile).Concentration(grid.Virus).TryDeposit(kc.SpawnAmount)
				g.collector.Record(telemetry.EventSpawn)
			}
		}
	}
}

// eatVirus withdraws up to amount of virus from tile c and each floor tile
// around it.
func (g *Game) eatVirus(c grid.Coord, amount float64) {
	if amount <= 0 {
		return
	}
	g.grid.Tile(c).Concentration(grid.Virus).TryWithdraw(amount)
	for _, n := range g.grid.Neighbors(c, true, grid.Floor) {
		g.grid.Tile(n).Concentration(grid.Virus).TryWithdraw(amount)
	}
}

// infect turns a civilian into an infected cell in place.
func (g *Game) infect(id grid.UnitID, cell *components.Cell, mover *components.Mover) {
	if o := g.units.orders[id]; o != nil {
		o.Cancel()
		delete(g.units.orders, id)
	}
	mover.DropUncommitted()

	kc := g.cfg.Kind(components.KindInfected)
	cell.Kind = components.KindInfected
	cell.Infection = 1
	cell.Selected = false
	cell.Spawn = components.NewTimer(kc.SpawnPeriod)
	mover.Speed = kc.Speed

	g.collector.Record(telemetry.EventInfection)
	g.visDirty = true
	slog.Debug("unit infected", "event", telemetry.Event{
		Type: telemetry.EventInfection,
		Tick: g.tick,
		Unit: id,
		Kind: components.KindCivilian,
		At:   mover.Tile,
	})
}
