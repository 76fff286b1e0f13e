package game

import (
	"fmt"
	"log/slog"

	"github.com/pthm-cable/phage/grid"
	"github.com/pthm-cable/phage/level"
	"github.com/pthm-cable/phage/systems"
)

// LoadLevel replaces the running level with the file at path. Nothing
// changes unless the whole file decodes, validates and builds.
func (g *Game) LoadLevel(path string) error {
	l, err := level.Load(path)
	if err != nil {
		return err
	}
	if err := g.install(l); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	slog.Info("level loaded", "path", path, "cols", g.grid.Cols(), "rows", g.grid.Rows(), "units", g.units.count())
	return nil
}

// SaveLevel writes the running level to path. The codec follows the file
// extension.
func (g *Game) SaveLevel(path string) error {
	if err := level.Save(path, g.Capture()); err != nil {
		return err
	}
	slog.Info("level saved", "path", path, "tick", g.tick)
	return nil
}

// LoadSlot replaces the running level with save slot name.
func (g *Game) LoadSlot(name string) error {
	store, err := g.slots()
	if err != nil {
		return err
	}
	l, err := store.Load(name)
	if err != nil {
		return err
	}
	if err := g.install(l); err != nil {
		return fmt.Errorf("slot %q: %w", name, err)
	}
	slog.Info("slot loaded", "slot", name, "units", g.units.count())
	return nil
}

// SaveSlot writes the running level to save slot name.
func (g *Game) SaveSlot(name string) error {
	store, err := g.slots()
	if err != nil {
		return err
	}
	if err := store.Save(name, g.Capture()); err != nil {
		return err
	}
	slog.Info("slot saved", "slot", name, "tick", g.tick)
	return nil
}

// slots opens the save slot store on first use.
func (g *Game) slots() (*level.Store, error) {
	if g.store != nil {
		return g.store, nil
	}
	store, err := level.OpenStore(g.appName)
	if err != nil {
		return nil, err
	}
	g.store = store
	return store, nil
}

// Capture snapshots the running level. A unit in transit is recorded on the
// tile it is entering, and active orders keep their destination.
func (g *Game) Capture() *level.Level {
	var units []level.Placement
	for _, id := range g.units.ids() {
		cell, mover, _, ok := g.units.get(id)
		if !ok {
			continue
		}
		p := level.Placement{
			Tile:      mover.PlanFrom(),
			Kind:      cell.Kind,
			Infection: cell.Infection,
		}
		if o := g.units.orders[id]; o != nil {
			dest := o.Destination()
			p.Order = &dest
		}
		units = append(units, p)
	}
	return level.Capture(g.grid, units)
}

// install builds a complete new grid, unit world and engine set from l and
// swaps them in only after every step succeeded.
func (g *Game) install(l *level.Level) error {
	grd, placements, err := l.Build(g.cfg.Derived.KindByID)
	if err != nil {
		return err
	}

	units := newUnitStore()
	pathfinder := systems.NewPathfinder(grd, g.pathfinder.Options())
	nav := systems.Navigation{Grid: grd, Planner: pathfinder}

	type pendingOrder struct {
		id   grid.UnitID
		dest grid.Coord
	}
	var orders []pendingOrder
	for _, p := range placements {
		id, ok := units.spawn(grd, g.cfg, p.Kind, p.Tile)
		if !ok {
			return fmt.Errorf("placing %s at (%d,%d): %w", p.Kind, p.Tile.Col, p.Tile.Row, level.ErrInvalid)
		}
		cell, mover, _, _ := units.get(id)
		cell.Infection = p.Infection
		if p.Order != nil && mover.Speed > 0 {
			orders = append(orders, pendingOrder{id: id, dest: *p.Order})
		}
	}
	// Orders plan once every unit stands on its tile.
	for _, po := range orders {
		_, mover, _, _ := units.get(po.id)
		units.orders[po.id] = systems.NewMoveOrder(po.id, mover, po.dest, nav, g.moveParams)
	}

	g.grid = grd
	g.units = units
	g.pathfinder = pathfinder
	g.diffusion = systems.NewDiffusionField(grd, g.cfg.Diffusion, g.rng.Int63())
	g.visibility.Reset(grd)
	g.visDirty = true
	g.visRevision = grd.Revision()
	g.visibleTiles = 0
	g.collector.Rebase(0, 0)
	return nil
}
