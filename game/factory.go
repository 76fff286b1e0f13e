package game

import (
	"log/slog"
	"slices"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/phage/components"
	"github.com/pthm-cable/phage/config"
	"github.com/pthm-cable/phage/grid"
	"github.com/pthm-cable/phage/systems"
	"github.com/pthm-cable/phage/telemetry"
)

// unitStore is the ECS world of units plus the lookups the grid needs: tiles
// store unit ids, so ids map back to entities, and active orders are keyed by
// id as well.
type unitStore struct {
	world  *ecs.World
	mapper *ecs.Map3[components.Cell, components.Mover, components.Position]
	filter *ecs.Filter3[components.Cell, components.Mover, components.Position]

	byID   map[grid.UnitID]ecs.Entity
	orders map[grid.UnitID]*systems.MoveOrder
	nextID grid.UnitID
}

func newUnitStore() *unitStore {
	world := ecs.NewWorld()
	return &unitStore{
		world:  world,
		mapper: ecs.NewMap3[components.Cell, components.Mover, components.Position](world),
		filter: ecs.NewFilter3[components.Cell, components.Mover, components.Position](world),
		byID:   make(map[grid.UnitID]ecs.Entity),
		orders: make(map[grid.UnitID]*systems.MoveOrder),
		nextID: 1,
	}
}

// spawn places a new unit of kind k on tile c. It fails without side effects
// if the tile is not an empty floor tile.
func (s *unitStore) spawn(g *grid.Grid, cfg *config.Config, k components.Kind, c grid.Coord) (grid.UnitID, bool) {
	tile := g.Tile(c)
	if tile == nil || !tile.Place(s.nextID) {
		return grid.NoUnit, false
	}
	id := s.nextID
	s.nextID++

	kc := cfg.Kind(k)
	cell := components.Cell{
		ID:    id,
		Kind:  k,
		Spawn: components.NewTimer(kc.SpawnPeriod),
	}
	mover := components.Mover{Tile: c, Speed: kc.Speed}
	pos := components.TileCenter(c, float32(cfg.Grid.TileSize))

	s.byID[id] = s.mapper.NewEntity(&cell, &mover, &pos)
	return id, true
}

// get returns the components of unit id.
func (s *unitStore) get(id grid.UnitID) (*components.Cell, *components.Mover, *components.Position, bool) {
	e, ok := s.byID[id]
	if !ok || !s.world.Alive(e) {
		return nil, nil, nil, false
	}
	cell, mover, pos := s.mapper.Get(e)
	return cell, mover, pos, true
}

// remove deletes unit id and its order. Tiles are the caller's business.
func (s *unitStore) remove(id grid.UnitID) bool {
	e, ok := s.byID[id]
	if !ok {
		return false
	}
	delete(s.byID, id)
	delete(s.orders, id)
	s.world.RemoveEntity(e)
	return true
}

func (s *unitStore) count() int {
	return len(s.byID)
}

// ids returns every unit id in ascending order. Phases that let units
// compete for tiles walk this order so runs are reproducible.
func (s *unitStore) ids() []grid.UnitID {
	ids := make([]grid.UnitID, 0, len(s.byID))
	for id := range s.byID {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// orderIDs returns the ids of units with an active order, ascending.
func (s *unitStore) orderIDs() []grid.UnitID {
	ids := make([]grid.UnitID, 0, len(s.orders))
	for id := range s.orders {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// PlaceUnit spawns a unit of kind k on tile c. It reports false if c is out
// of bounds, a wall, or already holds a present or pending unit.
func (g *Game) PlaceUnit(c grid.Coord, k components.Kind) (grid.UnitID, bool) {
	id, ok := g.units.spawn(g.grid, g.cfg, k, c)
	if !ok {
		return grid.NoUnit, false
	}
	g.visDirty = true
	slog.Debug("unit placed", "unit", id, "kind", k.String(), "col", c.Col, "row", c.Row)
	return id, true
}

// RemoveUnit deletes the unit present on, or inbound to, tile c.
func (g *Game) RemoveUnit(c grid.Coord) bool {
	tile := g.grid.Tile(c)
	if tile == nil {
		return false
	}
	id := tile.Unit()
	if id == grid.NoUnit {
		id = tile.Pending()
	}
	if id == grid.NoUnit {
		return false
	}
	g.destroyUnit(id, telemetry.EventRemove)
	return true
}

// UnitAt returns the unit present on tile c, if any.
func (g *Game) UnitAt(c grid.Coord) (grid.UnitID, bool) {
	tile := g.grid.Tile(c)
	if tile == nil || tile.Unit() == grid.NoUnit {
		return grid.NoUnit, false
	}
	return tile.Unit(), true
}

// Unit returns copies of the cell and mover of unit id.
func (g *Game) Unit(id grid.UnitID) (components.Cell, components.Mover, bool) {
	cell, mover, _, ok := g.units.get(id)
	if !ok {
		return components.Cell{}, components.Mover{}, false
	}
	return *cell, *mover, true
}

// Position returns the world position of unit id.
func (g *Game) Position(id grid.UnitID) (components.Position, bool) {
	_, _, pos, ok := g.units.get(id)
	if !ok {
		return components.Position{}, false
	}
	return *pos, true
}

// UnitCount returns the number of live units.
func (g *Game) UnitCount() int {
	return g.units.count()
}

// CountKinds returns the number of live units per kind.
func (g *Game) CountKinds() [components.NumKinds]int {
	var counts [components.NumKinds]int
	query := g.units.filter.Query()
	for query.Next() {
		cell, _, _ := query.Get()
		counts[cell.Kind]++
	}
	return counts
}

// destroyUnit releases every tile claim of unit id and deletes it.
func (g *Game) destroyUnit(id grid.UnitID, reason telemetry.EventType) {
	cell, mover, _, ok := g.units.get(id)
	if !ok {
		return
	}
	if t := g.grid.Tile(mover.Tile); t != nil && t.Unit() == id {
		t.ForceVacate()
	}
	if mover.InTransit() {
		if t := g.grid.Tile(mover.Next); t != nil {
			t.CancelEnter(id)
		}
	}
	ev := telemetry.Event{Type: reason, Tick: g.tick, Unit: id, Kind: cell.Kind, At: mover.Tile}
	g.units.remove(id)
	g.collector.Record(reason)
	g.visDirty = true
	slog.Debug("unit destroyed", "event", ev)
}
