package systems

import (
	"testing"
	"time"

	"github.com/pthm-cable/phage/components"
	"github.com/pthm-cable/phage/grid"
)

const tick = 100 * time.Millisecond

var testParams = MoveParams{
	RepathInterval: 3 * time.Second,
	BlockedRepath:  time.Second,
	BlockedCancel:  15 * time.Second,
	TileSize:       10,
}

func testNav(g *grid.Grid) Navigation {
	return Navigation{Grid: g, Planner: NewPathfinder(g, PathOptions{})}
}

// placeUnit puts id on c and returns a mover for it.
func placeUnit(t *testing.T, g *grid.Grid, id grid.UnitID, c grid.Coord, speed float64) *components.Mover {
	t.Helper()
	if !g.Tile(c).Place(id) {
		t.Fatalf("Place(%d) at %v failed", id, c)
	}
	return &components.Mover{Tile: c, Speed: speed}
}

// runOrder ticks o until it finishes or maxTicks pass and returns the ticks
// used.
func runOrder(o *MoveOrder, m *components.Mover, pos *components.Position, maxTicks int) int {
	for i := 1; i <= maxTicks; i++ {
		if o.Update(tick, m, pos).Done() {
			return i
		}
	}
	return maxTicks
}

func TestMoveOrderArrives(t *testing.T) {
	g := grid.New(5, 5)
	start, dest := grid.Coord{Col: 0, Row: 0}, grid.Coord{Col: 4, Row: 4}
	m := placeUnit(t, g, 1, start, 4)
	pos := components.TileCenter(start, testParams.TileSize)

	o := NewMoveOrder(1, m, dest, testNav(g), testParams)
	if o.State() != OrderAdvancing || len(o.Path()) != 8 {
		t.Fatalf("new order: state %v, path %v", o.State(), o.Path())
	}

	runOrder(o, m, &pos, 200)

	if o.State() != OrderArrived {
		t.Fatalf("state = %v, want arrived", o.State())
	}
	if m.Tile != dest || m.HasNext {
		t.Errorf("mover = %+v, want resting on %v", m, dest)
	}
	if o.Hops != 8 {
		t.Errorf("hops = %d, want 8", o.Hops)
	}
	if got := g.Tile(dest); got.Occupancy() != grid.Occupied || got.Unit() != 1 {
		t.Errorf("dest occupancy = %v unit %d", got.Occupancy(), got.Unit())
	}
	if got := g.Tile(start).Occupancy(); got != grid.Empty {
		t.Errorf("start occupancy = %v, want empty", got)
	}
	if pos != components.TileCenter(dest, testParams.TileSize) {
		t.Errorf("position = %+v, want centre of %v", pos, dest)
	}
}

func TestMoveOrderAlreadyThere(t *testing.T) {
	g := grid.New(3, 3)
	c := grid.Coord{Col: 1, Row: 1}
	m := placeUnit(t, g, 1, c, 1)

	o := NewMoveOrder(1, m, c, testNav(g), testParams)
	if got := o.Update(tick, m, nil); got != OrderArrived {
		t.Errorf("state = %v, want arrived", got)
	}
}

// TestMoveOrderBlockedCancels verifies an order gives up after being blocked
// for the cancel period and replans on the shorter period meanwhile.
func TestMoveOrderBlockedCancels(t *testing.T) {
	g := grid.New(3, 1)
	blocker := grid.Coord{Col: 2, Row: 0}
	placeUnit(t, g, 2, blocker, 1)
	m := placeUnit(t, g, 1, grid.Coord{Col: 0, Row: 0}, 10)

	o := NewMoveOrder(1, m, blocker, testNav(g), testParams)
	runOrder(o, m, nil, 1000)

	if o.State() != OrderCancelled {
		t.Fatalf("state = %v, want cancelled", o.State())
	}
	if o.BlockedTicks != 150 {
		t.Errorf("blocked ticks = %d, want 150", o.BlockedTicks)
	}
	if o.Replans < 15 {
		t.Errorf("replans = %d, want at least 15", o.Replans)
	}
	if m.Tile != (grid.Coord{Col: 1, Row: 0}) || m.InTransit() {
		t.Errorf("mover = %+v, want resting on (1,0)", m)
	}
	if got := g.Tile(blocker); got.Unit() != 2 || got.Pending() != grid.NoUnit {
		t.Errorf("blocker tile unit %d pending %d", got.Unit(), got.Pending())
	}
}

func TestMoveOrderResumesWhenCleared(t *testing.T) {
	g := grid.New(3, 1)
	blocker := grid.Coord{Col: 2, Row: 0}
	placeUnit(t, g, 2, blocker, 1)
	m := placeUnit(t, g, 1, grid.Coord{Col: 0, Row: 0}, 10)

	o := NewMoveOrder(1, m, blocker, testNav(g), testParams)
	for i := 0; i < 50; i++ {
		o.Update(tick, m, nil)
	}
	if o.State() != OrderBlocked {
		t.Fatalf("state = %v, want blocked", o.State())
	}

	g.Tile(blocker).ForceVacate()
	runOrder(o, m, nil, 100)
	if o.State() != OrderArrived || m.Tile != blocker {
		t.Errorf("state = %v tile %v, want arrived at %v", o.State(), m.Tile, blocker)
	}
}

func TestMoveOrderUnreachable(t *testing.T) {
	g := grid.New(5, 5)
	dest := grid.Coord{Col: 4, Row: 4}
	g.SetTerrain(grid.Coord{Col: 3, Row: 4}, grid.Wall)
	g.SetTerrain(grid.Coord{Col: 4, Row: 3}, grid.Wall)
	m := placeUnit(t, g, 1, grid.Coord{Col: 0, Row: 0}, 1)

	o := NewMoveOrder(1, m, dest, testNav(g), testParams)
	if len(o.Path()) != 0 {
		t.Fatalf("path = %v, want none", o.Path())
	}
	ticks := runOrder(o, m, nil, 1000)
	if o.State() != OrderCancelled || ticks != 150 {
		t.Errorf("state = %v after %d ticks, want cancelled after 150", o.State(), ticks)
	}
	if m.Tile != (grid.Coord{Col: 0, Row: 0}) {
		t.Errorf("unit moved to %v", m.Tile)
	}
}

// TestMoveOrderContention verifies only one of two units can claim a tile.
func TestMoveOrderContention(t *testing.T) {
	g := grid.New(3, 1)
	mid := grid.Coord{Col: 1, Row: 0}
	m1 := placeUnit(t, g, 1, grid.Coord{Col: 0, Row: 0}, 2)
	m2 := placeUnit(t, g, 2, grid.Coord{Col: 2, Row: 0}, 2)

	nav := testNav(g)
	o1 := NewMoveOrder(1, m1, mid, nav, testParams)
	o2 := NewMoveOrder(2, m2, mid, nav, testParams)

	if got := o1.Update(tick, m1, nil); got != OrderAdvancing {
		t.Errorf("first unit state = %v, want advancing", got)
	}
	if got := o2.Update(tick, m2, nil); got != OrderBlocked {
		t.Errorf("second unit state = %v, want blocked", got)
	}
	if got := g.Tile(mid); got.Occupancy() != grid.InboundPending || got.Pending() != 1 {
		t.Errorf("mid occupancy = %v pending %d", got.Occupancy(), got.Pending())
	}

	runOrder(o1, m1, nil, 100)
	if o1.State() != OrderArrived || g.Tile(mid).Unit() != 1 {
		t.Errorf("first unit did not arrive: %v", o1.State())
	}
	if m2.Tile != (grid.Coord{Col: 2, Row: 0}) || g.Tile(m2.Tile).Unit() != 2 {
		t.Errorf("second unit left its tile: %+v", m2)
	}
}

// TestMoveOrderReplacedInTransit verifies a new order issued mid-hop lets
// the hop land before following the new path.
func TestMoveOrderReplacedInTransit(t *testing.T) {
	g := grid.New(5, 3)
	m := placeUnit(t, g, 1, grid.Coord{Col: 0, Row: 0}, 2)
	nav := testNav(g)

	first := NewMoveOrder(1, m, grid.Coord{Col: 4, Row: 0}, nav, testParams)
	first.Update(tick, m, nil)
	if !m.InTransit() || m.Next != (grid.Coord{Col: 1, Row: 0}) {
		t.Fatalf("mover = %+v, want in transit to (1,0)", m)
	}
	first.Cancel()
	if first.Update(tick, m, nil) != OrderCancelled {
		t.Error("cancelled order kept running")
	}

	dest := grid.Coord{Col: 0, Row: 2}
	second := NewMoveOrder(1, m, dest, nav, testParams)
	if p := second.Path(); len(p) != 3 || p[len(p)-1] != dest {
		t.Fatalf("path = %v, want 3 hops from (1,0)", p)
	}
	for second.Hops == 0 {
		second.Update(tick, m, nil)
	}
	if m.Tile != (grid.Coord{Col: 1, Row: 0}) {
		t.Errorf("first landing at %v, want (1,0)", m.Tile)
	}

	runOrder(second, m, nil, 100)
	if second.State() != OrderArrived || m.Tile != dest {
		t.Errorf("state = %v tile %v", second.State(), m.Tile)
	}
	if got := g.Tile(grid.Coord{Col: 0, Row: 0}).Occupancy(); got != grid.Empty {
		t.Errorf("origin occupancy = %v, want empty", got)
	}
}

func TestOrderStateDone(t *testing.T) {
	tests := []struct {
		state OrderState
		done  bool
	}{
		{OrderPlanning, false},
		{OrderAdvancing, false},
		{OrderBlocked, false},
		{OrderArrived, true},
		{OrderCancelled, true},
	}
	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			if got := tt.state.Done(); got != tt.done {
				t.Errorf("Done() = %v, want %v", got, tt.done)
			}
		})
	}
}
