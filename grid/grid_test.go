package grid

import (
	"math"
	"testing"
)

func TestNewDegenerateSize(t *testing.T) {
	tests := []struct {
		name       string
		cols, rows int
	}{
		{"zero", 0, 0},
		{"negative", -3, 4},
		{"zero rows", 5, 0},
		{"overflowing", 1 << 32, 1 << 32},
		{"over int32 tiles", math.MaxInt32, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(tt.cols, tt.rows)
			if g.Len() != 0 || g.Cols() != 0 || g.Rows() != 0 {
				t.Errorf("New(%d, %d) = %dx%d with %d tiles, want empty", tt.cols, tt.rows, g.Cols(), g.Rows(), g.Len())
			}
			if g.Tile(Coord{0, 0}) != nil {
				t.Error("empty grid returned a tile")
			}
		})
	}
}

func TestTileOutOfBounds(t *testing.T) {
	g := New(4, 3)

	tests := []struct {
		name string
		c    Coord
		ok   bool
	}{
		{"origin", Coord{0, 0}, true},
		{"far corner", Coord{3, 2}, true},
		{"negative col", Coord{-1, 0}, false},
		{"negative row", Coord{0, -1}, false},
		{"col past edge", Coord{4, 0}, false},
		{"row past edge", Coord{0, 3}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tile := g.Tile(tt.c)
			if (tile != nil) != tt.ok {
				t.Errorf("Tile(%v) present = %v, want %v", tt.c, tile != nil, tt.ok)
			}
			if g.Valid(tt.c) != tt.ok {
				t.Errorf("Valid(%v) = %v, want %v", tt.c, g.Valid(tt.c), tt.ok)
			}
			if tile != nil && tile.Coord() != tt.c {
				t.Errorf("Tile(%v).Coord() = %v", tt.c, tile.Coord())
			}
		})
	}
}

func TestNeighbors(t *testing.T) {
	g := New(5, 5)
	g.SetTerrain(Coord{2, 1}, Wall)
	g.SetTerrain(Coord{3, 3}, Wall)

	tests := []struct {
		name      string
		c         Coord
		diagonals bool
		filter    []Terrain
		want      int
	}{
		{"center 4", Coord{2, 2}, false, nil, 4},
		{"center 8", Coord{2, 2}, true, nil, 8},
		{"center 4 floor", Coord{2, 2}, false, []Terrain{Floor}, 3},
		{"center 8 floor", Coord{2, 2}, true, []Terrain{Floor}, 6},
		{"center 8 wall", Coord{2, 2}, true, []Terrain{Wall}, 2},
		{"corner 4", Coord{0, 0}, false, nil, 2},
		{"corner 8", Coord{0, 0}, true, nil, 3},
		{"edge 8", Coord{0, 2}, true, nil, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := g.Neighbors(tt.c, tt.diagonals, tt.filter...)
			if len(got) != tt.want {
				t.Errorf("Neighbors(%v, %v, %v) returned %d tiles (%v), want %d",
					tt.c, tt.diagonals, tt.filter, len(got), got, tt.want)
			}
			for _, n := range got {
				if !g.Valid(n) {
					t.Errorf("neighbour %v out of bounds", n)
				}
				if n == tt.c {
					t.Errorf("neighbour list contains the origin")
				}
			}
		})
	}
}

func TestAppendNeighborsReusesBuffer(t *testing.T) {
	g := New(3, 3)
	buf := make([]Coord, 0, 8)

	buf = g.AppendNeighbors(buf[:0], Coord{1, 1}, true)
	if len(buf) != 8 {
		t.Fatalf("len = %d, want 8", len(buf))
	}
	buf = g.AppendNeighbors(buf[:0], Coord{0, 0}, false)
	if len(buf) != 2 {
		t.Errorf("len after reuse = %d, want 2", len(buf))
	}
}

func TestSubGridClipping(t *testing.T) {
	g := New(10, 8)

	tests := []struct {
		name string
		r    Rect
		want Rect
		ok   bool
	}{
		{"inside", Rect{2, 2, 3, 3}, Rect{2, 2, 3, 3}, true},
		{"overhang right", Rect{8, 6, 5, 5}, Rect{8, 6, 2, 2}, true},
		{"overhang left", Rect{-3, -2, 5, 4}, Rect{0, 0, 2, 2}, true},
		{"whole grid", Rect{-1, -1, 20, 20}, Rect{0, 0, 10, 8}, true},
		{"outside", Rect{20, 20, 2, 2}, Rect{}, false},
		{"zero size", Rect{1, 1, 0, 3}, Rect{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, ok := g.SubGrid(tt.r)
			if ok != tt.ok {
				t.Fatalf("SubGrid(%v) ok = %v, want %v", tt.r, ok, tt.ok)
			}
			if !ok {
				return
			}
			if v.Bounds() != tt.want {
				t.Errorf("SubGrid(%v).Bounds() = %v, want %v", tt.r, v.Bounds(), tt.want)
			}
			n := 0
			v.Each(func(tile *Tile) {
				if !tt.want.Contains(tile.Coord()) {
					t.Errorf("tile %v outside view", tile.Coord())
				}
				n++
			})
			if n != v.Len() {
				t.Errorf("Each visited %d tiles, want %d", n, v.Len())
			}
		})
	}
}

func TestRectBetween(t *testing.T) {
	r := RectBetween(Coord{5, 1}, Coord{2, 4})
	want := Rect{Col: 2, Row: 1, Cols: 4, Rows: 4}
	if r != want {
		t.Errorf("RectBetween = %v, want %v", r, want)
	}
}

func TestSetTerrainWallEvictsAndEmpties(t *testing.T) {
	g := New(3, 3)
	c := Coord{1, 1}
	tile := g.Tile(c)

	tile.Concentration(Virus).TryDeposit(0.7)
	tile.Concentration(Antibody).TryDeposit(0.2)
	if !tile.Place(7) {
		t.Fatal("Place failed on empty floor")
	}

	rev := g.Revision()
	ev, ok := g.SetTerrain(c, Wall)
	if !ok {
		t.Fatal("SetTerrain reported out of bounds")
	}
	if ev.Present != 7 || ev.Pending != NoUnit {
		t.Errorf("eviction = %+v, want present 7", ev)
	}
	if tile.Occupancy() != Empty || tile.Unit() != NoUnit {
		t.Errorf("wall still occupied: %v %v", tile.Occupancy(), tile.Unit())
	}
	for _, s := range []Substance{Virus, Antibody} {
		if b := tile.Concentration(s).Balance(); b != 0 {
			t.Errorf("%v balance on wall = %v, want 0", s, b)
		}
	}
	if g.Revision() == rev {
		t.Error("revision not bumped by terrain change")
	}

	// A wall can never be entered.
	if tile.TryStartEnter(9) {
		t.Error("TryStartEnter succeeded on a wall")
	}
	if tile.Place(9) {
		t.Error("Place succeeded on a wall")
	}
}

func TestSetTerrainWallEvictsPending(t *testing.T) {
	g := New(2, 1)
	c := Coord{1, 0}
	if !g.Tile(c).TryStartEnter(3) {
		t.Fatal("TryStartEnter failed")
	}
	ev, _ := g.SetTerrain(c, Wall)
	if ev.Pending != 3 || ev.Present != NoUnit {
		t.Errorf("eviction = %+v, want pending 3", ev)
	}
}

func TestSetTerrainOutOfBounds(t *testing.T) {
	g := New(2, 2)
	if _, ok := g.SetTerrain(Coord{5, 5}, Wall); ok {
		t.Error("SetTerrain out of bounds reported ok")
	}
}

// TestOccupancyContention verifies that two units racing for the same empty
// tile leave exactly one winner and the loser untouched.
func TestOccupancyContention(t *testing.T) {
	g := New(3, 1)
	src1, src2 := g.Tile(Coord{0, 0}), g.Tile(Coord{2, 0})
	dst := g.Tile(Coord{1, 0})
	src1.Place(1)
	src2.Place(2)

	first := dst.TryStartEnter(1)
	second := dst.TryStartEnter(2)

	if !first || second {
		t.Fatalf("results = %v, %v; want true, false", first, second)
	}
	if dst.Occupancy() != InboundPending || dst.Pending() != 1 {
		t.Errorf("dst = %v pending %v, want inbound_pending 1", dst.Occupancy(), dst.Pending())
	}
	if src2.Occupancy() != Occupied || src2.Unit() != 2 {
		t.Errorf("loser's tile changed: %v %v", src2.Occupancy(), src2.Unit())
	}
}

func TestOccupancyTransitions(t *testing.T) {
	tile := New(1, 1).Tile(Coord{})

	if tile.FinishEnter(1) {
		t.Error("FinishEnter succeeded from empty")
	}
	if !tile.TryStartEnter(1) {
		t.Fatal("TryStartEnter failed from empty")
	}
	if tile.CancelEnter(2) {
		t.Error("CancelEnter succeeded for the wrong unit")
	}
	if tile.FinishEnter(2) {
		t.Error("FinishEnter succeeded for the wrong unit")
	}
	if !tile.CancelEnter(1) {
		t.Fatal("CancelEnter failed for the pending unit")
	}
	if tile.Occupancy() != Empty {
		t.Errorf("after cancel: %v, want empty", tile.Occupancy())
	}

	tile.TryStartEnter(1)
	if !tile.FinishEnter(1) {
		t.Fatal("FinishEnter failed")
	}
	if tile.Unit() != 1 || tile.Occupancy() != Occupied {
		t.Errorf("after finish: %v %v", tile.Occupancy(), tile.Unit())
	}
	if tile.TryStartEnter(2) {
		t.Error("TryStartEnter succeeded on occupied tile")
	}
	if tile.StartExit(2) {
		t.Error("StartExit succeeded for a unit that is not present")
	}
	if !tile.StartExit(1) {
		t.Error("StartExit failed for the present unit")
	}
	if tile.Occupancy() != Empty {
		t.Errorf("after exit: %v, want empty", tile.Occupancy())
	}
	if tile.TryStartEnter(NoUnit) {
		t.Error("TryStartEnter accepted NoUnit")
	}
}

func TestConcentrationStaysBounded(t *testing.T) {
	var c Concentration
	ops := []struct {
		deposit  float64
		fraction float64
		withdraw float64
	}{
		{0.5, 0, 0},
		{0.8, 0, 0},
		{-1, 0.3, 0},
		{0, 2, 0},
		{3, 0, 0.2},
		{0.01, -0.5, 5},
		{math.Inf(1), 0, 0},
	}

	for i, op := range ops {
		c.TryDeposit(op.deposit)
		c.TryWithdrawFraction(op.fraction)
		c.TryWithdraw(op.withdraw)
		if b := c.Balance(); b < 0 || b > 1 {
			t.Fatalf("step %d: balance %v out of [0,1]", i, b)
		}
	}
}

func TestConcentrationReturns(t *testing.T) {
	var c Concentration

	if got := c.TryDeposit(0.6); got != 0.6 {
		t.Errorf("TryDeposit(0.6) = %v, want 0.6", got)
	}
	if got := c.TryDeposit(0.6); math.Abs(got-0.4) > 1e-12 {
		t.Errorf("TryDeposit(0.6) at 0.6 = %v, want 0.4", got)
	}
	if !c.IsFull() {
		t.Error("expected full")
	}
	if got := c.TryDeposit(0.1); got != 0 {
		t.Errorf("TryDeposit on full = %v, want 0", got)
	}
	if got := c.TryWithdrawFraction(0.25); math.Abs(got-0.25) > 1e-12 {
		t.Errorf("TryWithdrawFraction(0.25) = %v, want 0.25", got)
	}
	if got := c.TryWithdraw(5); math.Abs(got-0.75) > 1e-12 {
		t.Errorf("TryWithdraw(5) = %v, want 0.75", got)
	}
	if !c.IsEmpty() {
		t.Error("expected empty")
	}
}

func TestTotal(t *testing.T) {
	g := New(3, 3)
	g.Tile(Coord{0, 0}).Concentration(Virus).TryDeposit(0.5)
	g.Tile(Coord{2, 2}).Concentration(Virus).TryDeposit(0.25)
	g.Tile(Coord{1, 1}).Concentration(Antibody).TryDeposit(1)

	if got := g.Total(Virus); math.Abs(got-0.75) > 1e-12 {
		t.Errorf("Total(Virus) = %v, want 0.75", got)
	}
	if got := g.Total(Antibody); got != 1 {
		t.Errorf("Total(Antibody) = %v, want 1", got)
	}
}
