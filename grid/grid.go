// Package grid holds the tile arena, the occupancy protocol and per-tile
// substance balances.
package grid

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Offsets for 4- and 8-neighbourhoods. Orthogonal directions come first so a
// 4-neighbour query is a prefix of the 8-neighbour one.
var neighborOffsets = [8][2]int{
	{0, -1}, {1, 0}, {0, 1}, {-1, 0},
	{1, -1}, {1, 1}, {-1, 1}, {-1, -1},
}

// Grid owns a fixed-size row-major arena of tiles.
type Grid struct {
	cols, rows int
	tiles      []Tile

	// revision increments on every terrain change.
	revision uint64
}

// New creates a grid of all-floor tiles. Negative dimensions, or ones whose
// tile count exceeds math.MaxInt32, give an empty grid.
func New(cols, rows int) *Grid {
	if cols <= 0 || rows <= 0 || cols > math.MaxInt32/rows {
		cols, rows = 0, 0
	}
	g := &Grid{
		cols:  cols,
		rows:  rows,
		tiles: make([]Tile, cols*rows),
	}
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			g.tiles[r*cols+c].coord = Coord{Col: c, Row: r}
		}
	}
	return g
}

// Cols returns the grid width in tiles.
func (g *Grid) Cols() int { return g.cols }

// Rows returns the grid height in tiles.
func (g *Grid) Rows() int { return g.rows }

// Len returns the number of tiles.
func (g *Grid) Len() int { return len(g.tiles) }

// Bounds returns the rect covering the whole grid.
func (g *Grid) Bounds() Rect {
	return Rect{Cols: g.cols, Rows: g.rows}
}

// Revision returns a counter bumped by every terrain change.
func (g *Grid) Revision() uint64 { return g.revision }

// Valid reports whether c lies inside the grid.
func (g *Grid) Valid(c Coord) bool {
	return c.Col >= 0 && c.Col < g.cols && c.Row >= 0 && c.Row < g.rows
}

// ValidPosition is an alias of Valid for callers that think in positions.
func (g *Grid) ValidPosition(c Coord) bool { return g.Valid(c) }

// Index returns the arena index of c. c must be valid.
func (g *Grid) Index(c Coord) int {
	return c.Row*g.cols + c.Col
}

// CoordOf returns the coordinate of arena index i.
func (g *Grid) CoordOf(i int) Coord {
	return Coord{Col: i % g.cols, Row: i / g.cols}
}

// Tile returns the tile at c, or nil if c is out of bounds.
func (g *Grid) Tile(c Coord) *Tile {
	if !g.Valid(c) {
		return nil
	}
	return &g.tiles[g.Index(c)]
}

// At returns the tile at arena index i.
func (g *Grid) At(i int) *Tile {
	return &g.tiles[i]
}

// IsFloor reports whether c is in bounds and floor.
func (g *Grid) IsFloor(c Coord) bool {
	t := g.Tile(c)
	return t != nil && t.terrain == Floor
}

// SetTerrain changes the terrain at c. It returns false if c is out of
// bounds.
func (g *Grid) SetTerrain(c Coord, t Terrain) (Eviction, bool) {
	tile := g.Tile(c)
	if tile == nil {
		return Eviction{}, false
	}
	if tile.terrain != t {
		g.revision++
	}
	return tile.SetTerrain(t), true
}

// Neighbors returns the in-bounds neighbours of c, optionally including
// diagonals. When filter terrains are given only matching tiles are returned.
func (g *Grid) Neighbors(c Coord, diagonals bool, filter ...Terrain) []Coord {
	return g.AppendNeighbors(make([]Coord, 0, 8), c, diagonals, filter...)
}

// AppendNeighbors is Neighbors writing into a caller-owned buffer.
func (g *Grid) AppendNeighbors(dst []Coord, c Coord, diagonals bool, filter ...Terrain) []Coord {
	n := 4
	if diagonals {
		n = 8
	}
	for _, off := range neighborOffsets[:n] {
		nc := c.Add(off[0], off[1])
		t := g.Tile(nc)
		if t == nil {
			continue
		}
		if len(filter) > 0 && !terrainIn(t.terrain, filter) {
			continue
		}
		dst = append(dst, nc)
	}
	return dst
}

func terrainIn(t Terrain, set []Terrain) bool {
	for _, s := range set {
		if s == t {
			return true
		}
	}
	return false
}

// ForEach calls fn for every tile in row-major order.
func (g *Grid) ForEach(fn func(*Tile)) {
	for i := range g.tiles {
		fn(&g.tiles[i])
	}
}

// Balances copies every tile's balance for s into dst (resized as needed).
func (g *Grid) Balances(s Substance, dst []float64) []float64 {
	if cap(dst) < len(g.tiles) {
		dst = make([]float64, len(g.tiles))
	}
	dst = dst[:len(g.tiles)]
	for i := range g.tiles {
		dst[i] = g.tiles[i].conc[s].balance
	}
	return dst
}

// Total returns the summed balance of s across the grid.
func (g *Grid) Total(s Substance) float64 {
	return floats.Sum(g.Balances(s, nil))
}

// ResetVisibility marks every tile Unseen.
func (g *Grid) ResetVisibility() {
	for i := range g.tiles {
		g.tiles[i].visibility = Unseen
	}
}

// CountVisible returns the number of Visible tiles.
func (g *Grid) CountVisible() int {
	n := 0
	for i := range g.tiles {
		if g.tiles[i].visibility == Visible {
			n++
		}
	}
	return n
}

// CountTerrain returns the number of tiles with terrain t.
func (g *Grid) CountTerrain(t Terrain) int {
	n := 0
	for i := range g.tiles {
		if g.tiles[i].terrain == t {
			n++
		}
	}
	return n
}

// SubGrid returns a view of r clipped to the grid. ok is false when nothing
// of r lies inside the grid.
func (g *Grid) SubGrid(r Rect) (View, bool) {
	clipped := r.Intersect(g.Bounds())
	if clipped.Empty() {
		return View{}, false
	}
	return View{grid: g, rect: clipped}, true
}

// View is a rectangular window onto a grid.
type View struct {
	grid *Grid
	rect Rect
}

// Bounds returns the clipped rect the view covers.
func (v View) Bounds() Rect { return v.rect }

// Len returns the number of tiles in the view.
func (v View) Len() int { return v.rect.Cols * v.rect.Rows }

// Contains reports whether c lies inside the view.
func (v View) Contains(c Coord) bool { return v.rect.Contains(c) }

// Each calls fn for each tile in the view in row-major order.
func (v View) Each(fn func(*Tile)) {
	if v.grid == nil {
		return
	}
	for r := v.rect.Row; r < v.rect.Row+v.rect.Rows; r++ {
		for c := v.rect.Col; c < v.rect.Col+v.rect.Cols; c++ {
			fn(&v.grid.tiles[r*v.grid.cols+c])
		}
	}
}

// Coords returns the view's coordinates in row-major order.
func (v View) Coords() []Coord {
	out := make([]Coord, 0, v.Len())
	v.Each(func(t *Tile) {
		out = append(out, t.coord)
	})
	return out
}
