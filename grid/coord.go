package grid

import "math"

// Coord addresses a tile by column and row.
type Coord struct {
	Col, Row int
}

// Add returns c offset by (dc, dr).
func (c Coord) Add(dc, dr int) Coord {
	return Coord{Col: c.Col + dc, Row: c.Row + dr}
}

// Dist returns the Euclidean distance between two coordinates.
func (c Coord) Dist(o Coord) float64 {
	dc := float64(c.Col - o.Col)
	dr := float64(c.Row - o.Row)
	return math.Sqrt(dc*dc + dr*dr)
}

// Manhattan returns the 4-connected step distance.
func (c Coord) Manhattan(o Coord) int {
	return abs(c.Col-o.Col) + abs(c.Row-o.Row)
}

// Chebyshev returns the 8-connected step distance.
func (c Coord) Chebyshev(o Coord) int {
	return max(abs(c.Col-o.Col), abs(c.Row-o.Row))
}

// Rect is an axis-aligned block of tiles starting at (Col, Row).
type Rect struct {
	Col, Row   int
	Cols, Rows int
}

// RectBetween returns the rect spanning two corner coordinates, inclusive.
func RectBetween(a, b Coord) Rect {
	minC, maxC := min(a.Col, b.Col), max(a.Col, b.Col)
	minR, maxR := min(a.Row, b.Row), max(a.Row, b.Row)
	return Rect{Col: minC, Row: minR, Cols: maxC - minC + 1, Rows: maxR - minR + 1}
}

// Empty reports whether the rect covers no tiles.
func (r Rect) Empty() bool {
	return r.Cols <= 0 || r.Rows <= 0
}

// Contains reports whether c lies inside the rect.
func (r Rect) Contains(c Coord) bool {
	return c.Col >= r.Col && c.Col < r.Col+r.Cols &&
		c.Row >= r.Row && c.Row < r.Row+r.Rows
}

// Intersect returns the overlap of two rects (possibly empty).
func (r Rect) Intersect(o Rect) Rect {
	c0 := max(r.Col, o.Col)
	r0 := max(r.Row, o.Row)
	c1 := min(r.Col+r.Cols, o.Col+o.Cols)
	r1 := min(r.Row+r.Rows, o.Row+o.Rows)
	if c1 <= c0 || r1 <= r0 {
		return Rect{}
	}
	return Rect{Col: c0, Row: r0, Cols: c1 - c0, Rows: r1 - r0}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
