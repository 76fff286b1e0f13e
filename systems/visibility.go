package systems

import (
	"github.com/zyedidia/generic/mapset"

	"github.com/pthm-cable/phage/grid"
)

// Flare is one sight source: a centre tile and a radius in tiles.
type Flare struct {
	Center grid.Coord
	Radius float64
}

// VisibilityEngine classifies tiles as Visible or Unseen by recursive
// shadowcasting from a set of flares.
//
// Each flare is scanned as eight octants. The vertical routine walks rows
// outward from the origin and sweeps columns within each row; the horizontal
// routine walks columns and sweeps rows. Inside an octant, depth d is the
// distance along the walk axis and offset o (0..d) the distance across it,
// so a cell covers the slope interval [(o-0.5)/(d+0.5), (o+0.5)/(d-0.5)].
type VisibilityEngine struct {
	grid *grid.Grid
}

// NewVisibilityEngine creates an engine that writes into g.
func NewVisibilityEngine(g *grid.Grid) *VisibilityEngine {
	return &VisibilityEngine{grid: g}
}

// Reset rebinds the engine to a new grid.
func (v *VisibilityEngine) Reset(g *grid.Grid) {
	v.grid = g
}

// octant directions: sign along the walk axis, sign across it.
var octantSigns = [4][2]int{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}

// Recompute clears the grid to Unseen and marks everything visible from any
// flare. It returns the number of visible tiles.
func (v *VisibilityEngine) Recompute(flares []Flare) int {
	v.grid.ResetVisibility()
	for _, f := range flares {
		v.cast(f)
	}
	return v.grid.CountVisible()
}

func (v *VisibilityEngine) cast(f Flare) {
	origin := v.grid.Tile(f.Center)
	if origin == nil || !origin.IsFloor() {
		return
	}
	origin.SetVisibility(grid.Visible)
	if f.Radius < 1 {
		return
	}
	r2 := f.Radius * f.Radius
	maxDepth := int(f.Radius)
	for _, s := range octantSigns {
		v.scanVertical(f.Center, 1, 1.0, 0.0, s[0], s[1], maxDepth, r2)
		v.scanHorizontal(f.Center, 1, 1.0, 0.0, s[0], s[1], maxDepth, r2)
	}
}

// scanVertical lights rows origin.Row + depth*rowSign, sweeping columns on
// the colSign side from the diagonal (slope 1) toward the axis (slope 0).
func (v *VisibilityEngine) scanVertical(origin grid.Coord, depth int, start, end float64, rowSign, colSign, maxDepth int, r2 float64) {
	v.scan(depth, start, end, maxDepth, r2, func(d, o int) grid.Coord {
		return grid.Coord{Col: origin.Col + o*colSign, Row: origin.Row + d*rowSign}
	})
}

// scanHorizontal is scanVertical with the axes swapped: it lights columns
// origin.Col + depth*colSign, sweeping rows on the rowSign side.
func (v *VisibilityEngine) scanHorizontal(origin grid.Coord, depth int, start, end float64, colSign, rowSign, maxDepth int, r2 float64) {
	v.scan(depth, start, end, maxDepth, r2, func(d, o int) grid.Coord {
		return grid.Coord{Col: origin.Col + d*colSign, Row: origin.Row + o*rowSign}
	})
}

// scan runs one octant from depth outward, between slopes start >= end.
// When a wall ends a lit run the run is handed to a child scan one step
// deeper with its end slope tightened to the wall's near edge; when light
// resumes after walls the start slope is pulled in to the wall's far edge.
func (v *VisibilityEngine) scan(depth int, start, end float64, maxDepth int, r2 float64, at func(d, o int) grid.Coord) {
	if start < end {
		return
	}
	for d := depth; d <= maxDepth; d++ {
		blocked := false
		var nextStart float64
		fd := float64(d)
		for o := d; o >= 0; o-- {
			fo := float64(o)
			low := (fo - 0.5) / (fd + 0.5)
			high := (fo + 0.5) / (fd - 0.5)
			if start < low {
				continue
			}
			if end > high {
				break
			}

			c := at(d, o)
			t := v.grid.Tile(c)
			opaque := t == nil || !t.IsFloor()
			if t != nil && fd*fd+fo*fo <= r2 {
				t.SetVisibility(grid.Visible)
			}

			if blocked {
				if opaque {
					nextStart = low
					continue
				}
				blocked = false
				start = nextStart
				// The wall ran past the bottom of the interval.
				if start < end {
					return
				}
			} else if opaque && d < maxDepth {
				blocked = true
				v.scan(d+1, start, high, maxDepth, r2, at)
				nextStart = low
			}
		}
		if blocked {
			return
		}
	}
}

// VisibleSet returns the coordinates marked Visible by the last recompute.
func (v *VisibilityEngine) VisibleSet() mapset.Set[grid.Coord] {
	set := mapset.New[grid.Coord]()
	v.grid.ForEach(func(t *grid.Tile) {
		if t.Visibility() == grid.Visible {
			set.Put(t.Coord())
		}
	})
	return set
}
