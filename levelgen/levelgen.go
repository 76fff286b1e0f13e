// Package levelgen builds procedural cave levels.
package levelgen

import (
	"math/rand"

	"github.com/ojrac/opensimplex-go"
	"github.com/zyedidia/generic/mapset"

	"github.com/pthm-cable/phage/components"
	"github.com/pthm-cable/phage/config"
	"github.com/pthm-cable/phage/grid"
	"github.com/pthm-cable/phage/level"
)

// Generate builds a level of cfg.Grid size from seed. The same seed and
// config always produce the same level.
//
// Steps:
//  1. 2D simplex noise above the wall threshold becomes wall
//  2. optional border walls
//  3. every floor region except the largest is filled in
//  4. units are scattered over the remaining floor
//  5. each infected unit's tile is saturated with virus
func Generate(cfg *config.Config, seed int64) *level.Level {
	g := grid.New(cfg.Grid.Cols, cfg.Grid.Rows)
	lc := cfg.Level

	carve(g, lc, seed)
	if lc.Border {
		addBorder(g)
	}
	floor := keepLargestRegion(g)

	rng := rand.New(rand.NewSource(seed))
	units := scatter(rng, floor, lc)
	for _, u := range units {
		if u.Kind == components.KindInfected {
			g.Tile(u.Tile).Concentration(grid.Virus).Fill()
		}
	}
	return level.Capture(g, units)
}

func carve(g *grid.Grid, lc config.LevelConfig, seed int64) {
	noise := opensimplex.New(seed)
	scale := lc.NoiseScale
	if scale <= 0 {
		scale = 0.08
	}
	g.ForEach(func(t *grid.Tile) {
		c := t.Coord()
		if noise.Eval2(float64(c.Col)*scale, float64(c.Row)*scale) > lc.WallThreshold {
			t.SetTerrain(grid.Wall)
		}
	})
}

func addBorder(g *grid.Grid) {
	cols, rows := g.Cols(), g.Rows()
	for col := 0; col < cols; col++ {
		g.SetTerrain(grid.Coord{Col: col, Row: 0}, grid.Wall)
		g.SetTerrain(grid.Coord{Col: col, Row: rows - 1}, grid.Wall)
	}
	for row := 0; row < rows; row++ {
		g.SetTerrain(grid.Coord{Col: 0, Row: row}, grid.Wall)
		g.SetTerrain(grid.Coord{Col: cols - 1, Row: row}, grid.Wall)
	}
}

// keepLargestRegion walls off every 4-connected floor region except the
// largest and returns the survivors in row-major order. Ties go to the
// region found first. If no floor survived the noise pass the grid is
// reopened inside its border so the level is never empty.
func keepLargestRegion(g *grid.Grid) []grid.Coord {
	seen := mapset.New[grid.Coord]()
	var best mapset.Set[grid.Coord]
	nbuf := make([]grid.Coord, 0, 4)

	g.ForEach(func(t *grid.Tile) {
		start := t.Coord()
		if !t.IsFloor() || seen.Has(start) {
			return
		}
		region := mapset.New[grid.Coord]()
		queue := []grid.Coord{start}
		seen.Put(start)
		for len(queue) > 0 {
			c := queue[0]
			queue = queue[1:]
			region.Put(c)
			nbuf = g.AppendNeighbors(nbuf[:0], c, false, grid.Floor)
			for _, n := range nbuf {
				if !seen.Has(n) {
					seen.Put(n)
					queue = append(queue, n)
				}
			}
		}
		if best.Size() < region.Size() {
			best = region
		}
	})

	if best.Size() == 0 {
		return reopen(g)
	}

	var floor []grid.Coord
	g.ForEach(func(t *grid.Tile) {
		c := t.Coord()
		if !t.IsFloor() {
			return
		}
		if best.Has(c) {
			floor = append(floor, c)
		} else {
			t.SetTerrain(grid.Wall)
		}
	})
	return floor
}

func reopen(g *grid.Grid) []grid.Coord {
	inner := grid.Rect{Col: 1, Row: 1, Cols: g.Cols() - 2, Rows: g.Rows() - 2}
	if inner.Empty() {
		inner = g.Bounds()
	}
	var floor []grid.Coord
	view, _ := g.SubGrid(inner)
	view.Each(func(t *grid.Tile) {
		t.SetTerrain(grid.Floor)
		floor = append(floor, t.Coord())
	})
	return floor
}

// scatter picks distinct floor tiles for the configured unit counts.
// Counts are trimmed when the floor runs out.
func scatter(rng *rand.Rand, floor []grid.Coord, lc config.LevelConfig) []level.Placement {
	spots := make([]grid.Coord, len(floor))
	copy(spots, floor)
	rng.Shuffle(len(spots), func(i, j int) { spots[i], spots[j] = spots[j], spots[i] })

	want := []struct {
		kind components.Kind
		n    int
	}{
		{components.KindMacrophage, lc.Macrophages},
		{components.KindCivilian, lc.Civilians},
		{components.KindInfected, lc.Infected},
	}

	var units []level.Placement
	for _, w := range want {
		for i := 0; i < w.n && len(spots) > 0; i++ {
			units = append(units, level.Placement{Tile: spots[0], Kind: w.kind})
			spots = spots[1:]
		}
	}
	return units
}
