package level

import (
	"fmt"

	"github.com/pthm-cable/phage/components"
	"github.com/pthm-cable/phage/grid"
)

// Placement is a unit to spawn on a freshly built grid.
type Placement struct {
	Tile      grid.Coord
	Kind      components.Kind
	Infection float64

	// Order is the destination of a pending move order, if any.
	Order *grid.Coord
}

// Build validates the level and returns a new grid with its terrain and
// balances, plus the units to spawn in row-major order. Units are not placed
// on the grid; the caller assigns ids and places them. kinds maps kind tags
// to table rows; nil uses the built-in names.
func (l *Level) Build(kinds map[string]components.Kind) (*grid.Grid, []Placement, error) {
	if err := l.Validate(); err != nil {
		return nil, nil, err
	}

	g := grid.New(l.Cols, l.Rows)
	var units []Placement
	for i := range l.Tiles {
		rec := &l.Tiles[i]
		c := grid.Coord{Col: rec.Col, Row: rec.Row}
		terrain, _ := grid.ParseTerrain(rec.Terrain)
		if terrain == grid.Wall {
			g.SetTerrain(c, grid.Wall)
			continue
		}

		t := g.Tile(c)
		t.Concentration(grid.Virus).Set(rec.Virus)
		t.Concentration(grid.Antibody).Set(rec.Antibody)

		if rec.Unit == nil {
			continue
		}
		kind, ok := lookupKind(kinds, rec.Unit.Kind)
		if !ok {
			return nil, nil, fmt.Errorf("%w %q at (%d,%d)", ErrUnknownKind, rec.Unit.Kind, rec.Col, rec.Row)
		}
		p := Placement{Tile: c, Kind: kind, Infection: rec.Unit.Infection}
		if o := rec.Unit.Order; o != nil {
			p.Order = &grid.Coord{Col: o.Col, Row: o.Row}
		}
		units = append(units, p)
	}
	return g, units, nil
}

func lookupKind(kinds map[string]components.Kind, tag string) (components.Kind, bool) {
	if kinds == nil {
		return components.ParseKind(tag)
	}
	k, ok := kinds[tag]
	return k, ok
}

// Capture records g and the given units as a level. Units on tiles outside
// the grid or on walls are skipped.
func Capture(g *grid.Grid, units []Placement) *Level {
	l := &Level{
		Version: Version,
		Cols:    g.Cols(),
		Rows:    g.Rows(),
		Tiles:   make([]TileRecord, g.Len()),
	}
	g.ForEach(func(t *grid.Tile) {
		c := t.Coord()
		l.Tiles[g.Index(c)] = TileRecord{
			Col:      c.Col,
			Row:      c.Row,
			Terrain:  t.Terrain().String(),
			Virus:    t.Concentration(grid.Virus).Balance(),
			Antibody: t.Concentration(grid.Antibody).Balance(),
		}
	})

	for _, u := range units {
		rec := l.At(u.Tile)
		if rec == nil || rec.Terrain != grid.Floor.String() {
			continue
		}
		rec.Unit = &UnitRecord{Kind: u.Kind.String(), Infection: u.Infection}
		if u.Order != nil {
			rec.Unit.Order = &OrderRecord{Col: u.Order.Col, Row: u.Order.Row}
		}
	}
	return l
}
