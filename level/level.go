// Package level defines the persisted level format: a header plus one
// record per tile in row-major order. Levels are stored as JSON or msgpack
// files, or in named save slots.
package level

import (
	"errors"
	"fmt"
	"math"

	"github.com/pthm-cable/phage/components"
	"github.com/pthm-cable/phage/grid"
)

// Version is the current format version.
const Version = 1

var (
	// ErrInvalid wraps every structural validation failure.
	ErrInvalid = errors.New("invalid level")

	// ErrUnknownKind is returned for a unit kind tag that is not in the table.
	ErrUnknownKind = errors.New("unknown unit kind")
)

// Level is a persisted grid with its units.
type Level struct {
	Version int          `json:"version" msgpack:"version"`
	Cols    int          `json:"cols" msgpack:"cols"`
	Rows    int          `json:"rows" msgpack:"rows"`
	Tiles   []TileRecord `json:"tiles" msgpack:"tiles"`
}

// TileRecord is one tile. Walls carry no unit and no substance.
type TileRecord struct {
	Col      int         `json:"col" msgpack:"col"`
	Row      int         `json:"row" msgpack:"row"`
	Terrain  string      `json:"terrain" msgpack:"terrain"`
	Virus    float64     `json:"virus" msgpack:"virus"`
	Antibody float64     `json:"antibody" msgpack:"antibody"`
	Unit     *UnitRecord `json:"unit,omitempty" msgpack:"unit,omitempty"`
}

// UnitRecord is a unit standing on a tile.
type UnitRecord struct {
	Kind      string       `json:"kind" msgpack:"kind"`
	Infection float64      `json:"infection" msgpack:"infection"`
	Order     *OrderRecord `json:"order,omitempty" msgpack:"order,omitempty"`
}

// OrderRecord is a pending move order's destination.
type OrderRecord struct {
	Col int `json:"col" msgpack:"col"`
	Row int `json:"row" msgpack:"row"`
}

// New returns an all-floor level with no units.
func New(cols, rows int) *Level {
	l := &Level{Version: Version, Cols: cols, Rows: rows}
	if cols <= 0 || rows <= 0 {
		return l
	}
	l.Tiles = make([]TileRecord, cols*rows)
	for i := range l.Tiles {
		l.Tiles[i] = TileRecord{Col: i % cols, Row: i / cols, Terrain: grid.Floor.String()}
	}
	return l
}

// At returns the record for c, or nil when c is outside the level.
func (l *Level) At(c grid.Coord) *TileRecord {
	if c.Col < 0 || c.Col >= l.Cols || c.Row < 0 || c.Row >= l.Rows {
		return nil
	}
	i := c.Row*l.Cols + c.Col
	if i >= len(l.Tiles) {
		return nil
	}
	return &l.Tiles[i]
}

// Validate checks the level's structure and values.
func (l *Level) Validate() error {
	if l.Version < 1 || l.Version > Version {
		return fmt.Errorf("%w: unsupported version %d", ErrInvalid, l.Version)
	}
	if l.Cols <= 0 || l.Rows <= 0 {
		return fmt.Errorf("%w: dimensions %dx%d", ErrInvalid, l.Cols, l.Rows)
	}
	if l.Cols > math.MaxInt32/l.Rows {
		return fmt.Errorf("%w: dimensions %dx%d too large", ErrInvalid, l.Cols, l.Rows)
	}
	if len(l.Tiles) != l.Cols*l.Rows {
		return fmt.Errorf("%w: %d tile records for %dx%d", ErrInvalid, len(l.Tiles), l.Cols, l.Rows)
	}

	for i := range l.Tiles {
		t := &l.Tiles[i]
		if t.Col != i%l.Cols || t.Row != i/l.Cols {
			return fmt.Errorf("%w: record %d is (%d,%d), not row-major", ErrInvalid, i, t.Col, t.Row)
		}
		terrain, err := grid.ParseTerrain(t.Terrain)
		if err != nil {
			return fmt.Errorf("%w: tile (%d,%d): %v", ErrInvalid, t.Col, t.Row, err)
		}
		if !unitInterval(t.Virus) || !unitInterval(t.Antibody) {
			return fmt.Errorf("%w: tile (%d,%d) balance out of range", ErrInvalid, t.Col, t.Row)
		}
		if terrain == grid.Wall && (t.Unit != nil || t.Virus != 0 || t.Antibody != 0) {
			return fmt.Errorf("%w: wall (%d,%d) holds a unit or substance", ErrInvalid, t.Col, t.Row)
		}
		if t.Unit == nil {
			continue
		}
		if _, ok := components.ParseKind(t.Unit.Kind); !ok {
			return fmt.Errorf("%w %q at (%d,%d)", ErrUnknownKind, t.Unit.Kind, t.Col, t.Row)
		}
		if !unitInterval(t.Unit.Infection) {
			return fmt.Errorf("%w: unit at (%d,%d) infection out of range", ErrInvalid, t.Col, t.Row)
		}
		if o := t.Unit.Order; o != nil && (o.Col < 0 || o.Col >= l.Cols || o.Row < 0 || o.Row >= l.Rows) {
			return fmt.Errorf("%w: unit at (%d,%d) ordered off the map", ErrInvalid, t.Col, t.Row)
		}
	}
	return nil
}

func unitInterval(v float64) bool {
	return v >= 0 && v <= 1
}
