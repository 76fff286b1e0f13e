// Package components defines ECS components and small shared value types.
package components

import "github.com/pthm-cable/phage/grid"

// Kind selects a unit's row in the unit-kind table.
type Kind uint8

const (
	KindMacrophage Kind = iota
	KindCivilian
	KindInfected

	NumKinds = 3
)

// String returns the kind's persisted tag.
func (k Kind) String() string {
	switch k {
	case KindMacrophage:
		return "macrophage"
	case KindCivilian:
		return "civilian"
	case KindInfected:
		return "infected"
	default:
		return "unknown"
	}
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, bool) {
	for k := Kind(0); k < NumKinds; k++ {
		if k.String() == s {
			return k, true
		}
	}
	return 0, false
}

// Mover holds a unit's place on the grid and its in-flight hop.
type Mover struct {
	Tile grid.Coord
	Next grid.Coord

	// HasNext is set while a next tile is queued. Committed is set once the
	// next tile accepted TryStartEnter and the source tile was vacated.
	HasNext   bool
	Committed bool

	// Progress is the transit ratio in [0,1] toward Next.
	Progress float64

	// Speed in tiles per second.
	Speed float64
}

// InTransit reports whether the unit is between tiles.
func (m *Mover) InTransit() bool {
	return m.HasNext && m.Committed
}

// PlanFrom returns the tile a new path should start from: the committed
// next tile if a hop is in flight, the current tile otherwise.
func (m *Mover) PlanFrom() grid.Coord {
	if m.InTransit() {
		return m.Next
	}
	return m.Tile
}

// DropUncommitted clears a queued next tile that has not been claimed yet.
func (m *Mover) DropUncommitted() {
	if m.HasNext && !m.Committed {
		m.HasNext = false
		m.Progress = 0
	}
}

// Cell holds per-unit identity and the state used by kind behaviours.
type Cell struct {
	ID   grid.UnitID
	Kind Kind

	// Infection accumulated by civilians, in [0,1].
	Infection float64

	// Spawn paces the virus refill of infected cells.
	Spawn Timer

	// Selected marks player-selected units.
	Selected bool
}
