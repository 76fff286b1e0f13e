package grid

import "fmt"

// Terrain is the static type of a tile.
type Terrain uint8

const (
	Floor Terrain = iota
	Wall
)

// String returns the persisted name of the terrain.
func (t Terrain) String() string {
	switch t {
	case Floor:
		return "floor"
	case Wall:
		return "wall"
	default:
		return fmt.Sprintf("terrain(%d)", uint8(t))
	}
}

// ParseTerrain is the inverse of Terrain.String.
func ParseTerrain(s string) (Terrain, error) {
	switch s {
	case "floor":
		return Floor, nil
	case "wall":
		return Wall, nil
	}
	return 0, fmt.Errorf("unknown terrain %q", s)
}

// Occupancy is the state of a tile's entry protocol.
type Occupancy uint8

const (
	Empty Occupancy = iota
	InboundPending
	Occupied
)

func (o Occupancy) String() string {
	switch o {
	case Empty:
		return "empty"
	case InboundPending:
		return "inbound_pending"
	case Occupied:
		return "occupied"
	default:
		return "unknown"
	}
}

// Visibility is the fog classification of a tile.
type Visibility uint8

const (
	Unseen Visibility = iota
	Visible
)

// UnitID identifies a unit on the grid. NoUnit is never assigned.
type UnitID uint32

// NoUnit marks an unoccupied slot.
const NoUnit UnitID = 0

// Eviction reports the units a tile dropped when it was forcibly vacated.
type Eviction struct {
	Present UnitID
	Pending UnitID
}

// Any reports whether anything was evicted.
func (e Eviction) Any() bool {
	return e.Present != NoUnit || e.Pending != NoUnit
}

// Tile is a single grid cell. Tiles are owned by a Grid and addressed by
// coordinate; they never point back at the grid.
type Tile struct {
	coord   Coord
	terrain Terrain

	occupancy Occupancy
	unit      UnitID

	conc       [NumSubstances]Concentration
	jitter     [NumSubstances]uint32
	visibility Visibility
}

// Coord returns the tile's grid coordinate.
func (t *Tile) Coord() Coord { return t.coord }

// Terrain returns the tile's terrain.
func (t *Tile) Terrain() Terrain { return t.terrain }

// IsFloor reports whether units and substance may occupy the tile.
func (t *Tile) IsFloor() bool { return t.terrain == Floor }

// Occupancy returns the entry-protocol state.
func (t *Tile) Occupancy() Occupancy { return t.occupancy }

// Unit returns the present unit, or NoUnit if the tile is not Occupied.
func (t *Tile) Unit() UnitID {
	if t.occupancy != Occupied {
		return NoUnit
	}
	return t.unit
}

// Pending returns the inbound unit, or NoUnit if nothing is pending.
func (t *Tile) Pending() UnitID {
	if t.occupancy != InboundPending {
		return NoUnit
	}
	return t.unit
}

// Visibility returns the fog classification from the last recompute.
func (t *Tile) Visibility() Visibility { return t.visibility }

// SetVisibility is written by the visibility engine.
func (t *Tile) SetVisibility(v Visibility) { t.visibility = v }

// Concentration returns the tile's balance for a substance.
func (t *Tile) Concentration(s Substance) *Concentration {
	return &t.conc[s]
}

// Jitter returns the cosmetic seed for a substance's particle layout.
func (t *Tile) Jitter(s Substance) uint32 { return t.jitter[s] }

// SetJitter is written by the diffusion field when the jitter timer fires.
func (t *Tile) SetJitter(s Substance, seed uint32) { t.jitter[s] = seed }

// SetTerrain changes the tile's terrain. Converting to Wall evicts any
// present or pending unit and empties every concentration.
func (t *Tile) SetTerrain(terrain Terrain) Eviction {
	t.terrain = terrain
	if terrain != Wall {
		return Eviction{}
	}
	for i := range t.conc {
		t.conc[i].Empty()
	}
	return t.ForceVacate()
}

// TryStartEnter claims an empty floor tile for u. It fails without mutation
// if the tile is a wall or already holds a present or pending unit.
func (t *Tile) TryStartEnter(u UnitID) bool {
	if u == NoUnit || t.terrain != Floor || t.occupancy != Empty {
		return false
	}
	t.occupancy = InboundPending
	t.unit = u
	return true
}

// FinishEnter completes u's pending entry.
func (t *Tile) FinishEnter(u UnitID) bool {
	if t.occupancy != InboundPending || t.unit != u {
		return false
	}
	t.occupancy = Occupied
	return true
}

// CancelEnter abandons u's pending entry.
func (t *Tile) CancelEnter(u UnitID) bool {
	if t.occupancy != InboundPending || t.unit != u {
		return false
	}
	t.occupancy = Empty
	t.unit = NoUnit
	return true
}

// StartExit releases the tile as u begins moving away from it.
func (t *Tile) StartExit(u UnitID) bool {
	if t.occupancy != Occupied || t.unit != u {
		return false
	}
	t.occupancy = Empty
	t.unit = NoUnit
	return true
}

// Place puts u directly on an empty floor tile, skipping the pending phase.
// Only spawning and level loading use it.
func (t *Tile) Place(u UnitID) bool {
	if u == NoUnit || t.terrain != Floor || t.occupancy != Empty {
		return false
	}
	t.occupancy = Occupied
	t.unit = u
	return true
}

// ForceVacate clears the tile regardless of state and reports who was there.
func (t *Tile) ForceVacate() Eviction {
	var ev Eviction
	switch t.occupancy {
	case Occupied:
		ev.Present = t.unit
	case InboundPending:
		ev.Pending = t.unit
	}
	t.occupancy = Empty
	t.unit = NoUnit
	return ev
}
