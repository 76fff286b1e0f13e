package systems

import (
	"time"

	"github.com/pthm-cable/phage/components"
	"github.com/pthm-cable/phage/config"
	"github.com/pthm-cable/phage/grid"
)

// OrderState is the lifecycle state of a MoveOrder.
type OrderState uint8

const (
	OrderPlanning OrderState = iota
	OrderAdvancing
	OrderBlocked
	OrderArrived
	OrderCancelled
)

func (s OrderState) String() string {
	switch s {
	case OrderPlanning:
		return "planning"
	case OrderAdvancing:
		return "advancing"
	case OrderBlocked:
		return "blocked"
	case OrderArrived:
		return "arrived"
	case OrderCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Done reports whether the order has reached a terminal state.
func (s OrderState) Done() bool {
	return s == OrderArrived || s == OrderCancelled
}

// MoveParams holds the order timers and the world scale for positions.
type MoveParams struct {
	RepathInterval time.Duration
	BlockedRepath  time.Duration
	BlockedCancel  time.Duration
	TileSize       float32
}

// MoveParamsFromConfig builds params from the movement and grid sections.
func MoveParamsFromConfig(cfg *config.Config) MoveParams {
	return MoveParams{
		RepathInterval: cfg.Movement.RepathInterval,
		BlockedRepath:  cfg.Movement.BlockedRepath,
		BlockedCancel:  cfg.Movement.BlockedCancel,
		TileSize:       float32(cfg.Grid.TileSize),
	}
}

// Navigation is what an order needs from the world.
type Navigation struct {
	Grid    *grid.Grid
	Planner *Pathfinder
}

// MoveOrder drives one unit tile by tile toward a destination.
type MoveOrder struct {
	unit  grid.UnitID
	dest  grid.Coord
	path  []grid.Coord
	state OrderState

	nav    Navigation
	params MoveParams

	repath        components.Timer
	blockedRepath components.Timer
	blockedCancel components.Timer

	// Counters for telemetry
	Hops         int
	BlockedTicks int
	Replans      int
}

// NewMoveOrder plans a route for unit from its mover's current (or
// committed next) tile and starts advancing. A committed hop in flight is
// kept, so the unit finishes it before following the new path.
func NewMoveOrder(unit grid.UnitID, m *components.Mover, dest grid.Coord, nav Navigation, p MoveParams) *MoveOrder {
	o := &MoveOrder{
		unit:          unit,
		dest:          dest,
		state:         OrderPlanning,
		nav:           nav,
		params:        p,
		repath:        components.NewTimer(p.RepathInterval),
		blockedRepath: components.NewTimer(p.BlockedRepath),
		blockedCancel: components.NewTimer(p.BlockedCancel),
	}
	o.replan(m)
	o.state = OrderAdvancing
	return o
}

// Unit returns the unit the order drives.
func (o *MoveOrder) Unit() grid.UnitID { return o.unit }

// Destination returns the target tile.
func (o *MoveOrder) Destination() grid.Coord { return o.dest }

// State returns the current state.
func (o *MoveOrder) State() OrderState { return o.state }

// Path returns the remaining planned tiles. The slice must not be modified.
func (o *MoveOrder) Path() []grid.Coord { return o.path }

// Cancel stops the order. A hop already committed is finished by the caller
// through AdvanceTransit.
func (o *MoveOrder) Cancel() {
	if !o.state.Done() {
		o.state = OrderCancelled
	}
}

// replan drops an unclaimed next tile and searches again from where the
// unit will be once any committed hop lands.
func (o *MoveOrder) replan(m *components.Mover) {
	m.DropUncommitted()
	o.path = o.nav.Planner.Search(m.PlanFrom(), o.dest)
	o.Replans++
}

// Replan searches again at once. Used when the world moved the unit under
// the order, e.g. when a hop was bounced back to its source tile.
func (o *MoveOrder) Replan(m *components.Mover) {
	if o.state.Done() {
		return
	}
	o.replan(m)
	o.repath.Reset()
}

// Update advances the order by dt and returns the resulting state.
func (o *MoveOrder) Update(dt time.Duration, m *components.Mover, pos *components.Position) OrderState {
	if o.state.Done() {
		return o.state
	}

	if o.repath.Update(dt) {
		o.replan(m)
	}

	if !m.HasNext {
		if len(o.path) == 0 {
			if m.Tile == o.dest {
				o.state = OrderArrived
				return o.state
			}
			return o.wait(dt, m)
		}
		m.Next = o.path[0]
		m.HasNext = true
		m.Committed = false
		m.Progress = 0
		o.path = o.path[1:]
	}

	if !m.Committed {
		if !ClaimNext(o.unit, m, o.nav.Grid) {
			return o.wait(dt, m)
		}
		o.state = OrderAdvancing
	}

	if AdvanceTransit(dt, o.unit, m, pos, o.nav.Grid, o.params.TileSize) {
		o.Hops++
		o.blockedRepath.Reset()
		o.blockedCancel.Reset()
		if len(o.path) == 0 && m.Tile == o.dest {
			o.state = OrderArrived
		}
	}
	return o.state
}

// wait applies the blocked policy: give up on the long timer, replan on the
// short one.
func (o *MoveOrder) wait(dt time.Duration, m *components.Mover) OrderState {
	o.state = OrderBlocked
	o.BlockedTicks++
	if o.blockedCancel.Update(dt) {
		o.state = OrderCancelled
		return o.state
	}
	if o.blockedRepath.Update(dt) {
		o.replan(m)
	}
	return o.state
}

// ClaimNext tries to enter the mover's queued next tile. On success the
// source tile is vacated and the hop is committed.
func ClaimNext(unit grid.UnitID, m *components.Mover, g *grid.Grid) bool {
	next := g.Tile(m.Next)
	if next == nil || !next.TryStartEnter(unit) {
		return false
	}
	if src := g.Tile(m.Tile); src != nil {
		src.StartExit(unit)
	}
	m.Committed = true
	m.Progress = 0
	return true
}

// AdvanceTransit moves a committed hop forward by dt and interpolates the
// world position. It reports true when the hop lands, after which the mover
// sits on its new tile with no next tile queued. Uncommitted movers are left
// untouched.
func AdvanceTransit(dt time.Duration, unit grid.UnitID, m *components.Mover, pos *components.Position, g *grid.Grid, tileSize float32) bool {
	if !m.InTransit() {
		return false
	}
	m.Progress += m.Speed * dt.Seconds()
	if m.Progress > 1 {
		m.Progress = 1
	}
	if pos != nil {
		*pos = components.Lerp(
			components.TileCenter(m.Tile, tileSize),
			components.TileCenter(m.Next, tileSize),
			m.Progress,
		)
	}
	if m.Progress < 1 {
		return false
	}

	if t := g.Tile(m.Next); t != nil {
		t.FinishEnter(unit)
	}
	m.Tile = m.Next
	m.HasNext = false
	m.Committed = false
	m.Progress = 0
	if pos != nil {
		*pos = components.TileCenter(m.Tile, tileSize)
	}
	return true
}
