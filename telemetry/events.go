// Package telemetry provides windowed run statistics, bookmarks, perf timing
// and CSV output.
package telemetry

import (
	"log/slog"

	"github.com/pthm-cable/phage/components"
	"github.com/pthm-cable/phage/grid"
)

// EventType identifies telemetry events.
type EventType uint8

const (
	EventHop EventType = iota
	EventArrival
	EventCancel
	EventBlocked
	EventInfection
	EventCrush
	EventSpawn
	EventRemove

	numEventTypes
)

func (e EventType) String() string {
	switch e {
	case EventHop:
		return "hop"
	case EventArrival:
		return "arrival"
	case EventCancel:
		return "cancel"
	case EventBlocked:
		return "blocked"
	case EventInfection:
		return "infection"
	case EventCrush:
		return "crush"
	case EventSpawn:
		return "spawn"
	case EventRemove:
		return "remove"
	default:
		return "unknown"
	}
}

// Event is a single unit-level occurrence.
type Event struct {
	Type EventType
	Tick int32
	Unit grid.UnitID
	Kind components.Kind
	At   grid.Coord
}

// LogValue implements slog.LogValuer for structured logging.
func (e Event) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("type", e.Type.String()),
		slog.Int("tick", int(e.Tick)),
		slog.Int("unit", int(e.Unit)),
		slog.String("kind", e.Kind.String()),
		slog.Int("col", e.At.Col),
		slog.Int("row", e.At.Row),
	)
}
