package telemetry

import (
	"github.com/pthm-cable/phage/components"
)

// Collector accumulates events within time windows and produces WindowStats.
type Collector struct {
	windowDurationSec   float64
	windowDurationTicks int32
	dt                  float64

	// Current window tracking
	windowStartTick int32

	// Event counters for current window
	counts [numEventTypes]int

	// Cumulative pathfinder counters at the previous flush
	lastSearches int
	lastFailures int
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds
// dt: seconds per tick (used for tick-to-time conversion)
func NewCollector(windowDurationSec, dt float64) *Collector {
	ticksPerWindow := int32(windowDurationSec / dt)
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}

	return &Collector{
		windowDurationSec:   windowDurationSec,
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
	}
}

// Record counts one event in the current window.
func (c *Collector) Record(ev EventType) {
	if ev < numEventTypes {
		c.counts[ev]++
	}
}

// Count returns the number of events of type ev in the current window.
func (c *Collector) Count(ev EventType) int {
	if ev >= numEventTypes {
		return 0
	}
	return c.counts[ev]
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// WorldSample is the state sampled at the end of a window.
type WorldSample struct {
	Units  [components.NumKinds]int
	Orders int

	VirusTotal    float64
	AntibodyTotal float64

	// VirusBalances holds the virus balance of every tile that has any.
	VirusBalances []float64

	// VisibleTiles counts visible floor tiles only, so the visible
	// fraction stays within [0,1].
	VisibleTiles int
	FloorTiles   int

	// Cumulative pathfinder counters
	PathSearches int
	PathFailures int
}

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(currentTick int32, w WorldSample) WindowStats {
	mean, p50, p90 := ComputeDistribution(w.VirusBalances)

	var visibleFrac float64
	if w.FloorTiles > 0 {
		visibleFrac = float64(w.VisibleTiles) / float64(w.FloorTiles)
	}

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * c.dt,

		Macrophages: w.Units[components.KindMacrophage],
		Civilians:   w.Units[components.KindCivilian],
		Infected:    w.Units[components.KindInfected],
		Orders:      w.Orders,

		Hops:          c.counts[EventHop],
		Arrivals:      c.counts[EventArrival],
		Cancellations: c.counts[EventCancel],
		BlockedTicks:  c.counts[EventBlocked],
		Infections:    c.counts[EventInfection],
		Crushes:       c.counts[EventCrush],
		Spawns:        c.counts[EventSpawn],
		Removals:      c.counts[EventRemove],

		PathSearches: w.PathSearches - c.lastSearches,
		PathFailures: w.PathFailures - c.lastFailures,

		VirusTotal:    w.VirusTotal,
		AntibodyTotal: w.AntibodyTotal,
		InfectedTiles: len(w.VirusBalances),
		VirusMean:     mean,
		VirusP50:      p50,
		VirusP90:      p90,

		VisibleFrac: visibleFrac,
	}

	// Reset for next window
	c.windowStartTick = currentTick
	c.counts = [numEventTypes]int{}
	c.lastSearches = w.PathSearches
	c.lastFailures = w.PathFailures

	return stats
}

// Rebase restarts pathfinder deltas after the pathfinder was replaced.
func (c *Collector) Rebase(searches, failures int) {
	c.lastSearches = searches
	c.lastFailures = failures
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int32 {
	return c.windowDurationTicks
}
