package components

import "time"

// Timer counts elapsed simulation time and fires once per period.
type Timer struct {
	Period  time.Duration
	Elapsed time.Duration
}

// NewTimer returns a timer with the given period.
func NewTimer(period time.Duration) Timer {
	return Timer{Period: period}
}

// Update advances the timer by dt and reports whether it fired. Overshoot is
// carried into the next period; a timer never fires more than once per call.
// A non-positive period never fires.
func (t *Timer) Update(dt time.Duration) bool {
	if t.Period <= 0 {
		return false
	}
	t.Elapsed += dt
	if t.Elapsed < t.Period {
		return false
	}
	t.Elapsed = (t.Elapsed - t.Period) % t.Period
	return true
}

// Reset rewinds the timer to zero.
func (t *Timer) Reset() {
	t.Elapsed = 0
}

// Ratio returns the elapsed fraction of the current period.
func (t *Timer) Ratio() float64 {
	if t.Period <= 0 {
		return 0
	}
	return float64(t.Elapsed) / float64(t.Period)
}
