package systems

import (
	"log/slog"
	"math/rand"
	"time"

	"github.com/pthm-cable/phage/components"
	"github.com/pthm-cable/phage/config"
	"github.com/pthm-cable/phage/grid"
)

// DispersionReport accounts for substance moved during one Update.
// Withdrawn = Accepted + Returned + Lost for dispersion; Decayed is separate.
type DispersionReport struct {
	Withdrawn float64 // taken from sources
	Accepted  float64 // absorbed by neighbours
	Returned  float64 // handed back to sources
	Lost      float64 // rejected by saturated tiles
	Decayed   float64 // removed by decay
	Sources   int     // tiles that dispersed
}

// Add accumulates another report.
func (r *DispersionReport) Add(o DispersionReport) {
	r.Withdrawn += o.Withdrawn
	r.Accepted += o.Accepted
	r.Returned += o.Returned
	r.Lost += o.Lost
	r.Decayed += o.Decayed
	r.Sources += o.Sources
}

// LogValue implements slog.LogValuer for structured logging.
func (r DispersionReport) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Float64("withdrawn", r.Withdrawn),
		slog.Float64("accepted", r.Accepted),
		slog.Float64("returned", r.Returned),
		slog.Float64("lost", r.Lost),
		slog.Float64("decayed", r.Decayed),
		slog.Int("sources", r.Sources),
	)
}

// DiffusionField spreads and decays the per-tile substance balances of a
// grid on timers. It owns one dispersion, decay and jitter timer per
// (tile, substance) pair.
type DiffusionField struct {
	grid *grid.Grid
	cfg  config.DiffusionConfig
	subs [grid.NumSubstances]config.SubstanceConfig

	// rng drives cosmetic jitter only.
	rng *rand.Rand

	dispersion [grid.NumSubstances][]components.Timer
	decay      [grid.NumSubstances][]components.Timer
	jitter     [grid.NumSubstances][]components.Timer

	// Scratch buffers for snapshot dispersion
	fired []bool
	old   []float64
	out   []float64
	share []float64
	in    []float64
	ratio []float64
	ret   []float64
	next  []float64
	nbuf  []grid.Coord
}

// NewDiffusionField creates a field over g. seed feeds the jitter RNG.
func NewDiffusionField(g *grid.Grid, cfg config.DiffusionConfig, seed int64) *DiffusionField {
	f := &DiffusionField{
		cfg: cfg,
		rng: rand.New(rand.NewSource(seed)),
	}
	f.subs[grid.Virus] = cfg.Virus
	f.subs[grid.Antibody] = cfg.Antibody
	f.Reset(g)
	return f
}

// Reset binds the field to g and restarts every timer.
func (f *DiffusionField) Reset(g *grid.Grid) {
	f.grid = g
	n := g.Len()
	for s := range f.subs {
		sc := f.subs[s]
		f.dispersion[s] = makeTimers(n, sc.DispersionPeriod)
		f.decay[s] = makeTimers(n, sc.DecayPeriod)
		f.jitter[s] = makeTimers(n, 0)
		for i := range f.jitter[s] {
			f.jitter[s][i].Period = f.jitterPeriod(sc)
		}
	}
	f.fired = make([]bool, n)
	f.old = make([]float64, n)
	f.out = make([]float64, n)
	f.share = make([]float64, n)
	f.in = make([]float64, n)
	f.ratio = make([]float64, n)
	f.ret = make([]float64, n)
	f.next = make([]float64, n)
	f.nbuf = make([]grid.Coord, 0, 8)
}

func makeTimers(n int, period time.Duration) []components.Timer {
	ts := make([]components.Timer, n)
	for i := range ts {
		ts[i].Period = period
	}
	return ts
}

// jitterPeriod draws a period of base * (1 +/- variance).
func (f *DiffusionField) jitterPeriod(sc config.SubstanceConfig) time.Duration {
	if sc.JitterPeriod <= 0 {
		return 0
	}
	scale := 1 + sc.JitterVariance*(2*f.rng.Float64()-1)
	if scale < 0.05 {
		scale = 0.05
	}
	return time.Duration(float64(sc.JitterPeriod) * scale)
}

// Update advances all timers by dt and applies whatever fired.
func (f *DiffusionField) Update(dt time.Duration) DispersionReport {
	var rep DispersionReport
	for s := range f.subs {
		sub := grid.Substance(s)
		sc := f.subs[s]

		anyFired := false
		for i := range f.dispersion[s] {
			f.fired[i] = f.dispersion[s][i].Update(dt)
			anyFired = anyFired || f.fired[i]
		}
		if anyFired {
			if f.cfg.Ordering == "in_place" {
				rep.Add(f.disperseInPlace(sub, sc.DispersionSpeed))
			} else {
				rep.Add(f.disperseSnapshot(sub, sc.DispersionSpeed))
			}
		}

		if sc.Decays {
			for i := range f.decay[s] {
				if f.decay[s][i].Update(dt) {
					rep.Decayed += f.decayTile(f.grid.At(i), sub, sc.DecaySpeed)
				}
			}
		}

		for i := range f.jitter[s] {
			if f.jitter[s][i].Update(dt) {
				f.grid.At(i).SetJitter(sub, f.rng.Uint32())
				f.jitter[s][i].Period = f.jitterPeriod(sc)
			}
		}
	}
	return rep
}

// disperseSnapshot moves substance using only balances from before this
// call, so the result does not depend on traversal order. When a receiver
// cannot hold its whole inflow, every contributor is scaled back by the
// same ratio and the rejected shares go back to their sources.
func (f *DiffusionField) disperseSnapshot(s grid.Substance, speed float64) DispersionReport {
	var rep DispersionReport
	g := f.grid
	n := g.Len()
	threshold := f.cfg.ConcentrationMin
	f.old = g.Balances(s, f.old)
	clear(f.out)
	clear(f.share)
	clear(f.in)
	clear(f.ret)

	// Proposals
	for i := 0; i < n; i++ {
		if !f.fired[i] || f.old[i] < threshold || f.old[i] <= 0 {
			continue
		}
		t := g.At(i)
		if !t.IsFloor() {
			continue
		}
		f.nbuf = g.AppendNeighbors(f.nbuf[:0], t.Coord(), f.cfg.Diagonal, grid.Floor)
		if len(f.nbuf) == 0 {
			continue
		}
		w := f.old[i] * clamp01(speed)
		f.out[i] = w
		f.share[i] = w / float64(len(f.nbuf))
		for _, nc := range f.nbuf {
			f.in[g.Index(nc)] += f.share[i]
		}
	}

	// Acceptance per receiver
	for j := 0; j < n; j++ {
		f.ratio[j] = 1
		if f.in[j] <= 0 {
			continue
		}
		room := 1 - (f.old[j] - f.out[j])
		if room < f.in[j] {
			f.ratio[j] = max(room, 0) / f.in[j]
		}
	}

	// Apply inflow and work out what each source gets back
	for j := 0; j < n; j++ {
		f.next[j] = f.old[j] - f.out[j] + f.in[j]*f.ratio[j]
	}
	for i := 0; i < n; i++ {
		if f.out[i] <= 0 {
			continue
		}
		f.nbuf = g.AppendNeighbors(f.nbuf[:0], g.CoordOf(i), f.cfg.Diagonal, grid.Floor)
		var accepted float64
		for _, nc := range f.nbuf {
			accepted += f.share[i] * f.ratio[g.Index(nc)]
		}
		rep.Sources++
		rep.Withdrawn += f.out[i]
		rep.Accepted += accepted
		f.ret[i] = f.out[i] - accepted
	}

	// Returns, capped by what the source can still hold
	for i := 0; i < n; i++ {
		if f.ret[i] <= 0 {
			continue
		}
		back := min(f.ret[i], max(1-f.next[i], 0))
		f.next[i] += back
		rep.Returned += back
		rep.Lost += f.ret[i] - back
	}

	for i := 0; i < n; i++ {
		g.At(i).Concentration(s).Set(f.next[i])
	}
	return rep
}

// disperseInPlace walks tiles in row-major order and moves substance
// immediately, so a tile can pass on what it received earlier in the same
// call. Kept for parity with older saves and tuning.
func (f *DiffusionField) disperseInPlace(s grid.Substance, speed float64) DispersionReport {
	var rep DispersionReport
	g := f.grid
	for i := 0; i < g.Len(); i++ {
		if !f.fired[i] {
			continue
		}
		t := g.At(i)
		conc := t.Concentration(s)
		if !t.IsFloor() || conc.Balance() < f.cfg.ConcentrationMin || conc.IsEmpty() {
			continue
		}
		f.nbuf = g.AppendNeighbors(f.nbuf[:0], t.Coord(), f.cfg.Diagonal, grid.Floor)
		if len(f.nbuf) == 0 {
			continue
		}
		w := conc.TryWithdrawFraction(speed)
		share := w / float64(len(f.nbuf))
		remaining := w
		for _, nc := range f.nbuf {
			acc := g.Tile(nc).Concentration(s).TryDeposit(share)
			remaining -= acc
			rep.Accepted += acc
		}
		back := conc.TryDeposit(remaining)
		rep.Sources++
		rep.Withdrawn += w
		rep.Returned += back
		rep.Lost += max(remaining-back, 0)
	}
	return rep
}

// decayTile withdraws a fraction of the balance and snaps what is left to
// zero once it falls under the minimum.
func (f *DiffusionField) decayTile(t *grid.Tile, s grid.Substance, speed float64) float64 {
	conc := t.Concentration(s)
	if conc.IsEmpty() {
		return 0
	}
	w := conc.TryWithdrawFraction(speed)
	if conc.Balance() < f.cfg.ConcentrationMin {
		w += conc.Balance()
		conc.Empty()
	}
	return w
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
