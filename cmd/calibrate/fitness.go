package main

import (
	"math"
	"time"

	"github.com/pthm-cable/phage/config"
	"github.com/pthm-cable/phage/grid"
	"github.com/pthm-cable/phage/systems"
)

// Room describes the calibration scene: an open floor room with one
// saturated virus source in its centre.
type Room struct {
	Cols, Rows int
	Duration   time.Duration
}

// Coverage runs the diffusion field over room and returns the fraction of
// tiles holding at least the minimum concentration at the end. The source
// tile is refilled every tick, like an infected cell sitting on it.
func Coverage(cfg *config.Config, room Room) float64 {
	g := grid.New(room.Cols, room.Rows)
	if g.Len() == 0 {
		return 0
	}
	src := g.Tile(grid.Coord{Col: room.Cols / 2, Row: room.Rows / 2})
	field := systems.NewDiffusionField(g, cfg.Diffusion, 1)

	dt := cfg.Derived.DT
	src.Concentration(grid.Virus).Fill()
	for elapsed := time.Duration(0); elapsed < room.Duration; elapsed += dt {
		field.Update(dt)
		src.Concentration(grid.Virus).Fill()
	}

	covered := 0
	threshold := cfg.Diffusion.ConcentrationMin
	g.ForEach(func(t *grid.Tile) {
		if t.Concentration(grid.Virus).Balance() >= threshold {
			covered++
		}
	})
	return float64(covered) / float64(g.Len())
}

// FitnessEvaluator scores parameter vectors by how far their coverage lands
// from the target.
type FitnessEvaluator struct {
	params     *ParamVector
	baseConfig *config.Config
	room       Room
	target     float64

	// lastCoverage is the coverage of the most recent Evaluate.
	lastCoverage float64
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, baseCfg *config.Config, room Room, target float64) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:     params,
		baseConfig: baseCfg,
		room:       room,
		target:     target,
	}
}

// LastCoverage returns the coverage from the most recent evaluation.
func (fe *FitnessEvaluator) LastCoverage() float64 {
	return fe.lastCoverage
}

// Evaluate returns the squared coverage error for raw parameter values
// (lower = better).
func (fe *FitnessEvaluator) Evaluate(raw []float64) float64 {
	cfg := *fe.baseConfig
	fe.params.ApplyToConfig(&cfg, raw)

	fe.lastCoverage = Coverage(&cfg, fe.room)
	return math.Pow(fe.lastCoverage-fe.target, 2)
}
