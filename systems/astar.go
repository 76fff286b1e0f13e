package systems

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/zyedidia/generic/heap"

	"github.com/pthm-cable/phage/config"
	"github.com/pthm-cable/phage/grid"
)

// Heuristic selects the A* distance estimate.
type Heuristic uint8

const (
	HeuristicEuclidean Heuristic = iota
	HeuristicManhattan
	HeuristicChebyshev
	HeuristicNone
)

// ParseHeuristic maps a config name to a Heuristic.
func ParseHeuristic(s string) (Heuristic, error) {
	switch s {
	case "", "euclidean":
		return HeuristicEuclidean, nil
	case "manhattan":
		return HeuristicManhattan, nil
	case "chebyshev":
		return HeuristicChebyshev, nil
	case "none":
		return HeuristicNone, nil
	}
	return 0, fmt.Errorf("unknown heuristic %q", s)
}

// Estimate returns the heuristic distance from a to b.
func (h Heuristic) Estimate(a, b grid.Coord) float64 {
	switch h {
	case HeuristicEuclidean:
		return a.Dist(b)
	case HeuristicManhattan:
		return float64(a.Manhattan(b))
	case HeuristicChebyshev:
		return float64(a.Chebyshev(b))
	default:
		return 0
	}
}

// PathOptions configures adjacency and the heuristic.
type PathOptions struct {
	Diagonal  bool
	Heuristic Heuristic

	// CornerCutting lets a diagonal step squeeze past a wall on either
	// orthogonal side. Ignored without Diagonal.
	CornerCutting bool
}

// PathOptionsFromConfig converts the config section. Euclidean overestimates
// unit-cost diagonal moves, so with 8-adjacency it is replaced by Chebyshev.
func PathOptionsFromConfig(c config.PathfindingConfig) (PathOptions, error) {
	h, err := ParseHeuristic(c.Heuristic)
	if err != nil {
		return PathOptions{}, err
	}
	if c.Diagonal && h == HeuristicEuclidean {
		h = HeuristicChebyshev
	}
	return PathOptions{Diagonal: c.Diagonal, Heuristic: h, CornerCutting: c.CornerCutting}, nil
}

// PathStats counts pathfinder work since creation.
type PathStats struct {
	Searches   int
	Failures   int
	Expansions int
}

// LogValue implements slog.LogValuer for structured logging.
func (s PathStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("searches", s.Searches),
		slog.Int("failures", s.Failures),
		slog.Int("expansions", s.Expansions),
	)
}

// searchNode is the per-tile state of one search.
type searchNode struct {
	cost   float64
	est    float64
	parent grid.Coord
	root   bool
	closed bool
}

// openEntry is a heap item. Entries go stale when their tile is relaxed and
// pushed again; stale ones are skipped on pop.
type openEntry struct {
	at   grid.Coord
	f    float64
	cost float64
	seq  uint64
}

func openLess(a, b openEntry) bool {
	if a.f != b.f {
		return a.f < b.f
	}
	return a.seq < b.seq
}

// Pathfinder runs A* over the floor tiles of a grid with unit step cost.
type Pathfinder struct {
	grid  *grid.Grid
	opts  PathOptions
	stats PathStats
	nbuf  []grid.Coord
}

// NewPathfinder creates a pathfinder over g.
func NewPathfinder(g *grid.Grid, opts PathOptions) *Pathfinder {
	return &Pathfinder{
		grid: g,
		opts: opts,
		nbuf: make([]grid.Coord, 0, 8),
	}
}

// Reset rebinds the pathfinder to a new grid.
func (p *Pathfinder) Reset(g *grid.Grid) {
	p.grid = g
}

// Options returns the search options.
func (p *Pathfinder) Options() PathOptions { return p.opts }

// Stats returns cumulative search counters.
func (p *Pathfinder) Stats() PathStats { return p.stats }

// Search returns the tiles from just after start up to and including goal,
// or nil when start == goal or no route exists. Occupancy is ignored; only
// terrain blocks.
func (p *Pathfinder) Search(start, goal grid.Coord) []grid.Coord {
	if start == goal {
		return nil
	}
	p.stats.Searches++
	if !p.grid.IsFloor(start) || !p.grid.IsFloor(goal) {
		p.stats.Failures++
		return nil
	}

	h := p.opts.Heuristic
	nodes := make(map[grid.Coord]*searchNode, 64)
	open := heap.New[openEntry](openLess)
	var seq uint64

	nodes[start] = &searchNode{est: h.Estimate(start, goal), root: true}
	open.Push(openEntry{at: start, f: nodes[start].est})

	for open.Size() > 0 {
		e, _ := open.Pop()
		n := nodes[e.at]
		if n.closed || e.cost != n.cost {
			continue
		}
		if e.at == goal {
			return unfurl(nodes, goal)
		}
		n.closed = true
		p.stats.Expansions++

		p.nbuf = p.neighbors(p.nbuf[:0], e.at)
		for _, nc := range p.nbuf {
			cost := n.cost + 1
			nn, seen := nodes[nc]
			switch {
			case !seen:
				nn = &searchNode{cost: cost, est: h.Estimate(nc, goal), parent: e.at}
				nodes[nc] = nn
			case nn.closed:
				continue
			case cost < nn.cost:
				nn.cost = cost
				nn.parent = e.at
			default:
				continue
			}
			seq++
			open.Push(openEntry{at: nc, f: nn.cost + nn.est, cost: nn.cost, seq: seq})
		}
	}

	p.stats.Failures++
	return nil
}

// neighbors appends the passable neighbours of c.
func (p *Pathfinder) neighbors(dst []grid.Coord, c grid.Coord) []grid.Coord {
	dst = p.grid.AppendNeighbors(dst, c, p.opts.Diagonal, grid.Floor)
	if !p.opts.Diagonal || p.opts.CornerCutting {
		return dst
	}
	out := dst[:0]
	for _, nc := range dst {
		if nc.Col != c.Col && nc.Row != c.Row {
			if !p.grid.IsFloor(grid.Coord{Col: nc.Col, Row: c.Row}) ||
				!p.grid.IsFloor(grid.Coord{Col: c.Col, Row: nc.Row}) {
				continue
			}
		}
		out = append(out, nc)
	}
	return out
}

// unfurl walks parents back from goal and returns the path without the
// start tile.
func unfurl(nodes map[grid.Coord]*searchNode, goal grid.Coord) []grid.Coord {
	n := nodes[goal]
	path := make([]grid.Coord, 0, int(math.Ceil(n.cost)))
	at := goal
	for !n.root {
		path = append(path, at)
		at = n.parent
		n = nodes[at]
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
