package systems

import (
	"testing"

	"github.com/pthm-cable/phage/config"
	"github.com/pthm-cable/phage/grid"
)

// checkPath verifies that path is a connected walk from start to goal over
// floor tiles that excludes start and ends at goal.
func checkPath(t *testing.T, g *grid.Grid, start, goal grid.Coord, path []grid.Coord, diagonal bool) {
	t.Helper()
	if len(path) == 0 {
		t.Fatal("Expected path, got nil")
	}
	if path[len(path)-1] != goal {
		t.Errorf("path ends at %v, want %v", path[len(path)-1], goal)
	}
	prev := start
	for i, c := range path {
		if c == start {
			t.Errorf("path[%d] revisits start", i)
		}
		if !g.IsFloor(c) {
			t.Errorf("path[%d] = %v is not floor", i, c)
		}
		step := prev.Manhattan(c)
		if diagonal {
			step = prev.Chebyshev(c)
		}
		if step != 1 {
			t.Errorf("path[%d] = %v is not adjacent to %v", i, c, prev)
		}
		prev = c
	}
}

// TestSearchOpenGridIsShortest verifies hop counts on a wall-free grid match
// the exact step distance for each adjacency.
func TestSearchOpenGridIsShortest(t *testing.T) {
	g := grid.New(12, 9)
	pairs := [][2]grid.Coord{
		{{Col: 0, Row: 0}, {Col: 11, Row: 8}},
		{{Col: 3, Row: 4}, {Col: 3, Row: 4 + 4}},
		{{Col: 10, Row: 1}, {Col: 2, Row: 7}},
		{{Col: 5, Row: 5}, {Col: 6, Row: 5}},
		{{Col: 0, Row: 8}, {Col: 11, Row: 0}},
	}

	tests := []struct {
		name string
		opts PathOptions
		dist func(a, b grid.Coord) int
	}{
		{"4-way euclidean", PathOptions{Heuristic: HeuristicEuclidean}, grid.Coord.Manhattan},
		{"4-way manhattan", PathOptions{Heuristic: HeuristicManhattan}, grid.Coord.Manhattan},
		{"4-way none", PathOptions{Heuristic: HeuristicNone}, grid.Coord.Manhattan},
		{"8-way chebyshev", PathOptions{Diagonal: true, Heuristic: HeuristicChebyshev}, grid.Coord.Chebyshev},
		{"8-way none", PathOptions{Diagonal: true, Heuristic: HeuristicNone}, grid.Coord.Chebyshev},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pf := NewPathfinder(g, tt.opts)
			for _, p := range pairs {
				path := pf.Search(p[0], p[1])
				checkPath(t, g, p[0], p[1], path, tt.opts.Diagonal)
				if want := tt.dist(p[0], p[1]); len(path) != want {
					t.Errorf("Search(%v, %v) = %d hops, want %d", p[0], p[1], len(path), want)
				}
			}
		})
	}
}

func TestSearchAroundWall(t *testing.T) {
	g := grid.New(7, 5)
	for r := 0; r < 4; r++ {
		g.SetTerrain(grid.Coord{Col: 3, Row: r}, grid.Wall)
	}
	start, goal := grid.Coord{Col: 0, Row: 0}, grid.Coord{Col: 6, Row: 0}

	pf := NewPathfinder(g, PathOptions{})
	path := pf.Search(start, goal)
	checkPath(t, g, start, goal, path, false)
	if len(path) != 14 {
		t.Errorf("detour = %d hops, want 14", len(path))
	}
}

// TestSearchEnclosedGoal verifies a walled-in goal yields no path.
func TestSearchEnclosedGoal(t *testing.T) {
	g := grid.New(9, 9)
	goal := grid.Coord{Col: 6, Row: 6}
	for _, c := range g.Neighbors(goal, true) {
		g.SetTerrain(c, grid.Wall)
	}

	for _, diagonal := range []bool{false, true} {
		pf := NewPathfinder(g, PathOptions{Diagonal: diagonal, CornerCutting: true})
		if path := pf.Search(grid.Coord{Col: 0, Row: 0}, goal); path != nil {
			t.Errorf("diagonal=%v: expected nil path, got %v", diagonal, path)
		}
		if s := pf.Stats(); s.Searches != 1 || s.Failures != 1 {
			t.Errorf("stats = %+v, want 1 search 1 failure", s)
		}
	}
}

func TestSearchDegenerate(t *testing.T) {
	g := grid.New(4, 4)
	g.SetTerrain(grid.Coord{Col: 3, Row: 3}, grid.Wall)
	pf := NewPathfinder(g, PathOptions{})

	tests := []struct {
		name        string
		start, goal grid.Coord
	}{
		{"start equals goal", grid.Coord{Col: 1, Row: 1}, grid.Coord{Col: 1, Row: 1}},
		{"goal is wall", grid.Coord{Col: 0, Row: 0}, grid.Coord{Col: 3, Row: 3}},
		{"goal out of bounds", grid.Coord{Col: 0, Row: 0}, grid.Coord{Col: 9, Row: 0}},
		{"start out of bounds", grid.Coord{Col: -1, Row: 0}, grid.Coord{Col: 2, Row: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if path := pf.Search(tt.start, tt.goal); len(path) != 0 {
				t.Errorf("Search(%v, %v) = %v, want empty", tt.start, tt.goal, path)
			}
		})
	}
}

func TestSearchIsolatedStart(t *testing.T) {
	g := grid.New(3, 3)
	for _, c := range g.Neighbors(grid.Coord{Col: 1, Row: 1}, true) {
		g.SetTerrain(c, grid.Wall)
	}
	g.SetTerrain(grid.Coord{Col: 2, Row: 2}, grid.Floor)

	pf := NewPathfinder(g, PathOptions{Diagonal: true})
	if path := pf.Search(grid.Coord{Col: 1, Row: 1}, grid.Coord{Col: 2, Row: 2}); path != nil {
		t.Errorf("corner-cut path allowed: %v", path)
	}
	if got := pf.Stats().Expansions; got != 1 {
		t.Errorf("expansions = %d, want 1", got)
	}

	pf = NewPathfinder(g, PathOptions{Diagonal: true, CornerCutting: true})
	path := pf.Search(grid.Coord{Col: 1, Row: 1}, grid.Coord{Col: 2, Row: 2})
	if len(path) != 1 || path[0] != (grid.Coord{Col: 2, Row: 2}) {
		t.Errorf("with corner cutting path = %v, want [(2,2)]", path)
	}
}

func TestPathOptionsFromConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.PathfindingConfig
		want    Heuristic
		wantErr bool
	}{
		{"euclidean 4-way", config.PathfindingConfig{Heuristic: "euclidean"}, HeuristicEuclidean, false},
		{"euclidean 8-way", config.PathfindingConfig{Heuristic: "euclidean", Diagonal: true}, HeuristicChebyshev, false},
		{"manhattan", config.PathfindingConfig{Heuristic: "manhattan"}, HeuristicManhattan, false},
		{"none", config.PathfindingConfig{Heuristic: "none"}, HeuristicNone, false},
		{"bad", config.PathfindingConfig{Heuristic: "zigzag"}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := PathOptionsFromConfig(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && opts.Heuristic != tt.want {
				t.Errorf("heuristic = %v, want %v", opts.Heuristic, tt.want)
			}
		})
	}
}
