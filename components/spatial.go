package components

import "github.com/pthm-cable/phage/grid"

// Position represents a unit's world position in pixels.
type Position struct {
	X, Y float32
}

// TileCenter returns the pixel centre of tile c for a given tile size.
func TileCenter(c grid.Coord, tileSize float32) Position {
	return Position{
		X: (float32(c.Col) + 0.5) * tileSize,
		Y: (float32(c.Row) + 0.5) * tileSize,
	}
}

// Lerp interpolates between two positions; t is clamped to [0,1].
func Lerp(a, b Position, t float64) Position {
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	f := float32(t)
	return Position{
		X: a.X + (b.X-a.X)*f,
		Y: a.Y + (b.Y-a.Y)*f,
	}
}
