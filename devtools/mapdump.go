// Package devtools renders a grid as text for debugging headless runs.
package devtools

import (
	"bufio"
	"io"
	"os"

	"github.com/gookit/color"
	"golang.org/x/term"

	"github.com/pthm-cable/phage/components"
	"github.com/pthm-cable/phage/grid"
)

// Glyphs used by DumpMap.
const (
	GlyphWall       = '#'
	GlyphFloor      = '.'
	GlyphFog        = ' '
	GlyphPending    = '*'
	GlyphUnknown    = '?'
	GlyphAntibody   = '~'
	GlyphMacrophage = 'M'
	GlyphCivilian   = 'c'
	GlyphInfected   = 'X'
)

// virusShades maps virus balance bands to glyphs, lightest first.
var virusShades = []rune{':', '+', '%'}

var (
	styleWall     = color.Style{color.FgGray}
	styleFloor    = color.Style{color.FgDarkGray}
	styleVirus    = color.Style{color.FgRed}
	styleVirusHot = color.Style{color.FgLightRed, color.OpBold}
	styleAntibody = color.Style{color.FgCyan}
	styleMacro    = color.Style{color.FgWhite, color.OpBold}
	styleCivilian = color.Style{color.FgYellow}
	styleInfected = color.Style{color.FgMagenta, color.OpBold}
	stylePending  = color.Style{color.FgGreen}
)

// DumpOptions controls DumpMap.
type DumpOptions struct {
	// Color wraps glyphs in ANSI styles.
	Color bool

	// Fog blanks floor tiles that are not Visible. Walls always show.
	Fog bool

	// MaxCols clips each row; 0 draws the full width.
	MaxCols int

	// Kind resolves a unit id to its kind. Without it units draw as '?'.
	Kind func(grid.UnitID) (components.Kind, bool)
}

// StdoutOptions returns options suited to the process's stdout: colour and
// clipping only when it is a terminal.
func StdoutOptions() DumpOptions {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return DumpOptions{}
	}
	opts := DumpOptions{Color: true}
	if width, _, err := term.GetSize(fd); err == nil {
		opts.MaxCols = width
	}
	return opts
}

// DumpMap writes one line per grid row.
func DumpMap(w io.Writer, g *grid.Grid, opts DumpOptions) error {
	bw := bufio.NewWriter(w)
	cols := g.Cols()
	if opts.MaxCols > 0 && opts.MaxCols < cols {
		cols = opts.MaxCols
	}
	for row := 0; row < g.Rows(); row++ {
		for col := 0; col < cols; col++ {
			glyph, style := tileGlyph(g.Tile(grid.Coord{Col: col, Row: row}), opts)
			if opts.Color && style != nil {
				bw.WriteString(style.Sprint(string(glyph)))
			} else {
				bw.WriteRune(glyph)
			}
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

func tileGlyph(t *grid.Tile, opts DumpOptions) (rune, *color.Style) {
	if !t.IsFloor() {
		return GlyphWall, &styleWall
	}
	if opts.Fog && t.Visibility() != grid.Visible {
		return GlyphFog, nil
	}

	switch t.Occupancy() {
	case grid.Occupied:
		return unitGlyph(t.Unit(), opts)
	case grid.InboundPending:
		return GlyphPending, &stylePending
	}

	if v := t.Concentration(grid.Virus).Balance(); v > 0 {
		band := min(int(v*float64(len(virusShades))), len(virusShades)-1)
		if band == len(virusShades)-1 {
			return virusShades[band], &styleVirusHot
		}
		return virusShades[band], &styleVirus
	}
	if !t.Concentration(grid.Antibody).IsEmpty() {
		return GlyphAntibody, &styleAntibody
	}
	return GlyphFloor, &styleFloor
}

func unitGlyph(id grid.UnitID, opts DumpOptions) (rune, *color.Style) {
	if opts.Kind == nil {
		return GlyphUnknown, nil
	}
	k, ok := opts.Kind(id)
	if !ok {
		return GlyphUnknown, nil
	}
	switch k {
	case components.KindMacrophage:
		return GlyphMacrophage, &styleMacro
	case components.KindCivilian:
		return GlyphCivilian, &styleCivilian
	case components.KindInfected:
		return GlyphInfected, &styleInfected
	}
	return GlyphUnknown, nil
}
