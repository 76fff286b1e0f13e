package devtools

import (
	"bytes"
	"strings"
	"testing"

	"github.com/gookit/color"

	"github.com/pthm-cable/phage/components"
	"github.com/pthm-cable/phage/grid"
)

func sampleGrid() *grid.Grid {
	g := grid.New(5, 3)
	g.SetTerrain(grid.Coord{Col: 2, Row: 1}, grid.Wall)
	g.Tile(grid.Coord{Col: 0, Row: 0}).Place(1)
	g.Tile(grid.Coord{Col: 4, Row: 2}).Place(2)
	g.Tile(grid.Coord{Col: 1, Row: 2}).TryStartEnter(3)
	g.Tile(grid.Coord{Col: 1, Row: 0}).Concentration(grid.Virus).Set(0.2)
	g.Tile(grid.Coord{Col: 2, Row: 0}).Concentration(grid.Virus).Set(0.5)
	g.Tile(grid.Coord{Col: 3, Row: 0}).Concentration(grid.Virus).Set(1)
	g.Tile(grid.Coord{Col: 4, Row: 1}).Concentration(grid.Antibody).Set(0.3)
	return g
}

func kinds(id grid.UnitID) (components.Kind, bool) {
	switch id {
	case 1:
		return components.KindMacrophage, true
	case 2:
		return components.KindInfected, true
	}
	return 0, false
}

func TestDumpMap(t *testing.T) {
	tests := []struct {
		name string
		opts DumpOptions
		want string
	}{
		{
			name: "plain",
			opts: DumpOptions{Kind: kinds},
			want: "M:+%.\n" +
				"..#.~\n" +
				".*..X\n",
		},
		{
			name: "no kind lookup",
			opts: DumpOptions{},
			want: "?:+%.\n" +
				"..#.~\n" +
				".*..?\n",
		},
		{
			name: "clipped",
			opts: DumpOptions{Kind: kinds, MaxCols: 3},
			want: "M:+\n" +
				"..#\n" +
				".*.\n",
		},
		{
			name: "fog",
			opts: DumpOptions{Kind: kinds, Fog: true},
			want: "     \n" +
				"  #  \n" +
				"     \n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := DumpMap(&buf, sampleGrid(), tt.opts); err != nil {
				t.Fatalf("DumpMap: %v", err)
			}
			if got := buf.String(); got != tt.want {
				t.Errorf("DumpMap() =\n%s\nwant\n%s", got, tt.want)
			}
		})
	}
}

func TestDumpMapFogShowsVisible(t *testing.T) {
	g := sampleGrid()
	g.Tile(grid.Coord{Col: 0, Row: 0}).SetVisibility(grid.Visible)
	g.Tile(grid.Coord{Col: 1, Row: 0}).SetVisibility(grid.Visible)

	var buf bytes.Buffer
	if err := DumpMap(&buf, g, DumpOptions{Kind: kinds, Fog: true}); err != nil {
		t.Fatal(err)
	}
	first, _, _ := strings.Cut(buf.String(), "\n")
	if first != "M:   " {
		t.Errorf("first row = %q, want %q", first, "M:   ")
	}
}

func TestDumpMapColorStripsToPlain(t *testing.T) {
	var plain, colored bytes.Buffer
	if err := DumpMap(&plain, sampleGrid(), DumpOptions{Kind: kinds}); err != nil {
		t.Fatal(err)
	}
	if err := DumpMap(&colored, sampleGrid(), DumpOptions{Kind: kinds, Color: true}); err != nil {
		t.Fatal(err)
	}
	if got := color.ClearCode(colored.String()); got != plain.String() {
		t.Errorf("colour dump without codes =\n%s\nwant\n%s", got, plain.String())
	}
}
