package engine

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func level(rows ...string) string {
	return strings.Join(rows, "\n") + "\n"
}

// Player on row 2 with a clear run to the exit at (2,6).
var openLevel = level(
	"&&&&&&&&",
	"&|*****&",
	"&|*****&",
	"&==****^",
	"&***--*&",
	"&******&",
	"&******&",
	"&&&&&&&&",
)

// Same as openLevel with a vertical block on (1,3)-(2,3).
var blockedLevel = level(
	"&&&&&&&&",
	"&|*****&",
	"&|**|**&",
	"&==*|**^",
	"&***--*&",
	"&******&",
	"&******&",
	"&&&&&&&&",
)

// Vertical player in column 2 heading for the top wall.
var verticalLevel = level(
	"&&&^&&&&",
	"&******&",
	"&--__**&",
	"&******&",
	"&**=***&",
	"&**=***&",
	"&******&",
	"&&&&&&&&",
)

func TestParse_SingleLevel(t *testing.T) {
	levels, err := ParseString(openLevel, "test")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(levels) != 1 {
		t.Fatalf("Expected 1 level, got %d", len(levels))
	}

	lvl := levels[0]
	if lvl.Index() != 0 || lvl.Source() != "test" || lvl.Name() != "test#1" {
		t.Errorf("Unexpected identity: index=%d source=%q name=%q", lvl.Index(), lvl.Source(), lvl.Name())
	}

	blocks := lvl.Blocks()
	if len(blocks) != 3 {
		t.Fatalf("Expected 3 blocks, got %d", len(blocks))
	}

	tests := []struct {
		id          BlockID
		orientation Orientation
		cells       []Cell
		player      bool
	}{
		{1, Vertical, []Cell{{0, 0}, {1, 0}}, false},
		{2, Horizontal, []Cell{{2, 0}, {2, 1}}, true},
		{3, Horizontal, []Cell{{3, 3}, {3, 4}}, false},
	}
	for _, tt := range tests {
		b := blocks[tt.id-1]
		if b.ID != tt.id || b.Orientation != tt.orientation || b.Player != tt.player {
			t.Errorf("Block %d: got id=%d orientation=%s player=%v", tt.id, b.ID, b.Orientation, b.Player)
		}
		if !sameCells(b.Cells, tt.cells) {
			t.Errorf("Block %d: expected cells %v, got %v", tt.id, tt.cells, b.Cells)
		}
	}

	if lvl.PlayerID() != 2 {
		t.Errorf("Expected player id 2, got %d", lvl.PlayerID())
	}
	exit := lvl.Exit()
	if exit.Marker != (Cell{2, 6}) {
		t.Errorf("Expected exit marker (2,6), got %v", exit.Marker)
	}
	if exit.Cells != [2]Cell{{2, 4}, {2, 5}} {
		t.Errorf("Expected goal cells (2,4),(2,5), got %v", exit.Cells)
	}
}

func TestParse_CommentAndTrailingGarbage(t *testing.T) {
	data := "# test\n" + openLevel + "abcd"

	levels, err := ParseString(data, "")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(levels) != 1 {
		t.Fatalf("Expected exactly 1 level, got %d", len(levels))
	}
}

func TestParse_MultipleLevels(t *testing.T) {
	data := "# one\n# still one\n" + openLevel + "\n\n# two\n" + blockedLevel + "#three\n" + verticalLevel
	data = strings.ReplaceAll(data, "\n", "\r\n")

	levels, err := ParseString(data, "pack")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(levels) != 3 {
		t.Fatalf("Expected 3 levels, got %d", len(levels))
	}
	for i, lvl := range levels {
		if lvl.Index() != i {
			t.Errorf("Level %d has index %d", i, lvl.Index())
		}
	}
	if len(levels[1].Blocks()) != 4 {
		t.Errorf("Expected 4 blocks in second level, got %d", len(levels[1].Blocks()))
	}
}

func TestParse_VerticalPlayer(t *testing.T) {
	levels, err := ParseString(verticalLevel, "")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	lvl := levels[0]
	player := lvl.Blocks()[lvl.PlayerID()-1]
	if player.Orientation != Vertical {
		t.Errorf("Expected vertical player, got %s", player.Orientation)
	}
	if !sameCells(player.Cells, []Cell{{3, 2}, {4, 2}}) {
		t.Errorf("Unexpected player cells %v", player.Cells)
	}
	if lvl.Exit().Cells != [2]Cell{{0, 2}, {1, 2}} {
		t.Errorf("Unexpected goal cells %v", lvl.Exit().Cells)
	}
}

func TestParse_AlternatingSymbolsSplitRuns(t *testing.T) {
	data := level(
		"&&&&&&&&",
		"&--__*|&",
		"&*****|&",
		"&==***(^",
		"&*****(&",
		"&******&",
		"&******&",
		"&&&&&&&&",
	)
	levels, err := ParseString(data, "")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	blocks := levels[0].Blocks()
	if len(blocks) != 5 {
		t.Fatalf("Expected 5 blocks, got %d: %+v", len(blocks), blocks)
	}
	want := [][]Cell{
		{{0, 0}, {0, 1}},
		{{0, 2}, {0, 3}},
		{{0, 5}, {1, 5}},
		{{2, 0}, {2, 1}},
		{{2, 5}, {3, 5}},
	}
	for i, cells := range want {
		if !sameCells(blocks[i].Cells, cells) {
			t.Errorf("Block %d: expected %v, got %v", i+1, cells, blocks[i].Cells)
		}
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want error
		cell *Cell
	}{
		{
			name: "missing player",
			data: level(
				"&&&&&&&&",
				"&|*****&",
				"&|*****&",
				"&******^",
				"&***--*&",
				"&******&",
				"&******&",
				"&&&&&&&&",
			),
			want: ErrMissingPlayer,
		},
		{
			name: "multiple players",
			data: level(
				"&&&&&&&&",
				"&***==*&",
				"&******&",
				"&==****^",
				"&******&",
				"&******&",
				"&******&",
				"&&&&&&&&",
			),
			want: ErrMultiplePlayers,
			cell: &Cell{2, 0},
		},
		{
			name: "player of length 3",
			data: level(
				"&&&&&&&&",
				"&******&",
				"&******&",
				"&===***^",
				"&******&",
				"&******&",
				"&******&",
				"&&&&&&&&",
			),
			want: ErrInvalidBlockLength,
			cell: &Cell{2, 0},
		},
		{
			name: "single cell block",
			data: level(
				"&&&&&&&&",
				"&******&",
				"&***-**&",
				"&==****^",
				"&******&",
				"&******&",
				"&******&",
				"&&&&&&&&",
			),
			want: ErrInvalidBlockLength,
			cell: &Cell{1, 3},
		},
		{
			name: "block of length 4",
			data: level(
				"&&&&&&&&",
				"&******&",
				"&******&",
				"&==****^",
				"&******&",
				"&*____*&",
				"&******&",
				"&&&&&&&&",
			),
			want: ErrInvalidBlockLength,
			cell: &Cell{4, 1},
		},
		{
			name: "exit not on the player's row",
			data: level(
				"&&&&&&&&",
				"&******&",
				"&******^",
				"&==****&",
				"&******&",
				"&******&",
				"&******&",
				"&&&&&&&&",
			),
			want: ErrInvalidExit,
			cell: &Cell{1, 6},
		},
		{
			name: "exit across the player's axis",
			data: level(
				"&&&&&&&&",
				"&******&",
				"&******&",
				"&==****&",
				"&******&",
				"&******&",
				"&******&",
				"&^&&&&&&",
			),
			want: ErrInvalidExit,
		},
		{
			name: "exit in a corner",
			data: level(
				"&&&&&&&^",
				"&******&",
				"&******&",
				"&==****&",
				"&******&",
				"&******&",
				"&******&",
				"&&&&&&&&",
			),
			want: ErrInvalidExit,
			cell: &Cell{-1, 6},
		},
		{
			name: "no exit",
			data: level(
				"&&&&&&&&",
				"&******&",
				"&******&",
				"&==****&",
				"&******&",
				"&******&",
				"&******&",
				"&&&&&&&&",
			),
			want: ErrInvalidExit,
		},
		{
			name: "two exits",
			data: level(
				"&&&&&&&&",
				"&******&",
				"&******&",
				"^==****^",
				"&******&",
				"&******&",
				"&******&",
				"&&&&&&&&",
			),
			want: ErrInvalidExit,
		},
		{
			name: "exit inside the board",
			data: level(
				"&&&&&&&&",
				"&**^***&",
				"&******&",
				"&==****^",
				"&******&",
				"&******&",
				"&******&",
				"&&&&&&&&",
			),
			want: ErrInvalidExit,
			cell: &Cell{0, 2},
		},
		{
			name: "gap in the wall",
			data: level(
				"&&&&&&&&",
				"&******&",
				"&******&",
				"&==****^",
				"&******&",
				"*******&",
				"&******&",
				"&&&&&&&&",
			),
			want: ErrMissingWall,
			cell: &Cell{4, -1},
		},
		{
			name: "unknown character",
			data: level(
				"&&&&&&&&",
				"&******&",
				"&**x***&",
				"&==****^",
				"&******&",
				"&******&",
				"&******&",
				"&&&&&&&&",
			),
			want: ErrInvalidCharacter,
			cell: &Cell{1, 2},
		},
		{
			name: "wall inside the board",
			data: level(
				"&&&&&&&&",
				"&******&",
				"&**&***&",
				"&==****^",
				"&******&",
				"&******&",
				"&******&",
				"&&&&&&&&",
			),
			want: ErrInvalidCharacter,
			cell: &Cell{1, 2},
		},
		{
			name: "non-ASCII character",
			data: level(
				"&&&&&&&&",
				"&******&",
				"&*****é&",
				"&==****^",
				"&******&",
				"&******&",
				"&******&",
				"&&&&&&&&",
			),
			want: ErrInvalidCharacter,
			cell: &Cell{1, 5},
		},
		{
			name: "bad character past the frame",
			data: level(
				"&&&&&&&&",
				"&******&",
				"&******&x",
				"&==****^",
				"&******&",
				"&******&",
				"&******&",
				"&&&&&&&&",
			),
			want: ErrInvalidCharacter,
		},
		{
			name: "long line",
			data: level(
				"&&&&&&&&",
				"&******&",
				"&******&*",
				"&==****^",
				"&******&",
				"&******&",
				"&******&",
				"&&&&&&&&",
			),
			want: ErrIncompleteLevelLine,
		},
		{
			name: "comment inside a level",
			data: level(
				"&&&&&&&&",
				"&******&",
				"&******&",
				"# oops",
				"&==****^",
				"&******&",
				"&******&",
				"&******&",
				"&&&&&&&&",
			),
			want: ErrIncompleteLevelLine,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			levels, err := ParseString(tt.data, "bad")
			if err == nil {
				t.Fatalf("Expected error, got %d levels", len(levels))
			}
			if levels != nil {
				t.Errorf("Expected no levels on error, got %d", len(levels))
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("Expected %v, got %v", tt.want, err)
			}

			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("Expected *ParseError, got %T", err)
			}
			if pe.Level != 0 || pe.Source != "bad" {
				t.Errorf("Unexpected location: level=%d source=%q", pe.Level, pe.Source)
			}
			if tt.cell != nil {
				if pe.Cell == nil {
					t.Fatalf("Expected error at %v, got no cell", *tt.cell)
				}
				if *pe.Cell != *tt.cell {
					t.Errorf("Expected error at %v, got %v", *tt.cell, *pe.Cell)
				}
			}
		})
	}
}

func TestParse_ErrorLocation(t *testing.T) {
	bad := strings.Replace(openLevel, "&==****^", "&******^", 1)
	data := "# first\n" + openLevel + "# second\n" + bad

	_, err := ParseString(data, "pack")
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("Expected *ParseError, got %v", err)
	}
	if pe.Level != 1 {
		t.Errorf("Expected failing level 1, got %d", pe.Level)
	}
	// "# first" + 8 rows + "# second" puts the second level on line 11.
	if pe.Line != 11 {
		t.Errorf("Expected line 11, got %d", pe.Line)
	}
	offset := len("# first\n") + len(openLevel) + len("# second\n")
	if pe.Offset != offset {
		t.Errorf("Expected offset %d, got %d", offset, pe.Offset)
	}
	if !strings.Contains(pe.Error(), "pack: level 1") {
		t.Errorf("Error message lacks location: %q", pe.Error())
	}
}

func TestParse_NonASCIIOffset(t *testing.T) {
	data := level(
		"&&&&&&&&",
		"&éé****&",
		"&******&",
		"&==****^",
		"&******&",
		"&******&",
		"&******&",
		"&&&&&&&&",
	)

	_, err := ParseString(data, "")
	var pe *ParseError
	if !errors.As(err, &pe) || !errors.Is(err, ErrInvalidCharacter) {
		t.Fatalf("Expected invalid character, got %v", err)
	}
	if pe.Line != 2 || pe.Offset != len("&&&&&&&&\n&") {
		t.Errorf("Expected line 2 offset %d, got line %d offset %d", len("&&&&&&&&\n&"), pe.Line, pe.Offset)
	}
	if pe.Cell == nil || *pe.Cell != (Cell{0, 0}) {
		t.Errorf("Expected cell (0,0), got %v", pe.Cell)
	}
}

func TestParse_LargePack(t *testing.T) {
	if testing.Short() {
		t.Skip("large pack")
	}
	const n = 20000
	data := strings.Repeat("# level\n"+openLevel, n)

	start := time.Now()
	levels, err := ParseString(data, "big")
	elapsed := time.Since(start)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(levels) != n {
		t.Fatalf("Expected %d levels, got %d", n, len(levels))
	}
	if levels[n-1].Index() != n-1 {
		t.Errorf("Expected last index %d, got %d", n-1, levels[n-1].Index())
	}
	if elapsed > 10*time.Second {
		t.Errorf("Parsing %d levels took %v", n, elapsed)
	}
}

func BenchmarkParse(b *testing.B) {
	for _, n := range []int{100, 1000, 10000} {
		data := []byte(strings.Repeat(openLevel, n))
		b.Run(fmt.Sprintf("levels=%d", n), func(b *testing.B) {
			b.SetBytes(int64(len(data)))
			for i := 0; i < b.N; i++ {
				if _, err := Parse(data, "bench"); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func TestParse_Truncation(t *testing.T) {
	tests := []struct {
		name  string
		data  string
		count int
	}{
		{"empty", "", 0},
		{"only comments", "# a\n# b\n", 0},
		{"comment without level", openLevel + "# dangling\n", 1},
		{"short tail", openLevel + "&&&&&&&&\n&******&\n", 1},
		{"seven rows", "&&&&&&&&\n&******&\n&******&\n&==****^\n&******&\n&******&\n&&&&&&&&\n", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			levels, err := ParseString(tt.data, "")
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if len(levels) != tt.count {
				t.Errorf("Expected %d levels, got %d", tt.count, len(levels))
			}
		})
	}
}

func TestParse_DisjointInBoundsBlocks(t *testing.T) {
	for _, data := range []string{openLevel, blockedLevel, verticalLevel} {
		levels, err := ParseString(data, "")
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		seen := make(map[Cell]BlockID)
		for _, b := range levels[0].Blocks() {
			for _, c := range b.Cells {
				if !c.InBounds() {
					t.Errorf("Block %d cell %v out of bounds", b.ID, c)
				}
				if other, ok := seen[c]; ok {
					t.Errorf("Cell %v shared by blocks %d and %d", c, other, b.ID)
				}
				seen[c] = b.ID
			}
		}
	}
}

func sameCells(a, b []Cell) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
