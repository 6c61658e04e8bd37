package engine

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Level file characters
const (
	charWall        = '&'
	charExit        = '^'
	charPlayer      = '='
	charVerticalA   = '|'
	charVerticalB   = '('
	charHorizontalA = '-'
	charHorizontalB = '_'
	charFloor       = '*'
	charComment     = '#'
)

// symbol is the decoded meaning of a level file character. It only exists
// while parsing; boards know blocks and orientations, not characters.
type symbol int

const (
	symEmpty symbol = iota
	symWall
	symExit
	symPlayer
	symVerticalA
	symVerticalB
	symHorizontalA
	symHorizontalB
)

func decodeSymbol(ch byte) (symbol, bool) {
	switch ch {
	case charFloor:
		return symEmpty, true
	case charWall:
		return symWall, true
	case charExit:
		return symExit, true
	case charPlayer:
		return symPlayer, true
	case charVerticalA:
		return symVerticalA, true
	case charVerticalB:
		return symVerticalB, true
	case charHorizontalA:
		return symHorizontalA, true
	case charHorizontalB:
		return symHorizontalB, true
	default:
		return symEmpty, false
	}
}

func (s symbol) isSegment() bool {
	return s >= symPlayer
}

// line is one input line with its position in the original data.
type line struct {
	text   string
	num    int
	offset int
}

func (l line) filler() bool {
	return l.text == "" || l.text[0] == charComment
}

// splitLines splits data on \n, dropping a trailing \r and trailing blanks
// from every line.
func splitLines(data []byte) []line {
	var lines []line
	start, num := 0, 1
	for i := 0; i <= len(data); i++ {
		if i < len(data) && data[i] != '\n' {
			continue
		}
		if i == len(data) && start == len(data) {
			break
		}
		text := strings.TrimRight(string(data[start:i]), "\r")
		text = strings.TrimRight(text, " \t")
		lines = append(lines, line{text: text, num: num, offset: start})
		start = i + 1
		num++
	}
	return lines
}

// cellSuffix returns, for every line index i, the number of level
// characters in lines[i:] outside comments. The extra last entry is zero.
func cellSuffix(lines []line) []int {
	counts := make([]int, len(lines)+1)
	for i := len(lines) - 1; i >= 0; i-- {
		counts[i] = counts[i+1]
		if lines[i].filler() {
			continue
		}
		for _, r := range lines[i].text {
			if r != ' ' && r != '\t' {
				counts[i]++
			}
		}
	}
	return counts
}

// Parse reads every level in data. Comment lines (starting with '#') and
// blank lines between levels are skipped. When fewer characters than one
// full level block remain, parsing stops and the levels read so far are
// returned without error. Any level block that is attempted and fails
// validation fails the whole parse with a *ParseError.
func Parse(data []byte, source string) ([]*Level, error) {
	lines := splitLines(data)
	remaining := cellSuffix(lines)
	var levels []*Level

	i := 0
	for {
		for i < len(lines) && lines[i].filler() {
			i++
		}
		if i >= len(lines) {
			break
		}
		if remaining[i] < FrameSize*FrameSize {
			break
		}

		p := &levelParser{source: source, index: len(levels), lines: lines, start: i}
		level, err := p.parse()
		if err != nil {
			return nil, err
		}
		levels = append(levels, level)
		i += FrameSize
	}

	return levels, nil
}

// ParseString is a convenience wrapper around Parse.
func ParseString(data, source string) ([]*Level, error) {
	return Parse([]byte(data), source)
}

type levelParser struct {
	source string
	index  int
	lines  []line
	start  int

	grid [FrameSize][FrameSize]symbol
	rows []string
}

// fail builds a ParseError located at frame cell (fr, fc); fc < 0 points at
// the start of the line.
func (p *levelParser) fail(sentinel error, fr, fc int, format string, args ...interface{}) *ParseError {
	idx := p.start + fr
	if idx >= len(p.lines) {
		idx = len(p.lines) - 1
	}
	ln := p.lines[idx]
	e := &ParseError{
		Source: p.source,
		Level:  p.index,
		Line:   ln.num,
		Offset: ln.offset,
		Err:    sentinel,
		Detail: fmt.Sprintf(format, args...),
	}
	if fc >= 0 {
		e.Offset += fc
		cell := Cell{Row: fr - 1, Col: fc - 1}
		e.Cell = &cell
	}
	return e
}

func (p *levelParser) parse() (*Level, error) {
	if err := p.readGrid(); err != nil {
		return nil, err
	}
	exitMarker, err := p.checkFrame()
	if err != nil {
		return nil, err
	}
	blocks, player, err := p.assemble()
	if err != nil {
		return nil, err
	}
	exit, err := p.resolveExit(exitMarker, blocks[player-1])
	if err != nil {
		return nil, err
	}

	return &Level{
		index:  p.index,
		source: p.source,
		blocks: blocks,
		exit:   exit,
		player: player,
		rows:   p.rows,
	}, nil
}

// readGrid decodes FrameSize lines of FrameSize characters.
func (p *levelParser) readGrid() error {
	p.rows = make([]string, 0, FrameSize)
	for fr := 0; fr < FrameSize; fr++ {
		if p.start+fr >= len(p.lines) {
			return p.fail(ErrIncompleteLevelLine, fr, -1, "input ended after %d of %d rows", fr, FrameSize)
		}
		ln := p.lines[p.start+fr]
		if ln.filler() {
			return p.fail(ErrIncompleteLevelLine, fr, -1, "row %d is blank or a comment", fr+1)
		}
		fc := 0
		for offset, r := range ln.text {
			var sym symbol
			ok := r < utf8.RuneSelf
			if ok {
				sym, ok = decodeSymbol(byte(r))
			}
			if !ok {
				return p.badCharacter(fr, fc, offset, r)
			}
			if fc < FrameSize {
				p.grid[fr][fc] = sym
			}
			fc++
		}
		if fc != FrameSize {
			return p.fail(ErrIncompleteLevelLine, fr, -1, "row %d has %d characters, want %d", fr+1, fc, FrameSize)
		}
		p.rows = append(p.rows, ln.text)
	}
	return nil
}

// badCharacter reports rune r found at character column fc and byte offset
// within row fr.
func (p *levelParser) badCharacter(fr, fc, offset int, r rune) *ParseError {
	if fc >= FrameSize {
		e := p.fail(ErrInvalidCharacter, fr, -1, "unexpected %q in column %d", r, fc+1)
		e.Offset += offset
		return e
	}
	e := p.fail(ErrInvalidCharacter, fr, fc, "unexpected %q", r)
	e.Offset += offset - fc
	return e
}

func onRing(fr, fc int) bool {
	return fr == 0 || fc == 0 || fr == FrameSize-1 || fc == FrameSize-1
}

func isCorner(fr, fc int) bool {
	return (fr == 0 || fr == FrameSize-1) && (fc == 0 || fc == FrameSize-1)
}

// checkFrame verifies the wall ring, rejects walls and exits inside the
// interior, and returns the single exit marker in interior coordinates.
func (p *levelParser) checkFrame() (Cell, error) {
	var markers []Cell
	for fr := 0; fr < FrameSize; fr++ {
		for fc := 0; fc < FrameSize; fc++ {
			sym := p.grid[fr][fc]
			switch {
			case onRing(fr, fc) && sym == symExit:
				if isCorner(fr, fc) {
					return Cell{}, p.fail(ErrInvalidExit, fr, fc, "exit marker in a corner")
				}
				markers = append(markers, Cell{Row: fr - 1, Col: fc - 1})
			case onRing(fr, fc) && sym != symWall:
				return Cell{}, p.fail(ErrMissingWall, fr, fc, "wall ring is open")
			case !onRing(fr, fc) && sym == symWall:
				return Cell{}, p.fail(ErrInvalidCharacter, fr, fc, "wall inside the playable area")
			case !onRing(fr, fc) && sym == symExit:
				return Cell{}, p.fail(ErrInvalidExit, fr, fc, "exit marker inside the playable area")
			}
		}
	}
	switch len(markers) {
	case 0:
		return Cell{}, p.fail(ErrInvalidExit, 0, -1, "no exit marker")
	case 1:
		return markers[0], nil
	default:
		m := markers[1]
		return Cell{}, p.fail(ErrInvalidExit, m.Row+1, m.Col+1, "%d exit markers", len(markers))
	}
}

// interior returns the symbol at interior cell (r, c).
func (p *levelParser) interior(r, c int) symbol {
	return p.grid[r+1][c+1]
}

// extend collects the run of cells sharing the symbol at (r, c) walking
// in direction (dr, dc). Runs break on any symbol change.
func (p *levelParser) extend(assigned *[GridSize][GridSize]bool, r, c, dr, dc int) []Cell {
	sym := p.interior(r, c)
	cells := []Cell{{Row: r, Col: c}}
	for cur := (Cell{Row: r + dr, Col: c + dc}); cur.InBounds(); cur = cur.Add(dr, dc) {
		if p.interior(cur.Row, cur.Col) != sym || assigned[cur.Row][cur.Col] {
			break
		}
		cells = append(cells, cur)
	}
	return cells
}

// assemble groups segment cells into blocks in a single top-to-bottom,
// left-to-right scan. The first cell of a run seen by the scan is always its
// top/left end, so runs only ever extend right or down.
func (p *levelParser) assemble() ([]Block, BlockID, error) {
	var assigned [GridSize][GridSize]bool
	var blocks []Block
	var player BlockID

	for r := 0; r < GridSize; r++ {
		for c := 0; c < GridSize; c++ {
			sym := p.interior(r, c)
			if !sym.isSegment() || assigned[r][c] {
				continue
			}

			var cells []Cell
			var orientation Orientation
			switch sym {
			case symVerticalA, symVerticalB:
				orientation = Vertical
				cells = p.extend(&assigned, r, c, 1, 0)
			case symHorizontalA, symHorizontalB:
				orientation = Horizontal
				cells = p.extend(&assigned, r, c, 0, 1)
			case symPlayer:
				orientation = Horizontal
				cells = p.extend(&assigned, r, c, 0, 1)
				if len(cells) == 1 {
					orientation = Vertical
					cells = p.extend(&assigned, r, c, 1, 0)
				}
			}

			if len(cells) < MinBlockLength || len(cells) > MaxBlockLength {
				return nil, 0, p.fail(ErrInvalidBlockLength, r+1, c+1, "%s run of %d cells", orientation, len(cells))
			}
			for _, cell := range cells {
				assigned[cell.Row][cell.Col] = true
			}

			block := Block{
				ID:          BlockID(len(blocks) + 1),
				Orientation: orientation,
				Cells:       cells,
			}
			if sym == symPlayer {
				if player != 0 {
					return nil, 0, p.fail(ErrMultiplePlayers, r+1, c+1, "second player block")
				}
				if len(cells) != PlayerLength {
					return nil, 0, p.fail(ErrInvalidBlockLength, r+1, c+1, "player block has %d cells, want %d", len(cells), PlayerLength)
				}
				block.Player = true
				player = block.ID
			}
			blocks = append(blocks, block)
		}
	}

	if player == 0 {
		return nil, 0, p.fail(ErrMissingPlayer, 0, -1, "no %q cells", charPlayer)
	}
	return blocks, player, nil
}

// resolveExit checks that the marker lies on the player's line of travel and
// computes the goal cells flush with it.
func (p *levelParser) resolveExit(marker Cell, player Block) (Exit, error) {
	exit := Exit{Marker: marker}
	switch player.Orientation {
	case Horizontal:
		row := player.Head().Row
		if marker.Row != row || (marker.Col != -1 && marker.Col != GridSize) {
			return Exit{}, p.fail(ErrInvalidExit, marker.Row+1, marker.Col+1,
				"exit is not in the left or right wall on the player's row %d", row)
		}
		if marker.Col == GridSize {
			exit.Cells = [2]Cell{{Row: row, Col: GridSize - 2}, {Row: row, Col: GridSize - 1}}
		} else {
			exit.Cells = [2]Cell{{Row: row, Col: 0}, {Row: row, Col: 1}}
		}
	case Vertical:
		col := player.Head().Col
		if marker.Col != col || (marker.Row != -1 && marker.Row != GridSize) {
			return Exit{}, p.fail(ErrInvalidExit, marker.Row+1, marker.Col+1,
				"exit is not in the top or bottom wall on the player's column %d", col)
		}
		if marker.Row == GridSize {
			exit.Cells = [2]Cell{{Row: GridSize - 2, Col: col}, {Row: GridSize - 1, Col: col}}
		} else {
			exit.Cells = [2]Cell{{Row: 0, Col: col}, {Row: 1, Col: col}}
		}
	}
	return exit, nil
}
