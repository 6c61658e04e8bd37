package terminal

import (
	"context"
	"fmt"

	"github.com/gdamore/tcell/v2"
	log "github.com/sirupsen/logrus"

	"github.com/wricardo/unblock/game/engine"
)

const (
	// Screen position of the top-left wall cell
	originX = 2
	originY = 1

	// Each board cell is drawn two columns wide so it looks square
	cellWidth = 2

	statusRow = originY + engine.FrameSize + 1
	helpRow   = statusRow + 1
)

var (
	styleWall     = tcell.StyleDefault.Background(tcell.ColorGray)
	styleFloor    = tcell.StyleDefault.Foreground(tcell.ColorDarkGray)
	styleExit     = tcell.StyleDefault.Background(tcell.ColorGreen)
	stylePlayer   = tcell.StyleDefault.Background(tcell.ColorRed).Foreground(tcell.ColorWhite)
	styleVertical = tcell.StyleDefault.Background(tcell.ColorBlue).Foreground(tcell.ColorWhite)
	styleHoriz    = tcell.StyleDefault.Background(tcell.ColorOlive).Foreground(tcell.ColorWhite)
	styleText     = tcell.StyleDefault
)

const helpText = "Tab select  arrows/drag move  r reset  n next  p prev  q quit"

// drag tracks a pointer drag that started on a block
type drag struct {
	block engine.BlockID
	from  engine.Cell
}

// Game plays one engine on a tcell screen
type Game struct {
	screen   tcell.Screen
	engine   *engine.GameEngine
	selected engine.BlockID
	drag     *drag
	status   string
}

// NewGame creates a terminal game. The screen must already be initialized.
func NewGame(screen tcell.Screen, eng *engine.GameEngine) *Game {
	g := &Game{
		screen: screen,
		engine: eng,
	}
	g.selectPlayer()
	return g
}

// Selected returns the block arrow keys move
func (g *Game) Selected() engine.BlockID {
	return g.selected
}

// Status returns the text shown under the board
func (g *Game) Status() string {
	return g.status
}

// Run draws the board and handles input until the player quits or ctx is done
func (g *Game) Run(ctx context.Context) error {
	g.screen.EnableMouse()
	defer g.screen.DisableMouse()

	events := make(chan tcell.Event, 16)
	done := make(chan struct{})
	defer close(done)

	go func() {
		for {
			ev := g.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-done:
				return
			}
		}
	}()

	g.Draw()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-events:
			if !g.HandleEvent(ev) {
				return nil
			}
			g.Draw()
		}
	}
}

// HandleEvent applies one input event. It returns false when the player quits.
func (g *Game) HandleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		return g.handleKey(ev)
	case *tcell.EventMouse:
		g.handleMouse(ev)
	case *tcell.EventResize:
		g.screen.Sync()
	}
	return true
}

func (g *Game) handleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return false
	case tcell.KeyTab:
		g.cycleSelection(1)
	case tcell.KeyBacktab:
		g.cycleSelection(-1)
	case tcell.KeyUp:
		g.slideSelected(engine.Up)
	case tcell.KeyDown:
		g.slideSelected(engine.Down)
	case tcell.KeyLeft:
		g.slideSelected(engine.Left)
	case tcell.KeyRight:
		g.slideSelected(engine.Right)
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q', 'Q':
			return false
		case 'r', 'R':
			g.engine.Reset()
			g.status = "Level reset"
			g.selectPlayer()
		case 'n', 'N':
			g.changeLevel(g.engine.Next, "Already on the last level")
		case 'p', 'P':
			g.changeLevel(g.engine.Prev, "Already on the first level")
		}
	}
	return true
}

func (g *Game) handleMouse(ev *tcell.EventMouse) {
	x, y := ev.Position()
	cell, onBoard := cellAt(x, y)

	if ev.Buttons()&tcell.Button1 != 0 {
		if g.drag == nil && onBoard {
			if id := g.engine.Board().At(cell); id != 0 {
				g.drag = &drag{block: id, from: cell}
				g.selected = id
			}
		}
		return
	}

	// Button released
	if g.drag == nil {
		return
	}
	d := g.drag
	g.drag = nil

	blk, ok := g.engine.Board().Block(d.block)
	if !ok {
		return
	}
	steps := dragSteps(blk.Orientation, d.from, clampCell(x, y))
	if steps == 0 {
		return
	}
	g.move(d.block, steps)
}

// slideSelected moves the selected block one cell. Arrows across the
// block's axis are ignored.
func (g *Game) slideSelected(dir engine.Direction) {
	blk, ok := g.engine.Board().Block(g.selected)
	if !ok || blk.Orientation != dir.Orientation() {
		return
	}
	g.move(g.selected, dir.Sign())
}

func (g *Game) move(id engine.BlockID, steps int) {
	res, err := g.engine.Move(id, steps)
	if err != nil {
		g.status = err.Error()
		return
	}

	log.WithFields(log.Fields{"block": id, "requested": steps, "moved": res.Displacement}).Debug("terminal move")

	switch {
	case res.Advanced:
		g.status = fmt.Sprintf("Level complete! Now on level %d", g.engine.LevelIndex()+1)
		g.selectPlayer()
	case res.Complete:
		g.status = "Level complete! Press n for the next level"
	case res.Displacement == 0:
		g.status = fmt.Sprintf("Block %d is blocked", id)
	default:
		g.status = ""
	}
}

func (g *Game) changeLevel(step func() bool, unchanged string) {
	if !step() {
		g.status = unchanged
		return
	}
	g.status = ""
	g.selectPlayer()
}

func (g *Game) selectPlayer() {
	g.selected = g.engine.Board().PlayerID()
	g.drag = nil
}

// cycleSelection moves the selection through blocks in id order
func (g *Game) cycleSelection(delta int) {
	n := len(g.engine.Board().Blocks())
	if n == 0 {
		return
	}
	next := (int(g.selected)-1+delta)%n + 1
	if next <= 0 {
		next += n
	}
	g.selected = engine.BlockID(next)
}

// Draw renders the board, status line and key help
func (g *Game) Draw() {
	g.screen.Clear()

	board := g.engine.Board()
	state := g.engine.GetState()

	for fr := 0; fr < engine.FrameSize; fr++ {
		for fc := 0; fc < engine.FrameSize; fc++ {
			cell := engine.Cell{Row: fr - 1, Col: fc - 1}
			x := originX + fc*cellWidth
			y := originY + fr

			switch {
			case cell == state.Exit.Marker:
				g.fill(x, y, ' ', styleExit)
			case !cell.InBounds():
				g.fill(x, y, ' ', styleWall)
			default:
				id := board.At(cell)
				if id == 0 {
					g.fill(x, y, '·', styleFloor)
					continue
				}
				blk, _ := board.Block(id)
				style := blockStyle(blk)
				if id == g.selected {
					style = style.Bold(true).Reverse(true)
				}
				label := ' '
				if cell == blk.Head() {
					label = blockLabel(id)
				}
				g.fill(x, y, label, style)
			}
		}
	}

	header := fmt.Sprintf("%s  level %d/%d  moves %d", state.LevelName, state.Level+1, state.LevelCount, state.Moves)
	g.text(originX, 0, header)
	g.text(originX, statusRow, g.status)
	g.text(originX, helpRow, helpText)

	g.screen.Show()
}

func (g *Game) fill(x, y int, r rune, style tcell.Style) {
	g.screen.SetContent(x, y, r, nil, style)
	for i := 1; i < cellWidth; i++ {
		g.screen.SetContent(x+i, y, ' ', nil, style)
	}
}

func (g *Game) text(x, y int, s string) {
	for i, r := range []rune(s) {
		g.screen.SetContent(x+i, y, r, nil, styleText)
	}
}

func blockStyle(blk engine.Block) tcell.Style {
	switch {
	case blk.Player:
		return stylePlayer
	case blk.Orientation == engine.Vertical:
		return styleVertical
	default:
		return styleHoriz
	}
}

// blockLabel is 1-9 then A-Z
func blockLabel(id engine.BlockID) rune {
	if id < 10 {
		return rune('0' + id)
	}
	return rune('A' + id - 10)
}

// cellAt maps a screen position to a board cell. The second result is false
// outside the interior.
func cellAt(x, y int) (engine.Cell, bool) {
	c := clampCell(x, y)
	if x < originX || y < originY {
		return c, false
	}
	return c, c.InBounds()
}

// clampCell maps a screen position to board coordinates without bounds checks
func clampCell(x, y int) engine.Cell {
	fc := floorDiv(x-originX, cellWidth)
	return engine.Cell{Row: y - originY - 1, Col: fc - 1}
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && a < 0 {
		q--
	}
	return q
}

// dragSteps projects a drag onto a block's axis. The off-axis component is
// discarded.
func dragSteps(o engine.Orientation, from, to engine.Cell) int {
	if o == engine.Vertical {
		return to.Row - from.Row
	}
	return to.Col - from.Col
}
