package engine

import "fmt"

// Engine provides the main interface for puzzle operations
type Engine interface {
	// Game state
	GetState() *GameState
	Board() *Board
	Level() *Level
	IsComplete() bool
	Moves() int

	// Movement
	Move(id BlockID, steps int) (*MoveResult, error)
	Slide(id BlockID, dir Direction, steps int) (*MoveResult, error)
	CanMove(id BlockID, dir Direction) bool
	GetPossibleMoves() []MoveOption

	// Level sequencing
	Reset() *GameState
	Next() bool
	Prev() bool
	Goto(index int) bool
	LevelCount() int
	LevelIndex() int

	// Queries
	Blocks() []Block
	Exit() Exit
}

// Options tune how a GameEngine steps through its levels.
type Options struct {
	Wrap        WrapPolicy
	AutoAdvance bool // advance to the next level right after a completing move
}

// GameEngine implements the Engine interface on top of a Sequencer and the
// Board of its current level.
type GameEngine struct {
	seq   *Sequencer
	board *Board
	opts  Options
	moves int
	msg   string
}

// NewEngine creates an engine positioned on the first level.
func NewEngine(levels []*Level, opts Options) (*GameEngine, error) {
	seq, err := NewSequencer(levels, opts.Wrap)
	if err != nil {
		return nil, err
	}

	e := &GameEngine{seq: seq, opts: opts}
	e.load()
	return e, nil
}

// load rebuilds the board from the current level.
func (e *GameEngine) load() {
	e.board = NewBoard(e.seq.Current())
	e.moves = 0
	e.msg = fmt.Sprintf("Level %d of %d: slide the player block onto the exit", e.seq.Index()+1, e.seq.Len())
}

// GetState returns a snapshot of the current level and board
func (e *GameEngine) GetState() *GameState {
	lvl := e.seq.Current()
	return &GameState{
		Level:      e.seq.Index(),
		LevelCount: e.seq.Len(),
		LevelName:  lvl.Name(),
		Blocks:     e.board.Blocks(),
		Exit:       e.board.Exit(),
		PlayerID:   e.board.PlayerID(),
		Grid:       e.board.Render(),
		Moves:      e.moves,
		Complete:   e.board.IsComplete(),
		Message:    e.msg,
	}
}

// Board returns the live board. Callers must not retain it across level changes.
func (e *GameEngine) Board() *Board {
	return e.board
}

// Level returns the current level
func (e *GameEngine) Level() *Level {
	return e.seq.Current()
}

// IsComplete reports whether the current level is solved
func (e *GameEngine) IsComplete() bool {
	return e.board.IsComplete()
}

// Moves returns the number of moves with a non-zero displacement made since
// the level was (re)started.
func (e *GameEngine) Moves() int {
	return e.moves
}

// Move slides a block by a signed step count along its axis.
func (e *GameEngine) Move(id BlockID, steps int) (*MoveResult, error) {
	before, ok := e.board.Block(id)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownBlock, id)
	}
	moved, err := e.board.Move(id, steps)
	if err != nil {
		return nil, err
	}
	return e.finish(before, steps, moved), nil
}

// Slide moves a block in an explicit direction; steps must be >= 0.
func (e *GameEngine) Slide(id BlockID, dir Direction, steps int) (*MoveResult, error) {
	before, ok := e.board.Block(id)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownBlock, id)
	}
	moved, err := e.board.Slide(id, dir, steps)
	if err != nil {
		return nil, err
	}
	return e.finish(before, dir.Sign()*steps, moved), nil
}

func (e *GameEngine) finish(before Block, requested, moved int) *MoveResult {
	after, _ := e.board.Block(before.ID)
	result := &MoveResult{
		BlockID:      before.ID,
		Requested:    requested,
		Displacement: moved,
		From:         before.Cells,
		To:           after.Cells,
	}

	switch {
	case moved == 0 && requested != 0:
		e.msg = fmt.Sprintf("Block %d is blocked", before.ID)
	case moved != 0:
		e.moves++
		e.msg = fmt.Sprintf("Moved block %d by %d", before.ID, moved)
	}

	if moved != 0 && e.board.IsComplete() {
		result.Complete = true
		e.msg = fmt.Sprintf("Level %d complete in %d moves!", e.seq.Index()+1, e.moves)
		if e.opts.AutoAdvance && e.seq.Advance() {
			result.Advanced = true
			e.load()
		}
	}
	return result
}

// CanMove reports whether a block can slide at least one cell in dir
func (e *GameEngine) CanMove(id BlockID, dir Direction) bool {
	return e.board.CanMove(id, dir)
}

// GetPossibleMoves returns every block/direction pair with room to slide
func (e *GameEngine) GetPossibleMoves() []MoveOption {
	return e.board.PossibleMoves()
}

// Reset restores the current level to its initial layout
func (e *GameEngine) Reset() *GameState {
	e.load()
	e.msg = fmt.Sprintf("Level %d reset", e.seq.Index()+1)
	return e.GetState()
}

// Next moves to the following level. It reports false when the sequencer
// saturates at the last level; the board is left untouched in that case.
func (e *GameEngine) Next() bool {
	if !e.seq.Advance() {
		return false
	}
	e.load()
	return true
}

// Prev moves to the preceding level
func (e *GameEngine) Prev() bool {
	if !e.seq.Retreat() {
		return false
	}
	e.load()
	return true
}

// Goto jumps to the 0-based level index
func (e *GameEngine) Goto(index int) bool {
	if !e.seq.Goto(index) {
		return false
	}
	e.load()
	return true
}

// LevelCount returns the number of levels loaded
func (e *GameEngine) LevelCount() int {
	return e.seq.Len()
}

// LevelIndex returns the 0-based index of the current level
func (e *GameEngine) LevelIndex() int {
	return e.seq.Index()
}

// Blocks returns copies of the current blocks
func (e *GameEngine) Blocks() []Block {
	return e.board.Blocks()
}

// Exit returns the current level's exit
func (e *GameEngine) Exit() Exit {
	return e.board.Exit()
}
