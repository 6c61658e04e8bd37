package engine

import (
	"fmt"
	"strings"
)

// Board is the mutable play state derived from a Level: block positions and
// an occupancy grid kept in sync with them. A Board is not safe for
// concurrent use; callers serialize access.
type Board struct {
	level  *Level
	grid   [GridSize][GridSize]BlockID
	blocks []Block // indexed by id-1
	player BlockID
	exit   Exit
}

// NewBoard builds a fresh board from the level's initial block positions.
func NewBoard(level *Level) *Board {
	b := &Board{
		level:  level,
		blocks: level.Blocks(),
		player: level.PlayerID(),
		exit:   level.Exit(),
	}
	for _, blk := range b.blocks {
		for _, c := range blk.Cells {
			b.grid[c.Row][c.Col] = blk.ID
		}
	}
	return b
}

// Level returns the level the board was built from
func (b *Board) Level() *Level {
	return b.level
}

func (b *Board) block(id BlockID) (*Block, error) {
	if id < 1 || int(id) > len(b.blocks) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownBlock, id)
	}
	return &b.blocks[id-1], nil
}

// Block returns a copy of the block with the given id.
func (b *Board) Block(id BlockID) (Block, bool) {
	blk, err := b.block(id)
	if err != nil {
		return Block{}, false
	}
	return blk.clone(), true
}

// Blocks returns copies of all blocks in id order
func (b *Board) Blocks() []Block {
	out := make([]Block, len(b.blocks))
	for i, blk := range b.blocks {
		out[i] = blk.clone()
	}
	return out
}

// At returns the id of the block covering c, or 0 for an empty or
// out-of-bounds cell.
func (b *Board) At(c Cell) BlockID {
	if !c.InBounds() {
		return 0
	}
	return b.grid[c.Row][c.Col]
}

// Exit returns the board's exit
func (b *Board) Exit() Exit {
	return b.exit
}

// PlayerID returns the id of the player block
func (b *Board) PlayerID() BlockID {
	return b.player
}

// Player returns a copy of the player block
func (b *Board) Player() Block {
	return b.blocks[b.player-1].clone()
}

// IsComplete reports whether the player block covers exactly the exit cells.
func (b *Board) IsComplete() bool {
	p := b.blocks[b.player-1]
	return len(p.Cells) == len(b.exit.Cells) &&
		p.Cells[0] == b.exit.Cells[0] &&
		p.Cells[1] == b.exit.Cells[1]
}

// Clone returns an independent copy of the board.
func (b *Board) Clone() *Board {
	c := *b
	c.blocks = b.Blocks()
	return &c
}

// Render draws the board in level file format. Adjacent parallel blocks get
// alternating characters so that the rows parse back into the same blocks.
func (b *Board) Render() []string {
	var frame [FrameSize][FrameSize]byte
	for fr := 0; fr < FrameSize; fr++ {
		for fc := 0; fc < FrameSize; fc++ {
			if onRing(fr, fc) {
				frame[fr][fc] = charWall
			} else {
				frame[fr][fc] = charFloor
			}
		}
	}
	frame[b.exit.Marker.Row+1][b.exit.Marker.Col+1] = charExit

	for r := 0; r < GridSize; r++ {
		for c := 0; c < GridSize; c++ {
			id := b.grid[r][c]
			if id == 0 {
				continue
			}
			blk := b.blocks[id-1]
			if blk.Head() != (Cell{Row: r, Col: c}) {
				continue
			}
			ch := b.blockChar(&frame, blk)
			for _, cell := range blk.Cells {
				frame[cell.Row+1][cell.Col+1] = ch
			}
		}
	}

	rows := make([]string, FrameSize)
	for fr := range frame {
		rows[fr] = string(frame[fr][:])
	}
	return rows
}

// blockChar picks the character for blk, alternating with an already drawn
// parallel block touching its head.
func (b *Board) blockChar(frame *[FrameSize][FrameSize]byte, blk Block) byte {
	head := blk.Head()
	switch {
	case blk.Player:
		return charPlayer
	case blk.Orientation == Horizontal:
		if frame[head.Row+1][head.Col] == charHorizontalA {
			return charHorizontalB
		}
		return charHorizontalA
	default:
		if frame[head.Row][head.Col+1] == charVerticalA {
			return charVerticalB
		}
		return charVerticalA
	}
}

func (b *Board) String() string {
	return strings.Join(b.Render(), "\n")
}
