package engine

import (
	"fmt"
	"strings"
)

// Direction is an axis-aligned direction requested by a host.
type Direction int

const (
	Up Direction = iota + 1
	Down
	Left
	Right
)

// ParseDirection maps "up", "down", "left" and "right" (any case) to a Direction.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up":
		return Up, nil
	case "down":
		return Down, nil
	case "left":
		return Left, nil
	case "right":
		return Right, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrBadDirection, s)
	}
}

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}

// Orientation returns the axis the direction lies on
func (d Direction) Orientation() Orientation {
	if d == Up || d == Down {
		return Vertical
	}
	return Horizontal
}

// Sign is -1 for up/left and +1 for down/right.
func (d Direction) Sign() int {
	if d == Up || d == Left {
		return -1
	}
	return 1
}

// DirectionOf returns the direction a signed displacement along o points to.
func DirectionOf(o Orientation, sign int) Direction {
	switch {
	case o == Vertical && sign < 0:
		return Up
	case o == Vertical:
		return Down
	case sign < 0:
		return Left
	default:
		return Right
	}
}

// MoveOption is a direction a block can currently slide, and how far.
type MoveOption struct {
	BlockID   BlockID   `json:"block_id"`
	Direction Direction `json:"-"`
	Dir       string    `json:"direction"`
	Max       int       `json:"max"`
}

// FreeRun counts the contiguous empty interior cells beyond the block's
// leading edge in the direction of sign (negative: up/left).
func (b *Board) FreeRun(id BlockID, sign int) (int, error) {
	blk, err := b.block(id)
	if err != nil {
		return 0, err
	}
	return b.freeRun(blk, sign, GridSize), nil
}

func (b *Board) freeRun(blk *Block, sign, limit int) int {
	dr, dc := blk.Orientation.Step()
	lead := blk.Tail()
	if sign < 0 {
		dr, dc = -dr, -dc
		lead = blk.Head()
	}

	n := 0
	for n < limit {
		next := lead.Add(dr*(n+1), dc*(n+1))
		if !next.InBounds() || b.grid[next.Row][next.Col] != 0 {
			break
		}
		n++
	}
	return n
}

// Move slides a block along its own axis by up to |steps| cells, in the
// direction given by the sign of steps, stopping early at the wall or at
// another block. It returns the signed displacement actually applied. A
// request of 0 steps is a no-op. The player block may come to rest on the
// exit cells like on any other free cell.
func (b *Board) Move(id BlockID, steps int) (int, error) {
	blk, err := b.block(id)
	if err != nil {
		return 0, err
	}
	if steps == 0 {
		return 0, nil
	}

	sign, want := 1, steps
	if steps < 0 {
		sign, want = -1, -steps
	}
	if want < 0 || want > MaxMoveSteps {
		want = MaxMoveSteps
	}

	moved := b.freeRun(blk, sign, want)
	if moved == 0 {
		return 0, nil
	}

	dr, dc := blk.Orientation.Step()
	dr, dc = dr*sign*moved, dc*sign*moved
	for _, c := range blk.Cells {
		b.grid[c.Row][c.Col] = 0
	}
	for i, c := range blk.Cells {
		blk.Cells[i] = c.Add(dr, dc)
		b.grid[blk.Cells[i].Row][blk.Cells[i].Col] = blk.ID
	}
	return sign * moved, nil
}

// Slide moves a block steps cells (steps >= 0) in an explicit direction.
// Directions off the block's axis are rejected rather than projected.
func (b *Board) Slide(id BlockID, dir Direction, steps int) (int, error) {
	blk, err := b.block(id)
	if err != nil {
		return 0, err
	}
	if steps < 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidSteps, steps)
	}
	if dir.Orientation() != blk.Orientation {
		return 0, fmt.Errorf("%w: block %d is %s, cannot move %s", ErrOffAxisMove, id, blk.Orientation, dir)
	}
	return b.Move(id, dir.Sign()*steps)
}

// MoveVector moves a block by a (rows, cols) displacement. The vector must
// lie on the block's axis.
func (b *Board) MoveVector(id BlockID, dRow, dCol int) (int, error) {
	blk, err := b.block(id)
	if err != nil {
		return 0, err
	}
	if blk.Orientation == Horizontal && dRow != 0 || blk.Orientation == Vertical && dCol != 0 {
		return 0, fmt.Errorf("%w: block %d is %s, vector (%d,%d)", ErrOffAxisMove, id, blk.Orientation, dRow, dCol)
	}
	return b.Move(id, dRow+dCol)
}

// CanMove reports whether the block can slide at least one cell in dir
func (b *Board) CanMove(id BlockID, dir Direction) bool {
	blk, err := b.block(id)
	if err != nil || dir.Orientation() != blk.Orientation {
		return false
	}
	return b.freeRun(blk, dir.Sign(), 1) > 0
}

// PossibleMoves lists every (block, direction) pair with room to slide.
func (b *Board) PossibleMoves() []MoveOption {
	var options []MoveOption
	for i := range b.blocks {
		blk := &b.blocks[i]
		for _, sign := range []int{-1, 1} {
			if n := b.freeRun(blk, sign, GridSize); n > 0 {
				dir := DirectionOf(blk.Orientation, sign)
				options = append(options, MoveOption{
					BlockID:   blk.ID,
					Direction: dir,
					Dir:       dir.String(),
					Max:       n,
				})
			}
		}
	}
	return options
}
