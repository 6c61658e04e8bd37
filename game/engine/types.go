package engine

import (
	"encoding/json"
	"fmt"
)

const (
	// GridSize is the width and height of the playable interior.
	GridSize = 6

	// FrameSize is the width and height of a level block in a level file:
	// the interior plus a one-cell wall ring.
	FrameSize = GridSize + 2

	// Validation constants
	MinBlockLength = 2
	MaxBlockLength = 3
	PlayerLength   = 2

	// MaxMoveSteps bounds the magnitude of a single move request.
	MaxMoveSteps = GridSize
)

// Cell is a (row, col) coordinate on the board. Interior cells have both
// components in [0, GridSize); the wall ring uses -1 and GridSize.
type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// InBounds reports whether the cell lies inside the playable interior.
func (c Cell) InBounds() bool {
	return c.Row >= 0 && c.Row < GridSize && c.Col >= 0 && c.Col < GridSize
}

// Add returns the cell offset by dr rows and dc columns.
func (c Cell) Add(dr, dc int) Cell {
	return Cell{Row: c.Row + dr, Col: c.Col + dc}
}

func (c Cell) String() string {
	return fmt.Sprintf("(%d,%d)", c.Row, c.Col)
}

// Orientation is the fixed axis a block slides along
type Orientation int

const (
	Horizontal Orientation = iota
	Vertical
)

func (o Orientation) String() string {
	switch o {
	case Horizontal:
		return "horizontal"
	case Vertical:
		return "vertical"
	default:
		return fmt.Sprintf("orientation(%d)", int(o))
	}
}

// Step returns the unit (row, col) offset of one positive step along the axis.
func (o Orientation) Step() (dr, dc int) {
	if o == Vertical {
		return 1, 0
	}
	return 0, 1
}

// MarshalJSON encodes the orientation by name
func (o Orientation) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.String())
}

// UnmarshalJSON decodes an orientation name
func (o *Orientation) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "horizontal":
		*o = Horizontal
	case "vertical":
		*o = Vertical
	default:
		return fmt.Errorf("unknown orientation %q", s)
	}
	return nil
}

// BlockID identifies a block for the lifetime of a level. Zero means "no block".
type BlockID int

// Block is a rigid piece occupying 2 or 3 contiguous cells along its orientation.
// Cells are ordered from the top/left end.
type Block struct {
	ID          BlockID     `json:"id"`
	Orientation Orientation `json:"orientation"`
	Cells       []Cell      `json:"cells"`
	Player      bool        `json:"player,omitempty"`
}

// Len returns the number of cells the block occupies
func (b Block) Len() int {
	return len(b.Cells)
}

// Head returns the top/left cell of the block.
func (b Block) Head() Cell {
	return b.Cells[0]
}

// Tail returns the bottom/right cell of the block.
func (b Block) Tail() Cell {
	return b.Cells[len(b.Cells)-1]
}

// Occupies reports whether the block covers the given cell
func (b Block) Occupies(c Cell) bool {
	for _, bc := range b.Cells {
		if bc == c {
			return true
		}
	}
	return false
}

func (b Block) clone() Block {
	cells := make([]Cell, len(b.Cells))
	copy(cells, b.Cells)
	b.Cells = cells
	return b
}

// Exit is the goal of a level. Marker is the position of the exit marker in
// the wall ring; Cells are the two interior cells flush with the marker along
// the player's axis, which the player block must cover to complete the level.
type Exit struct {
	Marker Cell    `json:"marker"`
	Cells  [2]Cell `json:"cells"`
}

// GameState is a serializable snapshot of a running game.
type GameState struct {
	Level      int      `json:"level"`
	LevelCount int      `json:"level_count"`
	LevelName  string   `json:"level_name"`
	Blocks     []Block  `json:"blocks"`
	Exit       Exit     `json:"exit"`
	PlayerID   BlockID  `json:"player_id"`
	Grid       []string `json:"grid"`
	Moves      int      `json:"moves"`
	Complete   bool     `json:"complete"`
	Message    string   `json:"message,omitempty"`
}

// MoveResult describes the outcome of a single move request
type MoveResult struct {
	BlockID      BlockID `json:"block_id"`
	Requested    int     `json:"requested"`
	Displacement int     `json:"displacement"`
	From         []Cell  `json:"from"`
	To           []Cell  `json:"to"`
	Complete     bool    `json:"complete"`
	Advanced     bool    `json:"advanced,omitempty"`
}
