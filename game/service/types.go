package service

import (
	"time"

	"github.com/wricardo/unblock/game/engine"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string            `json:"id"`
	PackName       string            `json:"pack_name"`
	CreatedAt      time.Time         `json:"created_at"`
	LastAccessedAt time.Time         `json:"last_accessed_at"`
	GameState      *engine.GameState `json:"game_state"`
}

// MoveRequest asks to slide one block. With a Direction, Steps must be >= 0
// and is signed by the direction. Without one, Steps is the signed
// displacement along the block's own axis.
type MoveRequest struct {
	BlockID   engine.BlockID `json:"block_id"`
	Direction string         `json:"direction,omitempty"`
	Steps     int            `json:"steps"`
}

// MoveResult contains the result of a move operation
type MoveResult struct {
	Success      bool              `json:"success"`
	BlockID      engine.BlockID    `json:"block_id"`
	Requested    int               `json:"requested"`
	Displacement int               `json:"displacement"`
	Complete     bool              `json:"complete"`
	Advanced     bool              `json:"advanced,omitempty"`
	GameState    *engine.GameState `json:"game_state"`
	Message      string            `json:"message"`
	Events       []GameEvent       `json:"events,omitempty"`
}

// Event types
const (
	EventMove          = "move"
	EventBlocked       = "blocked"
	EventLevelComplete = "level_complete"
	EventLevelChanged  = "level_changed"
	EventReset         = "reset"
)

// GameEvent represents an event that occurred during play
type GameEvent struct {
	Type      string         `json:"type"`
	Message   string         `json:"message"`
	Timestamp time.Time      `json:"timestamp"`
	BlockID   engine.BlockID `json:"block_id,omitempty"`
	Level     int            `json:"level"`
}

// PackInfo describes a level pack on disk
type PackInfo struct {
	Filename   string `json:"filename"`
	PackID     string `json:"pack_id"` // the identifier to use for session creation
	Levels     int    `json:"levels"`
	Compressed bool   `json:"compressed"`
	Default    bool   `json:"default"`
}

// PackDetail is a pack together with its parsed levels
type PackDetail struct {
	PackInfo
	LevelList []*engine.Level `json:"level_list"`
}
