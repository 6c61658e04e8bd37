package engine

import (
	"errors"
	"fmt"
)

// Parse errors. A *ParseError wraps exactly one of these.
var (
	ErrInvalidBlockLength  = errors.New("invalid block length")
	ErrMissingPlayer       = errors.New("missing player block")
	ErrMultiplePlayers     = errors.New("multiple player blocks")
	ErrInvalidExit         = errors.New("invalid exit")
	ErrMissingWall         = errors.New("missing wall")
	ErrInvalidCharacter    = errors.New("invalid character")
	ErrIncompleteLevelLine = errors.New("incomplete level line")
)

// Move and sequencing errors
var (
	ErrUnknownBlock = errors.New("unknown block")
	ErrOffAxisMove  = errors.New("move is not along the block's axis")
	ErrInvalidSteps = errors.New("invalid step count")
	ErrNoLevels     = errors.New("no levels")
	ErrLevelRange   = errors.New("level index out of range")
	ErrBadDirection = errors.New("invalid direction")
)

// ParseError reports which level of a file failed to parse and where.
type ParseError struct {
	Source string // file or pack name, may be empty
	Level  int    // 0-based index of the level block within the file
	Line   int    // 1-based line number of the offending line
	Offset int    // byte offset of the offending line
	Cell   *Cell  // offending interior/ring cell, when known
	Err    error  // one of the ErrXxx sentinels above
	Detail string
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("level %d (line %d, offset %d)", e.Level, e.Line, e.Offset)
	if e.Source != "" {
		msg = e.Source + ": " + msg
	}
	msg += ": " + e.Err.Error()
	if e.Cell != nil {
		msg += " at " + e.Cell.String()
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
