package engine

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Level is a validated puzzle as read from a level file. Levels are never
// mutated after parsing; boards copy what they need.
type Level struct {
	index  int
	source string
	blocks []Block
	exit   Exit
	player BlockID
	rows   []string
}

// Index returns the 0-based position of the level in its file.
func (l *Level) Index() int {
	return l.index
}

// Source returns the name of the file or pack the level came from.
func (l *Level) Source() string {
	return l.source
}

// Name returns a human readable identifier such as "levels#3".
func (l *Level) Name() string {
	if l.source == "" {
		return fmt.Sprintf("level %d", l.index+1)
	}
	return fmt.Sprintf("%s#%d", l.source, l.index+1)
}

// Blocks returns a deep copy of the level's blocks in id order.
func (l *Level) Blocks() []Block {
	out := make([]Block, len(l.blocks))
	for i, b := range l.blocks {
		out[i] = b.clone()
	}
	return out
}

// Exit returns the level's exit.
func (l *Level) Exit() Exit {
	return l.exit
}

// PlayerID returns the id of the player block.
func (l *Level) PlayerID() BlockID {
	return l.player
}

// Rows returns the level block exactly as it appeared in the file.
func (l *Level) Rows() []string {
	out := make([]string, len(l.rows))
	copy(out, l.rows)
	return out
}

func (l *Level) String() string {
	return strings.Join(l.rows, "\n")
}

// MarshalJSON exposes the level's read-only view.
func (l *Level) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Index    int      `json:"index"`
		Name     string   `json:"name"`
		Source   string   `json:"source,omitempty"`
		Blocks   []Block  `json:"blocks"`
		Exit     Exit     `json:"exit"`
		PlayerID BlockID  `json:"player_id"`
		Rows     []string `json:"rows"`
	}{
		Index:    l.index,
		Name:     l.Name(),
		Source:   l.source,
		Blocks:   l.blocks,
		Exit:     l.exit,
		PlayerID: l.player,
		Rows:     l.rows,
	})
}
