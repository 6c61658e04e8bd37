package engine

import "fmt"

// WrapPolicy decides what Advance and Retreat do at either end of the sequence.
type WrapPolicy int

const (
	// Saturate stays on the first/last level.
	Saturate WrapPolicy = iota
	// Wrap continues from the other end.
	Wrap
)

func (p WrapPolicy) String() string {
	if p == Wrap {
		return "wrap"
	}
	return "saturate"
}

// ParseWrapPolicy accepts "wrap" and "saturate"; empty means Saturate.
func ParseWrapPolicy(s string) (WrapPolicy, error) {
	switch s {
	case "", "saturate":
		return Saturate, nil
	case "wrap":
		return Wrap, nil
	default:
		return Saturate, fmt.Errorf("unknown wrap policy %q", s)
	}
}

// Sequencer owns an ordered, fixed list of levels and a current index that is
// always in range.
type Sequencer struct {
	levels  []*Level
	current int
	policy  WrapPolicy
}

// NewSequencer starts at the first level.
func NewSequencer(levels []*Level, policy WrapPolicy) (*Sequencer, error) {
	if len(levels) == 0 {
		return nil, ErrNoLevels
	}
	own := make([]*Level, len(levels))
	copy(own, levels)
	return &Sequencer{levels: own, policy: policy}, nil
}

// Current returns the level at the current index
func (s *Sequencer) Current() *Level {
	return s.levels[s.current]
}

// Index returns the 0-based current index
func (s *Sequencer) Index() int {
	return s.current
}

// Len returns the number of levels
func (s *Sequencer) Len() int {
	return len(s.levels)
}

// Levels returns the level list. The slice is a copy; the levels are shared.
func (s *Sequencer) Levels() []*Level {
	out := make([]*Level, len(s.levels))
	copy(out, s.levels)
	return out
}

// Policy returns the wrap policy
func (s *Sequencer) Policy() WrapPolicy {
	return s.policy
}

// Advance moves to the next level and reports whether the index changed.
func (s *Sequencer) Advance() bool {
	return s.step(1)
}

// Retreat moves to the previous level and reports whether the index changed.
func (s *Sequencer) Retreat() bool {
	return s.step(-1)
}

func (s *Sequencer) step(delta int) bool {
	next := s.current + delta
	n := len(s.levels)
	if next < 0 || next >= n {
		if s.policy != Wrap {
			return false
		}
		next = (next%n + n) % n
	}
	changed := next != s.current
	s.current = next
	return changed
}

// Goto jumps to index i. Out-of-range indexes leave the sequencer unchanged
// and return false.
func (s *Sequencer) Goto(i int) bool {
	if i < 0 || i >= len(s.levels) {
		return false
	}
	s.current = i
	return true
}
