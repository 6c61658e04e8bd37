package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/wricardo/unblock/game/engine"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrPackNotFound    = errors.New("level pack not found")
	ErrInvalidMove     = errors.New("invalid move")
	ErrLevelOutOfRange = errors.New("level index out of range")
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	packs    PackManager
	mu       sync.RWMutex
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, packs PackManager) GameService {
	return &gameServiceImpl{
		sessions: sessions,
		packs:    packs,
	}
}

func sessionInfo(sess *Session) *SessionInfo {
	return &SessionInfo{
		ID:             sess.ID,
		PackName:       sess.PackName,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		GameState:      sess.Engine.GetState(),
	}
}

// session looks a session up and marks it as accessed. Callers hold the
// write lock on s.mu since the access time is read under the read lock.
func (s *gameServiceImpl) session(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrSessionNotFound, err)
	}
	if err := s.sessions.UpdateLastAccessed(sessionID); err != nil {
		log.WithField("session", sessionID).WithError(err).Warn("failed to update last access time")
	}
	return sess, nil
}

// CreateSession creates a new game session on the given pack, or on the
// default pack when packName is empty.
func (s *gameServiceImpl) CreateSession(ctx context.Context, packName string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if packName == "" {
		packName = s.packs.GetDefault()
	}

	levels, err := s.packs.LoadPack(packName)
	if err != nil {
		if errors.Is(err, ErrPackNotFound) {
			if packs, listErr := s.packs.ListPacks(); listErr == nil && len(packs) > 0 {
				ids := make([]string, 0, len(packs))
				for _, p := range packs {
					ids = append(ids, p.PackID)
				}
				return nil, fmt.Errorf("%w: '%s'. Available packs: %v", ErrPackNotFound, packName, ids)
			}
			return nil, fmt.Errorf("%w: '%s'. Use /api/packs to list available packs", ErrPackNotFound, packName)
		}
		return nil, fmt.Errorf("failed to load pack %s: %w", packName, err)
	}

	// Let the session manager generate the 4-character ID
	sess, err := s.sessions.Create("", packName, levels)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	log.WithFields(log.Fields{"session": sess.ID, "pack": packName, "levels": len(levels)}).Info("session created")
	return sessionInfo(sess), nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return sessionInfo(sess), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, sessionInfo(sess))
	}
	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.Delete(sessionID); err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrSessionNotFound, err)
	}
	log.WithField("session", sessionID).Info("session deleted")
	return nil
}

// Move slides one block for a session
func (s *gameServiceImpl) Move(ctx context.Context, sessionID string, req MoveRequest) (*MoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	level := sess.Engine.LevelIndex()

	var res *engine.MoveResult
	if req.Direction != "" {
		dir, dirErr := engine.ParseDirection(req.Direction)
		if dirErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidMove, dirErr)
		}
		res, err = sess.Engine.Slide(req.BlockID, dir, req.Steps)
	} else {
		res, err = sess.Engine.Move(req.BlockID, req.Steps)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidMove, err)
	}

	state := sess.Engine.GetState()
	result := &MoveResult{
		Success:      res.Displacement != 0,
		BlockID:      res.BlockID,
		Requested:    res.Requested,
		Displacement: res.Displacement,
		Complete:     res.Complete,
		Advanced:     res.Advanced,
		GameState:    state,
		Message:      state.Message,
		Events:       moveEvents(res, level, state),
	}

	log.WithFields(log.Fields{
		"session":      sessionID,
		"block":        req.BlockID,
		"requested":    res.Requested,
		"displacement": res.Displacement,
	}).Debug("move")
	if res.Complete {
		log.WithFields(log.Fields{"session": sessionID, "level": level}).Info("level complete")
	}

	return result, nil
}

// moveEvents derives the events produced by one move
func moveEvents(res *engine.MoveResult, level int, state *engine.GameState) []GameEvent {
	now := time.Now()
	var events []GameEvent

	if res.Displacement == 0 {
		if res.Requested != 0 {
			events = append(events, GameEvent{
				Type:      EventBlocked,
				Message:   fmt.Sprintf("Block %d cannot move that way", res.BlockID),
				Timestamp: now,
				BlockID:   res.BlockID,
				Level:     level,
			})
		}
		return events
	}

	events = append(events, GameEvent{
		Type:      EventMove,
		Message:   fmt.Sprintf("Block %d moved %d (requested %d)", res.BlockID, res.Displacement, res.Requested),
		Timestamp: now,
		BlockID:   res.BlockID,
		Level:     level,
	})
	if res.Complete {
		events = append(events, GameEvent{
			Type:      EventLevelComplete,
			Message:   fmt.Sprintf("Level %d complete", level+1),
			Timestamp: now,
			BlockID:   res.BlockID,
			Level:     level,
		})
	}
	if res.Advanced {
		events = append(events, GameEvent{
			Type:      EventLevelChanged,
			Message:   fmt.Sprintf("Now on level %d of %d", state.Level+1, state.LevelCount),
			Timestamp: now,
			Level:     state.Level,
		})
	}
	return events
}

// Reset restores the current level of a session
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	state := sess.Engine.Reset()
	log.WithFields(log.Fields{"session": sessionID, "level": state.Level}).Info("level reset")
	return state, nil
}

// NextLevel advances a session to the next level. At the last level with a
// saturating engine the state is returned unchanged.
func (s *gameServiceImpl) NextLevel(ctx context.Context, sessionID string) (*engine.GameState, error) {
	return s.changeLevel(sessionID, func(e *engine.GameEngine) bool { return e.Next() })
}

// PrevLevel moves a session to the previous level
func (s *gameServiceImpl) PrevLevel(ctx context.Context, sessionID string) (*engine.GameState, error) {
	return s.changeLevel(sessionID, func(e *engine.GameEngine) bool { return e.Prev() })
}

// GotoLevel jumps to a 0-based level index
func (s *gameServiceImpl) GotoLevel(ctx context.Context, sessionID string, index int) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.Engine.Goto(index) {
		return nil, fmt.Errorf("%w: %d (pack has %d levels)", ErrLevelOutOfRange, index, sess.Engine.LevelCount())
	}

	log.WithFields(log.Fields{"session": sessionID, "level": index}).Info("level changed")
	return sess.Engine.GetState(), nil
}

func (s *gameServiceImpl) changeLevel(sessionID string, step func(*engine.GameEngine) bool) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	if step(sess.Engine) {
		log.WithFields(log.Fields{"session": sessionID, "level": sess.Engine.LevelIndex()}).Info("level changed")
	}
	return sess.Engine.GetState(), nil
}

// GetGameState returns the current game state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.Engine.GetState(), nil
}

// GetPossibleMoves lists every block that can move and how far
func (s *gameServiceImpl) GetPossibleMoves(ctx context.Context, sessionID string) ([]engine.MoveOption, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.Engine.GetPossibleMoves(), nil
}

// ListPacks returns all available level packs
func (s *gameServiceImpl) ListPacks(ctx context.Context) ([]*PackInfo, error) {
	return s.packs.ListPacks()
}

// LoadPack returns a pack's metadata and levels
func (s *gameServiceImpl) LoadPack(ctx context.Context, packName string) (*PackDetail, error) {
	levels, err := s.packs.LoadPack(packName)
	if err != nil {
		return nil, err
	}

	detail := &PackDetail{
		PackInfo: PackInfo{
			PackID:  packName,
			Levels:  len(levels),
			Default: packName == s.packs.GetDefault(),
		},
		LevelList: levels,
	}
	if packs, err := s.packs.ListPacks(); err == nil {
		for _, p := range packs {
			if p.PackID == packName {
				detail.PackInfo = *p
				break
			}
		}
	}
	return detail, nil
}
