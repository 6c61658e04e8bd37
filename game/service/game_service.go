package service

import (
	"context"
	"time"

	"github.com/wricardo/unblock/game/engine"
)

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, packName string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Game Operations
	Move(ctx context.Context, sessionID string, req MoveRequest) (*MoveResult, error)
	Reset(ctx context.Context, sessionID string) (*engine.GameState, error)
	NextLevel(ctx context.Context, sessionID string) (*engine.GameState, error)
	PrevLevel(ctx context.Context, sessionID string) (*engine.GameState, error)
	GotoLevel(ctx context.Context, sessionID string, index int) (*engine.GameState, error)

	// Game State
	GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error)
	GetPossibleMoves(ctx context.Context, sessionID string) ([]engine.MoveOption, error)

	// Level packs
	ListPacks(ctx context.Context) ([]*PackInfo, error)
	LoadPack(ctx context.Context, packName string) (*PackDetail, error)
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id, packName string, levels []*engine.Level) (*Session, error)
	Get(id string) (*Session, error)
	GetOrCreate(id, packName string, levels []*engine.Level) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
}

// PackManager handles level pack loading
type PackManager interface {
	LoadPack(name string) ([]*engine.Level, error)
	ListPacks() ([]*PackInfo, error)
	GetDefault() string
}

// Session represents an active game session
type Session struct {
	ID             string
	Engine         *engine.GameEngine
	PackName       string
	CreatedAt      time.Time
	LastAccessedAt time.Time
}
