// Package service provides the business logic layer for Unblock.
//
// The service package implements:
//   - Multi-session puzzle management
//   - Move requests with explicit direction or signed step counts
//   - Level navigation (reset, next, previous, goto)
//   - Level pack discovery
//
// Core Interfaces:
//
// GameService is the main service interface used by the HTTP API.
// SessionManager handles session creation, retrieval, and lifecycle.
// PackManager loads and lists level packs.
//
// Architecture:
//
// The service layer sits between the transports (HTTP, WebSocket, MCP) and
// the engine. Every call runs under a single lock, which is the mutual
// exclusion boundary the engine's boards rely on.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	packMgr, _ := config.NewManager("levels", config.Options{})
//	gameService := service.NewGameService(sessionMgr, packMgr)
//
//	info, err := gameService.CreateSession(ctx, "levels")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := gameService.Move(ctx, info.ID, service.MoveRequest{
//		BlockID:   info.GameState.PlayerID,
//		Direction: "right",
//		Steps:     4,
//	})
//
// Errors:
//
// ErrSessionNotFound and ErrPackNotFound map to 404 responses, ErrInvalidMove
// and ErrLevelOutOfRange to 400. ErrInvalidMove wraps the engine error that
// caused it.
package service
