package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/wricardo/unblock/game/engine"
	"github.com/wricardo/unblock/game/service"
	"github.com/wricardo/unblock/transport/websocket"
)

// Server represents the REST API server
type Server struct {
	service service.GameService
	hub     *websocket.Hub
	router  *mux.Router
}

// NewServer creates a new API server. hub may be nil.
func NewServer(gameService service.GameService, hub *websocket.Hub) *Server {
	s := &Server{
		service: gameService,
		hub:     hub,
		router:  mux.NewRouter(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/health", s.handleHealth).Methods("GET")

	// Session management
	api.HandleFunc("/sessions", s.handleCreateSession).Methods("POST")
	api.HandleFunc("/sessions", s.handleListSessions).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleDeleteSession).Methods("DELETE")

	// Game operations
	api.HandleFunc("/sessions/{id}/state", s.handleGetGameState).Methods("GET")
	api.HandleFunc("/sessions/{id}/board", s.handleGetBoard).Methods("GET")
	api.HandleFunc("/sessions/{id}/moves", s.handlePossibleMoves).Methods("GET")
	api.HandleFunc("/sessions/{id}/move", s.handleMove).Methods("POST")
	api.HandleFunc("/sessions/{id}/reset", s.handleReset).Methods("POST")
	api.HandleFunc("/sessions/{id}/next", s.handleNextLevel).Methods("POST")
	api.HandleFunc("/sessions/{id}/prev", s.handlePrevLevel).Methods("POST")
	api.HandleFunc("/sessions/{id}/level", s.handleGotoLevel).Methods("POST")

	// Level packs
	api.HandleFunc("/packs", s.handleListPacks).Methods("GET")
	api.HandleFunc("/packs/{name}", s.handleGetPack).Methods("GET")

	// WebSocket
	s.router.HandleFunc("/ws", s.handleWebSocket)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps service errors onto HTTP status codes
func respondServiceError(w http.ResponseWriter, err error) {
	respondError(w, statusFor(err), err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrSessionNotFound), errors.Is(err, service.ErrPackNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidMove), errors.Is(err, service.ErrLevelOutOfRange):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// decodeBody decodes an optional JSON body. An empty body leaves v untouched.
func decodeBody(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (s *Server) broadcastState(sessionID string, state *engine.GameState) {
	if s.hub != nil && state != nil {
		s.hub.BroadcastToSession(sessionID, state)
	}
}

func (s *Server) broadcastEvent(sessionID string, event service.GameEvent) {
	if s.hub != nil {
		s.hub.BroadcastEvent(sessionID, event.Type, event)
	}
}

// Session Handlers

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Pack string `json:"pack,omitempty"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	session, err := s.service.CreateSession(r.Context(), req.Pack)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, session)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.service.ListSessions(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	query := r.URL.Query()
	sortBy := query.Get("sort")    // "created", "accessed" (default)
	order := query.Get("order")    // "asc", "desc" (default)
	limitStr := query.Get("limit") // number of sessions to return

	if sortBy == "" {
		sortBy = "accessed"
	}
	if order == "" {
		order = "desc"
	}

	sort.Slice(sessions, func(i, j int) bool {
		var ti, tj time.Time
		if sortBy == "created" {
			ti, tj = sessions[i].CreatedAt, sessions[j].CreatedAt
		} else {
			ti, tj = sessions[i].LastAccessedAt, sessions[j].LastAccessedAt
		}

		if order == "asc" {
			return ti.Before(tj)
		}
		return ti.After(tj)
	})

	total := len(sessions)
	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l < len(sessions) {
			sessions = sessions[:l]
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(sessions),
		"total":    total,
		"sessions": sessions,
		"sort":     sortBy,
		"order":    order,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	session, err := s.service.GetSession(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, session)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	if err := s.service.DeleteSession(r.Context(), sessionID); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Session %s deleted", sessionID),
	})
}

// Game Operation Handlers

func (s *Server) handleGetGameState(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	state, err := s.service.GetGameState(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, state)
}

// handleGetBoard returns the board in level file format
func (s *Server) handleGetBoard(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	state, err := s.service.GetGameState(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, strings.Join(state.Grid, "\n")+"\n")
}

func (s *Server) handlePossibleMoves(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	moves, err := s.service.GetPossibleMoves(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if moves == nil {
		moves = []engine.MoveOption{}
	}

	respondJSON(w, http.StatusOK, moves)
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req service.MoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.BlockID <= 0 {
		respondError(w, http.StatusBadRequest, "block_id is required")
		return
	}

	result, err := s.service.Move(r.Context(), sessionID, req)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.broadcastState(sessionID, result.GameState)
	for _, event := range result.Events {
		if event.Type != service.EventMove {
			s.broadcastEvent(sessionID, event)
		}
	}

	log.WithFields(log.Fields{
		"session":      sessionID,
		"block":        result.BlockID,
		"requested":    result.Requested,
		"displacement": result.Displacement,
		"complete":     result.Complete,
	}).Info("move")

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	state, err := s.service.Reset(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.broadcastState(sessionID, state)
	s.broadcastEvent(sessionID, service.GameEvent{
		Type:      service.EventReset,
		Message:   state.Message,
		Timestamp: time.Now(),
		Level:     state.Level,
	})

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Level reset successfully",
		"state":   state,
	})
}

func (s *Server) handleNextLevel(w http.ResponseWriter, r *http.Request) {
	s.changeLevel(w, r, s.service.NextLevel, false)
}

func (s *Server) handlePrevLevel(w http.ResponseWriter, r *http.Request) {
	s.changeLevel(w, r, s.service.PrevLevel, false)
}

func (s *Server) handleGotoLevel(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Level *int `json:"level"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Level == nil {
		respondError(w, http.StatusBadRequest, "level is required")
		return
	}

	s.changeLevel(w, r, func(ctx context.Context, sessionID string) (*engine.GameState, error) {
		return s.service.GotoLevel(ctx, sessionID, *req.Level)
	}, true)
}

// changeLevel runs a level step and reports whether the level changed. When
// the step always reloads the board, staying on the same level counts as a
// restart and is broadcast as a reset.
func (s *Server) changeLevel(w http.ResponseWriter, r *http.Request, step func(ctx context.Context, sessionID string) (*engine.GameState, error), reloads bool) {
	sessionID := mux.Vars(r)["id"]

	before, err := s.service.GetGameState(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	state, err := step(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	changed := state.Level != before.Level
	restarted := !changed && reloads
	s.broadcastState(sessionID, state)
	switch {
	case changed:
		s.broadcastEvent(sessionID, service.GameEvent{
			Type:      service.EventLevelChanged,
			Message:   state.Message,
			Timestamp: time.Now(),
			Level:     state.Level,
		})
	case restarted:
		s.broadcastEvent(sessionID, service.GameEvent{
			Type:      service.EventReset,
			Message:   fmt.Sprintf("Level %d restarted", state.Level+1),
			Timestamp: time.Now(),
			Level:     state.Level,
		})
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"changed":   changed,
		"restarted": restarted,
		"state":     state,
	})
}

// Level Pack Handlers

func (s *Server) handleListPacks(w http.ResponseWriter, r *http.Request) {
	packs, err := s.service.ListPacks(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if packs == nil {
		packs = []*service.PackInfo{}
	}

	respondJSON(w, http.StatusOK, packs)
}

func (s *Server) handleGetPack(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	pack, err := s.service.LoadPack(r.Context(), name)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, pack)
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "session parameter required", http.StatusBadRequest)
		return
	}

	if _, err := s.service.GetSession(r.Context(), sessionID); err != nil {
		http.Error(w, "Invalid session", http.StatusNotFound)
		return
	}
	if s.hub == nil {
		http.Error(w, "WebSocket not available", http.StatusServiceUnavailable)
		return
	}

	s.hub.ServeWS(w, r, sessionID)
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
