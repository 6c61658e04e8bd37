// Package websocket provides WebSocket transport for Unblock.
//
// The websocket package implements:
//   - Session-aware WebSocket connections
//   - State broadcasting after every board change
//   - Connection lifecycle management with ping/pong keepalive
//
// Architecture:
//
// A central Hub tracks clients per session. Each connection runs a read
// pump, which only watches for disconnects, and a write pump that drains
// the client's send buffer. Clients that fall behind are dropped.
//
// Message Protocol:
//
// Messages are JSON objects:
//
//	{"session_id": "ab12", "client_id": "...", "event": "connected"}
//	{"session_id": "ab12", "event": "state_update", "game_state": {...}}
//	{"session_id": "ab12", "event": "level_complete", "data": {...}}
//
// The first message on a connection carries the client's id.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run(ctx)
//
//	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, r.URL.Query().Get("session"))
//	})
//
//	hub.BroadcastToSession(sessionID, state)
package websocket
