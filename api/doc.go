// Package api provides HTTP REST API handlers for Unblock.
//
// The api package implements:
//   - Session management endpoints
//   - Move, reset, and level navigation endpoints
//   - Level pack listing
//   - WebSocket upgrade handling
//
// Endpoints:
//
// Session Management:
//   - POST /api/sessions - Create new session ({"pack": "levels"}, optional)
//   - GET /api/sessions - List sessions (?sort=created|accessed&order=asc|desc&limit=N)
//   - GET /api/sessions/{id} - Get specific session
//   - DELETE /api/sessions/{id} - Delete session
//
// Game Operations:
//   - GET /api/sessions/{id}/state - Current game state
//   - GET /api/sessions/{id}/board - Board as level file text
//   - GET /api/sessions/{id}/moves - Blocks that can move and how far
//   - POST /api/sessions/{id}/move - Slide a block
//   - POST /api/sessions/{id}/reset - Restore the current level
//   - POST /api/sessions/{id}/next - Next level
//   - POST /api/sessions/{id}/prev - Previous level
//   - POST /api/sessions/{id}/level - Jump to a 0-based level ({"level": 3})
//
// Level Packs:
//   - GET /api/packs - List level packs
//   - GET /api/packs/{name} - Pack metadata and levels
//
// Other:
//   - GET /api/health - Health check
//   - GET /ws?session={id} - WebSocket state updates
//
// Moves:
//
// A move names a block and either a direction with a non-negative step
// count, or a signed step count along the block's own axis:
//
//	{"block_id": 2, "direction": "right", "steps": 4}
//	{"block_id": 3, "steps": -2}
//
// A blocked block is not an error: the response reports a displacement of 0.
// Unknown blocks and directions off the block's axis return 400.
//
// Errors:
//
// All errors are returned as {"error": "message"}. Missing sessions and
// packs return 404, invalid moves and level indices 400, anything else 500.
//
// Every mutating call pushes the new state to the session's WebSocket
// clients.
package api
