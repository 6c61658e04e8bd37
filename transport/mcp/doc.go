// Package mcp exposes Unblock to AI agents over the Model Context Protocol.
//
// The Client registers one MCP tool per game operation and proxies every
// call to the REST API in package api, so an agent and a browser watching
// the same session over WebSocket see the same game.
//
// Tools:
//   - create_session, list_sessions, get_session
//   - game_state, possible_moves
//   - move (block_id, direction, steps, intent)
//   - reset_level, next_level, prev_level, goto_level
//   - list_packs, game_instructions
//
// The server returned by GetMCPServer can be served over stdio with
// server.ServeStdio or mounted behind an HTTP endpoint with HandleMessage.
package mcp
