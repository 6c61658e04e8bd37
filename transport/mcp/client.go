package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	log "github.com/sirupsen/logrus"

	"github.com/wricardo/unblock/game/engine"
	"github.com/wricardo/unblock/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Unblock",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Unblock - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Slide the player block (=) across a 6x6 board to the exit (^) in the wall.

AVAILABLE TOOLS:
- create_session: Create a new game session, optionally from a named level pack
- list_sessions: List all active sessions
- get_session: Get session details
- game_state: Get the board, blocks and exit of the current level
- possible_moves: List every block that can slide and how far
- move: Slide one block - requires intent explanation
- reset_level: Restore the current level to its starting layout
- next_level / prev_level / goto_level: Navigate the level pack
- list_packs: List the level packs on the server
- game_instructions: Get the full rules

NOTE: The 'intent' parameter on the move tool serves as rubber duck debugging - explain your reasoning!`),
	)

	c.registerTools()
}

func sessionIDProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new game session with optional level pack selection",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"pack": map[string]interface{}{
					"type":        "string",
					"description": "Name of the level pack to play (optional, see list_packs)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active game sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleGetSession)

	// Game operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the current board, block list and exit",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleGameState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "possible_moves",
		Description: "List every block that can slide, with direction and maximum distance",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handlePossibleMoves)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move",
		Description: "Slide a block along its axis. The block stops at the first obstacle.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"block_id": map[string]interface{}{
					"type":        "integer",
					"description": "ID of the block to move (see game_state)",
				},
				"direction": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"up", "down", "left", "right"},
					"description": "Direction to slide. Must match the block's orientation.",
				},
				"steps": map[string]interface{}{
					"type":        "integer",
					"description": "Number of cells to slide (default 1)",
				},
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Why you are making this move",
				},
			},
			Required: []string{"session_id", "block_id", "direction"},
		},
	}, c.handleMove)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reset_level",
		Description: "Restore the current level to its starting layout",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleReset)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "next_level",
		Description: "Advance to the next level of the pack. Does nothing on the last level.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleNextLevel)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "prev_level",
		Description: "Go back to the previous level of the pack. Does nothing on the first level.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handlePrevLevel)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "goto_level",
		Description: "Jump to a level by its 1-based number",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"level": map[string]interface{}{
					"type":        "integer",
					"description": "Level number, starting at 1",
				},
			},
			Required: []string{"session_id", "level"},
		},
	}, c.handleGotoLevel)

	// Level packs
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_packs",
		Description: "List the level packs available on the server",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListPacks)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get the complete rules and board legend",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)
}

// GetMCPServer returns the underlying MCP server
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// apiCall makes an HTTP call to the REST API
func (c *Client) apiCall(method, path string, body interface{}, result interface{}) error {
	endpoint := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, endpoint, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		return map[string]interface{}{}
	}
	return args
}

// intArg reads a numeric argument. JSON numbers arrive as float64.
func intArg(args map[string]interface{}, key string) (int, bool) {
	switch v := args[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case json.Number:
		n, err := v.Int64()
		return int(n), err == nil
	}
	return 0, false
}

func sessionPath(sessionID, suffix string) string {
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix
}

func requireSessionID(args map[string]interface{}) (string, *mcp.CallToolResult) {
	sessionID, _ := args["session_id"].(string)
	if strings.TrimSpace(sessionID) == "" {
		return "", mcp.NewToolResultError("session_id is required")
	}
	return sessionID, nil
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	pack, _ := args["pack"].(string)

	body := map[string]interface{}{}
	if pack != "" {
		body["pack"] = pack
	}

	var session service.SessionInfo
	if err := c.apiCall("POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	log.WithFields(log.Fields{"session": session.ID, "pack": session.PackName}).Debug("mcp session created")
	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCall("GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result strings.Builder
	fmt.Fprintf(&result, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		level := ""
		if s.GameState != nil {
			level = fmt.Sprintf(", Level %d/%d", s.GameState.Level+1, s.GameState.LevelCount)
		}
		fmt.Fprintf(&result, "- %s (Pack: %s%s, Created: %s)\n",
			s.ID, s.PackName, level, s.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(result.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, errResult := requireSessionID(arguments(request))
	if errResult != nil {
		return errResult, nil
	}

	var session service.SessionInfo
	if err := c.apiCall("GET", sessionPath(sessionID, ""), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, errResult := requireSessionID(arguments(request))
	if errResult != nil {
		return errResult, nil
	}

	var state engine.GameState
	if err := c.apiCall("GET", sessionPath(sessionID, "/state"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameState(&state)), nil
}

func (c *Client) handlePossibleMoves(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, errResult := requireSessionID(arguments(request))
	if errResult != nil {
		return errResult, nil
	}

	var moves []engine.MoveOption
	if err := c.apiCall("GET", sessionPath(sessionID, "/moves"), nil, &moves); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatPossibleMoves(moves)), nil
}

func (c *Client) handleMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, errResult := requireSessionID(args)
	if errResult != nil {
		return errResult, nil
	}
	direction, _ := args["direction"].(string)
	intent, _ := args["intent"].(string)

	blockID, ok := intArg(args, "block_id")
	if !ok || blockID <= 0 {
		return mcp.NewToolResultError("block_id must be a positive integer"), nil
	}
	steps, ok := intArg(args, "steps")
	if !ok {
		steps = 1
	}

	if intent != "" {
		log.WithFields(log.Fields{"session": sessionID, "block": blockID, "intent": intent}).Debug("mcp move intent")
	}

	body := service.MoveRequest{
		BlockID:   engine.BlockID(blockID),
		Direction: direction,
		Steps:     steps,
	}

	var result service.MoveResult
	if err := c.apiCall("POST", sessionPath(sessionID, "/move"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatMoveResult(&result)), nil
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, errResult := requireSessionID(arguments(request))
	if errResult != nil {
		return errResult, nil
	}

	var response struct {
		Message string            `json:"message"`
		State   *engine.GameState `json:"state"`
	}
	if err := c.apiCall("POST", sessionPath(sessionID, "/reset"), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("%s\n\n%s", response.Message, formatGameState(response.State))), nil
}

func (c *Client) handleNextLevel(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.changeLevel(request, "/next", nil)
}

func (c *Client) handlePrevLevel(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.changeLevel(request, "/prev", nil)
}

func (c *Client) handleGotoLevel(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	level, ok := intArg(arguments(request), "level")
	if !ok || level < 1 {
		return mcp.NewToolResultError("level must be an integer starting at 1"), nil
	}
	return c.changeLevel(request, "/level", map[string]interface{}{"level": level - 1})
}

func (c *Client) changeLevel(request mcp.CallToolRequest, suffix string, body interface{}) (*mcp.CallToolResult, error) {
	sessionID, errResult := requireSessionID(arguments(request))
	if errResult != nil {
		return errResult, nil
	}

	var response struct {
		Changed   bool              `json:"changed"`
		Restarted bool              `json:"restarted"`
		State     *engine.GameState `json:"state"`
	}
	if err := c.apiCall("POST", sessionPath(sessionID, suffix), body, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	header := "Level unchanged"
	switch {
	case response.Changed:
		header = "Level changed"
	case response.Restarted:
		header = "Level restarted"
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s\n\n%s", header, formatGameState(response.State))), nil
}

func (c *Client) handleListPacks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var packs []service.PackInfo
	if err := c.apiCall("GET", "/api/packs", nil, &packs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result strings.Builder
	fmt.Fprintf(&result, "Level Packs (%d):\n\n", len(packs))
	for _, p := range packs {
		fmt.Fprintf(&result, "- %s (%d levels, file: %s)", p.PackID, p.Levels, p.Filename)
		if p.Default {
			result.WriteString(" [default]")
		}
		result.WriteString("\n")
	}

	return mcp.NewToolResultText(result.String()), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(gameInstructions), nil
}

const gameInstructions = `Unblock - Complete Instructions

GAME OBJECTIVE:
Each level is a 6x6 board surrounded by a wall. One block is the player block.
Slide blocks out of the way until the player block reaches the exit in the wall.
A level is complete when the player block covers the two board cells next to the exit.

GRID LEGEND (game_state):
The grid is 8x8: the 6x6 board plus the wall ring.
  &      Wall
  ^      Exit (in the wall ring)
  *      Empty floor
  =      Player block
  | (    Vertical blocks (adjacent blocks alternate characters)
  - _    Horizontal blocks (adjacent blocks alternate characters)
Use the block list for IDs and exact cells. Cells are (row,col) starting at (0,0) top-left of the board.

BLOCK RULES:
- Every block is 2 or 3 cells long, horizontal or vertical.
- Horizontal blocks only move left or right. Vertical blocks only move up or down.
- A block slides until it has moved the requested number of cells or hits a wall or another block.
- A move that cannot advance even one cell is blocked and does not count.
- Blocks never leave the board, including the player block.

MOVEMENT COMMANDS:
- move(session_id, block_id, direction, steps)
- Use possible_moves to see which blocks can slide and how far.

LEVEL NAVIGATION:
- reset_level restores the starting layout and the move counter.
- next_level and prev_level walk through the pack.
- goto_level jumps to a level by number.

STRATEGY:
- Find the blocks standing between the player block and the exit.
- Work backwards: each blocker needs room to slide out of the way.
- Long blocks (3 cells) across the player's row often need space on both sides.

Good luck getting unblocked!`

// Formatters

func formatSessionInfo(session *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nPack: %s\nCreated: %s\n\n%s",
		session.ID, session.PackName,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		formatGameState(session.GameState))
}

func formatGameState(state *engine.GameState) string {
	if state == nil {
		return "No game state available"
	}

	var result strings.Builder

	name := ""
	if state.LevelName != "" {
		name = fmt.Sprintf(" (%s)", state.LevelName)
	}
	fmt.Fprintf(&result, "Level %d/%d%s | Moves: %d\n\n",
		state.Level+1, state.LevelCount, name, state.Moves)

	for _, row := range state.Grid {
		result.WriteString(row)
		result.WriteString("\n")
	}

	result.WriteString("\nBlocks:\n")
	for _, b := range state.Blocks {
		label := fmt.Sprintf("%d", b.ID)
		if b.ID == state.PlayerID {
			label += " (player)"
		}
		fmt.Fprintf(&result, "- %s: %s, length %d, %s to %s\n",
			label, b.Orientation, b.Len(), b.Head(), b.Tail())
	}

	fmt.Fprintf(&result, "\nExit: marker %s, goal cells %s %s\n",
		state.Exit.Marker, state.Exit.Cells[0], state.Exit.Cells[1])

	if state.Complete {
		result.WriteString("\n🎉 LEVEL COMPLETE!")
	}

	if state.Message != "" {
		fmt.Fprintf(&result, "\nMessage: %s", state.Message)
	}

	return result.String()
}

func formatPossibleMoves(moves []engine.MoveOption) string {
	if len(moves) == 0 {
		return "No block can move"
	}

	var result strings.Builder
	fmt.Fprintf(&result, "Possible Moves (%d):\n", len(moves))
	for _, m := range moves {
		fmt.Fprintf(&result, "- block %d %s up to %d\n", m.BlockID, m.Dir, m.Max)
	}
	return result.String()
}

func formatMoveResult(result *service.MoveResult) string {
	var sb strings.Builder

	if result.Success {
		fmt.Fprintf(&sb, "✓ Move successful: block %d moved %d of %d\n",
			result.BlockID, abs(result.Displacement), abs(result.Requested))
	} else {
		fmt.Fprintf(&sb, "✗ Move blocked: block %d cannot move\n", result.BlockID)
	}

	if result.Message != "" {
		fmt.Fprintf(&sb, "%s\n", result.Message)
	}

	for _, ev := range result.Events {
		if ev.Type == service.EventMove {
			continue
		}
		fmt.Fprintf(&sb, "Event: %s - %s\n", ev.Type, ev.Message)
	}

	sb.WriteString("\n")
	sb.WriteString(formatGameState(result.GameState))
	return sb.String()
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
