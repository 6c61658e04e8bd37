// Package engine provides the core puzzle logic for Unblock.
//
// The engine package implements:
//   - Parsing of level files into validated, immutable Level values
//   - The Board, an occupancy grid plus live block positions
//   - Axis-constrained, collision-clamped block movement
//   - Win detection and a Sequencer over the loaded levels
//
// Level files:
//
// A level is 8 lines of 8 characters: a 6x6 playable interior inside a wall
// ring of '&'. One '^' in the ring marks the exit. Blocks are runs of '='
// (the player, exactly 2 cells), '|' or '(' (vertical) and '-' or '_'
// (horizontal); '*' is floor. Lines starting with '#' are comments.
//
//	# first
//	&&&&&&&&
//	&******&
//	&**|***&
//	&==|***^
//	&**|***&
//	&**--**&
//	&******&
//	&&&&&&&&
//
// Usage:
//
//	levels, err := engine.LoadLevelFile("levels/levels.dat")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	game, err := engine.NewEngine(levels, engine.Options{})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := game.Move(game.Board().PlayerID(), 4)
//	if err == nil && result.Complete {
//		game.Next()
//	}
//
// A Board is not safe for concurrent use; the service layer serializes access.
package engine
