// Package terminal plays a level pack on a tcell screen.
//
// Keys: Tab and Shift-Tab select a block, arrows slide the selected block
// one cell along its axis, r resets the level, n and p change level, q or
// Esc quits. Dragging a block with the mouse slides it by the drag's
// component along the block's axis.
package terminal
