package engine

// CountBlocks returns how many horizontal and vertical blocks a board holds,
// the player included.
func CountBlocks(b *Board) (horizontal, vertical int) {
	for _, blk := range b.blocks {
		if blk.Orientation == Horizontal {
			horizontal++
		} else {
			vertical++
		}
	}
	return horizontal, vertical
}

// DistanceToExit is the number of cells the player still has to travel to
// cover the exit cells.
func DistanceToExit(b *Board) int {
	p := b.blocks[b.player-1]
	goal := b.exit.Cells[0]
	if p.Orientation == Horizontal {
		return abs(goal.Col - p.Head().Col)
	}
	return abs(goal.Row - p.Head().Row)
}

// BlockersToExit lists the blocks standing between the player and its exit
// cells, in travel order, each listed once.
func BlockersToExit(b *Board) []BlockID {
	if b.IsComplete() {
		return nil
	}
	p := b.blocks[b.player-1]
	goal := b.exit.Cells[0]
	dr, dc := p.Orientation.Step()

	from, to := p.Tail(), b.exit.Cells[1]
	if goal.Row < p.Head().Row || goal.Col < p.Head().Col {
		dr, dc = -dr, -dc
		from, to = p.Head(), goal
	}

	var ids []BlockID
	seen := make(map[BlockID]bool)
	for c := from.Add(dr, dc); c.InBounds(); c = c.Add(dr, dc) {
		if id := b.grid[c.Row][c.Col]; id != 0 && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
		if c == to {
			break
		}
	}
	return ids
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
