// Command analyze prints quick, human-readable heuristics about the level
// packs in a levels directory. For each level it summarizes block counts,
// the player and exit positions, how far the player is from the exit and
// which blocks stand in the way.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/unblock/game/config"
	"github.com/wricardo/unblock/game/engine"
)

func main() {
	cmd := &cli.Command{
		Name:      "analyze",
		Usage:     "summarize level packs",
		ArgsUsage: "[PACK...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "dir",
				Usage:   "directory containing level packs",
				Value:   "levels",
				Sources: cli.EnvVars("LEVELS_DIR"),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return run(cmd.Root().Writer, cmd.String("dir"), cmd.Args().Slice())
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

// run analyzes the named packs, or every pack in dir when none are named
func run(w io.Writer, dir string, packs []string) error {
	manager, err := config.NewManager(dir, config.Options{})
	if err != nil {
		return err
	}

	if len(packs) == 0 {
		infos, err := manager.ListPacks()
		if err != nil {
			return err
		}
		for _, info := range infos {
			packs = append(packs, info.PackID)
		}
	}

	for _, name := range packs {
		fmt.Fprintf(w, "\n=== Analyzing %s ===\n", name)
		levels, err := manager.LoadPack(name)
		if err != nil {
			fmt.Fprintf(w, "Error loading pack: %v\n", err)
			continue
		}
		analyzePack(w, levels)
	}
	return nil
}

func analyzePack(w io.Writer, levels []*engine.Level) {
	fmt.Fprintf(w, "Levels: %d\n", len(levels))

	solvedAtStart := 0
	for _, lvl := range levels {
		if analyzeLevel(w, lvl) {
			solvedAtStart++
		}
	}

	if solvedAtStart > 0 {
		fmt.Fprintf(w, "⚠️  WARNING: %d levels are complete before any move\n", solvedAtStart)
	}
}

// analyzeLevel prints one level summary and reports whether the level is
// already complete.
func analyzeLevel(w io.Writer, lvl *engine.Level) bool {
	board := engine.NewBoard(lvl)
	horizontal, vertical := engine.CountBlocks(board)
	player := board.Player()
	exit := board.Exit()

	fmt.Fprintf(w, "\n--- %s ---\n", lvl.Name())
	fmt.Fprintf(w, "Blocks: %d (%d horizontal, %d vertical)\n", horizontal+vertical, horizontal, vertical)
	fmt.Fprintf(w, "Player: block %d, %s at %s\n", player.ID, player.Orientation, player.Head())
	fmt.Fprintf(w, "Exit: %s\n", exit.Marker)

	if board.IsComplete() {
		fmt.Fprintf(w, "✅ Complete at start\n")
		return true
	}

	distance := engine.DistanceToExit(board)
	sign := 1
	if exit.Cells[0].Row < player.Head().Row || exit.Cells[0].Col < player.Head().Col {
		sign = -1
	}
	free, _ := board.FreeRun(player.ID, sign)
	if free > distance {
		free = distance
	}
	fmt.Fprintf(w, "Distance to exit: %d (%d free)\n", distance, free)

	blockers := engine.BlockersToExit(board)
	if len(blockers) == 0 {
		fmt.Fprintf(w, "✅ Path to exit is clear\n")
		return false
	}

	ids := make([]string, len(blockers))
	for i, id := range blockers {
		ids[i] = fmt.Sprint(id)
	}
	fmt.Fprintf(w, "Blockers: %s\n", strings.Join(ids, ", "))
	return false
}
