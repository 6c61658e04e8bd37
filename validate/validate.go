// Package validate checks level files. A file is invalid when it does not
// parse or holds no levels. Levels that parse but look wrong (complete
// before any move, frozen, or a copy of an earlier level) produce warnings.
package validate

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/wricardo/unblock/game/engine"
)

// ValidationResult captures the outcome of validating a single file.
type ValidationResult struct {
	File     string
	Valid    bool
	Levels   int
	Errors   []string
	Warnings []string
}

// ValidateFile loads and checks one level file
func ValidateFile(path string) ValidationResult {
	result := ValidationResult{
		File:  filepath.Base(path),
		Valid: true,
	}

	levels, err := engine.LoadLevelFile(path)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	result.Levels = len(levels)
	result.Warnings = checkLevels(levels)
	return result
}

// ValidateFiles checks every file and reports whether all are valid
func ValidateFiles(paths []string) ([]ValidationResult, bool) {
	results := make([]ValidationResult, 0, len(paths))
	allValid := true
	for _, path := range paths {
		r := ValidateFile(path)
		if !r.Valid {
			allValid = false
		}
		results = append(results, r)
	}
	return results, allValid
}

func checkLevels(levels []*engine.Level) []string {
	var warnings []string
	seen := make(map[string]int)

	for _, lvl := range levels {
		board := engine.NewBoard(lvl)
		n := lvl.Index() + 1

		if board.IsComplete() {
			warnings = append(warnings, fmt.Sprintf("level %d is complete before any move", n))
		} else if len(board.PossibleMoves()) == 0 {
			warnings = append(warnings, fmt.Sprintf("level %d has no possible moves", n))
		}

		key := strings.Join(lvl.Rows(), "\n")
		if first, ok := seen[key]; ok {
			warnings = append(warnings, fmt.Sprintf("level %d repeats level %d", n, first))
		} else {
			seen[key] = n
		}
	}
	return warnings
}
