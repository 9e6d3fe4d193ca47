package game

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/vancomm/smartmines/internal/table"
)

var ErrParse = fmt.Errorf("malformed game description")

var descriptionRe = regexp.MustCompile(`^([1-9][0-9]*)x([1-9][0-9]*), (0|[1-9][0-9]*) (mines?)$`)

func mineNoun(mines uint) string {
	if mines == 1 {
		return "mine"
	}
	return "mines"
}

// Describe formats a configuration as "<rows>x<columns>, <mines> mines",
// e.g. "9x9, 10 mines" or "2x2, 1 mine".
func Describe(size table.Size, mines uint) string {
	return fmt.Sprintf("%dx%d, %d %s", size.Rows, size.Columns, mines, mineNoun(mines))
}

// Parse is the inverse of [Describe]. Any text Describe would not produce
// for a non-empty size is rejected with [ErrParse].
func Parse(description string) (size table.Size, mines uint, err error) {
	m := descriptionRe.FindStringSubmatch(description)
	if m == nil {
		return table.Size{}, 0, fmt.Errorf("%w: %q", ErrParse, description)
	}

	var n [3]uint64
	for i := range n {
		n[i], err = strconv.ParseUint(m[i+1], 10, strconv.IntSize)
		if err != nil {
			return table.Size{}, 0, fmt.Errorf("%w: %q: %w", ErrParse, description, err)
		}
	}
	mines = uint(n[2])
	if m[4] != mineNoun(mines) {
		return table.Size{}, 0, fmt.Errorf("%w: %q: wrong plural", ErrParse, description)
	}
	return table.MakeSize(uint(n[0]), uint(n[1])), mines, nil
}
