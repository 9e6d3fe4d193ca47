package controller

import (
	"github.com/vancomm/smartmines/internal/minefield"
	"github.com/vancomm/smartmines/internal/table"
)

type Square struct {
	State minefield.SquareState `json:"state"`
	// Neighbors is only set on uncovered squares.
	Neighbors *uint `json:"neighbors,omitempty"`
	Mine      bool  `json:"mine,omitempty"`
}

type Settings struct {
	EasyStart      bool `json:"easy_start"`
	SmartUncover   bool `json:"smart_uncover"`
	SmartMark      bool `json:"smart_mark"`
	QuestionMarks  bool `json:"question_marks"`
	RevealAllMines bool `json:"reveal_all_mines"`
}

// Snapshot is what a player may see of the minefield. Mines stay hidden
// except the ones revealed when the field blew up.
type Snapshot struct {
	Game        string          `json:"game"`
	Description string          `json:"description"`
	Player      string          `json:"player,omitempty"`
	Rows        uint            `json:"rows"`
	Columns     uint            `json:"columns"`
	Mines       uint            `json:"mines"`
	State       minefield.State `json:"state"`
	Covered     uint            `json:"covered"`
	Marked      uint            `json:"marked"`
	ElapsedMs   int64           `json:"elapsed_ms"`
	Rank        int             `json:"rank,omitempty"`
	Settings    Settings        `json:"settings"`
	Squares     [][]Square      `json:"squares"`
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	f := c.field
	size := f.Size()
	s := Snapshot{
		Game:        c.game.Name(),
		Description: c.game.Description(),
		Player:      c.player,
		Rows:        size.Rows,
		Columns:     size.Columns,
		Mines:       f.NumberOfMines(),
		State:       f.State(),
		Covered:     f.NumberOfCoveredSquares(),
		Marked:      f.NumberOfMarkedSquares(),
		ElapsedMs:   c.elapsed().Milliseconds(),
		Rank:        c.rank,
		Settings: Settings{
			EasyStart:      f.UsesEasyStart(),
			SmartUncover:   f.UsesSmartUncover(),
			SmartMark:      f.UsesSmartMark(),
			QuestionMarks:  f.UsesQuestionMarks(),
			RevealAllMines: f.RevealPolicy() == minefield.RevealAllMines,
		},
	}

	squares := table.NewTable[Square](size)
	for i := range table.NewIterator(table.MakeRect(0, 0, size.Rows, size.Columns), size).All() {
		sq := squares.Ptr(i)
		sq.State, _ = f.StateAt(i)
		if sq.State == minefield.Uncovered {
			n, _ := f.CountNeighborsWithMinesAt(i)
			sq.Neighbors = &n
		}
	}
	for i := range c.revealed.All() {
		squares.Ptr(i).Mine = true
	}

	s.Squares = make([][]Square, size.Rows)
	for row := range size.Rows {
		s.Squares[row] = squares.Row(row)
	}
	return s
}

// String renders the minefield as text.
func (c *Controller) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.field.String()
}
