package minefield

type SquareState int8

const (
	Unmarked SquareState = iota
	Marked
	QuestionMarked
	Uncovered
)

// SquareState implements [fmt.Stringer]
func (s SquareState) String() string {
	switch s {
	case Unmarked:
		return "unmarked"
	case Marked:
		return "marked"
	case QuestionMarked:
		return "question-marked"
	case Uncovered:
		return "uncovered"
	default:
		return "invalid"
	}
}

// SquareState implements [encoding.TextMarshaler]
func (s SquareState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s SquareState) Covered() bool {
	return s != Uncovered
}

type State int8

const (
	NotStarted State = iota
	NotCompleted
	Completed
	BlownUp
)

// State implements [fmt.Stringer]
func (s State) String() string {
	switch s {
	case NotStarted:
		return "not-started"
	case NotCompleted:
		return "not-completed"
	case Completed:
		return "completed"
	case BlownUp:
		return "blown-up"
	default:
		return "invalid"
	}
}

// State implements [encoding.TextMarshaler]
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Over reports whether the game has ended, won or lost.
func (s State) Over() bool {
	return s == Completed || s == BlownUp
}

// RevealPolicy decides which mines are reported when the field blows up.
type RevealPolicy int8

const (
	RevealDetonated RevealPolicy = iota
	RevealAllMines
)

type square struct {
	hasMine   bool
	state     SquareState
	neighbors uint8 // mines among the adjacent squares
}
