package minefield

import (
	"fmt"
	"hash/maphash"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/vancomm/smartmines/internal/table"
)

var Log = logrus.New()

var (
	ErrInvalidConfiguration = fmt.Errorf("invalid minefield configuration")
	ErrIndexOutOfRange      = table.ErrIndexOutOfRange
)

// Validate reports whether a field of the given size can hold mines mines.
// At least one square must stay free of mines.
func Validate(size table.Size, mines uint) error {
	if size.Empty() {
		return fmt.Errorf("%w: size %v has a zero dimension", ErrInvalidConfiguration, size)
	}
	if mines >= size.Count() {
		return fmt.Errorf(
			"%w: %d mines do not fit in %v", ErrInvalidConfiguration, mines, size,
		)
	}
	return nil
}

type Minefield struct {
	squares *table.Table[square]
	mines   uint

	coveredSquares uint
	markedSquares  uint
	minesPlaced    bool

	easyStart     bool
	smartUncover  bool
	smartMark     bool
	questionMarks bool
	reveal        RevealPolicy

	state State
	rand  *rand.Rand
	log   *logrus.Logger
}

type Option func(*Minefield)

func WithRand(r *rand.Rand) Option {
	return func(m *Minefield) { m.rand = r }
}

func WithEasyStart(enabled bool) Option {
	return func(m *Minefield) { m.easyStart = enabled }
}

func WithSmartUncover(enabled bool) Option {
	return func(m *Minefield) { m.smartUncover = enabled }
}

func WithSmartMark(enabled bool) Option {
	return func(m *Minefield) { m.smartMark = enabled }
}

func WithQuestionMarks(enabled bool) Option {
	return func(m *Minefield) { m.questionMarks = enabled }
}

func WithRevealPolicy(p RevealPolicy) Option {
	return func(m *Minefield) { m.reveal = p }
}

func WithLogger(log *logrus.Logger) Option {
	return func(m *Minefield) { m.log = log }
}

func createRand() *rand.Rand {
	return rand.New(rand.NewPCG(
		new(maphash.Hash).Sum64(), new(maphash.Hash).Sum64(),
	))
}

// New creates a minefield in the NotStarted state. Without easy start the
// mines are placed right away.
func New(size table.Size, mines uint, opts ...Option) (*Minefield, error) {
	if err := Validate(size, mines); err != nil {
		return nil, err
	}
	m := &Minefield{log: Log}
	for _, opt := range opts {
		opt(m)
	}
	if m.rand == nil {
		m.rand = createRand()
	}
	m.squares = table.NewTable[square](size)
	m.mines = mines
	m.Clear()
	return m, nil
}

// Clear covers and unmarks every square and starts over with a new layout.
func (m *Minefield) Clear() {
	clear(m.squares.Cells())
	m.coveredSquares = m.squares.Size().Count()
	m.markedSquares = 0
	m.minesPlaced = false
	m.state = NotStarted
	if !m.easyStart {
		m.placeMines(func(int) bool { return false })
	}
}

// SetSize reallocates the field. The field is left untouched when the new
// configuration is invalid.
func (m *Minefield) SetSize(size table.Size, mines uint) error {
	if err := Validate(size, mines); err != nil {
		return err
	}
	m.squares = table.NewTable[square](size)
	m.mines = mines
	m.Clear()
	return nil
}

func (m *Minefield) Size() table.Size { return m.squares.Size() }
func (m *Minefield) NumberOfMines() uint { return m.mines }
func (m *Minefield) State() State { return m.state }
func (m *Minefield) UsesEasyStart() bool { return m.easyStart }
func (m *Minefield) UsesSmartUncover() bool { return m.smartUncover }
func (m *Minefield) UsesSmartMark() bool { return m.smartMark }

func (m *Minefield) UsesQuestionMarks() bool { return m.questionMarks }
func (m *Minefield) RevealPolicy() RevealPolicy { return m.reveal }

func (m *Minefield) NumberOfCoveredSquares() uint { return m.coveredSquares }
func (m *Minefield) NumberOfMarkedSquares() uint { return m.markedSquares }

// SetUsesEasyStart changes the placement policy. A field that has not been
// started yet is cleared so that the new policy applies to its next game;
// the squares whose marks were dropped are returned.
func (m *Minefield) SetUsesEasyStart(enabled bool) *table.IndexList {
	changed := table.NewIndexList()
	if m.easyStart == enabled {
		return changed
	}
	m.easyStart = enabled
	if m.state != NotStarted {
		return changed
	}
	cells := m.squares.Cells()
	for i := range cells {
		if cells[i].state != Unmarked {
			changed.Append(m.Size().IndexAt(i))
		}
	}
	m.Clear()
	return changed
}

func (m *Minefield) SetUsesSmartUncover(enabled bool) { m.smartUncover = enabled }
func (m *Minefield) SetUsesSmartMark(enabled bool) { m.smartMark = enabled }
func (m *Minefield) SetRevealPolicy(p RevealPolicy) { m.reveal = p }

// SetUsesQuestionMarks enables or disables question marks. Disabling them
// clears every question mark on the field; the cleared squares are returned.
// Once the game is over only the setting changes.
func (m *Minefield) SetUsesQuestionMarks(enabled bool) *table.IndexList {
	changed := table.NewIndexList()
	m.questionMarks = enabled
	if enabled || m.state.Over() {
		return changed
	}
	cells := m.squares.Cells()
	for i := range cells {
		if cells[i].state == QuestionMarked {
			cells[i].state = Unmarked
			changed.Append(m.Size().IndexAt(i))
		}
	}
	return changed
}

func (m *Minefield) check(i table.Index) error {
	if !m.Size().Contains(i) {
		return fmt.Errorf("%w: %v not in %v", ErrIndexOutOfRange, i, m.Size())
	}
	return nil
}

func (m *Minefield) HasMineAt(i table.Index) (bool, error) {
	if err := m.check(i); err != nil {
		return false, err
	}
	return m.squares.At(i).hasMine, nil
}

func (m *Minefield) StateAt(i table.Index) (SquareState, error) {
	if err := m.check(i); err != nil {
		return Unmarked, err
	}
	return m.squares.At(i).state, nil
}

func (m *Minefield) CountNeighborsWithMinesAt(i table.Index) (uint, error) {
	if err := m.check(i); err != nil {
		return 0, err
	}
	return uint(m.squares.At(i).neighbors), nil
}

func (m *Minefield) countNeighbors(i table.Index, pred func(*square) bool) uint {
	var n uint
	for j := range table.Neighbors(i, m.Size()) {
		if pred(m.squares.Ptr(j)) {
			n++
		}
	}
	return n
}

func isMarked(s *square) bool { return s.state == Marked }
func isCovered(s *square) bool { return s.state.Covered() }
func hasMine(s *square) bool { return s.hasMine }

// placeMines picks m.mines squares at random among the ones not excluded
// and recomputes the neighbor counts.
func (m *Minefield) placeMines(excluded func(offset int) bool) {
	cells := m.squares.Cells()
	candidates := make([]int, 0, len(cells))
	for i := range cells {
		if !excluded(i) {
			candidates = append(candidates, i)
		}
	}

	k := len(candidates)
	for range m.mines {
		i := m.rand.IntN(k)
		cells[candidates[i]].hasMine = true
		k--
		candidates[i] = candidates[k]
	}
	m.layMines()
}

// placeMinesAround keeps first and, if the field is large enough, its
// neighbors free of mines.
func (m *Minefield) placeMinesAround(first table.Index) {
	size := m.Size()
	area := table.Neighborhood(first).Clip(size)
	if size.Count()-area.Size.Count() >= m.mines {
		m.placeMines(func(offset int) bool {
			return area.Contains(size.IndexAt(offset))
		})
		return
	}
	m.log.WithFields(logrus.Fields{
		"size":  size,
		"mines": m.mines,
	}).Debug("field too dense to keep the first neighborhood clear")
	firstOffset := size.Offset(first)
	m.placeMines(func(offset int) bool { return offset == firstOffset })
}

// layMines marks the layout as final and caches the neighbor counts.
func (m *Minefield) layMines() {
	size := m.Size()
	cells := m.squares.Cells()
	for i := range cells {
		cells[i].neighbors = uint8(m.countNeighbors(size.IndexAt(i), hasMine))
	}
	m.minesPlaced = true
}

// MarkAt cycles the mark of a covered square: unmarked, marked, question
// marked (when enabled) and back to unmarked.
func (m *Minefield) MarkAt(i table.Index) (*table.IndexList, error) {
	if err := m.check(i); err != nil {
		return nil, err
	}
	changed := table.NewIndexList()
	if m.state.Over() {
		return changed, nil
	}
	s := m.squares.Ptr(i)
	switch s.state {
	case Unmarked:
		s.state = Marked
		m.markedSquares++
	case Marked:
		m.markedSquares--
		if m.questionMarks {
			s.state = QuestionMarked
		} else {
			s.state = Unmarked
		}
	case QuestionMarked:
		s.state = Unmarked
	case Uncovered:
		return changed, nil
	}
	changed.Append(i)
	return changed, nil
}

// SmartMarkAt marks every covered neighbor of an uncovered square when the
// number of covered neighbors equals its mine count, since all of them must
// be mines. It does nothing unless smart mark is enabled.
func (m *Minefield) SmartMarkAt(i table.Index) (*table.IndexList, error) {
	if err := m.check(i); err != nil {
		return nil, err
	}
	changed := table.NewIndexList()
	s := m.squares.Ptr(i)
	if !m.smartMark || m.state.Over() || s.state != Uncovered || s.neighbors == 0 {
		return changed, nil
	}
	if m.countNeighbors(i, isCovered) != uint(s.neighbors) {
		return changed, nil
	}
	for j := range table.Neighbors(i, m.Size()) {
		n := m.squares.Ptr(j)
		if n.state == Unmarked || n.state == QuestionMarked {
			n.state = Marked
			m.markedSquares++
			changed.Append(j)
		}
	}
	return changed, nil
}

/*
UncoverAt uncovers the square at i and returns every square whose state
changed.

  - The first uncover of a game starts it; with easy start this is when the
    mines are placed.
  - Squares without neighboring mines uncover their neighbors, transitively.
  - On an uncovered square with smart uncover enabled, all unmarked covered
    neighbors are uncovered if the number of marked neighbors matches the
    square's mine count.
  - Marked and question-marked squares are left alone.
*/
func (m *Minefield) UncoverAt(i table.Index) (*table.IndexList, error) {
	if err := m.check(i); err != nil {
		return nil, err
	}
	changed := table.NewIndexList()
	if m.state.Over() {
		return changed, nil
	}

	s := m.squares.Ptr(i)
	switch s.state {
	case Marked, QuestionMarked:
		return changed, nil
	case Uncovered:
		if !m.smartUncover || m.countNeighbors(i, isMarked) != uint(s.neighbors) {
			return changed, nil
		}
		for j := range table.Neighbors(i, m.Size()) {
			if m.squares.At(j).state != Unmarked {
				continue
			}
			m.uncover(j, changed)
			if m.state == BlownUp {
				break
			}
		}
	case Unmarked:
		if m.state == NotStarted {
			if !m.minesPlaced {
				m.placeMinesAround(i)
			}
			m.setState(NotCompleted)
		}
		m.uncover(i, changed)
	}

	if m.state == NotCompleted && m.coveredSquares == m.mines {
		m.setState(Completed)
	}
	return changed, nil
}

// uncover opens the square at start and cascades through squares without
// neighboring mines. It uses a queue instead of recursion so large empty
// regions do not grow the stack.
func (m *Minefield) uncover(start table.Index, changed *table.IndexList) {
	queue := []table.Index{start}
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]

		s := m.squares.Ptr(i)
		if s.state != Unmarked {
			continue
		}
		s.state = Uncovered
		m.coveredSquares--
		changed.Append(i)

		if s.hasMine {
			m.blowUp(i, changed)
			return
		}
		if s.neighbors != 0 {
			continue
		}
		for j := range table.Neighbors(i, m.Size()) {
			if m.squares.At(j).state == Unmarked {
				queue = append(queue, j)
			}
		}
	}
}

func (m *Minefield) blowUp(detonated table.Index, changed *table.IndexList) {
	m.setState(BlownUp)
	m.log.WithField("index", detonated).Debug("mine detonated")
	if m.reveal != RevealAllMines {
		return
	}
	size := m.Size()
	for offset, s := range m.squares.Cells() {
		if s.hasMine && offset != size.Offset(detonated) {
			changed.Append(size.IndexAt(offset))
		}
	}
}

func (m *Minefield) setState(s State) {
	m.log.WithFields(logrus.Fields{
		"from": m.state,
		"to":   s,
	}).Debug("minefield state changed")
	m.state = s
}

// UncoverableAt returns the squares that UncoverAt(i) would uncover
// without changing anything. Before the mines of an easy start game are
// placed only i itself can be predicted.
func (m *Minefield) UncoverableAt(i table.Index) (*table.IndexList, error) {
	if err := m.check(i); err != nil {
		return nil, err
	}
	result := table.NewIndexList()
	if m.state.Over() {
		return result, nil
	}

	s := m.squares.At(i)
	switch s.state {
	case Marked, QuestionMarked:
	case Uncovered:
		if !m.smartUncover || m.countNeighbors(i, isMarked) != uint(s.neighbors) {
			break
		}
		seen := make([]bool, m.Size().Count())
		for j := range table.Neighbors(i, m.Size()) {
			m.collect(j, seen, result)
		}
	case Unmarked:
		if !m.minesPlaced {
			result.Append(i)
			break
		}
		m.collect(i, make([]bool, m.Size().Count()), result)
	}
	return result, nil
}

// collect is the read-only counterpart of uncover.
func (m *Minefield) collect(start table.Index, seen []bool, result *table.IndexList) {
	size := m.Size()
	queue := []table.Index{start}
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]

		offset := size.Offset(i)
		s := m.squares.At(i)
		if seen[offset] || s.state != Unmarked {
			continue
		}
		seen[offset] = true
		result.Append(i)

		if s.hasMine || s.neighbors != 0 {
			continue
		}
		for j := range table.Neighbors(i, size) {
			queue = append(queue, j)
		}
	}
}

// Minefield implements [fmt.Stringer]. Covered squares are shown as '#',
// marks as 'F' and '?', uncovered mines as '*' and empty squares as '.'.
func (m *Minefield) String() string {
	var b strings.Builder
	size := m.Size()
	for r := range size.Rows {
		for c, s := range m.squares.Row(r) {
			if c > 0 {
				b.WriteByte(' ')
			}
			switch {
			case s.state == Marked:
				b.WriteByte('F')
			case s.state == QuestionMarked:
				b.WriteByte('?')
			case s.state != Uncovered:
				b.WriteByte('#')
			case s.hasMine:
				b.WriteByte('*')
			case s.neighbors == 0:
				b.WriteByte('.')
			default:
				b.WriteString(strconv.Itoa(int(s.neighbors)))
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}
