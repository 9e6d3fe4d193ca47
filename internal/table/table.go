package table

import (
	"fmt"
	"iter"
)

var ErrIndexOutOfRange = fmt.Errorf("index out of range")

type Index struct {
	Row    uint `json:"row"`
	Column uint `json:"column"`
}

func MakeIndex(row, column uint) Index {
	return Index{Row: row, Column: column}
}

// Index implements [fmt.Stringer]
func (i Index) String() string {
	return fmt.Sprintf("(%d,%d)", i.Row, i.Column)
}

type Size struct {
	Rows    uint `json:"rows"`
	Columns uint `json:"columns"`
}

func MakeSize(rows, columns uint) Size {
	return Size{Rows: rows, Columns: columns}
}

// Size implements [fmt.Stringer]
func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Rows, s.Columns)
}

// Count returns the number of cells in a table of size s.
func (s Size) Count() uint {
	return s.Rows * s.Columns
}

// Empty reports whether s has a zero dimension.
func (s Size) Empty() bool {
	return s.Rows == 0 || s.Columns == 0
}

func (s Size) Contains(i Index) bool {
	return i.Row < s.Rows && i.Column < s.Columns
}

// Offset returns the position of i in the row-major layout of s.
func (s Size) Offset(i Index) int {
	return int(i.Row*s.Columns + i.Column)
}

// IndexAt is the inverse of [Size.Offset].
func (s Size) IndexAt(offset int) Index {
	return Index{
		Row:    uint(offset) / s.Columns,
		Column: uint(offset) % s.Columns,
	}
}

type Rect struct {
	Origin Index `json:"origin"`
	Size   Size  `json:"size"`
}

func MakeRect(row, column, rows, columns uint) Rect {
	return Rect{Origin: MakeIndex(row, column), Size: MakeSize(rows, columns)}
}

// Neighborhood returns the 3x3 region centered on i, trimmed at the top and
// left edges. Clip it, or walk it with [NewIterator], to stay inside a grid.
func Neighborhood(i Index) Rect {
	r := Rect{Origin: i, Size: MakeSize(3, 3)}
	if i.Row == 0 {
		r.Size.Rows--
	} else {
		r.Origin.Row--
	}
	if i.Column == 0 {
		r.Size.Columns--
	} else {
		r.Origin.Column--
	}
	return r
}

// Clip returns the part of r that lies within a table of size bounds.
func (r Rect) Clip(bounds Size) Rect {
	begin := Index{
		Row:    min(r.Origin.Row, bounds.Rows),
		Column: min(r.Origin.Column, bounds.Columns),
	}
	end := Index{
		Row:    clipEnd(r.Origin.Row, r.Size.Rows, bounds.Rows),
		Column: clipEnd(r.Origin.Column, r.Size.Columns, bounds.Columns),
	}
	return Rect{
		Origin: begin,
		Size:   MakeSize(end.Row-begin.Row, end.Column-begin.Column),
	}
}

func (r Rect) Contains(i Index) bool {
	return i.Row >= r.Origin.Row && i.Row-r.Origin.Row < r.Size.Rows &&
		i.Column >= r.Origin.Column && i.Column-r.Origin.Column < r.Size.Columns
}

func clipEnd(origin, extent, bound uint) uint {
	if origin >= bound || extent >= bound-origin {
		return bound
	}
	return origin + extent
}

/*
Iterator walks a rectangular region row by row. The region is clipped to the
bounds given at construction, so it never yields an index outside of them.

	it := NewIterator(rect, size)
	for it.Next() {
		use(it.Index())
	}
*/
type Iterator struct {
	index, begin, end Index
	started           bool
}

func NewIterator(r Rect, bounds Size) *Iterator {
	c := r.Clip(bounds)
	it := &Iterator{
		begin: c.Origin,
		end: Index{
			Row:    c.Origin.Row + c.Size.Rows,
			Column: c.Origin.Column + c.Size.Columns,
		},
	}
	it.First()
	return it
}

// First rewinds the iterator; the following call to Next yields the first
// index of the region.
func (it *Iterator) First() {
	it.index = it.begin
	it.started = false
}

func (it *Iterator) Empty() bool {
	return it.begin.Row >= it.end.Row || it.begin.Column >= it.end.Column
}

func (it *Iterator) Next() bool {
	if it.Empty() {
		return false
	}
	if !it.started {
		it.started = true
		return true
	}
	if it.index.Row >= it.end.Row {
		return false
	}
	it.index.Column++
	if it.index.Column == it.end.Column {
		it.index.Column = it.begin.Column
		it.index.Row++
	}
	return it.index.Row < it.end.Row
}

func (it *Iterator) Index() Index {
	return it.index
}

// All rewinds the iterator and yields every index of the region.
func (it *Iterator) All() iter.Seq[Index] {
	return func(yield func(Index) bool) {
		for it.First(); it.Next(); {
			if !yield(it.index) {
				return
			}
		}
	}
}

// Neighbors yields the up to 8 indices adjacent to i within bounds.
func Neighbors(i Index, bounds Size) iter.Seq[Index] {
	return func(yield func(Index) bool) {
		for n := range NewIterator(Neighborhood(i), bounds).All() {
			if n == i {
				continue
			}
			if !yield(n) {
				return
			}
		}
	}
}

/*
Table is a two-dimensional array stored as one contiguous row-major slice.
Cells are addressed either by [Index] or as t.Row(r)[c], and the whole
table can be walked through [Table.Cells] from the first cell of the first
row to the last cell of the last row.
*/
type Table[T any] struct {
	size  Size
	cells []T
}

// NewTable allocates a zero-initialized table.
func NewTable[T any](size Size) *Table[T] {
	return &Table[T]{
		size:  size,
		cells: make([]T, size.Count()),
	}
}

func (t *Table[T]) Size() Size {
	return t.size
}

func (t *Table[T]) At(i Index) T {
	return t.cells[t.size.Offset(i)]
}

func (t *Table[T]) Ptr(i Index) *T {
	return &t.cells[t.size.Offset(i)]
}

func (t *Table[T]) Set(i Index, v T) {
	t.cells[t.size.Offset(i)] = v
}

func (t *Table[T]) Row(row uint) []T {
	begin := row * t.size.Columns
	end := begin + t.size.Columns
	return t.cells[begin:end:end]
}

func (t *Table[T]) Cells() []T {
	return t.cells
}
