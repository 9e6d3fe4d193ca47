package table

import (
	"encoding/json"
	"fmt"
	"iter"
)

// IndexList is a growable list of [Index] values. Minefield mutators use it
// to report which squares changed.
type IndexList struct {
	values []Index
}

func NewIndexList() *IndexList {
	return &IndexList{}
}

// NewIndexListWithCapacity allocates room for capacity values up front.
func NewIndexListWithCapacity(capacity int) *IndexList {
	return &IndexList{values: make([]Index, 0, capacity)}
}

func IndexListOf(values ...Index) *IndexList {
	l := NewIndexListWithCapacity(len(values))
	l.values = append(l.values, values...)
	return l
}

// Append adds v at the end of the list. When the list is full its capacity
// grows by a factor of 1.5, rounded up.
func (l *IndexList) Append(v Index) {
	if len(l.values) == cap(l.values) {
		c := cap(l.values)
		grown := make([]Index, len(l.values), max(c+(c+1)/2, 1))
		copy(grown, l.values)
		l.values = grown
	}
	l.values = append(l.values, v)
}

func (l *IndexList) Count() int {
	return len(l.values)
}

func (l *IndexList) Capacity() int {
	return cap(l.values)
}

func (l *IndexList) ValueAt(i int) (Index, error) {
	if i < 0 || i >= len(l.values) {
		return Index{}, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, i, len(l.values))
	}
	return l.values[i], nil
}

func (l *IndexList) SetValueAt(i int, v Index) error {
	if i < 0 || i >= len(l.values) {
		return fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, i, len(l.values))
	}
	l.values[i] = v
	return nil
}

// Clear empties the list but keeps its capacity.
func (l *IndexList) Clear() {
	l.values = l.values[:0]
}

// Clone returns a copy that does not share storage with l.
func (l *IndexList) Clone() *IndexList {
	c := NewIndexListWithCapacity(cap(l.values))
	c.values = append(c.values, l.values...)
	return c
}

func (l *IndexList) Contains(v Index) bool {
	for _, w := range l.values {
		if w == v {
			return true
		}
	}
	return false
}

func (l *IndexList) All() iter.Seq[Index] {
	return func(yield func(Index) bool) {
		for _, v := range l.values {
			if !yield(v) {
				return
			}
		}
	}
}

// Values returns a copy of the list contents.
func (l *IndexList) Values() []Index {
	return append([]Index{}, l.values...)
}

// IndexList implements [json.Marshaler]
func (l *IndexList) MarshalJSON() ([]byte, error) {
	pairs := make([][2]uint, len(l.values))
	for i, v := range l.values {
		pairs[i] = [2]uint{v.Row, v.Column}
	}
	return json.Marshal(pairs)
}
