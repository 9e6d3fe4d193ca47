package table

import (
	"encoding/json"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexListGrowth(t *testing.T) {
	l := NewIndexList()
	assert.Equal(t, 0, l.Capacity())

	var capacities []int
	for i := range uint(20) {
		l.Append(MakeIndex(i, i))
		if len(capacities) == 0 || capacities[len(capacities)-1] != l.Capacity() {
			capacities = append(capacities, l.Capacity())
		}
	}
	assert.Equal(t, []int{1, 2, 3, 5, 8, 12, 18, 27}, capacities)
	assert.Equal(t, 20, l.Count())

	for i := range 20 {
		v, err := l.ValueAt(i)
		require.NoError(t, err)
		assert.Equal(t, MakeIndex(uint(i), uint(i)), v)
	}
}

func TestIndexListWithCapacity(t *testing.T) {
	l := NewIndexListWithCapacity(4)
	assert.Equal(t, 4, l.Capacity())
	for range 4 {
		l.Append(MakeIndex(0, 0))
	}
	assert.Equal(t, 4, l.Capacity())
	l.Append(MakeIndex(0, 0))
	assert.Equal(t, 6, l.Capacity())
}

func TestIndexListDuplicates(t *testing.T) {
	l := IndexListOf(MakeIndex(1, 1), MakeIndex(1, 1))
	assert.Equal(t, 2, l.Count())
}

func TestIndexListBounds(t *testing.T) {
	l := IndexListOf(MakeIndex(0, 1))

	_, err := l.ValueAt(1)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = l.ValueAt(-1)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	assert.ErrorIs(t, l.SetValueAt(1, MakeIndex(0, 0)), ErrIndexOutOfRange)

	require.NoError(t, l.SetValueAt(0, MakeIndex(3, 3)))
	v, err := l.ValueAt(0)
	require.NoError(t, err)
	assert.Equal(t, MakeIndex(3, 3), v)
}

func TestIndexListClearKeepsCapacity(t *testing.T) {
	l := NewIndexList()
	for i := range uint(10) {
		l.Append(MakeIndex(0, i))
	}
	c := l.Capacity()
	l.Clear()
	assert.Equal(t, 0, l.Count())
	assert.Equal(t, c, l.Capacity())
}

func TestIndexListClone(t *testing.T) {
	l := IndexListOf(MakeIndex(0, 0), MakeIndex(0, 1))
	c := l.Clone()

	require.NoError(t, c.SetValueAt(0, MakeIndex(9, 9)))
	c.Append(MakeIndex(2, 2))
	l.Append(MakeIndex(5, 5))

	assert.Equal(t, []Index{{0, 0}, {0, 1}, {5, 5}}, l.Values())
	assert.Equal(t, []Index{{9, 9}, {0, 1}, {2, 2}}, c.Values())
}

func TestIndexListIteration(t *testing.T) {
	want := []Index{{0, 0}, {2, 1}, {1, 2}}
	l := IndexListOf(want...)
	assert.Equal(t, want, slices.Collect(l.All()))
	assert.True(t, l.Contains(MakeIndex(2, 1)))
	assert.False(t, l.Contains(MakeIndex(1, 1)))

	var first []Index
	for v := range l.All() {
		first = append(first, v)
		break
	}
	assert.Equal(t, want[:1], first)
}

func TestIndexListJSON(t *testing.T) {
	b, err := json.Marshal(IndexListOf(MakeIndex(1, 2), MakeIndex(3, 4)))
	require.NoError(t, err)
	assert.JSONEq(t, `[[1,2],[3,4]]`, string(b))

	b, err = json.Marshal(NewIndexList())
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(b))
}
