package game

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vancomm/smartmines/internal/table"
)

func TestCollectionPresets(t *testing.T) {
	c, err := NewCollection(0, nil)
	require.NoError(t, err)

	presets := c.Presets()
	require.Len(t, presets, len(Presets))
	for i, p := range Presets {
		assert.Equal(t, p.Name, presets[i].Name())
		assert.Equal(t, p.Size, presets[i].Size())
		assert.Equal(t, p.Mines, presets[i].Mines())
		assert.False(t, presets[i].IsCustomGame())
	}

	g, err := c.FindByDescription("16x30, 99 mines")
	require.NoError(t, err)
	assert.Same(t, presets[2], g)

	g, err = c.FindByDescription("5x5, 3 mines")
	require.NoError(t, err)
	assert.Nil(t, g)

	_, err = c.FindByDescription("5x5")
	assert.ErrorIs(t, err, ErrParse)
}

func TestCollectionCustom(t *testing.T) {
	calls := 0
	c, err := NewCollection(2, func(table.Size, uint) (HighScores, error) {
		calls++
		return NewRanking(3), nil
	})
	require.NoError(t, err)
	assert.Equal(t, len(Presets), calls)

	a, evicted, err := c.Custom(table.MakeSize(5, 5), 3, "small")
	require.NoError(t, err)
	assert.Nil(t, evicted)
	assert.True(t, a.IsCustomGame())
	assert.Equal(t, "small", a.Name())
	assert.NotNil(t, a.HighScores())

	same, evicted, err := c.Custom(table.MakeSize(5, 5), 3, "")
	require.NoError(t, err)
	assert.Nil(t, evicted)
	assert.Same(t, a, same)
	assert.Equal(t, "small", same.Name())

	preset, evicted, err := c.Custom(table.MakeSize(9, 9), 10, "mine")
	require.NoError(t, err)
	assert.Nil(t, evicted)
	assert.Equal(t, "Beginner", preset.Name())

	_, _, err = c.Custom(table.MakeSize(2, 2), 4, "")
	assert.ErrorIs(t, err, ErrInvalidConfiguration)

	b, evicted, err := c.Custom(table.MakeSize(6, 6), 3, "")
	require.NoError(t, err)
	assert.Nil(t, evicted)

	a.GameStarted()
	_, evicted, err = c.Custom(table.MakeSize(7, 7), 3, "")
	require.NoError(t, err)
	assert.Same(t, b, evicted)

	var descriptions []string
	for _, g := range c.CustomGames() {
		descriptions = append(descriptions, g.Description())
	}
	assert.Equal(t, []string{"5x5, 3 mines", "7x7, 3 mines"}, descriptions)
	assert.Len(t, c.Games(), len(Presets)+2)
}

func TestCollectionHighScoresError(t *testing.T) {
	_, err := NewCollection(1, func(table.Size, uint) (HighScores, error) {
		return nil, errors.New("unavailable")
	})
	assert.ErrorContains(t, err, "unavailable")
}

func TestCollectionRestore(t *testing.T) {
	c, err := NewCollection(1, nil)
	require.NoError(t, err)
	played := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	evicted, err := c.Restore(Record{
		Version: RecordVersion, Rows: 9, Columns: 9, Mines: 10,
		Name: "ignored", LastPlayed: played, TimesStarted: 4, TimesWon: 2, TimesLost: 1,
	})
	require.NoError(t, err)
	assert.Nil(t, evicted)
	beginner := c.Find(table.MakeSize(9, 9), 10)
	assert.Equal(t, "Beginner", beginner.Name())
	assert.False(t, beginner.IsCustomGame())
	assert.Equal(t, uint(4), beginner.TimesStarted())
	assert.Equal(t, played, beginner.LastPlayed())

	evicted, err = c.Restore(Record{Rows: 4, Columns: 4, Mines: 2, LastPlayed: played})
	require.NoError(t, err)
	assert.Nil(t, evicted)
	evicted, err = c.Restore(Record{Rows: 5, Columns: 5, Mines: 2, LastPlayed: played.Add(time.Hour)})
	require.NoError(t, err)
	require.NotNil(t, evicted)
	assert.Equal(t, "4x4, 2 mines", evicted.Description())

	g := c.Find(table.MakeSize(5, 5), 2)
	require.NotNil(t, g)
	assert.True(t, g.IsCustomGame())

	_, err = c.Restore(Record{Rows: 1, Columns: 1, Mines: 1})
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}
