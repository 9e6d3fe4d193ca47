package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vancomm/smartmines/internal/game"
	"github.com/vancomm/smartmines/internal/table"
)

func TestGameStoreRecords(t *testing.T) {
	db := openTestDB(t)
	s, err := NewGameStore(db, 3)
	require.NoError(t, err)

	played := time.Date(2026, 5, 4, 3, 2, 1, 0, time.UTC)
	g, err := game.New(table.MakeSize(5, 7), 4,
		game.WithName("wide"), game.WithCustom(true),
		game.WithClock(func() time.Time { return played }))
	require.NoError(t, err)
	g.GameStarted()
	g.GameLost()
	require.NoError(t, s.SaveGame(g))

	// saving again replaces the record
	g.GameStarted()
	require.NoError(t, s.SaveGame(g))

	records, err := s.LoadRecords()
	require.NoError(t, err)
	require.Len(t, records, 1)
	r := records[0]
	assert.Equal(t, "5x7, 4 mines", r.Key())
	assert.Equal(t, "wide", r.Name)
	assert.Equal(t, uint(2), r.TimesStarted)
	assert.Equal(t, uint(1), r.TimesLost)
	assert.True(t, r.Custom)
	assert.True(t, played.Equal(r.LastPlayed))

	require.NoError(t, s.DeleteGame(g))
	records, err = s.LoadRecords()
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestGameStoreSkipsBrokenRecords(t *testing.T) {
	s, err := NewGameStore(openTestDB(t), 3)
	require.NoError(t, err)

	require.NoError(t, s.games.Set("broken", []byte(`{"rows":3}`)))
	require.NoError(t, s.games.Set("9x9, 10 mines", []byte(`{"rows":9,"columns":9,"mines":10}`)))

	records, err := s.LoadRecords()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 1, records[0].Version)
	assert.False(t, records[0].Custom)
}

func TestGameStoreHighScores(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	s, err := NewGameStore(db, 2)
	require.NoError(t, err)

	size := table.MakeSize(9, 9)
	h, err := s.HighScores(size, 10)
	require.NoError(t, err)

	date := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, test := range []struct {
		player  string
		elapsed time.Duration
		rank    int
	}{
		{"a", 30 * time.Second, 1},
		{"b", 10 * time.Second, 1},
		{"c", 40 * time.Second, 0},
		{"d", 20 * time.Second, 2},
	} {
		rank, err := h.Add(ctx, game.Score{Player: test.player, Elapsed: test.elapsed, Date: date})
		require.NoError(t, err)
		assert.Equal(t, test.rank, rank, test.player)
	}

	// a second store over the same database sees the saved list
	other, err := NewGameStore(db, 2)
	require.NoError(t, err)
	reloaded, err := other.HighScores(size, 10)
	require.NoError(t, err)
	scores, err := reloaded.List(ctx)
	require.NoError(t, err)
	require.Len(t, scores, 2)
	assert.Equal(t, "b", scores[0].Player)
	assert.Equal(t, "d", scores[1].Player)
	assert.True(t, date.Equal(scores[0].Date))

	empty, err := other.HighScores(table.MakeSize(16, 16), 40)
	require.NoError(t, err)
	scores, err = empty.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, scores)
}

func TestGameStoreWithCollection(t *testing.T) {
	s, err := NewGameStore(openTestDB(t), 5)
	require.NoError(t, err)

	c, err := game.NewCollection(2, s.HighScores)
	require.NoError(t, err)
	g, _, err := c.Custom(table.MakeSize(4, 4), 2, "")
	require.NoError(t, err)
	_, ok := g.HighScores().(*HighScores)
	assert.True(t, ok)
}
