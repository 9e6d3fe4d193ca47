package game

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vancomm/smartmines/internal/table"
)

type clock struct {
	t time.Time
}

func (c *clock) now() time.Time { return c.t }

func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newClock() *clock {
	return &clock{t: time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)}
}

func TestDescribeParseRoundTrip(t *testing.T) {
	size, mines, err := Parse(Describe(table.MakeSize(9, 9), 10))
	require.NoError(t, err)
	assert.Equal(t, table.MakeSize(9, 9), size)
	assert.Equal(t, uint(10), mines)

	for rows := uint(1); rows <= 30; rows += 7 {
		for columns := uint(1); columns <= 40; columns += 9 {
			for _, mines := range []uint{0, 1, 2, rows*columns - 1} {
				if !IsValidGameSize(table.MakeSize(rows, columns), mines) {
					continue
				}
				text := Describe(table.MakeSize(rows, columns), mines)
				size, m, err := Parse(text)
				require.NoError(t, err, text)
				assert.Equal(t, table.MakeSize(rows, columns), size, text)
				assert.Equal(t, mines, m, text)
			}
		}
	}
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "9x9, 10 mines", Describe(table.MakeSize(9, 9), 10))
	assert.Equal(t, "16x30, 99 mines", Describe(table.MakeSize(16, 30), 99))
	assert.Equal(t, "2x2, 1 mine", Describe(table.MakeSize(2, 2), 1))
	assert.Equal(t, "1x2, 0 mines", Describe(table.MakeSize(1, 2), 0))
}

func TestParseRejects(t *testing.T) {
	for _, text := range []string{
		"",
		"9x9",
		"9x9, 10",
		"9x9, 10 mine",
		"2x2, 1 mines",
		"9 x 9, 10 mines",
		"9X9, 10 mines",
		"09x9, 10 mines",
		"9x9, 010 mines",
		"0x9, 10 mines",
		"9x0, 0 mines",
		"-9x9, 10 mines",
		" 9x9, 10 mines",
		"9x9, 10 mines ",
		"9x9,10 mines",
		"9x9, ten mines",
		"99999999999999999999999x9, 1 mines",
	} {
		t.Run(text, func(t *testing.T) {
			_, _, err := Parse(text)
			assert.ErrorIs(t, err, ErrParse)

			g, err := NewFromDescription(text)
			assert.ErrorIs(t, err, ErrParse)
			assert.Nil(t, g)
		})
	}
}

func TestNewFromDescription(t *testing.T) {
	g, err := NewFromDescription("16x16, 40 mines")
	require.NoError(t, err)
	assert.Equal(t, table.MakeSize(16, 16), g.Size())
	assert.Equal(t, uint(40), g.Mines())

	g, err = NewFromDescription("2x2, 4 mines")
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
	assert.Nil(t, g)
}

func TestIsValidGameSize(t *testing.T) {
	assert.True(t, IsValidGameSize(table.MakeSize(9, 9), 10))
	assert.True(t, IsValidGameSize(table.MakeSize(1, 2), 1))
	assert.False(t, IsValidGameSize(table.MakeSize(3, 3), 9))
	assert.False(t, IsValidGameSize(table.MakeSize(0, 3), 0))

	_, err := New(table.MakeSize(3, 3), 9)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestName(t *testing.T) {
	g, err := New(table.MakeSize(9, 9), 10)
	require.NoError(t, err)
	assert.Equal(t, "9x9, 10 mines", g.Name())

	g.SetName("Beginner")
	assert.Equal(t, "Beginner", g.Name())
	assert.Equal(t, "9x9, 10 mines", g.Description())
}

func TestLifecycle(t *testing.T) {
	c := newClock()
	ranking := NewRanking(3)
	g, err := New(table.MakeSize(9, 9), 10, WithClock(c.now), WithHighScores(ranking))
	require.NoError(t, err)
	assert.True(t, g.LastPlayed().IsZero())

	g.GameStarted()
	assert.Equal(t, uint(1), g.TimesStarted())
	assert.Equal(t, c.t, g.LastPlayed())

	c.advance(time.Minute)
	rank, err := g.GameWon(context.Background(), "ann", 42*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 1, rank)
	assert.Equal(t, uint(1), g.TimesWon())

	g.GameStarted()
	g.GameLost()
	assert.Equal(t, uint(2), g.TimesStarted())
	assert.Equal(t, uint(1), g.TimesLost())

	scores, err := g.HighScores().List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Score{{Player: "ann", Elapsed: 42 * time.Second, Date: c.t}}, scores)
}

type failingScores struct{}

func (failingScores) Add(context.Context, Score) (int, error) {
	return 0, errors.New("disk full")
}

func (failingScores) List(context.Context) ([]Score, error) { return nil, nil }

func TestGameWonWithoutHighScores(t *testing.T) {
	g, err := New(table.MakeSize(9, 9), 10)
	require.NoError(t, err)
	rank, err := g.GameWon(context.Background(), "ann", time.Second)
	require.NoError(t, err)
	assert.Zero(t, rank)
	assert.Equal(t, uint(1), g.TimesWon())

	g.SetHighScores(failingScores{})
	_, err = g.GameWon(context.Background(), "ann", time.Second)
	assert.ErrorContains(t, err, "disk full")
	assert.Equal(t, uint(2), g.TimesWon())
}

func TestIsPlayedMoreRecentlyThan(t *testing.T) {
	c := newClock()
	a, err := New(table.MakeSize(9, 9), 10, WithClock(c.now))
	require.NoError(t, err)
	b, err := New(table.MakeSize(16, 16), 40, WithClock(c.now))
	require.NoError(t, err)

	a.GameStarted()
	c.advance(time.Second)
	b.GameStarted()
	assert.True(t, b.IsPlayedMoreRecentlyThan(a))
	assert.False(t, a.IsPlayedMoreRecentlyThan(b))
	assert.False(t, a.IsPlayedMoreRecentlyThan(a))
}
