package repository

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/vancomm/smartmines/internal/game"
	"github.com/vancomm/smartmines/internal/table"
)

func TestWhereClause(t *testing.T) {
	player := "ann"
	size := table.MakeSize(16, 30)
	mines := uint(99)

	tests := []struct {
		name   string
		filter HighScoreFilter
		clause string
		args   pgx.NamedArgs
	}{
		{"empty", HighScoreFilter{}, "", pgx.NamedArgs{}},
		{"player", HighScoreFilter{Player: &player}, "player = @player", pgx.NamedArgs{"player": "ann"}},
		{
			"configuration",
			HighScoreFilter{Size: &size, Mines: &mines},
			"row_count = @row_count AND column_count = @column_count AND mine_count = @mine_count",
			pgx.NamedArgs{"row_count": uint(16), "column_count": uint(30), "mine_count": uint(99)},
		},
		{
			"everything",
			HighScoreFilter{Player: &player, Size: &size, Mines: &mines},
			"player = @player AND row_count = @row_count AND column_count = @column_count AND mine_count = @mine_count",
			pgx.NamedArgs{"player": "ann", "row_count": uint(16), "column_count": uint(30), "mine_count": uint(99)},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			clause, args := test.filter.WhereClause()
			assert.Equal(t, test.clause, clause)
			assert.Equal(t, test.args, args)
		})
	}
}

func TestInsertArgs(t *testing.T) {
	at := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	args := InsertHighScoreParams{
		Size:       table.MakeSize(9, 9),
		Mines:      10,
		Player:     "bob",
		Elapsed:    12345 * time.Millisecond,
		AchievedAt: at,
	}.Args()
	assert.Equal(t, int64(12345), args["elapsed_ms"])
	assert.Equal(t, at, args["achieved_at"])
	assert.Equal(t, uint(10), args["mine_count"])
}

func TestHighScoreScore(t *testing.T) {
	at := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	h := HighScore{Player: "bob", ElapsedMs: 1500, AchievedAt: at}
	assert.Equal(t, game.Score{Player: "bob", Elapsed: 1500 * time.Millisecond, Date: at}, h.Score())
}

func TestNewHighScoresDefaultCapacity(t *testing.T) {
	h := NewHighScores(New(nil), table.MakeSize(9, 9), 10, 0)
	assert.Equal(t, game.DefaultRankingCapacity, h.capacity)

	hs, err := HighScoresFunc(New(nil), 3)(table.MakeSize(9, 9), 10)
	assert.NoError(t, err)
	assert.Equal(t, 3, hs.(*HighScores).capacity)
}
