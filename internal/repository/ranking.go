package repository

import (
	"context"
	"fmt"

	"github.com/vancomm/smartmines/internal/game"
	"github.com/vancomm/smartmines/internal/table"
)

// HighScores is the [game.HighScores] of one configuration backed by the
// high_score table. Every completed game is stored; only the first capacity
// rows count as ranked.
type HighScores struct {
	q        *Queries
	size     table.Size
	mines    uint
	capacity int
}

func NewHighScores(q *Queries, size table.Size, mines uint, capacity int) *HighScores {
	if capacity <= 0 {
		capacity = game.DefaultRankingCapacity
	}
	return &HighScores{q: q, size: size, mines: mines, capacity: capacity}
}

// HighScoresFunc adapts q to [game.HighScoresFunc].
func HighScoresFunc(q *Queries, capacity int) game.HighScoresFunc {
	return func(size table.Size, mines uint) (game.HighScores, error) {
		return NewHighScores(q, size, mines, capacity), nil
	}
}

func (h *HighScores) filter() HighScoreFilter {
	return HighScoreFilter{Size: &h.size, Mines: &h.mines}
}

// HighScores implements [game.HighScores]
func (h *HighScores) Add(ctx context.Context, score game.Score) (int, error) {
	row, err := h.q.InsertHighScore(ctx, InsertHighScoreParams{
		Size:       h.size,
		Mines:      h.mines,
		Player:     score.Player,
		Elapsed:    score.Elapsed,
		AchievedAt: score.Date,
	})
	if err != nil {
		return 0, fmt.Errorf("unable to insert high score: %w", err)
	}
	rank, err := h.q.RankOf(ctx, row)
	if err != nil {
		return 0, fmt.Errorf("unable to rank high score: %w", err)
	}
	if rank > h.capacity {
		return 0, nil
	}
	return rank, nil
}

// HighScores implements [game.HighScores]
func (h *HighScores) List(ctx context.Context) ([]game.Score, error) {
	rows, err := h.q.GetHighScores(ctx, h.filter(), h.capacity)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch high scores: %w", err)
	}
	scores := make([]game.Score, len(rows))
	for i, row := range rows {
		scores[i] = row.Score()
	}
	return scores, nil
}
