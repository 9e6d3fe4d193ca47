package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/vancomm/smartmines/internal/game"
	"github.com/vancomm/smartmines/internal/table"
)

var Log = logrus.New()

const (
	gamesTable      = "games"
	highScoresTable = "high_scores"
)

// GameStore persists game records and high score lists, both keyed by the
// canonical description of their configuration.
type GameStore struct {
	games    *Store
	scores   *Store
	capacity int
}

func NewGameStore(db *sql.DB, rankingCapacity int) (*GameStore, error) {
	games, err := New(db, gamesTable)
	if err != nil {
		return nil, err
	}
	scores, err := New(db, highScoresTable)
	if err != nil {
		return nil, err
	}
	return &GameStore{games: games, scores: scores, capacity: rankingCapacity}, nil
}

// SaveGame writes the current record of g.
func (s *GameStore) SaveGame(g *game.Game) error {
	r := g.Record()
	data, err := game.EncodeRecord(r)
	if err != nil {
		return fmt.Errorf("unable to encode %s: %w", r.Key(), err)
	}
	return s.games.Set(r.Key(), data)
}

func (s *GameStore) DeleteGame(g *game.Game) error {
	return s.games.Delete(g.Description())
}

// LoadRecords returns every stored record. Records that cannot be decoded
// are logged and skipped.
func (s *GameStore) LoadRecords() ([]game.Record, error) {
	keys, err := s.games.Keys()
	if err != nil {
		return nil, fmt.Errorf("unable to list games: %w", err)
	}
	records := make([]game.Record, 0, len(keys))
	for _, key := range keys {
		var data []byte
		if err := s.games.Get(key, &data); err != nil {
			return nil, err
		}
		r, err := game.DecodeRecord(data)
		if err != nil {
			Log.WithError(err).WithField("key", key).Warn("skipping game record")
			continue
		}
		records = append(records, r)
	}
	return records, nil
}

// HighScores loads the persisted list of a configuration. It has the
// signature of [game.HighScoresFunc].
func (s *GameStore) HighScores(size table.Size, mines uint) (game.HighScores, error) {
	key := game.Describe(size, mines)
	var scores []game.Score
	err := s.scores.Get(key, &scores)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("unable to load high scores for %s: %w", key, err)
	}
	return &HighScores{
		ranking: game.NewRanking(s.capacity, scores...),
		store:   s.scores,
		key:     key,
	}, nil
}

// HighScores is a [game.Ranking] written through to a [Store].
type HighScores struct {
	mu      sync.Mutex
	ranking *game.Ranking
	store   *Store
	key     string
}

// HighScores implements [game.HighScores]
func (h *HighScores) Add(ctx context.Context, score game.Score) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	rank, err := h.ranking.Add(ctx, score)
	if err != nil || rank == 0 {
		return rank, err
	}
	if err := h.store.Set(h.key, h.ranking.Scores()); err != nil {
		return 0, fmt.Errorf("unable to save high scores for %s: %w", h.key, err)
	}
	return rank, nil
}

// HighScores implements [game.HighScores]
func (h *HighScores) List(ctx context.Context) ([]game.Score, error) {
	return h.ranking.List(ctx)
}
