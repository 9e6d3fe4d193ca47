package game

import (
	"context"
	"slices"
	"sync"
	"time"
)

const DefaultRankingCapacity = 10

type Score struct {
	Player  string        `json:"player"`
	Elapsed time.Duration `json:"elapsed"`
	Date    time.Time     `json:"date"`
}

// Less orders scores by elapsed time, earlier dates first on ties.
func (s Score) Less(other Score) bool {
	if s.Elapsed != other.Elapsed {
		return s.Elapsed < other.Elapsed
	}
	return s.Date.Before(other.Date)
}

func compareScores(a, b Score) int {
	switch {
	case a.Less(b):
		return -1
	case b.Less(a):
		return 1
	default:
		return 0
	}
}

// HighScores keeps the ranked completion times of one configuration.
type HighScores interface {
	// Add records a completed game and returns its 1-based rank, or 0 if
	// it did not make the list.
	Add(ctx context.Context, score Score) (int, error)
	// List returns the ranked scores, best first.
	List(ctx context.Context) ([]Score, error)
}

// Ranking is an in-memory [HighScores] holding at most capacity scores.
type Ranking struct {
	mu       sync.Mutex
	capacity int
	scores   []Score
}

func NewRanking(capacity int, scores ...Score) *Ranking {
	if capacity <= 0 {
		capacity = DefaultRankingCapacity
	}
	r := &Ranking{capacity: capacity}
	for _, s := range scores {
		r.insert(s)
	}
	return r
}

func (r *Ranking) insert(s Score) int {
	i, _ := slices.BinarySearchFunc(r.scores, s, func(e, t Score) int {
		if c := compareScores(e, t); c != 0 {
			return c
		}
		return -1 // equal scores keep insertion order
	})
	if i >= r.capacity {
		return 0
	}
	r.scores = slices.Insert(r.scores, i, s)
	if len(r.scores) > r.capacity {
		r.scores = r.scores[:r.capacity]
	}
	return i + 1
}

// Ranking implements [HighScores]
func (r *Ranking) Add(_ context.Context, s Score) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.insert(s), nil
}

// Ranking implements [HighScores]
func (r *Ranking) List(_ context.Context) ([]Score, error) {
	return r.Scores(), nil
}

func (r *Ranking) Scores() []Score {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.scores)
}

func (r *Ranking) Capacity() int {
	return r.capacity
}
